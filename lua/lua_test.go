package lua_test

import (
	"testing"

	"github.com/goobie/glua-bridge/internal/vmtest"
	"github.com/goobie/glua-bridge/lua"
)

func newState(t *testing.T) lua.State {
	t.Helper()
	vmtest.Install(t)
	l, err := lua.NewState()
	if err != nil {
		t.Fatal(err)
	}
	return l
}

// captureErrors replaces both non-halting report globals with collectors,
// so tests can assert on what would have reached the game console.
func captureErrors(l lua.State) *[]string {
	reports := &[]string{}
	collect := func(cl lua.State) int32 {
		msg, _ := cl.String(1)
		*reports = append(*reports, msg)
		return 0
	}
	l.PushFunc(collect)
	l.SetGlobal("ErrorNoHalt")
	l.PushFunc(collect)
	l.SetGlobal("ErrorNoHaltWithStack")
	return reports
}

func TestNewStateIsolation(t *testing.T) {
	a := newState(t)
	b := newState(t)

	a.PushString("only in a")
	a.SetGlobal("marker")

	b.GetGlobal("marker")
	if !b.IsNil(-1) {
		t.Error("global leaked between independent states")
	}
	b.Pop()

	a.GetGlobal("marker")
	s, ok := a.String(-1)
	if !ok || s != "only in a" {
		t.Errorf("marker = %q, %v", s, ok)
	}
	a.Pop()
}

func TestTypeString(t *testing.T) {
	cases := []struct {
		t    lua.Type
		want string
	}{
		{lua.TypeNone, "no value"},
		{lua.TypeNil, "nil"},
		{lua.TypeBoolean, "boolean"},
		{lua.TypeLightUserdata, "userdata"},
		{lua.TypeNumber, "number"},
		{lua.TypeString, "string"},
		{lua.TypeTable, "table"},
		{lua.TypeFunction, "function"},
		{lua.TypeUserdata, "userdata"},
		{lua.TypeThread, "thread"},
		{lua.Type(99), "unknown"},
	}
	for _, c := range cases {
		if got := c.t.String(); got != c.want {
			t.Errorf("Type(%d).String() = %q, want %q", c.t, got, c.want)
		}
	}
}

func TestUpvalueIndex(t *testing.T) {
	if got := lua.UpvalueIndex(1); got != lua.GlobalsIndex-1 {
		t.Errorf("UpvalueIndex(1) = %d, want %d", got, lua.GlobalsIndex-1)
	}
	if got := lua.UpvalueIndex(3); got != -10005 {
		t.Errorf("UpvalueIndex(3) = %d, want -10005", got)
	}
}

func TestMaxSafeInteger(t *testing.T) {
	if lua.MaxSafeInteger != 9007199254740991 {
		t.Errorf("MaxSafeInteger = %d", int64(lua.MaxSafeInteger))
	}
	// The doubles on either side of the limit demonstrate the boundary:
	// below it integers survive the round trip, above it they collapse.
	if int64(float64(lua.MaxSafeInteger)) != lua.MaxSafeInteger {
		t.Error("MaxSafeInteger does not survive a float64 round trip")
	}
	if int64(float64(lua.MaxSafeInteger+2)) == lua.MaxSafeInteger+2 {
		t.Error("MaxSafeInteger+2 unexpectedly survives a float64 round trip")
	}
}
