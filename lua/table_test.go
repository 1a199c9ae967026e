package lua_test

import (
	"strings"
	"testing"
	"unsafe"

	"github.com/goobie/glua-bridge/lua"
)

func TestFieldRoundTrip(t *testing.T) {
	l := newState(t)

	l.NewTable()
	l.PushString("Alyx")
	l.SetField(-2, "name")
	l.PushNumber(100)
	l.SetField(-2, "health")

	l.GetField(-1, "name")
	s, _ := l.String(-1)
	if s != "Alyx" {
		t.Errorf("name = %q", s)
	}
	l.Pop()

	l.GetField(-1, "health")
	if l.Number(-1) != 100 {
		t.Errorf("health = %v", l.Number(-1))
	}
	l.Pop()

	// Missing fields read as nil.
	l.GetField(-1, "armor")
	if !l.IsNil(-1) {
		t.Errorf("missing field = %s", l.TypeOf(-1))
	}
	l.PopN(2)
}

func TestTableNonStringKeys(t *testing.T) {
	l := newState(t)
	l.NewTable()

	l.PushNumber(1.5)
	l.PushString("between one and two")
	l.SetTable(-3)

	l.PushNumber(1.5)
	l.GetTable(-2)
	s, _ := l.String(-1)
	if s != "between one and two" {
		t.Errorf("t[1.5] = %q", s)
	}
	l.Pop()

	l.PushBoolean(true)
	l.PushString("keyed by true")
	l.RawSet(-3)
	l.PushBoolean(true)
	l.RawGet(-2)
	s, _ = l.String(-1)
	if s != "keyed by true" {
		t.Errorf("t[true] = %q", s)
	}
	l.PopN(2)
}

func TestRawGetIRawSetI(t *testing.T) {
	l := newState(t)
	l.NewTable()

	for i := int32(1); i <= 4; i++ {
		l.PushInteger(int(i * i))
		l.RawSetI(-2, i)
	}
	if l.Len(-1) != 4 {
		t.Fatalf("array length = %d", l.Len(-1))
	}
	for i := int32(1); i <= 4; i++ {
		l.RawGetI(-1, i)
		if got := l.Integer(-1); got != int(i*i) {
			t.Errorf("t[%d] = %d", i, got)
		}
		l.Pop()
	}
	l.Pop()
}

func TestSettingNilClearsField(t *testing.T) {
	l := newState(t)
	l.NewTable()

	l.PushString("v")
	l.SetField(-2, "k")
	l.PushNil()
	l.SetField(-2, "k")

	l.GetField(-1, "k")
	if !l.IsNil(-1) {
		t.Error("nil assignment did not clear the field")
	}
	l.PopN(2)
}

func TestIndexingNonTableRaises(t *testing.T) {
	l := newState(t)

	l.PushFunc(func(cl lua.State) int32 {
		cl.GetField(1, "anything")
		return 0
	})
	l.PushNumber(3)
	err := l.PCall(1, 0, 0)
	if err == nil || !strings.Contains(err.Error(), "attempt to index a number value") {
		t.Fatalf("err = %v", err)
	}
}

func TestNextIteration(t *testing.T) {
	l := newState(t)
	l.NewTable()

	want := []string{"first", "second", "third"}
	for i, k := range want {
		l.PushInteger(i)
		l.SetField(-2, k)
	}

	var got []string
	l.PushNil()
	for l.Next(-2) {
		// Key at -2, value at -1; pop the value, keep the key for the
		// next round.
		k, _ := l.String(-2)
		got = append(got, k)
		l.Pop()
	}
	// Next pushed nothing on the final round, leaving just the table.
	if l.Top() != 1 {
		t.Fatalf("Top=%d after iteration", l.Top())
	}

	if len(got) != len(want) {
		t.Fatalf("iterated %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("key %d = %q, want %q", i, got[i], want[i])
		}
	}
	l.Pop()
}

func TestGlobals(t *testing.T) {
	l := newState(t)

	l.PushNumber(3.14)
	l.SetGlobal("pi")
	l.GetGlobal("pi")
	if l.Number(-1) != 3.14 {
		t.Errorf("pi = %v", l.Number(-1))
	}
	l.Pop()

	l.GetGlobal("undefined")
	if !l.IsNil(-1) {
		t.Errorf("undefined global = %s", l.TypeOf(-1))
	}
	l.Pop()
}

func TestMetatableAttachment(t *testing.T) {
	l := newState(t)

	l.NewTable()
	if l.GetMetatable(-1) {
		t.Fatal("fresh table reports a metatable")
	}

	l.NewTable()
	mtPtr := l.ToPointer(-1)
	if !l.SetMetatable(-2) {
		t.Fatal("SetMetatable failed on a table")
	}
	if !l.GetMetatable(-1) {
		t.Fatal("metatable not retrievable")
	}
	if l.ToPointer(-1) != mtPtr {
		t.Error("retrieved metatable is not the one installed")
	}
	l.PopN(2)
}

func TestNewMetatableRegistry(t *testing.T) {
	l := newState(t)

	if l.NewMetatable("Widget") {
		t.Fatal("first NewMetatable claims the table existed")
	}
	ptr := l.ToPointer(-1)
	l.Pop()

	if !l.NewMetatable("Widget") {
		t.Fatal("second NewMetatable claims a fresh table")
	}
	if l.ToPointer(-1) != ptr {
		t.Error("NewMetatable returned a different table")
	}
	l.Pop()

	l.GetMetatableName("Widget")
	if l.ToPointer(-1) != ptr {
		t.Error("GetMetatableName returned a different table")
	}
	l.Pop()

	l.GetMetatableName("NoSuch")
	if !l.IsNil(-1) {
		t.Errorf("unregistered name gave %s", l.TypeOf(-1))
	}
	l.Pop()
}

func TestFunctionEnvironment(t *testing.T) {
	l := newState(t)

	l.PushFunc(func(lua.State) int32 { return 0 })

	// The default environment is the globals table.
	l.GetFEnv(-1)
	l.PushGlobals()
	if !l.RawEqual(-1, -2) {
		t.Error("default function environment is not the globals table")
	}
	l.PopN(2)

	l.NewTable()
	envPtr := l.ToPointer(-1)
	if !l.SetFEnv(-2) {
		t.Fatal("SetFEnv failed on a function")
	}
	l.GetFEnv(-1)
	if l.ToPointer(-1) != envPtr {
		t.Error("installed environment not returned")
	}
	l.PopN(2)

	// Numbers carry no environment.
	l.PushNumber(1)
	l.NewTable()
	if l.SetFEnv(-2) {
		t.Error("SetFEnv succeeded on a number")
	}
	l.Pop()
}

func TestNewUserdataBlock(t *testing.T) {
	l := newState(t)

	p := l.NewUserdata(16)
	if p == nil {
		t.Fatal("NewUserdata returned nil")
	}
	if l.TypeOf(-1) != lua.TypeUserdata {
		t.Fatalf("pushed %s", l.TypeOf(-1))
	}
	if l.Len(-1) != 16 {
		t.Errorf("Len = %d", l.Len(-1))
	}
	if got := l.ToUserdata(-1); got != uintptr(p) {
		t.Errorf("ToUserdata = %#x, payload at %#x", got, uintptr(p))
	}

	// The block is writable VM memory.
	*(*uint64)(p) = 0x1122334455667788
	if *(*uint64)(unsafe.Pointer(l.ToUserdata(-1))) != 0x1122334455667788 {
		t.Error("write through the payload pointer not visible")
	}
	l.Pop()
}

func TestGetFieldTypeOrNil(t *testing.T) {
	l := newState(t)
	l.NewTable()
	l.PushNumber(8080)
	l.SetField(-2, "port")
	l.PushString("yes")
	l.SetField(-2, "tls")

	ok, err := l.GetFieldTypeOrNil(-1, "port", lua.TypeNumber)
	if !ok || err != nil {
		t.Fatalf("ok=%v err=%v", ok, err)
	}
	if l.Number(-1) != 8080 {
		t.Errorf("port = %v", l.Number(-1))
	}
	l.Pop()

	// Absent field: no value, no error.
	ok, err = l.GetFieldTypeOrNil(-1, "host", lua.TypeString)
	if ok || err != nil {
		t.Fatalf("absent: ok=%v err=%v", ok, err)
	}

	// Wrong type: no value, a complaint naming all three parts.
	ok, err = l.GetFieldTypeOrNil(-1, "tls", lua.TypeBoolean)
	if ok || err == nil {
		t.Fatalf("wrong type: ok=%v err=%v", ok, err)
	}
	want := "bad type for field: 'tls' (boolean expected, got: string)"
	if err.Error() != want {
		t.Errorf("err = %q, want %q", err.Error(), want)
	}

	if l.Top() != 1 {
		t.Errorf("Top=%d, want just the table", l.Top())
	}
	l.Pop()
}

func TestRegisterGlobalLibrary(t *testing.T) {
	l := newState(t)

	var logged []string
	l.Register("mylib", []lua.Reg{
		{Name: "Log", Func: func(cl lua.State) int32 {
			msg, _ := cl.String(1)
			logged = append(logged, msg)
			return 0
		}},
		{Name: "Version", Func: func(cl lua.State) int32 {
			cl.PushNumber(2)
			return 1
		}},
	})

	// Register leaves the library table pushed.
	if !l.IsTable(-1) {
		t.Fatalf("Register left %s on top", l.TypeOf(-1))
	}
	libPtr := l.ToPointer(-1)
	l.Pop()

	l.GetGlobal("mylib")
	if l.ToPointer(-1) != libPtr {
		t.Error("global table differs from the pushed one")
	}

	l.GetField(-1, "Log")
	l.PushString("hello")
	if err := l.PCall(1, 0, 0); err != nil {
		t.Fatal(err)
	}
	if len(logged) != 1 || logged[0] != "hello" {
		t.Errorf("logged = %q", logged)
	}

	l.GetField(-1, "Version")
	if err := l.PCall(0, 1, 0); err != nil {
		t.Fatal(err)
	}
	if l.Number(-1) != 2 {
		t.Errorf("Version() = %v", l.Number(-1))
	}
	l.PopN(2)

	// Registering into the same name extends the existing table.
	l.Register("mylib", []lua.Reg{
		{Name: "Extra", Func: func(cl lua.State) int32 { return 0 }},
	})
	l.GetField(-1, "Log")
	if !l.IsFunction(-1) {
		t.Error("second Register dropped the original functions")
	}
	l.GetField(-2, "Extra")
	if !l.IsFunction(-1) {
		t.Error("second Register did not add the new function")
	}
	l.PopN(3)
}

func TestRegisterIntoTableOnTop(t *testing.T) {
	l := newState(t)

	l.NewTable()
	l.Register("", []lua.Reg{
		{Name: "Ping", Func: func(cl lua.State) int32 {
			cl.PushString("pong")
			return 1
		}},
	})

	// With no library name the table on top receives the functions and
	// nothing extra is pushed.
	if l.Top() != 1 {
		t.Fatalf("Top=%d", l.Top())
	}
	l.GetField(-1, "Ping")
	if err := l.PCall(0, 1, 0); err != nil {
		t.Fatal(err)
	}
	s, _ := l.String(-1)
	if s != "pong" {
		t.Errorf("Ping() = %q", s)
	}
	l.PopN(2)
}

func TestEqualAndRawEqual(t *testing.T) {
	l := newState(t)

	l.PushString("same")
	l.PushString("same")
	l.PushString("other")

	if !l.RawEqual(1, 2) || !l.Equal(1, 2) {
		t.Error("identical strings not equal")
	}
	if l.RawEqual(1, 3) || l.Equal(1, 3) {
		t.Error("distinct strings equal")
	}
	l.PopN(3)

	l.NewTable()
	l.NewTable()
	l.PushValue(1)
	if l.RawEqual(1, 2) {
		t.Error("distinct tables raw-equal")
	}
	if !l.RawEqual(1, 3) {
		t.Error("table not raw-equal to its own copy")
	}
	l.PopN(3)

	// Out-of-range slots compare unequal even to each other.
	if l.RawEqual(50, 51) {
		t.Error("empty slots compare equal")
	}
}
