package lua_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/goobie/glua-bridge/lua"
)

func TestTopAndSetTop(t *testing.T) {
	l := newState(t)

	if l.Top() != 0 {
		t.Fatalf("fresh state Top() = %d", l.Top())
	}
	l.PushNumber(1)
	l.PushNumber(2)
	l.PushNumber(3)
	if l.Top() != 3 {
		t.Fatalf("Top() = %d after three pushes", l.Top())
	}

	l.SetTop(1)
	if l.Top() != 1 || l.Number(1) != 1 {
		t.Errorf("SetTop(1) left Top=%d slot1=%v", l.Top(), l.Number(1))
	}

	// Growing fills with nils.
	l.SetTop(3)
	if l.Top() != 3 || !l.IsNil(2) || !l.IsNil(3) {
		t.Errorf("SetTop(3) did not pad with nils: Top=%d", l.Top())
	}

	// Negative indexes count from the top: -1 keeps the stack as is.
	l.SetTop(-1)
	if l.Top() != 3 {
		t.Errorf("SetTop(-1) moved Top to %d", l.Top())
	}
	l.SetTop(0)
	if l.Top() != 0 {
		t.Errorf("SetTop(0) left Top=%d", l.Top())
	}
}

func TestPopN(t *testing.T) {
	l := newState(t)
	for i := 0; i < 5; i++ {
		l.PushInteger(i)
	}
	l.Pop()
	if l.Top() != 4 {
		t.Fatalf("Top() = %d after Pop", l.Top())
	}
	l.PopN(3)
	if l.Top() != 1 || l.Integer(1) != 0 {
		t.Fatalf("Top() = %d slot1=%d after PopN(3)", l.Top(), l.Integer(1))
	}
}

func TestPushValueCopies(t *testing.T) {
	l := newState(t)
	l.PushString("original")
	l.PushValue(1)
	if l.Top() != 2 {
		t.Fatalf("Top() = %d", l.Top())
	}
	s, _ := l.String(2)
	if s != "original" {
		t.Errorf("copied value = %q", s)
	}
	// Copying an empty slot yields nil.
	l.PushValue(40)
	if !l.IsNil(-1) {
		t.Errorf("copy of empty slot is %s", l.TypeOf(-1))
	}
	l.PopN(3)
}

func TestInsertRemoveReplace(t *testing.T) {
	l := newState(t)
	l.PushString("a")
	l.PushString("b")
	l.PushString("c")

	l.PushString("x")
	l.Insert(1)
	if got := stackStrings(l); got != "x a b c" {
		t.Fatalf("after Insert(1): %q", got)
	}

	l.Remove(2)
	if got := stackStrings(l); got != "x b c" {
		t.Fatalf("after Remove(2): %q", got)
	}

	l.PushString("y")
	l.Replace(1)
	if got := stackStrings(l); got != "y b c" {
		t.Fatalf("after Replace(1): %q", got)
	}
	if l.Top() != 3 {
		t.Errorf("Top() = %d", l.Top())
	}
}

func stackStrings(l lua.State) string {
	parts := make([]string, 0, l.Top())
	for i := int32(1); i <= l.Top(); i++ {
		s, _ := l.String(i)
		parts = append(parts, s)
	}
	return strings.Join(parts, " ")
}

func TestTypePredicates(t *testing.T) {
	l := newState(t)
	l.PushNil()
	l.PushBoolean(true)
	l.PushNumber(1.5)
	l.PushString("s")
	l.NewTable()
	l.PushFunc(func(lua.State) int32 { return 0 })
	l.PushLightUserdata(0xdead)

	checks := []struct {
		index int32
		want  lua.Type
	}{
		{1, lua.TypeNil},
		{2, lua.TypeBoolean},
		{3, lua.TypeNumber},
		{4, lua.TypeString},
		{5, lua.TypeTable},
		{6, lua.TypeFunction},
		{7, lua.TypeLightUserdata},
	}
	for _, c := range checks {
		if got := l.TypeOf(c.index); got != c.want {
			t.Errorf("TypeOf(%d) = %s, want %s", c.index, got, c.want)
		}
	}

	if !l.IsNil(1) || l.IsNoneOrNil(2) || !l.IsBoolean(2) || !l.IsNumber(3) ||
		!l.IsString(4) || !l.IsTable(5) || !l.IsFunction(6) {
		t.Error("type predicate mismatch")
	}
	if !l.IsLightUserdata(7) || !l.IsUserdata(7) {
		t.Error("light userdata not recognized")
	}

	// Beyond the top is none, which is none-or-nil but not nil.
	if !l.IsNone(8) || !l.IsNoneOrNil(8) || l.IsNil(8) {
		t.Error("empty slot classification wrong")
	}
	if l.TypeOf(8) != lua.TypeNone {
		t.Errorf("TypeOf(8) = %s", l.TypeOf(8))
	}
}

func TestStringReads(t *testing.T) {
	l := newState(t)

	l.PushString("hello")
	s, ok := l.String(-1)
	if !ok || s != "hello" {
		t.Errorf("String = %q, %v", s, ok)
	}
	l.Pop()

	// The strict readers refuse numbers; the C API's number-to-string
	// coercion lives in the checked accessors only.
	l.PushNumber(42)
	if _, ok := l.String(-1); ok {
		t.Error("String accepted a number")
	}
	if _, ok := l.BinaryString(-1); ok {
		t.Error("BinaryString accepted a number")
	}
	if l.TypeOf(-1) != lua.TypeNumber {
		t.Error("rejected read converted the slot")
	}
	l.Pop()

	l.PushString("")
	s, ok = l.String(-1)
	if !ok || s != "" || l.Len(-1) != 0 {
		t.Errorf("empty string read = %q, %v, len %d", s, ok, l.Len(-1))
	}
	l.Pop()
}

func TestBinaryStringKeepsNULs(t *testing.T) {
	l := newState(t)
	payload := []byte("net\x00message\x00body")

	l.PushBinaryString(payload)
	if l.Len(-1) != len(payload) {
		t.Fatalf("Len = %d, want %d", l.Len(-1), len(payload))
	}
	got, ok := l.BinaryString(-1)
	if !ok || !bytes.Equal(got, payload) {
		t.Fatalf("BinaryString = %q, %v", got, ok)
	}
	l.Pop()

	// PushString is length-delimited too.
	l.PushString("a\x00b")
	if l.Len(-1) != 3 {
		t.Errorf("Len = %d after PushString with NUL", l.Len(-1))
	}
	l.Pop()

	l.PushBinaryString(nil)
	if !l.IsString(-1) || l.Len(-1) != 0 {
		t.Errorf("nil payload pushed as %s len %d", l.TypeOf(-1), l.Len(-1))
	}
	l.Pop()
}

func TestStringRepairsInvalidUTF8(t *testing.T) {
	l := newState(t)
	l.PushBinaryString([]byte{'o', 'k', 0xff, 0xfe, '!'})

	s, ok := l.String(-1)
	if !ok {
		t.Fatal("String failed on binary payload")
	}
	if s != "ok�!" {
		t.Errorf("String = %q, want invalid bytes replaced", s)
	}

	// The binary reader hands the bytes back untouched.
	b, _ := l.BinaryString(-1)
	if !bytes.Equal(b, []byte{'o', 'k', 0xff, 0xfe, '!'}) {
		t.Errorf("BinaryString = %v", b)
	}
	l.Pop()
}

func TestNumericReads(t *testing.T) {
	l := newState(t)

	l.PushNumber(2.5)
	if l.Number(-1) != 2.5 || l.Integer(-1) != 2 {
		t.Errorf("Number=%v Integer=%d", l.Number(-1), l.Integer(-1))
	}
	l.Pop()

	// String coercion applies to reads without retyping the slot.
	l.PushString(" 42 ")
	if l.Number(-1) != 42 {
		t.Errorf("Number(%q) = %v", " 42 ", l.Number(-1))
	}
	if !l.IsString(-1) {
		t.Error("numeric read retyped the string slot")
	}
	l.Pop()

	l.PushString("not a number")
	if l.Number(-1) != 0 {
		t.Errorf("Number = %v for junk", l.Number(-1))
	}
	l.Pop()
}

func TestBooleanTruthiness(t *testing.T) {
	l := newState(t)
	l.PushNil()
	l.PushBoolean(false)
	l.PushNumber(0)
	l.PushString("")

	if l.Boolean(1) || l.Boolean(2) {
		t.Error("nil or false read as true")
	}
	// Unlike Go, zero and the empty string are truthy.
	if !l.Boolean(3) || !l.Boolean(4) {
		t.Error("0 or \"\" read as false")
	}
	// Empty slots are falsy.
	if l.Boolean(9) {
		t.Error("empty slot read as true")
	}
	l.PopN(4)
}

func TestToPointerIdentity(t *testing.T) {
	l := newState(t)
	l.NewTable()
	l.NewTable()
	l.PushValue(1)

	p1, p2, p3 := l.ToPointer(1), l.ToPointer(2), l.ToPointer(3)
	if p1 == 0 || p2 == 0 {
		t.Fatal("collectable value has zero pointer")
	}
	if p1 == p2 {
		t.Error("distinct tables share a pointer")
	}
	if p1 != p3 {
		t.Error("copies of one table have different pointers")
	}

	l.PushNumber(7)
	if l.ToPointer(-1) != 0 {
		t.Error("non-collectable value has a pointer")
	}
	l.PopN(4)
}

func TestLightUserdata(t *testing.T) {
	l := newState(t)
	l.PushLightUserdata(0xbeef)

	if got := l.ToUserdata(-1); got != 0xbeef {
		t.Errorf("ToUserdata = %#x", got)
	}
	if l.ToPointer(-1) != 0 {
		t.Error("light userdata is not collectable, pointer should be 0")
	}
	l.Pop()

	l.PushNumber(1)
	if l.ToUserdata(-1) != 0 {
		t.Error("ToUserdata on a number")
	}
	l.Pop()
}

func TestPushThread(t *testing.T) {
	l := newState(t)

	if !l.PushThread() {
		t.Error("main state PushThread reported non-main")
	}
	if l.TypeOf(-1) != lua.TypeThread {
		t.Errorf("PushThread pushed %s", l.TypeOf(-1))
	}
	if l.ToThread(-1) != l {
		t.Error("ToThread did not return the pushed state")
	}
	l.Pop()

	co := l.NewThread()
	if co.PushThread() {
		t.Error("coroutine PushThread reported main")
	}
	co.Pop()
	l.Pop()
}

func TestLen(t *testing.T) {
	l := newState(t)

	l.PushString("four")
	if l.Len(-1) != 4 {
		t.Errorf("string Len = %d", l.Len(-1))
	}
	l.Pop()

	l.NewTable()
	for i := int32(1); i <= 3; i++ {
		l.PushInteger(int(i * 10))
		l.RawSetI(-2, i)
	}
	if l.Len(-1) != 3 {
		t.Errorf("table Len = %d", l.Len(-1))
	}
	l.Pop()

	l.PushNil()
	if l.Len(-1) != 0 {
		t.Errorf("nil Len = %d", l.Len(-1))
	}
	l.Pop()
}

func TestPushRegistryAndGlobals(t *testing.T) {
	l := newState(t)

	l.PushGlobals()
	if !l.IsTable(-1) {
		t.Fatalf("globals pushed as %s", l.TypeOf(-1))
	}
	// A global written through SetGlobal is visible in the pushed table.
	l.PushNumber(7)
	l.SetGlobal("seven")
	l.GetField(-1, "seven")
	if l.Number(-1) != 7 {
		t.Error("pushed globals table is not the live one")
	}
	l.PopN(2)

	l.PushRegistry()
	if !l.IsTable(-1) {
		t.Fatalf("registry pushed as %s", l.TypeOf(-1))
	}
	l.Pop()
}
