package lua_test

import (
	"testing"

	"github.com/goobie/glua-bridge/lua"
)

func TestPushNumericNarrowTypes(t *testing.T) {
	l := newState(t)

	lua.PushNumeric(l, int8(-8))
	lua.PushNumeric(l, int16(-16))
	lua.PushNumeric(l, int32(-32))
	lua.PushNumeric(l, uint8(8))
	lua.PushNumeric(l, uint16(16))
	lua.PushNumeric(l, uint32(32))
	lua.PushNumeric(l, float32(1.5))
	lua.PushNumeric(l, 2.5)

	want := []float64{-8, -16, -32, 8, 16, 32, 1.5, 2.5}
	for i, w := range want {
		index := int32(i + 1)
		if !l.IsNumber(index) {
			t.Errorf("slot %d holds %s, want number", index, l.TypeOf(index))
			continue
		}
		if got := l.Number(index); got != w {
			t.Errorf("slot %d = %v, want %v", index, got, w)
		}
	}
	l.PopN(8)
}

func TestPushNumericWideIntegers(t *testing.T) {
	l := newState(t)

	cases := []struct {
		name string
		push func()
		typ  lua.Type
		num  float64
		str  string
	}{
		{"int within range", func() { lua.PushNumeric(l, int(lua.MaxSafeInteger)) }, lua.TypeNumber, float64(lua.MaxSafeInteger), ""},
		{"int beyond range", func() { lua.PushNumeric(l, int(lua.MaxSafeInteger + 1)) }, lua.TypeString, 0, "9007199254740992"},
		{"int64 negative within", func() { lua.PushNumeric(l, int64(-lua.MaxSafeInteger)) }, lua.TypeNumber, -float64(lua.MaxSafeInteger), ""},
		{"int64 negative beyond", func() { lua.PushNumeric(l, int64(-lua.MaxSafeInteger-1)) }, lua.TypeString, 0, "-9007199254740992"},
		{"int64 min", func() { lua.PushNumeric(l, int64(-1 << 63)) }, lua.TypeString, 0, "-9223372036854775808"},
		{"uint within range", func() { lua.PushNumeric(l, uint(lua.MaxSafeInteger)) }, lua.TypeNumber, float64(lua.MaxSafeInteger), ""},
		{"uint64 beyond range", func() { lua.PushNumeric(l, uint64(lua.MaxSafeInteger + 1)) }, lua.TypeString, 0, "9007199254740992"},
		{"uint64 max", func() { lua.PushNumeric(l, uint64(1<<64 - 1)) }, lua.TypeString, 0, "18446744073709551615"},
		{"uintptr small", func() { lua.PushNumeric(l, uintptr(0x1000)) }, lua.TypeNumber, 0x1000, ""},
		{"zero", func() { lua.PushNumeric(l, 0) }, lua.TypeNumber, 0, ""},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			top := l.Top()
			c.push()
			if l.Top() != top+1 {
				t.Fatalf("pushed %d values, want 1", l.Top()-top)
			}
			defer l.Pop()

			if got := l.TypeOf(-1); got != c.typ {
				t.Fatalf("pushed a %s, want %s", got, c.typ)
			}
			if c.typ == lua.TypeNumber {
				if got := l.Number(-1); got != c.num {
					t.Errorf("value = %v, want %v", got, c.num)
				}
				return
			}
			got, _ := l.String(-1)
			if got != c.str {
				t.Errorf("value = %q, want %q", got, c.str)
			}
		})
	}
}
