package lua

import (
	"strings"
	"unsafe"
)

// zeroByte gives lua_pushlstring a stable non-nil pointer for empty
// payloads.
var zeroByte byte

// Top returns the index of the topmost stack slot, equal to the number
// of stack values.
func (l State) Top() int32 {
	return tbl().GetTop(uintptr(l))
}

// SetTop grows (with nils) or shrinks the stack to the given index.
func (l State) SetTop(index int32) {
	tbl().SetTop(uintptr(l), index)
}

// Pop removes the top value.
func (l State) Pop() {
	l.PopN(1)
}

// PopN removes the n top values.
func (l State) PopN(n int32) {
	l.SetTop(-n - 1)
}

// PushValue pushes a copy of the value at index.
func (l State) PushValue(index int32) {
	tbl().PushValue(uintptr(l), index)
}

// Remove deletes the value at index, shifting the values above it down.
func (l State) Remove(index int32) {
	tbl().Remove(uintptr(l), index)
}

// Insert moves the top value into index, shifting the values above it up.
func (l State) Insert(index int32) {
	tbl().Insert(uintptr(l), index)
}

// Replace pops the top value into index.
func (l State) Replace(index int32) {
	tbl().Replace(uintptr(l), index)
}

// PushGlobals pushes the globals table.
func (l State) PushGlobals() {
	l.PushValue(GlobalsIndex)
}

// PushRegistry pushes the registry table.
func (l State) PushRegistry() {
	l.PushValue(RegistryIndex)
}

// TypeOf returns the type of the value at index, TypeNone for an empty
// slot.
func (l State) TypeOf(index int32) Type {
	return Type(tbl().Type(uintptr(l), index))
}

// TypeName asks the VM for its name of a type tag.
func (l State) TypeName(t Type) string {
	return tbl().TypeName(uintptr(l), int32(t))
}

func (l State) IsNone(index int32) bool { return l.TypeOf(index) == TypeNone }

// IsNil reports a nil value; an empty slot is not nil, see IsNoneOrNil.
func (l State) IsNil(index int32) bool { return l.TypeOf(index) == TypeNil }

func (l State) IsNoneOrNil(index int32) bool {
	t := l.TypeOf(index)
	return t == TypeNone || t == TypeNil
}

func (l State) IsBoolean(index int32)  bool { return l.TypeOf(index) == TypeBoolean }
func (l State) IsNumber(index int32)   bool { return l.TypeOf(index) == TypeNumber }
func (l State) IsString(index int32)   bool { return l.TypeOf(index) == TypeString }
func (l State) IsTable(index int32)    bool { return l.TypeOf(index) == TypeTable }
func (l State) IsFunction(index int32) bool { return l.TypeOf(index) == TypeFunction }
func (l State) IsThread(index int32)   bool { return l.TypeOf(index) == TypeThread }

func (l State) IsLightUserdata(index int32) bool {
	return l.TypeOf(index) == TypeLightUserdata
}

// IsUserdata is true for both full and light userdata.
func (l State) IsUserdata(index int32) bool {
	t := l.TypeOf(index)
	return t == TypeUserdata || t == TypeLightUserdata
}

// BinaryString copies the string at index, embedded NULs included.
// Returns false if the value is not a string; the number coercion of
// the C API is not applied here, the checked accessors have it.
func (l State) BinaryString(index int32) ([]byte, bool) {
	if !l.IsString(index) {
		return nil, false
	}
	return l.readBinary(index)
}

// readBinary copies whatever lua_tolstring yields for index, converting
// a number slot to a string in place the way the C API does.
func (l State) readBinary(index int32) ([]byte, bool) {
	var size uintptr
	ptr := tbl().ToLString(uintptr(l), index, unsafe.Pointer(&size))
	if ptr == 0 {
		return nil, false
	}
	out := make([]byte, size)
	if size > 0 {
		copy(out, unsafe.Slice((*byte)(unsafe.Pointer(ptr)), size))
	}
	return out, true
}

// String reads the string at index as UTF-8, replacing invalid sequences
// with the replacement character. Lossy, never fails on bad encoding;
// returns false only when the value is not a string.
func (l State) String(index int32) (string, bool) {
	b, ok := l.BinaryString(index)
	if !ok {
		return "", false
	}
	return strings.ToValidUTF8(string(b), "�"), true
}

// Number reads the value at index as a float, 0 if not numeric.
func (l State) Number(index int32) float64 {
	return tbl().ToNumber(uintptr(l), index)
}

// Integer reads the value at index truncated to a platform integer.
func (l State) Integer(index int32) int {
	return tbl().ToInteger(uintptr(l), index)
}

// Boolean reads the value at index with the VM's truthiness rules.
func (l State) Boolean(index int32) bool {
	return tbl().ToBoolean(uintptr(l), index) == 1
}

// ToPointer returns the VM's identity pointer for the value, 0 for
// non-collectable values. Comparison only, never dereferenced.
func (l State) ToPointer(index int32) uintptr {
	return tbl().ToPointer(uintptr(l), index)
}

// ToUserdata returns the payload pointer of a userdata value, the raw
// pointer of a light userdata, or 0.
func (l State) ToUserdata(index int32) uintptr {
	return tbl().ToUserdata(uintptr(l), index)
}

// ToThread returns the coroutine at index as its own State, 0 if the
// value is not a thread.
func (l State) ToThread(index int32) State {
	return State(tbl().ToThread(uintptr(l), index))
}

// Len returns the VM's objlen of the value: string length, table array
// length, or userdata payload size.
func (l State) Len(index int32) int {
	return int(tbl().ObjLen(uintptr(l), index))
}

func (l State) PushNil() {
	tbl().PushNil(uintptr(l))
}

func (l State) PushBoolean(b bool) {
	v := int32(0)
	if b {
		v = 1
	}
	tbl().PushBoolean(uintptr(l), v)
}

func (l State) PushNumber(n float64) {
	tbl().PushNumber(uintptr(l), n)
}

// PushInteger pushes a platform integer through the VM's integer entry.
// For width-aware pushing of wide values use PushNumeric.
func (l State) PushInteger(n int) {
	tbl().PushInteger(uintptr(l), n)
}

// PushString pushes s by pointer and length, so embedded NULs survive.
func (l State) PushString(s string) {
	data := unsafe.Pointer(&zeroByte)
	if len(s) > 0 {
		data = unsafe.Pointer(unsafe.StringData(s))
	}
	tbl().PushLString(uintptr(l), data, uintptr(len(s)))
}

// PushBinaryString pushes b as a VM string by pointer and length.
func (l State) PushBinaryString(b []byte) {
	data := unsafe.Pointer(&zeroByte)
	if len(b) > 0 {
		data = unsafe.Pointer(&b[0])
	}
	tbl().PushLString(uintptr(l), data, uintptr(len(b)))
}

// PushLightUserdata pushes a raw pointer value. The VM never manages or
// collects it.
func (l State) PushLightUserdata(p uintptr) {
	tbl().PushLightUserdata(uintptr(l), p)
}

// PushThread pushes l onto its own stack and reports whether it is the
// main thread of its VM.
func (l State) PushThread() bool {
	return tbl().PushThread(uintptr(l)) == 1
}
