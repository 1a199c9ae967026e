package lua

import (
	"bytes"
	"unsafe"
)

// Debug mirrors the VM's activation record byte for byte, so a pointer
// to it can be handed to the introspection entry points directly. The
// char* fields stay raw and are read through the accessors; they point
// into VM memory and are only valid until the VM moves on.
type Debug struct {
	event           int32
	name            uintptr
	namewhat        uintptr
	what            uintptr
	source          uintptr
	currentline     int32
	nups            int32
	linedefined     int32
	lastlinedefined int32
	shortSrc        [IDSize]byte
	iCi             int32
}

func (d *Debug) Event() int32 { return d.event }

// Name is the callee's name, "" when the VM cannot tell.
func (d *Debug) Name() string { return goString(d.name) }

// NameWhat says how the callee was reached: "global", "local", "method",
// "field", or "".
func (d *Debug) NameWhat() string { return goString(d.namewhat) }

// What distinguishes "Lua", "C", "main", and "tail" frames.
func (d *Debug) What() string { return goString(d.what) }

// Source is the chunk source the frame runs, file names prefixed @.
func (d *Debug) Source() string { return goString(d.source) }

func (d *Debug) CurrentLine() int32     { return d.currentline }
func (d *Debug) NUps() int32            { return d.nups }
func (d *Debug) LineDefined() int32     { return d.linedefined }
func (d *Debug) LastLineDefined() int32 { return d.lastlinedefined }

// ShortSrc is the printable truncation of Source.
func (d *Debug) ShortSrc() string {
	if i := bytes.IndexByte(d.shortSrc[:], 0); i >= 0 {
		return string(d.shortSrc[:i])
	}
	return string(d.shortSrc[:])
}

// GetStackAt fills an activation record for the frame at the given
// level, 0 being the running function. Returns false past the bottom of
// the stack.
func (l State) GetStackAt(level int32) (Debug, bool) {
	var d Debug
	ok := tbl().GetStack(uintptr(l), level, unsafe.Pointer(&d)) != 0
	return d, ok
}

// GetInfoFrom fills the fields selected by what into a record obtained
// from GetStackAt.
func (l State) GetInfoFrom(d *Debug, what string) bool {
	return tbl().GetInfo(uintptr(l), what, unsafe.Pointer(d)) != 0
}

// GetInfoAt looks up the frame at level and fills the fields selected
// by what in one step.
func (l State) GetInfoAt(level int32, what string) (Debug, bool) {
	var d Debug
	if tbl().GetStack(uintptr(l), level, unsafe.Pointer(&d)) == 0 {
		return d, false
	}
	if tbl().GetInfo(uintptr(l), what, unsafe.Pointer(&d)) == 0 {
		return d, false
	}
	return d, true
}

// GetInfoFunc describes the function on top of the stack, popping it.
// what must carry the ">" prefix the C API requires for that mode.
func (l State) GetInfoFunc(what string) (Debug, bool) {
	var d Debug
	ok := tbl().GetInfo(uintptr(l), what, unsafe.Pointer(&d)) != 0
	return d, ok
}

// PushTraceback pushes a rendered traceback of target onto l, starting
// at the given frame level. target is usually l itself.
func (l State) PushTraceback(target State, level int32) {
	tbl().Traceback(uintptr(l), uintptr(target), 0, level)
}

// Traceback renders a traceback of target starting at the given frame
// level, leaving the stack as it found it.
func (l State) Traceback(target State, level int32) string {
	l.PushTraceback(target, level)
	tb, ok := l.String(-1)
	l.Pop()
	if !ok {
		return "Unknown error"
	}
	return tb
}
