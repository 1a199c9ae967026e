package lua

import (
	"fmt"
	"os"
	"unsafe"
)

// Call runs the pushed function with nargs arguments, expecting
// nresults back. Unprotected: a VM error longjmps past every Go frame
// between here and the nearest protected context, so module code should
// normally go through PCall or PCallIgnore instead.
func (l State) Call(nargs, nresults int32) {
	tbl().Call(uintptr(l), nargs, nresults)
}

// PCall runs the pushed function in a protected context. errfunc is the
// stack index of a message handler, 0 for none. A non-OK status is
// translated through FromStatus.
func (l State) PCall(nargs, nresults, errfunc int32) error {
	return FromStatus(l, tbl().PCall(uintptr(l), nargs, nresults, errfunc))
}

// PCallIgnore is PCall with failures routed through ErrorNoHalt instead
// of returned. Reports whether the call succeeded.
func (l State) PCallIgnore(nargs, nresults int32) bool {
	if err := l.PCall(nargs, nresults, 0); err != nil {
		l.ErrorNoHalt(err.Error(), "")
		return false
	}
	return true
}

// PCallFuncRef calls the function stored in ref with the nargs
// arguments already pushed. When the ref no longer holds a function the
// arguments are popped and nothing is called: the first result reports
// whether a function was there, the second whether the call succeeded.
func (l State) PCallFuncRef(ref Ref, nargs, nresults int32) (valid, ok bool) {
	if !l.FromReference(ref) {
		l.PopN(nargs)
		return false, false
	}
	if !l.IsFunction(-1) {
		l.PopN(nargs + 1)
		return false, false
	}
	if nargs > 0 {
		l.Insert(-(nargs + 1))
	}
	return true, l.PCallIgnore(nargs, nresults)
}

// PCallIfValidFunc calls the value sitting under the nargs pushed
// arguments if it is a function, popping everything and returning false
// otherwise. Call failures are routed through ErrorNoHalt and do not
// affect the result, which only reports validity.
func (l State) PCallIfValidFunc(nargs, nresults int32) bool {
	if nargs == 0 {
		if !l.IsFunction(-1) {
			l.Pop()
			return false
		}
	} else if !l.IsFunction(-nargs - 1) {
		l.PopN(nargs + 1)
		return false
	}
	l.PCallIgnore(nargs, nresults)
	return true
}

// CPCall calls fn in a protected context with ud reachable as a light
// userdata at index 1. fn is pre-minted so hot paths do not consume a
// fresh callback slot per call.
func (l State) CPCall(fn CFunc, ud uintptr) error {
	return FromStatus(l, tbl().CPCall(uintptr(l), uintptr(fn), ud))
}

// CPCallIgnore is CPCall with failures routed through ErrorNoHalt,
// attaching traceback when one was captured. Reports whether the call
// succeeded.
func (l State) CPCallIgnore(fn CFunc, ud uintptr, traceback string) bool {
	if err := l.CPCall(fn, ud); err != nil {
		l.ErrorNoHalt(err.Error(), traceback)
		return false
	}
	return true
}

// LoadString compiles src as a chunk and pushes the resulting function
// without running it.
func (l State) LoadString(src string) error {
	return FromStatus(l, tbl().LoadString(uintptr(l), src))
}

// LoadBuffer compiles chunk under the given chunk name and pushes the
// resulting function without running it. The chunk may contain NULs.
func (l State) LoadBuffer(name string, chunk []byte) error {
	data := unsafe.Pointer(&zeroByte)
	if len(chunk) > 0 {
		data = unsafe.Pointer(&chunk[0])
	}
	return FromStatus(l, tbl().LoadBuffer(uintptr(l), data, uintptr(len(chunk)), name))
}

// LoadFile compiles the chunk in the file at path and pushes the
// resulting function without running it.
func (l State) LoadFile(path string) error {
	return FromStatus(l, tbl().LoadFile(uintptr(l), path))
}

// Error pushes msg and transfers control to the VM's error unwinder; it
// does not return. Legal only while the VM is inside a native callback.
// Deferred calls in Go frames between here and the callback boundary
// are skipped by the unwind, so handler code should normally return an
// error through Wrap and leave the raise to the adapter.
func (l State) Error(msg string) {
	l.PushString(msg)
	tbl().Error(uintptr(l))
	panic("lua: error entry returned")
}

// ErrorNoHalt prints a script error to the game console without halting
// the running chunk. With a traceback the ErrorNoHalt global receives
// one pre-formatted payload; without one the ErrorNoHaltWithStack
// global receives the bare message and appends its own stack. When the
// global is missing or the delivery call itself fails the payload goes
// to stderr. Never raises.
func (l State) ErrorNoHalt(msg, traceback string) {
	prefix := "[ERROR] "
	payload := msg
	if traceback != "" {
		prefix = ""
		payload = "[ERROR] " + msg + "\n" + traceback + "\n"
		l.GetGlobal("ErrorNoHalt")
	} else {
		l.GetGlobal("ErrorNoHaltWithStack")
	}
	if l.IsNil(-1) {
		l.Pop()
		fmt.Fprintf(os.Stderr, "%s%s\n", prefix, payload)
		return
	}
	l.PushString(payload)
	if err := l.PCall(1, 0, 0); err != nil {
		fmt.Fprintf(os.Stderr, "%s%s\n", prefix, payload)
	}
}
