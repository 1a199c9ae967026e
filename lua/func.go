package lua

import (
	"fmt"
	"runtime/debug"

	"go.uber.org/zap"

	"github.com/goobie/glua-bridge/luashared"
)

// vmRaise marks panic payloads used by pure-Go symbol table
// implementations to model the VM's error longjmp. The dispatcher lets
// them pass through to the protected-call boundary that installed them.
type vmRaise interface{ VMRaise() }

// CFunc is a minted native callback, reusable across pushes and
// protected calls without drawing from the pool again.
type CFunc uintptr

// wrapFunc mints a native callback for fn. Callbacks come from a small
// process-wide pool and are never released, so long-lived functions
// belong on the stack once, shared through values or references, rather
// than being re-pushed per call site.
func wrapFunc(fn Function) uintptr {
	return tbl().NewCFunction(func(state uintptr) int32 {
		return dispatch(State(state), fn)
	})
}

// NewCFunc mints fn once for reuse. Callers that push or CPCall the
// same function repeatedly should mint it a single time and hold the
// result.
func NewCFunc(fn Function) CFunc {
	return CFunc(wrapFunc(fn))
}

// PushCFunc pushes a previously minted callback.
func (l State) PushCFunc(fn CFunc) {
	tbl().PushCClosure(uintptr(l), uintptr(fn), 0)
}

// dispatch runs fn with a recovery barrier between Go and the VM. A Go
// panic must not unwind into foreign frames, and the recovery path must
// not re-enter the VM's own longjmp either, so recovered panics are
// reported through the non-halting route and the call yields zero
// results.
func dispatch(l State, fn Function) (n int32) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		if _, ok := r.(vmRaise); ok {
			panic(r)
		}
		luashared.Logger().Error("panic in VM callback",
			zap.Any("panic", r),
			zap.Stack("stack"),
		)
		l.ErrorNoHalt(fmt.Sprintf("panic: %v", r), string(debug.Stack()))
		n = 0
	}()
	return fn(l)
}

// PushFunc pushes fn as a VM function.
func (l State) PushFunc(fn Function) {
	tbl().PushCClosure(uintptr(l), wrapFunc(fn), 0)
}

// PushClosure pushes fn as a VM closure, popping the top n stack values
// into its upvalues. The VM caps n at 255.
func (l State) PushClosure(fn Function, n int32) {
	tbl().PushCClosure(uintptr(l), wrapFunc(fn), n)
}

// PushClosureArg pushes the nth upvalue of the running closure.
func (l State) PushClosureArg(n int32) {
	l.PushValue(UpvalueIndex(n))
}

// Wrap adapts a fallible handler into a Function. A returned error is
// raised as a VM error once the handler has returned, so the handler's
// own deferred calls always run first.
func Wrap(fn func(State) (int32, error)) Function {
	return func(l State) int32 {
		n, err := fn(l)
		if err != nil {
			l.Error(err.Error())
		}
		return n
	}
}
