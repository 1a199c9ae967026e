package vmtest

import (
	"fmt"
	"unsafe"

	"github.com/goobie/glua-bridge/lua"
)

// raised models the VM's error unwind as a panic. The VMRaise marker
// lets the binding's callback dispatcher pass it through instead of
// treating it as a crashed handler.
type raised struct {
	v value
}

func (raised) VMRaise() {}

func raiseString(msg string) {
	panic(raised{v: msg})
}

// call runs the function sitting under nargs arguments with a fresh
// stack window, then splices its results back per nresults, padding
// with nil or truncating unless nresults is MultRet.
func (s *state) call(nargs, nresults int32) {
	fnPos := len(s.stack) - int(nargs) - 1
	if fnPos < s.base() {
		raiseString("attempt to call a nil value")
	}
	fn, ok := s.stack[fnPos].(*vfunc)
	if !ok {
		raiseString(fmt.Sprintf("attempt to call a %s value", typeName(typeOf(s.stack[fnPos]))))
	}

	fr := &frame{fn: fn, name: fn.name, namewhat: fn.namewhat, base: fnPos + 1}
	if ov := s.vm.takeNameOverride(); ov != nil {
		fr.name, fr.namewhat = ov.name, ov.namewhat
	}
	s.frames = append(s.frames, fr)
	n := int(fn.raw(s.id))
	s.frames = s.frames[:len(s.frames)-1]

	if n < 0 {
		n = 0
	}
	if n > len(s.stack)-fr.base {
		n = len(s.stack) - fr.base
	}
	results := make([]value, n)
	copy(results, s.stack[len(s.stack)-n:])
	s.stack = append(s.stack[:fnPos], results...)

	if nresults == lua.MultRet {
		return
	}
	for len(s.stack)-fnPos < int(nresults) {
		s.push(nil)
	}
	s.stack = s.stack[:fnPos+int(nresults)]
}

// pcall is call inside a recovery boundary: a raise restores the frame
// and stack bookkeeping, runs the message handler if one was given, and
// leaves the error value on the stack.
func (vm *VM) pcall(l uintptr, nargs, nresults, errfunc int32) (status int32) {
	s := vm.state(l)
	fnPos := len(s.stack) - int(nargs) - 1
	savedFrames := len(s.frames)
	var handler *vfunc
	if errfunc != 0 {
		handler, _ = s.valueAt(errfunc).(*vfunc)
	}

	defer func() {
		r := recover()
		if r == nil {
			return
		}
		rr, ok := r.(raised)
		if !ok {
			panic(r)
		}
		s.frames = s.frames[:savedFrames]
		errv := rr.v
		status = lua.StatusErrRun
		if handler != nil {
			errv, status = s.runHandler(handler, errv)
		}
		if fnPos < s.base() {
			fnPos = s.base()
		}
		s.stack = s.stack[:fnPos]
		s.push(errv)
	}()

	s.call(nargs, nresults)
	return lua.StatusOK
}

// runHandler feeds the error value to a pcall message handler. A
// handler that itself raises produces the handler-error status.
func (s *state) runHandler(handler *vfunc, errv value) (out value, status int32) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(raised); !ok {
				panic(r)
			}
			out = "error in error handling"
			status = lua.StatusErrErr
		}
	}()
	s.push(handler)
	s.push(errv)
	s.call(1, 1)
	return s.popValue(), lua.StatusErrRun
}

// cpcall calls a bare native function protected, with ud visible as a
// light userdata at index 1 and all results discarded.
func (vm *VM) cpcall(l uintptr, fn uintptr, ud uintptr) int32 {
	s := vm.state(l)
	s.push(&vfunc{raw: vm.cfunc(fn)})
	s.push(lightUD(ud))
	return vm.pcall(l, 1, 0, 0)
}

// freelistKey is the registry slot luaL_ref chains free reference ids
// through.
const freelistKey = float64(0)

// ref implements the luaL_ref slot machine against the registry,
// including the nil shortcut and the free-slot chain.
func (vm *VM) ref(l uintptr, t int32) int32 {
	s := vm.state(l)
	reg := s.tableAt(t, "index")
	if s.top() >= 1 && s.valueAt(-1) == nil {
		s.popValue()
		return int32(lua.RefNil)
	}
	v := s.popValue()
	var slot int32
	if head, ok := reg.get(freelistKey).(float64); ok && head != 0 {
		slot = int32(head)
		reg.set(freelistKey, reg.get(float64(slot)))
	} else {
		slot = int32(reg.arrayLen()) + 1
	}
	reg.set(float64(slot), v)
	return slot
}

func (vm *VM) unref(l uintptr, t, ref int32) {
	if ref < 0 {
		return
	}
	s := vm.state(l)
	reg := s.tableAt(t, "index")
	reg.set(float64(ref), reg.get(freelistKey))
	reg.set(freelistKey, float64(ref))
}

// registerLib walks the C registration array and lands the functions
// in the named global table, or the table on top when libname is null.
// With a libname the table ends up pushed, as luaL_register leaves it.
func (vm *VM) registerLib(l uintptr, libname uintptr, regs unsafe.Pointer) {
	s := vm.state(l)
	var lib *vtable
	pushLib := false
	if libname != 0 {
		name := goCString(libname)
		if t, ok := s.gs.globals.get(name).(*vtable); ok {
			lib = t
		} else {
			lib = newVtable()
			s.gs.globals.set(name, lib)
		}
		pushLib = true
	} else {
		lib = s.tableAt(-1, "index")
	}

	type creg struct {
		name uintptr
		fn   uintptr
	}
	for p := (*creg)(regs); p.name != 0 || p.fn != 0; p = (*creg)(unsafe.Add(unsafe.Pointer(p), unsafe.Sizeof(creg{}))) {
		fname := goCString(p.name)
		lib.set(fname, &vfunc{raw: vm.cfunc(p.fn), name: fname, namewhat: "field"})
	}
	if pushLib {
		s.push(lib)
	}
}

// resume starts or continues a coroutine. The body runs on its own
// goroutine; control transfers through a channel handshake so exactly
// one side is ever running.
func (vm *VM) resume(l uintptr, narg int32) int32 {
	co := vm.state(l)
	if co.main {
		co.push("cannot resume non-coroutine thread")
		return lua.StatusErrRun
	}
	if co.dead {
		co.push("cannot resume dead coroutine")
		return lua.StatusErrRun
	}
	if !co.started {
		if len(co.stack) < int(narg)+1 {
			co.push("cannot resume coroutine without a function")
			return lua.StatusErrRun
		}
		co.started = true
		co.resumeCh = make(chan int32)
		co.yieldCh = make(chan int32)
		go co.run(narg)
		return <-co.yieldCh
	}
	if co.status != lua.StatusYield {
		co.push("cannot resume non-suspended coroutine")
		return lua.StatusErrRun
	}
	// The values of the last yield have been read by now; splice them
	// out from under the freshly pushed resume arguments.
	if co.yielded > 0 {
		argStart := len(co.stack) - int(narg)
		co.stack = append(co.stack[:argStart-co.yielded], co.stack[argStart:]...)
		co.yielded = 0
	}
	co.status = lua.StatusOK
	co.resumeCh <- narg
	return <-co.yieldCh
}

// run is the coroutine body. It finishes by handing the final status to
// the resumer: OK with results on the stack, yield statuses along the
// way, or an error status with the message pushed.
func (co *state) run(narg int32) {
	defer func() {
		r := recover()
		if r != nil {
			rr, ok := r.(raised)
			if !ok {
				panic(r)
			}
			co.stack = co.stack[:0]
			co.frames = co.frames[:0]
			co.push(rr.v)
			co.dead = true
			co.status = lua.StatusErrRun
			co.yieldCh <- lua.StatusErrRun
			return
		}
		co.dead = true
		co.status = lua.StatusOK
		co.yieldCh <- lua.StatusOK
	}()
	co.call(narg, lua.MultRet)
}

// yield parks the coroutine with its top nresults values exposed to the
// resumer and blocks until the next resume. Returns the argument count
// that resume was given, generator style.
func (vm *VM) yield(l uintptr, nresults int32) int32 {
	co := vm.state(l)
	if co.main || co.yieldCh == nil {
		raiseString("attempt to yield across C-call boundary")
	}
	keep := make([]value, nresults)
	for i := int(nresults) - 1; i >= 0; i-- {
		keep[i] = co.popValue()
	}
	base := co.base()
	co.stack = append(co.stack[:base], keep...)
	co.yielded = len(keep)
	co.status = lua.StatusYield
	co.yieldCh <- lua.StatusYield
	return <-co.resumeCh
}
