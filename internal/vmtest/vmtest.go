// Package vmtest backs the shared symbol table with an in-memory VM so
// the binding layer can be exercised without a game install. The fake
// keeps the C ABI honest where the bindings depend on it: stack windows
// per native call, C-layout activation records, interned C strings
// behind tolstring, and the error unwind modeled as a panic that the
// dispatcher recognizes and passes through to the pcall boundary.
//
// Like the engine it stands in for, a state is single-goroutine; only
// the handshake between a coroutine and its resumer crosses goroutines.
// Metamethods are not dispatched: gettable and settable behave like
// their raw counterparts, and Equal behaves like RawEqual. Chunk
// loading is unavailable, so the loaders fail with their documented
// statuses.
package vmtest

import (
	"sync"
	"testing"

	"github.com/goobie/glua-bridge/lua"
	"github.com/goobie/glua-bridge/luashared"
)

// value is one VM value: nil, bool, float64, string, lightUD, *vtable,
// *vfunc, *vuserdata, or *state. none marks an empty stack slot.
type value any

type noneType struct{}

var none value = noneType{}

// lightUD is a light userdata payload, a bare pointer the VM never
// manages.
type lightUD uintptr

// vtable is a table with insertion-ordered keys so Next and the tests
// built on it are deterministic.
type vtable struct {
	keys []value
	m    map[value]value
	meta *vtable
}

func newVtable() *vtable {
	return &vtable{m: make(map[value]value)}
}

func (t *vtable) get(k value) value {
	return t.m[k]
}

func (t *vtable) set(k, v value) {
	if v == nil {
		if _, ok := t.m[k]; ok {
			delete(t.m, k)
			for i, kk := range t.keys {
				if kk == k {
					t.keys = append(t.keys[:i], t.keys[i+1:]...)
					break
				}
			}
		}
		return
	}
	if _, ok := t.m[k]; !ok {
		t.keys = append(t.keys, k)
	}
	t.m[k] = v
}

// arrayLen counts the consecutive integer keys from 1, the objlen
// notion of a table's length.
func (t *vtable) arrayLen() int {
	n := 0
	for {
		if _, ok := t.m[float64(n+1)]; !ok {
			return n
		}
		n++
	}
}

// vfunc is a callable: a registered native function plus its upvalues.
// name and namewhat are stamped when the function is stored under a
// string key, standing in for the call-site inference a real VM does.
type vfunc struct {
	raw      luashared.RawFunc
	up       []value
	env      *vtable
	name     string
	namewhat string
}

// vuserdata is a full userdata block.
type vuserdata struct {
	data []byte
	meta *vtable
	env  *vtable
}

// frame is one native activation. base is the stack offset of the
// window the callee sees as its index 1.
type frame struct {
	fn       *vfunc
	name     string
	namewhat string
	base     int
}

// globalState is what a main thread and its coroutines share.
type globalState struct {
	registry *vtable
	globals  *vtable
}

// state is a thread: a main state or a coroutine.
type state struct {
	vm     *VM
	gs     *globalState
	id     uintptr
	main   bool
	stack  []value
	frames []*frame

	// coroutine handshake
	status   int32
	started  bool
	dead     bool
	yielded  int
	resumeCh chan int32
	yieldCh  chan int32
}

// VM is the process-wide fake engine behind the symbol table.
type VM struct {
	mu     sync.Mutex
	states map[uintptr]*state
	cfuncs []luashared.RawFunc
	nextID uintptr
	ptrs   map[value]uintptr
	nextPtr uintptr

	nameMu   sync.Mutex
	nameNext *nameOverride
}

type nameOverride struct {
	name     string
	namewhat string
}

var (
	installOnce sync.Once
	installed   *VM
)

// Install routes the process-wide symbol table to a fake VM and returns
// it. The table latches on first use, so every test in the process
// shares one fake; lua.NewState still hands out isolated global states.
func Install(t testing.TB) *VM {
	t.Helper()
	return Bootstrap()
}

// Bootstrap is Install without a testing context, for tooling that wants
// an in-process stack to play with.
func Bootstrap() *VM {
	installOnce.Do(func() {
		installed = &VM{
			states:  make(map[uintptr]*state),
			ptrs:    make(map[value]uintptr),
			nextID:  0x1000,
			nextPtr: 0x80000,
		}
		luashared.Install(installed.table())
	})
	return installed
}

// NameNextFrame stamps the next native call's activation record, for
// exercising name-dependent formatting such as the method argument
// complaint. Consumed by the first call after it.
func (vm *VM) NameNextFrame(name, namewhat string) {
	vm.nameMu.Lock()
	vm.nameNext = &nameOverride{name: name, namewhat: namewhat}
	vm.nameMu.Unlock()
}

func (vm *VM) takeNameOverride() *nameOverride {
	vm.nameMu.Lock()
	ov := vm.nameNext
	vm.nameNext = nil
	vm.nameMu.Unlock()
	return ov
}

func (vm *VM) addState(s *state) uintptr {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	vm.nextID += 0x10
	s.id = vm.nextID
	vm.states[s.id] = s
	return s.id
}

func (vm *VM) state(l uintptr) *state {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	s, ok := vm.states[l]
	if !ok {
		panic("vmtest: unknown state handle")
	}
	return s
}

func (vm *VM) newState() uintptr {
	gs := &globalState{registry: newVtable(), globals: newVtable()}
	return vm.addState(&state{vm: vm, gs: gs, main: true})
}

func (vm *VM) newThread(l uintptr) uintptr {
	s := vm.state(l)
	co := &state{vm: vm, gs: s.gs}
	id := vm.addState(co)
	s.push(co)
	return id
}

func (vm *VM) newCFunction(fn luashared.RawFunc) uintptr {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	vm.cfuncs = append(vm.cfuncs, fn)
	return uintptr(len(vm.cfuncs))
}

func (vm *VM) cfunc(token uintptr) luashared.RawFunc {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	if token == 0 || int(token) > len(vm.cfuncs) {
		panic("vmtest: bad native function token")
	}
	return vm.cfuncs[token-1]
}

// pointerOf hands out a stable identity pointer for a collectable
// value, the lua_topointer contract.
func (vm *VM) pointerOf(v value) uintptr {
	switch v.(type) {
	case *vtable, *vfunc, *vuserdata, *state:
	default:
		return 0
	}
	vm.mu.Lock()
	defer vm.mu.Unlock()
	p, ok := vm.ptrs[v]
	if !ok {
		vm.nextPtr += 0x10
		p = vm.nextPtr
		vm.ptrs[v] = p
	}
	return p
}

// base is the stack offset of the running native frame's window.
func (s *state) base() int {
	if len(s.frames) == 0 {
		return 0
	}
	return s.frames[len(s.frames)-1].base
}

func (s *state) top() int32 {
	return int32(len(s.stack) - s.base())
}

func (s *state) push(v value) {
	s.stack = append(s.stack, v)
}

// absIndex resolves a regular (non-pseudo) index to a stack offset.
func (s *state) absIndex(index int32) (int, bool) {
	switch {
	case index > 0:
		i := s.base() + int(index) - 1
		return i, i < len(s.stack)
	case index < 0 && index >= -s.top():
		return len(s.stack) + int(index), true
	}
	return 0, false
}

// valueAt reads any index, pseudo indices included. Empty slots read as
// none.
func (s *state) valueAt(index int32) value {
	switch {
	case index == lua.RegistryIndex:
		return s.gs.registry
	case index == lua.GlobalsIndex:
		return s.gs.globals
	case index == lua.EnvironIndex:
		return s.currentEnv()
	case index < lua.GlobalsIndex:
		n := int(lua.GlobalsIndex - index)
		if len(s.frames) > 0 {
			fn := s.frames[len(s.frames)-1].fn
			if n >= 1 && n <= len(fn.up) {
				return fn.up[n-1]
			}
		}
		return none
	}
	i, ok := s.absIndex(index)
	if !ok {
		return none
	}
	return s.stack[i]
}

func (s *state) currentEnv() value {
	if len(s.frames) > 0 {
		if env := s.frames[len(s.frames)-1].fn.env; env != nil {
			return env
		}
	}
	return s.gs.globals
}

// setTop implements the lua_settop contract for the current window:
// negative indexes count from the top, growth fills with nil.
func (s *state) setTop(index int32) {
	var want int
	if index >= 0 {
		want = int(index)
	} else {
		want = int(s.top()) + int(index) + 1
	}
	if want < 0 {
		want = 0
	}
	target := s.base() + want
	for len(s.stack) < target {
		s.stack = append(s.stack, nil)
	}
	s.stack = s.stack[:target]
}

func (s *state) popValue() value {
	if s.top() < 1 {
		return nil
	}
	v := s.stack[len(s.stack)-1]
	s.stack = s.stack[:len(s.stack)-1]
	return v
}
