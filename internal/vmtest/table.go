package vmtest

import (
	"fmt"
	"strconv"
	"strings"
	"unsafe"

	"github.com/goobie/glua-bridge/lua"
	"github.com/goobie/glua-bridge/luashared"
)

// table builds the symbol table routed to this VM. Field by field it
// honors the contracts the binding layer depends on; the package doc
// lists the deliberate simplifications.
func (vm *VM) table() *luashared.Table {
	return &luashared.Table{
		Path:         "vmtest",
		NewCFunction: vm.newCFunction,

		NewState: vm.newState,
		OpenLibs: func(l uintptr) { _ = vm.state(l) },

		LoadString: func(l uintptr, src string) int32 {
			vm.state(l).push("cannot load chunk: no compiler in test VM")
			return lua.StatusErrSyntax
		},
		LoadBuffer: func(l uintptr, buff unsafe.Pointer, sz uintptr, name string) int32 {
			vm.state(l).push(fmt.Sprintf("cannot load chunk %q: no compiler in test VM", name))
			return lua.StatusErrSyntax
		},
		LoadFile: func(l uintptr, path string) int32 {
			vm.state(l).push(fmt.Sprintf("cannot open %s: no files in test VM", path))
			return lua.StatusErrFile
		},

		GetTop: func(l uintptr) int32 { return vm.state(l).top() },
		SetTop: func(l uintptr, index int32) { vm.state(l).setTop(index) },
		PushValue: func(l uintptr, index int32) {
			s := vm.state(l)
			v := s.valueAt(index)
			if v == none {
				v = nil
			}
			s.push(v)
		},
		Remove: func(l uintptr, index int32) {
			s := vm.state(l)
			if i, ok := s.absIndex(index); ok {
				s.stack = append(s.stack[:i], s.stack[i+1:]...)
			}
		},
		Insert: func(l uintptr, index int32) {
			s := vm.state(l)
			i, ok := s.absIndex(index)
			if !ok {
				return
			}
			v := s.stack[len(s.stack)-1]
			copy(s.stack[i+1:], s.stack[i:len(s.stack)-1])
			s.stack[i] = v
		},
		Replace: func(l uintptr, index int32) {
			// The index refers to the stack as it stands with the value
			// still on top, as in the C API.
			s := vm.state(l)
			i, ok := s.absIndex(index)
			v := s.popValue()
			if ok && i < len(s.stack) {
				s.stack[i] = v
			}
		},

		Type: func(l uintptr, index int32) int32 {
			return typeOf(vm.state(l).valueAt(index))
		},
		TypeName: func(l uintptr, typeID int32) string {
			return typeName(typeID)
		},
		IsNumber: func(l uintptr, index int32) int32 {
			if _, ok := toNumber(vm.state(l).valueAt(index)); ok {
				return 1
			}
			return 0
		},

		ToLString: func(l uintptr, index int32, size unsafe.Pointer) uintptr {
			s := vm.state(l)
			v := s.valueAt(index)
			var str string
			switch n := v.(type) {
			case string:
				str = n
			case float64:
				str = formatNumber(n)
				if i, ok := s.absIndex(index); ok {
					s.stack[i] = str
				}
			default:
				if size != nil {
					*(*uintptr)(size) = 0
				}
				return 0
			}
			if size != nil {
				*(*uintptr)(size) = uintptr(len(str))
			}
			return cString(str)
		},
		ToNumber: func(l uintptr, index int32) float64 {
			n, _ := toNumber(vm.state(l).valueAt(index))
			return n
		},
		ToInteger: func(l uintptr, index int32) int {
			n, _ := toNumber(vm.state(l).valueAt(index))
			return int(n)
		},
		ToBoolean: func(l uintptr, index int32) int32 {
			v := vm.state(l).valueAt(index)
			if v == nil || v == none || v == false {
				return 0
			}
			return 1
		},
		ToUserdata: func(l uintptr, index int32) uintptr {
			switch u := vm.state(l).valueAt(index).(type) {
			case *vuserdata:
				return uintptr(unsafe.Pointer(&u.data[0]))
			case lightUD:
				return uintptr(u)
			}
			return 0
		},
		ToPointer: func(l uintptr, index int32) uintptr {
			return vm.pointerOf(vm.state(l).valueAt(index))
		},
		ToThread: func(l uintptr, index int32) uintptr {
			if co, ok := vm.state(l).valueAt(index).(*state); ok {
				return co.id
			}
			return 0
		},
		ObjLen: func(l uintptr, index int32) uintptr {
			switch v := vm.state(l).valueAt(index).(type) {
			case string:
				return uintptr(len(v))
			case *vtable:
				return uintptr(v.arrayLen())
			case *vuserdata:
				return uintptr(len(v.data))
			}
			return 0
		},

		PushNil:     func(l uintptr) { vm.state(l).push(nil) },
		PushBoolean: func(l uintptr, b int32) { vm.state(l).push(b != 0) },
		PushNumber:  func(l uintptr, n float64) { vm.state(l).push(n) },
		PushInteger: func(l uintptr, n int) { vm.state(l).push(float64(n)) },
		PushLString: func(l uintptr, data unsafe.Pointer, sz uintptr) {
			b := make([]byte, sz)
			if sz > 0 {
				copy(b, unsafe.Slice((*byte)(data), sz))
			}
			vm.state(l).push(string(b))
		},
		PushCClosure: func(l uintptr, fn uintptr, upvalues int32) {
			s := vm.state(l)
			raw := vm.cfunc(fn)
			up := make([]value, upvalues)
			for i := int(upvalues) - 1; i >= 0; i-- {
				up[i] = s.popValue()
			}
			s.push(&vfunc{raw: raw, up: up})
		},
		PushLightUserdata: func(l uintptr, data uintptr) {
			vm.state(l).push(lightUD(data))
		},
		PushThread: func(l uintptr) int32 {
			s := vm.state(l)
			s.push(s)
			if s.main {
				return 1
			}
			return 0
		},

		CreateTable: func(l uintptr, narr, nrec int32) {
			vm.state(l).push(newVtable())
		},
		GetTable: func(l uintptr, index int32) {
			s := vm.state(l)
			t := s.tableAt(index, "index")
			k := s.popValue()
			s.push(t.get(k))
		},
		SetTable: func(l uintptr, index int32) {
			s := vm.state(l)
			t := s.tableAt(index, "index")
			v := s.popValue()
			k := s.popValue()
			t.set(k, v)
		},
		GetField: func(l uintptr, index int32, k string) {
			s := vm.state(l)
			s.push(s.tableAt(index, "index").get(k))
		},
		SetField: func(l uintptr, index int32, k string) {
			s := vm.state(l)
			t := s.tableAt(index, "index")
			v := s.popValue()
			stampName(v, k, index)
			t.set(k, v)
		},
		RawGet: func(l uintptr, index int32) {
			s := vm.state(l)
			t := s.tableAt(index, "index")
			k := s.popValue()
			s.push(t.get(k))
		},
		RawSet: func(l uintptr, index int32) {
			s := vm.state(l)
			t := s.tableAt(index, "index")
			v := s.popValue()
			k := s.popValue()
			if ks, ok := k.(string); ok {
				stampName(v, ks, index)
			}
			t.set(k, v)
		},
		RawGetI: func(l uintptr, t, index int32) {
			s := vm.state(l)
			s.push(s.tableAt(t, "index").get(float64(index)))
		},
		RawSetI: func(l uintptr, t, index int32) {
			s := vm.state(l)
			tab := s.tableAt(t, "index")
			tab.set(float64(index), s.popValue())
		},
		RawEqual: func(l uintptr, a, b int32) int32 {
			s := vm.state(l)
			if rawEqual(s.valueAt(a), s.valueAt(b)) {
				return 1
			}
			return 0
		},
		Equal: func(l uintptr, a, b int32) int32 {
			s := vm.state(l)
			if rawEqual(s.valueAt(a), s.valueAt(b)) {
				return 1
			}
			return 0
		},
		Next: func(l uintptr, index int32) int32 {
			return vm.state(l).next(index)
		},
		GetMetatable: func(l uintptr, index int32) int32 {
			s := vm.state(l)
			var meta *vtable
			switch v := s.valueAt(index).(type) {
			case *vtable:
				meta = v.meta
			case *vuserdata:
				meta = v.meta
			}
			if meta == nil {
				return 0
			}
			s.push(meta)
			return 1
		},
		SetMetatable: func(l uintptr, index int32) int32 {
			s := vm.state(l)
			target := s.valueAt(index)
			mt, _ := s.popValue().(*vtable)
			switch v := target.(type) {
			case *vtable:
				v.meta = mt
			case *vuserdata:
				v.meta = mt
			default:
				return 0
			}
			return 1
		},
		GetFEnv: func(l uintptr, index int32) {
			s := vm.state(l)
			switch v := s.valueAt(index).(type) {
			case *vfunc:
				if v.env != nil {
					s.push(v.env)
					return
				}
				s.push(s.gs.globals)
			case *vuserdata:
				if v.env != nil {
					s.push(v.env)
					return
				}
				s.push(nil)
			case *state:
				s.push(v.gs.globals)
			default:
				s.push(nil)
			}
		},
		SetFEnv: func(l uintptr, index int32) int32 {
			s := vm.state(l)
			target := s.valueAt(index)
			env, _ := s.popValue().(*vtable)
			switch v := target.(type) {
			case *vfunc:
				v.env = env
			case *vuserdata:
				v.env = env
			default:
				return 0
			}
			return 1
		},

		Call: func(l uintptr, nargs, nresults int32) {
			vm.state(l).call(nargs, nresults)
		},
		PCall:  vm.pcall,
		CPCall: vm.cpcall,
		Error: func(l uintptr) int32 {
			panic(raised{v: vm.state(l).popValue()})
		},

		Ref:   vm.ref,
		Unref: vm.unref,

		NewMetatable: func(l uintptr, name string) int32 {
			s := vm.state(l)
			if mt, ok := s.gs.registry.get(name).(*vtable); ok {
				s.push(mt)
				return 0
			}
			mt := newVtable()
			s.gs.registry.set(name, mt)
			s.push(mt)
			return 1
		},
		NewUserdata: func(l uintptr, sz uintptr) uintptr {
			s := vm.state(l)
			n := sz
			if n == 0 {
				n = 1
			}
			u := &vuserdata{data: make([]byte, n)}
			s.push(u)
			return uintptr(unsafe.Pointer(&u.data[0]))
		},

		RegisterLib: vm.registerLib,

		NewThread: vm.newThread,
		XMove: func(from, to uintptr, n int32) {
			src, dst := vm.state(from), vm.state(to)
			moved := make([]value, n)
			for i := int(n) - 1; i >= 0; i-- {
				moved[i] = src.popValue()
			}
			dst.stack = append(dst.stack, moved...)
		},
		Yield:  vm.yield,
		Resume: vm.resume,
		Status: func(l uintptr) int32 { return vm.state(l).status },

		GetStack:  vm.getStack,
		GetInfo:   vm.getInfo,
		Traceback: vm.traceback,
	}
}

// tableAt reads a table at index or raises the canonical complaint.
func (s *state) tableAt(index int32, op string) *vtable {
	v := s.valueAt(index)
	t, ok := v.(*vtable)
	if !ok {
		raiseString(fmt.Sprintf("attempt to %s a %s value", op, typeName(typeOf(v))))
	}
	return t
}

// stampName records how a function value was last stored, feeding the
// activation records that a real VM fills from call-site inference.
func stampName(v value, key string, index int32) {
	fn, ok := v.(*vfunc)
	if !ok {
		return
	}
	fn.name = key
	if index == lua.GlobalsIndex {
		fn.namewhat = "global"
	} else {
		fn.namewhat = "field"
	}
}

// next advances table iteration for the popped key, pushing the next
// pair or nothing at the end.
func (s *state) next(index int32) int32 {
	t := s.tableAt(index, "iterate")
	k := s.popValue()
	start := 0
	if k != nil {
		for i, kk := range t.keys {
			if kk == k {
				start = i + 1
				break
			}
		}
	}
	for _, kk := range t.keys[start:] {
		if v, ok := t.m[kk]; ok {
			s.push(kk)
			s.push(v)
			return 1
		}
	}
	return 0
}

func typeOf(v value) int32 {
	switch v.(type) {
	case noneType:
		return int32(lua.TypeNone)
	case nil:
		return int32(lua.TypeNil)
	case bool:
		return int32(lua.TypeBoolean)
	case lightUD:
		return int32(lua.TypeLightUserdata)
	case float64:
		return int32(lua.TypeNumber)
	case string:
		return int32(lua.TypeString)
	case *vtable:
		return int32(lua.TypeTable)
	case *vfunc:
		return int32(lua.TypeFunction)
	case *vuserdata:
		return int32(lua.TypeUserdata)
	case *state:
		return int32(lua.TypeThread)
	}
	return int32(lua.TypeNone)
}

func typeName(id int32) string {
	switch lua.Type(id) {
	case lua.TypeNil:
		return "nil"
	case lua.TypeBoolean:
		return "boolean"
	case lua.TypeLightUserdata, lua.TypeUserdata:
		return "userdata"
	case lua.TypeNumber:
		return "number"
	case lua.TypeString:
		return "string"
	case lua.TypeTable:
		return "table"
	case lua.TypeFunction:
		return "function"
	case lua.TypeThread:
		return "thread"
	}
	return "no value"
}

// toNumber applies the VM's number coercion: numbers as-is, strings
// parsed after trimming.
func toNumber(v value) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// formatNumber renders a number the way tostring does, %.14g.
func formatNumber(n float64) string {
	return fmt.Sprintf("%.14g", n)
}

func rawEqual(a, b value) bool {
	if a == none || b == none {
		return false
	}
	return a == b
}
