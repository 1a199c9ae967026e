package lua

import (
	"fmt"
	"runtime"
	"unsafe"
)

// CreateTable pushes a new table preallocated for narr array slots and
// nrec hash slots.
func (l State) CreateTable(narr, nrec int32) {
	tbl().CreateTable(uintptr(l), narr, nrec)
}

// NewTable pushes a new empty table.
func (l State) NewTable() {
	l.CreateTable(0, 0)
}

// GetTable pops a key and pushes t[key] for the table at index,
// honoring metamethods.
func (l State) GetTable(index int32) {
	tbl().GetTable(uintptr(l), index)
}

// SetTable pops a value then a key and sets t[key] for the table at
// index, honoring metamethods.
func (l State) SetTable(index int32) {
	tbl().SetTable(uintptr(l), index)
}

// GetField pushes t[name] for the table at index.
func (l State) GetField(index int32, name string) {
	tbl().GetField(uintptr(l), index, name)
}

// SetField pops the top value into t[name] for the table at index.
func (l State) SetField(index int32, name string) {
	tbl().SetField(uintptr(l), index, name)
}

// RawGet is GetTable without metamethods.
func (l State) RawGet(index int32) {
	tbl().RawGet(uintptr(l), index)
}

// RawSet is SetTable without metamethods.
func (l State) RawSet(index int32) {
	tbl().RawSet(uintptr(l), index)
}

// RawGetI pushes t[n] for the table at index, without metamethods.
func (l State) RawGetI(index, n int32) {
	tbl().RawGetI(uintptr(l), index, n)
}

// RawSetI pops the top value into t[n] for the table at index, without
// metamethods.
func (l State) RawSetI(index, n int32) {
	tbl().RawSetI(uintptr(l), index, n)
}

// RawEqual compares the values at a and b without metamethods.
func (l State) RawEqual(a, b int32) bool {
	return tbl().RawEqual(uintptr(l), a, b) == 1
}

// Equal compares the values at a and b, honoring __eq.
func (l State) Equal(a, b int32) bool {
	return tbl().Equal(uintptr(l), a, b) == 1
}

// Next pops a key and pushes the next key and value of the table at
// index. Returns false, pushing nothing, when the table is exhausted.
func (l State) Next(index int32) bool {
	return tbl().Next(uintptr(l), index) != 0
}

// GetGlobal pushes the global with the given name.
func (l State) GetGlobal(name string) {
	l.GetField(GlobalsIndex, name)
}

// SetGlobal pops the top value into the global with the given name.
func (l State) SetGlobal(name string) {
	l.SetField(GlobalsIndex, name)
}

// GetMetatable pushes the metatable of the value at index, returning
// false and pushing nothing when it has none.
func (l State) GetMetatable(index int32) bool {
	return tbl().GetMetatable(uintptr(l), index) != 0
}

// SetMetatable pops a table and installs it as the metatable of the
// value at index.
func (l State) SetMetatable(index int32) bool {
	return tbl().SetMetatable(uintptr(l), index) != 0
}

// GetFEnv pushes the environment table of the value at index.
func (l State) GetFEnv(index int32) {
	tbl().GetFEnv(uintptr(l), index)
}

// SetFEnv pops a table and installs it as the environment of the value
// at index, returning false when the value cannot carry one.
func (l State) SetFEnv(index int32) bool {
	return tbl().SetFEnv(uintptr(l), index) != 0
}

// NewMetatable pushes the registry metatable for name, creating it
// first if needed. Returns true when it already existed, so metamethod
// setup can run on a false return only.
func (l State) NewMetatable(name string) bool {
	return tbl().NewMetatable(uintptr(l), name) == 0
}

// GetMetatableName pushes the registry metatable registered under name,
// or nil when none exists.
func (l State) GetMetatableName(name string) {
	l.GetField(RegistryIndex, name)
}

// NewUserdata allocates a VM-owned block of sz bytes, pushes it, and
// returns the payload pointer. The block is collected once the value
// is unreachable, so the pointer must not outlive it.
func (l State) NewUserdata(sz uintptr) unsafe.Pointer {
	return unsafe.Pointer(tbl().NewUserdata(uintptr(l), sz))
}

// GetFieldTypeOrNil pushes t[name] for the table at index when the
// field holds a value of type want and returns true. A nil or absent
// field is popped again and reported as (false, nil); a field of any
// other type is popped and reported as an error. Only a true return
// leaves a value on the stack.
func (l State) GetFieldTypeOrNil(index int32, name string, want Type) (bool, error) {
	l.GetField(index, name)
	if l.IsNoneOrNil(-1) {
		l.Pop()
		return false, nil
	}
	if got := l.TypeOf(-1); got != want {
		l.Pop()
		return false, fmt.Errorf("bad type for field: '%s' (%s expected, got: %s)",
			name, l.TypeName(want), l.TypeName(got))
	}
	return true, nil
}

// cReg mirrors the VM's registration record: a C string name and a C
// function pointer, with a zeroed terminator record.
type cReg struct {
	name uintptr
	fn   uintptr
}

// Register registers fns the way the VM's own libraries register.
// With a library name the functions land in a global table of that
// name, which is pushed; with "" they land in the table on top of the
// stack.
func (l State) Register(libname string, fns []Reg) {
	names := make([][]byte, 0, len(fns)+1)
	regs := make([]cReg, 0, len(fns)+1)
	for _, r := range fns {
		n := append([]byte(r.Name), 0)
		names = append(names, n)
		regs = append(regs, cReg{
			name: uintptr(unsafe.Pointer(&n[0])),
			fn:   wrapFunc(r.Func),
		})
	}
	regs = append(regs, cReg{})

	var lib uintptr
	if libname != "" {
		n := append([]byte(libname), 0)
		names = append(names, n)
		lib = uintptr(unsafe.Pointer(&n[0]))
	}
	tbl().RegisterLib(uintptr(l), lib, unsafe.Pointer(&regs[0]))
	runtime.KeepAlive(names)
	runtime.KeepAlive(regs)
}
