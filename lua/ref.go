package lua

// Reference pops the top value into the registry's reference machinery
// and returns its slot. Referencing nil yields the shared RefNil slot.
// FromReference pushes the value back, Dereference frees the slot.
func (l State) Reference() Ref {
	return Ref(tbl().Ref(uintptr(l), RegistryIndex))
}

// FromReference pushes the value stored in ref. The RefNil and NoRef
// sentinels push nothing and return false.
func (l State) FromReference(ref Ref) bool {
	if ref == RefNil || ref == NoRef {
		return false
	}
	l.RawGetI(RegistryIndex, int32(ref))
	return true
}

// Dereference frees the registry slot behind ref so its value can be
// collected. The sentinels are no-ops, however often they are freed.
func (l State) Dereference(ref Ref) {
	if ref == RefNil || ref == NoRef {
		return
	}
	tbl().Unref(uintptr(l), RegistryIndex, int32(ref))
}

// IsValidFuncRef reports whether ref currently holds a function,
// leaving the stack unchanged.
func (l State) IsValidFuncRef(ref Ref) bool {
	if !l.FromReference(ref) {
		return false
	}
	ok := l.IsFunction(-1)
	l.Pop()
	return ok
}
