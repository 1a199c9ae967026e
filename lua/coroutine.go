package lua

// NewThread pushes a new coroutine sharing l's global state and returns
// its handle. A thread handle is a State like any other.
func (l State) NewThread() State {
	return State(tbl().NewThread(uintptr(l)))
}

// XMove pops n values from l and pushes them onto to, which must belong
// to the same global state.
func (l State) XMove(to State, n int32) {
	tbl().XMove(uintptr(l), uintptr(to), n)
}

// Yield suspends the running coroutine with nresults values. Only valid
// as the tail expression of a native callback's return.
func (l State) Yield(nresults int32) int32 {
	return tbl().Yield(uintptr(l), nresults)
}

// Resume starts or continues the coroutine l with narg pushed
// arguments, returning the raw status. The binding goes to the engine's
// real resume entry, not the wrapper the game exports under the plain
// name.
func (l State) Resume(narg int32) int32 {
	return tbl().Resume(uintptr(l), narg)
}

// ResumeCall is Resume with call semantics: anything short of a
// completed run is raised as a VM error, including a yield. A runtime
// failure reuses the message the VM leaves below the top.
func (l State) ResumeCall(narg int32) {
	switch l.Resume(narg) {
	case StatusOK:
	case StatusErrRun:
		msg, ok := l.String(-2)
		if !ok {
			msg = "Unknown error"
		}
		l.Error(msg)
	case StatusErrMem:
		l.Error("Out of memory")
	default:
		l.Error("Unknown internal Lua error")
	}
}

// ResumeIgnore is Resume with failures routed through ErrorNoHalt,
// attaching traceback when one was captured. Returns the status and
// whether the coroutine completed or yielded.
func (l State) ResumeIgnore(narg int32, traceback string) (int32, bool) {
	status := l.Resume(narg)
	switch status {
	case StatusOK, StatusYield:
		return status, true
	}
	err := FromStatus(l, status)
	l.ErrorNoHalt(err.Error(), traceback)
	return status, false
}

// Status returns the thread status of l: StatusOK for a normal thread,
// StatusYield for a suspended one, or the error status it died with.
func (l State) Status() int32 {
	return tbl().Status(uintptr(l))
}
