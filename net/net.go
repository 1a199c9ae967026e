// Package net registers network strings and receive handlers through
// the host's util and net globals. Like the stdlib-shadowing errors
// package, it never imports its namesake.
//
// The helpers are load-time glue and assume the host environment is
// up: util and net must exist when they run. Individual registration
// failures are reported through the non-halting route instead of
// returned, so one bad name never aborts module startup.
package net

import "github.com/goobie/glua-bridge/lua"

// AddNetworkStrings registers every name with util.AddNetworkString.
// The function is resolved once for any number of names; zero names
// touch nothing.
func AddNetworkStrings(l lua.State, names ...string) {
	switch len(names) {
	case 0:
	case 1:
		l.GetGlobal("util")
		l.GetField(-1, "AddNetworkString")
		l.PushString(names[0])
		l.PCallIgnore(1, 0)
		l.Pop()
	default:
		l.GetGlobal("util")
		l.GetField(-1, "AddNetworkString")
		for _, name := range names {
			l.PushValue(-1)
			l.PushString(name)
			l.PCallIgnore(1, 0)
		}
		l.PopN(2)
	}
}

// Receive installs fn as the handler for the named message via
// net.Receive. fn mints a callback slot, so register handlers once at
// load rather than per message.
func Receive(l lua.State, name string, fn lua.Function) {
	l.GetGlobal("net")
	l.GetField(-1, "Receive")
	l.PushString(name)
	l.PushFunc(fn)
	l.PCallIgnore(2, 0)
	l.Pop()
}
