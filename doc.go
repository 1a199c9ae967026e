// Package gluabridge binds Go code to the Garry's Mod Lua VM.
//
// The game ships its Lua 5.1 VM as a shared library (lua_shared). This
// library opens it at runtime, resolves the C API into Go function
// values, and layers a typed, copyable handle on top, so a Go shared
// object built with -buildmode=c-shared can act as a binary module:
// register functions, run protected calls, keep references, and hand
// work between goroutines and the VM.
//
// # Architecture Overview
//
// One concern per package, bottom up:
//
//	gluabridge/          Root package: Open/Close lifecycle, Defer, console logger
//	├── lua/             VM handle: stack, values, calls, references, coroutines, debug
//	├── luashared/       lua_shared discovery, dlopen, symbol resolution
//	├── taskqueue/       cross-goroutine deferral drained at a VM think checkpoint
//	├── userdata/        tagged engine userdata: checked downcasts, Vector, Angle
//	└── net/             util.AddNetworkString / net.Receive load-time helpers
//
// # Quick Start
//
// From the module's open entry point, on the VM goroutine:
//
//	func open(l lua.State) {
//	    if err := gluabridge.Open(l); err != nil {
//	        log.Fatal(err)
//	    }
//
//	    l.PushFunc(func(l lua.State) int32 {
//	        l.PushString("hello from Go")
//	        return 1
//	    })
//	    l.SetGlobal("GoHello")
//	}
//
// And gluabridge.Close(l) from the close entry point.
//
// # Threading Model
//
// The VM is single-threaded: every handle operation must happen on the
// goroutine the VM calls into. Other goroutines hand work over through
// the task queue, which a hidden think timer drains on the VM side:
//
//	any goroutine                        VM goroutine
//	-------------                        ------------
//	Defer(fn) ──► queue ··· think tick ──► fn(l)
//
// Defer never blocks and returns before fn runs. Each drained task runs
// under its own protected call, so one failing task cannot take down
// the tick, the batch, or the game.
//
// # Error Handling
//
// Operations that enter the VM under protection return error; the
// concrete type is lua.Error, carrying which of the VM's failure kinds
// occurred plus the message Lua produced. State.Error raises inside the
// VM and never returns. Helpers suffixed Ignore report failures through
// the game's non-halting channel (ErrorNoHalt) instead of returning
// them, which is the house style for think-loop and load-time glue.
//
// Symbol resolution is the one hard failure: a lua_shared without the
// full C API surface makes the bridge unusable, so luashared.Import
// panics rather than handing out a partial table.
package gluabridge
