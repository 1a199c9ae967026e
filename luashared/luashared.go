// Package luashared locates and binds the Garry's Mod lua_shared library.
//
// The game ships the Lua VM as a shared library (lua_shared.dll / .so /
// .dylib) whose location varies by platform, bitness and server layout.
// This package discovers it, opens it, and resolves every VM entry point
// the bridge uses into a single process-wide Table of Go function values.
//
// Resolution happens at most once per process. A missing symbol is fatal:
// the bridge is unusable without a complete table, so Import panics rather
// than handing out a partial one. The library handle is deliberately never
// closed; VM symbols must stay valid for the lifetime of the process.
package luashared

import (
	"fmt"
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"
	"go.uber.org/zap"
)

// RawFunc is the calling convention of a VM C function: it receives the
// raw state pointer and returns the number of results left on the stack.
type RawFunc = func(state uintptr) int32

// Table holds one Go function value per VM symbol. Production tables are
// resolved from lua_shared by Import; in-process stub VMs (tests, tooling)
// provide their own via Install.
//
// Raw foreign pointers (states, C strings, userdata blocks) cross this
// boundary as uintptr. Go-owned memory passed to the VM (string buffers,
// debug records) crosses as unsafe.Pointer so the FFI layer keeps it alive
// for the duration of the call.
type Table struct {
	// Path is the shared library path the table was resolved from,
	// empty for installed stub tables.
	Path string

	// Handle is the opaque OS library handle. Never released.
	Handle uintptr

	// NewCFunction turns a RawFunc into a pointer callable by the VM.
	// Production tables use purego.NewCallback, which carries a hard
	// process-wide limit of 2000 callbacks; stub tables hand out tokens
	// into their own dispatch registry.
	NewCFunction func(fn RawFunc) uintptr

	// State lifecycle
	NewState func() uintptr
	OpenLibs func(l uintptr)

	// Chunk loading
	LoadFile   func(l uintptr, path string) int32
	LoadString func(l uintptr, src string) int32
	LoadBuffer func(l uintptr, buff unsafe.Pointer, sz uintptr, name string) int32

	// Stack manipulation
	GetTop    func(l uintptr) int32
	SetTop    func(l uintptr, index int32)
	PushValue func(l uintptr, index int32)
	Remove    func(l uintptr, index int32)
	Insert    func(l uintptr, index int32)
	Replace   func(l uintptr, index int32)

	// Type inspection
	Type     func(l uintptr, index int32) int32
	TypeName func(l uintptr, typeID int32) string
	IsNumber func(l uintptr, index int32) int32

	// Reads
	ToLString  func(l uintptr, index int32, size unsafe.Pointer) uintptr
	ToNumber   func(l uintptr, index int32) float64
	ToInteger  func(l uintptr, index int32) int
	ToBoolean  func(l uintptr, index int32) int32
	ToUserdata func(l uintptr, index int32) uintptr
	ToPointer  func(l uintptr, index int32) uintptr
	ToThread   func(l uintptr, index int32) uintptr
	ObjLen     func(l uintptr, index int32) uintptr

	// Pushes
	PushNil           func(l uintptr)
	PushBoolean       func(l uintptr, b int32)
	PushNumber        func(l uintptr, n float64)
	PushInteger       func(l uintptr, n int)
	PushLString       func(l uintptr, data unsafe.Pointer, sz uintptr)
	PushCClosure      func(l uintptr, fn uintptr, upvalues int32)
	PushLightUserdata func(l uintptr, data uintptr)
	PushThread        func(l uintptr) int32

	// Tables
	CreateTable  func(l uintptr, narr, nrec int32)
	GetTable     func(l uintptr, index int32)
	SetTable     func(l uintptr, index int32)
	GetField     func(l uintptr, index int32, k string)
	SetField     func(l uintptr, index int32, k string)
	RawGet       func(l uintptr, index int32)
	RawSet       func(l uintptr, index int32)
	RawGetI      func(l uintptr, t, index int32)
	RawSetI      func(l uintptr, t, index int32)
	RawEqual     func(l uintptr, a, b int32) int32
	Equal        func(l uintptr, a, b int32) int32
	Next         func(l uintptr, index int32) int32
	GetMetatable func(l uintptr, index int32) int32
	SetMetatable func(l uintptr, index int32) int32
	GetFEnv      func(l uintptr, index int32)
	SetFEnv      func(l uintptr, index int32) int32

	// Calls and errors
	Call   func(l uintptr, nargs, nresults int32)
	PCall  func(l uintptr, nargs, nresults, errfunc int32) int32
	CPCall func(l uintptr, fn uintptr, ud uintptr) int32
	Error  func(l uintptr) int32

	// References
	Ref   func(l uintptr, t int32) int32
	Unref func(l uintptr, t, ref int32)

	// Userdata and metatables
	NewMetatable func(l uintptr, name string) int32
	NewUserdata  func(l uintptr, sz uintptr) uintptr

	// Registration
	RegisterLib func(l uintptr, libname uintptr, regs unsafe.Pointer)

	// Coroutines
	NewThread func(l uintptr) uintptr
	XMove     func(from, to uintptr, n int32)
	Yield     func(l uintptr, nresults int32) int32
	Resume    func(l uintptr, narg int32) int32
	Status    func(l uintptr) int32

	// Debug introspection
	GetStack  func(l uintptr, level int32, ar unsafe.Pointer) int32
	GetInfo   func(l uintptr, what string, ar unsafe.Pointer) int32
	Traceback func(l, l1 uintptr, msg uintptr, level int32)
}

var (
	table     *Table
	tableOnce sync.Once
)

// Import discovers lua_shared, opens it and resolves the full symbol
// table. Idempotent; every caller shares one table. Panics if the library
// cannot be opened or any symbol is missing.
func Import() *Table {
	tableOnce.Do(func() {
		path, err := Discover()
		if err != nil {
			Logger().Error("lua_shared discovery failed", zap.Error(err))
			panic(fmt.Sprintf("luashared: %v", err))
		}

		handle, err := openLibrary(path)
		if err != nil {
			Logger().Error("lua_shared open failed", zap.String("path", path), zap.Error(err))
			panic(fmt.Sprintf("luashared: open %s: %v", path, err))
		}

		t := &Table{Path: path, Handle: handle}
		t.NewCFunction = func(fn RawFunc) uintptr {
			return purego.NewCallback(fn)
		}
		t.resolve()
		table = t

		Logger().Debug("lua_shared resolved", zap.String("path", path))
	})
	return table
}

// Install makes t the process-wide table. It exists for in-process stub
// VMs; production code never calls it. Panics if a different table was
// already imported or installed.
func Install(t *Table) {
	tableOnce.Do(func() { table = t })
	if table != t {
		panic("luashared: symbol table already imported")
	}
}

// Installed reports whether a table (real or stub) has been resolved.
func Installed() bool {
	return table != nil
}

func (t *Table) resolve() {
	t.register(&t.NewState, "luaL_newstate")
	t.register(&t.OpenLibs, "luaL_openlibs")

	t.register(&t.LoadFile, "luaL_loadfile")
	t.register(&t.LoadString, "luaL_loadstring")
	t.register(&t.LoadBuffer, "luaL_loadbuffer")

	t.register(&t.GetTop, "lua_gettop")
	t.register(&t.SetTop, "lua_settop")
	t.register(&t.PushValue, "lua_pushvalue")
	t.register(&t.Remove, "lua_remove")
	t.register(&t.Insert, "lua_insert")
	t.register(&t.Replace, "lua_replace")

	t.register(&t.Type, "lua_type")
	t.register(&t.TypeName, "lua_typename")
	t.register(&t.IsNumber, "lua_isnumber")

	t.register(&t.ToLString, "lua_tolstring")
	t.register(&t.ToNumber, "lua_tonumber")
	t.register(&t.ToInteger, "lua_tointeger")
	t.register(&t.ToBoolean, "lua_toboolean")
	t.register(&t.ToUserdata, "lua_touserdata")
	t.register(&t.ToPointer, "lua_topointer")
	t.register(&t.ToThread, "lua_tothread")
	t.register(&t.ObjLen, "lua_objlen")

	t.register(&t.PushNil, "lua_pushnil")
	t.register(&t.PushBoolean, "lua_pushboolean")
	t.register(&t.PushNumber, "lua_pushnumber")
	t.register(&t.PushInteger, "lua_pushinteger")
	t.register(&t.PushLString, "lua_pushlstring")
	t.register(&t.PushCClosure, "lua_pushcclosure")
	t.register(&t.PushLightUserdata, "lua_pushlightuserdata")
	t.register(&t.PushThread, "lua_pushthread")

	t.register(&t.CreateTable, "lua_createtable")
	t.register(&t.GetTable, "lua_gettable")
	t.register(&t.SetTable, "lua_settable")
	t.register(&t.GetField, "lua_getfield")
	t.register(&t.SetField, "lua_setfield")
	t.register(&t.RawGet, "lua_rawget")
	t.register(&t.RawSet, "lua_rawset")
	t.register(&t.RawGetI, "lua_rawgeti")
	t.register(&t.RawSetI, "lua_rawseti")
	t.register(&t.RawEqual, "lua_rawequal")
	t.register(&t.Equal, "lua_equal")
	t.register(&t.Next, "lua_next")
	t.register(&t.GetMetatable, "lua_getmetatable")
	t.register(&t.SetMetatable, "lua_setmetatable")
	t.register(&t.GetFEnv, "lua_getfenv")
	t.register(&t.SetFEnv, "lua_setfenv")

	t.register(&t.Call, "lua_call")
	t.register(&t.PCall, "lua_pcall")
	t.register(&t.CPCall, "lua_cpcall")
	t.register(&t.Error, "lua_error")

	t.register(&t.Ref, "luaL_ref")
	t.register(&t.Unref, "luaL_unref")

	t.register(&t.NewMetatable, "luaL_newmetatable")
	t.register(&t.NewUserdata, "lua_newuserdata")

	t.register(&t.RegisterLib, "luaL_register")

	t.register(&t.NewThread, "lua_newthread")
	t.register(&t.XMove, "lua_xmove")
	t.register(&t.Yield, "lua_yield")
	// lua_shared wraps the real resume with game bookkeeping and exports
	// the original under this name.
	t.register(&t.Resume, "lua_resume_real")
	t.register(&t.Status, "lua_status")

	t.register(&t.GetStack, "lua_getstack")
	t.register(&t.GetInfo, "lua_getinfo")
	t.register(&t.Traceback, "luaL_traceback")
}

// register probes for the symbol before binding so absence is detected
// eagerly at import time, not at first call.
func (t *Table) register(fptr any, name string) {
	if _, err := findSymbol(t.Handle, name); err != nil {
		Logger().Error("missing lua_shared symbol", zap.String("symbol", name), zap.Error(err))
		panic(fmt.Sprintf("luashared: missing symbol %q in %s", name, t.Path))
	}
	purego.RegisterLibFunc(fptr, t.Handle, name)
}
