// Package lua is the handle layer over the Garry's Mod Lua VM.
//
// State is a copyable view into one VM stack. It carries no ownership:
// the game owns every VM it hands the module, and a State for a
// coroutine shares its parent's global environment while keeping an
// independent stack. All methods enter the VM through the process-wide
// symbol table resolved by the luashared package.
//
// # Stack discipline
//
// Methods accept the VM's usual index forms: positive from the bottom,
// negative from the top, and the pseudo-indices RegistryIndex,
// EnvironIndex, GlobalsIndex and UpvalueIndex(n). Unless a method's
// documentation says otherwise it leaves net stack depth unchanged;
// Guard exists to assert that in tests and debug paths.
//
// # Two error regimes
//
// An unprotected Call that fails inside the VM unwinds with the VM's own
// longjmp-style transfer and never returns here. PCall and its relatives
// convert that failure into an *Error value instead. Native callbacks run
// inside a VM protected frame, so raising with State.Error from handler
// code is legal there and only there.
package lua

import (
	"unsafe"

	"github.com/goobie/glua-bridge/luashared"
)

// State is a VM stack handle, the raw lua_State pointer.
type State uintptr

// Function is the native calling convention: receive the state, return
// the number of results pushed.
type Function func(l State) int32

// Ref is a token for a value parked in the VM registry.
type Ref int32

// Reg pairs a global function name with its implementation for batch
// registration.
type Reg struct {
	Name string
	Func Function
}

// Pseudo-indices.
const (
	RegistryIndex int32 = -10000
	EnvironIndex  int32 = -10001
	GlobalsIndex  int32 = -10002
)

// MultRet requests all results from a call.
const MultRet int32 = -1

// Reference sentinels. Dereference treats both as no-ops and
// FromReference refuses to push them.
const (
	RefNil Ref = -1
	NoRef  Ref = -2
)

// MaxSafeInteger is the largest magnitude a VM number (an IEEE double)
// represents exactly. Wider integers are pushed as decimal strings.
const MaxSafeInteger = 1<<53 - 1

// Type identifies a VM value category.
type Type int32

const (
	TypeNone          Type = -1
	TypeNil           Type = 0
	TypeBoolean       Type = 1
	TypeLightUserdata Type = 2
	TypeNumber        Type = 3
	TypeString        Type = 4
	TypeTable         Type = 5
	TypeFunction      Type = 6
	TypeUserdata      Type = 7
	TypeThread        Type = 8
)

// String names the type the way lua_typename does, without needing a VM.
func (t Type) String() string {
	switch t {
	case TypeNone:
		return "no value"
	case TypeNil:
		return "nil"
	case TypeBoolean:
		return "boolean"
	case TypeLightUserdata, TypeUserdata:
		return "userdata"
	case TypeNumber:
		return "number"
	case TypeString:
		return "string"
	case TypeTable:
		return "table"
	case TypeFunction:
		return "function"
	case TypeThread:
		return "thread"
	default:
		return "unknown"
	}
}

// Protected-call status codes.
const (
	StatusOK        int32 = 0
	StatusYield     int32 = 1
	StatusErrRun    int32 = 2
	StatusErrSyntax int32 = 3
	StatusErrMem    int32 = 4
	StatusErrErr    int32 = 5
	StatusErrFile   int32 = StatusErrErr + 1
)

// IDSize is the VM's fixed buffer length for Debug.ShortSrc.
const IDSize = 60

// UpvalueIndex converts a 1-based closure upvalue slot into a
// pseudo-index.
func UpvalueIndex(n int32) int32 {
	return GlobalsIndex - n
}

// tbl resolves the symbol table; first use triggers the one-time import.
func tbl() *luashared.Table {
	return luashared.Import()
}

// NewState creates a standalone VM with the standard libraries opened,
// outside any game-managed state. Useful for tooling against a real
// lua_shared; in-game code receives its State from the loader instead.
func NewState() (State, error) {
	l := tbl().NewState()
	if l == 0 {
		return 0, &Error{Kind: ErrMemory}
	}
	tbl().OpenLibs(l)
	return State(l), nil
}

// goString copies a NUL-terminated C string. A nil pointer reads as "".
func goString(p uintptr) string {
	if p == 0 {
		return ""
	}
	n := 0
	for *(*byte)(unsafe.Pointer(p + uintptr(n))) != 0 {
		n++
	}
	if n == 0 {
		return ""
	}
	return string(unsafe.Slice((*byte)(unsafe.Pointer(p)), n))
}
