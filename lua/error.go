package lua

import "fmt"

// ErrKind classifies an error reported by the VM. Kinds are themselves
// errors, so errors.Is(err, ErrSyntax) holds for every syntax error.
type ErrKind int32

const (
	// ErrMemory is an allocation failure inside the VM.
	ErrMemory ErrKind = iota
	// ErrSyntax is a compile error in loaded source.
	ErrSyntax
	// ErrFile is a failure to read a source file.
	ErrFile
	// ErrRuntime is an error raised while running code.
	ErrRuntime
	// ErrErrHandler is an error raised by the message handler of a
	// protected call.
	ErrErrHandler
	// ErrUnknown is a status code this package does not recognize.
	ErrUnknown
)

func (k ErrKind) Error() string {
	switch k {
	case ErrMemory:
		return "Out of memory"
	case ErrSyntax:
		return "Syntax error"
	case ErrFile:
		return "File error"
	case ErrRuntime:
		return "Runtime error"
	case ErrErrHandler:
		return "Error handler error"
	default:
		return "Unknown Lua error"
	}
}

// Error is a failure reported by the VM, carrying the error message
// when the VM produced one.
type Error struct {
	Kind    ErrKind
	Message string
	// Code is the raw VM status, set only for ErrUnknown.
	Code int32
}

func (e *Error) Error() string {
	switch e.Kind {
	case ErrRuntime:
		if e.Message != "" {
			return e.Message
		}
	case ErrSyntax, ErrFile:
		if e.Message != "" {
			return e.Kind.Error() + ": " + e.Message
		}
	case ErrUnknown:
		return fmt.Sprintf("Unknown Lua error code: %d", e.Code)
	}
	return e.Kind.Error()
}

// Is matches the error's kind, or another *Error of the same kind.
func (e *Error) Is(target error) bool {
	switch t := target.(type) {
	case ErrKind:
		return e.Kind == t
	case *Error:
		return e.Kind == t.Kind
	}
	return false
}

// FromStatus converts a VM status into an error, nil for StatusOK and
// StatusYield. For the statuses that leave an error value on the stack
// the value is popped, its message kept when it is a string; StatusErrMem
// and StatusErrErr leave the stack untouched.
func FromStatus(l State, status int32) error {
	switch status {
	case StatusOK, StatusYield:
		return nil
	case StatusErrMem:
		return &Error{Kind: ErrMemory}
	case StatusErrErr:
		return &Error{Kind: ErrErrHandler}
	case StatusErrRun:
		return &Error{Kind: ErrRuntime, Message: l.popErrorMessage()}
	case StatusErrSyntax:
		return &Error{Kind: ErrSyntax, Message: l.popErrorMessage()}
	case StatusErrFile:
		return &Error{Kind: ErrFile, Message: l.popErrorMessage()}
	default:
		return &Error{Kind: ErrUnknown, Code: status}
	}
}

// popErrorMessage takes the error value off the top of the stack,
// returning "" when it is not a string.
func (l State) popErrorMessage() string {
	msg, _ := l.String(-1)
	l.Pop()
	return msg
}
