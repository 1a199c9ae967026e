package lua

import (
	"errors"
	"fmt"
	"strings"
)

// The checkers read arguments of native callbacks. They never raise:
// a violation comes back as an ordinary error carrying the standard
// argument complaint, ready for Wrap to deliver to the script.

// CheckBinaryString reads argument narg as a string, accepting the
// number coercion the C API applies.
func (l State) CheckBinaryString(narg int32) ([]byte, error) {
	if b, ok := l.readBinary(narg); ok {
		return b, nil
	}
	return nil, errors.New(l.TypeError(narg, "string"))
}

// CheckString is CheckBinaryString as UTF-8, invalid bytes replaced.
func (l State) CheckString(narg int32) (string, error) {
	b, err := l.CheckBinaryString(narg)
	if err != nil {
		return "", err
	}
	return strings.ToValidUTF8(string(b), "�"), nil
}

// CheckNumber reads argument narg as a number, accepting strings the
// VM can convert.
func (l State) CheckNumber(narg int32) (float64, error) {
	n := l.Number(narg)
	if n == 0 && tbl().IsNumber(uintptr(l), narg) == 0 {
		return 0, errors.New(l.TypeError(narg, "number"))
	}
	return n, nil
}

// CheckBoolean reads argument narg as a boolean, without truthiness
// coercion.
func (l State) CheckBoolean(narg int32) (bool, error) {
	if !l.IsBoolean(narg) {
		return false, errors.New(l.TypeError(narg, "boolean"))
	}
	return l.Boolean(narg), nil
}

// CheckTable verifies argument narg is a table, leaving it in place.
func (l State) CheckTable(narg int32) error {
	if !l.IsTable(narg) {
		return errors.New(l.TypeError(narg, "table"))
	}
	return nil
}

// CheckFunc verifies argument narg is a function, leaving it in place.
func (l State) CheckFunc(narg int32) error {
	if !l.IsFunction(narg) {
		return errors.New(l.TypeError(narg, "function"))
	}
	return nil
}

// OptBinaryString is CheckBinaryString defaulting on a missing or nil
// argument.
func (l State) OptBinaryString(narg int32, def []byte) ([]byte, error) {
	if l.IsNoneOrNil(narg) {
		return def, nil
	}
	return l.CheckBinaryString(narg)
}

// OptString is CheckString defaulting on a missing or nil argument.
func (l State) OptString(narg int32, def string) (string, error) {
	if l.IsNoneOrNil(narg) {
		return def, nil
	}
	return l.CheckString(narg)
}

// OptNumber is CheckNumber defaulting on a missing or nil argument.
func (l State) OptNumber(narg int32, def float64) (float64, error) {
	if l.IsNoneOrNil(narg) {
		return def, nil
	}
	return l.CheckNumber(narg)
}

// OptBoolean is CheckBoolean defaulting on a missing or nil argument.
func (l State) OptBoolean(narg int32, def bool) (bool, error) {
	if l.IsNoneOrNil(narg) {
		return def, nil
	}
	return l.CheckBoolean(narg)
}

// TypeError renders the canonical wrong-type complaint for argument
// narg against the expected type name.
func (l State) TypeError(narg int32, tname string) string {
	return l.BadArgument(narg, fmt.Sprintf("%s expected, got %s",
		tname, l.TypeName(l.TypeOf(narg))))
}

// TagError is TypeError against one of the VM's own type names.
func (l State) TagError(narg int32, t Type) string {
	return l.TypeError(narg, l.TypeName(t))
}

// BadArgument renders msg as the standard bad-argument complaint for
// argument narg of the running native function. A regular negative narg
// is absolutized against the stack top, and in a method call the self
// parameter does not count toward the argument number.
func (l State) BadArgument(narg int32, msg string) string {
	fname := "?"
	namewhat := ""
	if d, ok := l.GetInfoAt(0, "n"); ok {
		if n := d.Name(); n != "" {
			fname = n
		}
		namewhat = d.NameWhat()
	}

	if narg < 0 && narg > RegistryIndex {
		narg = l.Top() + narg + 1
	}

	if namewhat == "method" {
		narg--
		if narg == 0 {
			return fmt.Sprintf("bad self parameter in method '%s' (%s)", fname, msg)
		}
	}
	return fmt.Sprintf("bad argument #%d to '%s' (%s)", narg, fname, msg)
}
