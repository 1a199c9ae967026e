// Package userdata reads and builds the host's tagged userdata blocks.
//
// Every engine object the VM hands to native code is a full userdata
// whose payload starts with a TaggedUserData header: a raw pointer to
// the native struct plus a one-byte Tag saying what that struct is.
// Downcasting the pointer is only sound after checking the tag, so the
// checked path is the default and the unchecked one is spelled out.
package userdata

import (
	"errors"
	"fmt"
	"reflect"
	"sync"
	"unsafe"

	"github.com/goobie/glua-bridge/lua"
)

// TaggedUserData mirrors the engine's userdata header byte for byte:
// a pointer-sized Data field followed by the Tag byte.
type TaggedUserData struct {
	Data unsafe.Pointer
	Tag  Tag
}

// headerSize is the padded size of the header inside a block.
const headerSize = unsafe.Sizeof(TaggedUserData{})

// At copies the tagged header out of the userdata at index. It reports
// false when the slot does not hold a full or light userdata.
func At(l lua.State, index int32) (TaggedUserData, bool) {
	p := l.ToUserdata(index)
	if p == 0 {
		return TaggedUserData{}, false
	}
	return *(*TaggedUserData)(unsafe.Pointer(p)), true
}

// TagMismatchError reports a coercion against a block holding a
// different tag than the target type registered.
type TagMismatchError struct {
	Want Tag
	Got  Tag
}

func (e *TagMismatchError) Error() string {
	return fmt.Sprintf("tagged userdata holds %s, not %s", e.Got, e.Want)
}

var (
	tagsMu  sync.RWMutex
	tagByTy = map[reflect.Type]Tag{}
)

// RegisterTag binds T to tag so Coerce can verify blocks claiming to
// hold a T. Later registrations for the same type overwrite earlier
// ones. Vector and Angle are pre-registered.
func RegisterTag[T any](tag Tag) {
	tagsMu.Lock()
	defer tagsMu.Unlock()
	tagByTy[reflect.TypeFor[T]()] = tag
}

// TagOf returns the tag registered for T.
func TagOf[T any]() (Tag, bool) {
	tagsMu.RLock()
	defer tagsMu.RUnlock()
	tag, ok := tagByTy[reflect.TypeFor[T]()]
	return tag, ok
}

func init() {
	RegisterTag[Vector](TagVector)
	RegisterTag[Angle](TagAngle)
}

// Coerce downcasts the userdata at index to *T. It fails when the slot
// is not a userdata, when T was never registered, or when the block's
// tag disagrees with T's; the returned error then carries the actual
// tag and the pointer is never touched.
func Coerce[T any](l lua.State, index int32) (*T, error) {
	want, ok := TagOf[T]()
	if !ok {
		return nil, fmt.Errorf("no tag registered for %s", reflect.TypeFor[T]())
	}
	ud, ok := At(l, index)
	if !ok {
		return nil, fmt.Errorf("stack index %d holds %s, not userdata", index, l.TypeName(l.TypeOf(index)))
	}
	if ud.Tag != want {
		return nil, &TagMismatchError{Want: want, Got: ud.Tag}
	}
	return (*T)(ud.Data), nil
}

// CoerceUnchecked downcasts without looking at the tag. The caller
// vouches for the block's type; a wrong guess is memory corruption,
// not an error return.
func CoerceUnchecked[T any](l lua.State, index int32) *T {
	ud, ok := At(l, index)
	if !ok {
		return nil
	}
	return (*T)(ud.Data)
}

// As reads the userdata payload at index as a *T directly, with no
// tagged header in front. A non-empty metatable name demands that the
// value's metatable is identical to the registry table of that name;
// "" skips the check. The pointer stays valid only while the VM keeps
// the value alive.
func As[T any](l lua.State, index int32, metatable string) (*T, error) {
	if !l.IsUserdata(index) {
		if metatable != "" {
			return nil, fmt.Errorf("expected a userdata of type: %s", metatable)
		}
		return nil, errors.New("expected a userdata")
	}
	if metatable != "" {
		if !l.GetMetatable(index) {
			return nil, fmt.Errorf("expected a userdata of type: %s", metatable)
		}
		l.GetMetatableName(metatable)
		same := l.RawEqual(-1, -2)
		l.PopN(2)
		if !same {
			return nil, fmt.Errorf("expected a userdata of type: %s", metatable)
		}
	}
	p := l.ToUserdata(index)
	if p == 0 {
		return nil, errors.New("invalid userdata pointer")
	}
	if align := uintptr(reflect.TypeFor[T]().Align()); p%align != 0 {
		return nil, errors.New("invalid userdata pointer alignment")
	}
	return (*T)(unsafe.Pointer(p)), nil
}

// New pushes a self-contained tagged block: one userdata allocation
// holding the header plus size payload bytes, with Data pointing at
// the payload. The VM owns the memory and reclaims it on collection.
// It returns the payload pointer for the caller to fill in.
func New(l lua.State, tag Tag, size uintptr) unsafe.Pointer {
	block := l.NewUserdata(headerSize + size)
	payload := unsafe.Add(block, headerSize)
	header := (*TaggedUserData)(block)
	header.Data = payload
	header.Tag = tag
	return payload
}

// PushLight pushes a tagged block that borrows data instead of owning
// it. The native struct must outlive every reference the VM keeps.
func PushLight(l lua.State, tag Tag, data unsafe.Pointer) {
	header := (*TaggedUserData)(l.NewUserdata(headerSize))
	header.Data = data
	header.Tag = tag
}

// SetFinalizer installs fn as the __gc metamethod of the table on top
// of the stack. When the VM collects a userdata carrying that
// metatable, fn runs with the address of the block, header first. The
// VM still owns the memory: fn tears the value down in place and must
// not free the block.
func SetFinalizer(l lua.State, fn func(l lua.State, block uintptr)) {
	l.PushFunc(func(cl lua.State) int32 {
		fn(cl, cl.ToUserdata(1))
		return 0
	})
	l.SetField(-2, "__gc")
}
