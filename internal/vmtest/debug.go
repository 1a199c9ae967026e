package vmtest

import (
	"fmt"
	"strings"
	"sync"
	"unsafe"
)

// debugRecord mirrors the C activation record the binding hands in by
// pointer. Field order and widths must stay in step with the binding's
// own Debug layout.
type debugRecord struct {
	event           int32
	name            uintptr
	namewhat        uintptr
	what            uintptr
	source          uintptr
	currentline     int32
	nups            int32
	linedefined     int32
	lastlinedefined int32
	shortSrc        [60]byte
	iCi             int32
}

// Interned NUL-terminated strings handed out by pointer. The map entry
// keeps each buffer alive for the process, the lifetime C callers
// assume for typename and debug strings.
var (
	cstrMu sync.Mutex
	cstrs  = map[string][]byte{}
)

func cString(s string) uintptr {
	cstrMu.Lock()
	defer cstrMu.Unlock()
	b, ok := cstrs[s]
	if !ok {
		b = append([]byte(s), 0)
		cstrs[s] = b
	}
	return uintptr(unsafe.Pointer(&b[0]))
}

func goCString(p uintptr) string {
	if p == 0 {
		return ""
	}
	n := 0
	for *(*byte)(unsafe.Pointer(p + uintptr(n))) != 0 {
		n++
	}
	return string(unsafe.Slice((*byte)(unsafe.Pointer(p)), n))
}

// getStack stamps the record with the frame position for the given
// level, 0 being the innermost activation.
func (vm *VM) getStack(l uintptr, level int32, ar unsafe.Pointer) int32 {
	s := vm.state(l)
	if level < 0 || int(level) >= len(s.frames) {
		return 0
	}
	rec := (*debugRecord)(ar)
	rec.iCi = int32(len(s.frames) - int(level))
	return 1
}

// getInfo fills the fields selected by what. Every frame here is a
// native one, so the source info is the fixed [C] shape; names come
// from the store-site stamps.
func (vm *VM) getInfo(l uintptr, what string, ar unsafe.Pointer) int32 {
	s := vm.state(l)
	rec := (*debugRecord)(ar)

	var name, namewhat string
	var nups int
	if strings.HasPrefix(what, ">") {
		fn, ok := s.popValue().(*vfunc)
		if !ok {
			return 0
		}
		name, namewhat = fn.name, fn.namewhat
		nups = len(fn.up)
		what = what[1:]
	} else {
		i := int(rec.iCi) - 1
		if i < 0 || i >= len(s.frames) {
			return 0
		}
		fr := s.frames[i]
		name, namewhat = fr.name, fr.namewhat
		nups = len(fr.fn.up)
	}

	for _, c := range what {
		switch c {
		case 'n':
			rec.name = 0
			if name != "" {
				rec.name = cString(name)
			}
			rec.namewhat = cString(namewhat)
		case 'S':
			rec.what = cString("C")
			rec.source = cString("=[C]")
			copy(rec.shortSrc[:], "[C]\x00")
			rec.linedefined = -1
			rec.lastlinedefined = -1
		case 'l':
			rec.currentline = -1
		case 'u':
			rec.nups = int32(nups)
		}
	}
	return 1
}

// traceback renders l1's activation stack onto l, msg first when one
// was given.
func (vm *VM) traceback(l, l1 uintptr, msg uintptr, level int32) {
	s := vm.state(l)
	target := vm.state(l1)

	var b strings.Builder
	if msg != 0 {
		b.WriteString(goCString(msg))
		b.WriteByte('\n')
	}
	b.WriteString("stack traceback:")
	for i := len(target.frames) - 1 - int(level); i >= 0; i-- {
		fr := target.frames[i]
		if fr.name != "" {
			fmt.Fprintf(&b, "\n\t[C]: in function '%s'", fr.name)
		} else {
			b.WriteString("\n\t[C]: in ?")
		}
	}
	s.push(b.String())
}
