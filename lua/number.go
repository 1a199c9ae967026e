package lua

import "strconv"

// Numeric covers the Go number types PushNumeric accepts.
type Numeric interface {
	int | int8 | int16 | int32 | int64 |
		uint | uint8 | uint16 | uint32 | uint64 | uintptr |
		float32 | float64
}

// PushNumeric pushes v with its value intact. Types that a VM number
// holds exactly are pushed as numbers. Wider integers are pushed as
// numbers while their magnitude stays within MaxSafeInteger and as
// decimal strings beyond it, where a float64 would silently round.
func PushNumeric[T Numeric](l State, v T) {
	switch n := any(v).(type) {
	case int8:
		l.PushNumber(float64(n))
	case int16:
		l.PushNumber(float64(n))
	case int32:
		l.PushNumber(float64(n))
	case uint8:
		l.PushNumber(float64(n))
	case uint16:
		l.PushNumber(float64(n))
	case uint32:
		l.PushNumber(float64(n))
	case float32:
		l.PushNumber(float64(n))
	case float64:
		l.PushNumber(n)
	case int:
		pushWideInt(l, int64(n))
	case int64:
		pushWideInt(l, n)
	case uint:
		pushWideUint(l, uint64(n))
	case uint64:
		pushWideUint(l, n)
	case uintptr:
		pushWideUint(l, uint64(n))
	}
}

func pushWideInt(l State, v int64) {
	if v >= -MaxSafeInteger && v <= MaxSafeInteger {
		l.PushNumber(float64(v))
		return
	}
	l.PushString(strconv.FormatInt(v, 10))
}

func pushWideUint(l State, v uint64) {
	if v <= MaxSafeInteger {
		l.PushNumber(float64(v))
		return
	}
	l.PushString(strconv.FormatUint(v, 10))
}
