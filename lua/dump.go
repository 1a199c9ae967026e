package lua

import (
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/goobie/glua-bridge/luashared"
)

// DumpStack writes every stack slot through the package logger at
// Debug, scalars with their values.
func (l State) DumpStack() {
	log := luashared.Logger()
	top := l.Top()
	log.Debug("stack dump", zap.Int32("size", top))
	for i := int32(1); i <= top; i++ {
		fields := []zap.Field{
			zap.Int32("index", i),
			zap.String("type", l.TypeName(l.TypeOf(i))),
		}
		switch l.TypeOf(i) {
		case TypeString, TypeBoolean, TypeNumber:
			fields = append(fields, zap.String("value", l.DumpValue(i)))
		}
		log.Debug("stack slot", fields...)
	}
}

// DumpValue renders the value at index for diagnostics: strings quoted,
// booleans and numbers plain, everything else as its type name. Reads
// through a pushed copy so number slots are never converted in place.
func (l State) DumpValue(index int32) string {
	switch l.TypeOf(index) {
	case TypeString:
		l.PushValue(index)
		s, _ := l.String(-1)
		l.Pop()
		return strconv.Quote(s)
	case TypeBoolean:
		l.PushValue(index)
		b := l.Boolean(-1)
		l.Pop()
		return strconv.FormatBool(b)
	case TypeNumber:
		l.PushValue(index)
		n := l.Number(-1)
		l.Pop()
		return fmt.Sprintf("%v", n)
	}
	return l.TypeName(l.TypeOf(index))
}

// StackGuard is a depth snapshot taken by Guard and checked by
// EndGuard.
type StackGuard struct {
	l   State
	top int32
}

// Guard snapshots the stack depth. Pair with a deferred EndGuard to
// assert a region is depth-neutral.
func (l State) Guard() StackGuard {
	return StackGuard{l: l, top: l.Top()}
}

// EndGuard panics when the depth moved since the snapshot.
func (g StackGuard) EndGuard() {
	if top := g.l.Top(); top != g.top {
		panic(fmt.Sprintf("lua: guarded region changed stack depth from %d to %d", g.top, top))
	}
}
