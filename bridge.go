package gluabridge

import (
	"fmt"
	"path/filepath"
	"runtime"

	"go.uber.org/zap"

	"github.com/goobie/glua-bridge/lua"
	"github.com/goobie/glua-bridge/luashared"
	"github.com/goobie/glua-bridge/taskqueue"
)

// Open readies the bridge against a live VM state: resolves the
// lua_shared symbol table (unless a stub is already installed) and
// hooks the default queue's think checkpoint. Call it once from the
// module's open entry point, on the VM goroutine.
func Open(l lua.State) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("open bridge: %v", r)
		}
	}()

	t := luashared.Import()
	taskqueue.Load(l)
	luashared.Logger().Info("bridge opened", zap.String("library", t.Path))
	return nil
}

// Close shuts the bridge down: the default queue stops accepting work,
// drops anything still pending, and removes its think timer. Call it
// from the module's close entry point.
func Close(l lua.State) {
	taskqueue.Unload(l)
	luashared.Logger().Info("bridge closed")
}

// Defer schedules fn to run on the VM goroutine at the next think
// checkpoint. Safe from any goroutine; never blocks; returns before fn
// runs. The call site becomes the diagnostic context reported if fn
// later fails.
func Defer(fn func(lua.State)) {
	context := "deferred task"
	if _, file, line, ok := runtime.Caller(1); ok {
		context = fmt.Sprintf("%s:%d", filepath.Base(file), line)
	}
	taskqueue.Schedule(context, fn)
}
