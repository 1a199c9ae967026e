package taskqueue

import "github.com/goobie/glua-bridge/lua"

// The default queue is what the module loader hooks wire up; most code
// schedules through it and never constructs a Queue of its own.
var defaultQueue = New()

// Default returns the process-wide queue.
func Default() *Queue {
	return defaultQueue
}

// Schedule enqueues fn onto the default queue.
func Schedule(context string, fn Callback) {
	defaultQueue.Schedule(context, fn)
}

// Load activates the default queue against l.
func Load(l lua.State) {
	defaultQueue.Load(l)
}

// Unload closes the default queue.
func Unload(l lua.State) {
	defaultQueue.Unload(l)
}

// Len is the outstanding-entry count of the default queue.
func Len() int {
	return defaultQueue.Len()
}

// IsEmpty reports whether the default queue has no outstanding entries.
func IsEmpty() bool {
	return defaultQueue.IsEmpty()
}
