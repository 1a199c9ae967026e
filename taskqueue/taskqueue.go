// Package taskqueue is the one sanctioned bridge from other goroutines
// onto the VM goroutine. The VM has no internal locking and exactly one
// logical execution context, so asynchronous work (timers, network
// completions, worker results) must not touch a State directly; it
// schedules a callback here and the VM picks it up at its own cadence
// through a registered think timer.
//
// A queue moves through three phases: created, Active after Load wires
// the timer, Closed after Unload. Scheduling outside Active is a silent
// no-op, matching the shutdown policy that late work is dropped rather
// than crashed on. Each drained callback runs inside its own protected
// call, so one failing task is reported through the non-halting error
// route and the rest of the batch still runs.
package taskqueue

import (
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/goobie/glua-bridge/lua"
	"github.com/goobie/glua-bridge/luashared"
)

// Callback is one unit of deferred VM-thread work.
type Callback func(l lua.State)

// Queue phases. Closed is terminal; a torn-down queue never reactivates.
const (
	phaseCreated int32 = iota
	phaseActive
	phaseClosed
)

// entry pairs a callback with the diagnostic context captured at
// schedule time, reported alongside any failure during execution.
type entry struct {
	fn      Callback
	context string
}

// Queue is a concurrent-safe deferred-callback queue: any number of
// producers, one consumer on the VM goroutine.
type Queue struct {
	phase int32 // atomic
	count int64 // atomic, outstanding entries

	mu      sync.Mutex
	entries []entry

	// Minted once per queue; the callback pool is process-wide and
	// never recycled.
	mintOnce sync.Once
	exec     lua.CFunc
	think    lua.CFunc
	current  *entry

	timerName string
}

// New returns an idle queue. Load activates it against a VM.
func New() *Queue {
	return &Queue{}
}

// mint creates the queue's two native callbacks: exec runs the current
// entry inside a protected frame, think is the timer body that drains.
// Deferred to Load so that building a Queue never touches the symbol
// table.
func (q *Queue) mint() {
	q.mintOnce.Do(func() {
		q.exec = lua.NewCFunc(func(l lua.State) int32 {
			q.current.fn(l)
			return 0
		})
		q.think = lua.NewCFunc(func(l lua.State) int32 {
			q.RunCallbacks(l)
			return 0
		})
	})
}

// Load activates the queue and registers its think timer with the
// host. The timer name carries a random suffix and the queue address so
// multiple loaded modules never collide. Idempotent while Active; a
// Closed queue stays closed.
func (q *Queue) Load(l lua.State) {
	if !atomic.CompareAndSwapInt32(&q.phase, phaseCreated, phaseActive) {
		luashared.Logger().Debug("task queue load skipped",
			zap.Int32("phase", atomic.LoadInt32(&q.phase)))
		return
	}
	q.mint()
	q.timerName = fmt.Sprintf("_GOOBIE_LUA_THINK_%s_%p", randomSuffix(10), q)

	l.GetGlobal("timer")
	l.GetField(-1, "Create")
	l.PushString(q.timerName)
	l.PushNumber(0)
	l.PushNumber(0)
	l.PushCFunc(q.think)
	l.PCallIgnore(4, 0)
	l.Pop()

	luashared.Logger().Debug("task queue loaded", zap.String("timer", q.timerName))
}

// Unload closes the queue and removes its timer. The phase flips before
// the timer goes, so a think tick racing the teardown drains nothing.
// Entries still queued are dropped.
func (q *Queue) Unload(l lua.State) {
	if atomic.SwapInt32(&q.phase, phaseClosed) != phaseActive {
		return
	}

	q.mu.Lock()
	dropped := len(q.entries)
	q.entries = nil
	q.mu.Unlock()
	atomic.AddInt64(&q.count, -int64(dropped))

	l.GetGlobal("timer")
	l.GetField(-1, "Remove")
	l.PushString(q.timerName)
	l.PCallIgnore(1, 0)
	l.Pop()

	luashared.Logger().Debug("task queue unloaded",
		zap.String("timer", q.timerName), zap.Int("dropped", dropped))
}

// Schedule enqueues fn to run on the VM goroutine at the next think
// tick. Safe from any goroutine, never blocks, returns before fn runs.
// context is free-form diagnostic text reported if fn later fails.
// Outside the Active phase the call is a silent no-op.
func (q *Queue) Schedule(context string, fn Callback) {
	if atomic.LoadInt32(&q.phase) != phaseActive {
		luashared.Logger().Debug("task dropped outside active phase",
			zap.String("context", context))
		return
	}
	q.mu.Lock()
	// Re-check under the lock so a racing Unload cannot strand an
	// entry behind its counter decrement.
	if atomic.LoadInt32(&q.phase) != phaseActive {
		q.mu.Unlock()
		return
	}
	q.entries = append(q.entries, entry{fn: fn, context: context})
	q.mu.Unlock()
	atomic.AddInt64(&q.count, 1)
}

// RunCallbacks drains the queue on the VM goroutine: the current batch
// runs to completion, entries scheduled while it runs wait for the next
// tick. Each callback executes inside its own protected call, so a
// failure is reported without stopping the batch. Must only be called
// from the VM goroutine; the think timer does exactly that.
func (q *Queue) RunCallbacks(l lua.State) {
	if atomic.LoadInt32(&q.phase) != phaseActive {
		return
	}
	if q.IsEmpty() {
		return
	}

	q.mu.Lock()
	batch := q.entries
	q.entries = nil
	q.mu.Unlock()

	for i := range batch {
		atomic.AddInt64(&q.count, -1)
		q.current = &batch[i]
		l.CPCallIgnore(q.exec, 0, batch[i].context)
	}
	q.current = nil
}

// Len is the point-in-time count of outstanding entries. Good for
// fast-path checks, not for correctness decisions: producers may be
// racing it.
func (q *Queue) Len() int {
	return int(atomic.LoadInt64(&q.count))
}

// IsEmpty reports Len() == 0 with the same best-effort semantics.
func (q *Queue) IsEmpty() bool {
	return q.Len() == 0
}

// Active reports whether the queue currently accepts work.
func (q *Queue) Active() bool {
	return atomic.LoadInt32(&q.phase) == phaseActive
}

var suffixRand = rand.New(rand.NewSource(time.Now().UnixNano()))

const alphanumeric = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

func randomSuffix(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = alphanumeric[suffixRand.Intn(len(alphanumeric))]
	}
	return string(b)
}
