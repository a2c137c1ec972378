// Package notify implements the ephemeral user-facing notification queue
// both stores push outcomes to. Entries are immutable once posted, ordered
// by insertion, and self-expire after a fixed delay unless dismissed first.
package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/taskwell/core/pkg/events"
)

// Severity classifies a notification for presentation.
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
	SeverityInfo    Severity = "info"
)

// DefaultTTL is how long an entry stays visible unless dismissed.
const DefaultTTL = 5 * time.Second

// Notification is a single queued message. It is never mutated after
// creation.
type Notification struct {
	ID        string
	Severity  Severity
	Message   string
	CreatedAt time.Time
}

// Options configures a Queue.
type Options struct {
	// TTL overrides DefaultTTL when positive.
	TTL time.Duration
	// StartTimer schedules fn to run after d. Defaults to time.AfterFunc;
	// tests inject a manual trigger to avoid sleeping.
	StartTimer func(d time.Duration, fn func())
	// Now supplies timestamps. Defaults to time.Now.
	Now func() time.Time
}

// Queue is the ordered notification queue. Multiple entries may be visible
// concurrently; this is not a single-slot toast.
type Queue struct {
	mu         sync.Mutex
	entries    []Notification
	ttl        time.Duration
	startTimer func(d time.Duration, fn func())
	now        func() time.Time
	changes    *events.Bus
}

// NewQueue creates a queue with the default TTL and wall-clock timers.
func NewQueue() *Queue {
	return NewQueueWithOptions(Options{})
}

// NewQueueWithOptions creates a queue with explicit timing hooks.
func NewQueueWithOptions(opts Options) *Queue {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	startTimer := opts.StartTimer
	if startTimer == nil {
		startTimer = func(d time.Duration, fn func()) { time.AfterFunc(d, fn) }
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Queue{
		ttl:        ttl,
		startTimer: startTimer,
		now:        now,
		changes:    events.NewBus(),
	}
}

// Post appends a uniquely-keyed entry and schedules its expiry. Returns the
// entry id so callers may dismiss it early.
func (q *Queue) Post(severity Severity, message string) string {
	entry := Notification{
		ID:        uuid.NewString(),
		Severity:  severity,
		Message:   message,
		CreatedAt: q.now(),
	}

	q.mu.Lock()
	q.entries = append(q.entries, entry)
	q.mu.Unlock()

	id := entry.ID
	q.startTimer(q.ttl, func() { q.Dismiss(id) })
	q.changes.Publish()
	return id
}

// Success posts a success notification.
func (q *Queue) Success(message string) string { return q.Post(SeveritySuccess, message) }

// Error posts an error notification.
func (q *Queue) Error(message string) string { return q.Post(SeverityError, message) }

// Info posts an info notification.
func (q *Queue) Info(message string) string { return q.Post(SeverityInfo, message) }

// Dismiss removes an entry immediately. Idempotent if already removed.
func (q *Queue) Dismiss(id string) {
	q.mu.Lock()
	removed := false
	for i, e := range q.entries {
		if e.ID == id {
			q.entries = append(q.entries[:i], q.entries[i+1:]...)
			removed = true
			break
		}
	}
	q.mu.Unlock()

	if removed {
		q.changes.Publish()
	}
}

// Notifications returns a snapshot of the visible entries in insertion
// order.
func (q *Queue) Notifications() []Notification {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]Notification, len(q.entries))
	copy(out, q.entries)
	return out
}

// Subscribe registers fn to run whenever the queue changes. Returns an
// unsubscribe function.
func (q *Queue) Subscribe(fn func()) func() {
	return q.changes.Subscribe(fn)
}
