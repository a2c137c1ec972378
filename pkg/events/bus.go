// Package events provides the single-topic signal channel used to decouple
// the HTTP transport from the session state owner. The transport publishes
// when it observes an authorization failure; the session store subscribes
// and performs the actual invalidation. Neither side holds a reference to
// the other.
package events

import "sync"

// Bus is a synchronous single-topic publish/subscribe channel. Subscribers
// are invoked in subscription order on the publisher's goroutine.
type Bus struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]func()
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[int]func())}
}

// Subscribe registers fn and returns a function that removes the
// subscription. Unsubscribing twice is harmless.
func (b *Bus) Subscribe(fn func()) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	b.subs[id] = fn

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs, id)
	}
}

// Publish invokes every current subscriber. The subscriber set is copied
// under the lock so a handler may unsubscribe itself without deadlocking.
func (b *Bus) Publish() {
	b.mu.Lock()
	ids := make([]int, 0, len(b.subs))
	for id := range b.subs {
		ids = append(ids, id)
	}
	// Stable order keeps notification behavior deterministic.
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && ids[j] < ids[j-1]; j-- {
			ids[j], ids[j-1] = ids[j-1], ids[j]
		}
	}
	fns := make([]func(), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, b.subs[id])
	}
	b.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}
