// Package watch provides an in-process live-query feed: subscribers receive
// the latest snapshot of a result set whenever it is republished. Delivery is
// last-snapshot-wins — a slow consumer never sees a stale backlog, only the
// newest state.
package watch

import "sync"

// Feed fans snapshots of T out to subscribers.
type Feed[T any] struct {
	mu     sync.Mutex
	subs   map[*Subscription[T]]struct{}
	last   T
	hasVal bool
	closed bool
}

// Subscription is one consumer's view of a feed.
type Subscription[T any] struct {
	feed *Feed[T]
	ch   chan T
}

// NewFeed creates an empty feed.
func NewFeed[T any]() *Feed[T] {
	return &Feed[T]{subs: make(map[*Subscription[T]]struct{})}
}

// Subscribe registers a consumer. If the feed has already published, the
// current snapshot is delivered immediately.
func (f *Feed[T]) Subscribe() *Subscription[T] {
	sub := &Subscription[T]{feed: f, ch: make(chan T, 1)}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		close(sub.ch)
		return sub
	}
	f.subs[sub] = struct{}{}
	if f.hasVal {
		sub.ch <- f.last
	}
	return sub
}

// Publish replaces the current snapshot and notifies all subscribers. A
// subscriber that has not consumed the previous snapshot gets only this one.
func (f *Feed[T]) Publish(snapshot T) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}

	f.last = snapshot
	f.hasVal = true

	for sub := range f.subs {
		// Drop the undelivered snapshot, if any, then queue the new one.
		select {
		case <-sub.ch:
		default:
		}
		sub.ch <- snapshot
	}
}

// Close terminates the feed and all subscriptions.
func (f *Feed[T]) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.closed = true
	for sub := range f.subs {
		close(sub.ch)
	}
	f.subs = nil
}

// C returns the snapshot channel. It is closed when the subscription is
// canceled or the feed closes.
func (s *Subscription[T]) C() <-chan T { return s.ch }

// Cancel removes the subscription from its feed.
func (s *Subscription[T]) Cancel() {
	f := s.feed
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	if _, ok := f.subs[s]; ok {
		delete(f.subs, s)
		close(s.ch)
	}
}
