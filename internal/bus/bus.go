// Package bus is a single-slot, latest-wins notification mechanism. Each
// publish replaces the previous current value; subscribers that are slow to
// react simply observe the freshest value. There is no buffering: this
// mirrors display semantics where only the newest state matters.
package bus

import "sync"

type Bus[T any] struct {
	mu     sync.Mutex
	latest T
	valid  bool
	subs   []func(T)
}

func New[T any]() *Bus[T] {
	return &Bus[T]{}
}

// Publish replaces the current value and notifies subscribers in order.
func (b *Bus[T]) Publish(v T) {
	b.mu.Lock()
	b.latest = v
	b.valid = true
	subs := make([]func(T), len(b.subs))
	copy(subs, b.subs)
	b.mu.Unlock()

	for _, fn := range subs {
		fn(v)
	}
}

// Subscribe registers a callback. If a value has already been published the
// callback immediately observes the current one.
func (b *Bus[T]) Subscribe(fn func(T)) {
	b.mu.Lock()
	b.subs = append(b.subs, fn)
	v, valid := b.latest, b.valid
	b.mu.Unlock()

	if valid {
		fn(v)
	}
}

// Latest returns the current value, if any has been published.
func (b *Bus[T]) Latest() (T, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.latest, b.valid
}
