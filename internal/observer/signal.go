// Package observer implements synchronous publish/subscribe with explicit
// subscription tokens.
package observer

// Signal delivers values of type T to connected slots, in connection order.
// A Signal is not safe for concurrent use.
type Signal[T any] struct {
	slots  []*slot[T]
	nextID uint64
}

type slot[T any] struct {
	id   uint64
	fn   func(T)
	gone bool
}

// Subscription is the token returned by Connect.
type Subscription struct {
	cancel func()
}

// Cancel disconnects the slot. It is safe to call more than once and
// during emission.
func (s *Subscription) Cancel() {
	if s == nil || s.cancel == nil {
		return
	}
	s.cancel()
	s.cancel = nil
}

// Connect registers fn and returns its subscription.
func (s *Signal[T]) Connect(fn func(T)) *Subscription {
	s.nextID++
	sl := &slot[T]{id: s.nextID, fn: fn}
	s.slots = append(s.slots, sl)

	return &Subscription{cancel: func() {
		sl.gone = true
		for i, other := range s.slots {
			if other.id == sl.id {
				s.slots = append(s.slots[:i:i], s.slots[i+1:]...)
				return
			}
		}
	}}
}

// Emit calls every connected slot with v. Slots connected during emission
// are not called for this value; slots cancelled during emission are
// skipped if they have not run yet.
func (s *Signal[T]) Emit(v T) {
	snapshot := append([]*slot[T](nil), s.slots...)
	for _, sl := range snapshot {
		if sl.gone {
			continue
		}
		sl.fn(v)
	}
}

// Len returns the number of connected slots.
func (s *Signal[T]) Len() int {
	return len(s.slots)
}

// Subscriptions groups tokens so an owner can cancel them together.
type Subscriptions struct {
	subs []*Subscription
}

// Add tracks sub.
func (g *Subscriptions) Add(sub *Subscription) {
	g.subs = append(g.subs, sub)
}

// CancelAll cancels every tracked subscription.
func (g *Subscriptions) CancelAll() {
	for _, sub := range g.subs {
		sub.Cancel()
	}
	g.subs = nil
}
