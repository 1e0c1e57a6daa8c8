package notify

import (
	"context"
	"sync"
)

// Bus is the in-process Notifier. It backs single-process deployments and
// unit tests, and serves as the local fan-out stage for the Redis feed.
type Bus struct {
	mu     sync.Mutex
	nextID int
	subs   map[string]map[int]func()
}

func NewBus() *Bus {
	return &Bus{subs: make(map[string]map[int]func())}
}

func (b *Bus) Publish(_ context.Context, table string) error {
	b.dispatch(table)
	return nil
}

func (b *Bus) Subscribe(table string, fn func()) Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.subs[table] == nil {
		b.subs[table] = make(map[int]func())
	}
	id := b.nextID
	b.nextID++
	b.subs[table][id] = fn
	return &busSubscription{bus: b, table: table, id: id}
}

// dispatch invokes subscribers outside the lock so a callback that
// re-subscribes or publishes cannot deadlock.
func (b *Bus) dispatch(table string) {
	b.mu.Lock()
	callbacks := make([]func(), 0, len(b.subs[table]))
	for _, fn := range b.subs[table] {
		callbacks = append(callbacks, fn)
	}
	b.mu.Unlock()

	for _, fn := range callbacks {
		fn()
	}
}

type busSubscription struct {
	bus   *Bus
	table string
	id    int
	once  sync.Once
}

func (s *busSubscription) Unsubscribe() {
	s.once.Do(func() {
		s.bus.mu.Lock()
		defer s.bus.mu.Unlock()
		delete(s.bus.subs[s.table], s.id)
	})
}
