// Package notify carries engine events to whoever delivers notifications.
// Delivery itself (chat, mail, push) lives outside this module.
package notify

import (
	"log/slog"
	"reflect"
	"sync"
)

type subscriber struct {
	id int
	fn func(any)
}

// Bus is a synchronous typed pub/sub. Subscribers are keyed by event type.
type Bus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[reflect.Type][]subscriber
}

func NewBus() *Bus {
	return &Bus{subs: map[reflect.Type][]subscriber{}}
}

// Subscribe registers fn for events of type T and returns its cancel func.
func Subscribe[T any](b *Bus, fn func(T)) func() {
	key := reflect.TypeFor[T]()
	wrapped := func(v any) {
		if ev, ok := v.(T); ok {
			fn(ev)
		}
	}

	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs[key] = append(b.subs[key], subscriber{id: id, fn: wrapped})
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		ss := b.subs[key]
		for i, s := range ss {
			if s.id == id {
				b.subs[key] = append(ss[:i:i], ss[i+1:]...)
				return
			}
		}
	}
}

// Publish calls every subscriber of T in registration order. A panicking
// subscriber is logged and skipped.
func Publish[T any](b *Bus, ev T) {
	if b == nil {
		return
	}
	key := reflect.TypeFor[T]()
	b.mu.RLock()
	ss := append([]subscriber(nil), b.subs[key]...)
	b.mu.RUnlock()

	for _, s := range ss {
		func() {
			defer func() {
				if r := recover(); r != nil {
					slog.Error("notify: subscriber panic", "event", key.String(), "panic", r)
				}
			}()
			s.fn(ev)
		}()
	}
}
