// Package events provides the in-process publish/subscribe bus forms use to
// announce submissions and their outcomes. Listeners run synchronously in
// the order they subscribed, and any listener may claim an event so later
// listeners know it has already been handled.
package events

import (
	"context"
	"sync"
	"sync/atomic"
)

// Names of the events published by form controllers.
const (
	Submit        = "Formulate.submit"
	SubmitOK      = "Formulate.formSubmit.OK"
	SubmitFailed  = "Formulate.formSubmit.Failed"
	ButtonClicked = "Formulate.buttonClicked"
)

// Event is a single broadcast. Scope identifies the publisher so listeners
// can ignore broadcasts that did not originate from them.
type Event struct {
	Name    string
	Scope   string
	Payload any

	claimed atomic.Bool
}

// Claim marks the event as handled. Later listeners still receive it and
// decide for themselves whether to honour the claim.
func (e *Event) Claim() {
	e.claimed.Store(true)
}

// Claimed reports whether a listener has claimed the event.
func (e *Event) Claimed() bool {
	return e.claimed.Load()
}

// Listener handles a published event.
type Listener func(ctx context.Context, event *Event)

// Publisher is the narrow contract controllers depend on.
type Publisher interface {
	Publish(ctx context.Context, event *Event)
	Subscribe(name string, listener Listener) (unsubscribe func())
}

type subscription struct {
	id       uint64
	listener Listener
}

// Bus is a Publisher keyed by event name. The zero value is not usable; call
// NewBus.
type Bus struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[string][]subscription
}

var _ Publisher = (*Bus)(nil)

// NewBus constructs an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[string][]subscription)}
}

// Subscribe registers listener for name and returns a function removing it.
// The returned function is safe to call more than once.
func (b *Bus) Subscribe(name string, listener Listener) func() {
	if listener == nil {
		return func() {}
	}

	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs[name] = append(b.subs[name], subscription{id: id, listener: listener})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(name, id) })
	}
}

// Publish delivers event to every listener subscribed to its name, in
// subscription order. Listeners added or removed during delivery do not
// affect the current broadcast.
func (b *Bus) Publish(ctx context.Context, event *Event) {
	if event == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	b.mu.RLock()
	subs := append([]subscription(nil), b.subs[event.Name]...)
	b.mu.RUnlock()

	for _, sub := range subs {
		sub.listener(ctx, event)
	}
}

// Listeners reports how many listeners are registered for name.
func (b *Bus) Listeners(name string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[name])
}

func (b *Bus) remove(name string, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.subs[name]
	for i, sub := range subs {
		if sub.id != id {
			continue
		}
		b.subs[name] = append(subs[:i:i], subs[i+1:]...)
		break
	}
	if len(b.subs[name]) == 0 {
		delete(b.subs, name)
	}
}
