package cartstore

import (
	"sync"

	"fooddelivery-cart/internal/domain"
)

// State is the store's in-memory view. Only UserID is ever persisted.
type State struct {
	UserID          string            `json:"userId,omitempty"`
	Items           []domain.CartLine `json:"items"`
	AddsInFlight    int               `json:"-"`
	UpdatesInFlight int               `json:"-"`
	FetchesInFlight int               `json:"-"`
}

// Adding reports whether an add is in flight.
func (s State) Adding() bool { return s.AddsInFlight > 0 }

// Updating reports whether an update, remove or clear is in flight.
func (s State) Updating() bool { return s.UpdatesInFlight > 0 }

// Loading reports whether a fetch is in flight.
func (s State) Loading() bool { return s.FetchesInFlight > 0 }

func (s State) clone() State {
	out := s
	out.Items = append([]domain.CartLine(nil), s.Items...)
	return out
}

// Container holds one State behind a mutex and fans changes out to
// subscribers. Every read-modify-write goes through Update.
type Container struct {
	mu     sync.Mutex
	state  State
	subs   map[int]chan State
	nextID int
}

// NewContainer returns a container seeded with initial.
func NewContainer(initial State) *Container {
	return &Container{
		state: initial.clone(),
		subs:  make(map[int]chan State),
	}
}

// Get returns a copy of the current state.
func (c *Container) Get() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

// Set replaces the state.
func (c *Container) Set(s State) {
	c.Update(func(State) State { return s })
}

// Update applies fn atomically and returns the new state.
func (c *Container) Update(fn func(State) State) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = fn(c.state.clone()).clone()
	out := c.state.clone()
	for _, ch := range c.subs {
		publish(ch, out.clone())
	}
	return out
}

// Subscribe returns a channel receiving every new state. Slow receivers only
// see the latest state. cancel closes the channel.
func (c *Container) Subscribe() (<-chan State, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextID
	c.nextID++
	ch := make(chan State, 1)
	c.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subs, id)
			c.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// publish replaces any undelivered state with s. Callers hold c.mu, so
// there is a single sender per channel.
func publish(ch chan State, s State) {
	select {
	case ch <- s:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- s:
	default:
	}
}
