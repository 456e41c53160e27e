package session

import (
	"context"
	"sync"

	"fooddelivery-cart/internal/domain"
)

type memoryRepo struct {
	mu     sync.RWMutex
	states map[string]State
}

// NewMemory returns a process-local Repository.
func NewMemory() Repository {
	return &memoryRepo{states: make(map[string]State)}
}

func (r *memoryRepo) Load(_ context.Context, key string) (State, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	st, ok := r.states[key]
	if !ok {
		return State{}, domain.ErrNotFound
	}
	return st, nil
}

func (r *memoryRepo) Save(_ context.Context, key string, state State) error {
	r.mu.Lock()
	r.states[key] = state
	r.mu.Unlock()
	return nil
}

func (r *memoryRepo) Delete(_ context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.states[key]; !ok {
		return domain.ErrNotFound
	}
	delete(r.states, key)
	return nil
}
