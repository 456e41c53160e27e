// Package session persists the only client state that survives a reload:
// the acting user's id. Cart contents are always rebuilt from the network.
package session

import "context"

// DefaultKey is the persistence key the cart session is stored under.
const DefaultKey = "cart-storage"

// State is the persisted part of the cart store.
type State struct {
	UserID string `json:"userId"`
}

// Repository stores session state by persistence key. Load returns
// domain.ErrNotFound when nothing is stored under key.
type Repository interface {
	Load(ctx context.Context, key string) (State, error)
	Save(ctx context.Context, key string, state State) error
	Delete(ctx context.Context, key string) error
}
