package cartstore

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"fooddelivery-cart/internal/domain"
	"fooddelivery-cart/internal/session"
)

// Login persists userID as the acting user and loads their cart.
// A failed initial fetch is logged; the session is still established.
func (s *Store) Login(ctx context.Context, userID string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return fmt.Errorf("%w: user id is required", domain.ErrInvalidInput)
	}
	if err := s.sessions.Save(ctx, s.sessionKey, session.State{UserID: userID}); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	s.resetTo(userID)
	if err := s.FetchCart(ctx, FetchOptions{ForceUpdate: true}); err != nil {
		s.logger.Printf("initial fetch for %s failed: %v", userID, err)
	}
	return nil
}

// Logout forgets the acting user and drops the local cart.
func (s *Store) Logout(ctx context.Context) error {
	if err := s.sessions.Delete(ctx, s.sessionKey); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("delete session: %w", err)
	}
	s.resetTo("")
	return nil
}

// Restore loads the persisted user id. Items and pending adds always start
// empty. It reports whether a session was found.
func (s *Store) Restore(ctx context.Context) (bool, error) {
	st, err := s.sessions.Load(ctx, s.sessionKey)
	if errors.Is(err, domain.ErrNotFound) {
		s.resetTo("")
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load session: %w", err)
	}
	s.resetTo(st.UserID)
	return st.UserID != "", nil
}

func (s *Store) resetTo(userID string) {
	s.pending.Reset()
	s.metrics.PendingAdds(0)
	s.state.Update(func(st State) State {
		st.UserID = userID
		st.Items = nil
		return st
	})
}

// Summary groups the current lines by restaurant, in line order, with
// counts and amounts rounded to cents.
func (s *Store) Summary() domain.CartSummary {
	return Summarize(s.state.Get().Items)
}

// Summarize builds a CartSummary from lines.
func Summarize(lines []domain.CartLine) domain.CartSummary {
	out := domain.CartSummary{Restaurants: []domain.RestaurantSummary{}}
	index := make(map[string]int)
	for _, line := range lines {
		i, ok := index[line.RestaurantID]
		if !ok {
			i = len(out.Restaurants)
			index[line.RestaurantID] = i
			out.Restaurants = append(out.Restaurants, domain.RestaurantSummary{
				RestaurantID:   line.RestaurantID,
				RestaurantName: line.RestaurantName,
			})
		}
		r := &out.Restaurants[i]
		r.Lines = append(r.Lines, line)
		r.ItemCount += line.Quantity
		r.Subtotal += line.Total()
		out.TotalItems += line.Quantity
		out.TotalAmount += line.Total()
	}
	for i := range out.Restaurants {
		out.Restaurants[i].Subtotal = cents(out.Restaurants[i].Subtotal)
	}
	out.TotalAmount = cents(out.TotalAmount)
	return out
}

func cents(v float64) float64 {
	return math.Round(v*100) / 100
}
