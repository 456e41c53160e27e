// Package cartstore keeps a local view of a multi-restaurant cart in sync
// with the backend cart API. Mutations are applied optimistically and then
// reconciled with the backend's answer; adds that the backend does not show
// yet are protected for a trust window (see package reconcile).
package cartstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"fooddelivery-cart/internal/cartapi"
	"fooddelivery-cart/internal/cartparse"
	"fooddelivery-cart/internal/domain"
	"fooddelivery-cart/internal/linekey"
	"fooddelivery-cart/internal/metrics"
	"fooddelivery-cart/internal/reconcile"
	"fooddelivery-cart/internal/session"
	"github.com/go-playground/validator/v10"
)

// API is the subset of the cart REST client the store needs.
type API interface {
	GetCart(ctx context.Context, userID string) (cartparse.Envelope, error)
	AddItem(ctx context.Context, userID string, in cartapi.AddItemRequest) (cartparse.Envelope, error)
	UpdateQuantity(ctx context.Context, userID, restaurantID, productID string, quantity int, v cartapi.Variant) (cartparse.Envelope, error)
	RemoveItem(ctx context.Context, userID, restaurantID, productID string, v cartapi.Variant) (cartparse.Envelope, error)
	ClearRestaurant(ctx context.Context, userID, restaurantID string) (cartparse.Envelope, error)
	ClearCart(ctx context.Context, userID string) (cartparse.Envelope, error)
}

// Options tune a Store. Zero values get working defaults.
type Options struct {
	Sessions    session.Repository
	SessionKey  string
	TrustWindow time.Duration
	Notifier    Notifier
	Metrics     metrics.Recorder
	Logger      *log.Logger
	Now         func() time.Time
}

// Store orchestrates cart mutations against the backend.
type Store struct {
	api        API
	state      *Container
	pending    *reconcile.PendingSet
	sessions   session.Repository
	sessionKey string
	notifier   Notifier
	metrics    metrics.Recorder
	logger     *log.Logger
	now        func() time.Time
	validate   *validator.Validate
}

// New builds a Store over api and state.
func New(api API, state *Container, opts Options) *Store {
	if state == nil {
		state = NewContainer(State{})
	}
	if opts.Sessions == nil {
		opts.Sessions = session.NewMemory()
	}
	if opts.SessionKey == "" {
		opts.SessionKey = session.DefaultKey
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard, "", 0)
	}
	if opts.Notifier == nil {
		opts.Notifier = LogNotifier{Logger: opts.Logger}
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.Nop{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Store{
		api:        api,
		state:      state,
		pending:    reconcile.NewPendingSet(opts.TrustWindow),
		sessions:   opts.Sessions,
		sessionKey: opts.SessionKey,
		notifier:   opts.Notifier,
		metrics:    opts.Metrics,
		logger:     opts.Logger,
		now:        opts.Now,
		validate:   validator.New(),
	}
}

// State returns a copy of the current state.
func (s *Store) State() State {
	return s.state.Get()
}

// Subscribe streams state changes; see Container.Subscribe.
func (s *Store) Subscribe() (<-chan State, func()) {
	return s.state.Subscribe()
}

// PendingAdds returns how many optimistic adds are awaiting confirmation.
func (s *Store) PendingAdds() int {
	return s.pending.Len()
}

// AddItemInput describes a product being added with its selected variant.
type AddItemInput struct {
	ProductID      string  `json:"productId" validate:"required"`
	Name           string  `json:"name" validate:"required"`
	Price          float64 `json:"price" validate:"gte=0"`
	RestaurantID   string  `json:"restaurantId" validate:"required"`
	RestaurantName string  `json:"restaurantName"`
	CategoryID     string  `json:"categoryId"`
	CategoryName   string  `json:"categoryName"`
	SizeID         string  `json:"sizeId"`
	SizeName       string  `json:"sizeName"`
	Customizations string  `json:"customizations"`
	ImageURL       string  `json:"imageURL"`
	CartItemImage  string  `json:"cartItemImage"`
}

func (in AddItemInput) attrs() domain.VariantAttrs {
	image := strings.TrimSpace(in.CartItemImage)
	if image == "" {
		image = strings.TrimSpace(in.ImageURL)
	}
	return linekey.Normalize(domain.VariantAttrs{
		CategoryID:     in.CategoryID,
		CategoryName:   in.CategoryName,
		SizeID:         in.SizeID,
		SizeName:       in.SizeName,
		Customizations: in.Customizations,
		ImageURL:       image,
	})
}

// AddItem adds quantity units of a product variant. The line shows up
// immediately; a failed backend call removes it again.
func (s *Store) AddItem(ctx context.Context, in AddItemInput, quantity int) error {
	userID := s.state.Get().UserID
	if userID == "" {
		s.notifier.Notify(Notification{Level: LevelError, Message: "Please log in to add items to your cart"})
		return domain.ErrUnauthenticated
	}
	if err := s.validate.Struct(in); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	if quantity < 1 {
		return fmt.Errorf("%w: quantity must be positive", domain.ErrInvalidInput)
	}

	attrs := in.attrs()
	baseID := strings.TrimSpace(in.ProductID)
	line := domain.CartLine{
		LineID:         linekey.Encode(baseID, attrs),
		BaseProductID:  baseID,
		Name:           in.Name,
		UnitPrice:      in.Price,
		Quantity:       quantity,
		RestaurantID:   in.RestaurantID,
		RestaurantName: in.RestaurantName,
		CategoryID:     attrs.CategoryID,
		CategoryName:   attrs.CategoryName,
		SizeID:         attrs.SizeID,
		SizeName:       attrs.SizeName,
		Customizations: attrs.Customizations,
		ImageURL:       attrs.ImageURL,
	}
	key := line.Key()
	p := addPatch(line)

	s.pending.Put(key, s.now())
	s.metrics.PendingAdds(s.pending.Len())
	s.state.Update(func(st State) State {
		st.Items = p.apply(st.Items)
		st.AddsInFlight++
		return st
	})
	defer s.state.Update(func(st State) State {
		st.AddsInFlight--
		return st
	})

	env, err := s.api.AddItem(ctx, userID, cartapi.AddItemRequest{
		Restaurant: cartapi.Restaurant{RestaurantID: in.RestaurantID, RestaurantName: in.RestaurantName},
		Item: cartapi.Item{
			ProductID:      line.LineID,
			ProductName:    line.Name,
			Price:          line.UnitPrice,
			Quantity:       quantity,
			Customizations: attrs.Customizations,
			CartItemImage:  strings.TrimSpace(in.CartItemImage),
			ImageURL:       attrs.ImageURL,
			SizeID:         attrs.SizeID,
			SizeName:       attrs.SizeName,
			CategoryID:     attrs.CategoryID,
			CategoryName:   attrs.CategoryName,
		},
	})
	if err != nil {
		s.state.Update(func(st State) State {
			st.Items = p.undo(st.Items)
			return st
		})
		s.pending.Delete(key)
		s.metrics.PendingAdds(s.pending.Len())
		s.metrics.Operation("add", "reverted")
		s.logger.Printf("add item %s failed: %v", line.LineID, err)
		s.notifier.Notify(Notification{Level: LevelError, Message: "Could not add " + line.Name + " to your cart"})
		return fmt.Errorf("%w: add item: %w", domain.ErrMutationFailed, err)
	}

	if lines, ok := cartparse.Lines(env); ok && len(lines) > 0 {
		s.replaceFromBackend(lines)
	} else if !s.refetch(ctx, userID) {
		s.logger.Printf("add item %s: keeping optimistic state, backend cart not readable", line.LineID)
	}
	s.metrics.Operation("add", "confirmed")
	s.notifier.Notify(Notification{Level: LevelSuccess, Message: line.Name + " added to cart"})
	return nil
}

// UpdateQuantity sets the quantity of a line. Zero or less removes it.
func (s *Store) UpdateQuantity(ctx context.Context, lineID, restaurantID string, quantity int) error {
	if quantity <= 0 {
		return s.RemoveItem(ctx, lineID, restaurantID)
	}
	st := s.state.Get()
	if st.UserID == "" {
		return domain.ErrUnauthenticated
	}

	key := domain.LineKey(restaurantID, lineID)
	previous := 0
	var current *domain.CartLine
	if i := indexOf(st.Items, key); i >= 0 {
		current = &st.Items[i]
		previous = current.Quantity
	}
	p := quantityPatch(key, quantity, previous)

	s.state.Update(func(st State) State {
		st.Items = p.apply(st.Items)
		st.UpdatesInFlight++
		return st
	})
	defer s.doneUpdating()

	env, err := s.api.UpdateQuantity(ctx, st.UserID, restaurantID, lineID, quantity, variantOf(lineID, current))
	if err != nil {
		if previous > 0 {
			s.state.Update(func(st State) State {
				st.Items = p.undo(st.Items)
				return st
			})
		}
		s.metrics.Operation("update", "reverted")
		s.logger.Printf("update quantity %s failed: %v", lineID, err)
		s.notifier.Notify(Notification{Level: LevelError, Message: "Could not update item quantity"})
		return fmt.Errorf("%w: update quantity: %w", domain.ErrMutationFailed, err)
	}

	if lines, ok := cartparse.Lines(env); ok {
		s.replaceFromBackend(lines)
	} else {
		s.refetch(ctx, st.UserID)
	}
	s.metrics.Operation("update", "confirmed")
	return nil
}

// RemoveItem deletes a line. The line is removed locally even when the
// backend call fails.
func (s *Store) RemoveItem(ctx context.Context, lineID, restaurantID string) error {
	st := s.state.Get()
	if st.UserID == "" {
		return domain.ErrUnauthenticated
	}
	key := domain.LineKey(restaurantID, lineID)
	var current *domain.CartLine
	if i := indexOf(st.Items, key); i >= 0 {
		current = &st.Items[i]
	}
	s.pending.Delete(key)
	s.beginUpdating()
	defer s.doneUpdating()

	drop := func(l domain.CartLine) bool { return l.Key() == key }
	env, err := s.api.RemoveItem(ctx, st.UserID, restaurantID, lineID, variantOf(lineID, current))
	s.settleDelete(ctx, st.UserID, "remove", env, err, drop)
	return nil
}

// ClearRestaurant deletes every line of one restaurant.
func (s *Store) ClearRestaurant(ctx context.Context, restaurantID string) error {
	userID := s.state.Get().UserID
	if userID == "" {
		return domain.ErrUnauthenticated
	}
	s.beginUpdating()
	defer s.doneUpdating()

	drop := func(l domain.CartLine) bool { return l.RestaurantID == restaurantID }
	s.dropPending(drop)
	env, err := s.api.ClearRestaurant(ctx, userID, restaurantID)
	s.settleDelete(ctx, userID, "clear_restaurant", env, err, drop)
	return nil
}

// ClearCart deletes every line. A successful call always leaves the cart empty.
func (s *Store) ClearCart(ctx context.Context) error {
	userID := s.state.Get().UserID
	if userID == "" {
		return domain.ErrUnauthenticated
	}
	s.beginUpdating()
	defer s.doneUpdating()

	s.pending.Reset()
	s.metrics.PendingAdds(0)
	if _, err := s.api.ClearCart(ctx, userID); err != nil {
		s.logger.Printf("clear cart failed, clearing locally: %v", err)
		s.metrics.Operation("clear_cart", "local_only")
	} else {
		s.metrics.Operation("clear_cart", "confirmed")
	}
	s.state.Update(func(st State) State {
		st.Items = nil
		return st
	})
	return nil
}

// settleDelete applies the outcome of a delete-style call. An empty envelope
// (null or absent data) means the backend cart is gone. A failure or an
// unreadable body still drops the matching lines locally; an unreadable body
// is followed by a fallback fetch.
func (s *Store) settleDelete(ctx context.Context, userID, op string, env cartparse.Envelope, err error, drop func(domain.CartLine) bool) {
	if err != nil {
		s.logger.Printf("%s failed, removing locally: %v", op, err)
		s.metrics.Operation(op, "local_only")
		s.state.Update(func(st State) State {
			st.Items = filterLines(st.Items, drop)
			return st
		})
		return
	}

	switch env.Kind {
	case cartparse.KindEmpty:
		s.pending.Reset()
		s.metrics.PendingAdds(0)
		s.state.Update(func(st State) State {
			st.Items = nil
			return st
		})
	case cartparse.KindCart:
		lines, _ := cartparse.Lines(env)
		s.state.Update(func(st State) State {
			st.Items = reconcile.Merge(lines, filterLines(st.Items, drop), s.pending, s.now())
			return st
		})
		s.metrics.PendingAdds(s.pending.Len())
	default:
		s.state.Update(func(st State) State {
			st.Items = filterLines(st.Items, drop)
			return st
		})
		if s.refetch(ctx, userID) {
			s.metrics.Operation(op, "refetched")
		} else {
			s.metrics.Operation(op, "local_only")
		}
		return
	}
	s.metrics.Operation(op, "confirmed")
}

// FetchOptions control FetchCart.
type FetchOptions struct {
	// ForceUpdate lets an empty or unreadable backend answer replace local lines.
	ForceUpdate bool
}

// FetchCart reads the backend cart and reconciles it with local lines.
//
// A missing cart is treated as empty. Outages and timeouts keep local state
// and return nil. Other failures are returned but never change local state.
func (s *Store) FetchCart(ctx context.Context, opts FetchOptions) error {
	userID := s.state.Get().UserID
	if userID == "" {
		return domain.ErrUnauthenticated
	}
	s.state.Update(func(st State) State {
		st.FetchesInFlight++
		return st
	})
	defer s.state.Update(func(st State) State {
		st.FetchesInFlight--
		return st
	})

	env, err := s.api.GetCart(ctx, userID)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrNotFound):
		env = cartparse.Envelope{Kind: cartparse.KindCart}
	case domain.IsTransient(err):
		s.logger.Printf("fetch cart: backend unavailable, keeping local state: %v", err)
		s.metrics.Operation("fetch", "transient")
		return nil
	default:
		s.logger.Printf("fetch cart failed: %v", err)
		s.metrics.Operation("fetch", "error")
		return fmt.Errorf("fetch cart: %w", err)
	}

	lines, _ := cartparse.Lines(env)
	if len(lines) > 0 {
		s.replaceFromBackend(lines)
		s.metrics.Operation("fetch", "applied")
		return nil
	}

	applied := false
	s.state.Update(func(st State) State {
		if opts.ForceUpdate || len(st.Items) == 0 {
			st.Items = reconcile.Merge(nil, st.Items, s.pending, s.now())
			applied = true
		}
		return st
	})
	s.metrics.PendingAdds(s.pending.Len())
	if applied {
		s.metrics.Operation("fetch", "applied_empty")
	} else {
		s.metrics.Operation("fetch", "kept_local")
	}
	return nil
}

// refetch re-reads the cart after a mutation response could not be used.
// It reports whether the backend answer was applied.
func (s *Store) refetch(ctx context.Context, userID string) bool {
	s.metrics.FallbackFetch()
	env, err := s.api.GetCart(ctx, userID)
	if err != nil {
		s.logger.Printf("fallback fetch failed: %v", err)
		return false
	}
	lines, ok := cartparse.Lines(env)
	if !ok {
		return false
	}
	s.replaceFromBackend(lines)
	return true
}

func (s *Store) replaceFromBackend(lines []domain.CartLine) {
	s.state.Update(func(st State) State {
		st.Items = reconcile.Merge(lines, st.Items, s.pending, s.now())
		return st
	})
	s.metrics.PendingAdds(s.pending.Len())
}

func (s *Store) dropPending(drop func(domain.CartLine) bool) {
	for _, line := range s.state.Get().Items {
		if drop(line) {
			s.pending.Delete(line.Key())
		}
	}
}

func (s *Store) beginUpdating() {
	s.state.Update(func(st State) State {
		st.UpdatesInFlight++
		return st
	})
}

func (s *Store) doneUpdating() {
	s.state.Update(func(st State) State {
		st.UpdatesInFlight--
		return st
	})
}

// variantOf builds the size/customization context of a line id. Fields of
// the local line win over the ones decoded from the id.
func variantOf(lineID string, current *domain.CartLine) cartapi.Variant {
	_, attrs := linekey.Decode(lineID)
	v := cartapi.Variant{SizeID: attrs.SizeID, Customizations: attrs.Customizations}
	if current != nil {
		if current.SizeID != "" {
			v.SizeID = current.SizeID
		}
		if current.Customizations != "" {
			v.Customizations = current.Customizations
		}
	}
	return v
}
