package cart

import (
	"context"
	"fmt"
	"maps"
	"sync"

	"github.com/niksmo/storefront/internal/adapter/kvstore"
	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
)

const (
	KeyCart  = "cart"
	KeyPhone = "phone"
)

// A Store persists the cart state and the phone field between sessions.
type Store struct {
	mu    sync.Mutex
	cart  kvstore.Value[domain.CartState]
	phone kvstore.Value[string]
}

func NewStore(kv port.KVStore) *Store {
	return &Store{
		cart:  kvstore.NewValue[domain.CartState](kv, KeyCart, nil),
		phone: kvstore.NewValue(kv, KeyPhone, ""),
	}
}

// State returns a copy of the stored cart, never nil.
func (s *Store) State(ctx context.Context) domain.CartState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

// SetQuantity stores qty for id. A quantity ≤ 0 removes the entry.
func (s *Store) SetQuantity(ctx context.Context, id, qty int) error {
	const op = "Store.SetQuantity"

	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.load(ctx)
	if qty <= 0 {
		delete(state, id)
	} else {
		state[id] = qty
	}

	if err := s.cart.Store(ctx, state); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Add changes the quantity of id by delta.
func (s *Store) Add(ctx context.Context, id, delta int) (int, error) {
	const op = "Store.Add"

	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.load(ctx)
	qty := max(state[id]+delta, 0)
	if qty == 0 {
		delete(state, id)
	} else {
		state[id] = qty
	}

	if err := s.cart.Store(ctx, state); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return qty, nil
}

func (s *Store) Phone(ctx context.Context) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phone.Load(ctx)
}

func (s *Store) SetPhone(ctx context.Context, phone string) error {
	const op = "Store.SetPhone"

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.phone.Store(ctx, phone); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Clear empties the cart and the phone.
func (s *Store) Clear(ctx context.Context) error {
	const op = "Store.Clear"

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.cart.Store(ctx, domain.CartState{}); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.phone.Store(ctx, ""); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *Store) load(ctx context.Context) domain.CartState {
	state := maps.Clone(s.cart.Load(ctx))
	if state == nil {
		state = make(domain.CartState)
	}
	return state
}
