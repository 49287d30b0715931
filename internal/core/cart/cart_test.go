package cart_test

import (
	"context"
	"testing"

	"github.com/niksmo/storefront/internal/adapter/kvstore"
	"github.com/niksmo/storefront/internal/core/cart"
	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var products = []domain.Product{
	{ID: 1, Title: "Товар 1", Price: 12150},
	{ID: 2, Title: "Товар 2", Price: 25300},
	{ID: 3, Title: "Товар 3", Price: 18900},
}

func TestCart(t *testing.T) {
	t.Run("Empty", func(t *testing.T) {
		c := cart.New(nil, products)
		assert.True(t, c.IsEmpty())
		assert.Zero(t, c.TotalPrice())
		assert.Zero(t, c.TotalItems())
		assert.Empty(t, c.ItemsForOrder())
	})

	t.Run("ZeroQuantitiesAreEmpty", func(t *testing.T) {
		c := cart.New(domain.CartState{1: 0, 2: 0}, products)
		assert.True(t, c.IsEmpty())
		assert.Empty(t, c.Items())
	})

	t.Run("Totals", func(t *testing.T) {
		c := cart.New(domain.CartState{1: 2, 3: 1, 2: 0}, products)
		assert.False(t, c.IsEmpty())
		assert.Equal(t, 2*12150+18900, c.TotalPrice())
		assert.Equal(t, 3, c.TotalItems())
	})

	t.Run("UnknownProductContributesZero", func(t *testing.T) {
		c := cart.New(domain.CartState{1: 1, 99: 4}, products)
		assert.Equal(t, 12150, c.TotalPrice())
		assert.Equal(t, 5, c.TotalItems())

		lines := c.Items()
		require.Len(t, lines, 2)
		assert.True(t, lines[0].Found)
		assert.False(t, lines[1].Found)
		assert.Zero(t, lines[1].Subtotal())
	})

	t.Run("ItemsSortedByID", func(t *testing.T) {
		c := cart.New(domain.CartState{3: 1, 1: 2, 2: 5}, products)
		var ids []int
		for _, l := range c.Items() {
			ids = append(ids, l.ID)
		}
		assert.Equal(t, []int{1, 2, 3}, ids)
	})

	t.Run("ItemsForOrderKeepsUnknownProducts", func(t *testing.T) {
		c := cart.New(domain.CartState{2: 1, 99: 3, 1: 0}, products)
		assert.Equal(t, []domain.CartItem{
			{ID: 2, Quantity: 1},
			{ID: 99, Quantity: 3},
		}, c.ItemsForOrder())
	})

	t.Run("Quantity", func(t *testing.T) {
		c := cart.New(domain.CartState{1: 2}, products)
		assert.Equal(t, 2, c.Quantity(1))
		assert.Zero(t, c.Quantity(2))
	})

	t.Run("TotalsFollowState", func(t *testing.T) {
		state := domain.CartState{1: 1}
		c := cart.New(state, products)
		assert.Equal(t, 12150, c.TotalPrice())
		state[2] = 1
		assert.Equal(t, 12150+25300, c.TotalPrice())
	})
}

func TestFormatPrice(t *testing.T) {
	assert.Equal(t, "0₽", cart.FormatPrice(0))
	assert.Equal(t, "950₽", cart.FormatPrice(950))
	assert.Equal(t, "12\u00a0150₽", cart.FormatPrice(12150))
	assert.Equal(t, "1\u00a0234\u00a0567₽", cart.FormatPrice(1234567))
	assert.Equal(t, "-1\u00a0000₽", cart.FormatPrice(-1000))
}

func TestStore(t *testing.T) {
	ctx := context.Background()

	t.Run("EmptyByDefault", func(t *testing.T) {
		s := cart.NewStore(kvstore.NewMemory())
		assert.Equal(t, domain.CartState{}, s.State(ctx))
		assert.Equal(t, "", s.Phone(ctx))
	})

	t.Run("SetQuantity", func(t *testing.T) {
		kv := kvstore.NewMemory()
		s := cart.NewStore(kv)
		require.NoError(t, s.SetQuantity(ctx, 1, 2))
		require.NoError(t, s.SetQuantity(ctx, 5, 1))
		assert.Equal(t, domain.CartState{1: 2, 5: 1}, s.State(ctx))

		raw, ok, err := kv.Get(ctx, cart.KeyCart)
		require.NoError(t, err)
		require.True(t, ok)
		assert.JSONEq(t, `{"1":2,"5":1}`, string(raw))
	})

	t.Run("NonPositiveQuantityRemoves", func(t *testing.T) {
		s := cart.NewStore(kvstore.NewMemory())
		require.NoError(t, s.SetQuantity(ctx, 1, 2))
		require.NoError(t, s.SetQuantity(ctx, 2, 1))
		require.NoError(t, s.SetQuantity(ctx, 1, 0))
		require.NoError(t, s.SetQuantity(ctx, 2, -3))
		assert.Equal(t, domain.CartState{}, s.State(ctx))
	})

	t.Run("Add", func(t *testing.T) {
		s := cart.NewStore(kvstore.NewMemory())
		qty, err := s.Add(ctx, 3, 1)
		require.NoError(t, err)
		assert.Equal(t, 1, qty)

		qty, err = s.Add(ctx, 3, 2)
		require.NoError(t, err)
		assert.Equal(t, 3, qty)

		qty, err = s.Add(ctx, 3, -5)
		require.NoError(t, err)
		assert.Zero(t, qty)
		assert.Equal(t, domain.CartState{}, s.State(ctx))
	})

	t.Run("SurvivesReopen", func(t *testing.T) {
		kv := kvstore.NewMemory()
		require.NoError(t, cart.NewStore(kv).SetQuantity(ctx, 4, 2))
		require.NoError(t, cart.NewStore(kv).SetPhone(ctx, "+7 (912"))

		s := cart.NewStore(kv)
		assert.Equal(t, domain.CartState{4: 2}, s.State(ctx))
		assert.Equal(t, "+7 (912", s.Phone(ctx))
	})

	t.Run("CorruptCartIsEmpty", func(t *testing.T) {
		kv := kvstore.NewMemory()
		require.NoError(t, kv.Set(ctx, cart.KeyCart, []byte("oops")))
		s := cart.NewStore(kv)
		assert.Equal(t, domain.CartState{}, s.State(ctx))
		require.NoError(t, s.SetQuantity(ctx, 1, 1))
		assert.Equal(t, domain.CartState{1: 1}, s.State(ctx))
	})

	t.Run("Clear", func(t *testing.T) {
		s := cart.NewStore(kvstore.NewMemory())
		require.NoError(t, s.SetQuantity(ctx, 1, 2))
		require.NoError(t, s.SetPhone(ctx, "+7 (912) 345-67-89"))
		require.NoError(t, s.Clear(ctx))
		assert.Equal(t, domain.CartState{}, s.State(ctx))
		assert.Equal(t, "", s.Phone(ctx))
	})
}
