// Package cart derives totals from the persisted cart state.
package cart

import (
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/niksmo/storefront/internal/core/domain"
)

// A Line is a cart entry with a positive quantity.
//
// Found is false when the product is not among the loaded products.
type Line struct {
	ID       int
	Quantity int
	Product  domain.Product
	Found    bool
}

func (l Line) Subtotal() int {
	if !l.Found {
		return 0
	}
	return l.Product.Price * l.Quantity
}

// A Cart is a read-only view over a cart state and the loaded products.
// Totals are computed on every call.
type Cart struct {
	state    domain.CartState
	products map[int]domain.Product
}

func New(state domain.CartState, products []domain.Product) Cart {
	m := make(map[int]domain.Product, len(products))
	for _, p := range products {
		m[p.ID] = p
	}
	return Cart{state: state, products: m}
}

// Items returns entries with quantity > 0 sorted by id.
func (c Cart) Items() []Line {
	ids := slices.Sorted(maps.Keys(c.state))
	lines := make([]Line, 0, len(ids))
	for _, id := range ids {
		qty := c.state[id]
		if qty <= 0 {
			continue
		}
		p, ok := c.products[id]
		lines = append(lines, Line{ID: id, Quantity: qty, Product: p, Found: ok})
	}
	return lines
}

// TotalPrice sums price × quantity. Unknown products contribute 0.
func (c Cart) TotalPrice() int {
	var total int
	for _, l := range c.Items() {
		total += l.Subtotal()
	}
	return total
}

func (c Cart) TotalItems() int {
	var total int
	for _, l := range c.Items() {
		total += l.Quantity
	}
	return total
}

func (c Cart) IsEmpty() bool {
	return len(c.Items()) == 0
}

func (c Cart) Quantity(id int) int {
	return max(c.state[id], 0)
}

// ItemsForOrder includes every positive entry, resolved or not.
func (c Cart) ItemsForOrder() []domain.CartItem {
	lines := c.Items()
	items := make([]domain.CartItem, len(lines))
	for i, l := range lines {
		items[i] = domain.CartItem{ID: l.ID, Quantity: l.Quantity}
	}
	return items
}

// FormatPrice renders a price in rubles with ru-RU digit grouping,
// e.g. 12150 as "12 150₽" with a no-break space.
func FormatPrice(price int) string {
	s := strconv.Itoa(price)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}

	var b strings.Builder
	b.WriteString(sign)
	for i, c := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteRune('\u00a0')
		}
		b.WriteRune(c)
	}
	b.WriteString("₽")
	return b.String()
}
