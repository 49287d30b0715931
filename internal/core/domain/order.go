package domain

import "time"

// A CartState maps product id to the requested quantity.
//
// Zero quantity is the same as an absent entry.
type CartState map[int]int

type CartItem struct {
	ID       int `json:"id"`
	Quantity int `json:"quantity"`
}

type OrderRequest struct {
	Phone string     `json:"phone"`
	Cart  []CartItem `json:"cart"`
}

// An OrderResult is the upstream answer to an order submission.
//
// Success is 0 or 1 on the wire.
type OrderResult struct {
	Success int    `json:"success"`
	Error   string `json:"error,omitempty"`
}

func (r OrderResult) OK() bool {
	return r.Success == 1
}

type OrderLine struct {
	EventID   string
	OrderID   string
	ProductID int
	Quantity  int
	Phone     string
	CreatedAt time.Time
}
