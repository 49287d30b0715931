// Package checkout validates and submits orders built from the saved cart.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/niksmo/storefront/internal/core/cart"
	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/phone"
	"github.com/niksmo/storefront/internal/core/port"
)

const (
	MsgPhoneInvalid = "Введите корректный номер телефона"
	MsgCartEmpty    = "Добавьте товары в корзину"
	MsgOrderFailed  = "Ошибка при оформлении заказа"
	MsgNetworkError = "Ошибка сети. Попробуйте позже."
	MsgOrderSuccess = "Заказ успешно оформлен!"
)

var ErrBusy = errors.New("order submission in progress")

type Status int

const (
	StatusIdle Status = iota
	StatusSubmitting
	StatusSuccess
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusSubmitting:
		return "submitting"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Session is the saved checkout input.
type Session interface {
	State(context.Context) domain.CartState
	Phone(context.Context) string
	Clear(context.Context) error
}

// A Result is the outcome of one submission.
//
// PhoneError marks a rejected phone field.
type Result struct {
	Status     Status
	Message    string
	PhoneError bool
}

// An Orchestrator runs at most one submission at a time.
type Orchestrator struct {
	orders  port.OrderCreator
	session Session

	mu   sync.Mutex
	busy bool
	last Result
}

func New(orders port.OrderCreator, session Session) *Orchestrator {
	return &Orchestrator{orders: orders, session: session}
}

// Last returns the outcome of the latest submission, or the submitting
// state while one is in flight.
func (o *Orchestrator) Last() Result {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.last
}

// Submit validates the saved phone and cart and creates the order.
// The cart and phone are cleared only on success.
//
// Application failures are reported in the Result; the only error is
// ErrBusy.
func (o *Orchestrator) Submit(ctx context.Context) (Result, error) {
	const op = "Orchestrator.Submit"
	log := slog.With("op", op)

	o.mu.Lock()
	if o.busy {
		o.mu.Unlock()
		return Result{}, fmt.Errorf("%s: %w", op, ErrBusy)
	}
	o.last = Result{}

	rawPhone := o.session.Phone(ctx)
	if !phone.Valid(rawPhone) {
		o.last = Result{Status: StatusError, Message: MsgPhoneInvalid, PhoneError: true}
		o.mu.Unlock()
		return o.last, nil
	}

	c := cart.New(o.session.State(ctx), nil)
	if c.IsEmpty() {
		o.last = Result{Status: StatusError, Message: MsgCartEmpty}
		o.mu.Unlock()
		return o.last, nil
	}

	o.busy = true
	o.last = Result{Status: StatusSubmitting}
	o.mu.Unlock()

	req := domain.OrderRequest{
		Phone: phone.Digits(rawPhone),
		Cart:  c.ItemsForOrder(),
	}
	res := o.send(ctx, req)

	if res.Status == StatusSuccess {
		if err := o.session.Clear(ctx); err != nil {
			log.Error("failed to clear cart after order", "err", err)
		}
	}

	o.mu.Lock()
	o.busy = false
	o.last = res
	o.mu.Unlock()

	log.Info("order submitted", "status", res.Status, "items", len(req.Cart))
	return res, nil
}

func (o *Orchestrator) send(ctx context.Context, req domain.OrderRequest) Result {
	const op = "Orchestrator.send"

	result, err := o.orders.CreateOrder(ctx, req)
	if err != nil {
		slog.Error("failed to create order", "op", op, "err", err)
		return Result{Status: StatusError, Message: MsgNetworkError}
	}
	if !result.OK() {
		msg := result.Error
		if msg == "" {
			msg = MsgOrderFailed
		}
		return Result{Status: StatusError, Message: msg}
	}
	return Result{Status: StatusSuccess, Message: MsgOrderSuccess}
}
