package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/lovoo/goka"
	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
	"github.com/niksmo/storefront/pkg/schema"
)

var _ port.ProductDemandView = (*ProductDemandView)(nil)

// A ProductDemandView reads the demand processor group table.
type ProductDemandView struct {
	gv *goka.View
}

func NewProductDemandView(
	seedBrokers []string, group string, opts ...goka.ViewOption,
) (*ProductDemandView, error) {
	const op = "NewProductDemandView"

	opts = append([]goka.ViewOption{withNoLogViewOpt()}, opts...)
	gv, err := goka.NewView(
		seedBrokers,
		goka.GroupTable(goka.Group(group)),
		newDemandCodec(),
		opts...,
	)
	if err != nil {
		return nil, opErr(err, op)
	}
	return &ProductDemandView{gv}, nil
}

// Run starts the view in a separate goroutine and returns at once;
// lookups fail with ErrViewNotReady until the table is recovered.
func (v *ProductDemandView) Run(
	ctx context.Context, stopFn context.CancelFunc, wg *sync.WaitGroup,
) {
	defer wg.Done()
	go v.run(ctx, stopFn)
}

func (v *ProductDemandView) run(ctx context.Context, stopFn context.CancelFunc) {
	const op = "ProductDemandView.run"
	log := slog.With("op", op)

	defer stopFn()

	log.Info("running")
	if err := v.gv.Run(ctx); err != nil {
		log.Error("unexpected fail on run", "err", err)
		return
	}
	log.Info("stopped")
}

// Close is a no-op: the view stops with the context passed to Run.
func (v *ProductDemandView) Close() {
	slog.Info("view is closed", "op", "ProductDemandView.Close")
}

func (v *ProductDemandView) ProductDemand(
	ctx context.Context, productID int,
) (domain.ProductDemand, bool, error) {
	const op = "ProductDemandView.ProductDemand"

	if err := ctx.Err(); err != nil {
		return domain.ProductDemand{}, false, opErr(err, op)
	}
	if !v.gv.Recovered() {
		return domain.ProductDemand{}, false, opErr(ErrViewNotReady, op)
	}

	value, err := v.gv.Get(productKey(productID))
	if err != nil {
		return domain.ProductDemand{}, false, opErr(err, op)
	}
	if value == nil {
		return domain.ProductDemand{}, false, nil
	}

	s, ok := value.(schema.ProductDemandV1)
	if !ok {
		return domain.ProductDemand{}, false, opErr(
			fmt.Errorf("%w: %T", ErrInvalidValueType, value), op,
		)
	}
	return productDemandFromSchemaV1(s), true, nil
}
