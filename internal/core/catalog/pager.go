// Package catalog accumulates product pages as the catalog end scrolls into
// view.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
)

const (
	DefaultPageSize  = 6
	DefaultThreshold = 0.1
)

var ErrInvalidOption = errors.New("invalid option")

type pagerOpts struct {
	pageSize  int
	threshold float64
}

type PagerOpt func(*pagerOpts) error

func PageSizeOpt(n int) PagerOpt {
	return func(o *pagerOpts) error {
		if n <= 0 {
			return fmt.Errorf("%w: page size %d", ErrInvalidOption, n)
		}
		o.pageSize = n
		return nil
	}
}

// ThresholdOpt sets the visible ratio a trigger must exceed.
func ThresholdOpt(ratio float64) PagerOpt {
	return func(o *pagerOpts) error {
		if ratio < 0 || ratio >= 1 {
			return fmt.Errorf("%w: threshold %v", ErrInvalidOption, ratio)
		}
		o.threshold = ratio
		return nil
	}
}

// A State is a snapshot of the pager.
type State struct {
	Products []domain.Product
	Page     int
	Total    int
	HasMore  bool
	Loading  bool
}

// A Pager loads the next page on demand. At most one load runs at a time.
type Pager struct {
	fetcher   port.ProductsFetcher
	pageSize  int
	threshold float64

	mu       sync.Mutex
	products []domain.Product
	page     int
	total    int
	hasMore  bool
	loading  bool
}

// NewPager starts from the first page already shown.
func NewPager(
	fetcher port.ProductsFetcher, first []domain.Product, total int, opts ...PagerOpt,
) (*Pager, error) {
	const op = "catalog.NewPager"

	options := pagerOpts{pageSize: DefaultPageSize, threshold: DefaultThreshold}
	for _, opt := range opts {
		if err := opt(&options); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	return &Pager{
		fetcher:   fetcher,
		pageSize:  options.pageSize,
		threshold: options.threshold,
		products:  slices.Clone(first),
		page:      1,
		total:     total,
		hasMore:   len(first) < total,
	}, nil
}

func (p *Pager) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return State{
		Products: slices.Clone(p.products),
		Page:     p.page,
		Total:    p.total,
		HasMore:  p.hasMore,
		Loading:  p.loading,
	}
}

// OnVisible is the intersection callback of the end-of-list sentinel.
// It reports whether a page was appended. Failures are logged.
func (p *Pager) OnVisible(ctx context.Context, ratio float64) bool {
	const op = "Pager.OnVisible"

	if ratio <= p.threshold {
		return false
	}
	loaded, err := p.LoadMore(ctx)
	if err != nil {
		slog.Error("failed to load more products", "op", op, "err", err)
		return false
	}
	return loaded
}

// LoadMore fetches the next page unless a load is running or the catalog
// is exhausted. On failure the state is left unchanged.
func (p *Pager) LoadMore(ctx context.Context) (bool, error) {
	const op = "Pager.LoadMore"

	p.mu.Lock()
	if p.loading || !p.hasMore {
		p.mu.Unlock()
		return false, nil
	}
	p.loading = true
	next := p.page + 1
	p.mu.Unlock()

	res, err := p.fetcher.GetProducts(ctx, next, p.pageSize)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.loading = false

	if err != nil {
		return false, fmt.Errorf("%s: page %d: %w", op, next, err)
	}

	p.products = append(p.products, res.Items...)
	p.page = next
	p.total = res.Total
	p.hasMore = len(res.Items) > 0 && len(p.products) < res.Total

	slog.Debug(
		"page loaded",
		"op", op, "page", next, "items", len(res.Items),
		"loaded", len(p.products), "total", res.Total,
	)
	return true, nil
}
