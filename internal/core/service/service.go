package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultCacheTTL     = 5 * time.Minute
	DefaultPage         = "1"
	DefaultPageSize     = "20"
	DefaultHomePageSize = 6
)

var (
	_ port.ReviewsProvider  = (*Service)(nil)
	_ port.ProductsProvider = (*Service)(nil)
	_ port.OrderPlacer      = (*Service)(nil)
	_ port.HomeLoader       = (*Service)(nil)
	_ port.HealthChecker    = (*Service)(nil)
	_ port.DemandProvider   = (*Service)(nil)
)

type Opt func(*Service)

func CacheTTLOpt(ttl time.Duration) Opt {
	return func(s *Service) {
		s.cacheTTL = ttl
	}
}

func HomePageSizeOpt(n int) Opt {
	return func(s *Service) {
		if n > 0 {
			s.homePageSize = n
		}
	}
}

// BrokerOpt enables order-line events and demand lookups. Runners are
// started by Run and closed by Close; nil entries are skipped.
func BrokerOpt(
	producer port.OrderLinesProducer,
	reader port.ProductDemandReader,
	runners ...port.BackgroundRunner,
) Opt {
	return func(s *Service) {
		s.orderLines = producer
		s.demand = reader
		for _, r := range runners {
			if r != nil {
				s.runners = append(s.runners, r)
			}
		}
	}
}

func ClockOpt(now func() time.Time) Opt {
	return func(s *Service) {
		s.now = now
	}
}

type Service struct {
	upstream     port.Upstream
	orderLines   port.OrderLinesProducer
	demand       port.ProductDemandReader
	runners      []port.BackgroundRunner
	policy       *bluemonday.Policy
	cacheTTL     time.Duration
	homePageSize int
	now          func() time.Time
}

func New(upstream port.Upstream, opts ...Opt) *Service {
	s := &Service{
		upstream:     upstream,
		policy:       bluemonday.UGCPolicy(),
		cacheTTL:     DefaultCacheTTL,
		homePageSize: DefaultHomePageSize,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run runs the broker components in separate goroutines.
//
// Blocks current goroutine while components is preparing to ready state.
func (s *Service) Run(ctx context.Context, stopFn context.CancelFunc) {
	var wg sync.WaitGroup
	wg.Add(len(s.runners))
	for _, r := range s.runners {
		go r.Run(ctx, stopFn, &wg)
	}
	wg.Wait()
}

func (s *Service) Close() {
	for _, r := range s.runners {
		r.Close()
	}
}

func (s *Service) Reviews(ctx context.Context) ([]byte, error) {
	const op = "Service.Reviews"

	data, err := s.upstream.Forward(
		ctx, http.MethodGet, "/reviews", nil, s.cacheTTL,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return data, nil
}

// Products forwards the raw query values. Empty values take the defaults.
func (s *Service) Products(
	ctx context.Context, page, pageSize string,
) ([]byte, error) {
	const op = "Service.Products"

	if page == "" {
		page = DefaultPage
	}
	if pageSize == "" {
		pageSize = DefaultPageSize
	}

	endpoint := fmt.Sprintf(
		"/products?page=%s&page_size=%s",
		url.QueryEscape(page), url.QueryEscape(pageSize),
	)
	data, err := s.upstream.Forward(ctx, http.MethodGet, endpoint, nil, s.cacheTTL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return data, nil
}

// PlaceOrder forwards the order body as is and returns the upstream answer.
//
// A rejected order is not an error. Accepted orders are published as order
// lines when the broker is enabled.
func (s *Service) PlaceOrder(ctx context.Context, body []byte) ([]byte, error) {
	const op = "Service.PlaceOrder"

	if !json.Valid(body) {
		return nil, fmt.Errorf("%s: %w", op, domain.ErrInvalidJSON)
	}

	data, err := s.upstream.Forward(ctx, http.MethodPost, "/order", body, 0)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var res domain.OrderResult
	if err := json.Unmarshal(data, &res); err == nil && res.OK() {
		s.publishOrder(ctx, body)
	}
	return data, nil
}

func (s *Service) publishOrder(ctx context.Context, body []byte) {
	const op = "Service.publishOrder"
	log := slog.With("op", op)

	if s.orderLines == nil {
		return
	}

	var req domain.OrderRequest
	if err := json.Unmarshal(body, &req); err != nil {
		log.Warn("order body is not publishable", "err", err)
		return
	}

	lines := s.orderLinesFrom(req)
	if len(lines) == 0 {
		return
	}

	if err := s.orderLines.ProduceOrderLines(ctx, lines); err != nil {
		log.Error("failed to publish order lines", "err", err)
		return
	}
	log.Info("order lines published", "orderID", lines[0].OrderID, "nLines", len(lines))
}

func (s *Service) orderLinesFrom(req domain.OrderRequest) []domain.OrderLine {
	orderID := uuid.NewString()
	createdAt := s.now()

	lines := make([]domain.OrderLine, 0, len(req.Cart))
	for _, item := range req.Cart {
		if item.Quantity <= 0 {
			continue
		}
		lines = append(lines, domain.OrderLine{
			EventID:   uuid.NewString(),
			OrderID:   orderID,
			ProductID: item.ID,
			Quantity:  item.Quantity,
			Phone:     req.Phone,
			CreatedAt: createdAt,
		})
	}
	return lines
}

// Home loads the first-page data. Each part falls back to built-in data.
func (s *Service) Home(ctx context.Context) domain.HomePage {
	const op = "Service.Home"
	log := slog.With("op", op)

	var (
		reviews []domain.Review
		page    domain.ProductsPage
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rs, err := s.upstream.GetReviews(gctx)
		if err != nil {
			log.Warn("using fallback reviews", "err", err)
			rs = domain.FallbackReviews()
		}
		reviews = rs
		return nil
	})
	g.Go(func() error {
		p, err := s.upstream.GetProducts(gctx, 1, s.homePageSize)
		if err != nil {
			log.Warn("using fallback products", "err", err)
			items := domain.FallbackProducts()
			p = domain.ProductsPage{
				Page: 1, Amount: len(items), Total: len(items), Items: items,
			}
		}
		page = p
		return nil
	})
	_ = g.Wait()

	for i := range reviews {
		reviews[i].Text = s.policy.Sanitize(reviews[i].Text)
	}

	return domain.HomePage{
		Reviews:  reviews,
		Products: page.Items,
		Total:    page.Total,
	}
}

func (s *Service) Healthy(ctx context.Context) bool {
	return s.upstream.HealthCheck(ctx)
}

func (s *Service) Demand(
	ctx context.Context, productID int,
) (domain.ProductDemand, error) {
	const op = "Service.Demand"

	if s.demand == nil {
		return domain.ProductDemand{}, fmt.Errorf("%s: %w", op, domain.ErrUnavailable)
	}

	d, ok, err := s.demand.ProductDemand(ctx, productID)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return domain.ProductDemand{}, fmt.Errorf("%s: %w", op, err)
		}
		return domain.ProductDemand{}, fmt.Errorf(
			"%s: %w: %w", op, domain.ErrUnavailable, err,
		)
	}
	if !ok {
		return domain.ProductDemand{}, fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}
	return d, nil
}
