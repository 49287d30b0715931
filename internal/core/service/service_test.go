package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type mockUpstream struct {
	mock.Mock
}

func (m *mockUpstream) GetReviews(ctx context.Context) ([]domain.Review, error) {
	args := m.Called(ctx)
	v, _ := args.Get(0).([]domain.Review)
	return v, args.Error(1)
}

func (m *mockUpstream) GetProducts(
	ctx context.Context, page, pageSize int,
) (domain.ProductsPage, error) {
	args := m.Called(ctx, page, pageSize)
	return args.Get(0).(domain.ProductsPage), args.Error(1)
}

func (m *mockUpstream) Forward(
	ctx context.Context, method, endpoint string, body []byte, ttl time.Duration,
) ([]byte, error) {
	args := m.Called(ctx, method, endpoint, body, ttl)
	v, _ := args.Get(0).([]byte)
	return v, args.Error(1)
}

func (m *mockUpstream) HealthCheck(ctx context.Context) bool {
	return m.Called(ctx).Bool(0)
}

type mockProducer struct {
	mock.Mock
}

func (m *mockProducer) ProduceOrderLines(
	ctx context.Context, lines []domain.OrderLine,
) error {
	return m.Called(ctx, lines).Error(0)
}

type mockDemand struct {
	mock.Mock
}

func (m *mockDemand) ProductDemand(
	ctx context.Context, id int,
) (domain.ProductDemand, bool, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.ProductDemand), args.Bool(1), args.Error(2)
}

func TestReviews(t *testing.T) {
	ctx := context.Background()

	t.Run("ForwardsWithCacheTTL", func(t *testing.T) {
		up := new(mockUpstream)
		up.On("Forward", mock.Anything, "GET", "/reviews", []byte(nil), time.Minute).
			Return([]byte(`[{"id":1,"text":"ok"}]`), nil).Once()

		s := service.New(up, service.CacheTTLOpt(time.Minute))
		data, err := s.Reviews(ctx)
		require.NoError(t, err)
		assert.JSONEq(t, `[{"id":1,"text":"ok"}]`, string(data))
		up.AssertExpectations(t)
	})

	t.Run("Error", func(t *testing.T) {
		up := new(mockUpstream)
		up.On("Forward", mock.Anything, "GET", "/reviews", mock.Anything, mock.Anything).
			Return(nil, errors.New("down")).Once()

		_, err := service.New(up).Reviews(ctx)
		assert.Error(t, err)
	})
}

func TestProducts(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		page     string
		pageSize string
		endpoint string
	}{
		{"Verbatim", "3", "15", "/products?page=3&page_size=15"},
		{"Defaults", "", "", "/products?page=1&page_size=20"},
		{"Escaped", "1&x=2", "6", "/products?page=1%26x%3D2&page_size=6"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			up := new(mockUpstream)
			up.On("Forward", mock.Anything, "GET", tt.endpoint, []byte(nil), service.DefaultCacheTTL).
				Return([]byte(`{"page":1,"amount":0,"total":0,"items":[]}`), nil).Once()

			_, err := service.New(up).Products(ctx, tt.page, tt.pageSize)
			require.NoError(t, err)
			up.AssertExpectations(t)
		})
	}
}

func TestPlaceOrder(t *testing.T) {
	ctx := context.Background()
	body := []byte(`{"phone":"79000000001","cart":[{"id":1,"quantity":2},{"id":3,"quantity":1}]}`)
	createdAt := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("InvalidJSON", func(t *testing.T) {
		up := new(mockUpstream)
		_, err := service.New(up).PlaceOrder(ctx, []byte(`{"phone":`))
		assert.ErrorIs(t, err, domain.ErrInvalidJSON)
		up.AssertNotCalled(t, "Forward", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("AcceptedPublishesLines", func(t *testing.T) {
		up := new(mockUpstream)
		up.On("Forward", mock.Anything, "POST", "/order", body, time.Duration(0)).
			Return([]byte(`{"success":1}`), nil).Once()

		prod := new(mockProducer)
		prod.On("ProduceOrderLines", mock.Anything, mock.MatchedBy(func(ls []domain.OrderLine) bool {
			return len(ls) == 2 &&
				ls[0].ProductID == 1 && ls[0].Quantity == 2 &&
				ls[1].ProductID == 3 && ls[1].Quantity == 1 &&
				ls[0].OrderID == ls[1].OrderID &&
				ls[0].EventID != ls[1].EventID &&
				ls[0].Phone == "79000000001" &&
				ls[0].CreatedAt.Equal(createdAt)
		})).Return(nil).Once()

		s := service.New(up,
			service.BrokerOpt(prod, nil, nil),
			service.ClockOpt(func() time.Time { return createdAt }),
		)
		data, err := s.PlaceOrder(ctx, body)
		require.NoError(t, err)
		assert.JSONEq(t, `{"success":1}`, string(data))
		up.AssertExpectations(t)
		prod.AssertExpectations(t)
	})

	t.Run("RejectedPassesThrough", func(t *testing.T) {
		up := new(mockUpstream)
		up.On("Forward", mock.Anything, "POST", "/order", mock.Anything, mock.Anything).
			Return([]byte(`{"success":0,"error":"отсутствуют товары"}`), nil).Once()
		prod := new(mockProducer)

		s := service.New(up, service.BrokerOpt(prod, nil, nil))
		data, err := s.PlaceOrder(ctx, []byte(`{"phone":"79000000001","cart":[]}`))
		require.NoError(t, err)
		assert.JSONEq(t, `{"success":0,"error":"отсутствуют товары"}`, string(data))
		prod.AssertNotCalled(t, "ProduceOrderLines", mock.Anything, mock.Anything)
	})

	t.Run("PublishFailureIsNotFatal", func(t *testing.T) {
		up := new(mockUpstream)
		up.On("Forward", mock.Anything, "POST", "/order", mock.Anything, mock.Anything).
			Return([]byte(`{"success":1}`), nil).Once()
		prod := new(mockProducer)
		prod.On("ProduceOrderLines", mock.Anything, mock.Anything).
			Return(errors.New("broker down")).Once()

		s := service.New(up, service.BrokerOpt(prod, nil, nil))
		data, err := s.PlaceOrder(ctx, body)
		require.NoError(t, err)
		assert.JSONEq(t, `{"success":1}`, string(data))
	})

	t.Run("UpstreamError", func(t *testing.T) {
		up := new(mockUpstream)
		up.On("Forward", mock.Anything, "POST", "/order", mock.Anything, mock.Anything).
			Return(nil, errors.New("timeout")).Once()

		_, err := service.New(up).PlaceOrder(ctx, body)
		assert.Error(t, err)
		assert.NotErrorIs(t, err, domain.ErrInvalidJSON)
	})
}

func TestHome(t *testing.T) {
	ctx := context.Background()

	t.Run("Loaded", func(t *testing.T) {
		up := new(mockUpstream)
		up.On("GetReviews", mock.Anything).Return([]domain.Review{
			{ID: 1, Text: `<p onclick="steal()">Хорошо</p><script>alert(1)</script>`},
			{ID: 2, Text: `<a href="javascript:alert(1)">ссылка</a>`},
		}, nil).Once()
		up.On("GetProducts", mock.Anything, 1, 6).Return(domain.ProductsPage{
			Page: 1, Amount: 1, Total: 40, Items: []domain.Product{{ID: 9, Price: 10}},
		}, nil).Once()

		home := service.New(up).Home(ctx)
		require.Len(t, home.Reviews, 2)
		assert.Equal(t, "<p>Хорошо</p>", home.Reviews[0].Text)
		assert.NotContains(t, home.Reviews[1].Text, "javascript:")
		assert.Contains(t, home.Reviews[1].Text, "ссылка")
		assert.Equal(t, 40, home.Total)
		assert.Equal(t, []domain.Product{{ID: 9, Price: 10}}, home.Products)
		up.AssertExpectations(t)
	})

	t.Run("Fallbacks", func(t *testing.T) {
		up := new(mockUpstream)
		up.On("GetReviews", mock.Anything).Return(nil, errors.New("down")).Once()
		up.On("GetProducts", mock.Anything, 1, 6).
			Return(domain.ProductsPage{}, errors.New("down")).Once()

		home := service.New(up).Home(ctx)
		assert.Len(t, home.Reviews, 2)
		assert.Len(t, home.Products, 6)
		assert.Equal(t, 6, home.Total)
		assert.Equal(t, 12150, home.Products[0].Price)
	})

	t.Run("HomePageSizeOpt", func(t *testing.T) {
		up := new(mockUpstream)
		up.On("GetReviews", mock.Anything).Return([]domain.Review{}, nil).Once()
		up.On("GetProducts", mock.Anything, 1, 9).Return(domain.ProductsPage{}, nil).Once()

		service.New(up, service.HomePageSizeOpt(9)).Home(ctx)
		up.AssertExpectations(t)
	})
}

func TestHealthy(t *testing.T) {
	up := new(mockUpstream)
	up.On("HealthCheck", mock.Anything).Return(true).Once()
	up.On("HealthCheck", mock.Anything).Return(false).Once()

	s := service.New(up)
	assert.True(t, s.Healthy(context.Background()))
	assert.False(t, s.Healthy(context.Background()))
}

func TestDemand(t *testing.T) {
	ctx := context.Background()

	t.Run("Disabled", func(t *testing.T) {
		_, err := service.New(new(mockUpstream)).Demand(ctx, 1)
		assert.ErrorIs(t, err, domain.ErrUnavailable)
	})

	t.Run("Found", func(t *testing.T) {
		d := new(mockDemand)
		want := domain.ProductDemand{ProductID: 3, Quantity: 7, Lines: 2}
		d.On("ProductDemand", mock.Anything, 3).Return(want, true, nil).Once()

		got, err := service.New(new(mockUpstream), service.BrokerOpt(nil, d, nil)).Demand(ctx, 3)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("NotFound", func(t *testing.T) {
		d := new(mockDemand)
		d.On("ProductDemand", mock.Anything, 4).Return(domain.ProductDemand{}, false, nil).Once()

		_, err := service.New(new(mockUpstream), service.BrokerOpt(nil, d, nil)).Demand(ctx, 4)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("ViewError", func(t *testing.T) {
		d := new(mockDemand)
		d.On("ProductDemand", mock.Anything, 5).
			Return(domain.ProductDemand{}, false, errors.New("view not running")).Once()

		_, err := service.New(new(mockUpstream), service.BrokerOpt(nil, d, nil)).Demand(ctx, 5)
		assert.ErrorIs(t, err, domain.ErrUnavailable)
	})
}

type mockRunner struct {
	mock.Mock
}

func (m *mockRunner) Run(
	ctx context.Context, stopFn context.CancelFunc, wg *sync.WaitGroup,
) {
	m.Called(ctx, stopFn, wg)
	wg.Done()
}

func (m *mockRunner) Close() {
	m.Called()
}

func TestRunClose(t *testing.T) {
	proc, view := new(mockRunner), new(mockRunner)
	for _, r := range []*mockRunner{proc, view} {
		r.On("Run", mock.Anything, mock.Anything, mock.Anything).Once()
		r.On("Close").Once()
	}

	s := service.New(
		new(mockUpstream),
		service.BrokerOpt(new(mockProducer), nil, proc, nil, view),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s.Run(ctx, cancel)
	s.Close()

	proc.AssertExpectations(t)
	view.AssertExpectations(t)
}

func TestRunWithoutBroker(t *testing.T) {
	s := service.New(new(mockUpstream))
	assert.NotPanics(t, func() {
		s.Run(context.Background(), func() {})
		s.Close()
	})
}
