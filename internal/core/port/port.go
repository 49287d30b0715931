package port

import (
	"context"
	"sync"
	"time"

	"github.com/niksmo/storefront/internal/core/domain"
)

type (
	runnerContextWg interface {
		Run(context.Context, context.CancelFunc, *sync.WaitGroup)
	}

	closer interface {
		Close()
	}
)

// Outbound: upstream API.

type ReviewsFetcher interface {
	GetReviews(context.Context) ([]domain.Review, error)
}

type ProductsFetcher interface {
	GetProducts(ctx context.Context, page, pageSize int) (domain.ProductsPage, error)
}

type OrderCreator interface {
	CreateOrder(context.Context, domain.OrderRequest) (domain.OrderResult, error)
}

type Upstream interface {
	ReviewsFetcher
	ProductsFetcher
	Forward(
		ctx context.Context,
		method, endpoint string,
		body []byte,
		ttl time.Duration,
	) ([]byte, error)
	HealthCheck(context.Context) bool
}

// Outbound: broker.

type OrderLinesProducer interface {
	ProduceOrderLines(context.Context, []domain.OrderLine) error
}

type ProductDemandReader interface {
	ProductDemand(ctx context.Context, productID int) (domain.ProductDemand, bool, error)
}

type ProductDemandProcessor interface {
	runnerContextWg
	closer
}

type ProductDemandView interface {
	ProductDemandReader
	runnerContextWg
	closer
}

// A BackgroundRunner is a broker component started with the server.
type BackgroundRunner interface {
	runnerContextWg
	closer
}

// Outbound: client-side persistence.

type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Inbound: storefront service.

type ReviewsProvider interface {
	Reviews(context.Context) ([]byte, error)
}

type ProductsProvider interface {
	Products(ctx context.Context, page, pageSize string) ([]byte, error)
}

type OrderPlacer interface {
	PlaceOrder(ctx context.Context, body []byte) ([]byte, error)
}

type HomeLoader interface {
	Home(context.Context) domain.HomePage
}

type HealthChecker interface {
	Healthy(context.Context) bool
}

type DemandProvider interface {
	Demand(ctx context.Context, productID int) (domain.ProductDemand, error)
}
