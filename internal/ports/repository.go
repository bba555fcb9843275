package ports

import (
	"context"

	"github.com/bali7319/marketplace-core/internal/domain"
)

// ConnectionRepository persists marketplace connections. GetByProvider
// returns nil (not an error) when no connection exists.
type ConnectionRepository interface {
	List(ctx context.Context) ([]*domain.Connection, error)
	Get(ctx context.Context, id string) (*domain.Connection, error)
	GetByProvider(ctx context.Context, provider domain.Provider) (*domain.Connection, error)
	Create(ctx context.Context, conn *domain.Connection) error
	Update(ctx context.Context, conn *domain.Connection) error
	Delete(ctx context.Context, id string) error
}

// CatalogRepository persists the mirrored product and order sets.
// The replace operations substitute a connection's full set atomically
// with respect to readers; callers serialize them per connection.
type CatalogRepository interface {
	ReplaceProductsForConnection(ctx context.Context, connectionID string, products []*domain.Product) error
	ReplaceOrdersForConnection(ctx context.Context, connectionID string, orders []*domain.Order) error
	ListProducts(ctx context.Context, q domain.CatalogQuery) ([]*domain.Product, error)
	ListOrders(ctx context.Context, q domain.CatalogQuery) ([]*domain.Order, error)
}
