package ports

import (
	"context"

	"github.com/bali7319/marketplace-core/internal/domain"
)

// Adapter translates one provider's API into the shared DTO shape. Both
// list operations are idempotent reads; an adapter that lacks a
// capability returns domain.ErrCapabilityNotSupported.
type Adapter interface {
	Provider() domain.Provider
	TestConnection(ctx context.Context, creds domain.Credentials) error
	ListProducts(ctx context.Context, creds domain.Credentials) ([]domain.ProductUpsert, error)
	ListOrders(ctx context.Context, creds domain.Credentials) ([]domain.OrderUpsert, error)
}

// AdapterRegistry resolves the adapter for a provider.
type AdapterRegistry interface {
	Adapter(provider domain.Provider) (Adapter, error)
}
