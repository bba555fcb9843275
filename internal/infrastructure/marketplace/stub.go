package marketplace

import (
	"context"
	"fmt"

	"github.com/bali7319/marketplace-core/internal/domain"
)

// StubAdapter covers the providers whose catalogs arrive only through
// the agent push path (hepsiburada, n11, pazarama). Credentials are
// stored and validated so an agent can fetch them, but this service
// never calls the provider's API itself.
type StubAdapter struct {
	provider domain.Provider
}

// NewStubAdapter creates a push-only adapter for provider.
func NewStubAdapter(provider domain.Provider) *StubAdapter {
	return &StubAdapter{provider: provider}
}

func (a *StubAdapter) Provider() domain.Provider { return a.provider }

// TestConnection only checks that the required credential fields are
// present. There is no direct API integration to probe.
func (a *StubAdapter) TestConnection(ctx context.Context, creds domain.Credentials) error {
	rest := creds.REST
	if rest == nil || rest.ConsumerKey == "" || rest.ConsumerSecret == "" {
		return fmt.Errorf("%w: %s requires consumerKey and consumerSecret", domain.ErrValidation, a.provider)
	}
	return nil
}

func (a *StubAdapter) ListProducts(ctx context.Context, creds domain.Credentials) ([]domain.ProductUpsert, error) {
	return nil, fmt.Errorf("%w: %s products are pushed by the agent", domain.ErrCapabilityNotSupported, a.provider)
}

func (a *StubAdapter) ListOrders(ctx context.Context, creds domain.Credentials) ([]domain.OrderUpsert, error) {
	return nil, fmt.Errorf("%w: %s orders are pushed by the agent", domain.ErrCapabilityNotSupported, a.provider)
}
