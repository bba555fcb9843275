package marketplace

import (
	"fmt"

	"github.com/bali7319/marketplace-core/internal/domain"
	"github.com/bali7319/marketplace-core/internal/ports"
)

// Registry maps each supported provider to its adapter.
type Registry struct {
	adapters map[domain.Provider]ports.Adapter
}

// NewRegistry builds the registry with every supported provider wired.
func NewRegistry() *Registry {
	r := &Registry{adapters: make(map[domain.Provider]ports.Adapter)}
	r.register(NewTrendyolAdapter())
	r.register(NewWooCommerceAdapter())
	r.register(NewStubAdapter(domain.ProviderHepsiburada))
	r.register(NewStubAdapter(domain.ProviderN11))
	r.register(NewStubAdapter(domain.ProviderPazarama))
	return r
}

func (r *Registry) register(a ports.Adapter) {
	r.adapters[a.Provider()] = a
}

// Adapter resolves the adapter for a provider.
func (r *Registry) Adapter(provider domain.Provider) (ports.Adapter, error) {
	a, ok := r.adapters[provider]
	if !ok {
		return nil, fmt.Errorf("%w: no adapter for provider %s", domain.ErrValidation, provider)
	}
	return a, nil
}

var _ ports.AdapterRegistry = (*Registry)(nil)
