package domain

import "fmt"

// Provider identifies one of the supported marketplace platforms.
type Provider string

const (
	ProviderTrendyol    Provider = "trendyol"
	ProviderHepsiburada Provider = "hepsiburada"
	ProviderN11         Provider = "n11"
	ProviderPazarama    Provider = "pazarama"
	ProviderWooCommerce Provider = "woocommerce"
)

// Providers lists every supported provider in a stable order.
var Providers = []Provider{
	ProviderTrendyol,
	ProviderHepsiburada,
	ProviderN11,
	ProviderPazarama,
	ProviderWooCommerce,
}

// ParseProvider validates a provider name from an URL segment or payload.
func ParseProvider(s string) (Provider, error) {
	for _, p := range Providers {
		if string(p) == s {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: unknown provider %q", ErrValidation, s)
}

func (p Provider) String() string {
	return string(p)
}

// UsesRESTCredentials reports whether the provider authenticates with the
// shared {baseUrl, consumerKey, consumerSecret} credential shape.
// Trendyol is the odd one out with its seller/integrator scheme.
func (p Provider) UsesRESTCredentials() bool {
	return p != ProviderTrendyol
}
