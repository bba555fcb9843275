package marketplace

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bali7319/marketplace-core/internal/domain"
)

const (
	wooAPIPrefix       = "/wp-json/wc/v3"
	wooPageSize        = 100
	wooMaxProductPages = 50
	wooMaxOrderPages   = 20
)

// WooCommerceAdapter talks to a store's WooCommerce REST API using
// consumer key/secret basic auth.
type WooCommerceAdapter struct {
	client *http.Client
}

// NewWooCommerceAdapter creates the WooCommerce adapter.
func NewWooCommerceAdapter() *WooCommerceAdapter {
	return &WooCommerceAdapter{client: &http.Client{Timeout: 20 * time.Second}}
}

func (a *WooCommerceAdapter) Provider() domain.Provider { return domain.ProviderWooCommerce }

func wooAPIBase(creds domain.Credentials) (string, *domain.RESTCredentials, error) {
	rest := creds.REST
	if rest == nil || rest.BaseURL == "" || rest.ConsumerKey == "" || rest.ConsumerSecret == "" {
		return "", nil, fmt.Errorf("%w: woocommerce requires baseUrl, consumerKey and consumerSecret", domain.ErrValidation)
	}
	return rest.BaseURL + wooAPIPrefix, rest, nil
}

// TestConnection fetches a single product as a lightweight probe.
func (a *WooCommerceAdapter) TestConnection(ctx context.Context, creds domain.Credentials) error {
	base, rest, err := wooAPIBase(creds)
	if err != nil {
		return err
	}
	q := url.Values{"per_page": {"1"}}
	var probe []json.RawMessage
	return fetchJSON(ctx, a.client, base+"/products", q, rest.ConsumerKey, rest.ConsumerSecret, &probe)
}

type wooProduct struct {
	ID            int64  `json:"id"`
	SKU           string `json:"sku"`
	Name          string `json:"name"`
	Price         string `json:"price"`
	StockQuantity *int   `json:"stock_quantity"`
}

// ListProducts walks the published products, newest id first.
func (a *WooCommerceAdapter) ListProducts(ctx context.Context, creds domain.Credentials) ([]domain.ProductUpsert, error) {
	base, rest, err := wooAPIBase(creds)
	if err != nil {
		return nil, err
	}

	var out []domain.ProductUpsert
	for page := 1; page <= wooMaxProductPages; page++ {
		q := url.Values{
			"per_page": {strconv.Itoa(wooPageSize)},
			"page":     {strconv.Itoa(page)},
			"orderby":  {"id"},
			"order":    {"desc"},
			"status":   {"publish"},
		}
		var batch []json.RawMessage
		if err := fetchJSON(ctx, a.client, base+"/products", q, rest.ConsumerKey, rest.ConsumerSecret, &batch); err != nil {
			return nil, err
		}
		for _, raw := range batch {
			var p wooProduct
			if err := json.Unmarshal(raw, &p); err != nil {
				return nil, fmt.Errorf("%w: decode product: %v", domain.ErrUpstream, err)
			}
			up := domain.ProductUpsert{
				ExternalID:  strconv.FormatInt(p.ID, 10),
				MerchantSku: optString(p.SKU),
				Title:       optString(p.Name),
				Stock:       p.StockQuantity,
				Raw:         raw,
			}
			if s := strings.TrimSpace(p.Price); s != "" {
				up.Price = domain.Amount(s)
			}
			out = append(out, up)
		}
		if len(batch) < wooPageSize {
			break
		}
	}
	return out, nil
}

type wooOrder struct {
	ID          int64  `json:"id"`
	Number      string `json:"number"`
	Status      string `json:"status"`
	DateCreated string `json:"date_created"`
	Currency    string `json:"currency"`
	Total       string `json:"total"`
	Billing     struct {
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Email     string `json:"email"`
	} `json:"billing"`
	Shipping struct {
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		City      string `json:"city"`
		State     string `json:"state"`
	} `json:"shipping"`
	LineItems []struct {
		ID       int64   `json:"id"`
		Name     string  `json:"name"`
		Quantity int     `json:"quantity"`
		SKU      string  `json:"sku"`
		Price    float64 `json:"price"`
		Total    string  `json:"total"`
	} `json:"line_items"`
}

// ListOrders walks recent orders, newest first.
func (a *WooCommerceAdapter) ListOrders(ctx context.Context, creds domain.Credentials) ([]domain.OrderUpsert, error) {
	base, rest, err := wooAPIBase(creds)
	if err != nil {
		return nil, err
	}

	var out []domain.OrderUpsert
	for page := 1; page <= wooMaxOrderPages; page++ {
		q := url.Values{
			"per_page": {strconv.Itoa(wooPageSize)},
			"page":     {strconv.Itoa(page)},
			"orderby":  {"date"},
			"order":    {"desc"},
		}
		var batch []json.RawMessage
		if err := fetchJSON(ctx, a.client, base+"/orders", q, rest.ConsumerKey, rest.ConsumerSecret, &batch); err != nil {
			return nil, err
		}
		for _, raw := range batch {
			var o wooOrder
			if err := json.Unmarshal(raw, &o); err != nil {
				return nil, fmt.Errorf("%w: decode order: %v", domain.ErrUpstream, err)
			}
			out = append(out, wooOrderUpsert(o, raw))
		}
		if len(batch) < wooPageSize {
			break
		}
	}
	return out, nil
}

func wooOrderUpsert(o wooOrder, raw json.RawMessage) domain.OrderUpsert {
	externalID := o.Number
	if externalID == "" {
		externalID = strconv.FormatInt(o.ID, 10)
	}

	up := domain.OrderUpsert{
		ExternalID:   externalID,
		Status:       o.Status,
		PlacedAt:     optString(o.DateCreated),
		BuyerName:    joinedName(o.Billing.FirstName, o.Billing.LastName),
		BuyerEmail:   optString(o.Billing.Email),
		ShippingName: joinedName(o.Shipping.FirstName, o.Shipping.LastName),
		ShippingCity: optString(o.Shipping.City),
		ShippingDist: optString(o.Shipping.State),
		Currency:     optString(o.Currency),
		Raw:          raw,
	}
	if s := strings.TrimSpace(o.Total); s != "" {
		up.TotalAmount = domain.Amount(s)
	}
	for _, it := range o.LineItems {
		qty := it.Quantity
		item := domain.OrderItemUpsert{
			ExternalID:  optString(strconv.FormatInt(it.ID, 10)),
			Title:       optString(it.Name),
			Quantity:    &qty,
			MerchantSku: optString(it.SKU),
		}
		if it.Price != 0 {
			item.UnitPrice = amountFromFloat(it.Price)
		}
		if s := strings.TrimSpace(it.Total); s != "" {
			item.TotalPrice = domain.Amount(s)
		}
		up.Items = append(up.Items, item)
	}
	return up
}

func optString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func joinedName(parts ...string) *string {
	var kept []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	if len(kept) == 0 {
		return nil
	}
	joined := strings.Join(kept, " ")
	return &joined
}

func amountFromFloat(v float64) domain.Amount {
	return domain.Amount(strconv.FormatFloat(v, 'f', -1, 64))
}
