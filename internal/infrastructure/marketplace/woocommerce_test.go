package marketplace

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bali7319/marketplace-core/internal/domain"
)

func wooTestCreds(baseURL string) domain.Credentials {
	return domain.Credentials{
		Provider: domain.ProviderWooCommerce,
		REST: &domain.RESTCredentials{
			BaseURL:        baseURL,
			ConsumerKey:    "ck_test",
			ConsumerSecret: "cs_test",
		},
	}
}

func requireBasicAuth(t *testing.T, r *http.Request, user, pass string) {
	t.Helper()
	want := "Basic " + base64.StdEncoding.EncodeToString([]byte(user+":"+pass))
	require.Equal(t, want, r.Header.Get("Authorization"))
}

func TestWooCommerceAdapter_TestConnection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requireBasicAuth(t, r, "ck_test", "cs_test")
		assert.Equal(t, "/wp-json/wc/v3/products", r.URL.Path)
		assert.Equal(t, "1", r.URL.Query().Get("per_page"))
		fmt.Fprint(w, `[]`)
	}))
	defer srv.Close()

	a := NewWooCommerceAdapter()
	require.NoError(t, a.TestConnection(context.Background(), wooTestCreds(srv.URL)))
}

func TestWooCommerceAdapter_TestConnectionRejectsBadCreds(t *testing.T) {
	a := NewWooCommerceAdapter()

	err := a.TestConnection(context.Background(), domain.Credentials{
		Provider: domain.ProviderWooCommerce,
		REST:     &domain.RESTCredentials{BaseURL: "https://shop.example.com"},
	})
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestWooCommerceAdapter_UpstreamErrorWrapped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"code":"woocommerce_rest_cannot_view"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	a := NewWooCommerceAdapter()
	err := a.TestConnection(context.Background(), wooTestCreds(srv.URL))
	require.ErrorIs(t, err, domain.ErrUpstream)
	assert.Contains(t, err.Error(), "HTTP 401")
}

func TestWooCommerceAdapter_ListProductsPaginates(t *testing.T) {
	// first page full, second page short: exactly two requests
	var pagesServed []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requireBasicAuth(t, r, "ck_test", "cs_test")
		require.Equal(t, "/wp-json/wc/v3/products", r.URL.Path)
		assert.Equal(t, "100", r.URL.Query().Get("per_page"))
		assert.Equal(t, "publish", r.URL.Query().Get("status"))

		page := r.URL.Query().Get("page")
		pagesServed = append(pagesServed, page)

		count := 1
		if page == "1" {
			count = wooPageSize
		}
		items := make([]map[string]any, count)
		for i := range items {
			items[i] = map[string]any{
				"id":             i + 1,
				"sku":            "SKU-" + strconv.Itoa(i+1),
				"name":           "Product " + strconv.Itoa(i+1),
				"price":          "199.90",
				"stock_quantity": 3,
			}
		}
		json.NewEncoder(w).Encode(items)
	}))
	defer srv.Close()

	a := NewWooCommerceAdapter()
	products, err := a.ListProducts(context.Background(), wooTestCreds(srv.URL))
	require.NoError(t, err)

	assert.Equal(t, []string{"1", "2"}, pagesServed)
	require.Len(t, products, wooPageSize+1)

	p := products[0]
	assert.Equal(t, "1", p.ExternalID)
	require.NotNil(t, p.MerchantSku)
	assert.Equal(t, "SKU-1", *p.MerchantSku)
	assert.Equal(t, domain.Amount("199.90"), p.Price)
	require.NotNil(t, p.Stock)
	assert.Equal(t, 3, *p.Stock)
	assert.NotEmpty(t, p.Raw)
}

func TestWooCommerceAdapter_ListOrders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/wp-json/wc/v3/orders", r.URL.Path)
		fmt.Fprint(w, `[
			{
				"id": 7, "number": "1001", "status": "processing",
				"date_created": "2026-02-01T09:30:00",
				"currency": "TRY", "total": "399.80",
				"billing": {"first_name": "Ayşe", "last_name": "Yılmaz", "email": "ayse@example.com"},
				"shipping": {"first_name": "Ayşe", "last_name": "Yılmaz", "city": "İstanbul", "state": "Kadıköy"},
				"line_items": [
					{"id": 11, "name": "Bike Light", "quantity": 2, "sku": "SKU-42", "price": 199.9, "total": "399.80"}
				]
			}
		]`)
	}))
	defer srv.Close()

	a := NewWooCommerceAdapter()
	orders, err := a.ListOrders(context.Background(), wooTestCreds(srv.URL))
	require.NoError(t, err)
	require.Len(t, orders, 1)

	o := orders[0]
	assert.Equal(t, "1001", o.ExternalID)
	assert.Equal(t, "processing", o.Status)
	require.NotNil(t, o.BuyerName)
	assert.Equal(t, "Ayşe Yılmaz", *o.BuyerName)
	require.NotNil(t, o.ShippingCity)
	assert.Equal(t, "İstanbul", *o.ShippingCity)
	assert.Equal(t, domain.Amount("399.80"), o.TotalAmount)

	require.Len(t, o.Items, 1)
	it := o.Items[0]
	require.NotNil(t, it.ExternalID)
	assert.Equal(t, "11", *it.ExternalID)
	require.NotNil(t, it.Quantity)
	assert.Equal(t, 2, *it.Quantity)
	assert.Equal(t, domain.Amount("199.9"), it.UnitPrice)
	assert.Equal(t, domain.Amount("399.80"), it.TotalPrice)
}
