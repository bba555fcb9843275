package marketplace

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bali7319/marketplace-core/internal/domain"
)

func trendyolTestCreds() domain.Credentials {
	return domain.Credentials{
		Provider: domain.ProviderTrendyol,
		Trendyol: &domain.TrendyolCredentials{
			SellerID:  "12345",
			APIKey:    "ty-key",
			APISecret: "ty-secret",
		},
	}
}

func newTrendyolTestAdapter(srvURL string) *TrendyolAdapter {
	a := NewTrendyolAdapter()
	a.supplierBase = srvURL + "/sapigw/suppliers"
	a.apigwBase = srvURL + "/integration"
	a.now = func() time.Time { return time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC) }
	return a
}

func TestTrendyolAdapter_RequiresCredentials(t *testing.T) {
	a := NewTrendyolAdapter()

	err := a.TestConnection(context.Background(), domain.Credentials{
		Provider: domain.ProviderTrendyol,
		Trendyol: &domain.TrendyolCredentials{SellerID: "12345"},
	})
	require.ErrorIs(t, err, domain.ErrValidation)

	err = a.TestConnection(context.Background(), domain.Credentials{
		Provider: domain.ProviderTrendyol,
		Trendyol: &domain.TrendyolCredentials{APIKey: "k", APISecret: "s"},
	})
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestTrendyolAdapter_ListProducts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requireBasicAuth(t, r, "ty-key", "ty-secret")
		require.Equal(t, "/sapigw/suppliers/12345/products", r.URL.Path)
		assert.Equal(t, "200", r.URL.Query().Get("size"))

		fmt.Fprint(w, `{
			"content": [
				{"id": 9001, "barcode": "8680000000001", "title": "Bike Light", "salePrice": 199.9, "quantity": 3, "stockCode": "SKU-42"},
				{"id": 9002, "title": "No Barcode Item"}
			],
			"totalElements": 2,
			"totalPages": 1
		}`)
	}))
	defer srv.Close()

	a := newTrendyolTestAdapter(srv.URL)
	products, err := a.ListProducts(context.Background(), trendyolTestCreds())
	require.NoError(t, err)
	require.Len(t, products, 2)

	p := products[0]
	assert.Equal(t, "8680000000001", p.ExternalID)
	require.NotNil(t, p.Barcode)
	assert.Equal(t, "8680000000001", *p.Barcode)
	require.NotNil(t, p.MerchantSku)
	assert.Equal(t, "SKU-42", *p.MerchantSku)
	assert.Equal(t, domain.Amount("199.9"), p.Price)
	require.NotNil(t, p.Stock)
	assert.Equal(t, 3, *p.Stock)

	// barcode missing: numeric id becomes the external id
	assert.Equal(t, "9002", products[1].ExternalID)
	assert.Nil(t, products[1].Price)
}

func TestTrendyolAdapter_ListOrdersWindowAndPaging(t *testing.T) {
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requireBasicAuth(t, r, "ty-key", "ty-secret")
		require.Equal(t, "/integration/order/sellers/12345/orders", r.URL.Path)

		// the order window is one year ending at the injected clock
		end, err := strconv.ParseInt(r.URL.Query().Get("endDate"), 10, 64)
		require.NoError(t, err)
		start, err := strconv.ParseInt(r.URL.Query().Get("startDate"), 10, 64)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC).Unix(), end)
		assert.Equal(t, time.Date(2025, 2, 10, 12, 0, 0, 0, time.UTC).Unix(), start)

		requests++
		page := r.URL.Query().Get("page")
		count := 1
		if page == "0" {
			count = trendyolPageSize
		}
		content := make([]map[string]any, count)
		for i := range content {
			content[i] = map[string]any{
				"id":           i,
				"orderNumber":  "TY-" + page + "-" + strconv.Itoa(i),
				"orderDate":    time.Date(2026, 2, 1, 9, 30, 0, 0, time.UTC).UnixMilli(),
				"status":       "Created",
				"customerName": "Ayşe Yılmaz",
				"grossAmount":  399.8,
				"shipmentAddress": map[string]any{
					"fullName": "Ayşe Yılmaz", "city": "İstanbul", "district": "Kadıköy",
				},
				"lines": []map[string]any{
					{"id": 1, "productName": "Bike Light", "quantity": 2, "merchantSku": "SKU-42", "barcode": "868", "price": 199.9, "amount": 399.8},
				},
			}
		}
		json.NewEncoder(w).Encode(map[string]any{"content": content})
	}))
	defer srv.Close()

	a := newTrendyolTestAdapter(srv.URL)
	orders, err := a.ListOrders(context.Background(), trendyolTestCreds())
	require.NoError(t, err)

	assert.Equal(t, 2, requests)
	require.Len(t, orders, trendyolPageSize+1)

	o := orders[0]
	assert.Equal(t, "TY-0-0", o.ExternalID)
	assert.Equal(t, "Created", o.Status)
	require.NotNil(t, o.PlacedAt)
	assert.Equal(t, "2026-02-01T09:30:00Z", *o.PlacedAt)
	require.NotNil(t, o.ShippingDist)
	assert.Equal(t, "Kadıköy", *o.ShippingDist)
	assert.Equal(t, domain.Amount("399.8"), o.TotalAmount)

	require.Len(t, o.Items, 1)
	it := o.Items[0]
	require.NotNil(t, it.ExternalID)
	assert.Equal(t, "1", *it.ExternalID)
	assert.Equal(t, domain.Amount("199.9"), it.UnitPrice)
}

func TestStubAdapter(t *testing.T) {
	a := NewStubAdapter(domain.ProviderHepsiburada)
	assert.Equal(t, domain.ProviderHepsiburada, a.Provider())

	creds := domain.Credentials{
		Provider: domain.ProviderHepsiburada,
		REST:     &domain.RESTCredentials{ConsumerKey: "merchant-id", ConsumerSecret: "secret"},
	}
	require.NoError(t, a.TestConnection(context.Background(), creds))

	err := a.TestConnection(context.Background(), domain.Credentials{Provider: domain.ProviderHepsiburada, REST: &domain.RESTCredentials{}})
	require.ErrorIs(t, err, domain.ErrValidation)

	_, err = a.ListProducts(context.Background(), creds)
	require.ErrorIs(t, err, domain.ErrCapabilityNotSupported)
	_, err = a.ListOrders(context.Background(), creds)
	require.ErrorIs(t, err, domain.ErrCapabilityNotSupported)
}

func TestRegistry_CoversEveryProvider(t *testing.T) {
	r := NewRegistry()
	for _, p := range domain.Providers {
		a, err := r.Adapter(p)
		require.NoError(t, err, p)
		assert.Equal(t, p, a.Provider())
	}

	_, err := r.Adapter(domain.Provider("amazon"))
	require.ErrorIs(t, err, domain.ErrValidation)
}
