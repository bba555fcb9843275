package application

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bali7319/marketplace-core/internal/domain"
)

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func TestMapProducts(t *testing.T) {
	conn := &domain.Connection{ID: "conn-1", Provider: domain.ProviderWooCommerce}
	now := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)

	products := MapProducts(conn, []domain.ProductUpsert{
		{
			ExternalID:  "42",
			MerchantSku: strPtr("SKU-42"),
			Title:       strPtr("Bike Light"),
			Price:       domain.Amount("199.90"),
			Stock:       intPtr(3),
		},
		{ExternalID: "43"},
	}, now)

	require.Len(t, products, 2)

	first := products[0]
	assert.Equal(t, "conn-1:42", first.ID)
	assert.Equal(t, "conn-1", first.ConnectionID)
	assert.Equal(t, "42", first.ExternalID)
	require.NotNil(t, first.Price)
	assert.Equal(t, "199.90", *first.Price)
	assert.Equal(t, "TRY", first.Currency)
	assert.Equal(t, now, first.UpdatedAt)

	// absent upstream data stays nil
	second := products[1]
	assert.Equal(t, "conn-1:43", second.ID)
	assert.Nil(t, second.Price)
	assert.Nil(t, second.Stock)
	assert.Nil(t, second.Title)
}

func TestMapOrders(t *testing.T) {
	conn := &domain.Connection{ID: "conn-1", Provider: domain.ProviderWooCommerce}

	orders := MapOrders(conn, []domain.OrderUpsert{
		{
			ExternalID:  "1001",
			Status:      "processing",
			PlacedAt:    strPtr("2026-02-01T09:30:00Z"),
			BuyerName:   strPtr("Ayşe Yılmaz"),
			TotalAmount: domain.Amount("399.80"),
			Currency:    strPtr("USD"),
			Items: []domain.OrderItemUpsert{
				{ExternalID: strPtr("li-1"), Quantity: intPtr(2), UnitPrice: domain.Amount("199.90")},
				{Title: strPtr("no id, falls back to index")},
				{Quantity: intPtr(0), Currency: strPtr("EUR")},
			},
		},
	})

	require.Len(t, orders, 1)
	o := orders[0]
	assert.Equal(t, "conn-1:1001", o.ID)
	require.NotNil(t, o.PlacedAt)
	assert.Equal(t, time.Date(2026, 2, 1, 9, 30, 0, 0, time.UTC), o.PlacedAt.UTC())
	assert.Equal(t, "USD", o.Currency)

	require.Len(t, o.Items, 3)
	assert.Equal(t, "conn-1:1001:li-1", o.Items[0].ID)
	assert.Equal(t, 2, o.Items[0].Quantity)
	assert.Equal(t, "USD", o.Items[0].Currency)

	assert.Equal(t, "conn-1:1001:1", o.Items[1].ID)
	assert.Equal(t, 1, o.Items[1].Quantity)

	// zero quantity clamps to 1, item currency wins over order currency
	assert.Equal(t, "conn-1:1001:2", o.Items[2].ID)
	assert.Equal(t, 1, o.Items[2].Quantity)
	assert.Equal(t, "EUR", o.Items[2].Currency)
}

func TestMapOrders_PlacedAtLayouts(t *testing.T) {
	conn := &domain.Connection{ID: "c"}

	cases := []struct {
		in     string
		parses bool
	}{
		{"2026-02-01T09:30:00Z", true},
		{"2026-02-01T09:30:00", true},
		{"2026-02-01 09:30:00", true},
		{"2026-02-01", true},
		{"yesterday", false},
	}
	for _, tc := range cases {
		orders := MapOrders(conn, []domain.OrderUpsert{{ExternalID: "1", PlacedAt: &tc.in}})
		require.Len(t, orders, 1)
		if tc.parses {
			assert.NotNil(t, orders[0].PlacedAt, tc.in)
		} else {
			assert.Nil(t, orders[0].PlacedAt, tc.in)
		}
	}
}

func TestMapping_PullAndPushAgree(t *testing.T) {
	conn := &domain.Connection{ID: "conn-1"}
	now := time.Now().UTC()
	upserts := []domain.ProductUpsert{{ExternalID: "42", Price: domain.Amount("10.50")}}

	a := MapProducts(conn, upserts, now)
	b := MapProducts(conn, upserts, now)
	assert.Equal(t, a, b)
}
