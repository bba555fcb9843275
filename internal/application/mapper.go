package application

import (
	"fmt"
	"time"

	"github.com/bali7319/marketplace-core/internal/domain"
)

// placedAtLayouts are the timestamp shapes providers and agents send.
var placedAtLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parsePlacedAt(raw *string) *time.Time {
	if raw == nil || *raw == "" {
		return nil
	}
	for _, layout := range placedAtLayouts {
		if t, err := time.Parse(layout, *raw); err == nil {
			return &t
		}
	}
	return nil
}

func currencyOr(c *string, fallback string) string {
	if c != nil && *c != "" {
		return *c
	}
	return fallback
}

// MapProducts converts product DTOs into catalog records keyed by
// {connectionId}:{externalId}. The mapping is identical for the pull and
// push paths, so equivalent source data produces byte-identical rows.
func MapProducts(conn *domain.Connection, upserts []domain.ProductUpsert, now time.Time) []*domain.Product {
	products := make([]*domain.Product, 0, len(upserts))
	for _, p := range upserts {
		products = append(products, &domain.Product{
			ID:           conn.ID + ":" + p.ExternalID,
			ConnectionID: conn.ID,
			ExternalID:   p.ExternalID,
			MerchantSku:  p.MerchantSku,
			Barcode:      p.Barcode,
			Title:        p.Title,
			Price:        p.Price.StringPtr(),
			Currency:     currencyOr(p.Currency, domain.DefaultCurrency),
			Stock:        p.Stock,
			UpdatedAt:    now,
			Raw:          p.Raw,
		})
	}
	return products
}

// MapOrders converts order DTOs into catalog records. Item quantities
// default to 1 and never drop below it; item currency falls back to the
// order currency.
func MapOrders(conn *domain.Connection, upserts []domain.OrderUpsert) []*domain.Order {
	orders := make([]*domain.Order, 0, len(upserts))
	for _, o := range upserts {
		currency := currencyOr(o.Currency, domain.DefaultCurrency)

		items := make([]domain.OrderItem, 0, len(o.Items))
		for idx, it := range o.Items {
			itemKey := fmt.Sprintf("%d", idx)
			if it.ExternalID != nil && *it.ExternalID != "" {
				itemKey = *it.ExternalID
			}
			quantity := 1
			if it.Quantity != nil && *it.Quantity >= 1 {
				quantity = *it.Quantity
			}
			items = append(items, domain.OrderItem{
				ID:          conn.ID + ":" + o.ExternalID + ":" + itemKey,
				Title:       it.Title,
				Quantity:    quantity,
				MerchantSku: it.MerchantSku,
				Barcode:     it.Barcode,
				UnitPrice:   it.UnitPrice.StringPtr(),
				TotalPrice:  it.TotalPrice.StringPtr(),
				Currency:    currencyOr(it.Currency, currency),
			})
		}

		orders = append(orders, &domain.Order{
			ID:           conn.ID + ":" + o.ExternalID,
			ConnectionID: conn.ID,
			ExternalID:   o.ExternalID,
			Status:       o.Status,
			PlacedAt:     parsePlacedAt(o.PlacedAt),
			Buyer: domain.Buyer{
				Name:  o.BuyerName,
				Email: o.BuyerEmail,
			},
			Shipping: domain.Shipping{
				Name:     o.ShippingName,
				City:     o.ShippingCity,
				District: o.ShippingDist,
			},
			TotalAmount: o.TotalAmount.StringPtr(),
			Currency:    currency,
			Items:       items,
			Raw:         o.Raw,
		})
	}
	return orders
}
