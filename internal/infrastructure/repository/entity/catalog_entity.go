package entity

import (
	"encoding/json"
	"time"

	"github.com/bali7319/marketplace-core/internal/domain"
)

// MongoProductDoc represents a mirrored product in MongoDB.
type MongoProductDoc struct {
	ID           string    `bson:"_id"`
	ConnectionID string    `bson:"connectionId"`
	ExternalID   string    `bson:"externalId"`
	MerchantSku  *string   `bson:"merchantSku,omitempty"`
	Barcode      *string   `bson:"barcode,omitempty"`
	Title        *string   `bson:"title,omitempty"`
	Price        *string   `bson:"price,omitempty"`
	Currency     string    `bson:"currency"`
	Stock        *int      `bson:"stock,omitempty"`
	UpdatedAt    time.Time `bson:"updatedAt"`
	Raw          string    `bson:"raw,omitempty"`
}

// ToDomain converts the MongoDB document to a domain entity.
func (d *MongoProductDoc) ToDomain() *domain.Product {
	return &domain.Product{
		ID:           d.ID,
		ConnectionID: d.ConnectionID,
		ExternalID:   d.ExternalID,
		MerchantSku:  d.MerchantSku,
		Barcode:      d.Barcode,
		Title:        d.Title,
		Price:        d.Price,
		Currency:     d.Currency,
		Stock:        d.Stock,
		UpdatedAt:    d.UpdatedAt,
		Raw:          rawFromString(d.Raw),
	}
}

// MongoProductDocFromDomain converts a domain entity to a MongoDB document.
func MongoProductDocFromDomain(p *domain.Product) *MongoProductDoc {
	return &MongoProductDoc{
		ID:           p.ID,
		ConnectionID: p.ConnectionID,
		ExternalID:   p.ExternalID,
		MerchantSku:  p.MerchantSku,
		Barcode:      p.Barcode,
		Title:        p.Title,
		Price:        p.Price,
		Currency:     p.Currency,
		Stock:        p.Stock,
		UpdatedAt:    p.UpdatedAt,
		Raw:          string(p.Raw),
	}
}

// MongoOrderItemDoc represents one order line in MongoDB.
type MongoOrderItemDoc struct {
	ID          string  `bson:"id"`
	Title       *string `bson:"title,omitempty"`
	Quantity    int     `bson:"quantity"`
	MerchantSku *string `bson:"merchantSku,omitempty"`
	Barcode     *string `bson:"barcode,omitempty"`
	UnitPrice   *string `bson:"unitPrice,omitempty"`
	TotalPrice  *string `bson:"totalPrice,omitempty"`
	Currency    string  `bson:"currency"`
}

// MongoOrderDoc represents a mirrored order in MongoDB.
type MongoOrderDoc struct {
	ID           string              `bson:"_id"`
	ConnectionID string              `bson:"connectionId"`
	ExternalID   string              `bson:"externalId"`
	Status       string              `bson:"status"`
	PlacedAt     *time.Time          `bson:"placedAt,omitempty"`
	BuyerName    *string             `bson:"buyerName,omitempty"`
	BuyerEmail   *string             `bson:"buyerEmail,omitempty"`
	ShippingName *string             `bson:"shippingName,omitempty"`
	ShippingCity *string             `bson:"shippingCity,omitempty"`
	ShippingDist *string             `bson:"shippingDistrict,omitempty"`
	TotalAmount  *string             `bson:"totalAmount,omitempty"`
	Currency     string              `bson:"currency"`
	Items        []MongoOrderItemDoc `bson:"items"`
	Raw          string              `bson:"raw,omitempty"`
}

// ToDomain converts the MongoDB document to a domain entity.
func (d *MongoOrderDoc) ToDomain() *domain.Order {
	items := make([]domain.OrderItem, 0, len(d.Items))
	for _, it := range d.Items {
		items = append(items, domain.OrderItem{
			ID:          it.ID,
			Title:       it.Title,
			Quantity:    it.Quantity,
			MerchantSku: it.MerchantSku,
			Barcode:     it.Barcode,
			UnitPrice:   it.UnitPrice,
			TotalPrice:  it.TotalPrice,
			Currency:    it.Currency,
		})
	}
	return &domain.Order{
		ID:           d.ID,
		ConnectionID: d.ConnectionID,
		ExternalID:   d.ExternalID,
		Status:       d.Status,
		PlacedAt:     d.PlacedAt,
		Buyer:        domain.Buyer{Name: d.BuyerName, Email: d.BuyerEmail},
		Shipping:     domain.Shipping{Name: d.ShippingName, City: d.ShippingCity, District: d.ShippingDist},
		TotalAmount:  d.TotalAmount,
		Currency:     d.Currency,
		Items:        items,
		Raw:          rawFromString(d.Raw),
	}
}

// MongoOrderDocFromDomain converts a domain entity to a MongoDB document.
func MongoOrderDocFromDomain(o *domain.Order) *MongoOrderDoc {
	items := make([]MongoOrderItemDoc, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, MongoOrderItemDoc{
			ID:          it.ID,
			Title:       it.Title,
			Quantity:    it.Quantity,
			MerchantSku: it.MerchantSku,
			Barcode:     it.Barcode,
			UnitPrice:   it.UnitPrice,
			TotalPrice:  it.TotalPrice,
			Currency:    it.Currency,
		})
	}
	return &MongoOrderDoc{
		ID:           o.ID,
		ConnectionID: o.ConnectionID,
		ExternalID:   o.ExternalID,
		Status:       o.Status,
		PlacedAt:     o.PlacedAt,
		BuyerName:    o.Buyer.Name,
		BuyerEmail:   o.Buyer.Email,
		ShippingName: o.Shipping.Name,
		ShippingCity: o.Shipping.City,
		ShippingDist: o.Shipping.District,
		TotalAmount:  o.TotalAmount,
		Currency:     o.Currency,
		Items:        items,
		Raw:          string(o.Raw),
	}
}

func rawFromString(s string) json.RawMessage {
	if s == "" {
		return nil
	}
	return json.RawMessage(s)
}
