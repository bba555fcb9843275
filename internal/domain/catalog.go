package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Product is a normalized catalog row mirrored from a provider. Its ID is
// deterministic: {connectionId}:{externalId}.
type Product struct {
	ID           string          `json:"id"`
	ConnectionID string          `json:"connectionId"`
	ExternalID   string          `json:"externalId"`
	MerchantSku  *string         `json:"merchantSku"`
	Barcode      *string         `json:"barcode"`
	Title        *string         `json:"title"`
	Price        *string         `json:"price"`
	Currency     string          `json:"currency"`
	Stock        *int            `json:"stock"`
	UpdatedAt    time.Time       `json:"updatedAt"`
	Raw          json.RawMessage `json:"raw,omitempty"`
}

// Buyer holds the order's buyer identity as exposed by the provider.
type Buyer struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
}

// Shipping holds the order's delivery target as exposed by the provider.
type Shipping struct {
	Name     *string `json:"name"`
	City     *string `json:"city"`
	District *string `json:"district"`
}

// Order is a normalized order row mirrored from a provider.
type Order struct {
	ID           string          `json:"id"`
	ConnectionID string          `json:"connectionId"`
	ExternalID   string          `json:"externalId"`
	Status       string          `json:"status"`
	PlacedAt     *time.Time      `json:"placedAt"`
	Buyer        Buyer           `json:"buyer"`
	Shipping     Shipping        `json:"shipping"`
	TotalAmount  *string         `json:"totalAmount"`
	Currency     string          `json:"currency"`
	Items        []OrderItem     `json:"items"`
	Raw          json.RawMessage `json:"raw,omitempty"`
}

// OrderItem is one line of an order. Its ID is
// {connectionId}:{orderExternalId}:{itemExternalIdOrIndex}.
type OrderItem struct {
	ID          string  `json:"id"`
	Title       *string `json:"title"`
	Quantity    int     `json:"quantity"`
	MerchantSku *string `json:"merchantSku"`
	Barcode     *string `json:"barcode"`
	UnitPrice   *string `json:"unitPrice"`
	TotalPrice  *string `json:"totalPrice"`
	Currency    string  `json:"currency"`
}

// DefaultCurrency is assumed when a provider omits the currency.
const DefaultCurrency = "TRY"

// Amount is a decimal-as-string value that accepts either a JSON string
// or a JSON number on the wire, preserving the source text ("199.90"
// stays "199.90").
type Amount string

func (a *Amount) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*a = ""
		return nil
	}
	var text string
	if b[0] == '"' {
		if err := json.Unmarshal(b, &text); err != nil {
			return err
		}
	} else {
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return err
		}
		text = n.String()
	}
	if _, err := decimal.NewFromString(text); err != nil {
		return fmt.Errorf("%w: invalid decimal %q", ErrValidation, text)
	}
	*a = Amount(text)
	return nil
}

// StringPtr returns the amount as a nullable string for record fields.
func (a Amount) StringPtr() *string {
	if a == "" {
		return nil
	}
	s := string(a)
	return &s
}

// ProductUpsert is the normalized product DTO, identical for the pull
// and push paths. Absent upstream data stays nil, never defaulted.
type ProductUpsert struct {
	ExternalID  string          `json:"externalId" validate:"required"`
	MerchantSku *string         `json:"merchantSku"`
	Barcode     *string         `json:"barcode"`
	Title       *string         `json:"title"`
	Price       Amount          `json:"price"`
	Currency    *string         `json:"currency"`
	Stock       *int            `json:"stock"`
	Raw         json.RawMessage `json:"raw,omitempty"`
}

// OrderItemUpsert is the normalized order line DTO.
type OrderItemUpsert struct {
	ExternalID  *string `json:"externalId"`
	Title       *string `json:"title"`
	Quantity    *int    `json:"quantity"`
	MerchantSku *string `json:"merchantSku"`
	Barcode     *string `json:"barcode"`
	UnitPrice   Amount  `json:"unitPrice"`
	TotalPrice  Amount  `json:"totalPrice"`
	Currency    *string `json:"currency"`
}

// OrderUpsert is the normalized order DTO.
type OrderUpsert struct {
	ExternalID   string            `json:"externalId" validate:"required"`
	Status       string            `json:"status"`
	PlacedAt     *string           `json:"placedAt"`
	BuyerName    *string           `json:"buyerName"`
	BuyerEmail   *string           `json:"buyerEmail"`
	ShippingName *string           `json:"shippingName"`
	ShippingCity *string           `json:"shippingCity"`
	ShippingDist *string           `json:"shippingDistrict"`
	TotalAmount  Amount            `json:"totalAmount"`
	Currency     *string           `json:"currency"`
	Items        []OrderItemUpsert `json:"items"`
	Raw          json.RawMessage   `json:"raw,omitempty"`
}

// CatalogQuery filters the admin mirror-browsing endpoints.
type CatalogQuery struct {
	ConnectionID string
	Q            string
	Status       string
	Limit        int
}
