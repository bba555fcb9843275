package marketplace

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/bali7319/marketplace-core/internal/domain"
)

const (
	trendyolSupplierBase = "https://api.trendyol.com/sapigw/suppliers"
	trendyolAPIGWBase    = "https://apigw.trendyol.com/integration"

	trendyolPageSize        = 200
	trendyolMaxProductPages = 100
	trendyolMaxOrderPages   = 50
	trendyolOrderWindowDays = 365
)

// TrendyolAdapter talks to the Trendyol seller/integrator API with
// apiKey:apiSecret basic auth. Paths carry the seller id.
type TrendyolAdapter struct {
	client *http.Client

	// overridable in tests
	supplierBase string
	apigwBase    string
	now          func() time.Time
}

// NewTrendyolAdapter creates the Trendyol adapter.
func NewTrendyolAdapter() *TrendyolAdapter {
	return &TrendyolAdapter{
		client:       &http.Client{Timeout: 30 * time.Second},
		supplierBase: trendyolSupplierBase,
		apigwBase:    trendyolAPIGWBase,
		now:          time.Now,
	}
}

func (a *TrendyolAdapter) Provider() domain.Provider { return domain.ProviderTrendyol }

func trendyolCreds(creds domain.Credentials) (*domain.TrendyolCredentials, error) {
	ty := creds.Trendyol
	if ty == nil || ty.SellerID == "" {
		return nil, fmt.Errorf("%w: trendyol requires sellerId", domain.ErrValidation)
	}
	if ty.APIKey == "" || ty.APISecret == "" {
		return nil, fmt.Errorf("%w: trendyol requires apiKey and apiSecret", domain.ErrValidation)
	}
	return ty, nil
}

type trendyolPage[T any] struct {
	Content       []T `json:"content"`
	TotalElements int `json:"totalElements"`
	TotalPages    int `json:"totalPages"`
}

// TestConnection fetches a single product page as a lightweight probe.
func (a *TrendyolAdapter) TestConnection(ctx context.Context, creds domain.Credentials) error {
	ty, err := trendyolCreds(creds)
	if err != nil {
		return err
	}
	q := url.Values{"page": {"0"}, "size": {"1"}}
	var probe trendyolPage[json.RawMessage]
	return fetchJSON(ctx, a.client, a.supplierBase+"/"+ty.SellerID+"/products", q, ty.APIKey, ty.APISecret, &probe)
}

type trendyolProduct struct {
	ID        json.Number `json:"id"`
	Barcode   string      `json:"barcode"`
	Title     string      `json:"title"`
	SalePrice *float64    `json:"salePrice"`
	Quantity  *int        `json:"quantity"`
	StockCode string      `json:"stockCode"`
}

// ListProducts walks the seller's product pages.
func (a *TrendyolAdapter) ListProducts(ctx context.Context, creds domain.Credentials) ([]domain.ProductUpsert, error) {
	ty, err := trendyolCreds(creds)
	if err != nil {
		return nil, err
	}

	var out []domain.ProductUpsert
	for page := 0; page < trendyolMaxProductPages; page++ {
		q := url.Values{
			"page": {strconv.Itoa(page)},
			"size": {strconv.Itoa(trendyolPageSize)},
		}
		var batch trendyolPage[json.RawMessage]
		if err := fetchJSON(ctx, a.client, a.supplierBase+"/"+ty.SellerID+"/products", q, ty.APIKey, ty.APISecret, &batch); err != nil {
			return nil, err
		}
		for _, raw := range batch.Content {
			var p trendyolProduct
			if err := json.Unmarshal(raw, &p); err != nil {
				return nil, fmt.Errorf("%w: decode product: %v", domain.ErrUpstream, err)
			}
			externalID := p.Barcode
			if externalID == "" {
				externalID = p.ID.String()
			}
			up := domain.ProductUpsert{
				ExternalID:  externalID,
				MerchantSku: optString(p.StockCode),
				Barcode:     optString(p.Barcode),
				Title:       optString(p.Title),
				Stock:       p.Quantity,
				Raw:         raw,
			}
			if p.SalePrice != nil {
				up.Price = amountFromFloat(*p.SalePrice)
			}
			out = append(out, up)
		}
		if len(batch.Content) < trendyolPageSize {
			break
		}
	}
	return out, nil
}

type trendyolOrder struct {
	ID              json.Number `json:"id"`
	OrderNumber     string      `json:"orderNumber"`
	OrderDate       *int64      `json:"orderDate"`
	Status          string      `json:"status"`
	CustomerName    string      `json:"customerName"`
	CustomerEmail   string      `json:"customerEmail"`
	GrossAmount     *float64    `json:"grossAmount"`
	ShipmentAddress struct {
		FullName string `json:"fullName"`
		City     string `json:"city"`
		District string `json:"district"`
	} `json:"shipmentAddress"`
	Lines []struct {
		ID          json.Number `json:"id"`
		ProductName string      `json:"productName"`
		Quantity    *int        `json:"quantity"`
		MerchantSku string      `json:"merchantSku"`
		Barcode     string      `json:"barcode"`
		Price       *float64    `json:"price"`
		Amount      *float64    `json:"amount"`
	} `json:"lines"`
}

// ListOrders walks the last year of orders.
func (a *TrendyolAdapter) ListOrders(ctx context.Context, creds domain.Credentials) ([]domain.OrderUpsert, error) {
	ty, err := trendyolCreds(creds)
	if err != nil {
		return nil, err
	}

	end := a.now()
	start := end.AddDate(0, 0, -trendyolOrderWindowDays)

	var out []domain.OrderUpsert
	for page := 0; page < trendyolMaxOrderPages; page++ {
		q := url.Values{
			"startDate": {strconv.FormatInt(start.Unix(), 10)},
			"endDate":   {strconv.FormatInt(end.Unix(), 10)},
			"page":      {strconv.Itoa(page)},
			"size":      {strconv.Itoa(trendyolPageSize)},
		}
		var batch trendyolPage[json.RawMessage]
		if err := fetchJSON(ctx, a.client, a.apigwBase+"/order/sellers/"+ty.SellerID+"/orders", q, ty.APIKey, ty.APISecret, &batch); err != nil {
			return nil, err
		}
		for _, raw := range batch.Content {
			var o trendyolOrder
			if err := json.Unmarshal(raw, &o); err != nil {
				return nil, fmt.Errorf("%w: decode order: %v", domain.ErrUpstream, err)
			}
			out = append(out, trendyolOrderUpsert(o, raw))
		}
		if len(batch.Content) < trendyolPageSize {
			break
		}
	}
	return out, nil
}

func trendyolOrderUpsert(o trendyolOrder, raw json.RawMessage) domain.OrderUpsert {
	externalID := o.OrderNumber
	if externalID == "" {
		externalID = o.ID.String()
	}

	up := domain.OrderUpsert{
		ExternalID:   externalID,
		Status:       o.Status,
		BuyerName:    optString(o.CustomerName),
		BuyerEmail:   optString(o.CustomerEmail),
		ShippingName: optString(o.ShipmentAddress.FullName),
		ShippingCity: optString(o.ShipmentAddress.City),
		ShippingDist: optString(o.ShipmentAddress.District),
		Raw:          raw,
	}
	if o.OrderDate != nil {
		// order dates arrive as epoch milliseconds
		placed := time.UnixMilli(*o.OrderDate).UTC().Format(time.RFC3339)
		up.PlacedAt = &placed
	}
	if o.GrossAmount != nil {
		up.TotalAmount = amountFromFloat(*o.GrossAmount)
	}
	for _, line := range o.Lines {
		item := domain.OrderItemUpsert{
			Title:       optString(line.ProductName),
			Quantity:    line.Quantity,
			MerchantSku: optString(line.MerchantSku),
			Barcode:     optString(line.Barcode),
		}
		if id := line.ID.String(); id != "" && id != "0" {
			item.ExternalID = &id
		}
		if line.Price != nil {
			item.UnitPrice = amountFromFloat(*line.Price)
		}
		if line.Amount != nil {
			item.TotalPrice = amountFromFloat(*line.Amount)
		}
		up.Items = append(up.Items, item)
	}
	return up
}
