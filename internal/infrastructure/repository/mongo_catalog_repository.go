package repository

import (
	"context"
	"fmt"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/bali7319/marketplace-core/internal/domain"
	"github.com/bali7319/marketplace-core/internal/infrastructure/repository/entity"
	"github.com/bali7319/marketplace-core/internal/ports"
)

// MongoCatalogRepository implements CatalogRepository using MongoDB.
// Replace-for-connection is delete-old-set, insert-new-set; callers
// hold the per-connection lock while it runs.
type MongoCatalogRepository struct {
	products *mongo.Collection
	orders   *mongo.Collection
}

// NewMongoCatalogRepository creates a new MongoDB catalog repository.
func NewMongoCatalogRepository(db *mongo.Database) ports.CatalogRepository {
	return &MongoCatalogRepository{
		products: db.Collection("marketplace_products"),
		orders:   db.Collection("marketplace_orders"),
	}
}

// ReplaceProductsForConnection substitutes the connection's product set.
func (r *MongoCatalogRepository) ReplaceProductsForConnection(ctx context.Context, connectionID string, products []*domain.Product) error {
	if _, err := r.products.DeleteMany(ctx, bson.M{"connectionId": connectionID}); err != nil {
		return fmt.Errorf("delete products: %w", err)
	}
	if len(products) == 0 {
		return nil
	}

	docs := make([]interface{}, 0, len(products))
	for _, p := range products {
		docs = append(docs, entity.MongoProductDocFromDomain(p))
	}
	if _, err := r.products.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("insert products: %w", err)
	}
	return nil
}

// ReplaceOrdersForConnection substitutes the connection's order set.
func (r *MongoCatalogRepository) ReplaceOrdersForConnection(ctx context.Context, connectionID string, orders []*domain.Order) error {
	if _, err := r.orders.DeleteMany(ctx, bson.M{"connectionId": connectionID}); err != nil {
		return fmt.Errorf("delete orders: %w", err)
	}
	if len(orders) == 0 {
		return nil
	}

	docs := make([]interface{}, 0, len(orders))
	for _, o := range orders {
		docs = append(docs, entity.MongoOrderDocFromDomain(o))
	}
	if _, err := r.orders.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("insert orders: %w", err)
	}
	return nil
}

// ListProducts retrieves mirrored products matching the query.
func (r *MongoCatalogRepository) ListProducts(ctx context.Context, q domain.CatalogQuery) ([]*domain.Product, error) {
	filter := bson.M{}
	if q.ConnectionID != "" {
		filter["connectionId"] = q.ConnectionID
	}
	if q.Q != "" {
		needle := primitive.Regex{Pattern: regexp.QuoteMeta(q.Q), Options: "i"}
		filter["$or"] = bson.A{
			bson.M{"merchantSku": needle},
			bson.M{"barcode": needle},
			bson.M{"title": needle},
			bson.M{"externalId": needle},
		}
	}

	cursor, err := r.products.Find(ctx, filter, findLimit(q.Limit))
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer cursor.Close(ctx)

	var products []*domain.Product
	for cursor.Next(ctx) {
		var doc entity.MongoProductDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode product: %w", err)
		}
		products = append(products, doc.ToDomain())
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return products, nil
}

// ListOrders retrieves mirrored orders matching the query.
func (r *MongoCatalogRepository) ListOrders(ctx context.Context, q domain.CatalogQuery) ([]*domain.Order, error) {
	filter := bson.M{}
	if q.ConnectionID != "" {
		filter["connectionId"] = q.ConnectionID
	}
	if q.Status != "" {
		filter["status"] = q.Status
	}
	if q.Q != "" {
		needle := primitive.Regex{Pattern: regexp.QuoteMeta(q.Q), Options: "i"}
		filter["$or"] = bson.A{
			bson.M{"externalId": needle},
			bson.M{"buyerName": needle},
			bson.M{"buyerEmail": needle},
			bson.M{"shippingName": needle},
		}
	}

	cursor, err := r.orders.Find(ctx, filter, findLimit(q.Limit))
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer cursor.Close(ctx)

	var orders []*domain.Order
	for cursor.Next(ctx) {
		var doc entity.MongoOrderDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode order: %w", err)
		}
		orders = append(orders, doc.ToDomain())
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return orders, nil
}

func findLimit(limit int) *options.FindOptions {
	if limit <= 0 {
		limit = 100
	}
	return options.Find().SetLimit(int64(limit))
}
