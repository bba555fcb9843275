package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/bali7319/marketplace-core/internal/domain"
	"github.com/bali7319/marketplace-core/internal/infrastructure/repository/entity"
	"github.com/bali7319/marketplace-core/internal/ports"
)

// MongoConnectionRepository implements ConnectionRepository using MongoDB.
type MongoConnectionRepository struct {
	collection *mongo.Collection
}

// NewMongoConnectionRepository creates a new MongoDB connection
// repository and ensures the unique provider index, so the
// one-connection-per-provider invariant holds in storage as well as in
// the registry.
func NewMongoConnectionRepository(ctx context.Context, db *mongo.Database) (ports.ConnectionRepository, error) {
	collection := db.Collection("marketplace_connections")

	indexModel := mongo.IndexModel{
		Keys:    bson.D{{Key: "provider", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := collection.Indexes().CreateOne(ctx, indexModel); err != nil {
		return nil, fmt.Errorf("create provider index: %w", err)
	}

	return &MongoConnectionRepository{collection: collection}, nil
}

// List retrieves all connections ordered by provider and name.
func (r *MongoConnectionRepository) List(ctx context.Context) ([]*domain.Connection, error) {
	opts := options.Find().SetSort(bson.D{{Key: "provider", Value: 1}, {Key: "name", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list connections: %w", err)
	}
	defer cursor.Close(ctx)

	var connections []*domain.Connection
	for cursor.Next(ctx) {
		var doc entity.MongoConnectionDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode connection: %w", err)
		}
		connections = append(connections, doc.ToDomain())
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return connections, nil
}

// Get retrieves a connection by id.
func (r *MongoConnectionRepository) Get(ctx context.Context, id string) (*domain.Connection, error) {
	var doc entity.MongoConnectionDoc
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get connection: %w", err)
	}
	return doc.ToDomain(), nil
}

// GetByProvider retrieves the provider's connection, nil when absent.
func (r *MongoConnectionRepository) GetByProvider(ctx context.Context, provider domain.Provider) (*domain.Connection, error) {
	var doc entity.MongoConnectionDoc
	err := r.collection.FindOne(ctx, bson.M{"provider": provider.String()}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get connection by provider: %w", err)
	}
	return doc.ToDomain(), nil
}

// Create inserts a new connection. The unique provider index turns a
// racing duplicate insert into an error instead of a second row.
func (r *MongoConnectionRepository) Create(ctx context.Context, conn *domain.Connection) error {
	doc := entity.MongoConnectionDocFromDomain(conn)
	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: a connection for provider %s already exists", domain.ErrValidation, conn.Provider)
		}
		return fmt.Errorf("create connection: %w", err)
	}
	return nil
}

// Update replaces the stored document for the connection.
func (r *MongoConnectionRepository) Update(ctx context.Context, conn *domain.Connection) error {
	doc := entity.MongoConnectionDocFromDomain(conn)
	result, err := r.collection.ReplaceOne(ctx, bson.M{"_id": conn.ID}, doc)
	if err != nil {
		return fmt.Errorf("update connection: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("%w: connection %s", domain.ErrNotFound, conn.ID)
	}
	return nil
}

// Delete removes a connection by id.
func (r *MongoConnectionRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.collection.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("delete connection: %w", err)
	}
	return nil
}
