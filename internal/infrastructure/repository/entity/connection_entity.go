package entity

import (
	"time"

	"github.com/bali7319/marketplace-core/internal/domain"
)

// MongoConnectionDoc represents a marketplace connection in MongoDB.
type MongoConnectionDoc struct {
	ID              string         `bson:"_id"`
	Provider        string         `bson:"provider"`
	Name            string         `bson:"name"`
	IsActive        bool           `bson:"isActive"`
	CredentialsEnc  string         `bson:"credentialsEnc"`
	CredentialsHint string         `bson:"credentialsHint,omitempty"`
	Metadata        map[string]any `bson:"metadata,omitempty"`
	LastTestAt      *time.Time     `bson:"lastTestAt,omitempty"`
	LastTestOk      bool           `bson:"lastTestOk"`
	LastError       *string        `bson:"lastError,omitempty"`
	CreatedAt       time.Time      `bson:"createdAt"`
	UpdatedAt       time.Time      `bson:"updatedAt"`
}

// ToDomain converts the MongoDB document to a domain entity.
func (d *MongoConnectionDoc) ToDomain() *domain.Connection {
	return &domain.Connection{
		ID:              d.ID,
		Provider:        domain.Provider(d.Provider),
		Name:            d.Name,
		IsActive:        d.IsActive,
		CredentialsEnc:  d.CredentialsEnc,
		CredentialsHint: d.CredentialsHint,
		Metadata:        d.Metadata,
		LastTestAt:      d.LastTestAt,
		LastTestOk:      d.LastTestOk,
		LastError:       d.LastError,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
}

// MongoConnectionDocFromDomain converts a domain entity to a MongoDB document.
func MongoConnectionDocFromDomain(conn *domain.Connection) *MongoConnectionDoc {
	return &MongoConnectionDoc{
		ID:              conn.ID,
		Provider:        conn.Provider.String(),
		Name:            conn.Name,
		IsActive:        conn.IsActive,
		CredentialsEnc:  conn.CredentialsEnc,
		CredentialsHint: conn.CredentialsHint,
		Metadata:        conn.Metadata,
		LastTestAt:      conn.LastTestAt,
		LastTestOk:      conn.LastTestOk,
		LastError:       conn.LastError,
		CreatedAt:       conn.CreatedAt,
		UpdatedAt:       conn.UpdatedAt,
	}
}
