package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/bali7319/marketplace-core/internal/domain"
)

// Batch size guardrails for one ingest call. Oversized payloads are
// rejected outright, never truncated.
const (
	MaxIngestProducts = 10000
	MaxIngestOrders   = 5000
)

// IngestRequest is the normalized batch an external agent pushes.
type IngestRequest struct {
	ProductsUpserts []domain.ProductUpsert `json:"productsUpserts" validate:"dive"`
	OrdersUpserts   []domain.OrderUpsert   `json:"ordersUpserts" validate:"dive"`
	FetchedAt       *string                `json:"fetchedAt,omitempty"`
	AgentVersion    *string                `json:"agentVersion,omitempty"`
}

// IngestService runs the push path: it maps an agent batch with the
// same mapper as the pull path and applies the same locked replace,
// then merges ingest bookkeeping into the connection metadata.
type IngestService struct {
	connections *ConnectionService
	sync        *SyncService
	logger      zerolog.Logger
}

// NewIngestService creates the ingest gateway service.
func NewIngestService(connections *ConnectionService, sync *SyncService, logger zerolog.Logger) *IngestService {
	return &IngestService{
		connections: connections,
		sync:        sync,
		logger:      logger,
	}
}

// Ingest applies one agent batch for a provider. Guardrail and
// not-found failures have zero side effects; failures past that point
// are recorded on the connection's health trail.
func (s *IngestService) Ingest(ctx context.Context, provider domain.Provider, req IngestRequest) (*SyncOutcome, error) {
	if len(req.ProductsUpserts) > MaxIngestProducts || len(req.OrdersUpserts) > MaxIngestOrders {
		return nil, fmt.Errorf("%w: got %d products and %d orders, caps are %d and %d",
			domain.ErrGuardrail, len(req.ProductsUpserts), len(req.OrdersUpserts), MaxIngestProducts, MaxIngestOrders)
	}

	conn, err := s.connections.GetByProvider(ctx, provider)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	products := MapProducts(conn, req.ProductsUpserts, now)
	orders := MapOrders(conn, req.OrdersUpserts)

	if err := s.sync.ReplaceCatalog(ctx, conn.ID, products, orders); err != nil {
		if errors.Is(err, domain.ErrSyncInProgress) {
			return nil, err
		}
		if markErr := s.connections.MarkSyncResult(ctx, conn.ID, false, err.Error()); markErr != nil {
			s.logger.Error().Err(markErr).
				Str("connectionId", conn.ID).
				Msg("Failed to record ingest failure")
		}
		return nil, err
	}

	if err := s.connections.MarkSyncResult(ctx, conn.ID, true, ""); err != nil {
		s.logger.Error().Err(err).
			Str("connectionId", conn.ID).
			Msg("Failed to record ingest success")
	}

	// Ingest bookkeeping merges into the existing metadata bag; it never
	// overwrites unrelated keys.
	meta := map[string]any{
		"lastIngestAt": now.Format(time.RFC3339),
		"lastIngestCounts": map[string]any{
			"products": len(products),
			"orders":   len(orders),
		},
	}
	if req.FetchedAt != nil {
		meta["lastIngestFetchedAt"] = *req.FetchedAt
	}
	if req.AgentVersion != nil {
		meta["lastIngestAgentVersion"] = *req.AgentVersion
	}
	if _, err := s.connections.Update(ctx, conn.ID, UpdateConnectionInput{Metadata: meta}); err != nil {
		s.logger.Error().Err(err).
			Str("connectionId", conn.ID).
			Msg("Failed to merge ingest metadata")
	}

	s.logger.Info().
		Str("provider", provider.String()).
		Str("connectionId", conn.ID).
		Int("products", len(products)).
		Int("orders", len(orders)).
		Msg("Ingest applied")

	return &SyncOutcome{
		ConnectionID: conn.ID,
		Products:     len(products),
		Orders:       len(orders),
	}, nil
}
