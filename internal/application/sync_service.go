package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/bali7319/marketplace-core/internal/domain"
	"github.com/bali7319/marketplace-core/internal/ports"
)

// SyncService runs the admin-triggered pull path and owns the locked
// replace-for-connection step both paths share.
type SyncService struct {
	connections *ConnectionService
	catalog     ports.CatalogRepository
	adapters    ports.AdapterRegistry
	locker      ports.ConnLocker
	logger      zerolog.Logger
}

// NewSyncService creates the sync orchestrator.
func NewSyncService(
	connections *ConnectionService,
	catalog ports.CatalogRepository,
	adapters ports.AdapterRegistry,
	locker ports.ConnLocker,
	logger zerolog.Logger,
) *SyncService {
	return &SyncService{
		connections: connections,
		catalog:     catalog,
		adapters:    adapters,
		locker:      locker,
		logger:      logger,
	}
}

// SyncOutcome reports how many rows a completed cycle wrote.
type SyncOutcome struct {
	ConnectionID string
	Products     int
	Orders       int
}

// SyncProvider pulls the provider's full catalog and substitutes the
// local mirror. Any failure aborts before the replace step and is
// recorded on the connection; no partial catalog is ever committed.
func (s *SyncService) SyncProvider(ctx context.Context, provider domain.Provider) (*SyncOutcome, error) {
	conn, err := s.connections.GetByProvider(ctx, provider)
	if err != nil {
		return nil, err
	}

	outcome, err := s.pull(ctx, conn)
	if err != nil {
		if errors.Is(err, domain.ErrSyncInProgress) {
			// Another attempt holds the lock; its result will land on the
			// connection, so this one leaves no trail.
			return nil, err
		}
		if markErr := s.connections.MarkSyncResult(ctx, conn.ID, false, err.Error()); markErr != nil {
			s.logger.Error().Err(markErr).
				Str("connectionId", conn.ID).
				Msg("Failed to record sync failure")
		}
		return nil, err
	}

	if err := s.connections.MarkSyncResult(ctx, conn.ID, true, ""); err != nil {
		s.logger.Error().Err(err).
			Str("connectionId", conn.ID).
			Msg("Failed to record sync success")
	}

	s.logger.Info().
		Str("provider", provider.String()).
		Str("connectionId", conn.ID).
		Int("products", outcome.Products).
		Int("orders", outcome.Orders).
		Msg("Sync completed")
	return outcome, nil
}

func (s *SyncService) pull(ctx context.Context, conn *domain.Connection) (*SyncOutcome, error) {
	creds, err := s.connections.DecryptCredentials(conn)
	if err != nil {
		return nil, err
	}

	adapter, err := s.adapters.Adapter(conn.Provider)
	if err != nil {
		return nil, err
	}

	// Products and orders are independent reads; fetch them concurrently.
	var (
		productUpserts []domain.ProductUpsert
		orderUpserts   []domain.OrderUpsert
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		productUpserts, err = adapter.ListProducts(gctx, creds)
		if err != nil {
			return fmt.Errorf("list products: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		orderUpserts, err = adapter.ListOrders(gctx, creds)
		if err != nil {
			return fmt.Errorf("list orders: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	products := MapProducts(conn, productUpserts, time.Now().UTC())
	orders := MapOrders(conn, orderUpserts)

	if err := s.ReplaceCatalog(ctx, conn.ID, products, orders); err != nil {
		return nil, err
	}

	return &SyncOutcome{
		ConnectionID: conn.ID,
		Products:     len(products),
		Orders:       len(orders),
	}, nil
}

// ReplaceCatalog substitutes the connection's full product and order
// sets under the per-connection lock. At most one replace is in flight
// per connection; a concurrent attempt fails fast with
// domain.ErrSyncInProgress instead of interleaving.
func (s *SyncService) ReplaceCatalog(ctx context.Context, connectionID string, products []*domain.Product, orders []*domain.Order) error {
	release, err := s.locker.TryLock(ctx, connectionID)
	if err != nil {
		return err
	}
	defer release()

	if err := s.catalog.ReplaceProductsForConnection(ctx, connectionID, products); err != nil {
		return fmt.Errorf("replace products: %w", err)
	}
	if err := s.catalog.ReplaceOrdersForConnection(ctx, connectionID, orders); err != nil {
		return fmt.Errorf("replace orders: %w", err)
	}
	return nil
}

// TestConnection runs the adapter's lightweight authenticated call and
// records the outcome on the connection.
func (s *SyncService) TestConnection(ctx context.Context, connectionID string) error {
	conn, err := s.connections.Get(ctx, connectionID)
	if err != nil {
		return err
	}

	testErr := s.test(ctx, conn)
	errText := ""
	if testErr != nil {
		errText = testErr.Error()
	}
	if markErr := s.connections.MarkSyncResult(ctx, conn.ID, testErr == nil, errText); markErr != nil {
		s.logger.Error().Err(markErr).
			Str("connectionId", conn.ID).
			Msg("Failed to record connection test result")
	}
	return testErr
}

func (s *SyncService) test(ctx context.Context, conn *domain.Connection) error {
	creds, err := s.connections.DecryptCredentials(conn)
	if err != nil {
		return err
	}
	adapter, err := s.adapters.Adapter(conn.Provider)
	if err != nil {
		return err
	}
	return adapter.TestConnection(ctx, creds)
}
