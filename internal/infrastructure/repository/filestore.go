package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/bali7319/marketplace-core/internal/domain"
)

// FileStore is a single-node store that keeps the whole mirror in
// memory and optionally snapshots it to a JSON file on every mutation.
// It exists so the service runs without a database (development, tests,
// small installs); production deployments use the Mongo repositories.
type FileStore struct {
	mu   sync.RWMutex
	path string

	connections []*domain.Connection
	products    []*domain.Product
	orders      []*domain.Order
}

// fileConnection re-exposes the encrypted credential blob, which the
// domain type hides from API responses but the snapshot must keep.
type fileConnection struct {
	*domain.Connection
	CredentialsEnc string `json:"credentialsEnc"`
}

type fileStoreData struct {
	Connections []*fileConnection `json:"connections"`
	Products    []*domain.Product `json:"products"`
	Orders      []*domain.Order   `json:"orders"`
}

func toFileConnections(conns []*domain.Connection) []*fileConnection {
	out := make([]*fileConnection, 0, len(conns))
	for _, c := range conns {
		out = append(out, &fileConnection{Connection: c, CredentialsEnc: c.CredentialsEnc})
	}
	return out
}

func fromFileConnections(conns []*fileConnection) []*domain.Connection {
	out := make([]*domain.Connection, 0, len(conns))
	for _, c := range conns {
		conn := c.Connection
		conn.CredentialsEnc = c.CredentialsEnc
		out = append(out, conn)
	}
	return out
}

// NewFileStore opens a store at path. An empty path keeps the store
// memory-only. A missing or unreadable file starts empty.
func NewFileStore(path string) (*FileStore, error) {
	s := &FileStore{path: path}
	if path == "" {
		return s, nil
	}

	buf, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("read store file: %w", err)
	}
	var data fileStoreData
	if err := json.Unmarshal(buf, &data); err != nil {
		return nil, fmt.Errorf("parse store file: %w", err)
	}
	s.connections = fromFileConnections(data.Connections)
	s.products = data.Products
	s.orders = data.Orders
	return s, nil
}

// persist writes the snapshot atomically: temp file, then rename.
// Caller holds the write lock.
func (s *FileStore) persist() error {
	if s.path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}
	payload, err := json.MarshalIndent(fileStoreData{
		Connections: toFileConnections(s.connections),
		Products:    s.products,
		Orders:      s.orders,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode store: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".store-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp store: %w", err)
	}
	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close store: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace store: %w", err)
	}
	return nil
}

func cloneConnection(c *domain.Connection) *domain.Connection {
	dup := *c
	if c.Metadata != nil {
		dup.Metadata = domain.MergeMetadata(c.Metadata, nil)
	}
	return &dup
}

// ---------------------------------------------------------------------------
// ConnectionRepository
// ---------------------------------------------------------------------------

func (s *FileStore) List(ctx context.Context) ([]*domain.Connection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.Connection, 0, len(s.connections))
	for _, c := range s.connections {
		out = append(out, cloneConnection(c))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Provider != out[j].Provider {
			return out[i].Provider < out[j].Provider
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (s *FileStore) Get(ctx context.Context, id string) (*domain.Connection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.connections {
		if c.ID == id {
			return cloneConnection(c), nil
		}
	}
	return nil, nil
}

func (s *FileStore) GetByProvider(ctx context.Context, provider domain.Provider) (*domain.Connection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.connections {
		if c.Provider == provider {
			return cloneConnection(c), nil
		}
	}
	return nil, nil
}

func (s *FileStore) Create(ctx context.Context, conn *domain.Connection) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.connections {
		if c.Provider == conn.Provider {
			return fmt.Errorf("%w: a connection for provider %s already exists", domain.ErrValidation, conn.Provider)
		}
	}
	s.connections = append(s.connections, cloneConnection(conn))
	return s.persist()
}

func (s *FileStore) Update(ctx context.Context, conn *domain.Connection) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, c := range s.connections {
		if c.ID == conn.ID {
			s.connections[i] = cloneConnection(conn)
			return s.persist()
		}
	}
	return fmt.Errorf("%w: connection %s", domain.ErrNotFound, conn.ID)
}

func (s *FileStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.connections[:0]
	for _, c := range s.connections {
		if c.ID != id {
			kept = append(kept, c)
		}
	}
	s.connections = kept
	return s.persist()
}

// ---------------------------------------------------------------------------
// CatalogRepository
// ---------------------------------------------------------------------------

func (s *FileStore) ReplaceProductsForConnection(ctx context.Context, connectionID string, products []*domain.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := make([]*domain.Product, 0, len(s.products)+len(products))
	for _, p := range s.products {
		if p.ConnectionID != connectionID {
			kept = append(kept, p)
		}
	}
	s.products = append(kept, products...)
	return s.persist()
}

func (s *FileStore) ReplaceOrdersForConnection(ctx context.Context, connectionID string, orders []*domain.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := make([]*domain.Order, 0, len(s.orders)+len(orders))
	for _, o := range s.orders {
		if o.ConnectionID != connectionID {
			kept = append(kept, o)
		}
	}
	s.orders = append(kept, orders...)
	return s.persist()
}

func (s *FileStore) ListProducts(ctx context.Context, q domain.CatalogQuery) ([]*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	limit := q.Limit
	if limit <= 0 {
		limit = 100
	}
	needle := strings.ToLower(strings.TrimSpace(q.Q))

	var out []*domain.Product
	for _, p := range s.products {
		if q.ConnectionID != "" && p.ConnectionID != q.ConnectionID {
			continue
		}
		if needle != "" &&
			!containsFold(p.MerchantSku, needle) &&
			!containsFold(p.Barcode, needle) &&
			!containsFold(p.Title, needle) &&
			!strings.Contains(strings.ToLower(p.ExternalID), needle) {
			continue
		}
		out = append(out, p)
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (s *FileStore) ListOrders(ctx context.Context, q domain.CatalogQuery) ([]*domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	limit := q.Limit
	if limit <= 0 {
		limit = 100
	}
	needle := strings.ToLower(strings.TrimSpace(q.Q))

	var out []*domain.Order
	for _, o := range s.orders {
		if q.ConnectionID != "" && o.ConnectionID != q.ConnectionID {
			continue
		}
		if q.Status != "" && o.Status != q.Status {
			continue
		}
		if needle != "" &&
			!strings.Contains(strings.ToLower(o.ExternalID), needle) &&
			!containsFold(o.Buyer.Name, needle) &&
			!containsFold(o.Buyer.Email, needle) &&
			!containsFold(o.Shipping.Name, needle) {
			continue
		}
		out = append(out, o)
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func containsFold(hay *string, needle string) bool {
	if hay == nil {
		return false
	}
	return strings.Contains(strings.ToLower(*hay), needle)
}
