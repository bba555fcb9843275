package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/bali7319/marketplace-core/internal/application"
	"github.com/bali7319/marketplace-core/internal/domain"
	"github.com/bali7319/marketplace-core/internal/infrastructure/metrics"
	"github.com/bali7319/marketplace-core/internal/ports"
)

// Handler carries the wired services for the HTTP surface.
type Handler struct {
	connections *application.ConnectionService
	sync        *application.SyncService
	ingest      *application.IngestService
	catalog     ports.CatalogRepository
	metrics     *metrics.Metrics
	validate    *validator.Validate
	logger      zerolog.Logger
}

// NewHandler creates the HTTP handler set.
func NewHandler(
	connections *application.ConnectionService,
	sync *application.SyncService,
	ingest *application.IngestService,
	catalog ports.CatalogRepository,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *Handler {
	return &Handler{
		connections: connections,
		sync:        sync,
		ingest:      ingest,
		catalog:     catalog,
		metrics:     m,
		validate:    validator.New(),
		logger:      logger,
	}
}

// Routes mounts the agent and admin surfaces behind their middlewares.
func (h *Handler) Routes(agentAuth, adminAuth func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(agentAuth)
		r.Post("/{provider}/ingest", h.Ingest)
		r.Get("/{provider}/config", h.AgentConfig)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(adminAuth)
		r.Post("/{provider}/sync", h.SyncProvider)

		r.Route("/connections", func(r chi.Router) {
			r.Get("/", h.ListConnections)
			r.Post("/", h.CreateConnection)
			r.Get("/provider/{provider}", h.GetConnectionByProvider)
			r.Get("/{id}", h.GetConnection)
			r.Put("/{id}", h.UpdateConnection)
			r.Delete("/{id}", h.DeleteConnection)
			r.Post("/{id}/test", h.TestConnection)
		})

		r.Get("/products", h.ListProducts)
		r.Get("/orders", h.ListOrders)
	})

	return r
}

func providerParam(r *http.Request) (domain.Provider, error) {
	return domain.ParseProvider(chi.URLParam(r, "provider"))
}

type syncResponse struct {
	Ok       bool `json:"ok"`
	Products int  `json:"products"`
	Orders   int  `json:"orders"`
}

// Ingest applies one agent batch for a provider.
func (h *Handler) Ingest(w http.ResponseWriter, r *http.Request) {
	provider, err := providerParam(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	var req application.IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, fmt.Errorf("%w: invalid request body: %v", domain.ErrValidation, err))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, h.logger, fmt.Errorf("%w: %v", domain.ErrValidation, err))
		return
	}

	start := time.Now()
	outcome, err := h.ingest.Ingest(r.Context(), provider, req)
	h.observeSync(provider, "push", start, err)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.metrics.IngestBatchSize.WithLabelValues(provider.String(), "products").Observe(float64(outcome.Products))
	h.metrics.IngestBatchSize.WithLabelValues(provider.String(), "orders").Observe(float64(outcome.Orders))
	writeJSON(w, http.StatusOK, syncResponse{Ok: true, Products: outcome.Products, Orders: outcome.Orders})
}

type agentConfigResponse struct {
	Provider    domain.Provider    `json:"provider"`
	Connection  *domain.Connection `json:"connection"`
	Credentials map[string]string  `json:"credentials"`
}

// AgentConfig hands an agent the provider's decrypted credentials so it
// can fetch the catalog itself. Inactive connections are refused.
func (h *Handler) AgentConfig(w http.ResponseWriter, r *http.Request) {
	provider, err := providerParam(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	conn, err := h.connections.GetByProvider(r.Context(), provider)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if !conn.IsActive {
		writeJSON(w, http.StatusConflict, errorResponse{Error: fmt.Sprintf("connection for %s is inactive", provider)})
		return
	}

	creds, err := h.connections.DecryptCredentials(conn)
	if err != nil {
		writeError(w, h.logger, fmt.Errorf("decrypt credentials (is the encryption key stable?): %w", err))
		return
	}

	writeJSON(w, http.StatusOK, agentConfigResponse{
		Provider:    provider,
		Connection:  conn,
		Credentials: creds.PlainMap(),
	})
}

// SyncProvider runs the admin pull path for a provider.
func (h *Handler) SyncProvider(w http.ResponseWriter, r *http.Request) {
	provider, err := providerParam(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	start := time.Now()
	outcome, err := h.sync.SyncProvider(r.Context(), provider)
	h.observeSync(provider, "pull", start, err)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, syncResponse{Ok: true, Products: outcome.Products, Orders: outcome.Orders})
}

func (h *Handler) observeSync(provider domain.Provider, path string, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	h.metrics.SyncAttempts.WithLabelValues(provider.String(), path, outcome).Inc()
	h.metrics.SyncDuration.WithLabelValues(provider.String(), path).Observe(time.Since(start).Seconds())
}

// ListConnections returns every connection, credentials omitted.
func (h *Handler) ListConnections(w http.ResponseWriter, r *http.Request) {
	conns, err := h.connections.List(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if conns == nil {
		conns = []*domain.Connection{}
	}
	writeJSON(w, http.StatusOK, conns)
}

type createConnectionRequest struct {
	Provider    string         `json:"provider" validate:"required"`
	Name        string         `json:"name"`
	IsActive    *bool          `json:"isActive"`
	Credentials map[string]any `json:"credentials" validate:"required"`
	Metadata    map[string]any `json:"metadata"`
}

// CreateConnection registers (or merge-updates) the provider's connection.
func (h *Handler) CreateConnection(w http.ResponseWriter, r *http.Request) {
	var req createConnectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, fmt.Errorf("%w: invalid request body: %v", domain.ErrValidation, err))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, h.logger, fmt.Errorf("%w: %v", domain.ErrValidation, err))
		return
	}

	provider, err := domain.ParseProvider(req.Provider)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	name := req.Name
	if name == "" {
		name = provider.String()
	}
	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	conn, err := h.connections.Create(r.Context(), application.CreateConnectionInput{
		Provider:    provider,
		Name:        name,
		IsActive:    isActive,
		Credentials: req.Credentials,
		Metadata:    req.Metadata,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, conn)
}

// GetConnection returns one connection by id.
func (h *Handler) GetConnection(w http.ResponseWriter, r *http.Request) {
	conn, err := h.connections.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, conn)
}

type maskedConnectionResponse struct {
	Connection  *domain.Connection `json:"connection"`
	Credentials domain.MaskedView  `json:"credentials"`
}

// GetConnectionByProvider returns the provider's connection with the
// masked credential view for the admin panel.
func (h *Handler) GetConnectionByProvider(w http.ResponseWriter, r *http.Request) {
	provider, err := providerParam(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	conn, err := h.connections.GetByProvider(r.Context(), provider)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	resp := maskedConnectionResponse{Connection: conn}
	if creds, err := h.connections.DecryptCredentials(conn); err == nil {
		resp.Credentials = creds.Masked()
	} else {
		h.logger.Warn().Err(err).Str("connectionId", conn.ID).Msg("Stored credentials unreadable, masking skipped")
	}
	writeJSON(w, http.StatusOK, resp)
}

type updateConnectionRequest struct {
	Name        *string        `json:"name"`
	IsActive    *bool          `json:"isActive"`
	Credentials map[string]any `json:"credentials"`
	Metadata    map[string]any `json:"metadata"`
}

// UpdateConnection patches a connection. Blank credential fields keep
// their stored values.
func (h *Handler) UpdateConnection(w http.ResponseWriter, r *http.Request) {
	var req updateConnectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, fmt.Errorf("%w: invalid request body: %v", domain.ErrValidation, err))
		return
	}

	conn, err := h.connections.Update(r.Context(), chi.URLParam(r, "id"), application.UpdateConnectionInput{
		Name:        req.Name,
		IsActive:    req.IsActive,
		Credentials: req.Credentials,
		Metadata:    req.Metadata,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, conn)
}

// DeleteConnection removes a connection.
func (h *Handler) DeleteConnection(w http.ResponseWriter, r *http.Request) {
	if err := h.connections.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type testConnectionResponse struct {
	Ok    bool    `json:"ok"`
	Error *string `json:"error,omitempty"`
}

// TestConnection probes the provider with the stored credentials and
// records the outcome on the connection's health trail.
func (h *Handler) TestConnection(w http.ResponseWriter, r *http.Request) {
	err := h.sync.TestConnection(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		msg := err.Error()
		writeJSON(w, http.StatusOK, testConnectionResponse{Ok: false, Error: &msg})
		return
	}
	writeJSON(w, http.StatusOK, testConnectionResponse{Ok: true})
}

func catalogQuery(r *http.Request) domain.CatalogQuery {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	return domain.CatalogQuery{
		ConnectionID: q.Get("connectionId"),
		Q:            q.Get("q"),
		Status:       q.Get("status"),
		Limit:        limit,
	}
}

// ListProducts browses the mirrored products.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.ListProducts(r.Context(), catalogQuery(r))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if products == nil {
		products = []*domain.Product{}
	}
	writeJSON(w, http.StatusOK, products)
}

// ListOrders browses the mirrored orders.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.catalog.ListOrders(r.Context(), catalogQuery(r))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if orders == nil {
		orders = []*domain.Order{}
	}
	writeJSON(w, http.StatusOK, orders)
}
