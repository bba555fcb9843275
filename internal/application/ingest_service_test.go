package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bali7319/marketplace-core/internal/domain"
)

func TestIngestService_AppliesBatch(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	conn, err := env.connections.Create(ctx, wooCreateInput())
	require.NoError(t, err)

	fetchedAt := "2026-02-10T11:59:00Z"
	version := "1.4.2"
	outcome, err := env.ingest.Ingest(ctx, domain.ProviderWooCommerce, IngestRequest{
		ProductsUpserts: []domain.ProductUpsert{
			{ExternalID: "42", Price: domain.Amount("199.90"), Stock: intPtr(3)},
		},
		OrdersUpserts: []domain.OrderUpsert{
			{ExternalID: "1001", Status: "processing"},
		},
		FetchedAt:    &fetchedAt,
		AgentVersion: &version,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, outcome.Products)
	assert.Equal(t, 1, outcome.Orders)

	products, err := env.store.ListProducts(ctx, domain.CatalogQuery{ConnectionID: conn.ID})
	require.NoError(t, err)
	require.Len(t, products, 1)
	require.NotNil(t, products[0].Price)
	assert.Equal(t, "199.90", *products[0].Price)

	got, err := env.connections.Get(ctx, conn.ID)
	require.NoError(t, err)
	assert.True(t, got.LastTestOk)
	assert.Equal(t, fetchedAt, got.Metadata["lastIngestFetchedAt"])
	assert.Equal(t, version, got.Metadata["lastIngestAgentVersion"])
	assert.NotEmpty(t, got.Metadata["lastIngestAt"])
	counts, ok := got.Metadata["lastIngestCounts"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 1, counts["products"])
	assert.Equal(t, 1, counts["orders"])
}

func TestIngestService_EmptyBatchClearsMirror(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	conn, err := env.connections.Create(ctx, wooCreateInput())
	require.NoError(t, err)

	_, err = env.ingest.Ingest(ctx, domain.ProviderWooCommerce, IngestRequest{
		ProductsUpserts: []domain.ProductUpsert{{ExternalID: "42"}},
	})
	require.NoError(t, err)

	outcome, err := env.ingest.Ingest(ctx, domain.ProviderWooCommerce, IngestRequest{})
	require.NoError(t, err)
	assert.Equal(t, 0, outcome.Products)

	products, err := env.store.ListProducts(ctx, domain.CatalogQuery{ConnectionID: conn.ID})
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestIngestService_Guardrails(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.connections.Create(ctx, wooCreateInput())
	require.NoError(t, err)

	big := make([]domain.ProductUpsert, MaxIngestProducts+1)
	for i := range big {
		big[i] = domain.ProductUpsert{ExternalID: "p"}
	}

	_, err = env.ingest.Ingest(ctx, domain.ProviderWooCommerce, IngestRequest{ProductsUpserts: big})
	require.ErrorIs(t, err, domain.ErrGuardrail)

	// the rejected batch left no trace
	got, err := env.connections.GetByProvider(ctx, domain.ProviderWooCommerce)
	require.NoError(t, err)
	assert.Nil(t, got.LastTestAt)
	assert.Nil(t, got.Metadata["lastIngestAt"])
}

func TestIngestService_UnknownConnection(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.ingest.Ingest(context.Background(), domain.ProviderPazarama, IngestRequest{})
	require.ErrorIs(t, err, domain.ErrNotFound)
}
