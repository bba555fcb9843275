package application

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bali7319/marketplace-core/internal/domain"
)

func TestSyncService_SyncProviderReplacesMirror(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	conn, err := env.connections.Create(ctx, wooCreateInput())
	require.NoError(t, err)

	env.registry.adapters[domain.ProviderWooCommerce] = &fakeAdapter{
		provider: domain.ProviderWooCommerce,
		products: func(ctx context.Context, creds domain.Credentials) ([]domain.ProductUpsert, error) {
			// adapter receives the decrypted credentials
			require.NotNil(t, creds.REST)
			assert.Equal(t, "ck_0123456789", creds.REST.ConsumerKey)
			return []domain.ProductUpsert{
				{ExternalID: "42", Price: domain.Amount("199.90"), Stock: intPtr(3)},
			}, nil
		},
		orders: func(ctx context.Context, creds domain.Credentials) ([]domain.OrderUpsert, error) {
			return []domain.OrderUpsert{{ExternalID: "1001", Status: "processing"}}, nil
		},
	}

	outcome, err := env.sync.SyncProvider(ctx, domain.ProviderWooCommerce)
	require.NoError(t, err)
	assert.Equal(t, 1, outcome.Products)
	assert.Equal(t, 1, outcome.Orders)

	products, err := env.store.ListProducts(ctx, domain.CatalogQuery{ConnectionID: conn.ID})
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, conn.ID+":42", products[0].ID)

	got, err := env.connections.Get(ctx, conn.ID)
	require.NoError(t, err)
	assert.True(t, got.LastTestOk)
	assert.Nil(t, got.LastError)
}

func TestSyncService_FailedFetchLeavesMirrorUntouched(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	conn, err := env.connections.Create(ctx, wooCreateInput())
	require.NoError(t, err)

	// seed the mirror with a successful sync
	env.registry.adapters[domain.ProviderWooCommerce] = &fakeAdapter{
		provider: domain.ProviderWooCommerce,
		products: func(context.Context, domain.Credentials) ([]domain.ProductUpsert, error) {
			return []domain.ProductUpsert{{ExternalID: "42"}}, nil
		},
	}
	_, err = env.sync.SyncProvider(ctx, domain.ProviderWooCommerce)
	require.NoError(t, err)

	// products succeed, orders fail: nothing may be replaced
	env.registry.adapters[domain.ProviderWooCommerce] = &fakeAdapter{
		provider: domain.ProviderWooCommerce,
		products: func(context.Context, domain.Credentials) ([]domain.ProductUpsert, error) {
			return []domain.ProductUpsert{{ExternalID: "new"}}, nil
		},
		orders: func(context.Context, domain.Credentials) ([]domain.OrderUpsert, error) {
			return nil, fmt.Errorf("%w: HTTP 500", domain.ErrUpstream)
		},
	}

	_, err = env.sync.SyncProvider(ctx, domain.ProviderWooCommerce)
	require.ErrorIs(t, err, domain.ErrUpstream)

	products, err := env.store.ListProducts(ctx, domain.CatalogQuery{ConnectionID: conn.ID})
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, conn.ID+":42", products[0].ID)

	// failure recorded on the health trail
	got, err := env.connections.Get(ctx, conn.ID)
	require.NoError(t, err)
	assert.False(t, got.LastTestOk)
	require.NotNil(t, got.LastError)
	assert.Contains(t, *got.LastError, "HTTP 500")
}

func TestSyncService_ConcurrentReplaceFailsFast(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	conn, err := env.connections.Create(ctx, wooCreateInput())
	require.NoError(t, err)

	env.registry.adapters[domain.ProviderWooCommerce] = &fakeAdapter{
		provider: domain.ProviderWooCommerce,
	}

	// hold the per-connection lock as a competing replace would
	release, err := env.sync.locker.TryLock(ctx, conn.ID)
	require.NoError(t, err)
	defer release()

	_, err = env.sync.SyncProvider(ctx, domain.ProviderWooCommerce)
	require.ErrorIs(t, err, domain.ErrSyncInProgress)

	// a lock collision leaves no health trail
	got, err := env.connections.Get(ctx, conn.ID)
	require.NoError(t, err)
	assert.Nil(t, got.LastTestAt)
}

func TestSyncService_TestConnectionRecordsOutcome(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	conn, err := env.connections.Create(ctx, wooCreateInput())
	require.NoError(t, err)

	env.registry.adapters[domain.ProviderWooCommerce] = &fakeAdapter{
		provider: domain.ProviderWooCommerce,
		test: func(context.Context, domain.Credentials) error {
			return fmt.Errorf("%w: HTTP 401: invalid consumer key", domain.ErrUpstream)
		},
	}

	err = env.sync.TestConnection(ctx, conn.ID)
	require.Error(t, err)

	got, err := env.connections.Get(ctx, conn.ID)
	require.NoError(t, err)
	assert.False(t, got.LastTestOk)
	require.NotNil(t, got.LastError)
	assert.Contains(t, *got.LastError, "HTTP 401")
}
