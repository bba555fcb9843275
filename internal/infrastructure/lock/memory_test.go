package lock

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bali7319/marketplace-core/internal/domain"
)

func TestMemoryLocker(t *testing.T) {
	l := NewMemoryLocker()
	ctx := context.Background()

	release, err := l.TryLock(ctx, "conn-1")
	require.NoError(t, err)

	// held key fails fast
	_, err = l.TryLock(ctx, "conn-1")
	require.ErrorIs(t, err, domain.ErrSyncInProgress)

	// other keys are independent
	otherRelease, err := l.TryLock(ctx, "conn-2")
	require.NoError(t, err)
	otherRelease()

	release()
	release() // double release is harmless

	again, err := l.TryLock(ctx, "conn-1")
	require.NoError(t, err)
	again()
}
