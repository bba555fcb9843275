package lock

import (
	"context"
	"fmt"
	"sync"

	"github.com/bali7319/marketplace-core/internal/domain"
	"github.com/bali7319/marketplace-core/internal/ports"
)

// MemoryLocker serializes catalog replacement per connection inside a
// single process. Fail-fast: a held key returns ErrSyncInProgress
// instead of queueing the caller.
type MemoryLocker struct {
	mu   sync.Mutex
	held map[string]struct{}
}

// NewMemoryLocker creates an in-process connection locker.
func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{held: make(map[string]struct{})}
}

// TryLock acquires the per-connection lock or fails immediately.
func (l *MemoryLocker) TryLock(ctx context.Context, connectionID string) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, busy := l.held[connectionID]; busy {
		return nil, fmt.Errorf("%w: connection %s", domain.ErrSyncInProgress, connectionID)
	}
	l.held[connectionID] = struct{}{}

	var once sync.Once
	release := func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, connectionID)
			l.mu.Unlock()
		})
	}
	return release, nil
}

var _ ports.ConnLocker = (*MemoryLocker)(nil)
