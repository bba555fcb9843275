package ports

import "context"

// ConnLocker serializes replace operations per connection. TryLock
// either acquires the lock immediately or reports that a sync is
// already in flight; it never blocks behind a running attempt.
type ConnLocker interface {
	TryLock(ctx context.Context, connectionID string) (release func(), err error)
}
