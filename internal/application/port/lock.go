package port

import (
	"context"
	"errors"
)

// ErrLockHeld is returned by RunLock.Acquire when another run holds the lock
var ErrLockHeld = errors.New("another invoicing run holds the lock")

// Release gives a held run lock back.
type Release func(ctx context.Context) error

// RunLock serializes commit runs across processes. It fails fast instead of
// queueing: a commit that cannot take the lock reports busy. Locking is an
// optimization — the per-item claim in the ledger stays the correctness
// backstop when the lock is disabled or expires mid-run.
type RunLock interface {
	Acquire(ctx context.Context) (Release, error)
}
