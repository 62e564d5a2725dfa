// SPDX-License-Identifier: MPL-2.0

package install

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/gofrs/flock"
)

const lockRetryDelay = 100 * time.Millisecond

// prefixLock holds an exclusive lock on a prefix's lock file. The lock file
// is left behind on release; an orphaned file holds no lock.
type prefixLock struct {
	fl *flock.Flock
}

// acquirePrefixLock blocks until the prefix lock is held or ctx is done.
func acquirePrefixLock(ctx context.Context, p Prefix) (*prefixLock, error) {
	if err := os.MkdirAll(string(p.Root()), 0o755); err != nil {
		return nil, fmt.Errorf("create prefix %s: %w", p.Root(), err)
	}

	fl := flock.New(string(p.lockPath()))
	locked, err := fl.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("lock prefix %s: %w", p.Root(), err)
	}
	if !locked {
		return nil, fmt.Errorf("lock prefix %s: %w", p.Root(), ctx.Err())
	}
	return &prefixLock{fl: fl}, nil
}

// Release unlocks the prefix. It is safe to call multiple times.
func (l *prefixLock) Release() {
	if l == nil || l.fl == nil {
		return
	}
	if err := l.fl.Unlock(); err != nil {
		slog.Debug("prefix unlock failed", "error", err)
	}
	l.fl = nil
}
