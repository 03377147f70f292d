// Package lock serializes booking admission per room with leases held in a
// shared store, so every service process contends on the same lock.
package lock

import (
	"context"
	"errors"
	"fmt"
	bookingserrors "staybook/internal/bookings/errors"
	"staybook/pkg/logger"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
)

const (
	DefaultWaitTimeout    = 5 * time.Second
	DefaultLeaseTTL       = 45 * time.Second
	DefaultReleaseTimeout = 5 * time.Second

	initialBackoff = 10 * time.Millisecond
	maxBackoff     = 250 * time.Millisecond

	// Work under a lease must finish this long before the lease expires, so a
	// write that is still in flight cannot land after a new holder has counted.
	maxCommitMargin = 2 * time.Second
)

// Store is a lease primitive shared by all processes. TryAcquire must succeed
// for at most one token per key until that token releases it or ttl elapses.
type Store interface {
	TryAcquire(ctx context.Context, key, roomID, token string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key, token string) error
}

type Options struct {
	WaitTimeout    time.Duration
	LeaseTTL       time.Duration
	ReleaseTimeout time.Duration
}

func (o Options) withDefaults() Options {
	if o.WaitTimeout <= 0 {
		o.WaitTimeout = DefaultWaitTimeout
	}
	if o.LeaseTTL <= 0 {
		o.LeaseTTL = DefaultLeaseTTL
	}
	if o.ReleaseTimeout <= 0 {
		o.ReleaseTimeout = DefaultReleaseTimeout
	}
	return o
}

type Coordinator struct {
	store Store
	opts  Options
	log   *logger.Logger
}

func NewCoordinator(store Store, opts Options, log *logger.Logger) *Coordinator {
	return &Coordinator{
		store: store,
		opts:  opts.withDefaults(),
		log:   log,
	}
}

// Key is the 64-bit lock key of a room.
func Key(roomID string) uint64 {
	return xxhash.Sum64String(roomID)
}

// LockID is the store identifier of a room's lease.
func LockID(roomID string) string {
	return fmt.Sprintf("room:%016x", Key(roomID))
}

// Acquire blocks until the room's lease is obtained or the wait timeout
// elapses, in which case it returns ErrLockTimeout. Cancellation of ctx is
// returned as ctx.Err().
func (c *Coordinator) Acquire(ctx context.Context, roomID string) (*Lease, error) {
	key := LockID(roomID)
	token := uuid.NewString()
	start := time.Now()
	deadline := start.Add(c.opts.WaitTimeout)
	delay := initialBackoff

	for attempt := 1; ; attempt++ {
		acquiredAt := time.Now()
		ok, err := c.store.TryAcquire(ctx, key, roomID, token, c.opts.LeaseTTL)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, fmt.Errorf("%w: acquire lock %s: %v", bookingserrors.ErrDataStoreUnavailable, key, err)
		}
		if ok {
			if attempt > 1 {
				c.log.Debug("Room lock acquired after waiting",
					"room_id", roomID,
					"attempts", attempt,
					"waited", time.Since(start),
				)
			}
			return &Lease{
				RoomID:         roomID,
				Key:            key,
				Token:          token,
				ExpiresAt:      acquiredAt.Add(c.opts.LeaseTTL),
				margin:         commitMargin(c.opts.LeaseTTL),
				store:          c.store,
				releaseTimeout: c.opts.ReleaseTimeout,
			}, nil
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			c.log.Warn("Timed out waiting for room lock",
				"room_id", roomID,
				"attempts", attempt,
				"wait_timeout", c.opts.WaitTimeout,
			)
			return nil, bookingserrors.ErrLockTimeout
		}

		timer := time.NewTimer(min(delay, remaining))
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
		delay = min(delay*2, maxBackoff)
	}
}

// Lease is one held room lock. Release is safe to call more than once.
type Lease struct {
	RoomID    string
	Key       string
	Token     string
	ExpiresAt time.Time

	margin         time.Duration
	store          Store
	releaseTimeout time.Duration
	once           sync.Once
	err            error
}

func commitMargin(ttl time.Duration) time.Duration {
	return min(ttl/5, maxCommitMargin)
}

// CommitDeadline is the last instant at which work under the lease may still
// touch the booking store.
func (l *Lease) CommitDeadline() time.Time {
	return l.ExpiresAt.Add(-l.margin)
}

// Held reports whether the lease is still before its commit deadline. After
// expiry another acquirer may have reclaimed the room.
func (l *Lease) Held() bool {
	return time.Now().Before(l.CommitDeadline())
}

// Bound derives a context that is cancelled at the commit deadline. The
// recount and the insert run under it so neither outlives the lease.
func (l *Lease) Bound(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithDeadline(ctx, l.CommitDeadline())
}

// Release deletes the lease if it is still owned by this token. It runs on a
// context detached from ctx's cancellation, bounded by the release timeout.
func (l *Lease) Release(ctx context.Context) error {
	l.once.Do(func() {
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), l.releaseTimeout)
		defer cancel()

		if err := l.store.Release(releaseCtx, l.Key, l.Token); err != nil && !errors.Is(err, ErrNotOwner) {
			l.err = fmt.Errorf("release lock %s: %w", l.Key, err)
		}
	})
	return l.err
}

// ErrNotOwner is returned by stores when the lease expired and was taken by
// another token before Release ran.
var ErrNotOwner = errors.New("lock is not held by this token")
