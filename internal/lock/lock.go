package lock

import (
	"context"
	"hash/fnv"
	"net/http"
	"time"

	"github.com/tidebook/booking-backend/internal/pkg/apperror"
)

// ErrTimeout is returned when the lock cannot be acquired within the caller's
// timeout. It is an infrastructure condition, not a business one; callers own
// the retry policy.
var ErrTimeout = apperror.New(http.StatusServiceUnavailable, "resource is busy, try again")

// Manager provides advisory mutual exclusion scoped to (tenantID, key).
//
// WithLock acquires the lock, runs fn while holding it, and guarantees release
// on every exit path. Implementations must bind lock lifetime to the unit of
// work itself (e.g. a database transaction) so that a crashed process cannot
// leave the lock held. fn receives a derived context that carries any
// transactional state the implementation opened; repositories pick it up via
// TxFrom.
type Manager interface {
	WithLock(ctx context.Context, tenantID, key string, timeout time.Duration, fn func(ctx context.Context) error) error
}

// Key hashes (tenantID, key) into the signed 64-bit keyspace used by
// pg_advisory_xact_lock. The NUL separator keeps ("ab","c") and ("a","bc")
// from colliding by concatenation.
func Key(tenantID, key string) int64 {
	h := fnv.New64a()
	h.Write([]byte(tenantID))
	h.Write([]byte{0})
	h.Write([]byte(key))
	return int64(h.Sum64())
}
