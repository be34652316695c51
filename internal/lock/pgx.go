package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgxManager implements Manager with Postgres transaction-scoped advisory
// locks. The lock is taken with pg_advisory_xact_lock inside a READ COMMITTED
// transaction, so release is bound to transaction lifetime: commit, rollback,
// and connection loss all free it. The lock serializes the check-then-insert
// sequence on its own, so the transaction runs at READ COMMITTED.
type PgxManager struct {
	pool *pgxpool.Pool
}

// NewPgxManager creates an advisory lock manager backed by the given pool.
func NewPgxManager(pool *pgxpool.Pool) *PgxManager {
	return &PgxManager{pool: pool}
}

func (m *PgxManager) WithLock(ctx context.Context, tenantID, key string, timeout time.Duration, fn func(ctx context.Context) error) error {
	tx, err := m.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin lock transaction failed: %w", err)
	}
	// Rollback is a no-op once the transaction committed.
	defer tx.Rollback(ctx)

	// lock_timeout cannot be a bind parameter; SET LOCAL scopes it to this
	// transaction only.
	if _, err := tx.Exec(ctx, fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", timeout.Milliseconds())); err != nil {
		return fmt.Errorf("set lock_timeout failed: %w", err)
	}

	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", Key(tenantID, key)); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.LockNotAvailable {
			return ErrTimeout
		}
		return fmt.Errorf("acquire advisory lock failed: %w", err)
	}

	if err := fn(withTx(ctx, tx)); err != nil {
		// Rollback releases the advisory lock along with any writes.
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit lock transaction failed: %w", err)
	}
	return nil
}
