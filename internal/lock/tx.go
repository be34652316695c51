package lock

import (
	"context"

	"github.com/jackc/pgx/v5"
)

type txCtxKey struct{}

// withTx returns a context carrying the transaction the lock was taken in.
func withTx(ctx context.Context, tx pgx.Tx) context.Context {
	return context.WithValue(ctx, txCtxKey{}, tx)
}

// TxFrom extracts the lock-holding transaction from the context, if any.
// Repositories that run inside WithLock must issue their queries through this
// transaction; otherwise the advisory lock would not cover them.
func TxFrom(ctx context.Context) (pgx.Tx, bool) {
	tx, ok := ctx.Value(txCtxKey{}).(pgx.Tx)
	return tx, ok
}
