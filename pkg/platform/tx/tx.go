// Package tx carries a pgx transaction through a context so stores called
// inside Run share it.
package tx

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	dErrors "brokerdesk/pkg/domain-errors"
)

// DefaultTimeout bounds a transaction whose context has no deadline.
const DefaultTimeout = 5 * time.Second

type ctxKey struct{}

var txKey = ctxKey{}

// Beginner is satisfied by *pgxpool.Pool and *pgx.Conn.
type Beginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// WithTx stores a transaction in context for downstream store usage.
func WithTx(ctx context.Context, tx pgx.Tx) context.Context {
	if tx == nil {
		return ctx
	}
	return context.WithValue(ctx, txKey, tx)
}

// From extracts a transaction from context if present.
func From(ctx context.Context) (pgx.Tx, bool) {
	tx, ok := ctx.Value(txKey).(pgx.Tx)
	return tx, ok
}

// Run calls fn inside a transaction and commits when fn returns nil. A
// transaction already carried by ctx is reused and left for its owner to
// commit.
func Run(ctx context.Context, db Beginner, timeout time.Duration, fn func(ctx context.Context, tx pgx.Tx) error) error {
	if existing, ok := From(ctx); ok {
		return fn(ctx, existing)
	}
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	t, err := db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = t.Rollback(context.WithoutCancel(ctx))
	}()

	if err := fn(WithTx(ctx, t), t); err != nil {
		return err
	}
	return t.Commit(ctx)
}
