package tx

import (
	"context"
	"database/sql"
	"time"

	dErrors "attestgate/pkg/domain-errors"
)

type ctxKey struct{}

var txKey = ctxKey{}

// WithTx stores a SQL transaction in context for downstream store usage.
func WithTx(ctx context.Context, tx *sql.Tx) context.Context {
	if tx == nil {
		return ctx
	}
	return context.WithValue(ctx, txKey, tx)
}

// From extracts a SQL transaction from context if present.
func From(ctx context.Context) (*sql.Tx, bool) {
	tx, ok := ctx.Value(txKey).(*sql.Tx)
	return tx, ok
}

const defaultTxTimeout = 5 * time.Second

// Runner executes a function inside a single SQL transaction carried
// through the context, so stores that check From(ctx) share it without
// knowing about each other.
type Runner struct {
	db      *sql.DB
	timeout time.Duration
}

// NewRunner creates a Runner over the given database handle.
func NewRunner(db *sql.DB) *Runner {
	return &Runner{db: db}
}

// RunInTx begins a transaction, injects it into the context, and commits if
// fn returns nil. A bounded timeout is applied when the caller's context
// has no deadline.
func (r *Runner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := r.timeout
	if timeout == 0 {
		timeout = defaultTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	sqlTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = sqlTx.Rollback()
	}()

	if err := fn(WithTx(ctx, sqlTx)); err != nil {
		return err
	}
	return sqlTx.Commit()
}
