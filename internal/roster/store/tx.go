package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"

	"rosterhub/internal/platform/metrics"
	"rosterhub/internal/roster"
	dErrors "rosterhub/pkg/domain-errors"
	"rosterhub/pkg/platform/sentinel"
)

const defaultTxTimeout = 5 * time.Second

// MemoryTx satisfies roster.TxRunner over the in-memory store. Atomicity comes
// from the engine's per-activity critical section, so the callback runs against
// the base store directly.
type MemoryTx struct {
	store *InMemory
}

func NewMemoryTx(store *InMemory) *MemoryTx {
	return &MemoryTx{store: store}
}

func (t *MemoryTx) RunInTx(ctx context.Context, fn func(roster.Store) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	return fn(t.store)
}

// PostgresTx runs the callback inside a database transaction. The activity row
// is locked by FindActivity (FOR UPDATE), so the check-then-act sequence is
// atomic per activity. Serialization failures and deadlocks are retried with
// bounded exponential backoff; once retries are exhausted the error surfaces
// as sentinel.ErrUnavailable.
type PostgresTx struct {
	db      *sql.DB
	timeout time.Duration
	metrics *metrics.Metrics
}

func NewPostgresTx(db *sql.DB, m *metrics.Metrics) *PostgresTx {
	return &PostgresTx{db: db, metrics: m}
}

func (t *PostgresTx) RunInTx(ctx context.Context, fn func(roster.Store) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	attempt := 0
	operation := func() error {
		if attempt > 0 {
			t.metrics.IncrementTxRetries()
		}
		attempt++

		err := t.runOnce(ctx, fn)
		if err == nil {
			return nil
		}
		if isRetryable(err) {
			return err
		}
		return backoff.Permanent(err)
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 10 * time.Millisecond
	policy.MaxInterval = 200 * time.Millisecond

	err := backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(policy, 3), ctx))
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context done")
	case isRetryable(err):
		return errors.Join(sentinel.ErrUnavailable, err)
	}
	return err
}

func (t *PostgresTx) runOnce(ctx context.Context, fn func(roster.Store) error) error {
	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(newPostgresTxStore(tx)); err != nil {
		return err
	}
	return tx.Commit()
}
