package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"intelliflow/backend/internal/apperr"
)

// beginner abstracts transaction acquisition; *pgxpool.Pool satisfies it.
type beginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// TxManager provides one transactional unit of work per logical operation:
// commit on success, rollback on failure, connection released exactly once on
// every exit path. Errors already carrying a client-facing status pass through
// unchanged; anything else surfaces as an internal storage error.
type TxManager struct {
	db     beginner
	logger *zap.Logger
}

// NewTxManager returns a TxManager over the given pool.
func NewTxManager(db *DB, logger *zap.Logger) *TxManager {
	return &TxManager{db: db.Pool, logger: logger}
}

type txKey struct{}

func withTx(ctx context.Context, tx pgx.Tx) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

func txFromContext(ctx context.Context) (pgx.Tx, bool) {
	tx, ok := ctx.Value(txKey{}).(pgx.Tx)
	return tx, ok
}

// WithTx runs fn inside a transaction. A nested call reuses the ambient
// transaction rather than opening a second one, so one logical operation
// holds at most one handle. The transaction is committed when fn returns nil
// and rolled back otherwise; the deferred rollback also covers panics and
// context cancellation (rollback after commit is a no-op in pgx).
func (m *TxManager) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := txFromContext(ctx); ok {
		return fn(ctx)
	}

	tx, err := m.db.Begin(ctx)
	if err != nil {
		return apperr.Internal("internal storage error", err)
	}

	defer func() {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			m.logger.Error("rollback", zap.Error(rbErr))
		}
	}()

	if err := fn(withTx(ctx, tx)); err != nil {
		if _, ok := apperr.FromError(err); ok {
			return err
		}
		return apperr.Internal("internal storage error", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return apperr.Internal("internal storage error", err)
	}
	return nil
}
