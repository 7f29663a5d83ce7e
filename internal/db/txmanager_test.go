package db

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"intelliflow/backend/internal/apperr"
)

// fakeTx counts terminal calls; embedding the interface leaves unused methods
// panicking if touched, which is what we want in these tests.
type fakeTx struct {
	pgx.Tx
	commits   int
	rollbacks int
	closed    bool
}

func (t *fakeTx) Commit(ctx context.Context) error {
	if t.closed {
		return pgx.ErrTxClosed
	}
	t.closed = true
	t.commits++
	return nil
}

func (t *fakeTx) Rollback(ctx context.Context) error {
	if t.closed {
		return pgx.ErrTxClosed
	}
	t.closed = true
	t.rollbacks++
	return nil
}

func (t *fakeTx) releases() int { return t.commits + t.rollbacks }

type fakeBeginner struct {
	tx     *fakeTx
	begins int
	err    error
}

func (b *fakeBeginner) Begin(ctx context.Context) (pgx.Tx, error) {
	if b.err != nil {
		return nil, b.err
	}
	b.begins++
	b.tx = &fakeTx{}
	return b.tx, nil
}

func newTestTxManager() (*TxManager, *fakeBeginner) {
	b := &fakeBeginner{}
	return &TxManager{db: b, logger: zap.NewNop()}, b
}

func TestWithTx_CommitOnSuccess(t *testing.T) {
	m, b := newTestTxManager()

	err := m.WithTx(context.Background(), func(ctx context.Context) error {
		if _, ok := txFromContext(ctx); !ok {
			t.Error("fn should see the ambient transaction in ctx")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("WithTx: %v", err)
	}
	if b.tx.commits != 1 {
		t.Errorf("commits = %d, want 1", b.tx.commits)
	}
	if b.tx.releases() != 1 {
		t.Errorf("releases = %d, want exactly 1", b.tx.releases())
	}
}

func TestWithTx_RollbackOnError(t *testing.T) {
	m, b := newTestTxManager()
	boom := errors.New("boom")

	err := m.WithTx(context.Background(), func(ctx context.Context) error {
		return boom
	})
	if err == nil {
		t.Fatal("WithTx should propagate fn error")
	}
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, should wrap the original cause", err)
	}
	if apperr.StatusOf(err) != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500 for unexpected errors", apperr.StatusOf(err))
	}
	if apperr.DetailOf(err) != "internal storage error" {
		t.Errorf("detail = %q, want %q", apperr.DetailOf(err), "internal storage error")
	}
	if b.tx.rollbacks != 1 {
		t.Errorf("rollbacks = %d, want 1", b.tx.rollbacks)
	}
	if b.tx.commits != 0 {
		t.Errorf("commits = %d, want 0", b.tx.commits)
	}
	if b.tx.releases() != 1 {
		t.Errorf("releases = %d, want exactly 1", b.tx.releases())
	}
}

func TestWithTx_StatusErrorPassesThroughUnwrapped(t *testing.T) {
	m, b := newTestTxManager()
	notFound := apperr.NotFound("User not found")

	err := m.WithTx(context.Background(), func(ctx context.Context) error {
		return notFound
	})
	if !errors.Is(err, notFound) {
		t.Fatalf("err = %v, want the original status error unchanged", err)
	}
	if apperr.StatusOf(err) != http.StatusNotFound {
		t.Errorf("status = %d, want 404 (no double-wrapping)", apperr.StatusOf(err))
	}
	if b.tx.rollbacks != 1 {
		t.Errorf("rollbacks = %d, want 1", b.tx.rollbacks)
	}
}

func TestWithTx_BeginFailure(t *testing.T) {
	b := &fakeBeginner{err: errors.New("pool exhausted")}
	m := &TxManager{db: b, logger: zap.NewNop()}

	err := m.WithTx(context.Background(), func(ctx context.Context) error { return nil })
	if err == nil {
		t.Fatal("WithTx should fail when Begin fails")
	}
	if apperr.StatusOf(err) != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", apperr.StatusOf(err))
	}
}

func TestWithTx_NestedReusesTransaction(t *testing.T) {
	m, b := newTestTxManager()

	err := m.WithTx(context.Background(), func(outer context.Context) error {
		outerTx, _ := txFromContext(outer)
		return m.WithTx(outer, func(inner context.Context) error {
			innerTx, _ := txFromContext(inner)
			if innerTx != outerTx {
				t.Error("nested WithTx should reuse the ambient transaction")
			}
			return nil
		})
	})
	if err != nil {
		t.Fatalf("WithTx: %v", err)
	}
	if b.begins != 1 {
		t.Errorf("begins = %d, want 1 (one handle per logical operation)", b.begins)
	}
	if b.tx.releases() != 1 {
		t.Errorf("releases = %d, want exactly 1", b.tx.releases())
	}
}

func TestWithTx_ReleasesOnPanic(t *testing.T) {
	m, b := newTestTxManager()

	func() {
		defer func() {
			if recover() == nil {
				t.Error("panic should propagate out of WithTx")
			}
		}()
		_ = m.WithTx(context.Background(), func(ctx context.Context) error {
			panic("handler blew up")
		})
	}()

	if b.tx.rollbacks != 1 {
		t.Errorf("rollbacks = %d, want 1 after panic", b.tx.rollbacks)
	}
	if b.tx.releases() != 1 {
		t.Errorf("releases = %d, want exactly 1", b.tx.releases())
	}
}
