package db

import (
	"context"
	"database/sql"
	"fmt"
)

// Querier runs statements against the node table. Both *sql.DB and *sql.Tx
// satisfy it, so the same read helpers serve plain reads and reads inside
// a batch.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

var (
	_ Querier = (*sql.DB)(nil)
	_ Querier = (*sql.Tx)(nil)
)

// Batch applies a group of leaf changes so that readers see all of them or
// none.
type Batch interface {
	Apply(ctx context.Context, fn func(ctx context.Context, q Querier) error) error
}

// SQLiteBatch runs each Apply in its own transaction.
type SQLiteBatch struct {
	db *sql.DB
}

func NewSQLiteBatch(database *sql.DB) *SQLiteBatch {
	return &SQLiteBatch{db: database}
}

// Apply commits when fn returns nil. An error or a panic in fn rolls the
// batch back; the panic is re-raised.
func (b *SQLiteBatch) Apply(ctx context.Context, fn func(ctx context.Context, q Querier) error) (err error) {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin batch: %w", err)
	}
	committed := false
	defer func() {
		if committed {
			return
		}
		if rbErr := tx.Rollback(); rbErr != nil && err != nil {
			err = fmt.Errorf("%w (rollback: %v)", err, rbErr)
		}
	}()

	if err = fn(ctx, tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}
	committed = true
	return nil
}
