package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/beansapp/beans/internal/apperrors"
)

// BaseRepository provides transaction plumbing shared by repositories backed
// by the embedded store.
type BaseRepository struct {
	DB *sql.DB
}

// WithTx runs fn inside a transaction. The transaction is rolled back if fn
// returns an error or panics, committed otherwise, so a partial write is
// never observable.
func (r *BaseRepository) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: failed to begin transaction: %v", apperrors.ErrDatabase, err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return fmt.Errorf("%w: rollback failed: %v (original error: %v)", apperrors.ErrDatabase, rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: failed to commit transaction: %v", apperrors.ErrDatabase, err)
	}
	return nil
}
