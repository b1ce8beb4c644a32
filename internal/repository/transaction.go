package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// TxFunc runs inside a transaction scope.
type TxFunc func(exec sqlx.ExtContext) error

// withTx checks out a transaction, runs fn and commits. Any error or panic rolls back
// so the connection is released on every exit path.
func withTx(ctx context.Context, db *sqlx.DB, fn TxFunc) (err error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				err = fmt.Errorf("%w (rollback: %v)", err, rbErr)
			}
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// chunk splits n items into [start, end) windows of at most size.
func chunk(n, size int) [][2]int {
	if size <= 0 {
		size = n
	}
	windows := make([][2]int, 0, (n+size-1)/max(size, 1))
	for start := 0; start < n; start += size {
		end := start + size
		if end > n {
			end = n
		}
		windows = append(windows, [2]int{start, end})
	}
	return windows
}
