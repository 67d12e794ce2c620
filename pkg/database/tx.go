package database

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// DBTX is the handle repositories run queries on. Both *sqlx.DB and *sqlx.Tx
// satisfy it, so a repository can be bound to either.
type DBTX = sqlx.ExtContext

// WithTx begins a transaction, runs fn with it, and commits on success.
// Any error or panic from fn rolls the transaction back; panics are rethrown.
func WithTx(ctx context.Context, db *sqlx.DB, fn func(ctx context.Context, tx DBTX) error) (err error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return MapError(err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()

	err = fn(ctx, tx)
	return err
}
