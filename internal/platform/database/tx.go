package database

import (
	"codecollab/internal/platform/metrics"
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jmoiron/sqlx"
)

// Transactor runs fn inside one database transaction. fn's tx is handed to repository
// methods; returning an error rolls everything back.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error
}

type sqlxTransactor struct {
	db *sqlx.DB
}

func NewTransactor(db *sqlx.DB) Transactor {
	return &sqlxTransactor{db: db}
}

func (t *sqlxTransactor) WithinTx(ctx context.Context, fn func(tx *sqlx.Tx) error) (err error) {
	start := time.Now()
	outcome := "commit"
	defer func() {
		metrics.RecordDBOperation("transaction", outcome, start)
	}()

	tx, err := t.db.BeginTxx(ctx, nil)
	if err != nil {
		outcome = "error"
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err = fn(tx); err != nil {
		outcome = "rollback"
		if rbErr := tx.Rollback(); rbErr != nil {
			log.Printf("ERROR: Failed to rollback transaction: %v", rbErr)
		}
		return err
	}

	if err = tx.Commit(); err != nil {
		outcome = "error"
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
