package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/lib/pq"
)

const (
	txMaxRetries   = 3
	txBackoffDelay = 100 * time.Millisecond
)

// WithinTx runs fn inside a serializable transaction. Serialization
// failures and transient connection errors are retried with linear backoff;
// everything else, including business errors returned by fn, rolls back and
// propagates unchanged. The store's isolation level is the only mechanism
// that keeps capacity checks and writes consistent under concurrency.
func (db *DB) WithinTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	var lastErr error
	for attempt := 1; attempt <= txMaxRetries; attempt++ {
		err := db.runTx(ctx, fn)
		if err == nil {
			return nil
		}

		if !isRetryableError(err) {
			return err
		}

		lastErr = err
		if attempt < txMaxRetries {
			slog.Warn("Transaction conflict, retrying",
				"attempt", attempt, "max_retries", txMaxRetries, "error", err)
			select {
			case <-time.After(time.Duration(attempt) * txBackoffDelay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	return fmt.Errorf("transaction failed after %d attempts: %w", txMaxRetries, lastErr)
}

func (db *DB) runTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		// serialization_failure and deadlock_detected
		return pqErr.Code == "40001" || pqErr.Code == "40P01"
	}

	errStr := err.Error()
	retryableErrors := []string{
		"connection refused",
		"connection reset",
		"broken pipe",
		"driver: bad connection",
	}
	for _, retryable := range retryableErrors {
		if strings.Contains(errStr, retryable) {
			return true
		}
	}

	return false
}
