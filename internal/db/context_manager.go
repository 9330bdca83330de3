package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// contextKey is a custom type for context keys to avoid collisions
// Using UUID to ensure uniqueness
type contextKey struct {
	name string
}

var txKey = contextKey{name: uuid.New().String()}

// Engine is the query surface shared by *pgxpool.Pool and pgx.Tx.
type Engine interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// EngineFactory hands repositories the engine bound to ctx.
type EngineFactory interface {
	Get(ctx context.Context) Engine
}

// Transactioner runs fn atomically. Nested calls join the outer transaction.
type Transactioner interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// ContextManager manages database transactions
type ContextManager struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewContextManager creates a new context manager
func NewContextManager(pool *pgxpool.Pool, logger *zap.Logger) *ContextManager {
	return &ContextManager{pool: pool, logger: logger}
}

// Get returns either the transaction stored in ctx or the pool
func (cm *ContextManager) Get(ctx context.Context) Engine {
	if tx, ok := ctx.Value(txKey).(pgx.Tx); ok {
		return tx
	}
	return cm.pool
}

// InTx reports whether ctx carries a transaction.
func InTx(ctx context.Context) bool {
	_, ok := ctx.Value(txKey).(pgx.Tx)
	return ok
}

// Do executes a function within a transaction
func (cm *ContextManager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	// If already in a transaction, just execute the function
	if InTx(ctx) {
		return fn(ctx)
	}

	tx, err := cm.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	txCtx := context.WithValue(ctx, txKey, tx)

	if err := fn(txCtx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			cm.logger.Error("Transaction rollback failed", zap.Error(rbErr), zap.NamedError("cause", err))
			return fmt.Errorf("failed to rollback transaction: %w (original error: %v)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
