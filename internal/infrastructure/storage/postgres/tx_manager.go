package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"kvtrade/pkg/logger"
)

// Querier is the common query interface satisfied by pool, conn and tx.
// Repositories use it so that the same code runs inside and outside
// transactions.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// CommandTag mirrors pgconn.CommandTag for the subset repositories need.
type CommandTag interface {
	RowsAffected() int64
}

// txKey is the context key for the active transaction.
type txKey struct{}

// poolQuerier adapts *pgxpool.Pool to Querier.
type poolQuerier struct {
	pool *pgxpool.Pool
}

func (p poolQuerier) Exec(ctx context.Context, sql string, args ...any) (CommandTag, error) {
	return p.pool.Exec(ctx, sql, args...)
}

func (p poolQuerier) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return p.pool.Query(ctx, sql, args...)
}

func (p poolQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return p.pool.QueryRow(ctx, sql, args...)
}

// txQuerier adapts pgx.Tx to Querier.
type txQuerier struct {
	tx pgx.Tx
}

func (t txQuerier) Exec(ctx context.Context, sql string, args ...any) (CommandTag, error) {
	return t.tx.Exec(ctx, sql, args...)
}

func (t txQuerier) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return t.tx.Query(ctx, sql, args...)
}

func (t txQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return t.tx.QueryRow(ctx, sql, args...)
}

// TxManager implements tx.Manager and tx.ReadOnlyManager on a pgx pool.
// The active transaction travels in the context; nested RunInTransaction
// calls join the outer transaction.
type TxManager struct {
	pool    *pgxpool.Pool
	tracer  trace.Tracer
	timeout time.Duration
}

// NewTxManager creates a transaction manager.
// stmtTimeout bounds each transaction via SET LOCAL statement_timeout;
// zero disables the limit.
func NewTxManager(pool *pgxpool.Pool, stmtTimeout time.Duration) *TxManager {
	return &TxManager{
		pool:    pool,
		tracer:  otel.Tracer("kvtrade/postgres"),
		timeout: stmtTimeout,
	}
}

// GetQuerier returns the transaction from context if present, otherwise the
// pool. Repositories call this for every statement.
func (m *TxManager) GetQuerier(ctx context.Context) Querier {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return txQuerier{tx: tx}
	}
	return poolQuerier{pool: m.pool}
}

// QueryRow runs a single-row query on the active transaction or the pool.
// Lets the manager satisfy minimal query interfaces such as the numerator's.
func (m *TxManager) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return m.GetQuerier(ctx).QueryRow(ctx, sql, args...)
}

// RunInTransaction executes fn within a transaction.
func (m *TxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.run(ctx, pgx.TxOptions{}, fn)
}

// ReadOnly executes fn in a read-only transaction.
func (m *TxManager) ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.run(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly}, fn)
}

func (m *TxManager) run(ctx context.Context, opts pgx.TxOptions, fn func(ctx context.Context) error) error {
	// Join the outer transaction when nested.
	if _, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return fn(ctx)
	}

	ctx, span := m.tracer.Start(ctx, "postgres.tx")
	defer span.End()

	tx, err := m.pool.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if m.timeout > 0 {
		_, err = tx.Exec(ctx, fmt.Sprintf("SET LOCAL statement_timeout = %d", m.timeout.Milliseconds()))
		if err != nil {
			_ = tx.Rollback(ctx)
			return fmt.Errorf("set statement timeout: %w", err)
		}
	}

	txCtx := context.WithValue(ctx, txKey{}, tx)

	if err := fn(txCtx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil && rbErr != pgx.ErrTxClosed {
			logger.Error(ctx, "transaction rollback failed", "error", rbErr)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
