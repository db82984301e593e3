// Package postgres provides the Postgres-backed running-total ledger.
package postgres

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/printforge/bindery/internal/order"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Config controls the Postgres connection pool used for ledger rows.
type Config struct {
	DSN             string
	Table           string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type execCloser interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Close()
}

// Ledger appends order values into Postgres. Appends are idempotent per
// order ref: a duplicate is a no-op, not an error.
type Ledger struct {
	pool  execCloser
	table string
}

// New creates a Postgres-backed Ledger using the provided config.
func New(ctx context.Context, cfg Config) (*Ledger, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("ledger.dsn is required")
	}
	table := cfg.Table
	if table == "" {
		table = "print_ledger"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &Ledger{pool: pool, table: table}, nil
}

// NewWithPool constructs a Ledger from an existing pool (primarily for
// testing).
func NewWithPool(pool execCloser, table string) (*Ledger, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if table == "" {
		table = "print_ledger"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &Ledger{pool: pool, table: table}, nil
}

// Close releases the underlying pool resources.
func (l *Ledger) Close() {
	if l == nil || l.pool == nil {
		return
	}
	l.pool.Close()
}

// Append inserts a ledger row. ON CONFLICT DO NOTHING makes a duplicate
// order ref a silent no-op, which is the idempotency contract the webhook's
// at-least-once redelivery relies on.
func (l *Ledger) Append(ctx context.Context, entry order.Entry) error {
	if l == nil || l.pool == nil {
		return fmt.Errorf("ledger is not configured")
	}
	if entry.OrderRef == "" {
		return fmt.Errorf("order ref is required")
	}
	query := fmt.Sprintf(`
INSERT INTO %s (order_ref, value, recorded_at)
VALUES ($1, $2, now())
ON CONFLICT (order_ref) DO NOTHING`, l.table)

	if _, err := l.pool.Exec(ctx, query, entry.OrderRef, entry.Value); err != nil {
		return fmt.Errorf("append ledger entry: %w", err)
	}
	return nil
}
