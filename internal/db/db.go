// Package db is the data-access layer: a bounded pgx connection pool and
// four primitives (FetchAll, FetchOne, Execute, InitSchema) that hand rows
// back as column-name keyed records.
//
// Every primitive acquires exactly one connection and releases it exactly
// once, whatever the outcome. A statement that produces no row yields a nil
// Record and a nil error.
package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// Record maps column names to values of a single row.
type Record map[string]any

// Conn is the subset of a pooled connection used by the primitives.
// It is implemented by *pgxpool.Conn.
type Conn interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

type acquireFunc func(ctx context.Context) (conn Conn, release func(), err error)

type Options struct {
	ConnURL        string
	MinConns       int32
	MaxConns       int32
	ConnectTimeout time.Duration
	PingTimeout    time.Duration
	AcquireTimeout time.Duration
}

type DB struct {
	logger         zerolog.Logger
	pool           *pgxpool.Pool
	acquireTimeout time.Duration
	acquire        acquireFunc
}

// New opens the pool and verifies it with a ping. The caller owns the
// returned DB and must Close it.
func New(ctx context.Context, logger zerolog.Logger, opts Options) (*DB, error) {
	poolCfg, err := pgxpool.ParseConfig(opts.ConnURL)
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}
	poolCfg.MinConns = opts.MinConns
	poolCfg.MaxConns = opts.MaxConns
	if opts.ConnectTimeout > 0 {
		poolCfg.ConnConfig.ConnectTimeout = opts.ConnectTimeout
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create postgres pool: %w", err)
	}

	pingCtx := ctx
	if opts.PingTimeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, opts.PingTimeout)
		defer cancel()
	}

	err = pool.Ping(pingCtx)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	d := &DB{
		logger:         logger,
		pool:           pool,
		acquireTimeout: opts.AcquireTimeout,
	}
	d.acquire = d.acquireFromPool

	logger.Debug().
		Int32("min_conns", poolCfg.MinConns).
		Int32("max_conns", poolCfg.MaxConns).
		Dur("acquire_timeout", opts.AcquireTimeout).
		Msg("created postgres pool")
	return d, nil
}

func newWithAcquirer(logger zerolog.Logger, acquire acquireFunc) *DB {
	return &DB{
		logger:  logger,
		acquire: acquire,
	}
}

func (d *DB) acquireFromPool(ctx context.Context) (Conn, func(), error) {
	acquireCtx := ctx
	if d.acquireTimeout > 0 {
		var cancel context.CancelFunc
		acquireCtx, cancel = context.WithTimeout(ctx, d.acquireTimeout)
		defer cancel()
	}

	conn, err := d.pool.Acquire(acquireCtx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			stats := d.Stats()
			d.logger.Warn().
				Int32("acquired_conns", stats.AcquiredConns).
				Int32("max_conns", stats.MaxConns).
				Dur("acquire_timeout", d.acquireTimeout).
				Msg("timed out acquiring postgres connection")
			return nil, nil, fmt.Errorf("%w after %s", ErrPoolTimeout, d.acquireTimeout)
		}
		return nil, nil, fmt.Errorf("acquire connection: %w", err)
	}
	return conn, conn.Release, nil
}

// withConn runs fn on an acquired connection and releases it on every path,
// panics included.
func (d *DB) withConn(ctx context.Context, fn func(conn Conn) error) error {
	conn, release, err := d.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	return fn(conn)
}

// withTx runs fn inside a transaction on conn. The transaction commits only
// when fn succeeds.
func (d *DB) withTx(ctx context.Context, conn Conn, fn func(tx pgx.Tx) error) error {
	tx, err := conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	err = fn(tx)
	if err != nil {
		rbErr := tx.Rollback(context.WithoutCancel(ctx))
		if rbErr != nil {
			d.logger.Error().
				Err(rbErr).
				Msg("failed to rollback transaction")
		}
		return err
	}

	err = tx.Commit(ctx)
	if err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

type Stats struct {
	AcquiredConns int32
	IdleConns     int32
	TotalConns    int32
	MaxConns      int32
}

func (d *DB) Stats() Stats {
	if d.pool == nil {
		return Stats{}
	}

	s := d.pool.Stat()
	return Stats{
		AcquiredConns: s.AcquiredConns(),
		IdleConns:     s.IdleConns(),
		TotalConns:    s.TotalConns(),
		MaxConns:      s.MaxConns(),
	}
}

func (d *DB) Close() {
	if d.pool == nil {
		return
	}

	stats := d.Stats()
	d.pool.Close()
	d.logger.Debug().
		Int32("acquired_conns", stats.AcquiredConns).
		Int32("total_conns", stats.TotalConns).
		Msg("closed postgres pool")
}
