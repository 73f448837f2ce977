package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// FetchAll returns every row of query in result order. The slice is empty,
// never nil, when nothing matches.
func (d *DB) FetchAll(ctx context.Context, query string, args ...any) ([]Record, error) {
	var records []Record
	err := d.withConn(ctx, func(conn Conn) error {
		rows, err := conn.Query(ctx, query, args...)
		if err != nil {
			return err
		}

		records, err = collectRecords(rows)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("fetch all: %w", err)
	}

	d.logger.Trace().
		Int("count", len(records)).
		Msg("fetched rows")
	return records, nil
}

// FetchOne returns the first row of query, or nil if there is none.
func (d *DB) FetchOne(ctx context.Context, query string, args ...any) (Record, error) {
	var record Record
	err := d.withConn(ctx, func(conn Conn) error {
		rows, err := conn.Query(ctx, query, args...)
		if err != nil {
			return err
		}

		record, err = firstRecord(rows)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("fetch one: %w", err)
	}

	d.logger.Trace().
		Bool("found", record != nil).
		Msg("fetched row")
	return record, nil
}

// Execute runs a mutating statement in its own transaction and commits it.
// If the statement has a RETURNING clause the first returned row is handed
// back; otherwise, or if no row was affected, the result is nil.
// On failure the transaction is rolled back.
func (d *DB) Execute(ctx context.Context, query string, args ...any) (Record, error) {
	var record Record
	err := d.withConn(ctx, func(conn Conn) error {
		return d.withTx(ctx, conn, func(tx pgx.Tx) error {
			rows, err := tx.Query(ctx, query, args...)
			if err != nil {
				return err
			}

			record, err = firstRecord(rows)
			return err
		})
	})
	if err != nil {
		return nil, fmt.Errorf("execute: %w", err)
	}

	d.logger.Trace().
		Bool("returned", record != nil).
		Msg("executed statement")
	return record, nil
}

func collectRecords(rows pgx.Rows) ([]Record, error) {
	maps, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, err
	}

	records := make([]Record, 0, len(maps))
	for _, m := range maps {
		records = append(records, Record(m))
	}
	return records, nil
}

// firstRecord reads at most one row. Rows are closed before Err is checked
// so that errors raised while the statement completes are not lost.
func firstRecord(rows pgx.Rows) (Record, error) {
	defer rows.Close()

	var record Record
	if rows.Next() {
		m, err := pgx.RowToMap(rows)
		if err != nil {
			return nil, err
		}
		record = m
	}

	rows.Close()
	err := rows.Err()
	if err != nil {
		return nil, err
	}
	return record, nil
}
