package db

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/jackc/pgx/v5"
)

//go:embed schema.sql
var schemaSQL string

// InitSchema creates the retos table and its indexes if they do not exist.
// It is safe to run on every startup.
func (d *DB) InitSchema(ctx context.Context) error {
	err := d.withConn(ctx, func(conn Conn) error {
		return d.withTx(ctx, conn, func(tx pgx.Tx) error {
			_, err := tx.Exec(ctx, schemaSQL)
			return err
		})
	})
	if err != nil {
		return fmt.Errorf("init schema: %w", err)
	}

	d.logger.Info().Msg("initialized schema")
	return nil
}
