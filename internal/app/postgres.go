package app

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/adanyl0v/retos/internal/config"
	"github.com/adanyl0v/retos/internal/db"
)

func ConnectPostgres(ctx context.Context, logger zerolog.Logger, cfg config.PostgresConfig) (*db.DB, error) {
	database, err := db.New(ctx, logger, db.Options{
		ConnURL:        cfg.ConnURL(),
		MinConns:       cfg.MinConns,
		MaxConns:       cfg.MaxConns,
		ConnectTimeout: cfg.ConnectTimeout,
		PingTimeout:    cfg.PingTimeout,
		AcquireTimeout: cfg.AcquireTimeout,
	})
	if err != nil {
		logger.Error().
			Err(err).
			Str("host", cfg.Host).
			Int("port", cfg.Port).
			Msg("failed to connect to postgres")
		return nil, err
	}
	logger.Info().
		Str("host", cfg.Host).
		Int("port", cfg.Port).
		Str("database", cfg.Database).
		Msg("connected to postgres")

	err = database.InitSchema(ctx)
	if err != nil {
		logger.Error().
			Err(err).
			Msg("failed to initialize schema")
		database.Close()
		return nil, err
	}

	return database, nil
}

func DisconnectPostgres(logger zerolog.Logger, database *db.DB) {
	database.Close()
	logger.Info().Msg("disconnected from postgres")
}
