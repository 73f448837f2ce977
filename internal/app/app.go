package app

import (
	"context"
	"io"

	"github.com/rs/zerolog"

	"github.com/adanyl0v/retos/internal/config"
	"github.com/adanyl0v/retos/internal/db"
	"github.com/adanyl0v/retos/internal/delivery/http/v1"
	"github.com/adanyl0v/retos/internal/services"
)

// App owns the process-wide resources. Build it with Bootstrap and release
// it with Close.
type App struct {
	Logger   zerolog.Logger
	Config   *config.Config
	DB       *db.DB
	logClose io.Closer
}

// Bootstrap reads the config, sets up logging and connects to postgres,
// creating the schema when it is missing.
func Bootstrap(ctx context.Context) (*App, error) {
	logger := NewDefaultLogger()

	cfg, err := ReadEnv(logger, config.NewEnvReader())
	if err != nil {
		return nil, err
	}

	logger, logClose, err := NewApplicationLogger(logger, cfg)
	if err != nil {
		return nil, err
	}

	database, err := ConnectPostgres(ctx, logger, cfg.Postgres)
	if err != nil {
		_ = logClose.Close()
		return nil, err
	}

	return &App{
		Logger:   logger,
		Config:   cfg,
		DB:       database,
		logClose: logClose,
	}, nil
}

// Serve runs the HTTP API until the process is signalled and returns the
// exit code. The database is closed once the server has drained.
func (a *App) Serve() int {
	challengeService := services.NewChallengeService(a.Logger, a.DB)
	v1Handler := v1.New(a.Logger, challengeService)

	server := NewHTTPServer(a.Config.HTTP, NewRouter(a.Config, v1Handler))
	return ListenAndServeHTTP(a.Logger, a.Config.HTTP, server, a.Close)
}

func (a *App) Close() {
	DisconnectPostgres(a.Logger, a.DB)
	_ = a.logClose.Close()
}
