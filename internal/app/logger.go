package app

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/adanyl0v/retos/internal/config"
)

func NewDefaultLogger() zerolog.Logger {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	zerolog.TimestampFieldName = "timestamp"

	logger := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Caller().
		Int("pid", os.Getpid()).
		Logger()

	logger.Info().Msg("initialized default logger")
	return logger
}

// NewApplicationLogger picks the level and console output by env. When a log
// file is configured the returned closer owns the rotating file and must be
// closed on exit.
func NewApplicationLogger(logger zerolog.Logger, cfg *config.Config) (zerolog.Logger, io.Closer, error) {
	w := io.Writer(os.Stdout)
	switch cfg.Env {
	case config.EnvDev:
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case config.EnvProd:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case config.EnvLocal:
		zerolog.SetGlobalLevel(zerolog.TraceLevel)

		consoleWriter := zerolog.NewConsoleWriter()
		consoleWriter.TimeFormat = time.DateTime
		consoleWriter.Out = os.Stdout
		w = consoleWriter
	default:
		logger.Error().
			Str("env", cfg.Env).
			Msg("unknown env")
		return logger, nil, fmt.Errorf("%w: %s", config.ErrUnknownEnv, cfg.Env)
	}

	var closer io.Closer = nopCloser{}
	if cfg.Log.File != "" {
		err := os.MkdirAll(filepath.Dir(cfg.Log.File), 0o755)
		if err != nil {
			logger.Error().
				Err(err).
				Str("path", cfg.Log.File).
				Msg("failed to prepare log directory")
			return logger, nil, err
		}

		fileWriter := &lumberjack.Logger{
			Filename:   cfg.Log.File,
			MaxSize:    cfg.Log.MaxSizeMB,
			MaxBackups: cfg.Log.MaxBackups,
			MaxAge:     cfg.Log.MaxAgeDays,
			Compress:   cfg.Log.Compress,
		}
		w = zerolog.MultiLevelWriter(w, fileWriter)
		closer = fileWriter
	}

	logger = logger.Output(w)
	logger.Info().
		Str("log_file", cfg.Log.File).
		Msg("initialized application logger")
	return logger, closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
