package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"slices"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/adanyl0v/retos/internal/config"
	"github.com/adanyl0v/retos/internal/delivery/http/v1"
)

func NewRouter(cfg *config.Config, v1Handler v1.Handler) *gin.Engine {
	if cfg.Env != config.EnvLocal {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(corsConfig(cfg.HTTP.CORSAllowedOrigins)))
	v1.RegisterRoutes(router, v1Handler)

	return router
}

func corsConfig(origins []string) cors.Config {
	corsCfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "X-Request-ID"},
		ExposeHeaders: []string{"X-Request-ID"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = origins
	}
	return corsCfg
}

func NewHTTPServer(cfg config.HTTPConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              net.JoinHostPort(cfg.Host, cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

// ListenAndServeHTTP serves until SIGINT or SIGTERM, drains the server and
// then runs onShutdown. It returns the process exit code.
func ListenAndServeHTTP(
	logger zerolog.Logger,
	cfg config.HTTPConfig,
	server *http.Server,
	onShutdown func(),
) int {
	serveErr := make(chan error, 1)
	go func() {
		logger.Info().
			Str("host", cfg.Host).
			Str("port", cfg.Port).
			Msg("setting up http server")
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().
				Err(err).
				Msg("failed to listen and serve http")
			serveErr <- err
		}
		close(serveErr)
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	wait := gfshutdown.GracefulShutdown(ctx, cfg.ShutdownTimeout, map[string]gfshutdown.Operation{
		"http": func(ctx context.Context) error {
			logger.Info().Msg("shutting down http server")
			defer onShutdown()

			err := server.Shutdown(ctx)
			if err != nil {
				logger.Error().
					Err(err).
					Msg("failed to shutdown http server")
				return err
			}
			logger.Info().Msg("shut down http server")
			return nil
		},
	})

	select {
	case exitCode := <-wait:
		return exitCode
	case err, ok := <-serveErr:
		if ok && err != nil {
			onShutdown()
			return 1
		}
		return <-wait
	}
}
