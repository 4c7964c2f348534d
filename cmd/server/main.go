package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/CodeArche/proofgate/internal/httpserver"
	"github.com/CodeArche/proofgate/internal/logger"
	"github.com/CodeArche/proofgate/pkg/proofgate"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	configPath := flag.String("config", "", "path to config yaml (optional)")
	envFile := flag.String("env-file", ".env", "dotenv file loaded before reading the environment")
	flag.Parse()

	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatal().Err(err).Str("file", *envFile).Msg("server.env_file_failed")
	}

	cfg, err := proofgate.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("server.config_failed")
	}

	appLogger := logger.New(logger.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		Service:     "proofgate",
		Version:     version,
		Environment: cfg.Logging.Environment,
	})
	log.Logger = appLogger

	for _, name := range cfg.MissingSecrets() {
		appLogger.Warn().Str("env", name).Msg("server.secret_missing")
	}

	app, err := proofgate.NewApp(cfg, proofgate.WithLogger(appLogger))
	if err != nil {
		appLogger.Fatal().Err(err).Msg("server.app_init_failed")
	}

	srv := httpserver.New(cfg, app.Handler())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		appLogger.Info().
			Str("address", cfg.Server.Address).
			Str("route_prefix", cfg.Server.RoutePrefix).
			Msg("server.listening")
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error().Err(err).Msg("server.listen_failed")
		}
	case <-ctx.Done():
		appLogger.Info().Msg("server.shutting_down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error().Err(err).Msg("server.shutdown_failed")
	}
	if err := app.Close(); err != nil {
		appLogger.Error().Err(err).Msg("server.close_failed")
	}
	appLogger.Info().Msg("server.stopped")
}
