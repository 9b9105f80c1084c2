package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"

	"acecast/internal/config"
	"acecast/internal/constants"
	fxmodules "acecast/internal/fx"
	"acecast/internal/middleware"
	"acecast/internal/server"
	"acecast/internal/service"

	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

func main() {
	fx.New(
		fxmodules.Module,
		fx.Invoke(loadData),
		fx.Invoke(runServer),
	).Run()
}

// loadData folds every configured CSV source and persists the archive before
// the server starts listening. Once this returns, engine state is immutable
// and safe for concurrent readers.
func loadData(ingestSvc *service.IngestService, cfg *config.Config, logger zerolog.Logger) error {
	if err := ingestSvc.Run(context.Background(), cfg.DataPaths); err != nil {
		logger.Error().Err(err).Msg("failed to load match data")
		return err
	}
	return nil
}

func runServer(
	lc fx.Lifecycle,
	srv *server.Server,
	cfg *config.Config,
	db *sql.DB,
	logger zerolog.Logger,
) {
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	handler := middleware.RequestID(logger)(
		middleware.Recover(logger)(
			c.Handler(srv.Handler()),
		),
	)

	httpSrv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.ServerPort),
		Handler: handler,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				logger.Info().Str("addr", httpSrv.Addr).Msg("server starting")
				if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Fatal().Err(err).Msg("server failed")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info().Msg("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
			defer cancel()

			if err := db.Close(); err != nil {
				logger.Warn().Err(err).Msg("error closing database connection")
			}

			if err := httpSrv.Shutdown(shutdownCtx); err != nil {
				logger.Error().Err(err).Msg("server shutdown failed")
				return err
			}
			logger.Info().Msg("server stopped gracefully")
			return nil
		},
	})
}
