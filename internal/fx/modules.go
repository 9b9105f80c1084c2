package fx

import (
	"acecast/internal/config"
	"acecast/internal/database"
	"acecast/internal/elo"
	"acecast/internal/logger"
	"acecast/internal/repository"
	"acecast/internal/server"
	"acecast/internal/service"
	"acecast/internal/tournament"

	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

func ProvideEngine(cfg *config.Config, log zerolog.Logger) *elo.Engine {
	return elo.NewEngine(elo.Params{
		BaseK:             cfg.BaseK,
		SurfaceBleed:      cfg.SurfaceBleed,
		RecencyBoost:      cfg.RecencyBoost,
		RecencyWindowDays: cfg.RecencyWindowDays,
	}, log)
}

func ProvideSimulator(engine *elo.Engine, cfg *config.Config, log zerolog.Logger) *tournament.Simulator {
	return tournament.NewSimulator(engine, cfg.SimWorkers, log)
}

var Module = fx.Options(
	fx.Provide(logger.New),
	fx.Provide(config.Load),
	fx.Provide(database.New),
	// engine + simulator
	fx.Provide(ProvideEngine),
	fx.Provide(ProvideSimulator),
	// repos
	fx.Provide(repository.NewPlayerRepository),
	fx.Provide(repository.NewMatchRepository),
	fx.Provide(repository.NewRatingHistoryRepository),
	fx.Provide(repository.NewSimulationRepository),
	// svc
	fx.Provide(service.NewIngestService),
	fx.Provide(service.NewPlayerService),
	fx.Provide(service.NewInsightService),
	// server
	fx.Provide(server.New),
)
