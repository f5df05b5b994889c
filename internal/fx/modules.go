package fx

import (
	"naval-combat/internal/config"
	"naval-combat/internal/database"
	"naval-combat/internal/logger"
	"naval-combat/internal/repository"
	"naval-combat/internal/server"
	"naval-combat/internal/service"

	"go.uber.org/fx"
)

var Module = fx.Options(
	fx.Provide(logger.New),
	fx.Provide(config.Load),
	fx.Provide(database.New),
	fx.Provide(database.NewRedis),
	// repos
	fx.Provide(fx.Annotate(repository.NewMatchRepository, fx.As(new(service.MatchStore)))),
	fx.Provide(fx.Annotate(repository.NewMatchStateRepository, fx.As(new(service.StateStore)))),
	fx.Provide(fx.Annotate(repository.NewProfileRepository, fx.As(new(service.ProfileStore)))),
	fx.Provide(fx.Annotate(repository.NewRankingCache, fx.As(new(service.RankingCache)))),
	// svc
	fx.Provide(service.NewMatchService),
	fx.Provide(service.NewTimeoutSweeper),
	// server
	fx.Provide(server.NewMatchServer),
)
