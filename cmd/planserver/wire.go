//go:build wireinject

package main

import (
	"context"

	"github.com/google/wire"
	"go.uber.org/zap"

	"github.com/cory-johannsen/stashplan/internal/config"
	"github.com/cory-johannsen/stashplan/internal/planservice"
	"github.com/cory-johannsen/stashplan/internal/storage/postgres"
)

func initializeApp(ctx context.Context, cfg config.Config, logger *zap.Logger) (*app, func(), error) {
	wire.Build(
		providePool,
		provideRepository,
		wire.Bind(new(planservice.PreferenceStore), new(*postgres.PreferenceRepository)),
		provideRuleSet,
		provideEngine,
		provideService,
		provideGRPCServer,
		newApp,
	)
	return nil, nil, nil
}
