package main

import (
	"context"
	"fmt"
	"net"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/cory-johannsen/stashplan/internal/allocation"
	"github.com/cory-johannsen/stashplan/internal/category"
	"github.com/cory-johannsen/stashplan/internal/config"
	"github.com/cory-johannsen/stashplan/internal/planservice"
	"github.com/cory-johannsen/stashplan/internal/server"
	"github.com/cory-johannsen/stashplan/internal/storage/postgres"
)

// healthInterval is the period of the database health check.
const healthInterval = 30 * time.Second

func providePool(ctx context.Context, cfg config.Config) (*postgres.Pool, func(), error) {
	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to database: %w", err)
	}
	return pool, pool.Close, nil
}

func provideRepository(pool *postgres.Pool) *postgres.PreferenceRepository {
	return postgres.NewPreferenceRepository(pool.DB())
}

func provideRuleSet(cfg config.Config) (*category.RuleSet, func(), error) {
	rs, err := category.LoadRules(cfg.Planner.RulesFile)
	if err != nil {
		return nil, nil, err
	}
	return rs, rs.Close, nil
}

func provideEngine(rs *category.RuleSet, logger *zap.Logger) *allocation.Engine {
	return allocation.NewEngine(rs.Classifier(), logger)
}

func provideService(engine *allocation.Engine, store planservice.PreferenceStore, cfg config.Config, logger *zap.Logger) (*planservice.Service, error) {
	return planservice.NewService(engine, store, cfg.Planner, logger)
}

func provideGRPCServer(svc *planservice.Service) *grpc.Server {
	s := grpc.NewServer()
	planservice.RegisterPlannerServer(s, svc)
	return s
}

// app is the assembled planning service.
type app struct {
	cfg    config.Config
	logger *zap.Logger
	pool   *postgres.Pool
	rules  *category.RuleSet
	grpc   *grpc.Server
}

func newApp(cfg config.Config, logger *zap.Logger, pool *postgres.Pool, rules *category.RuleSet, grpcServer *grpc.Server) *app {
	return &app{cfg: cfg, logger: logger, pool: pool, rules: rules, grpc: grpcServer}
}

// run serves gRPC and watches the database and rule scripts until ctx is
// cancelled or a service fails.
func (a *app) run(ctx context.Context) error {
	lifecycle := server.NewLifecycle(a.logger)

	addr := a.cfg.Server.Addr()
	lifecycle.Add("grpc", &server.FuncService{
		StartFn: func() error {
			lis, err := net.Listen("tcp", addr)
			if err != nil {
				return fmt.Errorf("listening on %s: %w", addr, err)
			}
			a.logger.Info("gRPC server listening",
				zap.String("addr", lis.Addr().String()),
			)
			return a.grpc.Serve(lis)
		},
		StopFn: func() {
			a.grpc.GracefulStop()
		},
	})

	done := make(chan struct{})
	lifecycle.Add("postgres", &server.FuncService{
		StartFn: func() error {
			ticker := time.NewTicker(healthInterval)
			defer ticker.Stop()
			reported := 0
			for {
				select {
				case <-done:
					return nil
				case <-ticker.C:
					if err := a.pool.Health(ctx, 5*time.Second); err != nil {
						a.logger.Warn("database health check failed", zap.Error(err))
					}
					reported = warnScriptErrors(a.logger, a.rules, reported)
				}
			}
		},
		StopFn: func() {
			close(done)
		},
	})

	return lifecycle.Run(ctx)
}

// warnScriptErrors logs when rule scripts have failed since the last report
// and returns the new failure count.
func warnScriptErrors(logger *zap.Logger, rules *category.RuleSet, reported int) int {
	n, first := rules.ScriptErrors()
	if n > reported {
		logger.Warn("category rule scripts failed",
			zap.Int("failures", n),
			zap.Int("new", n-reported),
			zap.NamedError("first", first),
		)
	}
	return n
}
