// Package planservice exposes the allocation engine over gRPC.
package planservice

import (
	"context"
	"errors"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/cory-johannsen/stashplan/internal/allocation"
	"github.com/cory-johannsen/stashplan/internal/config"
	"github.com/cory-johannsen/stashplan/internal/inventory"
	"github.com/cory-johannsen/stashplan/internal/recommend"
	"github.com/cory-johannsen/stashplan/internal/storage/postgres"
)

// PreferenceStore loads and saves per-account planner preferences.
//
// Load must return an error matching postgres.ErrPreferencesNotFound for an
// account with nothing stored.
type PreferenceStore interface {
	Load(ctx context.Context, account string) (inventory.Preferences, error)
	Save(ctx context.Context, account string, p inventory.Preferences) error
}

// Service implements PlannerServer.
type Service struct {
	engine  *allocation.Engine
	store   PreferenceStore
	planner config.PlannerConfig
	cache   *lru.Cache[string, *allocation.Report]
	logger  *zap.Logger
}

// NewService creates a Service that fills unset request settings from planner
// and caches up to planner.CacheSize reports.
//
// Precondition: engine, store and logger must be non-nil; planner.CacheSize must be > 0.
// Postcondition: Returns a ready Service or a non-nil error.
func NewService(engine *allocation.Engine, store PreferenceStore, planner config.PlannerConfig, logger *zap.Logger) (*Service, error) {
	cache, err := lru.New[string, *allocation.Report](planner.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating report cache: %w", err)
	}
	return &Service{
		engine:  engine,
		store:   store,
		planner: planner,
		cache:   cache,
		logger:  logger,
	}, nil
}

// Plan merges the account's preferences into the request and returns its report.
// Reports are cached by plan id.
func (s *Service) Plan(ctx context.Context, in *PlanRequest) (*allocation.Report, error) {
	start := time.Now()
	req, err := s.merge(ctx, in.Account, in.Request)
	if err != nil {
		return nil, err
	}

	id, err := allocation.RequestID(req)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "computing plan id: %v", err)
	}
	if report, ok := s.cache.Get(id); ok {
		s.logger.Info("plan served from cache",
			zap.String("plan_id", id),
			zap.String("account", in.Account),
		)
		return report, nil
	}

	report, err := s.engine.Plan(req)
	if err != nil {
		return nil, toStatus(err)
	}
	s.cache.Add(id, report)

	s.logger.Info("plan computed",
		zap.String("plan_id", report.ID),
		zap.String("account", in.Account),
		zap.Int("items", report.Stats.TotalItems),
		zap.Int("sink_accepted", report.Stats.SinkAccepted),
		zap.Int("unassigned", report.Stats.Unassigned),
		zap.Int("moves", report.TransferPlan.TotalMoves),
		zap.Duration("elapsed", time.Since(start)),
	)
	return report, nil
}

// Suggest merges the account's preferences into the request and proposes bin capacities.
func (s *Service) Suggest(ctx context.Context, in *SuggestRequest) (*allocation.Suggestion, error) {
	start := time.Now()
	req, err := s.merge(ctx, in.Account, in.Request)
	if err != nil {
		return nil, err
	}
	if in.BinCount < 1 {
		return nil, status.Errorf(codes.InvalidArgument, "bin_count must be >= 1, got %d", in.BinCount)
	}

	sg, err := s.engine.Suggest(req, in.BinCount)
	if err != nil {
		return nil, toStatus(err)
	}
	s.logger.Info("slots suggested",
		zap.String("account", in.Account),
		zap.Int("bin_count", in.BinCount),
		zap.Int("bin_bound", sg.BinBound),
		zap.Duration("elapsed", time.Since(start)),
	)
	return &sg, nil
}

// Recommend returns cleanup recommendations for the given items.
func (s *Service) Recommend(_ context.Context, in *RecommendRequest) (*RecommendResponse, error) {
	res, err := recommend.Build(in.Items, in.StackSize)
	if err != nil {
		return nil, toStatus(err)
	}
	s.logger.Info("recommendations computed",
		zap.Int("items", len(in.Items)),
		zap.Int("recommendations", res.Summary.Total),
		zap.Int("slots_to_free", res.Summary.SlotsToFree),
	)
	return &res, nil
}

// GetPreferences returns the stored preferences of an account.
func (s *Service) GetPreferences(ctx context.Context, in *GetPreferencesRequest) (*PreferencesResponse, error) {
	if in.Account == "" {
		return nil, status.Error(codes.InvalidArgument, "account must be non-empty")
	}
	p, err := s.store.Load(ctx, in.Account)
	if err != nil {
		if errors.Is(err, postgres.ErrPreferencesNotFound) {
			return nil, status.Errorf(codes.NotFound, "no preferences stored for %q", in.Account)
		}
		s.logger.Error("loading preferences", zap.String("account", in.Account), zap.Error(err))
		return nil, status.Errorf(codes.Internal, "loading preferences: %v", err)
	}
	return &PreferencesResponse{Account: in.Account, Preferences: p}, nil
}

// PutPreferences validates and replaces the stored preferences of an account.
func (s *Service) PutPreferences(ctx context.Context, in *PutPreferencesRequest) (*PreferencesResponse, error) {
	if in.Account == "" {
		return nil, status.Error(codes.InvalidArgument, "account must be non-empty")
	}
	if err := in.Preferences.Validate(); err != nil {
		return nil, toStatus(err)
	}
	if err := s.store.Save(ctx, in.Account, in.Preferences); err != nil {
		s.logger.Error("saving preferences", zap.String("account", in.Account), zap.Error(err))
		return nil, status.Errorf(codes.Internal, "saving preferences: %v", err)
	}
	s.logger.Info("preferences saved",
		zap.String("account", in.Account),
		zap.Int("locked", len(in.Preferences.LockedIDs)),
		zap.Int("bins", len(in.Preferences.Bins)),
	)
	return &PreferencesResponse{Account: in.Account, Preferences: in.Preferences}, nil
}

// merge applies the account's stored preferences to req, then the planner
// defaults. An empty account or an account with nothing stored only gets the
// planner defaults.
func (s *Service) merge(ctx context.Context, account string, req inventory.Request) (inventory.Request, error) {
	if account == "" {
		return s.planner.ApplyDefaults(req), nil
	}
	p, err := s.store.Load(ctx, account)
	if err != nil {
		if errors.Is(err, postgres.ErrPreferencesNotFound) {
			return s.planner.ApplyDefaults(req), nil
		}
		s.logger.Error("loading preferences", zap.String("account", account), zap.Error(err))
		return inventory.Request{}, status.Errorf(codes.Internal, "loading preferences: %v", err)
	}
	return s.planner.ApplyDefaults(p.Apply(req)), nil
}

func toStatus(err error) error {
	if errors.Is(err, inventory.ErrInvalidRequest) {
		return status.Error(codes.InvalidArgument, err.Error())
	}
	return status.Error(codes.Internal, err.Error())
}
