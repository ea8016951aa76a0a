// Package main provides the stashplan command that reads an allocation request
// and writes the allocation report, a slot suggestion, or cleanup recommendations.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/cory-johannsen/stashplan/internal/allocation"
	"github.com/cory-johannsen/stashplan/internal/category"
	"github.com/cory-johannsen/stashplan/internal/config"
	"github.com/cory-johannsen/stashplan/internal/observability"
	"github.com/cory-johannsen/stashplan/internal/planio"
	"github.com/cory-johannsen/stashplan/internal/recommend"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "stashplan: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	start := time.Now()

	inPath := flag.String("in", "-", "request JSON file (.zst compressed allowed); - reads stdin")
	outPath := flag.String("out", "-", "output JSON file (.zst compressed allowed); - writes stdout")
	configPath := flag.String("config", "", "path to configuration file; empty uses defaults and environment")
	rulesPath := flag.String("rules", "", "category rules YAML; overrides planner.rules_file")
	suggest := flag.Int("suggest", 0, "suggest slot capacities for N bins instead of planning")
	recommendMode := flag.Bool("recommend", false, "emit cleanup recommendations instead of planning")
	stackSize := flag.Int("stack-size", recommend.DefaultStackSize, "largest count of one slot, for -recommend")
	flag.Parse()

	if *suggest > 0 && *recommendMode {
		return errors.New("-suggest and -recommend are mutually exclusive")
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer func() { _ = observability.Sync(logger) }()

	rulesFile := cfg.Planner.RulesFile
	if *rulesPath != "" {
		rulesFile = *rulesPath
	}
	rules, err := category.LoadRules(rulesFile)
	if err != nil {
		return err
	}
	defer rules.Close()

	req, err := planio.ReadRequestFile(*inPath)
	if err != nil {
		return err
	}
	req = cfg.Planner.ApplyDefaults(req)

	engine := allocation.NewEngine(rules.Classifier(), logger)

	var out any
	switch {
	case *recommendMode:
		res, err := recommend.Build(req.Items, *stackSize)
		if err != nil {
			return err
		}
		logger.Info("recommendations computed",
			zap.Int("items", len(req.Items)),
			zap.Int("recommendations", res.Summary.Total),
			zap.Int("slots_to_free", res.Summary.SlotsToFree),
		)
		out = res
	case *suggest > 0:
		sg, err := engine.Suggest(req, *suggest)
		if err != nil {
			return err
		}
		out = sg
	default:
		report, err := engine.Plan(req)
		if err != nil {
			return err
		}
		logger.Info("plan complete",
			zap.String("plan_id", report.ID),
			zap.Int("items", report.Stats.TotalItems),
			zap.Int("sink_accepted", report.Stats.SinkAccepted),
			zap.Int("unassigned", report.Stats.Unassigned),
			zap.Int("moves", report.TransferPlan.TotalMoves),
		)
		out = report
	}

	if n, first := rules.ScriptErrors(); n > 0 {
		logger.Warn("category rule scripts failed",
			zap.Int("failures", n),
			zap.NamedError("first", first),
		)
	}

	if err := planio.WriteReportFile(*outPath, out); err != nil {
		return err
	}
	logger.Debug("stashplan finished", zap.Duration("elapsed", time.Since(start)))
	return nil
}
