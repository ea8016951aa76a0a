package allocation

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/stashplan/internal/category"
	"github.com/cory-johannsen/stashplan/internal/inventory"
)

// PlanNamespace is the UUID namespace of report IDs.
var PlanNamespace = uuid.MustParse("8a1f3c52-7d4e-4b9a-b6c0-2e5d9f713a48")

// Engine runs allocation requests against one classifier.
// An Engine holds no per-run state and is safe for concurrent use.
type Engine struct {
	classifier *category.Classifier
	logger     *zap.Logger
}

// NewEngine creates an Engine.
//
// Precondition: classifier and logger must not be nil.
func NewEngine(classifier *category.Classifier, logger *zap.Logger) *Engine {
	return &Engine{classifier: classifier, logger: logger}
}

// Classifier returns the engine's classifier.
func (e *Engine) Classifier() *category.Classifier {
	return e.classifier
}

// Plan validates req and runs sink selection, bin packing and report building.
//
// Precondition: none; req is validated here.
// Postcondition: Returns a complete Report, or an error wrapping
// inventory.ErrInvalidRequest. req is not modified.
func (e *Engine) Plan(req inventory.Request) (*Report, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	id, err := RequestID(req)
	if err != nil {
		return nil, err
	}

	sel := SelectForSink(req.Items, req.EffectiveSink(), req.Policy)
	e.logger.Debug("sink selection complete",
		zap.String("plan_id", id),
		zap.Int("sink_bound", len(sel.SinkBound())),
		zap.Int("new_slots", len(sel.NewSlots)),
		zap.Int("rejected", len(sel.Rejected)),
		zap.Int("locked", len(sel.Locked)),
		zap.Int("ineligible", len(sel.Ineligible)),
	)

	pack := Distribute(sel.BinBound(), req.Bins, e.classifier, req.UseSubCategories)
	e.logger.Debug("bin packing complete",
		zap.String("plan_id", id),
		zap.Int("bins", len(pack.Bins)),
		zap.Int("assigned", pack.Assigned()),
		zap.Int("unassigned", len(pack.Unassigned)),
	)

	report := BuildReport(sel, pack)
	report.ID = id
	return report, nil
}

// Suggest validates req and proposes capacities for binCount bins.
//
// Postcondition: Returns a Suggestion, or an error wrapping
// inventory.ErrInvalidRequest.
func (e *Engine) Suggest(req inventory.Request, binCount int) (Suggestion, error) {
	if err := req.Validate(); err != nil {
		return Suggestion{}, err
	}
	s := SuggestSlots(binCount, req.Items, req.EffectiveSink(), req.Policy, e.classifier, req.UseSubCategories)
	e.logger.Debug("slot suggestion complete",
		zap.Int("bin_count", binCount),
		zap.Int("bin_bound", s.BinBound),
	)
	return s, nil
}

// RequestID returns the deterministic ID of req: a name-based UUID over its
// canonical JSON encoding.
//
// Postcondition: equal requests yield equal IDs.
func RequestID(req inventory.Request) (string, error) {
	canonical, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("encoding request: %w", err)
	}
	return uuid.NewSHA1(PlanNamespace, canonical).String(), nil
}
