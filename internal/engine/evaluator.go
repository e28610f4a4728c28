package engine

import (
	"context"

	"github.com/anthon-sd/rookify-sub000/internal/domain/analysis"
)

// Evaluator is the Position Evaluator contract. Errors wrap
// ErrEngineUnavailable, ErrEngineTimeout or ErrMalformedPosition.
type Evaluator interface {
	Evaluate(ctx context.Context, fen string, depth int) (analysis.EvaluationResult, error)
	// Ping verifies the oracle is reachable before any work starts.
	Ping(ctx context.Context) error
}

// Instance is a single engine process. It is not safe for concurrent use;
// the Pool hands it to one caller at a time.
type Instance interface {
	Analyze(fen string, depth int) (analysis.RawEvaluation, error)
	Close() error
}

// Factory spawns a new Instance.
type Factory func() (Instance, error)
