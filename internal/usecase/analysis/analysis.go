package analysis

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/anthon-sd/rookify-sub000/internal/bootstrap"
	"github.com/anthon-sd/rookify-sub000/internal/commentary"
	"github.com/anthon-sd/rookify-sub000/internal/domain/analysis"
	"github.com/anthon-sd/rookify-sub000/internal/engine"
	apperrors "github.com/anthon-sd/rookify-sub000/internal/errors"
)

type FeatureExtractor interface {
	Extract(fen string) (analysis.FeatureSet, error)
}

type Annotator interface {
	Annotate(ctx context.Context, m analysis.AnalyzedMoment, profile analysis.UserProfile) commentary.Annotation
}

// Options tune one AnalyzeBatch call. Zero fields take the use case defaults.
type Options struct {
	GameID            string
	Depth             int
	Concurrency       int
	ChunkSize         int
	ItemTimeout       time.Duration
	BookPlies         int
	TacticalThreshold float64
	// Progress, when set, receives every result in input order once the
	// batch has been folded and annotated.
	Progress func(analysis.Result)
}

func OptionsFromConfig(cfg *bootstrap.Config) Options {
	return Options{
		Depth:             cfg.EngineDepth,
		Concurrency:       cfg.BatchConcurrency,
		ChunkSize:         cfg.BatchChunkSize,
		ItemTimeout:       cfg.BatchItemTimeout,
		BookPlies:         cfg.BookPlies,
		TacticalThreshold: cfg.TacticalThreshold,
	}
}

func (o Options) withDefaults(d Options) Options {
	if o.Depth <= 0 {
		o.Depth = d.Depth
	}
	if o.Concurrency <= 0 {
		o.Concurrency = d.Concurrency
	}
	if o.ChunkSize <= 0 {
		o.ChunkSize = d.ChunkSize
	}
	if o.ItemTimeout <= 0 {
		o.ItemTimeout = d.ItemTimeout
	}
	if o.BookPlies <= 0 {
		o.BookPlies = d.BookPlies
	}
	if o.TacticalThreshold <= 0 {
		o.TacticalThreshold = d.TacticalThreshold
	}
	return o
}

type AnalysisUseCase struct {
	evaluator engine.Evaluator
	extractor FeatureExtractor
	annotator Annotator
	defaults  Options
	log       *zap.SugaredLogger
}

func NewAnalysisUseCase(evaluator engine.Evaluator, extractor FeatureExtractor, annotator Annotator, defaults Options, log *zap.SugaredLogger) *AnalysisUseCase {
	return &AnalysisUseCase{
		evaluator: evaluator,
		extractor: extractor,
		annotator: annotator,
		defaults:  defaults,
		log:       log,
	}
}

type outcome struct {
	moment *analysis.AnalyzedMoment
	err    error
}

// AnalyzeBatch analyzes every request and returns exactly one result per
// request, in request order. Per-item problems become Failures; an error is
// returned only when the request itself is invalid or the engine is
// unreachable before any work starts.
func (u *AnalysisUseCase) AnalyzeBatch(ctx context.Context, reqs []analysis.PositionRequest, profile analysis.UserProfile, opts Options) (analysis.BatchResult, error) {
	opts = opts.withDefaults(u.defaults)
	batch := analysis.BatchResult{ID: uuid.NewString(), Results: []analysis.Result{}}

	reqs, err := assignIDs(reqs)
	if err != nil {
		return batch, err
	}
	if len(reqs) == 0 {
		return batch, nil
	}

	if err := u.evaluator.Ping(ctx); err != nil {
		u.log.Errorw("engine unreachable, batch aborted", "batch_id", batch.ID, "error", err)
		return batch, fmt.Errorf("engine ping: %w", err)
	}

	started := time.Now()
	outcomes := u.evaluateAll(ctx, reqs, opts)

	ordered := make([]outcome, len(reqs))
	for i, req := range reqs {
		ordered[i] = outcomes[req.ID]
	}

	u.fold(ordered, profile, opts)
	fallbacks := u.annotate(ctx, ordered, profile, opts)

	batch.Results = make([]analysis.Result, len(reqs))
	for i, req := range reqs {
		res := analysis.Result{PositionID: req.ID}
		o := ordered[i]
		switch {
		case o.err != nil:
			res.Failure = failureFor(req.ID, o.err)
			batch.Stats.Failed++
		case o.moment != nil:
			res.Moment = o.moment
			batch.Stats.Successful++
			if o.moment.AnnotationUsed {
				batch.Stats.AnnotationsMade++
			}
		default:
			res.Failure = failureFor(req.ID, fmt.Errorf("%w: no result recorded", apperrors.ErrInternal))
			batch.Stats.Failed++
		}
		batch.Results[i] = res
		if opts.Progress != nil {
			opts.Progress(res)
		}
	}

	batch.Stats.Total = len(reqs)
	batch.Stats.AnnotationsSaved = batch.Stats.Successful - batch.Stats.AnnotationsMade
	batch.Stats.AnnotationFallbacks = fallbacks

	u.log.Infow("batch analyzed",
		"batch_id", batch.ID,
		"game_id", opts.GameID,
		"total", batch.Stats.Total,
		"failed", batch.Stats.Failed,
		"annotations_made", batch.Stats.AnnotationsMade,
		"annotations_saved", batch.Stats.AnnotationsSaved,
		"duration", time.Since(started),
	)
	return batch, nil
}

func assignIDs(reqs []analysis.PositionRequest) ([]analysis.PositionRequest, error) {
	out := make([]analysis.PositionRequest, len(reqs))
	seen := make(map[string]struct{}, len(reqs))
	for i, r := range reqs {
		if r.ID == "" {
			r.ID = fmt.Sprintf("%d", i)
		}
		if _, dup := seen[r.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate position id %q", apperrors.ErrInvalidRequest, r.ID)
		}
		seen[r.ID] = struct{}{}
		out[i] = r
	}
	return out, nil
}

// -----------------------------------------------------
// Parallel stage
// -----------------------------------------------------

// evaluateAll runs the stateless per-item work chunk by chunk. Items that
// failed because the engine was unavailable get one sequential retry within
// their chunk.
func (u *AnalysisUseCase) evaluateAll(ctx context.Context, reqs []analysis.PositionRequest, opts Options) map[string]outcome {
	results := make(map[string]outcome, len(reqs))
	var mu sync.Mutex

	for start := 0; start < len(reqs); start += opts.ChunkSize {
		end := min(start+opts.ChunkSize, len(reqs))
		chunk := reqs[start:end]

		g := new(errgroup.Group)
		g.SetLimit(min(opts.Concurrency, len(chunk)))
		for _, req := range chunk {
			req := req
			g.Go(func() error {
				o := u.runItem(ctx, req, opts)
				mu.Lock()
				results[req.ID] = o
				mu.Unlock()
				return nil
			})
		}
		_ = g.Wait()

		for _, req := range chunk {
			if !errors.Is(results[req.ID].err, apperrors.ErrEngineUnavailable) {
				continue
			}
			u.log.Warnw("retrying position sequentially", "position_id", req.ID, "error", results[req.ID].err)
			results[req.ID] = u.runItem(ctx, req, opts)
		}
	}
	return results
}

// runItem enforces the per-item timeout independently of other items.
func (u *AnalysisUseCase) runItem(ctx context.Context, req analysis.PositionRequest, opts Options) (o outcome) {
	itemCtx, cancel := context.WithTimeout(ctx, opts.ItemTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			u.log.Errorw("position analysis panicked", "position_id", req.ID, "panic", r)
			o = outcome{err: fmt.Errorf("%w: %v", apperrors.ErrInternal, r)}
		}
	}()

	m, err := u.analyzeItem(itemCtx, req, opts)
	if err != nil {
		u.log.Warnw("position analysis failed", "position_id", req.ID, "fen", req.FEN, "error", err)
		return outcome{err: err}
	}
	return outcome{moment: m}
}

func failureFor(id string, err error) *analysis.Failure {
	kind := analysis.FailureInternal
	switch {
	case errors.Is(err, apperrors.ErrEngineTimeout), errors.Is(err, context.DeadlineExceeded):
		kind = analysis.FailureEngineTimeout
	case errors.Is(err, apperrors.ErrEngineUnavailable):
		kind = analysis.FailureEngineUnavailable
	case errors.Is(err, apperrors.ErrMalformedPosition):
		kind = analysis.FailureMalformedPosition
	case errors.Is(err, apperrors.ErrIllegalMove):
		kind = analysis.FailureIllegalMove
	}
	return &analysis.Failure{PositionID: id, Kind: kind, Reason: err.Error()}
}
