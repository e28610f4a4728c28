package analysis

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/anthon-sd/rookify-sub000/internal/domain/analysis"
	"github.com/anthon-sd/rookify-sub000/internal/features"
	"github.com/anthon-sd/rookify-sub000/internal/gate"
	"github.com/anthon-sd/rookify-sub000/internal/phase"
)

// fold walks the moments in game order, carrying the phase tracker and the
// mistake counter, and records the gate's decision on each moment. Failed
// items are skipped.
func (u *AnalysisUseCase) fold(ordered []outcome, profile analysis.UserProfile, opts Options) {
	tracker := phase.NewTracker()

	for _, o := range ordered {
		m := o.moment
		if o.err != nil || m == nil {
			continue
		}

		pieces := knownPieceCount(m)
		step := tracker.Observe(m.Position.FullMove, pieces)
		m.Context = analysis.MoveContext{
			MoveIndex:       step.MoveIndex,
			Phase:           step.Phase,
			PreviousPhase:   step.Previous,
			PhaseTransition: step.Transition,
			MistakesSoFar:   step.MistakesBefore,
			EvalSwingCp:     m.Verdict.DeltaCp,
			IsTactical:      isTactical(m.FeaturesBefore, opts.TacticalThreshold),
			PieceCount:      pieces,
			IsForcedMate:    m.EvalBefore.Score.IsMate || m.EvalAfter.Score.IsMate,
		}
		m.Decision = gate.ShouldAnnotate(m.Verdict, m.Context, profile.Rating)
		tracker.Record(m.Verdict.Label)
	}
}

// knownPieceCount prefers the count after the move and falls back to the one
// before it. A degraded count is never used for phase or endgame decisions.
func knownPieceCount(m *analysis.AnalyzedMoment) int {
	switch {
	case !m.FeaturesAfter.IsDegraded(features.MetricPieceCount):
		return m.FeaturesAfter.PieceCount
	case !m.FeaturesBefore.IsDegraded(features.MetricPieceCount):
		return m.FeaturesBefore.PieceCount
	default:
		return phase.UnknownPieces
	}
}

func isTactical(fs analysis.FeatureSet, threshold float64) bool {
	return fs.TacticalComplexity >= threshold || fs.HasMotif(analysis.MotifFork)
}

// annotate generates text for every moment the gate selected. The annotator
// never fails; fallbacks are counted.
func (u *AnalysisUseCase) annotate(ctx context.Context, ordered []outcome, profile analysis.UserProfile, opts Options) int {
	var fallbacks atomic.Int32

	g := new(errgroup.Group)
	g.SetLimit(max(opts.Concurrency, 1))
	for _, o := range ordered {
		m := o.moment
		if o.err != nil || m == nil || !m.Decision.Annotate {
			continue
		}
		g.Go(func() error {
			a := u.annotator.Annotate(ctx, *m, profile)
			text := a.Text
			m.Annotation = &text
			m.AnnotationUsed = true
			m.AnnotationFallback = a.Fallback
			if a.Fallback {
				fallbacks.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	return int(fallbacks.Load())
}
