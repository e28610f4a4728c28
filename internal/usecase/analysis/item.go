package analysis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/anthon-sd/rookify-sub000/internal/classify"
	"github.com/anthon-sd/rookify-sub000/internal/domain/analysis"
	"github.com/anthon-sd/rookify-sub000/internal/engine"
	"github.com/anthon-sd/rookify-sub000/internal/features"
)

// analyzeItem is the stateless part of one move: both evaluations, both
// feature sets and the verdict. Game context is filled in later by fold.
func (u *AnalysisUseCase) analyzeItem(ctx context.Context, req analysis.PositionRequest, opts Options) (*analysis.AnalyzedMoment, error) {
	pos, err := features.ParsePosition(req.FEN)
	if err != nil {
		return nil, err
	}
	applied, err := features.ApplyMove(pos.FEN, req.Move)
	if err != nil {
		return nil, err
	}

	before, err := u.evaluator.Evaluate(ctx, pos.FEN, opts.Depth)
	if err != nil {
		return nil, fmt.Errorf("evaluate before %s: %w", req.Move, err)
	}
	afterRaw, err := u.evaluator.Evaluate(ctx, applied.FENAfter, opts.Depth)
	if err != nil {
		return nil, fmt.Errorf("evaluate after %s: %w", req.Move, err)
	}
	after := engine.FromMoverPerspective(afterRaw)

	featuresBefore, err := u.extractor.Extract(pos.FEN)
	if err != nil {
		return nil, err
	}
	featuresAfter, err := u.extractor.Extract(applied.FENAfter)
	if err != nil {
		return nil, err
	}

	playerEval := after.Score.Cp
	bestEval := before.Score.Cp
	delta := classify.DeltaCp(applied.UCI, before.BestMove, playerEval, bestEval)

	flags := classify.Detect(classify.SpecialInput{
		PrevEval:       before.Score.Cp,
		PlayerEval:     playerEval,
		BestEval:       bestEval,
		MaterialBefore: featuresBefore.MaterialFor(pos.SideToMove),
		MaterialAfter:  u.materialAfterReply(applied.FENAfter, afterRaw.BestMove, featuresAfter, pos.SideToMove),
	})
	ply := plyOf(pos)
	flags.Book = ply <= opts.BookPlies && delta <= classify.ExcellentMaxCp

	return &analysis.AnalyzedMoment{
		ID:             uuid.NewString(),
		GameID:         opts.GameID,
		PositionID:     req.ID,
		Ply:            ply,
		Position:       pos,
		Move:           applied.UCI,
		MoveSAN:        applied.SAN,
		FENAfter:       applied.FENAfter,
		EvalBefore:     before,
		EvalAfter:      after,
		WinProbability: features.WinProbability(after.Score),
		FeaturesBefore: featuresBefore,
		FeaturesAfter:  featuresAfter,
		Verdict:        classify.Classify(delta, flags),
		Commentary:     req.Commentary,
		CreatedAt:      time.Now().UTC(),
	}, nil
}

// materialAfterReply measures the mover's material once the opponent has
// played the engine's expected reply, so a piece left en prise counts as
// sacrificed. Without a usable reply the position right after the move is
// used.
func (u *AnalysisUseCase) materialAfterReply(fenAfter, reply string, featuresAfter analysis.FeatureSet, mover analysis.Color) int {
	fallback := featuresAfter.MaterialFor(mover)
	if reply == "" {
		return fallback
	}
	next, err := features.ApplyMove(fenAfter, reply)
	if err != nil {
		u.log.Debugw("engine reply not applicable", "fen", fenAfter, "reply", reply, "error", err)
		return fallback
	}
	material, err := features.MaterialFor(next.FENAfter, mover)
	if err != nil {
		return fallback
	}
	return material
}

// plyOf is the 1-based half-move number of the move about to be played.
func plyOf(pos analysis.Position) int {
	ply := 2*(pos.FullMove-1) + 1
	if pos.SideToMove == analysis.Black {
		ply++
	}
	return ply
}
