package engine

import (
	"github.com/anthon-sd/rookify-sub000/internal/domain/analysis"
)

// Normalize turns raw oracle output into an EvaluationResult. The score
// stays in the perspective of the side to move of the evaluated position.
// Mates collapse onto ±(MateScore-|n|); "mate 0" means the side to move
// has been mated.
func Normalize(raw analysis.RawEvaluation) analysis.EvaluationResult {
	best := raw.BestMove
	if best == "(none)" || best == "0000" {
		best = ""
	}

	return analysis.EvaluationResult{
		BestMove:    best,
		Score:       normalizeScore(raw.ScoreType, raw.ScoreValue),
		SearchDepth: raw.Depth,
	}
}

func normalizeScore(kind analysis.ScoreType, value int) analysis.Score {
	if kind != analysis.ScoreMate {
		return analysis.Score{Cp: value}
	}

	switch {
	case value > 0:
		return analysis.Score{Cp: analysis.MateScore - value, Mate: value, IsMate: true}
	case value < 0:
		return analysis.Score{Cp: -(analysis.MateScore + value), Mate: value, IsMate: true}
	default:
		return analysis.Score{Cp: -analysis.MateScore, IsMate: true}
	}
}

// FromMoverPerspective flips an evaluation of the position after a move so
// that it reads from the point of view of the player who made the move.
// This is the only place a score changes perspective.
func FromMoverPerspective(after analysis.EvaluationResult) analysis.EvaluationResult {
	after.Score = after.Score.Negate()
	return after
}

// Raw is the inverse of Normalize for transports that carry the oracle shape.
func Raw(res analysis.EvaluationResult) analysis.RawEvaluation {
	raw := analysis.RawEvaluation{
		BestMove:   res.BestMove,
		ScoreType:  analysis.ScoreCp,
		ScoreValue: res.Score.Cp,
		Depth:      res.SearchDepth,
	}
	if res.Score.IsMate {
		raw.ScoreType = analysis.ScoreMate
		raw.ScoreValue = res.Score.Mate
	}
	return raw
}
