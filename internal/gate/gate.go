package gate

import (
	"fmt"

	"github.com/anthon-sd/rookify-sub000/internal/domain/analysis"
)

// EndgameOverrideMaxPieces is the piece count at or below which an endgame
// move is always worth explaining.
const EndgameOverrideMaxPieces = 8

type Tier struct {
	Name             string
	MinRating        int
	Focus            []analysis.Label
	MistakeCap       int
	SwingThresholdCp int
}

func (t Tier) focuses(l analysis.Label) bool {
	for _, f := range t.Focus {
		if f == l {
			return true
		}
	}
	return false
}

// tiers is ordered by ascending MinRating and never mutated.
var tiers = [...]Tier{
	{
		Name:             "beginner",
		MinRating:        0,
		Focus:            []analysis.Label{analysis.Blunder, analysis.Miss, analysis.Brilliant},
		MistakeCap:       3,
		SwingThresholdCp: 100,
	},
	{
		Name:             "intermediate",
		MinRating:        1200,
		Focus:            []analysis.Label{analysis.Blunder, analysis.Miss, analysis.Brilliant, analysis.Mistake, analysis.Great},
		MistakeCap:       5,
		SwingThresholdCp: 50,
	},
	{
		Name:             "advanced",
		MinRating:        1800,
		Focus:            []analysis.Label{analysis.Blunder, analysis.Miss, analysis.Brilliant, analysis.Mistake, analysis.Great, analysis.Inaccuracy},
		MistakeCap:       7,
		SwingThresholdCp: 30,
	},
}

// TierFor picks the highest tier whose MinRating the rating reaches.
func TierFor(rating int) Tier {
	tier := tiers[0]
	for _, t := range tiers {
		if rating >= t.MinRating {
			tier = t
		}
	}
	return tier
}

// ShouldAnnotate decides whether a move earns a generated explanation.
// Mistakes past the tier's per-game cap are never annotated; otherwise a
// focus label, or any override (large swing, phase change, tactics, small
// endgame, forced mate), is enough.
func ShouldAnnotate(v analysis.AccuracyVerdict, mc analysis.MoveContext, rating int) analysis.AnnotationDecision {
	tier := TierFor(rating)

	if v.Label == analysis.Mistake && mc.MistakesSoFar >= tier.MistakeCap {
		return skip("mistake cap of %d reached for %s tier", tier.MistakeCap, tier.Name)
	}

	if tier.focuses(v.Label) {
		return annotate("%s is a focus label for %s tier", v.Label, tier.Name)
	}

	switch {
	case mc.IsForcedMate:
		return annotate("forced mate on the board")
	case mc.EvalSwingCp > tier.SwingThresholdCp:
		return annotate("evaluation swing of %dcp exceeds %dcp", mc.EvalSwingCp, tier.SwingThresholdCp)
	case mc.PhaseTransition:
		return annotate("phase changed from %s to %s", mc.PreviousPhase, mc.Phase)
	case mc.IsTactical:
		return annotate("tactical position")
	case mc.Phase == analysis.Endgame && mc.PieceCount >= 0 && mc.PieceCount <= EndgameOverrideMaxPieces:
		return annotate("endgame with %d pieces", mc.PieceCount)
	}

	return skip("%s is below the %s tier focus", v.Label, tier.Name)
}

func annotate(format string, args ...any) analysis.AnnotationDecision {
	return analysis.AnnotationDecision{Annotate: true, Reason: fmt.Sprintf(format, args...)}
}

func skip(format string, args ...any) analysis.AnnotationDecision {
	return analysis.AnnotationDecision{Annotate: false, Reason: fmt.Sprintf(format, args...)}
}
