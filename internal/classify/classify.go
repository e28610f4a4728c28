package classify

import (
	"github.com/anthon-sd/rookify-sub000/internal/domain/analysis"
)

// Upper bounds (inclusive) of the delta ladder, in centipawns.
const (
	ExcellentMaxCp  = 20
	GoodMaxCp       = 50
	InaccuracyMaxCp = 150
	MistakeMaxCp    = 300
	MissMaxCp       = 800
)

const (
	brilliantMinSacrifice = 3
	brilliantMinEval      = 200
	greatMinSacrifice     = 1
	greatMinEval          = 100
)

// SpecialInput feeds the brilliancy and great-move detectors. Evaluations
// and material are from the mover's perspective; material is in pawns.
type SpecialInput struct {
	PrevEval       int
	PlayerEval     int
	BestEval       int
	MaterialBefore int
	MaterialAfter  int
}

type Flags struct {
	Brilliant bool
	Great     bool
	Book      bool
}

// DeltaCp is the non-negative gap between the engine's best line and the
// played move. Playing the engine move is always a zero delta.
func DeltaCp(played, best string, playerEval, bestEval int) int {
	if played != "" && played == best {
		return 0
	}
	d := bestEval - playerEval
	if d < 0 {
		d = -d
	}
	return d
}

// IsBrilliant: a sacrifice of at least three pawns of material that still
// leaves the mover clearly winning while the engine line was level.
func IsBrilliant(in SpecialInput) bool {
	return in.MaterialBefore-in.MaterialAfter >= brilliantMinSacrifice &&
		in.PlayerEval > brilliantMinEval &&
		in.BestEval == 0
}

// IsGreat: a smaller sacrifice that keeps a solid advantage.
func IsGreat(in SpecialInput) bool {
	return in.MaterialBefore-in.MaterialAfter >= greatMinSacrifice &&
		in.PlayerEval > greatMinEval
}

// Detect runs both detectors. Brilliant takes precedence over Great.
func Detect(in SpecialInput) Flags {
	if IsBrilliant(in) {
		return Flags{Brilliant: true}
	}
	return Flags{Great: IsGreat(in)}
}

// Ladder maps a delta to its label without overrides.
func Ladder(deltaCp int) analysis.Label {
	switch {
	case deltaCp <= 0:
		return analysis.Best
	case deltaCp <= ExcellentMaxCp:
		return analysis.Excellent
	case deltaCp <= GoodMaxCp:
		return analysis.Good
	case deltaCp <= InaccuracyMaxCp:
		return analysis.Inaccuracy
	case deltaCp <= MistakeMaxCp:
		return analysis.Mistake
	case deltaCp <= MissMaxCp:
		return analysis.Miss
	default:
		return analysis.Blunder
	}
}

// Classify produces the verdict; Brilliant, Great and Book short-circuit the
// ladder in that order.
func Classify(deltaCp int, flags Flags) analysis.AccuracyVerdict {
	if deltaCp < 0 {
		deltaCp = -deltaCp
	}

	v := analysis.AccuracyVerdict{
		DeltaCp:     deltaCp,
		IsBrilliant: flags.Brilliant,
		IsGreat:     flags.Great && !flags.Brilliant,
		IsBook:      flags.Book,
	}

	switch {
	case v.IsBrilliant:
		v.Label = analysis.Brilliant
	case v.IsGreat:
		v.Label = analysis.Great
	case v.IsBook:
		v.Label = analysis.Book
	default:
		v.Label = Ladder(deltaCp)
	}
	return v
}
