package phase

import (
	"github.com/anthon-sd/rookify-sub000/internal/domain/analysis"
)

const (
	OpeningMaxMove   = 10
	EndgameMaxPieces = 10

	// UnknownPieces marks a position whose piece count could not be computed.
	UnknownPieces = -1
)

// Detect classifies a position by full-move number and total piece count
// (kings and pawns included). An unknown count never yields Endgame.
func Detect(fullMove, pieceCount int) analysis.Phase {
	switch {
	case fullMove <= OpeningMaxMove:
		return analysis.Opening
	case pieceCount != UnknownPieces && pieceCount <= EndgameMaxPieces:
		return analysis.Endgame
	default:
		return analysis.Middlegame
	}
}

// Tracker is the running context of one game. It must be fed moves in game
// order and is not safe for concurrent use.
type Tracker struct {
	previous  analysis.Phase
	mistakes  int
	moveIndex int
}

func NewTracker() *Tracker {
	return &Tracker{}
}

type Step struct {
	MoveIndex  int
	Phase      analysis.Phase
	Previous   analysis.Phase
	Transition bool
	// MistakesBefore is the counter value before this move is recorded.
	MistakesBefore int
}

// Observe advances the tracker by one move and reports the phase change.
// With UnknownPieces an endgame already reached is kept.
func (t *Tracker) Observe(fullMove, pieceCount int) Step {
	current := Detect(fullMove, pieceCount)
	if pieceCount == UnknownPieces && t.previous == analysis.Endgame {
		current = analysis.Endgame
	}
	step := Step{
		MoveIndex:      t.moveIndex,
		Phase:          current,
		Previous:       t.previous,
		Transition:     t.previous != "" && t.previous != current,
		MistakesBefore: t.mistakes,
	}
	t.previous = current
	t.moveIndex++
	return step
}

// Record counts the move's verdict towards the mistake counter.
func (t *Tracker) Record(label analysis.Label) {
	if label.IsError() {
		t.mistakes++
	}
}

func (t *Tracker) Mistakes() int {
	return t.mistakes
}
