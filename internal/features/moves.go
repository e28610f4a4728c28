package features

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/notnil/chess"

	"github.com/anthon-sd/rookify-sub000/internal/domain/analysis"
	apperrors "github.com/anthon-sd/rookify-sub000/internal/errors"
)

// ParsePosition validates fen and extracts the side to move and move number.
func ParsePosition(fen string) (analysis.Position, error) {
	opt, err := chess.FEN(fen)
	if err != nil {
		return analysis.Position{}, fmt.Errorf("%w: %v", apperrors.ErrMalformedPosition, err)
	}
	pos := chess.NewGame(opt).Position()

	side := analysis.White
	if pos.Turn() == chess.Black {
		side = analysis.Black
	}

	fullMove := 1
	if fields := strings.Fields(fen); len(fields) >= 6 {
		if n, err := strconv.Atoi(fields[5]); err == nil && n > 0 {
			fullMove = n
		}
	}

	return analysis.Position{FEN: pos.String(), SideToMove: side, FullMove: fullMove}, nil
}

type AppliedMove struct {
	UCI      string
	SAN      string
	FENAfter string
}

// ApplyMove plays move (UCI, or SAN as a fallback) on fen. The move must be
// legal in the position.
func ApplyMove(fen, move string) (AppliedMove, error) {
	opt, err := chess.FEN(fen)
	if err != nil {
		return AppliedMove{}, fmt.Errorf("%w: %v", apperrors.ErrMalformedPosition, err)
	}
	pos := chess.NewGame(opt).Position()

	m, err := decodeMove(pos, move)
	if err != nil {
		return AppliedMove{}, err
	}

	return AppliedMove{
		UCI:      chess.UCINotation{}.Encode(pos, m),
		SAN:      chess.AlgebraicNotation{}.Encode(pos, m),
		FENAfter: pos.Update(m).String(),
	}, nil
}

func decodeMove(pos *chess.Position, move string) (*chess.Move, error) {
	var decoded *chess.Move
	if m, err := (chess.UCINotation{}).Decode(pos, move); err == nil {
		decoded = m
	} else if m, err := (chess.AlgebraicNotation{}).Decode(pos, move); err == nil {
		decoded = m
	} else {
		return nil, fmt.Errorf("%w: cannot decode %q", apperrors.ErrIllegalMove, move)
	}

	for _, legal := range pos.ValidMoves() {
		if legal.S1() == decoded.S1() && legal.S2() == decoded.S2() && legal.Promo() == decoded.Promo() {
			return legal, nil
		}
	}
	return nil, fmt.Errorf("%w: %q is not legal here", apperrors.ErrIllegalMove, move)
}

// MaterialFor is the material balance of fen in pawn units from c's side.
func MaterialFor(fen string, c analysis.Color) (int, error) {
	snap, err := newSnapshot(fen)
	if err != nil {
		return 0, err
	}
	balance, _ := materialBalance(snap)
	if c == analysis.Black {
		return -balance, nil
	}
	return balance, nil
}
