package features

import (
	"errors"
	"sort"

	"github.com/notnil/chess"

	"github.com/anthon-sd/rookify-sub000/internal/domain/analysis"
)

const mobilityCeiling = 40.0

var centerSquares = []chess.Square{chess.D4, chess.E4, chess.D5, chess.E5}

var errNoKing = errors.New("side to move has no king")

// materialBalance is White minus Black in pawn units.
func materialBalance(s *snapshot) (int, error) {
	balance := 0
	for _, p := range s.board {
		v, ok := pieceValues[p.Type()]
		if !ok {
			continue
		}
		if p.Color() == chess.White {
			balance += v
		} else {
			balance -= v
		}
	}
	return balance, nil
}

func pieceActivity(s *snapshot) (float64, error) {
	return float64(len(s.moves())) / mobilityCeiling, nil
}

// kingSafety: 0.4 for a king tucked on a castled file of its back rank plus
// 0.2 per friendly pawn on the three squares in front of it.
func kingSafety(s *snapshot) (float64, error) {
	ksq, ok := s.board.kingSquare(s.us)
	if !ok {
		return 0, errNoKing
	}

	f, r := fileOf(ksq), rankOf(ksq)
	backRank, forward := 0, 1
	if s.us == chess.Black {
		backRank, forward = 7, -1
	}

	score := 0.0
	if r == backRank && (f <= 2 || f >= 6) {
		score += 0.4
	}
	for df := -1; df <= 1; df++ {
		sq, ok := square(f+df, r+forward)
		if !ok {
			continue
		}
		if p := s.board[sq]; p.Type() == chess.Pawn && p.Color() == s.us {
			score += 0.2
		}
	}
	return score, nil
}

func pawnStructure(s *snapshot) (float64, error) {
	files := s.board.pawnFiles(s.us)
	total := 0
	for _, n := range files {
		total += n
	}
	if total == 0 {
		return DefaultScore, nil
	}
	doubled, isolated := pawnWeaknesses(files)
	return 1 - 0.15*float64(doubled) - 0.1*float64(isolated), nil
}

// pawnWeaknesses counts extra pawns per file and pawns with no friendly pawn
// on an adjacent file.
func pawnWeaknesses(files [8]int) (doubled, isolated int) {
	for f, n := range files {
		if n > 1 {
			doubled += n - 1
		}
		if n == 0 {
			continue
		}
		left := f > 0 && files[f-1] > 0
		right := f < 7 && files[f+1] > 0
		if !left && !right {
			isolated += n
		}
	}
	return doubled, isolated
}

func centerControl(s *snapshot) (float64, error) {
	controlled := 0
	for _, sq := range centerSquares {
		if len(s.board.attackers(sq, s.us)) > 0 {
			controlled++
		}
	}
	return float64(controlled) / float64(len(centerSquares)), nil
}

// tacticalComplexity is the share of legal moves that capture or give check.
func tacticalComplexity(s *snapshot) (float64, error) {
	moves := s.moves()
	if len(moves) == 0 {
		return 0, nil
	}
	forcing := 0
	for _, m := range moves {
		if m.HasTag(chess.Capture) || m.HasTag(chess.EnPassant) || m.HasTag(chess.Check) {
			forcing++
		}
	}
	return float64(forcing) / float64(len(moves)), nil
}

// threatCount is the number of enemy pieces, king excluded, attacked by the
// side to move.
func threatCount(s *snapshot) (int, error) {
	return len(targets(s)), nil
}

func hangingPieces(s *snapshot) ([]string, error) {
	var hanging []chess.Square
	for _, sq := range targets(s) {
		if len(s.board.attackers(sq, s.them)) == 0 {
			hanging = append(hanging, sq)
		}
	}
	return sortedSquares(hanging), nil
}

func targets(s *snapshot) []chess.Square {
	var out []chess.Square
	for sq := chess.Square(0); sq < 64; sq++ {
		p := s.board[sq]
		if p == chess.NoPiece || p.Color() != s.them || p.Type() == chess.King {
			continue
		}
		if len(s.board.attackers(sq, s.us)) > 0 {
			out = append(out, sq)
		}
	}
	return out
}

func motifs(s *snapshot) ([]string, error) {
	found := map[string]bool{}

	if ksq, ok := s.board.kingSquare(s.us); ok && len(s.board.attackers(ksq, s.them)) > 0 {
		found[analysis.MotifCheck] = true
	}

	hanging, err := hangingPieces(s)
	if err != nil {
		return nil, err
	}
	if len(hanging) > 0 {
		found[analysis.MotifHangingPiece] = true
	}

	if hasFork(s) {
		found[analysis.MotifFork] = true
	}
	if hasPromotionThreat(s) {
		found[analysis.MotifPromotionThreat] = true
	}

	if safety, err := kingSafety(s); err == nil && safety < 0.3 {
		found[analysis.MotifExposedKing] = true
	}

	doubled, isolated := pawnWeaknesses(s.board.pawnFiles(s.us))
	if doubled > 0 {
		found[analysis.MotifDoubledPawn] = true
	}
	if isolated > 0 {
		found[analysis.MotifIsolatedPawn] = true
	}

	if s.board.count(s.us, chess.Bishop) >= 2 {
		found[analysis.MotifBishopPair] = true
	}

	out := make([]string, 0, len(found))
	for tag := range found {
		out = append(out, tag)
	}
	sort.Strings(out)
	return out, nil
}

// hasFork reports a piece of the side to move attacking two or more enemy
// pieces worth at least a minor piece, or the king plus any such piece.
func hasFork(s *snapshot) bool {
	for from := chess.Square(0); from < 64; from++ {
		p := s.board[from]
		if p == chess.NoPiece || p.Color() != s.us {
			continue
		}
		valuable := 0
		for _, sq := range s.board.attacksFrom(from) {
			t := s.board[sq]
			if t == chess.NoPiece || t.Color() != s.them {
				continue
			}
			if t.Type() == chess.King || pieceValues[t.Type()] >= 3 {
				valuable++
			}
		}
		if valuable >= 2 {
			return true
		}
	}
	return false
}

func hasPromotionThreat(s *snapshot) bool {
	seventh := 6
	if s.us == chess.Black {
		seventh = 1
	}
	for sq := chess.Square(0); sq < 64; sq++ {
		if p := s.board[sq]; p.Type() == chess.Pawn && p.Color() == s.us && rankOf(sq) == seventh {
			return true
		}
	}
	return false
}

func pieceCount(s *snapshot) (int, error) {
	n := 0
	for _, p := range s.board {
		if p != chess.NoPiece {
			n++
		}
	}
	return n, nil
}
