package features

import (
	"github.com/notnil/chess"
)

var pieceValues = map[chess.PieceType]int{
	chess.Pawn:   1,
	chess.Knight: 3,
	chess.Bishop: 3,
	chess.Rook:   5,
	chess.Queen:  9,
}

var (
	knightJumps = [][2]int{{1, 2}, {2, 1}, {2, -1}, {1, -2}, {-1, -2}, {-2, -1}, {-2, 1}, {-1, 2}}
	kingSteps   = [][2]int{{1, 0}, {1, 1}, {0, 1}, {-1, 1}, {-1, 0}, {-1, -1}, {0, -1}, {1, -1}}
	rookRays    = [][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}
	bishopRays  = [][2]int{{1, 1}, {1, -1}, {-1, 1}, {-1, -1}}
)

// board is a dense copy of the position's pieces indexed by square
// (a1=0 ... h8=63). Attack queries never touch the chess.Position.
type board [64]chess.Piece

func newBoard(b *chess.Board) board {
	var out board
	for sq, p := range b.SquareMap() {
		out[sq] = p
	}
	return out
}

func square(file, rank int) (chess.Square, bool) {
	if file < 0 || file > 7 || rank < 0 || rank > 7 {
		return 0, false
	}
	return chess.Square(rank*8 + file), true
}

func fileOf(sq chess.Square) int { return int(sq) % 8 }
func rankOf(sq chess.Square) int { return int(sq) / 8 }

// attacksFrom lists the squares the piece on from attacks, whether empty or
// occupied by either side.
func (b *board) attacksFrom(from chess.Square) []chess.Square {
	p := b[from]
	if p == chess.NoPiece {
		return nil
	}
	f, r := fileOf(from), rankOf(from)

	var out []chess.Square
	step := func(offsets [][2]int) {
		for _, o := range offsets {
			if sq, ok := square(f+o[0], r+o[1]); ok {
				out = append(out, sq)
			}
		}
	}
	slide := func(rays [][2]int) {
		for _, d := range rays {
			for i := 1; ; i++ {
				sq, ok := square(f+d[0]*i, r+d[1]*i)
				if !ok {
					break
				}
				out = append(out, sq)
				if b[sq] != chess.NoPiece {
					break
				}
			}
		}
	}

	switch p.Type() {
	case chess.Pawn:
		dir := 1
		if p.Color() == chess.Black {
			dir = -1
		}
		step([][2]int{{-1, dir}, {1, dir}})
	case chess.Knight:
		step(knightJumps)
	case chess.King:
		step(kingSteps)
	case chess.Bishop:
		slide(bishopRays)
	case chess.Rook:
		slide(rookRays)
	case chess.Queen:
		slide(rookRays)
		slide(bishopRays)
	}
	return out
}

// attackers returns the squares of pieces of color by that attack target.
func (b *board) attackers(target chess.Square, by chess.Color) []chess.Square {
	var out []chess.Square
	for sq := chess.Square(0); sq < 64; sq++ {
		p := b[sq]
		if p == chess.NoPiece || p.Color() != by {
			continue
		}
		for _, a := range b.attacksFrom(sq) {
			if a == target {
				out = append(out, sq)
				break
			}
		}
	}
	return out
}

func (b *board) kingSquare(c chess.Color) (chess.Square, bool) {
	for sq := chess.Square(0); sq < 64; sq++ {
		if p := b[sq]; p.Type() == chess.King && p.Color() == c {
			return sq, true
		}
	}
	return 0, false
}

func (b *board) pawnFiles(c chess.Color) [8]int {
	var files [8]int
	for sq := chess.Square(0); sq < 64; sq++ {
		if p := b[sq]; p.Type() == chess.Pawn && p.Color() == c {
			files[fileOf(sq)]++
		}
	}
	return files
}

func (b *board) count(c chess.Color, t chess.PieceType) int {
	n := 0
	for _, p := range b {
		if p != chess.NoPiece && p.Color() == c && p.Type() == t {
			n++
		}
	}
	return n
}

func otherColor(c chess.Color) chess.Color {
	if c == chess.White {
		return chess.Black
	}
	return chess.White
}
