package games

import (
	"fmt"
	"io"
	"net/url"
	"path"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/notnil/chess"

	"github.com/anthon-sd/rookify-sub000/internal/domain/analysis"
	"github.com/anthon-sd/rookify-sub000/internal/domain/game"
	apperrors "github.com/anthon-sd/rookify-sub000/internal/errors"
)

// Decompose parses a single PGN game into the positions to analyze.
func Decompose(pgn string, platform game.Platform) (game.ImportedGame, error) {
	opt, err := chess.PGN(strings.NewReader(pgn))
	if err != nil {
		return game.ImportedGame{}, fmt.Errorf("%w: parse pgn: %v", apperrors.ErrInvalidRequest, err)
	}
	return decomposeGame(chess.NewGame(opt), platform)
}

// DecomposeAll splits a multi-game PGN stream, such as a Lichess export.
// Games that cannot be decomposed are skipped.
func DecomposeAll(r io.Reader, platform game.Platform) ([]game.ImportedGame, error) {
	var out []game.ImportedGame

	scanner := chess.NewScanner(r)
	for scanner.Scan() {
		g, err := decomposeGame(scanner.Next(), platform)
		if err != nil {
			continue
		}
		out = append(out, g)
	}
	if err := scanner.Err(); err != nil && err != io.EOF {
		return out, fmt.Errorf("%w: scan pgn: %v", apperrors.ErrInvalidRequest, err)
	}
	return out, nil
}

func decomposeGame(g *chess.Game, platform game.Platform) (game.ImportedGame, error) {
	moves := g.Moves()
	if len(moves) == 0 {
		return game.ImportedGame{}, fmt.Errorf("%w: game has no moves", apperrors.ErrInvalidRequest)
	}
	positions := g.Positions()
	comments := g.Comments()

	imported := game.ImportedGame{
		ID:       gameID(g),
		Platform: platform,
		White:    tag(g, "White"),
		Black:    tag(g, "Black"),
		Result:   tag(g, "Result"),
		PlayedAt: tag(g, "Date"),
		Moves:    make([]analysis.PositionRequest, 0, len(moves)),
	}

	for i, mv := range moves {
		before := positions[i]
		imported.Moves = append(imported.Moves, analysis.PositionRequest{
			ID:         strconv.Itoa(i + 1),
			FEN:        before.String(),
			Move:       chess.UCINotation{}.Encode(before, mv),
			Commentary: moveComment(comments, i),
		})
	}
	return imported, nil
}

// pgnCommand matches embedded commands such as [%clk 0:04:59] or [%eval 0.3].
var pgnCommand = regexp.MustCompile(`\[%[^\]]*\]`)

// moveComment joins the comments that follow move i, minus clock and eval
// commands.
func moveComment(comments [][]string, i int) string {
	if i >= len(comments) {
		return ""
	}
	var parts []string
	for _, c := range comments[i] {
		c = strings.TrimSpace(pgnCommand.ReplaceAllString(c, ""))
		if c != "" {
			parts = append(parts, c)
		}
	}
	return strings.Join(parts, " ")
}

func tag(g *chess.Game, key string) string {
	if tp := g.GetTagPair(key); tp != nil {
		return tp.Value
	}
	return ""
}

// gameID reuses the platform's game id from the Site or Link tag.
func gameID(g *chess.Game) string {
	for _, key := range []string{"Link", "Site"} {
		u, err := url.Parse(tag(g, key))
		if err != nil || u.Host == "" {
			continue
		}
		if id := path.Base(u.Path); id != "" && id != "/" && id != "." {
			return id
		}
	}
	return uuid.NewString()
}

// FromMoves builds a game from client-supplied positions.
func FromMoves(id string, moves []analysis.PositionRequest) game.ImportedGame {
	if id == "" {
		id = uuid.NewString()
	}
	return game.ImportedGame{ID: id, Platform: game.PlatformPGN, Moves: moves}
}
