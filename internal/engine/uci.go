package engine

import (
	"fmt"

	"github.com/freeeve/uci"
	"github.com/notnil/chess"

	"github.com/anthon-sd/rookify-sub000/internal/domain/analysis"
	apperrors "github.com/anthon-sd/rookify-sub000/internal/errors"
)

type UCIOptions struct {
	Path    string
	HashMB  int
	Threads int
}

// UCIInstance drives one Stockfish-compatible process over UCI.
type UCIInstance struct {
	engine *uci.Engine
}

func NewUCIInstance(opts UCIOptions) (*UCIInstance, error) {
	eng, err := uci.NewEngine(opts.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: start %s: %v", apperrors.ErrEngineUnavailable, opts.Path, err)
	}

	if err := eng.SetOptions(uci.Options{
		Hash:    opts.HashMB,
		Threads: opts.Threads,
		MultiPV: 1,
		Ponder:  false,
		OwnBook: false,
	}); err != nil {
		eng.Close()
		return nil, fmt.Errorf("%w: set options: %v", apperrors.ErrEngineUnavailable, err)
	}

	return &UCIInstance{engine: eng}, nil
}

// UCIFactory returns a Factory spawning UCIInstances with opts.
func UCIFactory(opts UCIOptions) Factory {
	return func() (Instance, error) {
		return NewUCIInstance(opts)
	}
}

func (i *UCIInstance) Analyze(fen string, depth int) (analysis.RawEvaluation, error) {
	// Engines tend to crash or hang on garbage FEN, so reject it up front.
	fenOpt, err := chess.FEN(fen)
	if err != nil {
		return analysis.RawEvaluation{}, fmt.Errorf("%w: %v", apperrors.ErrMalformedPosition, err)
	}

	if err := i.engine.SetFEN(fen); err != nil {
		return analysis.RawEvaluation{}, fmt.Errorf("%w: set fen: %v", apperrors.ErrEngineUnavailable, err)
	}

	results, err := i.engine.GoDepth(depth, uci.HighestDepthOnly)
	if err != nil {
		return analysis.RawEvaluation{}, fmt.Errorf("%w: go depth %d: %v", apperrors.ErrEngineUnavailable, depth, err)
	}

	raw := analysis.RawEvaluation{
		BestMove:  results.BestMove,
		ScoreType: analysis.ScoreCp,
	}
	if len(results.Results) == 0 {
		// Terminal positions report no search info.
		game := chess.NewGame(fenOpt)
		if game.Position().Status() == chess.Checkmate {
			raw.ScoreType = analysis.ScoreMate
		}
		return raw, nil
	}

	best := results.Results[0]
	for _, r := range results.Results {
		if r.Depth > best.Depth {
			best = r
		}
	}

	raw.ScoreValue = best.Score
	raw.Depth = best.Depth
	if best.Mate {
		raw.ScoreType = analysis.ScoreMate
	}
	if raw.BestMove == "" && len(best.BestMoves) > 0 {
		raw.BestMove = best.BestMoves[0]
	}
	return raw, nil
}

func (i *UCIInstance) Close() error {
	i.engine.Close()
	return nil
}
