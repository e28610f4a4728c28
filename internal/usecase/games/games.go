package games

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/anthon-sd/rookify-sub000/internal/domain/analysis"
	"github.com/anthon-sd/rookify-sub000/internal/domain/game"
	apperrors "github.com/anthon-sd/rookify-sub000/internal/errors"
	analysisuc "github.com/anthon-sd/rookify-sub000/internal/usecase/analysis"
)

const defaultImportMax = 5

type BatchAnalyzer interface {
	AnalyzeBatch(ctx context.Context, reqs []analysis.PositionRequest, profile analysis.UserProfile, opts analysisuc.Options) (analysis.BatchResult, error)
}

type AnalysisStore interface {
	SaveAnalysis(ctx context.Context, record game.AnalysisRecord, moments []analysis.AnalyzedMoment) error
	GetAnalysis(ctx context.Context, gameID string) (game.AnalysisRecord, error)
	GetMomentsByGame(ctx context.Context, gameID string) ([]analysis.AnalyzedMoment, error)
}

// GameFetcher returns raw PGN texts of a user's most recent games.
type GameFetcher interface {
	FetchGames(ctx context.Context, username string, limit int) ([]string, error)
}

type GamesUseCase struct {
	analyzer BatchAnalyzer
	store    AnalysisStore
	fetchers map[game.Platform]GameFetcher
	log      *zap.SugaredLogger
}

func NewGamesUseCase(analyzer BatchAnalyzer, store AnalysisStore, fetchers map[game.Platform]GameFetcher, log *zap.SugaredLogger) *GamesUseCase {
	return &GamesUseCase{
		analyzer: analyzer,
		store:    store,
		fetchers: fetchers,
		log:      log,
	}
}

// Prepare turns an analyze-game request into a game, from either its PGN
// or its explicit move list.
func Prepare(req game.AnalyzeGameRequest) (game.ImportedGame, error) {
	switch {
	case strings.TrimSpace(req.PGN) != "":
		g, err := Decompose(req.PGN, game.PlatformPGN)
		if err != nil {
			return g, err
		}
		if req.GameID != "" {
			g.ID = req.GameID
		}
		return g, nil
	case len(req.Moves) > 0:
		return FromMoves(req.GameID, req.Moves), nil
	default:
		return game.ImportedGame{}, fmt.Errorf("%w: either pgn or moves is required", apperrors.ErrInvalidRequest)
	}
}

// AnalyzeGame runs the batch pipeline over one game and stores the result.
// progress may be nil.
func (u *GamesUseCase) AnalyzeGame(ctx context.Context, g game.ImportedGame, profile analysis.UserProfile, progress func(analysis.Result)) (game.GameAnalysisResponse, error) {
	batch, err := u.analyzer.AnalyzeBatch(ctx, g.Moves, profile, analysisuc.Options{GameID: g.ID, Progress: progress})
	if err != nil {
		return game.GameAnalysisResponse{}, err
	}

	moments := batch.Moments()
	record := game.AnalysisRecord{
		GameID:     g.ID,
		BatchID:    batch.ID,
		Platform:   g.Platform,
		White:      g.White,
		Black:      g.Black,
		Result:     g.Result,
		UserRating: profile.Rating,
		Stats:      batch.Stats,
		CreatedAt:  time.Now().UTC(),
	}
	if err := u.store.SaveAnalysis(ctx, record, moments); err != nil {
		return game.GameAnalysisResponse{}, fmt.Errorf("save analysis of %s: %w", g.ID, err)
	}

	resp := game.GameAnalysisResponse{
		GameID:  g.ID,
		Moments: make([]*analysis.AnalyzedMoment, 0, len(moments)),
		Stats:   batch.Stats,
	}
	for _, r := range batch.Results {
		if r.Moment != nil {
			resp.Moments = append(resp.Moments, r.Moment)
		} else {
			resp.Results = append(resp.Results, r)
		}
	}
	return resp, nil
}

// ImportAndAnalyze fetches the user's latest games from a platform and
// analyzes each. A game that fails is reported in its summary.
func (u *GamesUseCase) ImportAndAnalyze(ctx context.Context, req game.ImportRequest) ([]game.GameSummary, error) {
	fetcher, ok := u.fetchers[req.Platform]
	if !ok {
		return nil, fmt.Errorf("%w: unknown platform %q", apperrors.ErrInvalidRequest, req.Platform)
	}
	if req.Username == "" {
		return nil, fmt.Errorf("%w: username is required", apperrors.ErrInvalidRequest)
	}
	limit := req.Max
	if limit <= 0 {
		limit = defaultImportMax
	}

	pgns, err := fetcher.FetchGames(ctx, req.Username, limit)
	if err != nil {
		return nil, err
	}

	var imported []game.ImportedGame
	for _, pgn := range pgns {
		gs, err := DecomposeAll(strings.NewReader(pgn), req.Platform)
		if err != nil {
			u.log.Warnw("skipping unreadable pgn", "platform", req.Platform, "username", req.Username, "error", err)
		}
		imported = append(imported, gs...)
	}
	if len(imported) > limit {
		imported = imported[:limit]
	}

	summaries := make([]game.GameSummary, 0, len(imported))
	for _, g := range imported {
		summary := game.GameSummary{GameID: g.ID, White: g.White, Black: g.Black, Result: g.Result}
		resp, err := u.AnalyzeGame(ctx, g, req.User, nil)
		if err != nil {
			u.log.Errorw("imported game analysis failed", "game_id", g.ID, "error", err)
			summary.Error = err.Error()
		} else {
			summary.Stats = resp.Stats
		}
		summaries = append(summaries, summary)
	}

	u.log.Infow("games imported",
		"platform", req.Platform,
		"username", req.Username,
		"games", len(summaries),
	)
	return summaries, nil
}

func (u *GamesUseCase) GetMoments(ctx context.Context, gameID string) ([]analysis.AnalyzedMoment, error) {
	return u.store.GetMomentsByGame(ctx, gameID)
}

func (u *GamesUseCase) GetAnalysis(ctx context.Context, gameID string) (game.AnalysisRecord, error) {
	return u.store.GetAnalysis(ctx, gameID)
}
