package game

import (
	"time"

	"github.com/anthon-sd/rookify-sub000/internal/domain/analysis"
)

type Platform string

const (
	PlatformLichess  Platform = "lichess"
	PlatformChessCom Platform = "chesscom"
	PlatformPGN      Platform = "pgn"
)

// ImportedGame is one decomposed game: the position before every ply and
// the move played from it.
type ImportedGame struct {
	ID       string                     `json:"id" bson:"_id"`
	Platform Platform                   `json:"platform" bson:"platform"`
	White    string                     `json:"white" bson:"white"`
	Black    string                     `json:"black" bson:"black"`
	Result   string                     `json:"result" bson:"result"`
	PlayedAt string                     `json:"played_at,omitempty" bson:"played_at,omitempty"`
	Moves    []analysis.PositionRequest `json:"moves" bson:"moves"`
}

// AnalysisRecord is the per-game document stored next to its moments.
type AnalysisRecord struct {
	GameID     string         `json:"game_id" bson:"_id"`
	BatchID    string         `json:"batch_id" bson:"batch_id"`
	Platform   Platform       `json:"platform,omitempty" bson:"platform,omitempty"`
	White      string         `json:"white,omitempty" bson:"white,omitempty"`
	Black      string         `json:"black,omitempty" bson:"black,omitempty"`
	Result     string         `json:"result,omitempty" bson:"result,omitempty"`
	UserRating int            `json:"user_rating" bson:"user_rating"`
	Stats      analysis.Stats `json:"stats" bson:"stats"`
	CreatedAt  time.Time      `json:"created_at" bson:"created_at"`
}

// @name AnalyzeGameRequest
type AnalyzeGameRequest struct {
	GameID string                     `json:"game_id,omitempty"`
	PGN    string                     `json:"pgn,omitempty"`
	Moves  []analysis.PositionRequest `json:"moves,omitempty"`
	User   analysis.UserProfile       `json:"user"`
}

// @name AnalyzeBatchRequest
type AnalyzeBatchRequest struct {
	Positions []analysis.PositionRequest `json:"positions"`
	User      analysis.UserProfile       `json:"user"`
}

// @name ImportRequest
type ImportRequest struct {
	Platform Platform             `json:"platform"`
	Username string               `json:"username"`
	Max      int                  `json:"max"`
	User     analysis.UserProfile `json:"user"`
}

// @name GameAnalysisResponse
type GameAnalysisResponse struct {
	GameID  string                     `json:"game_id"`
	Moments []*analysis.AnalyzedMoment `json:"moments"`
	Results []analysis.Result          `json:"results,omitempty"`
	Stats   analysis.Stats             `json:"stats"`
}

// @name GameSummary
type GameSummary struct {
	GameID string         `json:"game_id"`
	White  string         `json:"white"`
	Black  string         `json:"black"`
	Result string         `json:"result"`
	Stats  analysis.Stats `json:"stats"`
	Error  string         `json:"error,omitempty"`
}
