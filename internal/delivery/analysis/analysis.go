package analysis

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/anthon-sd/rookify-sub000/internal/domain/analysis"
	"github.com/anthon-sd/rookify-sub000/internal/domain/game"
	"github.com/anthon-sd/rookify-sub000/internal/httpresponse"
	analysisuc "github.com/anthon-sd/rookify-sub000/internal/usecase/analysis"
	"github.com/anthon-sd/rookify-sub000/internal/usecase/games"
	"github.com/anthon-sd/rookify-sub000/internal/utils"
)

type BatchAnalyzer interface {
	AnalyzeBatch(ctx context.Context, reqs []analysis.PositionRequest, profile analysis.UserProfile, opts analysisuc.Options) (analysis.BatchResult, error)
}

type GameAnalyzer interface {
	AnalyzeGame(ctx context.Context, g game.ImportedGame, profile analysis.UserProfile, progress func(analysis.Result)) (game.GameAnalysisResponse, error)
	GetMoments(ctx context.Context, gameID string) ([]analysis.AnalyzedMoment, error)
}

type AnalysisHandler struct {
	log   *zap.SugaredLogger
	batch BatchAnalyzer
	games GameAnalyzer
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func NewAnalysisHandler(log *zap.SugaredLogger, batch BatchAnalyzer, games GameAnalyzer) *AnalysisHandler {
	return &AnalysisHandler{
		log:   log,
		batch: batch,
		games: games,
	}
}

// HandleAnalyzeGame analyzes and stores a whole game.
func (h *AnalysisHandler) HandleAnalyzeGame(w http.ResponseWriter, r *http.Request) {
	var req game.AnalyzeGameRequest
	if err := utils.DecodeJSONRequest(r, &req); err != nil {
		h.log.Warnw("bad analyze game request", "error", err)
		httpresponse.WriteError(w, err)
		return
	}

	g, err := games.Prepare(req)
	if err != nil {
		httpresponse.WriteError(w, err)
		return
	}

	resp, err := h.games.AnalyzeGame(r.Context(), g, req.User, nil)
	if err != nil {
		h.log.Errorw("game analysis failed", "game_id", g.ID, "error", err)
		httpresponse.WriteError(w, err)
		return
	}

	httpresponse.WriteResponseWithStatus(w, http.StatusOK, resp)
}

// HandleAnalyzeBatch analyzes loose positions without storing them.
func (h *AnalysisHandler) HandleAnalyzeBatch(w http.ResponseWriter, r *http.Request) {
	var req game.AnalyzeBatchRequest
	if err := utils.DecodeJSONRequest(r, &req); err != nil {
		h.log.Warnw("bad analyze batch request", "error", err)
		httpresponse.WriteError(w, err)
		return
	}

	res, err := h.batch.AnalyzeBatch(r.Context(), req.Positions, req.User, analysisuc.Options{})
	if err != nil {
		h.log.Errorw("batch analysis failed", "positions", len(req.Positions), "error", err)
		httpresponse.WriteError(w, err)
		return
	}

	httpresponse.WriteResponseWithStatus(w, http.StatusOK, res)
}

func (h *AnalysisHandler) HandleGetMoments(w http.ResponseWriter, r *http.Request) {
	gameID := chi.URLParam(r, "gameID")

	moments, err := h.games.GetMoments(r.Context(), gameID)
	if err != nil {
		httpresponse.WriteError(w, err)
		return
	}

	httpresponse.WriteResponseWithStatus(w, http.StatusOK, moments)
}

// -----------------------------------------------------
// Websocket progress stream
// -----------------------------------------------------

const (
	FrameMoment = "moment"
	FrameStats  = "stats"
	FrameError  = "error"
)

type StreamFrame struct {
	Type   string           `json:"type"`
	GameID string           `json:"game_id,omitempty"`
	Result *analysis.Result `json:"result,omitempty"`
	Stats  *analysis.Stats  `json:"stats,omitempty"`
	Error  string           `json:"error,omitempty"`
}

// HandleAnalyzeStream reads one analyze-game payload, then streams a frame
// per analyzed move in game order followed by a stats frame.
func (h *AnalysisHandler) HandleAnalyzeStream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warnw("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	var req game.AnalyzeGameRequest
	if err := conn.ReadJSON(&req); err != nil {
		h.writeFrame(conn, StreamFrame{Type: FrameError, Error: "invalid JSON: " + err.Error()})
		return
	}

	g, err := games.Prepare(req)
	if err != nil {
		h.writeFrame(conn, StreamFrame{Type: FrameError, Error: err.Error()})
		return
	}

	progress := func(res analysis.Result) {
		h.writeFrame(conn, StreamFrame{Type: FrameMoment, GameID: g.ID, Result: &res})
	}

	resp, err := h.games.AnalyzeGame(r.Context(), g, req.User, progress)
	if err != nil {
		h.log.Errorw("streamed game analysis failed", "game_id", g.ID, "error", err)
		h.writeFrame(conn, StreamFrame{Type: FrameError, GameID: g.ID, Error: err.Error()})
		return
	}

	h.writeFrame(conn, StreamFrame{Type: FrameStats, GameID: g.ID, Stats: &resp.Stats})
	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "done"))
}

func (h *AnalysisHandler) writeFrame(conn *websocket.Conn, frame StreamFrame) {
	if err := conn.WriteJSON(frame); err != nil {
		h.log.Warnw("websocket write failed", "game_id", frame.GameID, "type", frame.Type, "error", err)
	}
}
