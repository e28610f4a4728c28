package games

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/anthon-sd/rookify-sub000/internal/domain/game"
	"github.com/anthon-sd/rookify-sub000/internal/httpresponse"
	"github.com/anthon-sd/rookify-sub000/internal/utils"
)

type Importer interface {
	ImportAndAnalyze(ctx context.Context, req game.ImportRequest) ([]game.GameSummary, error)
}

type GamesHandler struct {
	log      *zap.SugaredLogger
	importer Importer
}

func NewGamesHandler(log *zap.SugaredLogger, importer Importer) *GamesHandler {
	return &GamesHandler{log: log, importer: importer}
}

// HandleImportGames pulls recent games from Lichess or Chess.com and
// analyzes each one.
func (h *GamesHandler) HandleImportGames(w http.ResponseWriter, r *http.Request) {
	var req game.ImportRequest
	if err := utils.DecodeJSONRequest(r, &req); err != nil {
		httpresponse.WriteError(w, err)
		return
	}

	h.log.Infow("import requested", "platform", req.Platform, "username", req.Username, "max", req.Max)

	summaries, err := h.importer.ImportAndAnalyze(r.Context(), req)
	if err != nil {
		h.log.Errorw("import failed", "platform", req.Platform, "username", req.Username, "error", err)
		httpresponse.WriteError(w, err)
		return
	}

	httpresponse.WriteResponseWithStatus(w, http.StatusOK, summaries)
}
