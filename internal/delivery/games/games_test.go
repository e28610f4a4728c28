package games

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/anthon-sd/rookify-sub000/internal/domain/game"
	apperrors "github.com/anthon-sd/rookify-sub000/internal/errors"
)

type stubImporter struct {
	got game.ImportRequest
	err error
}

func (s *stubImporter) ImportAndAnalyze(_ context.Context, req game.ImportRequest) ([]game.GameSummary, error) {
	s.got = req
	if s.err != nil {
		return nil, s.err
	}
	return []game.GameSummary{{GameID: "abc"}}, nil
}

func TestHandleImportGames(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		importer *stubImporter
		want     int
		contains string
	}{
		{
			name:     "ok",
			body:     `{"platform":"lichess","username":"alice","max":2,"user":{"rating":1300}}`,
			importer: &stubImporter{},
			want:     http.StatusOK,
			contains: `"game_id":"abc"`,
		},
		{name: "bad json", body: `{`, importer: &stubImporter{}, want: http.StatusBadRequest},
		{
			name:     "platform down",
			body:     `{"platform":"chesscom","username":"bob"}`,
			importer: &stubImporter{err: apperrors.ErrPlatformUnavailable},
			want:     http.StatusServiceUnavailable,
		},
		{
			name:     "unknown user",
			body:     `{"platform":"chesscom","username":"ghost"}`,
			importer: &stubImporter{err: apperrors.ErrGameNotFound},
			want:     http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewGamesHandler(zap.NewNop().Sugar(), tt.importer)
			rec := httptest.NewRecorder()
			h.HandleImportGames(rec, httptest.NewRequest(http.MethodPost, "/importGames", strings.NewReader(tt.body)))

			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.want, rec.Body.String())
			}
			if tt.contains != "" && !strings.Contains(rec.Body.String(), tt.contains) {
				t.Fatalf("body %s lacks %s", rec.Body.String(), tt.contains)
			}
		})
	}
}
