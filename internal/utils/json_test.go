package utils

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	apperrors "github.com/anthon-sd/rookify-sub000/internal/errors"
	"github.com/anthon-sd/rookify-sub000/internal/httpresponse"
)

type payload struct {
	GameID string `json:"game_id"`
}

func TestDecodeJSONRequest(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{name: "valid", body: `{"game_id":"g1"}`},
		{name: "truncated", body: `{"game_id":`, wantErr: true},
		{name: "unknown field", body: `{"game_id":"g1","extra":1}`, wantErr: true},
		{name: "empty", body: ``, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var dst payload
			err := DecodeJSONRequest(httptest.NewRequest("POST", "/", strings.NewReader(tt.body)), &dst)
			if !tt.wantErr {
				if err != nil || dst.GameID != "g1" {
					t.Fatalf("dst = %+v, err = %v", dst, err)
				}
				return
			}
			if !errors.Is(err, apperrors.ErrInvalidRequest) {
				t.Fatalf("err = %v, want invalid request", err)
			}
			if !strings.Contains(err.Error(), httpresponse.MALFORMEDJSON_errorDesc) {
				t.Fatalf("err = %q lacks %q", err, httpresponse.MALFORMEDJSON_errorDesc)
			}
		})
	}
}
