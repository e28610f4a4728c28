package utils

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	apperrors "github.com/anthon-sd/rookify-sub000/internal/errors"
	"github.com/anthon-sd/rookify-sub000/internal/httpresponse"
)

// MaxRequestBody bounds request bodies; a long PGN is well below it.
const MaxRequestBody = 4 << 20

// DecodeJSONRequest strictly decodes the request body into dst.
func DecodeJSONRequest(r *http.Request, dst interface{}) error {
	defer r.Body.Close()

	decoder := json.NewDecoder(io.LimitReader(r.Body, MaxRequestBody))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return fmt.Errorf("%w: %s: %v", apperrors.ErrInvalidRequest, httpresponse.MALFORMEDJSON_errorDesc, err)
	}
	return nil
}
