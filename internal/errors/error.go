package errors

import "errors"

var (
	ErrEngineUnavailable   = errors.New("engine unavailable")
	ErrEngineTimeout       = errors.New("engine timeout")
	ErrMalformedPosition   = errors.New("malformed position")
	ErrIllegalMove         = errors.New("illegal move")
	ErrFeatureExtraction   = errors.New("feature extraction failed")
	ErrAnnotationFailed    = errors.New("annotation generation failed")
	ErrGameNotFound        = errors.New("game not found")
	ErrPlatformUnavailable = errors.New("platform unavailable")
	ErrInvalidRequest      = errors.New("invalid request")
	ErrInternal            = errors.New("internal error")
)
