package errors

import "errors"

var (
	ErrInvalidCoordinate = errors.New("invalid board coordinate")
	ErrIllegalMove       = errors.New("illegal move")
	ErrHeatmapInFlight   = errors.New("heatmap request already in flight")
	ErrHeatmapAborted    = errors.New("heatmap response was truncated")
	ErrGenmoveInFlight   = errors.New("genmove request already in flight")
	ErrEngineUnavailable = errors.New("analysis engine is not running")
	ErrGameNotFound      = errors.New("game not found")
	ErrMalformedRecord   = errors.New("malformed game record")
	ErrInvalidQuery      = errors.New("invalid position query")
	ErrInternal          = errors.New("internal error")
)
