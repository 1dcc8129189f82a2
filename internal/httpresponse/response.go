package httpresponse

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	errs "omega/internal/errors"
)

type Response[T any] struct {
	Status int `json:"Status"`
	Body   T   `json:"Body,omitempty"`
}

type ErrorResponse struct {
	ErrorDescription string `json:"ErrorDescription"`
}

const INTERNALERRORJSON = "{\"Status\": 500,\"Body\":{\"ErrorDescription\": \"Internal server error\"}}"

const MALFORMEDJSON_errorDesc = "json unmarshalling error"

func WriteResponseWithStatus(w http.ResponseWriter, status int, body any) {
	jsonByte, err := marshalStatusJson(status, body)
	if err != nil {
		WriteInternalErrorResponse(w)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(jsonByte)
}

// WriteError answers with the status that matches err and logs anything that
// is not the client's fault.
func WriteError(w http.ResponseWriter, log *zap.SugaredLogger, err error) {
	status := StatusFromError(err)
	if status >= http.StatusInternalServerError {
		log.Errorw("request failed", "error", err)
	} else {
		log.Debugw("request rejected", "status", status, "error", err)
	}
	WriteResponseWithStatus(w, status, ErrorResponse{ErrorDescription: err.Error()})
}

func StatusFromError(err error) int {
	switch {
	case errors.Is(err, errs.ErrInvalidCoordinate),
		errors.Is(err, errs.ErrMalformedRecord),
		errors.Is(err, errs.ErrInvalidQuery):
		return http.StatusBadRequest
	case errors.Is(err, errs.ErrGameNotFound):
		return http.StatusNotFound
	case errors.Is(err, errs.ErrIllegalMove),
		errors.Is(err, errs.ErrHeatmapInFlight),
		errors.Is(err, errs.ErrGenmoveInFlight):
		return http.StatusConflict
	case errors.Is(err, errs.ErrEngineUnavailable),
		errors.Is(err, errs.ErrHeatmapAborted):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

func marshalStatusJson(status int, body any) ([]byte, error) {
	response := Response[any]{
		Status: status,
		Body:   body,
	}
	marshal, err := json.Marshal(response)
	if err != nil {
		return nil, err
	}
	return marshal, nil
}

func WriteInternalErrorResponse(w http.ResponseWriter) {
	// like http.Error, but with a JSON content type
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	_, _ = fmt.Fprintln(w, INTERNALERRORJSON)
}
