package http

import (
	"encoding/json"
	"errors"
	"led-gateway/internal/domain/model"
	"led-gateway/internal/domain/service"
	"net/http"
)

// APIError is the JSON body of every non-2xx answer from the device API.
type APIError struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

const (
	codeBadRequest    = "bad_request"
	codeNotFound      = "not_found"
	codeActuator      = "actuator_error"
	codeInternal      = "internal_error"
	codeBodyTooLarge  = "body_too_large"
	maxRequestBodyLen = 1 << 20
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // connection may already be gone
		json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, APIError{Status: status, Code: code, Message: message})
}

// writeServiceError maps LEDPort errors onto statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrLEDNotFound):
		writeError(w, http.StatusNotFound, codeNotFound, err.Error())
	case errors.Is(err, model.ErrInvalidState):
		writeError(w, http.StatusBadRequest, codeBadRequest, err.Error())
	case errors.Is(err, service.ErrActuator):
		writeError(w, http.StatusBadGateway, codeActuator, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, codeInternal, err.Error())
	}
}
