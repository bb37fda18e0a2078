package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/example/phrasebot/pkg/models"
)

// ResponseWrapper is the envelope of every JSON response
type ResponseWrapper struct {
	Success    bool        `json:"success"`
	StatusCode int         `json:"statusCode"`
	Message    string      `json:"message,omitempty"`
	Data       interface{} `json:"data,omitempty"`
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		slog.Error("failed to encode response", "error", err)
		code = http.StatusInternalServerError
		response = []byte(`{"success":false,"statusCode":500,"message":"failed to encode response"}`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func respondWithData(w http.ResponseWriter, code int, message string, data interface{}) {
	respondWithJSON(w, code, ResponseWrapper{
		Success:    true,
		StatusCode: code,
		Message:    message,
		Data:       data,
	})
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, ResponseWrapper{StatusCode: code, Message: message})
}

// statusFor maps an engine error to its HTTP status
func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrAlreadyExists), errors.Is(err, models.ErrCannotDelete):
		return http.StatusConflict
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrIdentityUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, models.ErrUnknownLanguage),
		errors.Is(err, models.ErrUnknownStatus),
		errors.Is(err, models.ErrValidationFailed):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrSpeechUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func respondWithEngineError(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		respondWithError(w, code, "Internal server error")
		return
	}
	respondWithError(w, code, err.Error())
}
