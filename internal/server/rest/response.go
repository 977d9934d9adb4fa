package rest

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/lostify/lostify/internal/common"
	"github.com/lostify/lostify/internal/server/services"
)

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError sends the uniform error body. 401 responses carry the
// authentication challenge.
func writeError(w http.ResponseWriter, status int, message string) {
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", common.AuthenticateChallenge)
	}
	writeJSON(w, status, errorBody{Error: http.StatusText(status), Message: message})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, common.ErrorBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrorUnauthorized), errors.Is(err, common.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, common.ErrorForbidden):
		return http.StatusForbidden
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrorConflict):
		return http.StatusConflict
	case errors.Is(err, common.ErrorPayloadTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, common.ErrorTooManyRequests):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// fail maps a service error onto a response. notFound replaces the bare
// repository message for 404s; 5xx causes are logged and hidden.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error, notFound string) {
	status := statusFor(err)

	var throttled *services.ThrottledError
	if errors.As(err, &throttled) {
		w.Header().Set("Retry-After", strconv.Itoa(throttled.RetryAfter))
		writeError(w, status, "Login attempt limit reached")
		return
	}

	var msg string
	var typed *common.Error
	switch {
	case status == http.StatusInternalServerError:
		h.logger.Error(r.Context(), "request failed", "error", err, "request_id", requestIDFrom(r.Context()))
		msg = "Internal server error"
		if errors.Is(err, common.ErrorDeliveryFailed) || errors.Is(err, common.ErrorDeliveryTimedOut) {
			msg = "Failed to send email"
		}
	case errors.As(err, &typed):
		msg = typed.Error()
	case status == http.StatusNotFound && notFound != "":
		msg = notFound
	default:
		msg = err.Error()
	}
	writeError(w, status, msg)
}
