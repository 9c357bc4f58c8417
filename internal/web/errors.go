package web

import (
	"errors"
	"net/http"

	"github.com/JonMunkholm/listings/internal/core"
	"github.com/JonMunkholm/listings/internal/logging"
)

// ErrorResponse is the JSON body of every error. Code is machine-readable;
// Message and Action are meant for people.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// statusFor picks the response status of err.
func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrInvalidFilter):
		return http.StatusBadRequest
	case errors.Is(err, errBodyTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, core.ErrTooManyQueries):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondError logs err with the request id and writes its mapped message.
// Client errors echo the detail; server errors never do.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	userMsg := core.MapError(err)
	if errors.Is(err, core.ErrTooManyQueries) {
		w.Header().Set("Retry-After", "1")
	}

	logger := logging.FromContext(r.Context())
	if status >= http.StatusInternalServerError {
		logger.Error("request error",
			"path", r.URL.Path,
			"method", r.Method,
			"status", status,
			"error", err.Error(),
			"code", userMsg.Code,
		)
	} else {
		logger.Info("rejected request",
			"path", r.URL.Path,
			"status", status,
			"error", err.Error(),
		)
	}

	resp := ErrorResponse{
		Error:   userMsg.Message,
		Message: userMsg.Message,
		Action:  userMsg.Action,
		Code:    userMsg.Code,
	}
	if status < http.StatusInternalServerError {
		resp.Error = err.Error()
	}
	writeJSON(w, r, status, resp)
}
