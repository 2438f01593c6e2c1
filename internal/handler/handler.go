package handler

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"

	internal_errors "github.com/commentable-dev/commentable/internal/errors"
	"github.com/commentable-dev/commentable/internal/logger"
	"github.com/commentable-dev/commentable/internal/service"
)

type Handler struct {
	comments *service.Comments
}

func New(comments *service.Comments) *Handler {
	return &Handler{comments}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Log.Error("could not encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := internal_errors.StatusCode(err)
	message := err.Error()
	if status >= 500 {
		// Backend details stay in the logs.
		message = "internal server error"
	}
	writeJSON(w, status, map[string]string{"message": message})
}

// clientIP prefers proxy headers over the socket address, matching what
// the captcha verifier forwards to the verification service.
func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return strings.TrimSpace(strings.Split(forwarded, ",")[0])
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
