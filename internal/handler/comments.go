package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/commentable-dev/commentable/internal/domain"
	internal_errors "github.com/commentable-dev/commentable/internal/errors"
	"github.com/commentable-dev/commentable/internal/logger"
	"github.com/commentable-dev/commentable/internal/service"

	"github.com/go-chi/chi/v5"
)

type listResponse struct {
	Comments []*domain.PublicComment `json:"comments"`
}

type previewRequest struct {
	Message string `json:"message"`
}

type previewResponse struct {
	HTMLMessage string `json:"htmlMessage"`
}

type deleteResponse struct {
	Success   bool  `json:"success"`
	CommentID int64 `json:"commentId"`
}

// List returns the threaded comments for one page.
// GET /v2/comments?apiKey=...&pageId=...&sort=asc|desc
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	apiKey := r.URL.Query().Get("apiKey")
	pageID := r.URL.Query().Get("pageId")
	order := domain.ParseSortOrder(r.URL.Query().Get("sort"))

	comments, err := h.comments.List(apiKey, pageID, order)
	if err != nil {
		writeError(w, err)
		return
	}
	if comments == nil {
		comments = []*domain.PublicComment{}
	}
	writeJSON(w, http.StatusOK, listResponse{Comments: comments})
}

// Create stores a new comment.
// POST /comments/create?apiKey=...
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	apiKey := r.URL.Query().Get("apiKey")

	var req service.CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, internal_errors.Validation("body is invalid json"))
		return
	}
	req.ClientIP = clientIP(r)

	created, err := h.comments.Create(apiKey, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// Preview renders a message without storing it.
// POST /comments/preview
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	var req previewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, internal_errors.Validation("body is invalid json"))
		return
	}
	writeJSON(w, http.StatusOK, previewResponse{HTMLMessage: h.comments.Preview(req.Message)})
}

// Delete removes a comment when the emailed admin token matches.
// GET /comments/delete/{commentId}/{hash}
// The path segment is the backend row id; the original widget's delete
// links call it commentId and that shape is kept for compatibility.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	rowID, err := strconv.ParseInt(chi.URLParam(r, "commentId"), 10, 64)
	if err != nil {
		writeError(w, internal_errors.Validation("invalid comment id"))
		return
	}
	token := chi.URLParam(r, "hash")

	if err := h.comments.Remove(rowID, token); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, deleteResponse{Success: true, CommentID: rowID})
}

// Monitor is the liveness probe: it answers "up" only when the storage
// backend can still be counted.
// GET /monitor/
func (h *Handler) Monitor(w http.ResponseWriter, r *http.Request) {
	count, err := h.comments.Count()
	if err != nil {
		writeError(w, err)
		return
	}
	logger.Log.Debug("monitor request succeeded", "comments", count)
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("up"))
}

// Health reports that the process is serving requests.
// GET /healthz
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}
