package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/inhahackathon/foodmarket/internal/auth"
	"github.com/inhahackathon/foodmarket/internal/services"
	"github.com/sirupsen/logrus"
)

// LikeHandler serves the like endpoints.
type LikeHandler struct {
	likeService *services.LikeService
	logger      logrus.FieldLogger
}

func NewLikeHandler(likeService *services.LikeService, logger logrus.FieldLogger) *LikeHandler {
	return &LikeHandler{likeService: likeService, logger: logger}
}

// LikeRouter registers like routes. Every route requires authentication.
func LikeRouter(r chi.Router, h *LikeHandler, authMiddleware func(http.Handler) http.Handler) {
	r.Use(authMiddleware)
	r.Get("/list/{userId}", h.ListLikes)
	r.Get("/{boardId}", h.CreateLike)
	r.Delete("/{boardId}", h.DeleteLike)
}

// CreateLike marks the board as liked by the caller.
func (h *LikeHandler) CreateLike(w http.ResponseWriter, r *http.Request) {
	boardID, err := parseIDParam(r, "boardId")
	if err != nil {
		writeBadRequest(w, r, err)
		return
	}

	if err := h.likeService.CreateLike(r.Context(), auth.UserIDFromContext(r.Context()), boardID); err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeOK(w, r, http.StatusOK, nil)
}

func (h *LikeHandler) DeleteLike(w http.ResponseWriter, r *http.Request) {
	boardID, err := parseIDParam(r, "boardId")
	if err != nil {
		writeBadRequest(w, r, err)
		return
	}

	if err := h.likeService.DeleteLike(r.Context(), auth.UserIDFromContext(r.Context()), boardID); err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeOK(w, r, http.StatusOK, nil)
}

// ListLikes returns the caller's liked boards under "likesList".
func (h *LikeHandler) ListLikes(w http.ResponseWriter, r *http.Request) {
	userID, err := parseIDParam(r, "userId")
	if err != nil {
		writeBadRequest(w, r, err)
		return
	}

	likes, err := h.likeService.ListLikes(r.Context(), userID, auth.UserIDFromContext(r.Context()))
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeOK(w, r, http.StatusOK, map[string]any{"likesList": likes})
}
