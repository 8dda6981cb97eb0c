package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/inhahackathon/foodmarket/internal/apperr"
	"github.com/inhahackathon/foodmarket/internal/auth"
	"github.com/inhahackathon/foodmarket/internal/services"
	"github.com/inhahackathon/foodmarket/types"
	"github.com/sirupsen/logrus"
)

// UserHandler serves the user profile endpoints.
type UserHandler struct {
	userService *services.UserService
	logger      logrus.FieldLogger
}

func NewUserHandler(userService *services.UserService, logger logrus.FieldLogger) *UserHandler {
	return &UserHandler{userService: userService, logger: logger}
}

// UserRouter registers user routes. Every route requires authentication.
func UserRouter(r chi.Router, h *UserHandler, authMiddleware func(http.Handler) http.Handler) {
	r.Use(authMiddleware)
	r.Put("/", h.UpdateUser)
	r.Post("/location", h.UpdateLocation)
	r.Post("/profile-image", h.UpdateProfileImage)
	r.Get("/{userId}", h.GetUser)
	r.Delete("/{userId}", h.DeleteUser)
}

type UpdateUserRequest struct {
	Name          string `json:"name"`
	Location      string `json:"location"`
	ProfileImgURL string `json:"profileImgUrl"`
}

type UpdateLocationRequest struct {
	Latitude  *float64 `json:"latitude" validate:"required,gte=-90,lte=90"`
	Longitude *float64 `json:"longitude" validate:"required,gte=-180,lte=180"`
}

func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	userID, err := parseIDParam(r, "userId")
	if err != nil {
		writeBadRequest(w, r, err)
		return
	}

	user, err := h.userService.GetUser(r.Context(), userID)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeOK(w, r, http.StatusOK, map[string]any{"user": user})
}

// UpdateUser updates the caller's profile.
func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var req UpdateUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, r, err)
		return
	}

	user, err := h.userService.UpdateUser(r.Context(), types.UserDTO{
		UserID:        auth.UserIDFromContext(r.Context()),
		Name:          req.Name,
		Location:      req.Location,
		ProfileImgURL: req.ProfileImgURL,
	})
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeOK(w, r, http.StatusOK, map[string]any{"user": user})
}

// DeleteUser deletes the caller's own account.
func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	userID, err := parseIDParam(r, "userId")
	if err != nil {
		writeBadRequest(w, r, err)
		return
	}
	if userID != auth.UserIDFromContext(r.Context()) {
		writeAppError(w, r, h.logger, apperr.New(apperr.ErrPermissionDenied, "cannot delete another user"))
		return
	}

	if err := h.userService.DeleteUser(r.Context(), userID); err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeOK(w, r, http.StatusOK, nil)
}

func (h *UserHandler) UpdateLocation(w http.ResponseWriter, r *http.Request) {
	var req UpdateLocationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, r, err)
		return
	}

	location, err := h.userService.UpdateUserLocation(r.Context(), auth.UserIDFromContext(r.Context()), *req.Latitude, *req.Longitude)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeOK(w, r, http.StatusOK, map[string]any{"location": location})
}

func (h *UserHandler) UpdateProfileImage(w http.ResponseWriter, r *http.Request) {
	if err := parseMultipart(w, r); err != nil {
		writeBadRequest(w, r, err)
		return
	}
	file, closer, err := formFile(r.MultipartForm, formFieldFile)
	if err != nil {
		writeBadRequest(w, r, err)
		return
	}
	if file == nil {
		writeAppError(w, r, h.logger, apperr.New(apperr.ErrFileUploadFailed, "file is required"))
		return
	}
	defer closer.Close()

	p, err := h.userService.UpdateProfileImage(r.Context(), auth.UserIDFromContext(r.Context()), *file)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeOK(w, r, http.StatusOK, map[string]any{"profileImgUrl": p})
}
