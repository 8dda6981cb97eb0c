package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/inhahackathon/foodmarket/internal/auth"
	"github.com/inhahackathon/foodmarket/internal/identity"
	"github.com/inhahackathon/foodmarket/internal/services"
	"github.com/sirupsen/logrus"
)

// IDTokenVerifier checks an identity provider ID token and returns its uid.
type IDTokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (string, error)
}

// AuthHandler exchanges identity provider tokens for session tokens.
type AuthHandler struct {
	verifier    IDTokenVerifier
	userService *services.UserService
	logger      logrus.FieldLogger
}

func NewAuthHandler(verifier IDTokenVerifier, userService *services.UserService, logger logrus.FieldLogger) *AuthHandler {
	return &AuthHandler{verifier: verifier, userService: userService, logger: logger}
}

// AuthRouter registers auth routes on the given router.
func AuthRouter(r chi.Router, h *AuthHandler, authMiddleware func(http.Handler) http.Handler) {
	r.Post("/login", h.Login)
	r.With(authMiddleware).Get("/me", h.Me)
}

type LoginRequest struct {
	IDToken string `json:"idToken" validate:"required"`
}

// Login verifies the ID token, registers the user on first login and returns a session token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, r, err)
		return
	}

	uid, err := h.verifier.VerifyIDToken(r.Context(), req.IDToken)
	if err != nil {
		if !errors.Is(err, identity.ErrInvalidToken) {
			h.logger.WithError(err).Warn("id token verification failed")
		}
		Unauthorized(w, r)
		return
	}

	user, err := h.userService.SaveUserFromFirebase(r.Context(), uid)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}

	token, err := h.userService.GetUserToken(user)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}

	writeOK(w, r, http.StatusOK, map[string]any{
		"token":     token.Token,
		"expiresAt": token.ExpiresAt,
		"user":      user.ToDTO(),
	})
}

// Me returns the authenticated user.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.userService.GetUser(r.Context(), auth.UserIDFromContext(r.Context()))
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeOK(w, r, http.StatusOK, map[string]any{"user": user})
}
