package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/creo-studio/internal/apperror"
	"github.com/sakif/creo-studio/internal/auth"
	"github.com/sakif/creo-studio/internal/model"
	"github.com/sakif/creo-studio/internal/service"
)

// AuthHandler serves the email/password sign-up and sign-in API.
//
//	POST /api/auth/sign-up   create an account
//	POST /api/auth/sign-in   check credentials, set the session cookie
//	POST /api/auth/sign-out  clear the session cookie
//	GET  /api/auth/session   the user behind the cookie
type AuthHandler struct {
	svc          *service.AuthService
	secureCookie bool
	logger       *slog.Logger
}

func NewAuthHandler(svc *service.AuthService, secureCookie bool, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{svc: svc, secureCookie: secureCookie, logger: logger}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignUpResponse is returned with 201 Created.
type SignUpResponse struct {
	Message string      `json:"message"`
	User    *model.User `json:"user"`
}

// SignInResponse tells the browser where to go next.
type SignInResponse struct {
	Message  string      `json:"message"`
	User     *model.User `json:"user"`
	Redirect string      `json:"redirect"`
}

// SessionResponse describes the signed-in user.
type SessionResponse struct {
	User *model.User `json:"user"`
}

func (h *AuthHandler) HandleSignUp(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeErrorPrefixed(w, apperror.ValidationFailed("body", "Invalid JSON body"), "Sign up failed: ")
		return
	}

	user, err := h.svc.SignUp(r.Context(), req.Email, req.Password)
	if err != nil {
		logFailure(h.logger, "sign up failed", err)
		writeErrorPrefixed(w, err, "Sign up failed: ")
		return
	}

	writeJSON(w, http.StatusCreated, SignUpResponse{
		Message: "Sign up successful! You can now sign in.",
		User:    user,
	})
}

func (h *AuthHandler) HandleSignIn(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeErrorPrefixed(w, apperror.ValidationFailed("body", "Invalid JSON body"), "Sign in failed: ")
		return
	}

	res, err := h.svc.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		logFailure(h.logger, "sign in failed", err)
		writeErrorPrefixed(w, err, "Sign in failed: ")
		return
	}

	auth.SetSessionCookie(w, res.Token, h.svc.TokenTTL(), h.secureCookie)
	writeJSON(w, http.StatusOK, SignInResponse{
		Message:  "Sign in successful! Redirecting...",
		User:     res.User,
		Redirect: "/generations",
	})
}

func (h *AuthHandler) HandleSignOut(w http.ResponseWriter, r *http.Request) {
	auth.ClearSessionCookie(w, h.secureCookie)
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Signed out"})
}

// HandleSession must be mounted behind auth.RequireAuth.
func (h *AuthHandler) HandleSession(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	user, err := h.svc.GetUserByID(r.Context(), userID)
	if err != nil {
		// A valid token for a deleted account is no session at all.
		if errors.Is(err, apperror.ErrNotFound) || errors.Is(err, apperror.ErrValidation) {
			auth.ClearSessionCookie(w, h.secureCookie)
			writeError(w, apperror.Unauthorized("Please sign in to continue."))
			return
		}
		logFailure(h.logger, "session lookup failed", err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, SessionResponse{User: user})
}
