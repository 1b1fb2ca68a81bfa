package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/mail"
	"time"

	"github.com/go-chi/chi/v5"

	"go-session-auth-service/internal/domain"
	"go-session-auth-service/internal/http/middleware"
	"go-session-auth-service/internal/http/response"
	"go-session-auth-service/internal/observability"
	"go-session-auth-service/internal/service"
)

const (
	invalidCredentialsMessage = "Email and password combination is not valid"
	invalidSessionMessage     = "Session not valid"
	genericErrorMessage       = "Error"
)

type AuthHandler struct {
	auth        *service.AuthService
	redirectURL string
	logger      *slog.Logger
}

func NewAuthHandler(auth *service.AuthService, redirectURL string, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, redirectURL: redirectURL, logger: logger}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login authenticates email/password credentials and opens a session. The
// sid cookie carries the session uuid for the double-submit check; the body
// carries the bearer token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, r, http.StatusUnauthorized, invalidCredentialsMessage)
		return
	}
	if req.Password == "" || !validEmail(req.Email) {
		response.Error(w, r, http.StatusUnauthorized, invalidCredentialsMessage)
		return
	}

	bundle, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			response.Error(w, r, http.StatusUnauthorized, invalidCredentialsMessage)
			return
		}
		h.logger.ErrorContext(r.Context(), "login failed", "error", err)
		response.Error(w, r, http.StatusInternalServerError, genericErrorMessage)
		return
	}

	observability.Audit(r, "login")
	setSessionCookie(w, bundle)
	response.JSON(w, r, http.StatusOK, bundle)
}

// OAuthCallback finishes the provider redirect flow. Failures redirect
// without cookies; the client treats a cookieless return as a failed login.
func (h *AuthHandler) OAuthCallback(w http.ResponseWriter, r *http.Request) {
	provider, err := domain.ParseProvider(chi.URLParam(r, "provider"))
	if err != nil {
		http.Redirect(w, r, h.redirectURL, http.StatusFound)
		return
	}

	bundle, err := h.auth.OAuthLogin(r.Context(), provider, r.URL.Query().Get("code"))
	if err != nil {
		h.logger.WarnContext(r.Context(), "oauth login failed", "provider", provider, "error", err)
		http.Redirect(w, r, h.redirectURL, http.StatusFound)
		return
	}

	observability.Audit(r, "oauth_login", "provider", string(provider))
	// tok is readable by the client app; sid stays HttpOnly.
	http.SetCookie(w, &http.Cookie{
		Name:    "tok",
		Value:   bundle.Token,
		Path:    "/",
		Expires: bundle.Expires,
	})
	setSessionCookie(w, bundle)
	http.Redirect(w, r, h.redirectURL, http.StatusFound)
}

// Refresh extends the authenticated session. Far from expiry it is a no-op
// that re-sets the current cookie.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	bundle, err := h.auth.Refresh(r.Context(), middleware.BearerToken(r))
	if err != nil {
		response.Error(w, r, http.StatusUnauthorized, invalidSessionMessage)
		return
	}
	setSessionCookie(w, bundle)
	response.NoContent(w, r)
}

// Logout revokes the session and expires the sid cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.Logout(r.Context(), middleware.BearerToken(r)); err != nil {
		response.Error(w, r, http.StatusInternalServerError, genericErrorMessage)
		return
	}
	observability.Audit(r, "logout")
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Expires:  time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	w.WriteHeader(http.StatusOK)
}

func setSessionCookie(w http.ResponseWriter, bundle *service.SessionBundle) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    bundle.UUID,
		Path:     "/",
		HttpOnly: true,
		Expires:  bundle.Expires,
	})
}

func validEmail(s string) bool {
	if s == "" {
		return false
	}
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}
