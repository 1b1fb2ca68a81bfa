package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"go-session-auth-service/internal/domain"
	"go-session-auth-service/internal/http/middleware"
	"go-session-auth-service/internal/http/response"
	"go-session-auth-service/internal/observability"
	"go-session-auth-service/internal/repository"
	"go-session-auth-service/internal/service"
)

type UserHandler struct {
	users  *service.UserService
	logger *slog.Logger
}

func NewUserHandler(users *service.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{users: users, logger: logger}
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type accountResponse struct {
	ID        uint       `json:"id"`
	Name      string     `json:"name"`
	Username  *string    `json:"username"`
	Email     string     `json:"email"`
	CreatedOn time.Time  `json:"created_on"`
	LastLogin *time.Time `json:"last_login"`
}

func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !validEmail(req.Email) {
		response.Error(w, r, http.StatusBadRequest, "A valid email is required")
		return
	}
	if req.Username == "" {
		response.Error(w, r, http.StatusBadRequest, "A username is required")
		return
	}
	if req.Password == "" {
		response.Error(w, r, http.StatusBadRequest, "A password is required")
		return
	}

	user, err := h.users.Register(req.Name, req.Email, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			response.Error(w, r, http.StatusConflict, "Email or username already in use")
			return
		}
		h.logger.ErrorContext(r.Context(), "register failed", "error", err)
		response.Error(w, r, http.StatusInternalServerError, genericErrorMessage)
		return
	}

	observability.Audit(r, "register")
	response.JSON(w, r, http.StatusOK, toAccountResponse(user))
}

func (h *UserHandler) Account(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, invalidSessionMessage)
		return
	}

	user, err := h.users.Account(principal.User.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			response.Error(w, r, http.StatusNotFound, "Account not found")
			return
		}
		h.logger.ErrorContext(r.Context(), "account lookup failed", "error", err)
		response.Error(w, r, http.StatusInternalServerError, genericErrorMessage)
		return
	}
	response.JSON(w, r, http.StatusOK, toAccountResponse(user))
}

type updateUsernameRequest struct {
	Username string `json:"username"`
}

// UpdateUsername changes the authenticated user's own username. The target
// id always comes from the principal, never from the body.
func (h *UserHandler) UpdateUsername(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, invalidSessionMessage)
		return
	}

	var req updateUsernameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Username == "" {
		response.Error(w, r, http.StatusBadRequest, "A username is required")
		return
	}

	user, err := h.users.ChangeUsername(principal.User.ID, req.Username)
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			response.Error(w, r, http.StatusConflict, "Username already in use")
			return
		}
		h.logger.ErrorContext(r.Context(), "username update failed", "error", err)
		response.Error(w, r, http.StatusInternalServerError, genericErrorMessage)
		return
	}

	observability.Audit(r, "username_change")
	response.JSON(w, r, http.StatusOK, toAccountResponse(user))
}

func toAccountResponse(user *domain.User) accountResponse {
	return accountResponse{
		ID:        user.ID,
		Name:      user.Name,
		Username:  user.Username,
		Email:     user.Email,
		CreatedOn: user.CreatedOn,
		LastLogin: user.LastLogin,
	}
}
