package http

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/speechflow/backend/internal/errors"
	"github.com/speechflow/backend/internal/middleware"
	"github.com/speechflow/backend/internal/service"
	"github.com/speechflow/backend/pkg/response"
)

// AuthHandler handles authentication HTTP endpoints.
type AuthHandler struct {
	log         zerolog.Logger
	authService *service.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(log zerolog.Logger, authService *service.AuthService) *AuthHandler {
	return &AuthHandler{
		log:         log,
		authService: authService,
	}
}

// Register handles POST /api/v1/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.UnprocessableEntity(w, "invalid request body")
		return
	}

	if req.Email == "" || req.Password == "" {
		response.UnprocessableEntity(w, "email and password are required")
		return
	}

	if len(req.Password) < 8 {
		response.UnprocessableEntity(w, "password must be at least 8 characters")
		return
	}

	current := middleware.GetUser(r.Context())
	result, err := h.authService.Register(r.Context(), current, req)
	if err != nil {
		h.handleError(w, err)
		return
	}

	// Guest conversion keeps the existing account, so it is not a creation.
	if current != nil && current.IsGuest {
		response.JSON(w, http.StatusOK, result)
		return
	}
	response.Created(w, result)
}

// Login handles POST /api/v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req service.LoginReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.UnprocessableEntity(w, "invalid request body")
		return
	}

	if req.Email == "" || req.Password == "" {
		response.UnprocessableEntity(w, "email and password are required")
		return
	}

	result, err := h.authService.Login(r.Context(), req)
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, result)
}

// Guest handles POST /api/v1/auth/guest
func (h *AuthHandler) Guest(w http.ResponseWriter, r *http.Request) {
	result, err := h.authService.CreateGuest(r.Context())
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.Created(w, result)
}

// Logout handles POST /api/v1/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	if user == nil {
		response.Unauthorized(w, "already logged out or invalid token")
		return
	}

	if err := h.authService.Logout(r.Context(), user.ID); err != nil {
		h.handleError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, map[string]string{"message": "Successfully logged out"})
}

// Me handles GET /api/v1/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	if user == nil {
		response.Unauthorized(w, "unauthenticated")
		return
	}

	response.JSON(w, http.StatusOK, user)
}

// ForgotPassword handles POST /api/v1/auth/forgot-password
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		response.UnprocessableEntity(w, "email is required")
		return
	}

	if err := h.authService.ForgotPassword(r.Context(), req.Email); err != nil {
		h.handleError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, map[string]string{
		"message": "If the email exists, a reset link has been sent.",
	})
}

// ResetPassword handles POST /api/v1/auth/reset-password
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req service.ResetPasswordReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.UnprocessableEntity(w, "invalid request body")
		return
	}

	if req.Token == "" || req.Email == "" || len(req.Password) < 8 {
		response.UnprocessableEntity(w, "token, email, and a password of at least 8 characters are required")
		return
	}

	if err := h.authService.ResetPassword(r.Context(), req); err != nil {
		if appErr, ok := err.(*errors.AppError); ok && appErr.Code == errors.ErrValidation {
			response.UnprocessableEntity(w, appErr.Message)
			return
		}
		h.handleError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, map[string]string{"message": "Password has been reset."})
}

func (h *AuthHandler) handleError(w http.ResponseWriter, err error) {
	if appErr, ok := err.(*errors.AppError); ok {
		response.Error(w, appErr.HTTPStatus(), appErr)
		return
	}
	h.log.Error().Err(err).Msg("Internal server error")
	response.InternalError(w, "internal server error")
}
