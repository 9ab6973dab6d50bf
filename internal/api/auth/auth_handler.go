package auth

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/FACorreiaa/go-user-accounts/internal/api"
	"github.com/FACorreiaa/go-user-accounts/internal/types"
)

type AuthHandler struct {
	authService AuthService
	logger      *slog.Logger
}

func NewAuthHandler(authService AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		logger:      logger,
		authService: authService,
	}
}

// Register godoc
// @Summary      Register a new user
// @Description  Creates a new account with the provided username, email, and password.
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        body body RegisterRequest true "Registration payload"
// @Success      201 {object} types.Response "User registered"
// @Failure      400 {object} types.Response "Validation failure"
// @Failure      409 {object} types.Response "Username or email already in use"
// @Failure      500 {object} types.Response "Internal Server Error"
// @Router       /register [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "Register"))

	var req RegisterRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		l.WarnContext(ctx, "Failed to decode request", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	err := h.authService.Register(ctx, req)
	if err != nil {
		var ve *types.ValidationError
		if errors.As(err, &ve) {
			api.ValidationErrorResponse(w, r, ve)
			return
		}
		l.ErrorContext(ctx, "Registration failed", slog.Any("error", err))
		status, msg := api.StatusFromError(err)
		api.ErrorResponse(w, r, status, msg)
		return
	}

	api.WriteJSONResponse(w, r, http.StatusCreated, types.Response{
		Success: true,
		Message: fmt.Sprintf("User %s registered successfully", req.Username),
	})
}

// Login godoc
// @Summary      Authenticate user
// @Description  Verifies username and password and returns a bearer token.
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        body body LoginRequest true "Login payload"
// @Success      200 {object} LoginResponse "Token issued"
// @Failure      401 {object} types.Response "Invalid credentials"
// @Failure      404 {object} types.Response "User not found"
// @Failure      500 {object} types.Response "Internal Server Error"
// @Router       /login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "Login"))

	var req LoginRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		l.WarnContext(ctx, "Failed to decode request", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.Username == "" || req.Password == "" {
		api.ErrorResponse(w, r, http.StatusBadRequest, "username and password are required")
		return
	}

	token, displayName, err := h.authService.Login(ctx, req.Username, req.Password)
	if err != nil {
		l.WarnContext(ctx, "Login failed", slog.Any("error", err))
		status, msg := api.StatusFromError(err)
		api.ErrorResponse(w, r, status, msg)
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, LoginResponse{
		Token:   token,
		Message: fmt.Sprintf("Welcome back, %s!", displayName),
	})
}
