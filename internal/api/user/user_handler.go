package user

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/FACorreiaa/go-user-accounts/internal/api"
	"github.com/FACorreiaa/go-user-accounts/internal/api/auth"
	"github.com/FACorreiaa/go-user-accounts/internal/types"
)

var _ Handler = (*HandlerImpl)(nil)

type Handler interface {
	GetUserProfile(w http.ResponseWriter, r *http.Request)
	UpdateUserProfile(w http.ResponseWriter, r *http.Request)
}

type HandlerImpl struct {
	userService UserService
	logger      *slog.Logger
}

func NewHandlerImpl(userService UserService, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{
		userService: userService,
		logger:      logger,
	}
}

// requesterAndTarget pulls the verified identity from the context and the
// target account from the path. ok is false when a response was written.
func (h *HandlerImpl) requesterAndTarget(w http.ResponseWriter, r *http.Request, l *slog.Logger) (string, uuid.UUID, bool) {
	ctx := r.Context()

	requesterID, found := auth.GetUserIDFromContext(ctx)
	if !found || requesterID == "" {
		l.ErrorContext(ctx, "User ID not found in context")
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return "", uuid.Nil, false
	}

	targetID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		l.WarnContext(ctx, "Invalid profile ID format", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid profile ID format")
		return "", uuid.Nil, false
	}

	return requesterID, targetID, true
}

// GetUserProfile godoc
// @Summary      Get User Profile
// @Description  Retrieves the profile of the account identified by the path ID. Self-only access.
// @Tags         User
// @Produce      json
// @Param        id path string true "Account ID"
// @Success      200 {object} types.UserProfile "User Profile"
// @Failure      401 {object} types.Response "Unauthorized"
// @Failure      403 {object} types.Response "Forbidden"
// @Failure      404 {object} types.Response "User Not Found"
// @Failure      500 {object} types.Response "Internal Server Error"
// @Security     BearerAuth
// @Router       /profile/{id} [get]
func (h *HandlerImpl) GetUserProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "GetUserProfile"))

	requesterID, targetID, ok := h.requesterAndTarget(w, r, l)
	if !ok {
		return
	}

	profile, err := h.userService.GetUserProfile(ctx, requesterID, targetID)
	if err != nil {
		l.WarnContext(ctx, "Failed to get user profile", slog.Any("error", err))
		status, msg := api.StatusFromError(err)
		api.ErrorResponse(w, r, status, msg)
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, profile)
}

// UpdateUserProfile godoc
// @Summary      Update User Profile
// @Description  Applies a partial update to the account identified by the path ID. Self-only access.
// @Tags         User
// @Accept       json
// @Produce      json
// @Param        id path string true "Account ID"
// @Param        profile body types.UpdateProfileParams true "Fields to update"
// @Success      200 {object} map[string]interface{} "Profile Updated"
// @Failure      400 {object} types.Response "Invalid Input"
// @Failure      401 {object} types.Response "Unauthorized"
// @Failure      403 {object} types.Response "Forbidden"
// @Failure      404 {object} types.Response "User Not Found"
// @Failure      409 {object} types.Response "Username or email already in use"
// @Failure      500 {object} types.Response "Internal Server Error"
// @Security     BearerAuth
// @Router       /profile/{id}/update [put]
func (h *HandlerImpl) UpdateUserProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "UpdateUserProfile"))

	requesterID, targetID, ok := h.requesterAndTarget(w, r, l)
	if !ok {
		return
	}

	var params types.UpdateProfileParams
	if err := api.DecodeJSONBody(w, r, &params); err != nil {
		l.WarnContext(ctx, "Failed to decode request", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	profile, err := h.userService.UpdateUserProfile(ctx, requesterID, targetID, params)
	if err != nil {
		var ve *types.ValidationError
		if errors.As(err, &ve) {
			api.ValidationErrorResponse(w, r, ve)
			return
		}
		l.WarnContext(ctx, "Failed to update user profile", slog.Any("error", err))
		status, msg := api.StatusFromError(err)
		api.ErrorResponse(w, r, status, msg)
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, map[string]interface{}{
		"message":     "User profile updated successfully",
		"updatedUser": profile,
	})
}
