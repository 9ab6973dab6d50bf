package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/FACorreiaa/go-user-accounts/internal/api/auth"
	"github.com/FACorreiaa/go-user-accounts/internal/types"
)

var _ UserService = (*UserServiceImpl)(nil)

type UserService interface {
	// GetUserProfile enforces self-only access: requesterID must equal
	// targetID or the call fails with types.ErrForbidden.
	GetUserProfile(ctx context.Context, requesterID string, targetID uuid.UUID) (*types.UserProfile, error)

	// UpdateUserProfile applies only the fields present in params. A supplied
	// password is hashed before storage; the hash is never returned.
	UpdateUserProfile(ctx context.Context, requesterID string, targetID uuid.UUID, params types.UpdateProfileParams) (*types.UserProfile, error)
}

type UserServiceImpl struct {
	logger   *slog.Logger
	repo     UserRepo
	hasher   auth.PasswordHasher
	cache    *cache.Cache
	validate *validator.Validate
}

func NewUserService(repo UserRepo, hasher auth.PasswordHasher, logger *slog.Logger) *UserServiceImpl {
	return &UserServiceImpl{
		logger:   logger,
		repo:     repo,
		hasher:   hasher,
		cache:    cache.New(5*time.Minute, 10*time.Minute),
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func profileCacheKey(id uuid.UUID) string {
	return "profile:" + id.String()
}

func (s *UserServiceImpl) GetUserProfile(ctx context.Context, requesterID string, targetID uuid.UUID) (*types.UserProfile, error) {
	l := s.logger.With(slog.String("service", "GetUserProfile"))

	if requesterID != targetID.String() {
		l.WarnContext(ctx, "Cross-account profile access denied",
			slog.String("requesterID", requesterID),
			slog.String("targetID", targetID.String()))
		return nil, types.ErrForbidden
	}

	if cached, found := s.cache.Get(profileCacheKey(targetID)); found {
		if profile, ok := cached.(*types.UserProfile); ok {
			return profile, nil
		}
	}

	user, err := s.repo.GetUserByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return nil, types.ErrNotFound
		}
		l.ErrorContext(ctx, "Profile lookup failed", slog.Any("error", err))
		return nil, fmt.Errorf("get profile: %w", err)
	}

	profile := &types.UserProfile{Username: user.Username, Email: user.Email}
	s.cache.Set(profileCacheKey(targetID), profile, cache.DefaultExpiration)
	return profile, nil
}

func (s *UserServiceImpl) UpdateUserProfile(ctx context.Context, requesterID string, targetID uuid.UUID, params types.UpdateProfileParams) (*types.UserProfile, error) {
	l := s.logger.With(slog.String("service", "UpdateUserProfile"))

	if requesterID != targetID.String() {
		l.WarnContext(ctx, "Cross-account profile update denied",
			slog.String("requesterID", requesterID),
			slog.String("targetID", targetID.String()))
		return nil, types.ErrForbidden
	}

	if err := s.validateParams(params); err != nil {
		return nil, err
	}

	// Existence check so an update of a vanished account is a clean 404
	// rather than a zero-row update.
	if _, err := s.repo.GetUserByID(ctx, targetID); err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return nil, types.ErrNotFound
		}
		l.ErrorContext(ctx, "Profile lookup failed", slog.Any("error", err))
		return nil, fmt.Errorf("update profile: %w", err)
	}

	var username, email, passwordHash *string
	if params.Username != nil {
		trimmed := strings.TrimSpace(*params.Username)
		username = &trimmed
	}
	if params.Email != nil {
		normalized := strings.TrimSpace(strings.ToLower(*params.Email))
		email = &normalized
	}
	if params.Password != nil {
		hashed, err := s.hasher.HashPassword(*params.Password)
		if err != nil {
			l.ErrorContext(ctx, "Password hashing failed", slog.Any("error", err))
			return nil, fmt.Errorf("update profile: %w", err)
		}
		passwordHash = &hashed
	}

	profile, err := s.repo.UpdateUser(ctx, targetID, username, email, passwordHash)
	if err != nil {
		if errors.Is(err, types.ErrConflict) || errors.Is(err, types.ErrNotFound) {
			return nil, err
		}
		l.ErrorContext(ctx, "Profile update failed", slog.Any("error", err))
		return nil, fmt.Errorf("update profile: %w", err)
	}

	s.cache.Delete(profileCacheKey(targetID))

	l.InfoContext(ctx, "Profile updated", slog.String("userID", targetID.String()))
	return profile, nil
}

// validateParams re-applies the registration constraints to whichever fields
// the patch supplies, reporting every violation.
func (s *UserServiceImpl) validateParams(params types.UpdateProfileParams) error {
	ve := &types.ValidationError{}

	if params.Username == nil && params.Email == nil && params.Password == nil {
		return ve.Add("body", "at least one of username, email or password must be provided")
	}
	if params.Username != nil && len(strings.TrimSpace(*params.Username)) < 8 {
		ve.Add("username", "must be at least 8 characters")
	}
	if params.Email != nil {
		if err := s.validate.Var(strings.TrimSpace(*params.Email), "required,email"); err != nil {
			ve.Add("email", "must be a valid email address")
		}
	}
	if params.Password != nil && len(*params.Password) < 8 {
		ve.Add("password", "must be at least 8 characters")
	}

	if ve.HasErrors() {
		return ve
	}
	return nil
}
