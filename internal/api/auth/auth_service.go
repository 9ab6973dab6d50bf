package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/FACorreiaa/go-user-accounts/app/observability/metrics"
	"github.com/FACorreiaa/go-user-accounts/internal/types"
)

var _ AuthService = (*AuthServiceImpl)(nil)

type AuthService interface {
	// Register creates a new account. No token is issued at registration; the
	// client follows up with Login.
	Register(ctx context.Context, req RegisterRequest) error

	// Login verifies credentials and returns a bearer token plus the
	// account's display name.
	Login(ctx context.Context, username, password string) (token string, displayName string, err error)
}

type AuthServiceImpl struct {
	logger   *slog.Logger
	repo     AuthRepo
	hasher   PasswordHasher
	tokens   *TokenService
	validate *validator.Validate
}

func NewAuthService(repo AuthRepo, hasher PasswordHasher, tokens *TokenService, logger *slog.Logger) *AuthServiceImpl {
	return &AuthServiceImpl{
		logger:   logger,
		repo:     repo,
		hasher:   hasher,
		tokens:   tokens,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Register validates the payload (reporting every violated field), rejects
// duplicates, hashes the password and persists the account. The store's
// unique indexes settle concurrent registrations; the pre-check only produces
// a friendlier error.
func (s *AuthServiceImpl) Register(ctx context.Context, req RegisterRequest) error {
	l := s.logger.With(slog.String("service", "Register"))

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))

	if err := s.validateRequest(req); err != nil {
		metrics.RecordRegister(ctx, false)
		return err
	}

	exists, err := s.repo.UsernameOrEmailExists(ctx, req.Username, req.Email)
	if err != nil {
		l.ErrorContext(ctx, "Duplicate pre-check failed", slog.Any("error", err))
		metrics.RecordRegister(ctx, false)
		return fmt.Errorf("register: %w", err)
	}
	if exists {
		metrics.RecordRegister(ctx, false)
		return types.ErrConflict
	}

	hashed, err := s.hasher.HashPassword(req.Password)
	if err != nil {
		l.ErrorContext(ctx, "Password hashing failed", slog.Any("error", err))
		metrics.RecordRegister(ctx, false)
		return fmt.Errorf("register: %w", err)
	}

	userID, err := s.repo.CreateUser(ctx, req.Username, req.Email, hashed)
	if err != nil {
		metrics.RecordRegister(ctx, false)
		if errors.Is(err, types.ErrConflict) {
			return types.ErrConflict
		}
		l.ErrorContext(ctx, "User insert failed", slog.Any("error", err))
		return fmt.Errorf("register: %w", err)
	}

	l.InfoContext(ctx, "User registered",
		slog.String("userID", userID),
		slog.String("username", req.Username))
	metrics.RecordRegister(ctx, true)
	return nil
}

// Login distinguishes unknown-username from wrong-password in its return so
// the HTTP layer can keep the original 404/401 split. Collapsing the two to
// resist username enumeration is a hardening option, deliberately not taken
// here.
func (s *AuthServiceImpl) Login(ctx context.Context, username, password string) (string, string, error) {
	l := s.logger.With(slog.String("service", "Login"))

	user, err := s.repo.GetUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		metrics.RecordLogin(ctx, false)
		if errors.Is(err, types.ErrNotFound) {
			l.WarnContext(ctx, "Login for unknown username", slog.String("username", username))
			return "", "", types.ErrNotFound
		}
		l.ErrorContext(ctx, "User lookup failed", slog.Any("error", err))
		return "", "", fmt.Errorf("login: %w", err)
	}

	if !s.hasher.VerifyPassword(password, user.PasswordHash) {
		l.WarnContext(ctx, "Password mismatch", slog.String("userID", user.ID.String()))
		metrics.RecordLogin(ctx, false)
		return "", "", types.ErrUnauthenticated
	}

	token, err := s.tokens.Issue(user.ID.String())
	if err != nil {
		l.ErrorContext(ctx, "Token issuance failed", slog.Any("error", err))
		metrics.RecordLogin(ctx, false)
		return "", "", fmt.Errorf("login: %w", err)
	}

	metrics.RecordLogin(ctx, true)
	return token, user.Username, nil
}

// validateRequest converts validator violations into a ValidationError that
// lists every failed field.
func (s *AuthServiceImpl) validateRequest(req RegisterRequest) error {
	err := s.validate.Struct(req)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate register request: %w", err)
	}

	ve := &types.ValidationError{}
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			ve.Add(field, "is required")
		case "min":
			ve.Add(field, fmt.Sprintf("must be at least %s characters", fe.Param()))
		case "email":
			ve.Add(field, "must be a valid email address")
		default:
			ve.Add(field, fmt.Sprintf("failed %s validation", fe.Tag()))
		}
	}
	return ve
}
