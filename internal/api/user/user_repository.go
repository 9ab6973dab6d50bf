package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/FACorreiaa/go-user-accounts/app/observability/metrics"
	"github.com/FACorreiaa/go-user-accounts/internal/api/auth"
	"github.com/FACorreiaa/go-user-accounts/internal/types"
)

var _ UserRepo = (*PostgresUserRepo)(nil)

type UserRepo interface {
	// GetUserByID returns types.ErrNotFound when no account matches.
	GetUserByID(ctx context.Context, userID uuid.UUID) (*types.UserAuth, error)

	// UpdateUser overwrites only the non-nil fields and returns the resulting
	// profile. Uniqueness of username/email is re-checked by the store's
	// unique indexes; violations map to types.ErrConflict.
	UpdateUser(ctx context.Context, userID uuid.UUID, username, email, passwordHash *string) (*types.UserProfile, error)
}

type PostgresUserRepo struct {
	logger *slog.Logger
	pgpool auth.PGXPool
}

func NewPostgresUserRepo(pgpool auth.PGXPool, logger *slog.Logger) *PostgresUserRepo {
	return &PostgresUserRepo{
		logger: logger,
		pgpool: pgpool,
	}
}

func (r *PostgresUserRepo) GetUserByID(ctx context.Context, userID uuid.UUID) (*types.UserAuth, error) {
	start := time.Now()
	var user types.UserAuth
	err := r.pgpool.QueryRow(ctx,
		`SELECT id, username, email, password_hash, created_at, updated_at
         FROM users WHERE id = $1`,
		userID).Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.CreatedAt, &user.UpdatedAt)
	metrics.RecordDBQuery(ctx, "get_user_by_id", time.Since(start), err)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrNotFound
		}
		return nil, fmt.Errorf("get user by id: query failed: %w", err)
	}
	return &user, nil
}

func (r *PostgresUserRepo) UpdateUser(ctx context.Context, userID uuid.UUID, username, email, passwordHash *string) (*types.UserProfile, error) {
	start := time.Now()
	// COALESCE keeps absent fields untouched and lets the unique indexes
	// arbitrate username/email conflicts in the same statement.
	var profile types.UserProfile
	err := r.pgpool.QueryRow(ctx,
		`UPDATE users
         SET username      = COALESCE($1, username),
             email         = COALESCE($2, email),
             password_hash = COALESCE($3, password_hash),
             updated_at    = now()
         WHERE id = $4
         RETURNING username, email`,
		username, email, passwordHash, userID).Scan(&profile.Username, &profile.Email)
	metrics.RecordDBQuery(ctx, "update_user", time.Since(start), err)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrNotFound
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			r.logger.WarnContext(ctx, "Unique constraint violation on profile update",
				slog.String("constraint", pgErr.ConstraintName))
			return nil, types.ErrConflict
		}
		return nil, fmt.Errorf("update user: update failed: %w", err)
	}
	return &profile, nil
}
