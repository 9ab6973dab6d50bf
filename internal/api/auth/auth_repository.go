package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/FACorreiaa/go-user-accounts/app/observability/metrics"
	"github.com/FACorreiaa/go-user-accounts/internal/types"
)

var _ AuthRepo = (*PostgresAuthRepo)(nil)

type AuthRepo interface {
	// GetUserByUsername returns types.ErrNotFound when no account matches.
	GetUserByUsername(ctx context.Context, username string) (*types.UserAuth, error)

	// UsernameOrEmailExists is the duplicate pre-check for registration. The
	// unique indexes remain the real guard; this only produces a friendlier
	// error before the insert.
	UsernameOrEmailExists(ctx context.Context, username, email string) (bool, error)

	// CreateUser inserts a new account and returns its store-assigned ID.
	// A unique-constraint violation maps to types.ErrConflict.
	CreateUser(ctx context.Context, username, email, passwordHash string) (string, error)
}

// PGXPool is the subset of pgxpool.Pool the repositories use. Narrowed so
// tests can substitute a pgxmock pool.
type PGXPool interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type PostgresAuthRepo struct {
	logger *slog.Logger
	pgpool PGXPool
}

func NewPostgresAuthRepo(pgpool PGXPool, logger *slog.Logger) *PostgresAuthRepo {
	return &PostgresAuthRepo{
		logger: logger,
		pgpool: pgpool,
	}
}

func (r *PostgresAuthRepo) GetUserByUsername(ctx context.Context, username string) (*types.UserAuth, error) {
	start := time.Now()
	var user types.UserAuth
	err := r.pgpool.QueryRow(ctx,
		`SELECT id, username, email, password_hash, created_at, updated_at
         FROM users WHERE username = $1`,
		username).Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.CreatedAt, &user.UpdatedAt)
	metrics.RecordDBQuery(ctx, "get_user_by_username", time.Since(start), err)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrNotFound
		}
		return nil, fmt.Errorf("get user by username: query failed: %w", err)
	}
	return &user, nil
}

func (r *PostgresAuthRepo) UsernameOrEmailExists(ctx context.Context, username, email string) (bool, error) {
	start := time.Now()
	var exists bool
	err := r.pgpool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE username = $1 OR email = $2)`,
		username, email).Scan(&exists)
	metrics.RecordDBQuery(ctx, "username_or_email_exists", time.Since(start), err)
	if err != nil {
		return false, fmt.Errorf("duplicate pre-check: query failed: %w", err)
	}
	return exists, nil
}

func (r *PostgresAuthRepo) CreateUser(ctx context.Context, username, email, passwordHash string) (string, error) {
	start := time.Now()
	var userID string
	err := r.pgpool.QueryRow(ctx,
		`INSERT INTO users (username, email, password_hash)
         VALUES ($1, $2, $3)
         RETURNING id`,
		username, email, passwordHash).Scan(&userID)
	metrics.RecordDBQuery(ctx, "create_user", time.Since(start), err)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			// Concurrent registration lost the race; the unique index is the
			// final arbiter.
			r.logger.WarnContext(ctx, "Unique constraint violation on user insert",
				slog.String("constraint", pgErr.ConstraintName))
			return "", types.ErrConflict
		}
		return "", fmt.Errorf("create user: insert failed: %w", err)
	}
	return userID, nil
}
