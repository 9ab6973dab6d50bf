package user

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-user-accounts/internal/types"
)

func strPtr(s string) *string { return &s }

func TestPostgresUserRepo_GetUserByID(t *testing.T) {
	userID := uuid.New()
	now := time.Now()

	tests := []struct {
		name      string
		setupMock func(mock pgxmock.PgxPoolIface)
		want      *types.UserAuth
		wantErr   error
	}{
		{
			name: "found",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				rows := pgxmock.NewRows([]string{"id", "username", "email", "password_hash", "created_at", "updated_at"}).
					AddRow(userID, "validuser1", "valid@example.com", "$2a$10$hash", now, now)
				mock.ExpectQuery(`SELECT id, username, email, password_hash, created_at, updated_at`).
					WithArgs(userID).
					WillReturnRows(rows)
			},
			want: &types.UserAuth{
				ID:           userID,
				Username:     "validuser1",
				Email:        "valid@example.com",
				PasswordHash: "$2a$10$hash",
				CreatedAt:    now,
				UpdatedAt:    now,
			},
		},
		{
			name: "not found",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`SELECT id, username, email, password_hash, created_at, updated_at`).
					WithArgs(userID).
					WillReturnError(pgx.ErrNoRows)
			},
			wantErr: types.ErrNotFound,
		},
		{
			name: "database error",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`SELECT id, username, email, password_hash, created_at, updated_at`).
					WithArgs(userID).
					WillReturnError(errors.New("connection refused"))
			},
			wantErr: errors.New("connection refused"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err, "failed to create mock")
			defer mock.Close()

			tt.setupMock(mock)

			repo := NewPostgresUserRepo(mock, slog.Default())
			got, err := repo.GetUserByID(context.Background(), userID)

			if tt.wantErr != nil {
				require.Error(t, err)
				if errors.Is(tt.wantErr, types.ErrNotFound) {
					assert.ErrorIs(t, err, types.ErrNotFound)
				} else {
					assert.Contains(t, err.Error(), tt.wantErr.Error())
				}
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}

			assert.NoError(t, mock.ExpectationsWereMet(), "unfulfilled expectations")
		})
	}
}

func TestPostgresUserRepo_UpdateUser(t *testing.T) {
	userID := uuid.New()

	tests := []struct {
		name         string
		username     *string
		email        *string
		passwordHash *string
		setupMock    func(mock pgxmock.PgxPoolIface)
		want         *types.UserProfile
		wantErr      error
	}{
		{
			name:     "partial update leaves absent fields nil",
			username: strPtr("renameduser"),
			setupMock: func(mock pgxmock.PgxPoolIface) {
				rows := pgxmock.NewRows([]string{"username", "email"}).
					AddRow("renameduser", "valid@example.com")
				mock.ExpectQuery(`UPDATE users`).
					WithArgs(strPtr("renameduser"), (*string)(nil), (*string)(nil), userID).
					WillReturnRows(rows)
			},
			want: &types.UserProfile{Username: "renameduser", Email: "valid@example.com"},
		},
		{
			name:         "full update",
			username:     strPtr("renameduser"),
			email:        strPtr("new@example.com"),
			passwordHash: strPtr("$2a$10$newhash"),
			setupMock: func(mock pgxmock.PgxPoolIface) {
				rows := pgxmock.NewRows([]string{"username", "email"}).
					AddRow("renameduser", "new@example.com")
				mock.ExpectQuery(`UPDATE users`).
					WithArgs(strPtr("renameduser"), strPtr("new@example.com"), strPtr("$2a$10$newhash"), userID).
					WillReturnRows(rows)
			},
			want: &types.UserProfile{Username: "renameduser", Email: "new@example.com"},
		},
		{
			name:  "vanished account",
			email: strPtr("new@example.com"),
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`UPDATE users`).
					WithArgs((*string)(nil), strPtr("new@example.com"), (*string)(nil), userID).
					WillReturnError(pgx.ErrNoRows)
			},
			wantErr: types.ErrNotFound,
		},
		{
			name:     "username taken maps to conflict",
			username: strPtr("takenname"),
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`UPDATE users`).
					WithArgs(strPtr("takenname"), (*string)(nil), (*string)(nil), userID).
					WillReturnError(&pgconn.PgError{
						Code:           pgerrcode.UniqueViolation,
						ConstraintName: "users_username_key",
					})
			},
			wantErr: types.ErrConflict,
		},
		{
			name:     "database error",
			username: strPtr("renameduser"),
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`UPDATE users`).
					WithArgs(strPtr("renameduser"), (*string)(nil), (*string)(nil), userID).
					WillReturnError(errors.New("connection refused"))
			},
			wantErr: errors.New("connection refused"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err, "failed to create mock")
			defer mock.Close()

			tt.setupMock(mock)

			repo := NewPostgresUserRepo(mock, slog.Default())
			got, err := repo.UpdateUser(context.Background(), userID, tt.username, tt.email, tt.passwordHash)

			if tt.wantErr != nil {
				require.Error(t, err)
				if errors.Is(tt.wantErr, types.ErrNotFound) || errors.Is(tt.wantErr, types.ErrConflict) {
					assert.ErrorIs(t, err, tt.wantErr)
				} else {
					assert.Contains(t, err.Error(), tt.wantErr.Error())
				}
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}

			assert.NoError(t, mock.ExpectationsWereMet(), "unfulfilled expectations")
		})
	}
}
