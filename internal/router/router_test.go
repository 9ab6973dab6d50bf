package router

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/FACorreiaa/go-user-accounts/config"
	"github.com/FACorreiaa/go-user-accounts/internal/api/auth"
	"github.com/FACorreiaa/go-user-accounts/internal/api/user"
	"github.com/FACorreiaa/go-user-accounts/internal/types"
)

// memoryStore backs both repositories so the full register/login/profile flow
// can be exercised without Postgres.
type memoryStore struct {
	mu    sync.Mutex
	users map[uuid.UUID]*types.UserAuth
}

func newMemoryStore() *memoryStore {
	return &memoryStore{users: make(map[uuid.UUID]*types.UserAuth)}
}

func (s *memoryStore) GetUserByUsername(_ context.Context, username string) (*types.UserAuth, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == username {
			copied := *u
			return &copied, nil
		}
	}
	return nil, types.ErrNotFound
}

func (s *memoryStore) UsernameOrEmailExists(_ context.Context, username, email string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == username || u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (s *memoryStore) CreateUser(_ context.Context, username, email, passwordHash string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == username || u.Email == email {
			return "", types.ErrConflict
		}
	}
	id := uuid.New()
	now := time.Now()
	s.users[id] = &types.UserAuth{
		ID:           id,
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	return id.String(), nil
}

func (s *memoryStore) GetUserByID(_ context.Context, userID uuid.UUID) (*types.UserAuth, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return nil, types.ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (s *memoryStore) UpdateUser(_ context.Context, userID uuid.UUID, username, email, passwordHash *string) (*types.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return nil, types.ErrNotFound
	}
	for id, other := range s.users {
		if id == userID {
			continue
		}
		if username != nil && other.Username == *username {
			return nil, types.ErrConflict
		}
		if email != nil && other.Email == *email {
			return nil, types.ErrConflict
		}
	}
	if username != nil {
		u.Username = *username
	}
	if email != nil {
		u.Email = *email
	}
	if passwordHash != nil {
		u.PasswordHash = *passwordHash
	}
	u.UpdatedAt = time.Now()
	return &types.UserProfile{Username: u.Username, Email: u.Email}, nil
}

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	logger := slog.Default()

	tokens, err := auth.NewTokenService(config.JWTConfig{
		SecretKey:      "integration-test-secret",
		AccessTokenTTL: time.Hour,
		Issuer:         "test-issuer",
	})
	require.NoError(t, err)
	hasher := auth.NewBcryptHasher(bcrypt.MinCost)

	store := newMemoryStore()
	authService := auth.NewAuthService(store, hasher, tokens, logger)
	userService := user.NewUserService(store, hasher, logger)

	return SetupRouter(&Config{
		AuthHandler:            auth.NewAuthHandler(authService, logger),
		UserHandler:            user.NewHandlerImpl(userService, logger),
		AuthenticateMiddleware: auth.Authenticate(logger, tokens),
	})
}

func doJSON(t *testing.T, srv http.Handler, method, target, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		req = httptest.NewRequest(method, target, bytes.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	return w
}

func registerAndLogin(t *testing.T, srv http.Handler, username, email, password string) (token string) {
	t.Helper()
	w := doJSON(t, srv, http.MethodPost, "/register", "", map[string]string{
		"username": username,
		"email":    email,
		"password": password,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = doJSON(t, srv, http.MethodPost, "/login", "", map[string]string{
		"username": username,
		"password": password,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

// userIDFromToken reads the subject out of the profile URL space by asking
// the token service that signed it.
func userIDFromToken(t *testing.T, token string) string {
	t.Helper()
	tokens, err := auth.NewTokenService(config.JWTConfig{
		SecretKey:      "integration-test-secret",
		AccessTokenTTL: time.Hour,
		Issuer:         "test-issuer",
	})
	require.NoError(t, err)
	userID, err := tokens.Verify(token)
	require.NoError(t, err)
	return userID
}

func TestPing(t *testing.T) {
	srv := newTestServer(t)
	w := doJSON(t, srv, http.MethodGet, "/ping", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())
}

func TestRegisterLoginProfileFlow(t *testing.T) {
	srv := newTestServer(t)

	token := registerAndLogin(t, srv, "alicewonder", "alice@example.com", "Password123!")
	userID := userIDFromToken(t, token)

	w := doJSON(t, srv, http.MethodGet, "/profile/"+userID, token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var profile types.UserProfile
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &profile))
	assert.Equal(t, "alicewonder", profile.Username)
	assert.Equal(t, "alice@example.com", profile.Email)
}

func TestProfileRequiresToken(t *testing.T) {
	srv := newTestServer(t)
	token := registerAndLogin(t, srv, "alicewonder", "alice@example.com", "Password123!")
	userID := userIDFromToken(t, token)

	w := doJSON(t, srv, http.MethodGet, "/profile/"+userID, "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCrossAccountAccessForbidden(t *testing.T) {
	srv := newTestServer(t)

	aliceToken := registerAndLogin(t, srv, "alicewonder", "alice@example.com", "Password123!")
	bobToken := registerAndLogin(t, srv, "bobbuilder99", "bob@example.com", "Password123!")
	bobID := userIDFromToken(t, bobToken)

	// Alice's valid token must not open Bob's profile
	w := doJSON(t, srv, http.MethodGet, "/profile/"+bobID, aliceToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(t, srv, http.MethodPut, "/profile/"+bobID+"/update", aliceToken, map[string]string{
		"username": "hijackedname",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestDuplicateRegistration(t *testing.T) {
	srv := newTestServer(t)
	registerAndLogin(t, srv, "alicewonder", "alice@example.com", "Password123!")

	w := doJSON(t, srv, http.MethodPost, "/register", "", map[string]string{
		"username": "alicewonder",
		"email":    "other@example.com",
		"password": "Password123!",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "Username or email already in use")
}

func TestLoginFailures(t *testing.T) {
	srv := newTestServer(t)
	registerAndLogin(t, srv, "alicewonder", "alice@example.com", "Password123!")

	t.Run("UnknownUsername", func(t *testing.T) {
		w := doJSON(t, srv, http.MethodPost, "/login", "", map[string]string{
			"username": "ghostuser99",
			"password": "Password123!",
		})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("WrongPassword", func(t *testing.T) {
		w := doJSON(t, srv, http.MethodPost, "/login", "", map[string]string{
			"username": "alicewonder",
			"password": "WrongPassword!",
		})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestUpdateProfileFlow(t *testing.T) {
	srv := newTestServer(t)

	token := registerAndLogin(t, srv, "alicewonder", "alice@example.com", "OldPassword123!")
	userID := userIDFromToken(t, token)

	w := doJSON(t, srv, http.MethodPut, "/profile/"+userID+"/update", token, map[string]string{
		"email":    "renamed@example.com",
		"password": "NewPassword123!",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotContains(t, w.Body.String(), "NewPassword123!")

	// Old password no longer works, new one does
	w = doJSON(t, srv, http.MethodPost, "/login", "", map[string]string{
		"username": "alicewonder",
		"password": "OldPassword123!",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, srv, http.MethodPost, "/login", "", map[string]string{
		"username": "alicewonder",
		"password": "NewPassword123!",
	})
	assert.Equal(t, http.StatusOK, w.Code)

	// Profile reflects the new email
	w = doJSON(t, srv, http.MethodGet, "/profile/"+userID, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var profile types.UserProfile
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &profile))
	assert.Equal(t, "renamed@example.com", profile.Email)
}
