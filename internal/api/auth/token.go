package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/FACorreiaa/go-user-accounts/config"
	"github.com/FACorreiaa/go-user-accounts/internal/types"
)

var ErrTokenExpired = errors.New("token has expired")
var ErrTokenMalformed = errors.New("token is malformed or has an invalid signature")

// TokenService issues and verifies signed, time-bounded identity assertions.
// It is stateless: expiry is the only invalidation mechanism.
type TokenService struct {
	secretKey []byte
	ttl       time.Duration
	issuer    string
}

// NewTokenService fails when no signing key is configured. There is
// deliberately no fallback key.
func NewTokenService(cfg config.JWTConfig) (*TokenService, error) {
	if cfg.SecretKey == "" {
		return nil, errors.New("jwt secret key is not configured")
	}
	ttl := cfg.AccessTokenTTL
	if ttl <= 0 {
		ttl = 3 * time.Hour
	}
	return &TokenService{
		secretKey: []byte(cfg.SecretKey),
		ttl:       ttl,
		issuer:    cfg.Issuer,
	}, nil
}

// Issue produces a signed token binding userID with expiry now + TTL.
func (s *TokenService) Issue(userID string) (string, error) {
	now := time.Now()
	claims := types.Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}
	return signed, nil
}

// Verify checks signature and expiry and returns the embedded user ID.
func (s *TokenService) Verify(tokenString string) (string, error) {
	claims := &types.Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secretKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrTokenExpired
		}
		return "", ErrTokenMalformed
	}

	if !token.Valid || claims.UserID == "" {
		return "", ErrTokenMalformed
	}
	if s.issuer != "" && claims.Issuer != s.issuer {
		return "", ErrTokenMalformed
	}
	return claims.UserID, nil
}
