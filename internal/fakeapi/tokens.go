package fakeapi

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/jengzang/spotmap-go/internal/models"
)

const (
	kindAccess  = "access"
	kindRefresh = "refresh"
)

var ErrInvalidToken = errors.New("invalid token")

type tokenClaims struct {
	UserID     int64  `json:"user_id"`
	Kind       string `json:"type"`
	Generation int64  `json:"gen"`
	jwt.RegisteredClaims
}

// tokenIssuer signs HS256 access/refresh pairs. Refresh tokens are single
// use; revoking bumps a generation so every outstanding access token fails.
type tokenIssuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration

	mu         sync.Mutex
	generation int64
	used       map[string]bool
}

func newTokenIssuer(secret string, accessTTL, refreshTTL time.Duration) *tokenIssuer {
	return &tokenIssuer{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		used:       make(map[string]bool),
	}
}

func (t *tokenIssuer) issue(userID int64) (models.TokenPair, error) {
	t.mu.Lock()
	gen := t.generation
	t.mu.Unlock()

	access, err := t.sign(userID, kindAccess, gen, t.accessTTL)
	if err != nil {
		return models.TokenPair{}, err
	}
	refresh, err := t.sign(userID, kindRefresh, gen, t.refreshTTL)
	if err != nil {
		return models.TokenPair{}, err
	}
	return models.TokenPair{AccessToken: access, RefreshToken: refresh, TokenType: "bearer"}, nil
}

func (t *tokenIssuer) sign(userID int64, kind string, gen int64, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := tokenClaims{
		UserID:     userID,
		Kind:       kind,
		Generation: gen,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   fmt.Sprintf("%d", userID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

func (t *tokenIssuer) parse(raw, kind string) (*tokenClaims, error) {
	token, err := jwt.ParseWithClaims(raw, &tokenClaims{}, func(*jwt.Token) (interface{}, error) {
		return t.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*tokenClaims)
	if !ok || !token.Valid || claims.Kind != kind {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// verifyAccess returns the user id of a valid, unrevoked access token
func (t *tokenIssuer) verifyAccess(raw string) (int64, error) {
	claims, err := t.parse(raw, kindAccess)
	if err != nil {
		return 0, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if claims.Generation != t.generation {
		return 0, ErrInvalidToken
	}
	return claims.UserID, nil
}

// rotate consumes a refresh token and issues a fresh pair
func (t *tokenIssuer) rotate(raw string) (models.TokenPair, error) {
	claims, err := t.parse(raw, kindRefresh)
	if err != nil {
		return models.TokenPair{}, err
	}

	t.mu.Lock()
	if t.used[claims.ID] {
		t.mu.Unlock()
		return models.TokenPair{}, ErrInvalidToken
	}
	t.used[claims.ID] = true
	t.mu.Unlock()

	return t.issue(claims.UserID)
}

func (t *tokenIssuer) revokeAccess() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.generation++
}
