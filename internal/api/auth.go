package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/jengzang/spotmap-go/internal/models"
)

type anonymousKey struct{}

// anonymous marks requests that must go out without a bearer token and
// must never trigger a refresh
func anonymous(ctx context.Context) context.Context {
	return context.WithValue(ctx, anonymousKey{}, true)
}

func isAnonymous(ctx context.Context) bool {
	v, _ := ctx.Value(anonymousKey{}).(bool)
	return v
}

// Register creates an account. It does not log in.
func (c *Client) Register(ctx context.Context, email, password, username string) (*models.User, error) {
	ctx = anonymous(ctx)
	var user models.User
	body := models.RegisterRequest{Email: email, Password: password, Username: username}
	if err := c.call(ctx, http.MethodPost, "/auth/register", nil, body, &user); err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	return &user, nil
}

// Login exchanges credentials for a token pair
func (c *Client) Login(ctx context.Context, email, password string) (*models.TokenPair, error) {
	ctx = anonymous(ctx)
	var pair models.TokenPair
	body := models.LoginRequest{Email: email, Password: password}
	if err := c.call(ctx, http.MethodPost, "/auth/login", nil, body, &pair); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	return &pair, nil
}

// Refresh exchanges a refresh token for a new pair
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*models.TokenPair, error) {
	ctx = anonymous(ctx)
	var pair models.TokenPair
	body := models.RefreshRequest{RefreshToken: refreshToken}
	if err := c.call(ctx, http.MethodPost, "/auth/refresh", nil, body, &pair); err != nil {
		return nil, fmt.Errorf("refresh: %w", err)
	}
	return &pair, nil
}

// Me returns the user the current access token belongs to
func (c *Client) Me(ctx context.Context) (*models.User, error) {
	var user models.User
	if err := c.call(ctx, http.MethodGet, "/users/me", nil, nil, &user); err != nil {
		return nil, fmt.Errorf("get current user: %w", err)
	}
	return &user, nil
}
