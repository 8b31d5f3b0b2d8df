package repository

import (
	"context"
	"fmt"

	"github.com/jengzang/spotmap-go/internal/models"
)

// Keys under which the token pair is persisted
const (
	AccessTokenKey  = "access_token"
	RefreshTokenKey = "refresh_token"
)

// CredentialRepository persists the session's access/refresh token pair
type CredentialRepository struct {
	kv KVStore
}

// NewCredentialRepository creates a credential repository on top of kv
func NewCredentialRepository(kv KVStore) *CredentialRepository {
	return &CredentialRepository{kv: kv}
}

// AccessToken returns the persisted access token, or "" when there is none
func (r *CredentialRepository) AccessToken(ctx context.Context) (string, error) {
	v, _, err := r.kv.Get(ctx, AccessTokenKey)
	return v, err
}

// RefreshToken returns the persisted refresh token, or "" when there is none
func (r *CredentialRepository) RefreshToken(ctx context.Context) (string, error) {
	v, _, err := r.kv.Get(ctx, RefreshTokenKey)
	return v, err
}

// Save persists both tokens of the pair atomically
func (r *CredentialRepository) Save(ctx context.Context, pair models.TokenPair) error {
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		return fmt.Errorf("refusing to persist incomplete token pair")
	}
	return r.kv.SetAll(ctx, map[string]string{
		AccessTokenKey:  pair.AccessToken,
		RefreshTokenKey: pair.RefreshToken,
	})
}

// Purge removes both tokens
func (r *CredentialRepository) Purge(ctx context.Context) error {
	return r.kv.Delete(ctx, AccessTokenKey, RefreshTokenKey)
}
