package api

import (
	"context"
	"io"
	"log"
	"net/http"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/jengzang/spotmap-go/internal/models"
)

// Credentials is the persisted token pair the transport reads and rotates
type Credentials interface {
	AccessToken(ctx context.Context) (string, error)
	RefreshToken(ctx context.Context) (string, error)
	Save(ctx context.Context, pair models.TokenPair) error
	Purge(ctx context.Context) error
}

// RefreshFunc exchanges a refresh token for a new pair. It must not go
// through an AuthTransport.
type RefreshFunc func(ctx context.Context, refreshToken string) (*models.TokenPair, error)

// AuthTransport decorates a Doer with bearer authentication and a single
// refresh-then-retry on 401. Register, login and refresh requests pass
// through untouched.
//
// For one request it performs at most one refresh and at most one replay.
// When the refresh fails both tokens are purged and the original 401
// response is returned untouched.
type AuthTransport struct {
	next    Doer
	creds   Credentials
	refresh RefreshFunc

	group singleflight.Group

	mu      sync.RWMutex
	onPurge []func()
}

// NewAuthTransport wraps next
func NewAuthTransport(next Doer, creds Credentials, refresh RefreshFunc) *AuthTransport {
	if next == nil {
		next = http.DefaultClient
	}
	return &AuthTransport{
		next:    next,
		creds:   creds,
		refresh: refresh,
	}
}

// OnPurge registers fn to run after a failed refresh purged the credentials
func (t *AuthTransport) OnPurge(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onPurge = append(t.onPurge, fn)
}

// Do implements Doer
func (t *AuthTransport) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	if isAnonymous(ctx) {
		return t.next.Do(req)
	}

	access, err := t.creds.AccessToken(ctx)
	if err != nil {
		log.Printf("[AuthTransport] failed to read access token: %v", err)
	}

	first := req.Clone(ctx)
	if access != "" {
		first.Header.Set("Authorization", "Bearer "+access)
	}

	resp, err := t.next.Do(first)
	if err != nil || resp.StatusCode != http.StatusUnauthorized {
		return resp, err
	}

	if !replayable(req) {
		return resp, nil
	}

	refreshToken, err := t.creds.RefreshToken(ctx)
	if err != nil || refreshToken == "" {
		return resp, nil
	}

	// Another request may already have rotated the pair while this one was in flight
	current, _ := t.creds.AccessToken(ctx)
	if current == "" || current == access {
		pair, err := t.refreshOnce(ctx, refreshToken)
		switch {
		case err == nil:
			current = pair.AccessToken
		case t.rotatedSince(ctx, access):
			// lost the race against a refresh that already consumed the token
			current, _ = t.creds.AccessToken(ctx)
		default:
			log.Printf("[AuthTransport] token refresh failed, purging credentials: %v", err)
			t.purge(ctx)
			return resp, nil
		}
	}

	retry := req.Clone(ctx)
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return resp, nil
		}
		retry.Body = body
	}
	retry.Header.Set("Authorization", "Bearer "+current)

	drain(resp)
	return t.next.Do(retry)
}

// refreshOnce coalesces concurrent refreshes of the same token into one call
func (t *AuthTransport) refreshOnce(ctx context.Context, refreshToken string) (*models.TokenPair, error) {
	v, err, _ := t.group.Do(refreshToken, func() (any, error) {
		detached := context.WithoutCancel(ctx)
		pair, err := t.refresh(detached, refreshToken)
		if err != nil {
			return nil, err
		}
		if err := t.creds.Save(detached, *pair); err != nil {
			return nil, err
		}
		return pair, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.TokenPair), nil
}

func (t *AuthTransport) rotatedSince(ctx context.Context, access string) bool {
	latest, err := t.creds.AccessToken(ctx)
	return err == nil && latest != "" && latest != access
}

func (t *AuthTransport) purge(ctx context.Context) {
	if err := t.creds.Purge(context.WithoutCancel(ctx)); err != nil {
		log.Printf("[AuthTransport] failed to purge credentials: %v", err)
	}

	t.mu.RLock()
	hooks := append([]func(){}, t.onPurge...)
	t.mu.RUnlock()
	for _, fn := range hooks {
		fn()
	}
}

func replayable(req *http.Request) bool {
	return req.Body == nil || req.Body == http.NoBody || req.GetBody != nil
}

func drain(resp *http.Response) {
	io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	resp.Body.Close()
}
