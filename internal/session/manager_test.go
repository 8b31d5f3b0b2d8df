package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jengzang/spotmap-go/internal/models"
	"github.com/jengzang/spotmap-go/internal/repository"
	"github.com/jengzang/spotmap-go/pkg/apperr"
)

type stubAPI struct {
	users    map[string]string // email -> password
	pair     models.TokenPair
	meErr    error
	meCalls  int
	loginErr error
}

func (s *stubAPI) Register(_ context.Context, email, password, username string) (*models.User, error) {
	if _, ok := s.users[email]; ok {
		return nil, apperr.FromStatus(400, "Email already registered")
	}
	s.users[email] = password
	return &models.User{ID: 2, Email: email, Username: username}, nil
}

func (s *stubAPI) Login(_ context.Context, email, password string) (*models.TokenPair, error) {
	if s.loginErr != nil {
		return nil, s.loginErr
	}
	if pw, ok := s.users[email]; !ok || pw != password {
		return nil, apperr.FromStatus(401, "Incorrect email or password")
	}
	p := s.pair
	return &p, nil
}

func (s *stubAPI) Me(context.Context) (*models.User, error) {
	s.meCalls++
	if s.meErr != nil {
		return nil, s.meErr
	}
	return &models.User{ID: 1, Email: "alice@example.com", Username: "alice", IsActive: true}, nil
}

func newTestManager() (*Manager, *stubAPI, *repository.CredentialRepository) {
	api := &stubAPI{
		users: map[string]string{"alice@example.com": "pw"},
		pair:  models.TokenPair{AccessToken: "at1", RefreshToken: "rt1", TokenType: "bearer"},
	}
	creds := repository.NewCredentialRepository(repository.NewMemoryKV())
	return New(api, creds), api, creds
}

func TestLoginPersistsTokensAndUser(t *testing.T) {
	m, _, creds := newTestManager()
	ctx := context.Background()

	require.NoError(t, m.Login(ctx, "alice@example.com", "pw"))

	access, _ := creds.AccessToken(ctx)
	refresh, _ := creds.RefreshToken(ctx)
	assert.Equal(t, "at1", access)
	assert.Equal(t, "rt1", refresh)
	assert.True(t, m.IsAuthenticated())
	require.NotNil(t, m.User())
	assert.Equal(t, "alice", m.User().Username)
}

func TestLoginBadCredentials(t *testing.T) {
	m, _, creds := newTestManager()
	ctx := context.Background()

	err := m.Login(ctx, "alice@example.com", "wrong")
	assert.ErrorIs(t, err, apperr.ErrAuth)
	assert.Equal(t, Unauthenticated, m.State())
	assert.Nil(t, m.User())

	access, _ := creds.AccessToken(ctx)
	assert.Empty(t, access)
}

func TestLoginMeFailurePurges(t *testing.T) {
	m, api, creds := newTestManager()
	api.meErr = apperr.Network(errors.New("connection reset"))
	ctx := context.Background()

	err := m.Login(ctx, "alice@example.com", "pw")
	assert.ErrorIs(t, err, apperr.ErrNetwork)
	assert.False(t, m.IsAuthenticated())

	access, _ := creds.AccessToken(ctx)
	assert.Empty(t, access)
}

func TestRegisterThenLogin(t *testing.T) {
	m, api, _ := newTestManager()
	ctx := context.Background()

	require.NoError(t, m.Register(ctx, "bob@example.com", "secret", "bob"))
	assert.True(t, m.IsAuthenticated())
	assert.Equal(t, 1, api.meCalls)

	m.Logout()
	err := m.Register(ctx, "bob@example.com", "secret", "bob")
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.False(t, m.IsAuthenticated())
}

func TestLogoutIdempotent(t *testing.T) {
	m, _, creds := newTestManager()
	ctx := context.Background()
	require.NoError(t, m.Login(ctx, "alice@example.com", "pw"))

	m.Logout()
	m.Logout()

	assert.Equal(t, Unauthenticated, m.State())
	refresh, _ := creds.RefreshToken(ctx)
	assert.Empty(t, refresh)
}

func TestCheckAuth(t *testing.T) {
	ctx := context.Background()

	t.Run("no token", func(t *testing.T) {
		m, api, _ := newTestManager()
		assert.True(t, m.Loading())
		m.CheckAuth(ctx)
		assert.False(t, m.Loading())
		assert.False(t, m.IsAuthenticated())
		assert.Equal(t, 0, api.meCalls)
	})

	t.Run("valid token", func(t *testing.T) {
		m, _, creds := newTestManager()
		require.NoError(t, creds.Save(ctx, models.TokenPair{AccessToken: "at1", RefreshToken: "rt1"}))
		m.CheckAuth(ctx)
		assert.True(t, m.IsAuthenticated())
		assert.False(t, m.Loading())
	})

	t.Run("rejected token", func(t *testing.T) {
		m, api, creds := newTestManager()
		api.meErr = apperr.FromStatus(401, "Could not validate credentials")
		require.NoError(t, creds.Save(ctx, models.TokenPair{AccessToken: "at1", RefreshToken: "rt1"}))
		m.CheckAuth(ctx)
		assert.False(t, m.IsAuthenticated())
		assert.False(t, m.Loading())
	})
}

func TestHandleCredentialsPurged(t *testing.T) {
	m, _, _ := newTestManager()
	require.NoError(t, m.Login(context.Background(), "alice@example.com", "pw"))

	var got []Snapshot
	cancel := m.Subscribe(func(s Snapshot) { got = append(got, s) })

	m.HandleCredentialsPurged()
	require.Len(t, got, 1)
	assert.Equal(t, Unauthenticated, got[0].State)
	assert.Nil(t, got[0].User)

	cancel()
	m.HandleCredentialsPurged()
	assert.Len(t, got, 1)
}

func TestTokenExpiry(t *testing.T) {
	m, api, _ := newTestManager()
	ctx := context.Background()

	assert.True(t, m.TokenExpiry(ctx).IsZero())

	exp := time.Now().Add(30 * time.Minute).Truncate(time.Second)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "1",
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("unknown-to-client"))
	require.NoError(t, err)

	api.pair = models.TokenPair{AccessToken: token, RefreshToken: "rt1"}
	require.NoError(t, m.Login(ctx, "alice@example.com", "pw"))
	assert.True(t, exp.Equal(m.TokenExpiry(ctx)))

	// opaque tokens have no expiry
	api.pair = models.TokenPair{AccessToken: "at1", RefreshToken: "rt1"}
	require.NoError(t, m.Login(ctx, "alice@example.com", "pw"))
	assert.True(t, m.TokenExpiry(ctx).IsZero())
}
