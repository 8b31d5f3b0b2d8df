// Package session owns the authenticated-user state of the client.
package session

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/jengzang/spotmap-go/internal/models"
)

// State is the authentication state
type State int

const (
	Unauthenticated State = iota
	Authenticated
)

func (s State) String() string {
	if s == Authenticated {
		return "authenticated"
	}
	return "unauthenticated"
}

// AuthAPI is the slice of the remote service the session needs
type AuthAPI interface {
	Register(ctx context.Context, email, password, username string) (*models.User, error)
	Login(ctx context.Context, email, password string) (*models.TokenPair, error)
	Me(ctx context.Context) (*models.User, error)
}

// Credentials is the durable token storage
type Credentials interface {
	AccessToken(ctx context.Context) (string, error)
	Save(ctx context.Context, pair models.TokenPair) error
	Purge(ctx context.Context) error
}

// Snapshot is an immutable view of the session handed to subscribers
type Snapshot struct {
	State   State
	User    *models.User
	Loading bool
}

// Manager tracks who is logged in.
// The user is non-nil exactly when the state is Authenticated.
type Manager struct {
	api   AuthAPI
	creds Credentials

	mu      sync.RWMutex
	state   State
	user    *models.User
	loading bool

	subMu  sync.Mutex
	nextID int
	subs   map[int]func(Snapshot)
}

// New creates a manager. It stays Loading until CheckAuth returns.
func New(api AuthAPI, creds Credentials) *Manager {
	return &Manager{
		api:     api,
		creds:   creds,
		loading: true,
		subs:    make(map[int]func(Snapshot)),
	}
}

// Login exchanges credentials for tokens, persists them and loads the user
func (m *Manager) Login(ctx context.Context, email, password string) error {
	pair, err := m.api.Login(ctx, email, password)
	if err != nil {
		return err
	}
	if err := m.creds.Save(ctx, *pair); err != nil {
		return fmt.Errorf("failed to persist tokens: %w", err)
	}

	user, err := m.api.Me(ctx)
	if err != nil {
		// tokens without a user would leave storage and state disagreeing
		if perr := m.creds.Purge(context.WithoutCancel(ctx)); perr != nil {
			log.Printf("[Session] failed to purge tokens: %v", perr)
		}
		m.set(Unauthenticated, nil)
		return err
	}

	log.Printf("[Session] logged in as %s", user.Username)
	m.set(Authenticated, user)
	return nil
}

// Register creates an account and logs into it
func (m *Manager) Register(ctx context.Context, email, password, username string) error {
	if _, err := m.api.Register(ctx, email, password, username); err != nil {
		return err
	}
	return m.Login(ctx, email, password)
}

// Logout drops the tokens and the user. It never touches the network.
func (m *Manager) Logout() {
	if err := m.creds.Purge(context.Background()); err != nil {
		log.Printf("[Session] failed to purge tokens: %v", err)
	}
	m.set(Unauthenticated, nil)
}

// CheckAuth restores a session from persisted tokens at startup.
// Any failure leaves the manager Unauthenticated without an error.
func (m *Manager) CheckAuth(ctx context.Context) {
	defer m.finishLoading()

	token, err := m.creds.AccessToken(ctx)
	if err != nil || token == "" {
		m.set(Unauthenticated, nil)
		return
	}

	user, err := m.api.Me(ctx)
	if err != nil {
		log.Printf("[Session] stored session rejected: %v", err)
		m.set(Unauthenticated, nil)
		return
	}
	m.set(Authenticated, user)
}

// HandleCredentialsPurged drops to Unauthenticated after the transport
// discarded the tokens on a failed refresh.
func (m *Manager) HandleCredentialsPurged() {
	m.set(Unauthenticated, nil)
}

// State returns the current state
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// IsAuthenticated reports whether a user is logged in
func (m *Manager) IsAuthenticated() bool {
	return m.State() == Authenticated
}

// User returns a copy of the current user, nil when unauthenticated
func (m *Manager) User() *models.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.user == nil {
		return nil
	}
	u := *m.user
	return &u
}

// Loading reports whether the startup check is still running
func (m *Manager) Loading() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loading
}

// Snapshot returns the current state, user and loading flag together
func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshotLocked()
}

// TokenExpiry returns the exp claim of the persisted access token.
// The token is decoded without verification; zero when absent or opaque.
func (m *Manager) TokenExpiry(ctx context.Context) time.Time {
	token, err := m.creds.AccessToken(ctx)
	if err != nil || token == "" {
		return time.Time{}
	}

	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}
	}
	if claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}

// Subscribe registers fn for every state change. The returned func cancels it.
func (m *Manager) Subscribe(fn func(Snapshot)) func() {
	m.subMu.Lock()
	defer m.subMu.Unlock()
	id := m.nextID
	m.nextID++
	m.subs[id] = fn
	return func() {
		m.subMu.Lock()
		defer m.subMu.Unlock()
		delete(m.subs, id)
	}
}

func (m *Manager) set(state State, user *models.User) {
	m.mu.Lock()
	m.state = state
	m.user = user
	snap := m.snapshotLocked()
	m.mu.Unlock()

	m.notify(snap)
}

func (m *Manager) finishLoading() {
	m.mu.Lock()
	m.loading = false
	snap := m.snapshotLocked()
	m.mu.Unlock()

	m.notify(snap)
}

func (m *Manager) snapshotLocked() Snapshot {
	snap := Snapshot{State: m.state, Loading: m.loading}
	if m.user != nil {
		u := *m.user
		snap.User = &u
	}
	return snap
}

func (m *Manager) notify(snap Snapshot) {
	m.subMu.Lock()
	fns := make([]func(Snapshot), 0, len(m.subs))
	for _, fn := range m.subs {
		fns = append(fns, fn)
	}
	m.subMu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}
