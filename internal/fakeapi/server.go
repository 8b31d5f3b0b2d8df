// Package fakeapi is an in-memory stand-in for the remote spot service.
// It serves the same endpoints under /api for tests and local development.
package fakeapi

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/jengzang/spotmap-go/internal/middleware"
)

// Config configures the stand-in service
type Config struct {
	JWTSecret     string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	BcryptCost    int
	RateLimit     int    // requests per minute per client, 0 disables
	UploadBaseURL string // prefix of stored image URLs
	Quiet         bool   // skip request logging
}

// Server is the stand-in service
type Server struct {
	cfg    Config
	engine *gin.Engine
	tokens *tokenIssuer
	store  *memStore

	mu           sync.Mutex
	refreshCalls int
	requests     map[string]int
}

// New builds the service and its routes
func New(cfg Config) *Server {
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = "fakeapi-dev-secret"
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = 30 * time.Minute
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = 7 * 24 * time.Hour
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	if cfg.UploadBaseURL == "" {
		cfg.UploadBaseURL = "/uploads"
	}

	s := &Server{
		cfg:      cfg,
		tokens:   newTokenIssuer(cfg.JWTSecret, cfg.AccessTTL, cfg.RefreshTTL),
		store:    newMemStore(),
		requests: make(map[string]int),
	}
	s.engine = s.setupRouter()
	return s
}

func (s *Server) setupRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if !s.cfg.Quiet {
		r.Use(middleware.Logger())
	}
	r.Use(s.countRequests())
	r.Use(middleware.RateLimit(s.cfg.RateLimit, time.Minute))

	auth := middleware.Bearer(s.tokens.verifyAccess)

	api := r.Group("/api")
	{
		api.POST("/auth/register", s.register)
		api.POST("/auth/login", s.login)
		api.POST("/auth/refresh", s.refresh)

		api.GET("/users/me", auth, s.me)

		api.GET("/spots", s.listSpots)
		api.GET("/spots/:id", s.getSpot)
		api.POST("/spots", auth, s.createSpot)
		api.PATCH("/spots/:id", auth, s.updateSpot)
		api.DELETE("/spots/:id", auth, s.deleteSpot)
		api.POST("/spots/:id/images", auth, s.uploadImage)
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	return r
}

// Handler returns the HTTP handler serving every route
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on addr until the listener fails
func (s *Server) Run(addr string) error {
	log.Printf("[FakeAPI] listening on %s", addr)
	return s.engine.Run(addr)
}

// RevokeAccessTokens invalidates every access token issued so far.
// Refresh tokens stay valid.
func (s *Server) RevokeAccessTokens() {
	s.tokens.revokeAccess()
}

// RefreshCalls returns how many times /auth/refresh was hit
func (s *Server) RefreshCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshCalls
}

// RequestCount returns how many requests reached path, e.g. "/api/users/me"
func (s *Server) RequestCount(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[path]
}

func (s *Server) countRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		s.mu.Lock()
		s.requests[c.Request.URL.Path]++
		s.mu.Unlock()
		c.Next()
	}
}
