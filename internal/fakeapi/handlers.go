package fakeapi

import (
	"errors"
	"net/mail"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/jengzang/spotmap-go/internal/middleware"
	"github.com/jengzang/spotmap-go/internal/models"
	"github.com/jengzang/spotmap-go/pkg/response"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
	minPasswordLen  = 6
)

// register handles POST /api/auth/register
func (s *Server) register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "body", "invalid JSON body")
		return
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		response.ValidationError(c, "email", "value is not a valid email address")
		return
	}
	if len(req.Password) < minPasswordLen {
		response.ValidationError(c, "password", "ensure this value has at least 6 characters")
		return
	}
	if strings.TrimSpace(req.Username) == "" {
		response.ValidationError(c, "username", "field required")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cfg.BcryptCost)
	if err != nil {
		response.InternalError(c, "Failed to hash password")
		return
	}

	user, err := s.store.createUser(req.Email, req.Username, hash)
	if err != nil {
		s.storeError(c, err)
		return
	}
	response.Created(c, user)
}

// login handles POST /api/auth/login
func (s *Server) login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "body", "invalid JSON body")
		return
	}

	acct, ok := s.store.accountByEmail(req.Email)
	if !ok || bcrypt.CompareHashAndPassword(acct.passwordHash, []byte(req.Password)) != nil {
		response.Unauthorized(c, "Incorrect email or password")
		return
	}

	pair, err := s.tokens.issue(acct.user.ID)
	if err != nil {
		response.InternalError(c, "Failed to issue tokens")
		return
	}
	response.Success(c, pair)
}

// refresh handles POST /api/auth/refresh
func (s *Server) refresh(c *gin.Context) {
	s.mu.Lock()
	s.refreshCalls++
	s.mu.Unlock()

	var req models.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.RefreshToken == "" {
		response.ValidationError(c, "refresh_token", "field required")
		return
	}

	pair, err := s.tokens.rotate(req.RefreshToken)
	if err != nil {
		response.Unauthorized(c, "Invalid refresh token")
		return
	}
	response.Success(c, pair)
}

// me handles GET /api/users/me
func (s *Server) me(c *gin.Context) {
	user, ok := s.store.user(middleware.UserID(c))
	if !ok {
		response.Unauthorized(c, "Could not validate credentials")
		return
	}
	response.Success(c, user)
}

// listSpots handles GET /api/spots
func (s *Server) listSpots(c *gin.Context) {
	q := models.SpotQuery{Page: 1, Size: defaultPageSize}

	if raw := c.Query("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			response.ValidationError(c, "page", "ensure this value is greater than or equal to 1")
			return
		}
		q.Page = page
	}
	if raw := c.Query("size"); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil || size < 1 || size > maxPageSize {
			response.ValidationError(c, "size", "ensure this value is between 1 and 100")
			return
		}
		q.Size = size
	}
	if raw := c.Query("category"); raw != "" {
		cat, err := models.ParseCategory(raw)
		if err != nil {
			response.ValidationError(c, "category", err.Error())
			return
		}
		q.Category = &cat
	}
	if raw := c.Query("min_rating"); raw != "" {
		r, err := strconv.ParseFloat(raw, 64)
		if err != nil || r < 0 || r > 5 {
			response.ValidationError(c, "min_rating", "ensure this value is between 0 and 5")
			return
		}
		q.MinRating = &r
	}

	response.Success(c, s.store.listSpots(q))
}

// getSpot handles GET /api/spots/:id
func (s *Server) getSpot(c *gin.Context) {
	id, ok := spotID(c)
	if !ok {
		return
	}
	spot, err := s.store.getSpot(id)
	if err != nil {
		s.storeError(c, err)
		return
	}
	response.Success(c, spot)
}

// createSpot handles POST /api/spots
func (s *Server) createSpot(c *gin.Context) {
	var in models.SpotInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.ValidationError(c, "body", "invalid JSON body")
		return
	}
	if err := in.Validate(); err != nil {
		response.ValidationError(c, "body", err.Error())
		return
	}
	response.Created(c, s.store.createSpot(middleware.UserID(c), in))
}

// updateSpot handles PATCH /api/spots/:id
func (s *Server) updateSpot(c *gin.Context) {
	id, ok := spotID(c)
	if !ok {
		return
	}
	var patch models.SpotPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		response.ValidationError(c, "body", "invalid JSON body")
		return
	}
	if err := patch.Validate(); err != nil {
		response.ValidationError(c, "body", err.Error())
		return
	}

	spot, err := s.store.updateSpot(middleware.UserID(c), id, patch)
	if err != nil {
		s.storeError(c, err)
		return
	}
	response.Success(c, spot)
}

// deleteSpot handles DELETE /api/spots/:id
func (s *Server) deleteSpot(c *gin.Context) {
	id, ok := spotID(c)
	if !ok {
		return
	}
	if err := s.store.deleteSpot(middleware.UserID(c), id); err != nil {
		s.storeError(c, err)
		return
	}
	response.NoContent(c)
}

// uploadImage handles POST /api/spots/:id/images
func (s *Server) uploadImage(c *gin.Context) {
	id, ok := spotID(c)
	if !ok {
		return
	}
	file, err := c.FormFile("file")
	if err != nil {
		response.ValidationError(c, "file", "field required")
		return
	}

	url := s.cfg.UploadBaseURL + "/" + uuid.NewString() + strings.ToLower(filepath.Ext(file.Filename))
	primary := c.Query("is_primary") == "true"
	if _, err := s.store.addImage(middleware.UserID(c), id, url, primary); err != nil {
		s.storeError(c, err)
		return
	}
	response.NoContent(c)
}

func spotID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ValidationError(c, "id", "value is not a valid integer")
		return 0, false
	}
	return id, true
}

func (s *Server) storeError(c *gin.Context, err error) {
	detail, ok := details[err]
	switch {
	case !ok:
		response.InternalError(c, "Internal server error")
	case errors.Is(err, errSpotNotFound):
		response.NotFound(c, detail)
	case errors.Is(err, errNotOwner):
		response.Forbidden(c, detail)
	default:
		response.BadRequest(c, detail)
	}
}
