package fakeapi

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jengzang/spotmap-go/internal/models"
)

var (
	errEmailTaken    = errors.New("email already registered")
	errUsernameTaken = errors.New("username already taken")
	errSpotNotFound  = errors.New("spot not found")
	errNotOwner      = errors.New("not the owner of this spot")
)

// details are the client-facing messages of the store errors
var details = map[error]string{
	errEmailTaken:    "Email already registered",
	errUsernameTaken: "Username already taken",
	errSpotNotFound:  "Spot not found",
	errNotOwner:      "Not authorized to modify this spot",
}

type account struct {
	user         models.User
	passwordHash []byte
}

// memStore holds users, spots and images in memory
type memStore struct {
	mu          sync.RWMutex
	accounts    map[int64]*account
	byEmail     map[string]int64
	byUsername  map[string]int64
	spots       map[int64]*models.Spot
	nextUserID  int64
	nextSpotID  int64
	nextImageID int64
}

func newMemStore() *memStore {
	return &memStore{
		accounts:   make(map[int64]*account),
		byEmail:    make(map[string]int64),
		byUsername: make(map[string]int64),
		spots:      make(map[int64]*models.Spot),
	}
}

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func (s *memStore) createUser(email, username string, hash []byte) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	email = strings.ToLower(email)
	if _, ok := s.byEmail[email]; ok {
		return models.User{}, errEmailTaken
	}
	if _, ok := s.byUsername[username]; ok {
		return models.User{}, errUsernameTaken
	}

	s.nextUserID++
	u := models.User{
		ID:        s.nextUserID,
		Email:     email,
		Username:  username,
		IsActive:  true,
		CreatedAt: timestamp(),
	}
	s.accounts[u.ID] = &account{user: u, passwordHash: hash}
	s.byEmail[email] = u.ID
	s.byUsername[username] = u.ID
	return u, nil
}

func (s *memStore) accountByEmail(email string) (*account, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, false
	}
	a := *s.accounts[id]
	return &a, true
}

func (s *memStore) user(id int64) (models.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[id]
	if !ok {
		return models.User{}, false
	}
	return a.user, true
}

// snapshot copies a spot with its owner and images; callers hold mu
func (s *memStore) snapshot(sp *models.Spot) models.Spot {
	out := *sp
	out.Images = append([]models.Image{}, sp.Images...)
	if a, ok := s.accounts[sp.UserID]; ok {
		out.User = a.user
	}
	return out
}

func (s *memStore) listSpots(q models.SpotQuery) models.SpotPage {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*models.Spot
	for _, sp := range s.spots {
		if q.Category != nil && sp.Category != *q.Category {
			continue
		}
		if q.MinRating != nil && (sp.Rating == nil || *sp.Rating < *q.MinRating) {
			continue
		}
		matched = append(matched, sp)
	}
	// newest first
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID > matched[j].ID })

	total := len(matched)
	pages := (total + q.Size - 1) / q.Size
	start := (q.Page - 1) * q.Size
	if start > total {
		start = total
	}
	end := start + q.Size
	if end > total {
		end = total
	}

	items := make([]models.Spot, 0, end-start)
	for _, sp := range matched[start:end] {
		items = append(items, s.snapshot(sp))
	}
	return models.SpotPage{Items: items, Total: int64(total), Page: q.Page, Size: q.Size, Pages: pages}
}

func (s *memStore) getSpot(id int64) (models.Spot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sp, ok := s.spots[id]
	if !ok {
		return models.Spot{}, errSpotNotFound
	}
	return s.snapshot(sp), nil
}

func (s *memStore) createSpot(userID int64, in models.SpotInput) models.Spot {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextSpotID++
	sp := &models.Spot{
		ID:          s.nextSpotID,
		Title:       in.Title,
		Description: in.Description,
		Category:    in.Category,
		Rating:      in.Rating,
		Latitude:    in.Latitude,
		Longitude:   in.Longitude,
		Address:     in.Address,
		Best:        in.Best,
		BestTime:    in.BestTime,
		PriceLevel:  in.PriceLevel,
		UserID:      userID,
		Images:      []models.Image{},
		CreatedAt:   timestamp(),
	}
	s.spots[sp.ID] = sp
	return s.snapshot(sp)
}

// ownedSpot returns the spot if userID owns it; callers hold mu
func (s *memStore) ownedSpot(userID, spotID int64) (*models.Spot, error) {
	sp, ok := s.spots[spotID]
	if !ok {
		return nil, errSpotNotFound
	}
	if sp.UserID != userID {
		return nil, errNotOwner
	}
	return sp, nil
}

func (s *memStore) updateSpot(userID, spotID int64, p models.SpotPatch) (models.Spot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sp, err := s.ownedSpot(userID, spotID)
	if err != nil {
		return models.Spot{}, err
	}
	if p.Title != nil {
		sp.Title = *p.Title
	}
	if p.Description != nil {
		sp.Description = p.Description
	}
	if p.Category != nil {
		sp.Category = *p.Category
	}
	if p.Rating != nil {
		sp.Rating = p.Rating
	}
	if p.Latitude != nil {
		sp.Latitude = *p.Latitude
	}
	if p.Longitude != nil {
		sp.Longitude = *p.Longitude
	}
	if p.Address != nil {
		sp.Address = p.Address
	}
	if p.Best != nil {
		sp.Best = p.Best
	}
	if p.BestTime != nil {
		sp.BestTime = p.BestTime
	}
	if p.PriceLevel != nil {
		sp.PriceLevel = p.PriceLevel
	}
	now := timestamp()
	sp.UpdatedAt = &now
	return s.snapshot(sp), nil
}

func (s *memStore) deleteSpot(userID, spotID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.ownedSpot(userID, spotID); err != nil {
		return err
	}
	delete(s.spots, spotID)
	return nil
}

func (s *memStore) addImage(userID, spotID int64, url string, primary bool) (models.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sp, err := s.ownedSpot(userID, spotID)
	if err != nil {
		return models.Image{}, err
	}
	if primary {
		for i := range sp.Images {
			sp.Images[i].IsPrimary = false
		}
	}
	s.nextImageID++
	img := models.Image{
		ID:        s.nextImageID,
		URL:       url,
		IsPrimary: primary,
		SpotID:    spotID,
		CreatedAt: timestamp(),
	}
	sp.Images = append(sp.Images, img)
	return img, nil
}
