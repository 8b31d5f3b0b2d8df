// Package spots holds the client-side spot collection, its filters and the
// current selection.
package spots

import (
	"context"
	"fmt"
	"io"
	"log"
	"sync"

	"github.com/jengzang/spotmap-go/internal/models"
)

// DefaultPageSize is the listing size requested when no option overrides it
const DefaultPageSize = 100

// SpotAPI is the slice of the remote service the store needs
type SpotAPI interface {
	ListSpots(ctx context.Context, q models.SpotQuery) (*models.SpotPage, error)
	GetSpot(ctx context.Context, id int64) (*models.Spot, error)
	CreateSpot(ctx context.Context, in models.SpotInput) (*models.Spot, error)
	UpdateSpot(ctx context.Context, id int64, patch models.SpotPatch) (*models.Spot, error)
	DeleteSpot(ctx context.Context, id int64) error
	UploadImage(ctx context.Context, spotID int64, filename string, r io.Reader, isPrimary bool) error
}

// ImageUpload is one image attached while creating a spot
type ImageUpload struct {
	Filename string
	Content  io.Reader
	Primary  bool
}

// Option configures a Store
type Option func(*Store)

// WithPageSize sets the listing page size
func WithPageSize(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.pageSize = n
		}
	}
}

// Store is the spot repository shared by the map and the list views.
//
// Fetches are sequenced: a response is applied only if no newer fetch has
// been applied before it, so the collection always reflects the most recent
// filter state that produced an answer.
type Store struct {
	api      SpotAPI
	pageSize int

	mu        sync.RWMutex
	spots     []models.Spot
	selected  *models.Spot
	filters   models.FilterState
	lastErr   error
	inFlight  int
	issued    uint64
	applied   uint64
	closed    bool
	nextSubID int
	subs      map[int]func([]models.Spot)
	selSubs   map[int]func(*models.Spot)
}

// New creates a store on top of api
func New(api SpotAPI, opts ...Option) *Store {
	s := &Store{
		api:      api,
		pageSize: DefaultPageSize,
		subs:     make(map[int]func([]models.Spot)),
		selSubs:  make(map[int]func(*models.Spot)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FetchSpots reloads the collection for the current filters.
// Failures are logged and kept in LastError; the previous collection stays.
func (s *Store) FetchSpots(ctx context.Context) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.issued++
	seq := s.issued
	s.inFlight++
	query := s.filters.QueryFor(s.pageSize)
	s.mu.Unlock()

	page, err := s.api.ListSpots(ctx, query)

	s.mu.Lock()
	s.inFlight--
	if s.closed {
		s.mu.Unlock()
		return
	}
	changed := false
	switch {
	case seq < s.applied:
		log.Printf("[SpotStore] dropping stale response #%d (already applied #%d)", seq, s.applied)
	case err != nil:
		log.Printf("[SpotStore] failed to fetch spots: %v", err)
		s.lastErr = err
	default:
		s.applied = seq
		s.spots = append([]models.Spot(nil), page.Items...)
		s.lastErr = nil
		s.refreshSelectionLocked()
		changed = true
	}
	snapshot := s.copyLocked()
	s.mu.Unlock()

	if changed {
		s.notify(snapshot)
	}
}

// SelectSpot sets the selected spot; nil clears it.
// Only selection subscribers are notified, the collection is unchanged.
func (s *Store) SelectSpot(spot *models.Spot) {
	s.mu.Lock()
	if spot == nil {
		s.selected = nil
	} else {
		cp := *spot
		s.selected = &cp
	}
	fns := make([]func(*models.Spot), 0, len(s.selSubs))
	for _, fn := range s.selSubs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		var cp *models.Spot
		if spot != nil {
			c := *spot
			cp = &c
		}
		fn(cp)
	}
}

// FilterOption changes one field of the filter state
type FilterOption func(*models.FilterState)

// WithCategory restricts the listing to one category
func WithCategory(c models.Category) FilterOption {
	return func(f *models.FilterState) { f.Category = &c }
}

// AnyCategory clears the category filter
func AnyCategory() FilterOption {
	return func(f *models.FilterState) { f.Category = nil }
}

// WithMinRating restricts the listing to spots rated at least r
func WithMinRating(r float64) FilterOption {
	return func(f *models.FilterState) { f.MinRating = &r }
}

// AnyRating clears the rating filter
func AnyRating() FilterOption {
	return func(f *models.FilterState) { f.MinRating = nil }
}

// SetFilters merges opts into the filter state and refetches
func (s *Store) SetFilters(ctx context.Context, opts ...FilterOption) {
	s.mu.Lock()
	next := s.filters
	for _, opt := range opts {
		opt(&next)
	}
	s.filters = next
	s.mu.Unlock()

	s.FetchSpots(ctx)
}

// CreateSpot submits a new spot, uploads its images and refetches.
// The first upload becomes primary unless one is flagged explicitly.
func (s *Store) CreateSpot(ctx context.Context, in models.SpotInput, uploads ...ImageUpload) (*models.Spot, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	spot, err := s.api.CreateSpot(ctx, in)
	if err != nil {
		return nil, err
	}

	flagged := false
	for _, u := range uploads {
		flagged = flagged || u.Primary
	}
	for i, u := range uploads {
		primary := u.Primary || (!flagged && i == 0)
		if err := s.api.UploadImage(ctx, spot.ID, u.Filename, u.Content, primary); err != nil {
			s.FetchSpots(ctx)
			return spot, fmt.Errorf("spot %d created but image %q failed: %w", spot.ID, u.Filename, err)
		}
	}

	s.FetchSpots(ctx)
	return spot, nil
}

// UpdateSpot applies patch and refetches
func (s *Store) UpdateSpot(ctx context.Context, id int64, patch models.SpotPatch) (*models.Spot, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	spot, err := s.api.UpdateSpot(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	s.FetchSpots(ctx)
	return spot, nil
}

// DeleteSpot removes a spot, clearing the selection if it pointed at it
func (s *Store) DeleteSpot(ctx context.Context, id int64) error {
	if err := s.api.DeleteSpot(ctx, id); err != nil {
		return err
	}

	s.mu.Lock()
	if s.selected != nil && s.selected.ID == id {
		s.selected = nil
	}
	s.mu.Unlock()

	s.FetchSpots(ctx)
	return nil
}

// GetSpot loads a single spot from the service
func (s *Store) GetSpot(ctx context.Context, id int64) (*models.Spot, error) {
	return s.api.GetSpot(ctx, id)
}

// Spots returns a copy of the collection
func (s *Store) Spots() []models.Spot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.copyLocked()
}

// SpotByID looks a spot up in the collection
func (s *Store) SpotByID(id int64) (*models.Spot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.spots {
		if s.spots[i].ID == id {
			cp := s.spots[i]
			return &cp, true
		}
	}
	return nil, false
}

// Selected returns the selected spot or nil
func (s *Store) Selected() *models.Spot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.selected == nil {
		return nil
	}
	cp := *s.selected
	return &cp
}

// Filters returns the current filter state
func (s *Store) Filters() models.FilterState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filters
}

// Loading reports whether any fetch is in flight
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.inFlight > 0
}

// LastError returns the error of the last failed fetch, nil after a success
func (s *Store) LastError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// Subscribe registers fn for collection changes
func (s *Store) Subscribe(fn func([]models.Spot)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSubID
	s.nextSubID++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

// SubscribeSelection registers fn for selection changes; fn gets nil when
// the selection is cleared
func (s *Store) SubscribeSelection(fn func(*models.Spot)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSubID
	s.nextSubID++
	s.selSubs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.selSubs, id)
	}
}

// Close stops the store; fetches completing afterwards are dropped
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.subs = make(map[int]func([]models.Spot))
	s.selSubs = make(map[int]func(*models.Spot))
}

// refreshSelectionLocked keeps the selection pointing at the latest copy
// of the same spot. A selection missing from a filtered page is kept.
func (s *Store) refreshSelectionLocked() {
	if s.selected == nil {
		return
	}
	for i := range s.spots {
		if s.spots[i].ID == s.selected.ID {
			cp := s.spots[i]
			s.selected = &cp
			return
		}
	}
}

func (s *Store) copyLocked() []models.Spot {
	return append([]models.Spot(nil), s.spots...)
}

func (s *Store) notify(spots []models.Spot) {
	s.mu.RLock()
	fns := make([]func([]models.Spot), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.RUnlock()

	for _, fn := range fns {
		fn(spots)
	}
}
