package models

import (
	"errors"
	"fmt"
)

// Spot is a user-submitted point of interest
type Spot struct {
	ID          int64    `json:"id"`
	Title       string   `json:"title"`
	Description *string  `json:"description"`
	Category    Category `json:"category"`
	Rating      *float64 `json:"rating"`
	Latitude    float64  `json:"latitude"`
	Longitude   float64  `json:"longitude"`
	Address     *string  `json:"address"`
	Best        *string  `json:"best"`
	BestTime    *string  `json:"best_time"`
	PriceLevel  *int     `json:"price_level"`
	UserID      int64    `json:"user_id"`
	User        User     `json:"user"`
	Images      []Image  `json:"images"`

	// Metadata
	CreatedAt string  `json:"created_at"`
	UpdatedAt *string `json:"updated_at"`
}

// Image is a picture attached to a spot
type Image struct {
	ID        int64  `json:"id"`
	URL       string `json:"url"`
	IsPrimary bool   `json:"is_primary"`
	SpotID    int64  `json:"spot_id"`
	CreatedAt string `json:"created_at"`
}

// SpotPage is one page of the spot listing
type SpotPage struct {
	Items []Spot `json:"items"`
	Total int64  `json:"total"`
	Page  int    `json:"page"`
	Size  int    `json:"size"`
	Pages int    `json:"pages"`
}

// SpotInput is the body of a create request
type SpotInput struct {
	Title       string   `json:"title"`
	Description *string  `json:"description,omitempty"`
	Category    Category `json:"category"`
	Rating      *float64 `json:"rating,omitempty"`
	Latitude    float64  `json:"latitude"`
	Longitude   float64  `json:"longitude"`
	Address     *string  `json:"address,omitempty"`
	Best        *string  `json:"best,omitempty"`
	BestTime    *string  `json:"best_time,omitempty"`
	PriceLevel  *int     `json:"price_level,omitempty"`
}

// SpotPatch is the body of a partial update; nil fields are left untouched
type SpotPatch struct {
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	Category    *Category `json:"category,omitempty"`
	Rating      *float64  `json:"rating,omitempty"`
	Latitude    *float64  `json:"latitude,omitempty"`
	Longitude   *float64  `json:"longitude,omitempty"`
	Address     *string   `json:"address,omitempty"`
	Best        *string   `json:"best,omitempty"`
	BestTime    *string   `json:"best_time,omitempty"`
	PriceLevel  *int      `json:"price_level,omitempty"`
}

var (
	ErrInvalidCoordinate = errors.New("coordinate out of range")
	ErrInvalidPrice      = errors.New("price level must be between 1 and 4")
	ErrInvalidRating     = errors.New("rating must be between 0 and 5")
	ErrInvalidCategory   = errors.New("unknown category")
	ErrMissingTitle      = errors.New("title is required")
)

// PrimaryImage returns the first image flagged primary, falling back to the
// first image in the list. Nil when the spot has no images.
func (s *Spot) PrimaryImage() *Image {
	for i := range s.Images {
		if s.Images[i].IsPrimary {
			return &s.Images[i]
		}
	}
	if len(s.Images) > 0 {
		return &s.Images[0]
	}
	return nil
}

// Initial is the single-letter fallback shown when a spot has no image.
func (s *Spot) Initial() string {
	for _, r := range s.Title {
		return string(r)
	}
	return "?"
}

// Validate checks the spot invariants
func (s *Spot) Validate() error {
	return validateFields(s.Title, s.Category, s.Latitude, s.Longitude, s.PriceLevel, s.Rating)
}

// Validate checks the create body before it is sent
func (in *SpotInput) Validate() error {
	return validateFields(in.Title, in.Category, in.Latitude, in.Longitude, in.PriceLevel, in.Rating)
}

// Validate checks only the fields present in the patch
func (p *SpotPatch) Validate() error {
	if p.Title != nil && *p.Title == "" {
		return ErrMissingTitle
	}
	if p.Category != nil && !p.Category.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidCategory, *p.Category)
	}
	if p.Latitude != nil && (*p.Latitude < -90 || *p.Latitude > 90) {
		return fmt.Errorf("%w: latitude %v", ErrInvalidCoordinate, *p.Latitude)
	}
	if p.Longitude != nil && (*p.Longitude < -180 || *p.Longitude > 180) {
		return fmt.Errorf("%w: longitude %v", ErrInvalidCoordinate, *p.Longitude)
	}
	return validateOptional(p.PriceLevel, p.Rating)
}

func validateFields(title string, category Category, lat, lon float64, price *int, rating *float64) error {
	if title == "" {
		return ErrMissingTitle
	}
	if !category.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidCategory, category)
	}
	if !ValidCoordinate(lat, lon) {
		return fmt.Errorf("%w: (%v, %v)", ErrInvalidCoordinate, lat, lon)
	}
	return validateOptional(price, rating)
}

func validateOptional(price *int, rating *float64) error {
	if price != nil && (*price < 1 || *price > 4) {
		return fmt.Errorf("%w: %d", ErrInvalidPrice, *price)
	}
	if rating != nil && (*rating < 0 || *rating > 5) {
		return fmt.Errorf("%w: %v", ErrInvalidRating, *rating)
	}
	return nil
}

// ValidCoordinate reports whether lat/lon lie within [-90,90] x [-180,180]
func ValidCoordinate(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}
