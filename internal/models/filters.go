package models

import (
	"net/url"
	"strconv"
)

// FilterState is the user's current listing filter. Nil fields mean "no filter".
type FilterState struct {
	Category  *Category
	MinRating *float64
}

// SpotQuery represents the query parameters of GET /spots
type SpotQuery struct {
	Page      int
	Size      int
	Category  *Category
	MinRating *float64
}

// QueryFor builds the listing query for a filter state and page size.
func (f FilterState) QueryFor(size int) SpotQuery {
	return SpotQuery{
		Page:      1,
		Size:      size,
		Category:  f.Category,
		MinRating: f.MinRating,
	}
}

// Values encodes the query, omitting absent optional parameters.
func (q SpotQuery) Values() url.Values {
	v := url.Values{}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.Size > 0 {
		v.Set("size", strconv.Itoa(q.Size))
	}
	if q.Category != nil {
		v.Set("category", string(*q.Category))
	}
	if q.MinRating != nil {
		v.Set("min_rating", strconv.FormatFloat(*q.MinRating, 'f', -1, 64))
	}
	return v
}
