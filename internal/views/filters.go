package views

import (
	"github.com/jengzang/spotmap-go/internal/models"
	"github.com/jengzang/spotmap-go/internal/spots"
)

// RatingThreshold is the minimum rating applied by the rating chip
const RatingThreshold = 4.0

// Chip is one filter button
type Chip struct {
	Label  string
	Color  string
	Active bool
	// Apply is the filter change a click on the chip makes
	Apply []spots.FilterOption
}

// FilterBar returns the chips for the current filter state: "All", one per
// category and the rating toggle, in that order.
func FilterBar(f models.FilterState) []Chip {
	chips := make([]Chip, 0, len(models.Categories)+2)
	chips = append(chips, Chip{
		Label:  "All",
		Active: f.Category == nil,
		Apply:  []spots.FilterOption{spots.AnyCategory()},
	})
	for _, c := range models.Categories {
		chips = append(chips, Chip{
			Label:  c.Label,
			Color:  c.Color,
			Active: f.Category != nil && *f.Category == c.Value,
			Apply:  []spots.FilterOption{spots.WithCategory(c.Value)},
		})
	}
	chips = append(chips, Chip{
		Label:  "4+",
		Active: ratingActive(f),
		Apply:  []spots.FilterOption{ToggleRating(f)},
	})
	return chips
}

// ToggleRating switches the rating filter between the threshold and none
func ToggleRating(f models.FilterState) spots.FilterOption {
	if ratingActive(f) {
		return spots.AnyRating()
	}
	return spots.WithMinRating(RatingThreshold)
}

func ratingActive(f models.FilterState) bool {
	return f.MinRating != nil && *f.MinRating == RatingThreshold
}
