package stats

import (
	"github.com/jengzang/spotmap-go/internal/models"
)

// CategoryCount is the number of spots of one category
type CategoryCount struct {
	Category models.Category
	Label    string
	Count    int
}

// Summary describes a loaded spot collection
type Summary struct {
	Total        int
	Rated        int
	MeanRating   float64
	MedianRating float64
	ByCategory   []CategoryCount
	// Diversity is 0 when all spots share a category and 1 when they are
	// spread evenly over every category.
	Diversity float64
}

// Summarize computes the collection summary. Categories with no spots are
// left out of ByCategory, which follows models.Categories order.
func Summarize(spots []models.Spot) Summary {
	s := Summary{Total: len(spots)}

	counts := make(map[models.Category]int, len(models.Categories))
	var ratings []float64
	for _, spot := range spots {
		counts[spot.Category]++
		if spot.Rating != nil {
			ratings = append(ratings, *spot.Rating)
		}
	}

	s.Rated = len(ratings)
	s.MeanRating = Mean(ratings)
	s.MedianRating = Median(ratings)

	freq := make([]float64, 0, len(models.Categories))
	for _, info := range models.Categories {
		n := counts[info.Value]
		freq = append(freq, float64(n))
		if n > 0 {
			s.ByCategory = append(s.ByCategory, CategoryCount{Category: info.Value, Label: info.Label, Count: n})
		}
	}
	s.Diversity = NormalizedEntropy(freq, len(models.Categories))
	return s
}
