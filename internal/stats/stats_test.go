package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jengzang/spotmap-go/internal/models"
)

func rated(c models.Category, r float64) models.Spot {
	return models.Spot{Category: c, Rating: &r}
}

func TestMeanMedian(t *testing.T) {
	assert.Equal(t, 0.0, Mean(nil))
	assert.Equal(t, 0.0, Median(nil))
	assert.Equal(t, 2.5, Mean([]float64{1, 2, 3, 4}))

	values := []float64{5, 1, 3}
	assert.Equal(t, 3.0, Median(values))
	assert.Equal(t, []float64{5, 1, 3}, values)
	assert.Equal(t, 2.5, Median([]float64{4, 1, 2, 3}))
}

func TestEntropy(t *testing.T) {
	assert.Equal(t, 0.0, ShannonEntropy([]float64{0, 0}))
	assert.Equal(t, 0.0, ShannonEntropy([]float64{7, 0, 0}))
	assert.InDelta(t, 1.0, ShannonEntropy([]float64{3, 3}), 1e-12)
	assert.InDelta(t, 1.0, NormalizedEntropy([]float64{2, 2, 2, 2}, 4), 1e-12)
	assert.InDelta(t, 0.5, NormalizedEntropy([]float64{1, 1, 0, 0}, 4), 1e-12)
	assert.Equal(t, 0.0, NormalizedEntropy([]float64{1}, 1))
}

func TestSummarize(t *testing.T) {
	spots := []models.Spot{
		rated(models.CategoryCafe, 4),
		rated(models.CategoryCafe, 5),
		{Category: models.CategoryBar},
		rated(models.CategoryPark, 3),
	}

	s := Summarize(spots)
	assert.Equal(t, 4, s.Total)
	assert.Equal(t, 3, s.Rated)
	assert.Equal(t, 4.0, s.MeanRating)
	assert.Equal(t, 4.0, s.MedianRating)
	assert.Equal(t, []CategoryCount{
		{Category: models.CategoryCafe, Label: "Cafe", Count: 2},
		{Category: models.CategoryBar, Label: "Bar", Count: 1},
		{Category: models.CategoryPark, Label: "Park", Count: 1},
	}, s.ByCategory)

	// 1.5 bits over log2(7) possible categories
	assert.InDelta(t, 1.5/math.Log2(7), s.Diversity, 1e-12)
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil)
	assert.Equal(t, 0, s.Total)
	assert.Empty(t, s.ByCategory)
	assert.Equal(t, 0.0, s.Diversity)
}
