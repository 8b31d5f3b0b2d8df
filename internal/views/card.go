// Package views builds the display models of the presentation shell and
// renders them as text.
package views

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/jengzang/spotmap-go/internal/models"
)

const (
	starCount  = 5
	priceCount = 4
)

// Glyph is one star or price sign; inactive glyphs are drawn dimmed
type Glyph struct {
	Symbol string
	Active bool
}

// SpotCard is the detail card of the selected spot
type SpotCard struct {
	Title         string
	Category      models.Category
	CategoryColor string
	ImageURL      string
	Letter        string
	Stars         []Glyph // nil when unrated
	Description   string
	Best          string
	BestTime      string
	Price         []Glyph // nil when unpriced
}

// NewSpotCard builds the card of s
func NewSpotCard(s *models.Spot) SpotCard {
	card := SpotCard{
		Title:         s.Title,
		Category:      s.Category,
		CategoryColor: s.Category.Color(),
		Letter:        s.Initial(),
		Description:   deref(s.Description),
		Best:          deref(s.Best),
		BestTime:      deref(s.BestTime),
	}
	if img := s.PrimaryImage(); img != nil {
		card.ImageURL = img.URL
	}

	if s.Rating != nil && *s.Rating > 0 {
		filled := int(math.Floor(*s.Rating))
		card.Stars = glyphs("★", starCount, filled)
	}
	if s.PriceLevel != nil && *s.PriceLevel > 0 {
		card.Price = glyphs("$", priceCount, *s.PriceLevel)
	}
	return card
}

func glyphs(symbol string, total, active int) []Glyph {
	out := make([]Glyph, total)
	for i := range out {
		out[i] = Glyph{Symbol: symbol, Active: i < active}
	}
	return out
}

// ActiveCount returns how many glyphs are active
func ActiveCount(gs []Glyph) int {
	n := 0
	for _, g := range gs {
		if g.Active {
			n++
		}
	}
	return n
}

// HasDetails reports whether the best / best time / price section is shown
func (c SpotCard) HasDetails() bool {
	return c.Best != "" || c.BestTime != "" || c.Price != nil
}

// Render writes the card as text
func (c SpotCard) Render(w io.Writer) error {
	var b strings.Builder

	if c.ImageURL != "" {
		fmt.Fprintf(&b, "[image %s]\n", c.ImageURL)
	} else {
		fmt.Fprintf(&b, "[ %s ] %s\n", c.Letter, c.CategoryColor)
	}
	fmt.Fprintf(&b, "%s (%s)", c.Title, strings.ToUpper(string(c.Category)))
	if c.Stars != nil {
		b.WriteString("  " + renderGlyphs(c.Stars, "☆"))
	}
	b.WriteString("\n")

	if c.Description != "" {
		b.WriteString(c.Description + "\n")
	}
	if c.HasDetails() {
		b.WriteString(strings.Repeat("-", 32) + "\n")
		if c.Best != "" {
			fmt.Fprintf(&b, "Best: %s\n", c.Best)
		}
		if c.BestTime != "" {
			fmt.Fprintf(&b, "Best time: %s\n", c.BestTime)
		}
		if c.Price != nil {
			fmt.Fprintf(&b, "Price: %s\n", renderGlyphs(c.Price, "·"))
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func renderGlyphs(gs []Glyph, inactive string) string {
	var b strings.Builder
	for _, g := range gs {
		if g.Active {
			b.WriteString(g.Symbol)
		} else {
			b.WriteString(inactive)
		}
	}
	return b.String()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
