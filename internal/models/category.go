package models

import "fmt"

// Category is the closed set of spot kinds.
type Category string

const (
	CategoryCafe       Category = "cafe"
	CategoryRestaurant Category = "restaurant"
	CategoryBar        Category = "bar"
	CategoryPark       Category = "park"
	CategoryMuseum     Category = "museum"
	CategoryShop       Category = "shop"
	CategoryOther      Category = "other"
)

// CategoryInfo carries the display label and map colour of a category.
type CategoryInfo struct {
	Value Category
	Label string
	Color string
}

// Categories lists every category in display order.
var Categories = []CategoryInfo{
	{Value: CategoryCafe, Label: "Cafe", Color: "#22C55E"},
	{Value: CategoryRestaurant, Label: "Restaurant", Color: "#F97316"},
	{Value: CategoryBar, Label: "Bar", Color: "#A855F7"},
	{Value: CategoryPark, Label: "Park", Color: "#14B8A6"},
	{Value: CategoryMuseum, Label: "Museum", Color: "#3B82F6"},
	{Value: CategoryShop, Label: "Shop", Color: "#EC4899"},
	{Value: CategoryOther, Label: "Other", Color: "#6B7280"},
}

// FallbackColor is used for categories outside the closed set.
const FallbackColor = "#6B7280"

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	for _, info := range Categories {
		if info.Value == c {
			return true
		}
	}
	return false
}

// Color returns the map colour of the category.
func (c Category) Color() string {
	for _, info := range Categories {
		if info.Value == c {
			return info.Color
		}
	}
	return FallbackColor
}

// Label returns the human readable name of the category.
func (c Category) Label() string {
	for _, info := range Categories {
		if info.Value == c {
			return info.Label
		}
	}
	return string(c)
}

// ParseCategory converts user input into a Category.
func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if !c.Valid() {
		return "", fmt.Errorf("unknown category %q", s)
	}
	return c, nil
}
