// Package mapview keeps the map's spot markers in step with the clustered
// spot collection and the viewport.
package mapview

import (
	"github.com/golang/geo/r2"

	"github.com/jengzang/spotmap-go/internal/cluster"
	"github.com/jengzang/spotmap-go/internal/models"
	"github.com/jengzang/spotmap-go/internal/spatial"
)

// Viewport is the visible part of the map
type Viewport struct {
	Center spatial.Point
	Zoom   float64
	Width  int
	Height int
}

// Rect returns the world-space rectangle the viewport covers
func (v Viewport) Rect() r2.Rect {
	return spatial.ViewRect(v.Center, v.Zoom, v.Width, v.Height)
}

// Bounds returns the geographic bounds of the viewport
func (v Viewport) Bounds() spatial.Bounds {
	return spatial.RectBounds(v.Rect())
}

// EventListener receives rendering surface events
type EventListener interface {
	// OnLoad fires once when the surface finished initializing
	OnLoad()
	// OnViewportSettle fires after every pan, zoom or style change
	OnViewportSettle()
}

// Engine is the rendering surface
type Engine interface {
	Viewport() Viewport
	EaseTo(center spatial.Point, zoom float64)
	Subscribe(l EventListener) (detach func())
	Remove() error
}

// Source is the clustered point source attached to the surface
type Source interface {
	SetData(points []cluster.Point)
	RenderedFeatures(v Viewport) ([]cluster.Feature, error)
	ExpansionZoom(clusterID int64) (int, error)
}

// Marker is an opaque handle to one marker element
type Marker interface {
	SetHover(hover bool)
	Remove()
}

// Appearance is the visual identity of a marker: a circle tinted by the
// category colour showing the primary image, or the title initial without one.
type Appearance struct {
	Color    string
	ImageURL string
	Letter   string
}

// MarkerSpec describes a marker to create
type MarkerSpec struct {
	SpotID     int64
	Title      string
	Position   spatial.Point
	Appearance Appearance

	OnClick func()
	OnHover func(hover bool)
}

// MarkerLayer creates marker handles
type MarkerLayer interface {
	Create(spec MarkerSpec) (Marker, error)
}

// SpotFeed is the upstream spot collection
type SpotFeed interface {
	Spots() []models.Spot
	SpotByID(id int64) (*models.Spot, bool)
	SelectSpot(spot *models.Spot)
	Subscribe(fn func([]models.Spot)) (cancel func())
}

// AppearanceFor builds the marker appearance of a spot
func AppearanceFor(s *models.Spot) Appearance {
	a := Appearance{
		Color:  s.Category.Color(),
		Letter: s.Initial(),
	}
	if img := s.PrimaryImage(); img != nil {
		a.ImageURL = img.URL
	}
	return a
}

// ClusterSource is a Source backed by an in-process cluster index
type ClusterSource struct {
	index *cluster.Index
}

// NewClusterSource creates an empty source
func NewClusterSource(opts cluster.Options) *ClusterSource {
	return &ClusterSource{index: cluster.NewIndex(opts)}
}

func (s *ClusterSource) SetData(points []cluster.Point) {
	s.index.Load(points)
}

func (s *ClusterSource) RenderedFeatures(v Viewport) ([]cluster.Feature, error) {
	return s.index.Features(v.Rect(), v.Zoom), nil
}

func (s *ClusterSource) ExpansionZoom(clusterID int64) (int, error) {
	return s.index.ExpansionZoom(clusterID)
}

func toPoints(spots []models.Spot) []cluster.Point {
	points := make([]cluster.Point, 0, len(spots))
	for _, s := range spots {
		points = append(points, cluster.Point{
			SpotID:   s.ID,
			Title:    s.Title,
			Category: s.Category,
			Position: spatial.Point{Lat: s.Latitude, Lon: s.Longitude},
		})
	}
	return points
}
