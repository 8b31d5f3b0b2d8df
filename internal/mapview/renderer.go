package mapview

import (
	"log"
	"slices"
	"sort"
	"sync"

	"github.com/jengzang/spotmap-go/internal/cluster"
	"github.com/jengzang/spotmap-go/internal/models"
	"github.com/jengzang/spotmap-go/internal/spatial"
)

// DefaultExpansionZoom is where a cluster click lands when the split zoom is unknown
const DefaultExpansionZoom = 15

// Options configures a Renderer
type Options struct {
	Cluster              cluster.Options
	DefaultExpansionZoom float64
	// Source overrides the in-process cluster source
	Source Source
}

// Diff reports what one reconciliation changed
type Diff struct {
	Created int
	Removed int
}

// Renderer keeps exactly one marker per rendered, non-clustered spot.
type Renderer struct {
	engine Engine
	layer  MarkerLayer
	feed   SpotFeed
	source Source

	defaultZoom float64

	mu          sync.Mutex
	loaded      bool
	closed      bool
	delivered   bool
	pending     []models.Spot
	points      []cluster.Point
	markers     map[int64]liveMarker
	detach      func()
	unsubscribe func()
}

// liveMarker remembers what a marker was drawn with
type liveMarker struct {
	marker   Marker
	title    string
	position spatial.Point
	look     Appearance
}

// New mounts a renderer on engine. The source is attached once the engine
// reports OnLoad; spot updates before that are applied then.
func New(engine Engine, layer MarkerLayer, feed SpotFeed, opts Options) *Renderer {
	source := opts.Source
	if source == nil {
		source = NewClusterSource(opts.Cluster)
	}
	if opts.DefaultExpansionZoom <= 0 {
		opts.DefaultExpansionZoom = DefaultExpansionZoom
	}

	r := &Renderer{
		engine:      engine,
		layer:       layer,
		feed:        feed,
		source:      source,
		defaultZoom: opts.DefaultExpansionZoom,
		markers:     make(map[int64]liveMarker),
	}
	r.unsubscribe = feed.Subscribe(r.onSpots)

	// anything published from here on reaches onSpots
	seed := feed.Spots()
	r.mu.Lock()
	if !r.delivered {
		r.pending = seed
	}
	r.mu.Unlock()

	r.detach = engine.Subscribe(r)
	return r
}

// OnLoad implements EventListener
func (r *Renderer) OnLoad() {
	r.mu.Lock()
	if r.closed || r.loaded {
		r.mu.Unlock()
		return
	}
	r.loaded = true
	r.points = toPoints(r.pending)
	r.source.SetData(r.points)
	r.pending = nil
	r.mu.Unlock()

	r.Reconcile()
}

// OnViewportSettle implements EventListener
func (r *Renderer) OnViewportSettle() {
	r.Reconcile()
}

func (r *Renderer) onSpots(spots []models.Spot) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.delivered = true
	if !r.loaded {
		r.pending = spots
		r.mu.Unlock()
		return
	}
	// the index is rebuilt only when the clustered data changed
	if points := toPoints(spots); !slices.Equal(points, r.points) {
		r.points = points
		r.source.SetData(points)
	}
	r.mu.Unlock()

	r.Reconcile()
}

// Reconcile diffs the live markers against the rendered singleton features.
// Markers are created for new ids and removed for ids no longer rendered.
// A kept id is redrawn only when its title, position or appearance changed.
func (r *Renderer) Reconcile() Diff {
	r.mu.Lock()
	defer r.mu.Unlock()

	var diff Diff
	if r.closed || !r.loaded {
		return diff
	}

	features, err := r.source.RenderedFeatures(r.engine.Viewport())
	if err != nil {
		log.Printf("[MapRenderer] failed to query rendered features: %v", err)
		return diff
	}

	required := make(map[int64]struct{}, len(features))
	for _, f := range features {
		if !f.Cluster {
			required[f.SpotID] = struct{}{}
		}
	}

	for id := range required {
		spot, ok := r.feed.SpotByID(id)
		if !ok {
			continue
		}
		spec := r.specFor(spot)
		if live, ok := r.markers[id]; ok {
			if live.title == spec.Title && live.position == spec.Position && live.look == spec.Appearance {
				continue
			}
			live.marker.Remove()
			delete(r.markers, id)
			diff.Removed++
		}
		marker, err := r.layer.Create(spec)
		if err != nil {
			continue
		}
		r.markers[id] = liveMarker{marker: marker, title: spec.Title, position: spec.Position, look: spec.Appearance}
		diff.Created++
	}

	for id, live := range r.markers {
		if _, ok := required[id]; ok {
			continue
		}
		live.marker.Remove()
		delete(r.markers, id)
		diff.Removed++
	}

	return diff
}

func (r *Renderer) specFor(spot *models.Spot) MarkerSpec {
	id := spot.ID
	return MarkerSpec{
		SpotID:     id,
		Title:      spot.Title,
		Position:   spatial.Point{Lat: spot.Latitude, Lon: spot.Longitude},
		Appearance: AppearanceFor(spot),
		OnClick:    func() { r.ClickMarker(id) },
		OnHover:    func(hover bool) { r.HoverMarker(id, hover) },
	}
}

// ClickCluster eases the viewport to the zoom where the cluster splits,
// centered on it. Falls back to the default zoom when that is unknown.
func (r *Renderer) ClickCluster(clusterID int64, center spatial.Point) {
	r.mu.Lock()
	closed := r.closed
	r.mu.Unlock()
	if closed {
		return
	}

	zoom := r.defaultZoom
	if z, err := r.source.ExpansionZoom(clusterID); err != nil {
		log.Printf("[MapRenderer] expansion zoom for cluster %d: %v", clusterID, err)
	} else {
		zoom = float64(z)
	}
	r.engine.EaseTo(center, zoom)
}

// ClickMarker selects the spot behind a marker
func (r *Renderer) ClickMarker(spotID int64) {
	r.mu.Lock()
	_, live := r.markers[spotID]
	closed := r.closed
	r.mu.Unlock()
	if closed || !live {
		return
	}

	if spot, ok := r.feed.SpotByID(spotID); ok {
		r.feed.SelectSpot(spot)
	}
}

// HoverMarker toggles the hover state of a live marker
func (r *Renderer) HoverMarker(spotID int64, hover bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if live, ok := r.markers[spotID]; ok && !r.closed {
		live.marker.SetHover(hover)
	}
}

// LiveMarkerIDs returns the spot ids that currently have a marker, sorted
func (r *Renderer) LiveMarkerIDs() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]int64, 0, len(r.markers))
	for id := range r.markers {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// ClusterView returns every feature rendered for the current viewport
func (r *Renderer) ClusterView() []cluster.Feature {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed || !r.loaded {
		return nil
	}
	features, err := r.source.RenderedFeatures(r.engine.Viewport())
	if err != nil {
		return nil
	}
	return features
}

// Close destroys every marker, detaches from the engine and the feed and
// releases the engine. Events arriving afterwards are ignored.
func (r *Renderer) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	for id, live := range r.markers {
		live.marker.Remove()
		delete(r.markers, id)
	}
	r.mu.Unlock()

	r.detach()
	r.unsubscribe()
	return r.engine.Remove()
}
