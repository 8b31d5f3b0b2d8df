package mapview

import (
	"errors"
	"log"
	"sync"

	"github.com/jengzang/spotmap-go/internal/spatial"
)

// ErrEngineRemoved is returned when a removed engine is removed again
var ErrEngineRemoved = errors.New("map engine already removed")

// HeadlessEngine is an in-memory rendering surface. It keeps the viewport
// state and emits load and settle events without drawing anything.
type HeadlessEngine struct {
	mu        sync.Mutex
	viewport  Viewport
	listeners map[int]EventListener
	nextID    int
	loaded    bool
	removed   bool
}

// NewHeadlessEngine creates an engine showing vp.
// An empty access token only degrades tile loading, so it is logged and accepted.
func NewHeadlessEngine(accessToken string, vp Viewport) *HeadlessEngine {
	if accessToken == "" {
		log.Printf("[MapEngine] no map access token configured, base tiles will not load")
	}
	return &HeadlessEngine{
		viewport:  vp,
		listeners: make(map[int]EventListener),
	}
}

// Viewport returns the current viewport
func (e *HeadlessEngine) Viewport() Viewport {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.viewport
}

// Subscribe registers l for load and settle events
func (e *HeadlessEngine) Subscribe(l EventListener) func() {
	e.mu.Lock()
	defer e.mu.Unlock()
	id := e.nextID
	e.nextID++
	e.listeners[id] = l
	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		delete(e.listeners, id)
	}
}

// Load finishes initialization: OnLoad fires once, followed by a settle
func (e *HeadlessEngine) Load() {
	e.mu.Lock()
	if e.loaded || e.removed {
		e.mu.Unlock()
		return
	}
	e.loaded = true
	ls := e.listenersLocked()
	e.mu.Unlock()

	for _, l := range ls {
		l.OnLoad()
	}
	for _, l := range ls {
		l.OnViewportSettle()
	}
}

// Loaded reports whether Load has run
func (e *HeadlessEngine) Loaded() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loaded
}

// JumpTo moves the viewport and emits a settle
func (e *HeadlessEngine) JumpTo(center spatial.Point, zoom float64) {
	e.mu.Lock()
	if e.removed {
		e.mu.Unlock()
		return
	}
	e.viewport.Center = center
	e.viewport.Zoom = zoom
	var ls []EventListener
	if e.loaded {
		ls = e.listenersLocked()
	}
	e.mu.Unlock()

	for _, l := range ls {
		l.OnViewportSettle()
	}
}

// EaseTo implements Engine. There is no animation, the move settles at once.
func (e *HeadlessEngine) EaseTo(center spatial.Point, zoom float64) {
	e.JumpTo(center, zoom)
}

// Resize changes the viewport size and emits a settle
func (e *HeadlessEngine) Resize(width, height int) {
	e.mu.Lock()
	e.viewport.Width = width
	e.viewport.Height = height
	center, zoom := e.viewport.Center, e.viewport.Zoom
	e.mu.Unlock()

	e.JumpTo(center, zoom)
}

// Remove releases the surface and drops every listener
func (e *HeadlessEngine) Remove() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.removed {
		return ErrEngineRemoved
	}
	e.removed = true
	e.listeners = make(map[int]EventListener)
	return nil
}

func (e *HeadlessEngine) listenersLocked() []EventListener {
	ls := make([]EventListener, 0, len(e.listeners))
	for i := 0; i < e.nextID; i++ {
		if l, ok := e.listeners[i]; ok {
			ls = append(ls, l)
		}
	}
	return ls
}

// LogLayer is a MarkerLayer that logs the marker lifecycle
type LogLayer struct{}

func (LogLayer) Create(spec MarkerSpec) (Marker, error) {
	image := spec.Appearance.ImageURL
	if image == "" {
		image = "letter " + spec.Appearance.Letter
	}
	log.Printf("[Marker] + spot %d %q at (%.5f, %.5f) %s %s",
		spec.SpotID, spec.Title, spec.Position.Lat, spec.Position.Lon, spec.Appearance.Color, image)
	return &logMarker{id: spec.SpotID}, nil
}

type logMarker struct {
	id int64
}

func (m *logMarker) SetHover(hover bool) {
	scale := 1.0
	if hover {
		scale = 1.1
	}
	log.Printf("[Marker] spot %d scale %.1f", m.id, scale)
}

func (m *logMarker) Remove() {
	log.Printf("[Marker] - spot %d", m.id)
}
