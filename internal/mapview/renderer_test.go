package mapview

import (
	"context"
	"errors"
	"io"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jengzang/spotmap-go/internal/cluster"
	"github.com/jengzang/spotmap-go/internal/models"
	"github.com/jengzang/spotmap-go/internal/spatial"
	"github.com/jengzang/spotmap-go/internal/spots"
)

type fakeFeed struct {
	mu       sync.Mutex
	spots    []models.Spot
	selected *models.Spot
	subs     map[int]func([]models.Spot)
	nextID   int

	// beforeSubscribe runs once at the start of the next Subscribe call
	beforeSubscribe func()
}

func newFakeFeed(spots ...models.Spot) *fakeFeed {
	return &fakeFeed{spots: spots, subs: map[int]func([]models.Spot){}}
}

func (f *fakeFeed) Spots() []models.Spot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Spot(nil), f.spots...)
}

func (f *fakeFeed) SpotByID(id int64) (*models.Spot, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.spots {
		if s.ID == id {
			return &s, true
		}
	}
	return nil, false
}

func (f *fakeFeed) SelectSpot(s *models.Spot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.selected = s
}

func (f *fakeFeed) Subscribe(fn func([]models.Spot)) func() {
	if hook := f.beforeSubscribe; hook != nil {
		f.beforeSubscribe = nil
		hook()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.nextID
	f.nextID++
	f.subs[id] = fn
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.subs, id)
	}
}

func (f *fakeFeed) publish(spots ...models.Spot) {
	f.mu.Lock()
	f.spots = spots
	var fns []func([]models.Spot)
	for _, fn := range f.subs {
		fns = append(fns, fn)
	}
	f.mu.Unlock()
	for _, fn := range fns {
		fn(append([]models.Spot(nil), spots...))
	}
}

// listAPI serves a fixed collection to a real spots.Store
type listAPI struct {
	spots []models.Spot
}

func (a *listAPI) ListSpots(context.Context, models.SpotQuery) (*models.SpotPage, error) {
	items := append([]models.Spot(nil), a.spots...)
	return &models.SpotPage{Items: items, Total: int64(len(items)), Page: 1, Size: 100, Pages: 1}, nil
}

func (a *listAPI) GetSpot(context.Context, int64) (*models.Spot, error) {
	return nil, errors.New("not implemented")
}

func (a *listAPI) CreateSpot(context.Context, models.SpotInput) (*models.Spot, error) {
	return nil, errors.New("not implemented")
}

func (a *listAPI) UpdateSpot(context.Context, int64, models.SpotPatch) (*models.Spot, error) {
	return nil, errors.New("not implemented")
}

func (a *listAPI) DeleteSpot(context.Context, int64) error {
	return errors.New("not implemented")
}

func (a *listAPI) UploadImage(context.Context, int64, string, io.Reader, bool) error {
	return errors.New("not implemented")
}

type recordedMarker struct {
	spec    MarkerSpec
	hover   bool
	removed bool
}

func (m *recordedMarker) SetHover(h bool) { m.hover = h }
func (m *recordedMarker) Remove()         { m.removed = true }

type recordingLayer struct {
	created []*recordedMarker
	failFor map[int64]bool
}

func (l *recordingLayer) Create(spec MarkerSpec) (Marker, error) {
	if l.failFor[spec.SpotID] {
		return nil, errors.New("marker element unavailable")
	}
	m := &recordedMarker{spec: spec}
	l.created = append(l.created, m)
	return m, nil
}

func (l *recordingLayer) live() []*recordedMarker {
	var out []*recordedMarker
	for _, m := range l.created {
		if !m.removed {
			out = append(out, m)
		}
	}
	return out
}

// countingSource wraps a source and can be told to fail
type countingSource struct {
	Source
	setData int
	fail    error
	extra   []cluster.Feature
}

func (s *countingSource) SetData(points []cluster.Point) {
	s.setData++
	s.Source.SetData(points)
}

func (s *countingSource) RenderedFeatures(v Viewport) ([]cluster.Feature, error) {
	if s.fail != nil {
		return nil, s.fail
	}
	fs, err := s.Source.RenderedFeatures(v)
	return append(fs, s.extra...), err
}

var stockholm = spatial.Point{Lat: 59.3293, Lon: 18.0686}

func fixture() []models.Spot {
	return []models.Spot{
		{ID: 1, Title: "Espresso House", Category: models.CategoryCafe, Latitude: 59.3293, Longitude: 18.0686},
		{ID: 2, Title: "Akkurat", Category: models.CategoryBar, Latitude: 59.3293, Longitude: 18.0716,
			Images: []models.Image{{ID: 5, URL: "https://img/akkurat.jpg", IsPrimary: true}}},
		{ID: 3, Title: "Fotografiska", Category: models.CategoryMuseum, Latitude: 59.3400, Longitude: 18.1000},
	}
}

type harness struct {
	engine   *HeadlessEngine
	layer    *recordingLayer
	feed     *fakeFeed
	source   *countingSource
	renderer *Renderer
}

func newHarness(t *testing.T, spots ...models.Spot) *harness {
	t.Helper()
	h := &harness{
		engine: NewHeadlessEngine("pk.test", Viewport{Center: stockholm, Zoom: 12, Width: 1280, Height: 800}),
		layer:  &recordingLayer{failFor: map[int64]bool{}},
		feed:   newFakeFeed(spots...),
		source: &countingSource{Source: NewClusterSource(cluster.DefaultOptions())},
	}
	h.renderer = New(h.engine, h.layer, h.feed, Options{Source: h.source})
	return h
}

func singletonIDs(fs []cluster.Feature) []int64 {
	ids := []int64{}
	for _, f := range fs {
		if !f.Cluster {
			ids = append(ids, f.SpotID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func clusterFeature(t *testing.T, fs []cluster.Feature) cluster.Feature {
	t.Helper()
	for _, f := range fs {
		if f.Cluster {
			return f
		}
	}
	t.Fatal("no cluster rendered")
	return cluster.Feature{}
}

func TestDeferredUntilLoad(t *testing.T) {
	h := newHarness(t, fixture()[:1]...)

	h.feed.publish(fixture()...)
	assert.Empty(t, h.renderer.LiveMarkerIDs())
	assert.Equal(t, 0, h.source.setData)
	assert.Equal(t, Diff{}, h.renderer.Reconcile())

	h.engine.Load()
	assert.Equal(t, 1, h.source.setData)
	assert.Equal(t, []int64{3}, h.renderer.LiveMarkerIDs())
}

func TestMarkersMatchRenderedSingletons(t *testing.T) {
	h := newHarness(t, fixture()...)
	h.engine.Load()

	for _, zoom := range []float64{3, 10, 12, 13, 13.9, 14, 15, 18} {
		h.engine.JumpTo(stockholm, zoom)
		assert.Equal(t, singletonIDs(h.renderer.ClusterView()), h.renderer.LiveMarkerIDs(), "zoom %v", zoom)
	}

	h.engine.JumpTo(stockholm, 14)
	assert.Equal(t, []int64{1, 2}, h.renderer.LiveMarkerIDs())
	assert.Len(t, h.layer.live(), 2)
}

func TestReconcileIdempotent(t *testing.T) {
	h := newHarness(t, fixture()...)
	h.engine.Load()
	h.engine.JumpTo(stockholm, 14)

	created := len(h.layer.created)
	assert.Equal(t, Diff{}, h.renderer.Reconcile())
	assert.Equal(t, Diff{}, h.renderer.Reconcile())
	assert.Len(t, h.layer.created, created)
}

func TestSpotUpdateReplacesData(t *testing.T) {
	h := newHarness(t, fixture()...)
	h.engine.Load()
	h.engine.JumpTo(stockholm, 14)
	require.Equal(t, []int64{1, 2}, h.renderer.LiveMarkerIDs())

	h.feed.publish(fixture()[0])
	assert.Equal(t, []int64{1}, h.renderer.LiveMarkerIDs())
	live := h.layer.live()
	require.Len(t, live, 1)
	assert.Equal(t, int64(1), live[0].spec.SpotID)
	assert.Equal(t, 2, h.source.setData)
}

func TestStaleAndFailingMarkersSkipped(t *testing.T) {
	h := newHarness(t, fixture()...)
	h.source.extra = []cluster.Feature{{SpotID: 404, Title: "gone", PointCount: 1}}
	h.layer.failFor[2] = true

	h.engine.Load()
	h.engine.JumpTo(stockholm, 14)
	assert.Equal(t, []int64{1}, h.renderer.LiveMarkerIDs())

	h.layer.failFor[2] = false
	assert.Equal(t, Diff{Created: 1}, h.renderer.Reconcile())
}

func TestRenderedFeaturesErrorKeepsMarkers(t *testing.T) {
	h := newHarness(t, fixture()...)
	h.engine.Load()
	h.engine.JumpTo(stockholm, 14)

	h.source.fail = errors.New("style not ready")
	h.engine.JumpTo(stockholm, 3)
	assert.Equal(t, []int64{1, 2}, h.renderer.LiveMarkerIDs())
}

func TestClickClusterEasesToExpansionZoom(t *testing.T) {
	h := newHarness(t, fixture()...)
	h.engine.Load()

	c := clusterFeature(t, h.renderer.ClusterView())
	h.renderer.ClickCluster(c.ClusterID, c.Position)

	vp := h.engine.Viewport()
	assert.Equal(t, 14.0, vp.Zoom)
	assert.Equal(t, c.Position, vp.Center)
	assert.Equal(t, []int64{1, 2}, h.renderer.LiveMarkerIDs())
}

func TestClickClusterFallsBackToDefaultZoom(t *testing.T) {
	h := newHarness(t, fixture()...)
	h.engine.Load()

	target := spatial.Point{Lat: 59.33, Lon: 18.07}
	h.renderer.ClickCluster(987654, target)

	vp := h.engine.Viewport()
	assert.Equal(t, float64(DefaultExpansionZoom), vp.Zoom)
	assert.Equal(t, target, vp.Center)
}

func TestMarkerAppearanceClickAndHover(t *testing.T) {
	h := newHarness(t, fixture()...)
	h.engine.Load()
	h.engine.JumpTo(stockholm, 14)

	byID := map[int64]*recordedMarker{}
	for _, m := range h.layer.live() {
		byID[m.spec.SpotID] = m
	}
	require.Len(t, byID, 2)

	assert.Equal(t, Appearance{Color: "#22C55E", Letter: "E"}, byID[1].spec.Appearance)
	assert.Equal(t, "https://img/akkurat.jpg", byID[2].spec.Appearance.ImageURL)
	assert.Equal(t, models.CategoryBar.Color(), byID[2].spec.Appearance.Color)

	byID[2].spec.OnHover(true)
	assert.True(t, byID[2].hover)
	byID[2].spec.OnHover(false)
	assert.False(t, byID[2].hover)

	byID[2].spec.OnClick()
	require.NotNil(t, h.feed.selected)
	assert.Equal(t, int64(2), h.feed.selected.ID)
}

func TestCloseDestroysMarkers(t *testing.T) {
	h := newHarness(t, fixture()...)
	h.engine.Load()
	h.engine.JumpTo(stockholm, 14)
	require.Len(t, h.layer.live(), 2)

	require.NoError(t, h.renderer.Close())
	assert.Empty(t, h.layer.live())
	assert.Empty(t, h.renderer.LiveMarkerIDs())

	h.feed.publish(fixture()...)
	assert.Equal(t, Diff{}, h.renderer.Reconcile())
	assert.Empty(t, h.layer.live())
	assert.Empty(t, h.feed.subs)

	assert.NoError(t, h.renderer.Close())
	assert.ErrorIs(t, h.engine.Remove(), ErrEngineRemoved)
}

func TestSelectionKeepsClusterIDs(t *testing.T) {
	store := spots.New(&listAPI{spots: fixture()})
	ctx := context.Background()
	store.FetchSpots(ctx)

	engine := NewHeadlessEngine("pk.test", Viewport{Center: stockholm, Zoom: 12, Width: 1280, Height: 800})
	layer := &recordingLayer{failFor: map[int64]bool{}}
	source := &countingSource{Source: NewClusterSource(cluster.DefaultOptions())}
	renderer := New(engine, layer, store, Options{Source: source})
	engine.Load()
	require.Equal(t, 1, source.setData)
	require.Equal(t, []int64{3}, renderer.LiveMarkerIDs())

	c := clusterFeature(t, renderer.ClusterView())

	// clicking the marker selects through the store
	live := layer.live()
	require.Len(t, live, 1)
	live[0].spec.OnClick()
	require.NotNil(t, store.Selected())
	assert.Equal(t, int64(3), store.Selected().ID)

	// an identical refetch does not rebuild the index either
	store.FetchSpots(ctx)
	assert.Equal(t, 1, source.setData)
	assert.Len(t, layer.created, 1)

	renderer.ClickCluster(c.ClusterID, c.Position)
	assert.Equal(t, 14.0, engine.Viewport().Zoom)
	assert.Equal(t, []int64{1, 2}, renderer.LiveMarkerIDs())
}

func TestPublishDuringMountIsNotLost(t *testing.T) {
	engine := NewHeadlessEngine("pk.test", Viewport{Center: stockholm, Zoom: 14, Width: 1280, Height: 800})
	layer := &recordingLayer{failFor: map[int64]bool{}}
	feed := newFakeFeed(fixture()[0])
	feed.beforeSubscribe = func() { feed.publish(fixture()...) }

	renderer := New(engine, layer, feed, Options{Cluster: cluster.DefaultOptions()})
	engine.Load()

	assert.Equal(t, []int64{1, 2}, renderer.LiveMarkerIDs())
}

func TestAppearanceChangeRedrawsMarker(t *testing.T) {
	h := newHarness(t, fixture()...)
	h.engine.Load()
	h.engine.JumpTo(stockholm, 14)
	require.Equal(t, []int64{1, 2}, h.renderer.LiveMarkerIDs())
	created := len(h.layer.created)

	updated := fixture()
	updated[1].Images = []models.Image{{ID: 6, URL: "https://img/akkurat-new.jpg", IsPrimary: true}}
	h.feed.publish(updated...)

	assert.Equal(t, 1, h.source.setData)
	assert.Len(t, h.layer.created, created+1)
	byID := map[int64]*recordedMarker{}
	for _, m := range h.layer.live() {
		byID[m.spec.SpotID] = m
	}
	require.Len(t, byID, 2)
	assert.Equal(t, "https://img/akkurat-new.jpg", byID[2].spec.Appearance.ImageURL)

	assert.Equal(t, Diff{}, h.renderer.Reconcile())
}
