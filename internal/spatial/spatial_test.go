package spatial

import (
	"testing"

	"github.com/golang/geo/r2"
	"github.com/stretchr/testify/assert"
)

func TestHaversineDistance(t *testing.T) {
	// Stockholm -> Uppsala is roughly 64 km
	d := HaversineDistance(59.3293, 18.0686, 59.8586, 17.6389)
	assert.InDelta(t, 64000, d, 2500)

	assert.InDelta(t, 0, Point{Lat: 10, Lon: 10}.DistanceTo(Point{Lat: 10, Lon: 10}), 1e-9)
}

func TestProjectUnprojectRoundTrip(t *testing.T) {
	for _, p := range []Point{{0, 0}, {59.3293, 18.0686}, {-33.8688, 151.2093}, {40.7128, -74.006}} {
		w := Project(p)
		back := Unproject(w)
		assert.InDelta(t, p.Lat, back.Lat, 1e-9)
		assert.InDelta(t, p.Lon, back.Lon, 1e-9)
	}

	assert.Equal(t, r2.Point{X: 0.5, Y: 0.5}, Project(Point{}))
}

func TestProjectClampsPoles(t *testing.T) {
	w := Project(Point{Lat: 90, Lon: 180})
	assert.InDelta(t, 0, w.Y, 1e-6)
	assert.InDelta(t, 1, w.X, 1e-12)
}

func TestViewRectContainsCenter(t *testing.T) {
	center := Point{Lat: 59.3293, Lon: 18.0686}
	r := ViewRect(center, 12, 1280, 800)
	assert.True(t, r.ContainsPoint(Project(center)))

	// 1280 px at zoom 12 is 1280 / (512 * 4096) of the world
	assert.InDelta(t, 1280/(512*4096.0), r.X.Length(), 1e-12)

	b := RectBounds(r)
	assert.True(t, b.Contains(center))
	assert.Less(t, b.MinLat, b.MaxLat)
	assert.Less(t, b.MinLon, b.MaxLon)
}

func TestBoundingBoxAndCentroid(t *testing.T) {
	pts := []Point{{1, 2}, {3, -4}, {-1, 6}}
	b := BoundingBox(pts)
	assert.Equal(t, Bounds{MinLat: -1, MinLon: -4, MaxLat: 3, MaxLon: 6}, b)
	assert.Equal(t, Point{Lat: 1, Lon: 1}, b.Center())
	assert.Equal(t, Point{Lat: 1, Lon: 4.0 / 3}, Centroid(pts))
	assert.Equal(t, Bounds{}, BoundingBox(nil))
}

func TestFitZoom(t *testing.T) {
	single := Bounds{MinLat: 59, MinLon: 18, MaxLat: 59, MaxLon: 18}
	assert.Equal(t, 16.0, FitZoom(single, 800, 600, 16))

	world := Bounds{MinLat: -80, MinLon: -179, MaxLat: 80, MaxLon: 179}
	assert.Equal(t, 0.0, FitZoom(world, 512, 512, 16))

	city := Bounds{MinLat: 59.30, MinLon: 18.00, MaxLat: 59.36, MaxLon: 18.12}
	z := FitZoom(city, 1280, 800, 20)
	assert.GreaterOrEqual(t, z, 11.0)
	assert.LessOrEqual(t, z, 13.0)
}
