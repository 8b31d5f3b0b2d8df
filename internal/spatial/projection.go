package spatial

import (
	"math"

	"github.com/golang/geo/r1"
	"github.com/golang/geo/r2"
)

// TileSize is the pixel width of the world at zoom 0.
const TileSize = 512.0

// MaxMercatorLat is the latitude where Web Mercator is clipped.
const MaxMercatorLat = 85.051129

// Project maps a coordinate onto Web Mercator world space, where the whole
// map is the unit square and y grows southwards.
func Project(p Point) r2.Point {
	lat := clamp(p.Lat, -MaxMercatorLat, MaxMercatorLat)
	sin := math.Sin(lat * math.Pi / 180)
	y := 0.5 - 0.25*math.Log((1+sin)/(1-sin))/math.Pi
	return r2.Point{
		X: p.Lon/360 + 0.5,
		Y: clamp(y, 0, 1),
	}
}

// Unproject is the inverse of Project.
func Unproject(w r2.Point) Point {
	y2 := (180 - w.Y*360) * math.Pi / 180
	return Point{
		Lat: 360*math.Atan(math.Exp(y2))/math.Pi - 90,
		Lon: (w.X - 0.5) * 360,
	}
}

// WorldSize is the pixel size of the whole map at the given zoom.
func WorldSize(zoom float64) float64 {
	return TileSize * math.Exp2(zoom)
}

// ViewRect returns the world-space rectangle covered by a viewport of
// width x height pixels centered on center at zoom.
func ViewRect(center Point, zoom float64, width, height int) r2.Rect {
	c := Project(center)
	scale := WorldSize(zoom)
	halfW := float64(width) / 2 / scale
	halfH := float64(height) / 2 / scale
	return r2.Rect{
		X: r1.Interval{Lo: c.X - halfW, Hi: c.X + halfW},
		Y: r1.Interval{Lo: c.Y - halfH, Hi: c.Y + halfH},
	}
}

// RectBounds converts a world-space rectangle back to lat/lon bounds.
func RectBounds(r r2.Rect) Bounds {
	nw := Unproject(r2.Point{X: r.X.Lo, Y: r.Y.Lo})
	se := Unproject(r2.Point{X: r.X.Hi, Y: r.Y.Hi})
	return Bounds{
		MinLat: se.Lat,
		MinLon: nw.Lon,
		MaxLat: nw.Lat,
		MaxLon: se.Lon,
	}
}

// FitZoom returns the largest zoom at which b fits into width x height pixels,
// capped at maxZoom.
func FitZoom(b Bounds, width, height int, maxZoom float64) float64 {
	nw := Project(Point{Lat: b.MaxLat, Lon: b.MinLon})
	se := Project(Point{Lat: b.MinLat, Lon: b.MaxLon})
	dx := se.X - nw.X
	dy := se.Y - nw.Y
	if dx <= 0 && dy <= 0 {
		return maxZoom
	}
	zx, zy := maxZoom, maxZoom
	if dx > 0 {
		zx = math.Log2(float64(width) / (dx * TileSize))
	}
	if dy > 0 {
		zy = math.Log2(float64(height) / (dy * TileSize))
	}
	return math.Max(0, math.Min(maxZoom, math.Floor(math.Min(zx, zy))))
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
