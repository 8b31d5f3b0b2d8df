package spatial

import (
	"github.com/golang/geo/s2"
)

// HaversineDistance calculates the great-circle distance between two points in meters
func HaversineDistance(lat1, lon1, lat2, lon2 float64) float64 {
	p1 := s2.LatLngFromDegrees(lat1, lon1)
	p2 := s2.LatLngFromDegrees(lat2, lon2)
	return p1.Distance(p2).Radians() * EarthRadiusMeters
}

// DistanceTo returns the great-circle distance from p to q in meters
func (p Point) DistanceTo(q Point) float64 {
	return HaversineDistance(p.Lat, p.Lon, q.Lat, q.Lon)
}

// Constants
const (
	EarthRadiusMeters = 6371000.0 // Earth's mean radius in meters
	EarthRadiusKm     = 6371.0    // Earth's mean radius in kilometers
)
