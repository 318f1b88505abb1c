// Package geo holds the pure distance math used by nearby lookups and
// the dedup prefilter. No state, no units other than kilometers.
package geo

import "math"

const earthRadiusKM = 6371.0

// degreesPerKM approximates one kilometer in latitude degrees.
// Used only for bounding-box prefilters, never as a final distance.
const degreesPerKM = 1.0 / 111.0

// HaversineKM returns the great-circle distance between two points.
func HaversineKM(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := deg2rad(lat2 - lat1)
	dLng := deg2rad(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(deg2rad(lat1))*math.Cos(deg2rad(lat2))*
			math.Sin(dLng/2)*math.Sin(dLng/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKM * c
}

// BoundingBox is a lat/lng rectangle enclosing a radius around a point.
type BoundingBox struct {
	MinLat, MaxLat float64
	MinLng, MaxLng float64
}

// BoxAround returns a bounding box for radiusKm around (lat, lng).
// Longitude degrees shrink with latitude, so the delta is widened by
// cos(lat); near the poles the box degenerates to the full range.
func BoxAround(lat, lng, radiusKm float64) BoundingBox {
	dLat := radiusKm * degreesPerKM

	cosLat := math.Cos(deg2rad(lat))
	dLng := 180.0
	if cosLat > 1e-6 {
		dLng = radiusKm * degreesPerKM / cosLat
	}

	return BoundingBox{
		MinLat: lat - dLat,
		MaxLat: lat + dLat,
		MinLng: lng - dLng,
		MaxLng: lng + dLng,
	}
}

// Contains reports whether the point falls inside the box.
func (b BoundingBox) Contains(lat, lng float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat &&
		lng >= b.MinLng && lng <= b.MaxLng
}

// ValidCoordinates reports whether lat/lng are in range.
func ValidCoordinates(lat, lng float64) bool {
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

func deg2rad(deg float64) float64 {
	return deg * math.Pi / 180.0
}
