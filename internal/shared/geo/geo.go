package geo

import "math"

const earthRadiusKm = 6371.0

// HaversineKm returns the great-circle distance between two points in km.
func HaversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := radians(lat2 - lat1)
	dLng := radians(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(radians(lat1))*math.Cos(radians(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusKm * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// Valid reports whether lat/lng form a plottable coordinate pair: both
// finite and inside the WGS84 envelope.
func Valid(lat, lng float64) bool {
	if math.IsNaN(lat) || math.IsInf(lat, 0) || math.IsNaN(lng) || math.IsInf(lng, 0) {
		return false
	}
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

// FromGeoJSON converts a GeoJSON coordinate pair ([lng, lat]) to (lat, lng).
func FromGeoJSON(coords [2]float64) (lat, lng float64) {
	return coords[1], coords[0]
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
