package geo

import "math"

const earthRadiusKm = 6371.0

// HaversineKm returns the great-circle distance in km between two
// WGS-84 points.
func HaversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180
	dLng := (lng2 - lng1) * math.Pi / 180
	la1 := lat1 * math.Pi / 180
	la2 := lat2 * math.Pi / 180
	a := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(la1)*math.Cos(la2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}

// LatLng is a bare coordinate pair for path calculations.
type LatLng struct {
	Lat float64
	Lng float64
}

// PathKm sums the leg distances of an ordered point sequence. Zero or
// one point is a zero-length path.
func PathKm(points []LatLng) float64 {
	var total float64
	for i := 1; i < len(points); i++ {
		total += HaversineKm(points[i-1].Lat, points[i-1].Lng, points[i].Lat, points[i].Lng)
	}
	return total
}

// BearingDeg returns the initial great-circle bearing from the first
// point to the second, in degrees clockwise from true north [0, 360).
func BearingDeg(lat1, lng1, lat2, lng2 float64) float64 {
	la1 := lat1 * math.Pi / 180
	la2 := lat2 * math.Pi / 180
	dLng := (lng2 - lng1) * math.Pi / 180
	y := math.Sin(dLng) * math.Cos(la2)
	x := math.Cos(la1)*math.Sin(la2) - math.Sin(la1)*math.Cos(la2)*math.Cos(dLng)
	deg := math.Atan2(y, x) * 180 / math.Pi
	return math.Mod(deg+360, 360)
}

// SpeedKmh converts a distance covered over elapsed seconds into km/h.
// Returns 0 when no time has elapsed.
func SpeedKmh(distanceKm, seconds float64) float64 {
	if seconds <= 0 {
		return 0
	}
	return distanceKm / (seconds / 3600)
}
