package transcript

import (
	"time"

	"backend-rallynotes/internal/shared/geo"
)

// Speed buckets how fast the car was moving when a note was taken.
type Speed string

const (
	SpeedFast       Speed = "fast"
	SpeedMedium     Speed = "medium"
	SpeedSlow       Speed = "slow"
	SpeedStationary Speed = "stationary"
	SpeedUnknown    Speed = "unknown"
)

// Sample is a timed position used for speed estimation.
type Sample struct {
	Lat float64
	Lng float64
	At  time.Time
}

// SpeedContext buckets the speed between the last two samples.
// Fewer than two samples means unknown.
func SpeedContext(samples []Sample) Speed {
	if len(samples) < 2 {
		return SpeedUnknown
	}
	a := samples[len(samples)-2]
	b := samples[len(samples)-1]

	seconds := b.At.Sub(a.At).Seconds()
	kmh := geo.SpeedKmh(geo.HaversineKm(a.Lat, a.Lng, b.Lat, b.Lng), seconds)

	switch {
	case kmh > 80:
		return SpeedFast
	case kmh > 40:
		return SpeedMedium
	case kmh > 10:
		return SpeedSlow
	default:
		return SpeedStationary
	}
}
