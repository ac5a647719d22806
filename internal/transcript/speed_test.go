package transcript

import (
	"testing"
	"time"
)

func TestSpeedContextUnknown(t *testing.T) {
	if got := SpeedContext(nil); got != SpeedUnknown {
		t.Fatalf("expected unknown, got %v", got)
	}
	if got := SpeedContext([]Sample{{Lat: -34.9, Lng: 138.6, At: time.Now()}}); got != SpeedUnknown {
		t.Fatalf("expected unknown for single sample, got %v", got)
	}
}

func TestSpeedContextBuckets(t *testing.T) {
	base := time.Date(2025, 6, 14, 9, 30, 0, 0, time.UTC)

	// ~0.5 km in 10 s is ~180 km/h.
	fast := []Sample{
		{Lat: -34.9285, Lng: 138.6007, At: base},
		{Lat: -34.9240, Lng: 138.6007, At: base.Add(10 * time.Second)},
	}
	if got := SpeedContext(fast); got != SpeedFast {
		t.Fatalf("expected fast, got %v", got)
	}

	// Same ground covered in 40 s is ~45 km/h.
	medium := []Sample{
		{Lat: -34.9285, Lng: 138.6007, At: base},
		{Lat: -34.9240, Lng: 138.6007, At: base.Add(40 * time.Second)},
	}
	if got := SpeedContext(medium); got != SpeedMedium {
		t.Fatalf("expected medium, got %v", got)
	}

	// And in 2 min it is ~15 km/h.
	slow := []Sample{
		{Lat: -34.9285, Lng: 138.6007, At: base},
		{Lat: -34.9240, Lng: 138.6007, At: base.Add(2 * time.Minute)},
	}
	if got := SpeedContext(slow); got != SpeedSlow {
		t.Fatalf("expected slow, got %v", got)
	}

	stationary := []Sample{
		{Lat: -34.9285, Lng: 138.6007, At: base},
		{Lat: -34.9285, Lng: 138.6007, At: base.Add(20 * time.Second)},
	}
	if got := SpeedContext(stationary); got != SpeedStationary {
		t.Fatalf("expected stationary, got %v", got)
	}
}
