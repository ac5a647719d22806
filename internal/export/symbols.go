package export

import (
	"strings"

	"backend-rallynotes/internal/transcript"
)

// Device symbol and GPX type per category. Within a category the
// symbol narrows on keywords in the waypoint text, falling back to
// the category's generic symbol.
func symbolFor(category transcript.Category, text string) (sym, gpxType string) {
	text = strings.ToLower(text)
	switch category {
	case transcript.CategorySafety:
		return "danger", "danger"
	case transcript.CategoryNavigation:
		switch {
		case strings.Contains(text, "left"):
			return "left", "turn"
		case strings.Contains(text, "right"):
			return "right", "turn"
		case strings.Contains(text, "straight"):
			return "straight", "turn"
		}
		return "navigation", "turn"
	case transcript.CategorySurface:
		switch {
		case strings.Contains(text, "bumpy"):
			return "bumpy", "hazard"
		case strings.Contains(text, "bump"):
			return "bump", "hazard"
		case strings.Contains(text, "hole"):
			return "hole", "hazard"
		}
		return "surface", "hazard"
	case transcript.CategoryObstacle:
		switch {
		case strings.Contains(text, "grid"):
			return "grid", "waypoint"
		case strings.Contains(text, "gate"), strings.Contains(text, "fence"):
			return "fence-gate", "waypoint"
		}
		return "obstacle", "waypoint"
	case transcript.CategoryElevation:
		switch {
		case strings.Contains(text, "summit"), strings.Contains(text, "crest"):
			return "summit", "summit"
		case strings.Contains(text, "uphill"), strings.Contains(text, "climb"):
			return "uphill", "summit"
		}
		return "elevation", "summit"
	case transcript.CategoryCrossing:
		switch {
		case strings.Contains(text, "bridge"):
			return "bridge", "water"
		case strings.Contains(text, "wading"), strings.Contains(text, "ford"), strings.Contains(text, "water"):
			return "wading", "water"
		}
		return "crossing", "water"
	case transcript.CategoryLandmark:
		return "landmark", "building"
	case transcript.CategoryTiming:
		return "control", "checkpoint"
	}
	return "waypoint", "waypoint"
}

// priorityFor ranks a waypoint for the navigator. Severity wording
// forces safety notes to high no matter what.
func priorityFor(category transcript.Category, text string) string {
	if category == transcript.CategorySafety && transcript.Severe(text) {
		return "high"
	}
	switch category {
	case transcript.CategorySafety, transcript.CategoryNavigation,
		transcript.CategoryCrossing, transcript.CategoryTiming:
		return "high"
	case transcript.CategorySurface, transcript.CategoryObstacle:
		return "medium"
	case transcript.CategoryElevation, transcript.CategoryLandmark:
		return "low"
	}
	return "low"
}
