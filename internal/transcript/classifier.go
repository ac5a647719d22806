package transcript

import (
	"regexp"
	"strings"
)

// Category classifies a voice note for icon and priority mapping.
type Category string

const (
	CategorySafety     Category = "safety"
	CategoryNavigation Category = "navigation"
	CategorySurface    Category = "surface"
	CategoryObstacle   Category = "obstacle"
	CategoryElevation  Category = "elevation"
	CategoryCrossing   Category = "crossing"
	CategoryLandmark   Category = "landmark"
	CategoryTiming     Category = "timing"
	CategoryGeneral    Category = "general"
)

// Bag-of-patterns scoring. Slice order is the tie-break: on an equal
// score the earlier category wins, and no match at all means general.
var categoryPatterns = []struct {
	category Category
	patterns []*regexp.Regexp
}{
	{CategorySafety, compileAll(
		`danger`, `caution`, `severe`, `extreme`, `washout`, `drop ?off`,
		`cliff`, `warning`, `slow down`, `braking`,
	)},
	{CategoryNavigation, compileAll(
		`\bleft\b`, `\bright\b`, `straight`, `\bturn\b`, `hairpin`,
		`junction`, `\bfork\b`, `chicane`, `\bkeep\b`, `\bbear\b`,
	)},
	{CategorySurface, compileAll(
		`bump`, `\bhole\b`, `rough`, `gravel`, `\bsand\b`, `\bmud\b`,
		`\brut`, `corrugat`, `slippery`, `rocky`,
	)},
	{CategoryObstacle, compileAll(
		`\bgrid\b`, `\bgate\b`, `fence`, `\btree\b`, `\brock\b`,
		`obstacle`, `barrier`, `livestock`,
	)},
	{CategoryElevation, compileAll(
		`summit`, `crest`, `uphill`, `downhill`, `climb`, `descent`,
		`steep`, `\bhill\b`,
	)},
	{CategoryCrossing, compileAll(
		`crossing`, `bridge`, `creek`, `river`, `\bford\b`, `wading`,
		`water`,
	)},
	{CategoryLandmark, compileAll(
		`landmark`, `building`, `tower`, `windmill`, `ruin`, `house`,
		`marker`,
	)},
	{CategoryTiming, compileAll(
		`control`, `checkpoint`, `\btime\b`, `\bstart\b`, `finish`,
	)},
}

func compileAll(patterns ...string) []*regexp.Regexp {
	compiled := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		compiled[i] = regexp.MustCompile(p)
	}
	return compiled
}

// Classify scores the lower-cased text against every category's
// pattern list and returns the highest scorer.
func Classify(text string) Category {
	text = strings.ToLower(text)

	best := CategoryGeneral
	bestScore := 0
	for _, entry := range categoryPatterns {
		score := 0
		for _, p := range entry.patterns {
			score += len(p.FindAllString(text, -1))
		}
		if score > bestScore {
			best = entry.category
			bestScore = score
		}
	}
	return best
}

// Severe wording upgrades a safety note to high priority no matter
// what the category table says.
var severityPattern = regexp.MustCompile(`severe|extreme`)

// Severe reports whether the text carries severity wording.
func Severe(text string) bool {
	return severityPattern.MatchString(strings.ToLower(text))
}
