package transcript

import (
	"regexp"
	"strings"
)

// Speech recognition mishears rally vocabulary in predictable ways.
// Replacements run in order, so longer or more specific phrases sit
// before the shorter ones they would otherwise collide with.
var corrections = []struct {
	from string
	to   string
}{
	{"cattle guard", "grid"},
	{"cattle gard", "grid"},
	{"wash out", "washout"},
	{"hair pin", "hairpin"},
	{"hare pin", "hairpin"},
	{"she cane", "chicane"},
	{"shikane", "chicane"},
	{"cross in ", "crossing "},
	{"wright", "right"},
	{"write", "right"},
	{"strait", "straight"},
	{"breaking", "braking"},
	{"summat", "summit"},
	{"he'll", "hill"},
}

// Navigator shorthand expanded to full words, in declared order like
// the corrections above. Matched on word boundaries so "l" inside
// "left" or "cg" inside "cgx" is untouched.
var expansions = []struct {
	abbr string
	full string
}{
	{"l", "left"},
	{"r", "right"},
	{"str", "straight"},
	{"cg", "cattle grid"},
	{"wo", "washout"},
	{"xing", "crossing"},
	{"jn", "junction"},
	{"hp", "hairpin"},
	{"br", "bridge"},
	{"dc", "don't cut"},
	{"caut", "caution"},
}

var expansionPatterns = compileExpansions()

func compileExpansions() []*regexp.Regexp {
	compiled := make([]*regexp.Regexp, len(expansions))
	for i, e := range expansions {
		compiled[i] = regexp.MustCompile(`\b` + regexp.QuoteMeta(e.abbr) + `\b`)
	}
	return compiled
}

// Correct lower-cases and trims the raw transcript, then applies the
// correction table in declared order. Unmatched text passes through.
func Correct(raw string) string {
	text := strings.ToLower(strings.TrimSpace(raw))
	for _, c := range corrections {
		text = strings.ReplaceAll(text, c.from, c.to)
	}
	return text
}

// Expand rewrites whole-word shorthand into full rally terms, walking
// the table in declared order.
func Expand(text string) string {
	for i, pattern := range expansionPatterns {
		text = pattern.ReplaceAllString(text, expansions[i].full)
	}
	return text
}
