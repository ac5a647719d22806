package voice

import (
	"errors"
	"strings"
	"unicode"

	"backend-rallynotes/internal/stage"
	"backend-rallynotes/internal/transcript"
)

var ErrEmptyTranscript = errors.New("transcript is empty")

// At speed the navigator wants terse notes, so connector phrases are
// compressed to an arrow; crawling pace gets the words back.
var fastConnectors = []struct {
	from string
	to   string
}{
	{" followed by ", " → "},
	{" and then ", " → "},
	{" then ", " → "},
	{" into ", " → "},
}

// Build turns a raw transcript plus the current fix into a waypoint.
// The pipeline is fixed: correct, expand, speed phrasing, capitalize,
// classify on the processed text. The raw transcript is kept verbatim
// on the waypoint for audit.
func Build(raw string, fix stage.Fix, prior []stage.Waypoint, speed transcript.Speed) (stage.Waypoint, error) {
	if strings.TrimSpace(raw) == "" {
		return stage.Waypoint{}, ErrEmptyTranscript
	}

	text := transcript.Correct(raw)
	text = transcript.Expand(text)
	text = applySpeedPhrasing(text, speed)
	text = capitalize(text)

	return stage.Waypoint{
		Lat:           fix.Lat,
		Lng:           fix.Lng,
		Name:          text,
		DistanceKm:    stage.RoundKm(stage.CumulativeKm(prior, fix.Lat, fix.Lng)),
		Category:      transcript.Classify(text),
		VoiceCreated:  true,
		RawTranscript: raw,
		SpeedContext:  speed,
	}, nil
}

// Command reports whether the transcript is a stage lifecycle trigger
// ("stage start" / "stage end") rather than a note.
func Command(raw string) (string, bool) {
	text := transcript.Expand(transcript.Correct(raw))
	switch {
	case strings.Contains(text, "stage start"), strings.Contains(text, "start stage"):
		return "start", true
	case strings.Contains(text, "stage end"), strings.Contains(text, "end stage"):
		return "end", true
	}
	return "", false
}

func applySpeedPhrasing(text string, speed transcript.Speed) string {
	switch speed {
	case transcript.SpeedFast:
		for _, c := range fastConnectors {
			text = strings.ReplaceAll(text, c.from, c.to)
		}
	case transcript.SpeedSlow, transcript.SpeedStationary:
		text = strings.ReplaceAll(text, " → ", " followed by ")
		text = strings.ReplaceAll(text, "→", "followed by")
	}
	return text
}

func capitalize(text string) string {
	runes := []rune(text)
	if len(runes) == 0 {
		return text
	}
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
