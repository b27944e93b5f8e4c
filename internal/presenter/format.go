package presenter

import (
	"html/template"
	"math"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// TruncateLimit is the number of characters shown before an item collapses behind "Show more".
const TruncateLimit = 150

// Tone is the colour band of a score.
type Tone string

const (
	ToneGood Tone = "good"
	ToneFair Tone = "fair"
	TonePoor Tone = "poor"
)

// Badge labels an overall score.
func Badge(score float64) string {
	switch {
	case score >= 80:
		return "Excellent"
	case score >= 60:
		return "Good"
	default:
		return "Needs Improvement"
	}
}

// ToneFor returns the colour band for a score using the badge thresholds.
func ToneFor(score float64) Tone {
	switch {
	case score >= 80:
		return ToneGood
	case score >= 60:
		return ToneFair
	default:
		return TonePoor
	}
}

// FormatScore prints a score without trailing zeros: 78, 72.5.
func FormatScore(score float64) string {
	return strconv.FormatFloat(score, 'f', -1, 64)
}

// WeightPercent converts a weight fraction to a whole percentage.
func WeightPercent(weight float64) int {
	return int(math.Round(weight * 100))
}

// Truncate shortens text to limit characters plus an ellipsis. The second result
// reports whether anything was cut.
func Truncate(text string, limit int) (string, bool) {
	if utf8.RuneCountInString(text) <= limit {
		return text, false
	}
	runes := []rune(text)
	return string(runes[:limit]) + "...", true
}

// FormatTimestamp renders an RFC 3339 timestamp for display. Other text is returned as is.
func FormatTimestamp(value string) string {
	if value == "" {
		return ""
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return value
	}
	return t.UTC().Format("January 2, 2006 at 03:04 PM MST")
}

// Markdown renders free text as HTML. Raw HTML in the source is dropped and only
// safe link schemes are emitted.
func Markdown(text string) template.HTML {
	if text == "" {
		return ""
	}
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.NoEmptyLineBeforeBlock)
	r := html.NewRenderer(html.RendererOptions{
		Flags: html.CommonFlags | html.SkipHTML | html.Safelink | html.NofollowLinks | html.HrefTargetBlank,
	})
	return template.HTML(markdown.ToHTML([]byte(text), p, r))
}
