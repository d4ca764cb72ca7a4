package helpers

import (
	"context"
	"strings"

	"github.com/a-h/templ"
)

// HighlightSegment is a slice of text that either matched the search term or not.
type HighlightSegment struct {
	Text  string
	Match bool
}

// HighlightSegments splits text around case-insensitive occurrences of term.
func HighlightSegments(text, term string) []HighlightSegment {
	if text == "" {
		return nil
	}
	term = strings.TrimSpace(term)
	if term == "" {
		return []HighlightSegment{{Text: text}}
	}

	// Compare rune-wise so byte offsets stay aligned with text for multi-byte input.
	runes := []rune(text)
	needle := []rune(strings.ToLower(term))
	lower := []rune(strings.ToLower(text))
	if len(lower) != len(runes) {
		return []HighlightSegment{{Text: text}}
	}

	var segments []HighlightSegment
	start := 0
	for i := 0; i+len(needle) <= len(lower); {
		if string(lower[i:i+len(needle)]) != string(needle) {
			i++
			continue
		}
		if i > start {
			segments = append(segments, HighlightSegment{Text: string(runes[start:i])})
		}
		segments = append(segments, HighlightSegment{Text: string(runes[i : i+len(needle)]), Match: true})
		i += len(needle)
		start = i
	}
	if start < len(runes) {
		segments = append(segments, HighlightSegment{Text: string(runes[start:])})
	}
	return segments
}

// Highlight renders text with matches of term wrapped in <mark>.
func Highlight(text, term string) templ.Component {
	return Component(func(_ context.Context, h *HTML) {
		for _, seg := range HighlightSegments(text, term) {
			if seg.Match {
				h.Element("mark", seg.Text, "class", "rounded bg-amber-100 px-0.5")
				continue
			}
			h.Text(seg.Text)
		}
	})
}
