package helpers

import (
	"context"
	"io"
	"strings"

	"github.com/a-h/templ"
)

// HTML accumulates markup for hand-written components. The first write error
// sticks and later writes become no-ops.
type HTML struct {
	w   io.Writer
	err error
}

// NewHTML wraps w.
func NewHTML(w io.Writer) *HTML {
	return &HTML{w: w}
}

// Raw writes trusted markup.
func (h *HTML) Raw(parts ...string) *HTML {
	for _, part := range parts {
		if h.err != nil {
			return h
		}
		_, h.err = io.WriteString(h.w, part)
	}
	return h
}

// Text writes escaped text content.
func (h *HTML) Text(value string) *HTML {
	return h.Raw(templ.EscapeString(value))
}

// Open writes a start tag with the given attribute pairs (name, value, name, value...).
// Attributes with an empty value are written bare when their name ends in "!",
// e.g. "checked!", and skipped otherwise.
func (h *HTML) Open(tag string, attrs ...string) *HTML {
	h.Raw("<", tag)
	for i := 0; i+1 < len(attrs); i += 2 {
		name, value := attrs[i], attrs[i+1]
		if bare, ok := strings.CutSuffix(name, "!"); ok {
			if value != "" {
				h.Raw(" ", bare)
			}
			continue
		}
		if value == "" {
			continue
		}
		h.Raw(" ", name, `="`, templ.EscapeString(value), `"`)
	}
	return h.Raw(">")
}

// Close writes an end tag.
func (h *HTML) Close(tag string) *HTML {
	return h.Raw("</", tag, ">")
}

// Element writes a complete element with escaped text content.
func (h *HTML) Element(tag, text string, attrs ...string) *HTML {
	return h.Open(tag, attrs...).Text(text).Close(tag)
}

// Component renders a nested component.
func (h *HTML) Component(ctx context.Context, c templ.Component) *HTML {
	if h.err != nil || c == nil {
		return h
	}
	h.err = c.Render(ctx, h.w)
	return h
}

// Err returns the first write error.
func (h *HTML) Err() error {
	return h.err
}

// Component adapts a writer function into a templ.Component.
func Component(fn func(ctx context.Context, h *HTML)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := NewHTML(w)
		fn(ctx, h)
		return h.Err()
	})
}

// Flag turns a boolean into the value form used for bare attributes.
func Flag(on bool) string {
	if on {
		return "on"
	}
	return ""
}
