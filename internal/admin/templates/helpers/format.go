package helpers

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/a-h/templ"
)

var jst = time.FixedZone("JST", 9*60*60)

// Date formats the timestamp in JST using layout (defaults to 2006/01/02 15:04).
func Date(ts time.Time, layout string) string {
	if ts.IsZero() {
		return "-"
	}
	if layout == "" {
		layout = "2006/01/02 15:04"
	}
	return ts.In(jst).Format(layout)
}

// Relative returns a coarse "time ago" string relative to now.
func Relative(ts time.Time, now time.Time) string {
	if ts.IsZero() {
		return "-"
	}
	diff := now.Sub(ts)
	switch {
	case diff < time.Minute:
		return "たった今"
	case diff < time.Hour:
		return fmt.Sprintf("%d分前", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%d時間前", int(diff.Hours()))
	case diff < 7*24*time.Hour:
		return fmt.Sprintf("%d日前", int(diff.Hours()/24))
	}
	return Date(ts, "2006/01/02")
}

// DayLabel renders a YYYY-MM-DD group key as a heading.
func DayLabel(date string) string {
	parsed, err := time.Parse("2006-01-02", date)
	if err != nil {
		return date
	}
	weekdays := [...]string{"日", "月", "火", "水", "木", "金", "土"}
	return fmt.Sprintf("%d年%d月%d日 (%s)", parsed.Year(), parsed.Month(), parsed.Day(), weekdays[parsed.Weekday()])
}

// BadgeClass maps semantic tones to utility classes.
func BadgeClass(tone string) string {
	switch tone {
	case "success":
		return "inline-flex items-center rounded-full bg-emerald-100 px-2 py-1 text-xs font-medium text-emerald-700"
	case "warning":
		return "inline-flex items-center rounded-full bg-amber-100 px-2 py-1 text-xs font-medium text-amber-700"
	case "danger":
		return "inline-flex items-center rounded-full bg-rose-100 px-2 py-1 text-xs font-medium text-rose-700"
	case "info":
		return "inline-flex items-center rounded-full bg-sky-100 px-2 py-1 text-xs font-medium text-sky-700"
	default:
		return "inline-flex items-center rounded-full bg-slate-100 px-2 py-1 text-xs font-medium text-slate-700"
	}
}

// StageDotStyle returns the inline style for a pipeline stage colour marker.
// Values that are not #rgb or #rrggbb are replaced with neutral grey.
func StageDotStyle(color string) string {
	if !isHexColor(color) {
		color = "#9ca3af"
	}
	return "background-color: " + color
}

func isHexColor(value string) bool {
	if len(value) != 4 && len(value) != 7 {
		return false
	}
	if value[0] != '#' {
		return false
	}
	for _, r := range value[1:] {
		if !strings.ContainsRune("0123456789abcdefABCDEF", r) {
			return false
		}
	}
	return true
}

// TextComponent returns a templ component that renders escaped text.
func TextComponent(value string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, templ.EscapeString(value))
		return err
	})
}

// SetRawQuery returns rawQuery with key set to value.
func SetRawQuery(rawQuery, key, value string) string {
	values, _ := url.ParseQuery(rawQuery)
	values.Set(key, value)
	return values.Encode()
}

// BuildURL replaces the query of path with rawQuery. An empty rawQuery strips it.
func BuildURL(path, rawQuery string) string {
	if idx := strings.Index(path, "?"); idx >= 0 {
		path = path[:idx]
	}
	if rawQuery == "" {
		return path
	}
	return path + "?" + rawQuery
}
