package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

type htmxKey struct{}

// HTMXInfo is what the handlers read from the HX-* request headers.
type HTMXInfo struct {
	Request        bool
	Boosted        bool
	Target         string
	HistoryRestore bool
}

// HTMX parses the HX-* request headers into the context.
func HTMX() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			info := HTMXInfo{
				Request:        headerTrue(r, "HX-Request"),
				Boosted:        headerTrue(r, "HX-Boosted"),
				Target:         r.Header.Get("HX-Target"),
				HistoryRestore: headerTrue(r, "HX-History-Restore-Request"),
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), htmxKey{}, info)))
		})
	}
}

func headerTrue(r *http.Request, name string) bool {
	return strings.EqualFold(r.Header.Get(name), "true")
}

// HTMXInfoFromContext returns the parsed headers, or the zero value.
func HTMXInfoFromContext(ctx context.Context) HTMXInfo {
	info, _ := ctx.Value(htmxKey{}).(HTMXInfo)
	return info
}

// IsHTMXRequest reports whether htmx issued the request. Boosted navigations
// and history restores want the full page, so they do not count.
func IsHTMXRequest(ctx context.Context) bool {
	info := HTMXInfoFromContext(ctx)
	return info.Request && !info.Boosted && !info.HistoryRestore
}

// RequireHTMX hides fragment routes from direct navigation with a 404.
func RequireHTMX() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !IsHTMXRequest(r.Context()) {
				http.NotFound(w, r)
				return
			}
			w.Header().Add("Vary", "HX-Request")
			next.ServeHTTP(w, r)
		})
	}
}

// TriggerEvents merges events into the HX-Trigger response header. Call it
// before the header is written.
func TriggerEvents(w http.ResponseWriter, events map[string]any) error {
	if len(events) == 0 {
		return nil
	}
	merged := make(map[string]any, len(events))
	if existing := w.Header().Get("HX-Trigger"); existing != "" {
		if err := json.Unmarshal([]byte(existing), &merged); err != nil {
			merged = map[string]any{existing: nil}
		}
	}
	for name, detail := range events {
		merged[name] = detail
	}
	payload, err := json.Marshal(merged)
	if err != nil {
		return err
	}
	w.Header().Set("HX-Trigger", string(payload))
	return nil
}
