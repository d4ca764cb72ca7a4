package pipeline

import (
	"context"
	"fmt"
	"strings"
)

// DefaultColor is rendered for statuses missing from the catalogue, e.g. renamed server-side.
const DefaultColor = "#9ca3af"

// Registry is an immutable view over the selectable pipeline stages.
type Registry struct {
	stages []StatusOption
	byName map[string]StatusOption
}

// NewRegistry keeps the active candidate statuses from options, preserving order.
func NewRegistry(options []StatusOption) *Registry {
	r := &Registry{byName: make(map[string]StatusOption)}
	for _, opt := range options {
		if !opt.Selectable() {
			continue
		}
		r.stages = append(r.stages, opt)
		if _, exists := r.byName[opt.Name]; !exists {
			r.byName[opt.Name] = opt
		}
	}
	return r
}

// FetchStatuses loads the catalogue from svc and builds a Registry.
func FetchStatuses(ctx context.Context, svc Service, token string) (*Registry, error) {
	if svc == nil {
		return nil, fmt.Errorf("pipeline: service not configured")
	}
	options, err := svc.Statuses(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("pipeline: fetch statuses: %w", err)
	}
	return NewRegistry(options), nil
}

// Stages returns the selectable stages in catalogue order.
func (r *Registry) Stages() []StatusOption {
	if r == nil {
		return nil
	}
	return append([]StatusOption(nil), r.stages...)
}

// Lookup finds a stage by exact name.
func (r *Registry) Lookup(name string) (StatusOption, bool) {
	if r == nil {
		return StatusOption{}, false
	}
	opt, ok := r.byName[name]
	return opt, ok
}

// ColorOf returns the stage colour, or DefaultColor when name is unknown.
func (r *Registry) ColorOf(name string) string {
	opt, ok := r.Lookup(name)
	if !ok || strings.TrimSpace(opt.Color) == "" {
		return DefaultColor
	}
	return opt.Color
}

// Tone maps a stage to a badge tone used by the templates.
func (r *Registry) Tone(name string) string {
	if _, ok := r.Lookup(name); !ok {
		return "muted"
	}
	return "info"
}
