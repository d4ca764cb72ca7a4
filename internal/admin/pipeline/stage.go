package pipeline

import (
	"context"
	"fmt"
	"strings"

	"finitefield.org/recruit-admin/internal/admin/optimistic"
)

// StageChange describes moving one list element to a new pipeline stage.
type StageChange[T any] struct {
	// ItemKey identifies the element for staleness tracking, e.g. "job:42".
	ItemKey string
	// Match selects the element inside the displayed list.
	Match func(T) bool
	// Apply returns the element with its status set to stage.
	Apply func(item T, stage string) T
	// Persist sends the single-field update to the backend.
	Persist func(ctx context.Context, stage string) error
}

// SetStage validates stage against the registry and commits it optimistically
// to the single element selected by change.Match.
func SetStage[T any](ctx context.Context, panel *optimistic.Panel[T], registry *Registry, stage string, change StageChange[T]) (*optimistic.Pending, error) {
	stage = strings.TrimSpace(stage)
	if _, ok := registry.Lookup(stage); !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStage, stage)
	}
	if change.Apply == nil || change.Persist == nil {
		return nil, fmt.Errorf("pipeline: stage change requires apply and persist")
	}
	return panel.CommitItem(ctx, change.ItemKey, change.Match,
		func(item T) T { return change.Apply(item, stage) },
		func(ctx context.Context) error { return change.Persist(ctx, stage) },
	)
}
