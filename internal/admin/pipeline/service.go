package pipeline

import (
	"context"
	"errors"
)

// ErrUnknownStage indicates the requested stage is not an active candidate status.
var ErrUnknownStage = errors.New("pipeline stage is unknown")

// Service exposes the global status catalogue.
type Service interface {
	// Statuses returns every status option known to the backend, active or not.
	Statuses(ctx context.Context, token string) ([]StatusOption, error)
}

// StatusType distinguishes statuses applied to candidates from those used for recruiters.
type StatusType string

const (
	StatusTypeCandidate StatusType = "candidate"
	StatusTypeRecruiter StatusType = "recruiter"
)

// StatusOption is a pipeline stage definition.
type StatusOption struct {
	ID       int64      `json:"id"`
	Name     string     `json:"name"`
	Type     StatusType `json:"type"`
	IsActive bool       `json:"is_active"`
	Color    string     `json:"color"`
}

// Selectable reports whether the option may populate the stage selector.
func (o StatusOption) Selectable() bool {
	return o.IsActive && o.Type == StatusTypeCandidate
}
