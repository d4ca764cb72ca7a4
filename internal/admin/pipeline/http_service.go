package pipeline

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"finitefield.org/recruit-admin/internal/admin/backend"
)

// HTTPService implements Service backed by the reference endpoints of the ATS API.
type HTTPService struct {
	client *backend.Client
}

// NewHTTPService constructs a Service sharing the given backend client.
func NewHTTPService(client *backend.Client) (*HTTPService, error) {
	if client == nil {
		return nil, errors.New("pipeline: backend client is required")
	}
	return &HTTPService{client: client}, nil
}

// Statuses retrieves the global status catalogue.
func (s *HTTPService) Statuses(ctx context.Context, token string) ([]StatusOption, error) {
	var options []StatusOption
	if err := s.client.Do(ctx, http.MethodGet, "/reference/status", token, nil, &options); err != nil {
		return nil, err
	}
	return options, nil
}

// StaticService serves a fixed catalogue for local development and tests.
type StaticService struct {
	mu      sync.Mutex
	options []StatusOption
	err     error
	calls   int
}

// NewStaticService constructs a StaticService. A nil catalogue is replaced by seeded stages.
func NewStaticService(options []StatusOption) *StaticService {
	if options == nil {
		options = SeedStatuses()
	}
	return &StaticService{options: append([]StatusOption(nil), options...)}
}

// Statuses returns the configured catalogue or the configured failure.
func (s *StaticService) Statuses(context.Context, string) ([]StatusOption, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return append([]StatusOption(nil), s.options...), nil
}

// SetStatuses replaces the catalogue.
func (s *StaticService) SetStatuses(options []StatusOption) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.options = append([]StatusOption(nil), options...)
}

// SetError makes subsequent calls fail with err until cleared with nil.
func (s *StaticService) SetError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// Calls reports how many times Statuses was invoked.
func (s *StaticService) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// SeedStatuses returns the demo catalogue, including entries the registry filters out.
func SeedStatuses() []StatusOption {
	return []StatusOption{
		{ID: 1, Name: "Applied", Type: StatusTypeCandidate, IsActive: true, Color: "#64748b"},
		{ID: 2, Name: "Screening", Type: StatusTypeCandidate, IsActive: true, Color: "#0ea5e9"},
		{ID: 3, Name: "Interview", Type: StatusTypeCandidate, IsActive: true, Color: "#6366f1"},
		{ID: 4, Name: "Offer", Type: StatusTypeCandidate, IsActive: true, Color: "#f59e0b"},
		{ID: 5, Name: "Hired", Type: StatusTypeCandidate, IsActive: true, Color: "#10b981"},
		{ID: 6, Name: "Rejected", Type: StatusTypeCandidate, IsActive: true, Color: "#ef4444"},
		{ID: 7, Name: "On hold", Type: StatusTypeCandidate, IsActive: false, Color: "#a855f7"},
		{ID: 8, Name: "Client review", Type: StatusTypeRecruiter, IsActive: true, Color: "#14b8a6"},
	}
}
