package candidates

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"
)

// StaticService keeps candidates in memory for local development and tests.
type StaticService struct {
	mu         sync.Mutex
	candidates map[int64]Candidate
	failures   map[string]string
	delay      time.Duration
	now        func() time.Time
	updates    []string
}

// NewStaticService constructs a StaticService. A nil slice is replaced by seeded candidates.
func NewStaticService(seed []Candidate) *StaticService {
	if seed == nil {
		seed = SeedCandidates()
	}
	svc := &StaticService{
		candidates: make(map[int64]Candidate, len(seed)),
		failures:   make(map[string]string),
		now:        time.Now,
	}
	for _, c := range seed {
		svc.candidates[c.ID] = cloneCandidate(c)
	}
	return svc
}

// SetDelay makes every update wait d before applying, to simulate a slow backend.
func (s *StaticService) SetDelay(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delay = d
}

// FailNext makes the next update of attribute fail with message. Job assignment
// updates use the "jobs" attribute.
func (s *StaticService) FailNext(attribute, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[attribute] = message
}

// Updates returns the attributes updated so far, in order.
func (s *StaticService) Updates() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.updates...)
}

// List filters candidates by name, email or headline and by stage.
func (s *StaticService) List(_ context.Context, _ string, query ListQuery) (ListResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	search := strings.ToLower(strings.TrimSpace(query.Search))
	stage := strings.TrimSpace(query.Stage)
	var rows []Summary
	for _, c := range s.candidates {
		if search != "" && !strings.Contains(strings.ToLower(c.Name+" "+c.Email+" "+c.Headline), search) {
			continue
		}
		if stage != "" && !hasStage(c, stage) {
			continue
		}
		rows = append(rows, Summarize(c))
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ID < rows[j].ID })

	size := query.Size
	if size <= 0 {
		size = 20
	}
	page := query.Page
	if page <= 0 {
		page = 1
	}
	total := len(rows)
	start := (page - 1) * size
	if start > total {
		start = total
	}
	end := start + size
	if end > total {
		end = total
	}
	return ListResult{Candidates: rows[start:end], Total: total, Page: page, Size: size}, nil
}

// Get returns a copy of the stored candidate.
func (s *StaticService) Get(_ context.Context, _ string, id int64) (Candidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.candidates[id]
	if !ok {
		return Candidate{}, ErrCandidateNotFound
	}
	return cloneCandidate(c), nil
}

// UpdateAttribute decodes value the same way the backend would and stores it.
func (s *StaticService) UpdateAttribute(ctx context.Context, _ string, id int64, attribute string, value any) error {
	if !ValidAttribute(attribute) {
		return fmt.Errorf("%w: %q", ErrUnknownAttribute, attribute)
	}
	encoded, err := EncodeAttribute(value)
	if err != nil {
		return err
	}
	if err := s.wait(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure(attribute); err != nil {
		return err
	}
	c, ok := s.candidates[id]
	if !ok {
		return ErrCandidateNotFound
	}
	var target any
	switch attribute {
	case AttributeSkills:
		target = &c.Skills
	case AttributeExperience:
		target = &c.Experience
	case AttributeJobs:
		target = &c.Jobs
	case AttributeTasks:
		target = &c.Tasks
	}
	if err := json.Unmarshal([]byte(encoded), target); err != nil {
		return &APIError{StatusCode: http.StatusBadRequest, Message: "入力形式が正しくありません。"}
	}
	c.UpdatedAt = s.now()
	s.candidates[id] = c
	s.updates = append(s.updates, attribute)
	return nil
}

// UpdateAssignment changes one field of a job assignment.
func (s *StaticService) UpdateAssignment(ctx context.Context, _ string, update AssignmentUpdate) error {
	if err := s.wait(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure(AttributeJobs); err != nil {
		return err
	}
	c, ok := s.candidates[update.EntityID]
	if !ok {
		return ErrCandidateNotFound
	}
	jobs := append([]JobAssignment(nil), c.Jobs...)
	idx := -1
	for i, job := range jobs {
		if job.JobID == update.SubID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return &APIError{StatusCode: http.StatusNotFound, Message: "求人の割り当てが見つかりません。"}
	}
	switch update.Field {
	case "status":
		jobs[idx].Status = update.Value
	case "job_title":
		jobs[idx].JobTitle = update.Value
	default:
		return &APIError{StatusCode: http.StatusBadRequest, Message: fmt.Sprintf("更新できない項目です: %s", update.Field)}
	}
	c.Jobs = jobs
	c.UpdatedAt = s.now()
	s.candidates[update.EntityID] = c
	s.updates = append(s.updates, AttributeJobs+"."+update.Field)
	return nil
}

func (s *StaticService) wait(ctx context.Context) error {
	s.mu.Lock()
	delay := s.delay
	s.mu.Unlock()
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// takeFailure must be called with s.mu held.
func (s *StaticService) takeFailure(attribute string) error {
	msg, ok := s.failures[attribute]
	if !ok {
		return nil
	}
	delete(s.failures, attribute)
	return &APIError{StatusCode: http.StatusConflict, Message: msg}
}

func hasStage(c Candidate, stage string) bool {
	for _, job := range c.Jobs {
		if job.Status == stage {
			return true
		}
	}
	return false
}

func cloneCandidate(c Candidate) Candidate {
	c.Skills = append([]string(nil), c.Skills...)
	c.Experience = append([]Experience(nil), c.Experience...)
	c.Jobs = append([]JobAssignment(nil), c.Jobs...)
	c.Tasks = append([]Task(nil), c.Tasks...)
	return c
}

// SeedCandidates returns demo records.
func SeedCandidates() []Candidate {
	updated := time.Date(2025, 6, 25, 10, 0, 0, 0, time.FixedZone("JST", 9*60*60))
	return []Candidate{
		{
			ID:       1001,
			Name:     "Aiko Tanaka",
			Email:    "aiko.tanaka@example.com",
			Headline: "Backend engineer, 6 years",
			Skills:   []string{"Go", "PostgreSQL", "Kubernetes"},
			Experience: []Experience{
				{Company: "Finite Field", Role: "Backend Engineer", Duration: "2021-2025"},
				{Company: "Example KK", Role: "Web Developer", Duration: "2019-2021"},
			},
			Jobs: []JobAssignment{
				{JobID: 10, JobTitle: "Backend Engineer", Status: "Screening"},
				{JobID: 11, JobTitle: "Site Reliability Engineer", Status: "Applied"},
			},
			Tasks: []Task{
				{Title: "一次面接の日程調整", Due: "2025-07-01"},
				{Title: "推薦状を確認", Done: true, Due: "2025-06-20"},
			},
			UpdatedAt: updated,
		},
		{
			ID:         1002,
			Name:       "Kenji Watanabe",
			Email:      "kenji.watanabe@example.com",
			Headline:   "Product designer",
			Skills:     []string{"Figma", "User research"},
			Experience: []Experience{{Company: "Studio North", Role: "Designer", Duration: "2020-2025"}},
			Jobs:       []JobAssignment{{JobID: 12, JobTitle: "Product Designer", Status: "Interview"}},
			UpdatedAt:  updated.Add(-48 * time.Hour),
		},
		{
			ID:        1003,
			Name:      "Mei Kobayashi",
			Email:     "mei.kobayashi@example.com",
			Headline:  "Data analyst",
			Skills:    []string{"SQL", "Python"},
			UpdatedAt: updated.Add(-96 * time.Hour),
		},
	}
}
