package candidates

import (
	"context"
	"errors"
	"time"

	"finitefield.org/recruit-admin/internal/admin/backend"
)

var (
	// ErrCandidateNotFound indicates the requested candidate does not exist.
	ErrCandidateNotFound = errors.New("candidate not found")
	// ErrUnknownAttribute indicates an attribute outside the editable set.
	ErrUnknownAttribute = errors.New("candidate attribute is unknown")
)

// APIError is returned when the backend rejects a request.
type APIError = backend.APIError

// Editable list attributes of a candidate.
const (
	AttributeSkills     = "skills"
	AttributeExperience = "experience"
	AttributeJobs       = "jobs"
	AttributeTasks      = "tasks"
)

// Attributes lists the editable attributes in display order.
var Attributes = []string{AttributeSkills, AttributeExperience, AttributeJobs, AttributeTasks}

// Service exposes candidate records backed by the ATS API.
type Service interface {
	// List returns candidates matching the query.
	List(ctx context.Context, token string, query ListQuery) (ListResult, error)
	// Get returns one candidate with its list attributes.
	Get(ctx context.Context, token string, id int64) (Candidate, error)
	// UpdateAttribute replaces one list attribute of a candidate.
	UpdateAttribute(ctx context.Context, token string, id int64, attribute string, value any) error
	// UpdateAssignment changes one field of one job assignment.
	UpdateAssignment(ctx context.Context, token string, update AssignmentUpdate) error
}

// Candidate is the authoritative record as returned by the backend.
type Candidate struct {
	ID         int64           `json:"id"`
	Name       string          `json:"name"`
	Email      string          `json:"email"`
	Headline   string          `json:"headline"`
	Skills     []string        `json:"skills"`
	Experience []Experience    `json:"experience"`
	Jobs       []JobAssignment `json:"jobs"`
	Tasks      []Task          `json:"tasks"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// Experience is one entry of a candidate's work history.
type Experience struct {
	Company  string `json:"company"`
	Role     string `json:"role"`
	Duration string `json:"duration"`
}

// JobAssignment links a candidate to a job at a pipeline stage.
type JobAssignment struct {
	JobID    int64  `json:"job_id"`
	JobTitle string `json:"job_title"`
	Status   string `json:"status"`
}

// Task is a follow-up item attached to a candidate.
type Task struct {
	Title string `json:"title"`
	Done  bool   `json:"done"`
	Due   string `json:"due"`
}

// AssignmentUpdate is the single-field payload for job assignment changes.
type AssignmentUpdate struct {
	EntityID int64  `json:"entityId"`
	SubID    int64  `json:"subId"`
	Field    string `json:"field"`
	Value    string `json:"value"`
}

// ListQuery filters the candidate list.
type ListQuery struct {
	Search string
	Stage  string
	Page   int
	Size   int
}

// ListResult is one page of candidates.
type ListResult struct {
	Candidates []Summary `json:"candidates"`
	Total      int       `json:"total"`
	Page       int       `json:"page"`
	Size       int       `json:"size"`
}

// Summary is the list-row projection of a candidate.
type Summary struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Headline  string    `json:"headline"`
	Stages    []string  `json:"stages"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Summarize projects a candidate into a list row.
func Summarize(c Candidate) Summary {
	stages := make([]string, 0, len(c.Jobs))
	for _, job := range c.Jobs {
		stages = append(stages, job.Status)
	}
	return Summary{
		ID:        c.ID,
		Name:      c.Name,
		Email:     c.Email,
		Headline:  c.Headline,
		Stages:    stages,
		UpdatedAt: c.UpdatedAt,
	}
}

// ValidAttribute reports whether name is an editable attribute.
func ValidAttribute(name string) bool {
	for _, attr := range Attributes {
		if attr == name {
			return true
		}
	}
	return false
}
