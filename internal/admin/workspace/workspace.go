package workspace

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"finitefield.org/recruit-admin/internal/admin/candidates"
	"finitefield.org/recruit-admin/internal/admin/optimistic"
	"finitefield.org/recruit-admin/internal/admin/pipeline"
)

// Workspace holds the editing panels of one candidate for one session.
type Workspace struct {
	CandidateID int64

	Skills     *optimistic.Panel[string]
	Experience *optimistic.Panel[candidates.Experience]
	Jobs       *optimistic.Panel[candidates.JobAssignment]
	Tasks      *optimistic.Panel[candidates.Task]

	svc      candidates.Service
	statuses *pipeline.Cache
	logger   *zap.Logger

	mu        sync.Mutex
	token     string
	candidate candidates.Candidate
	registry  *pipeline.Registry
	lastUsed  time.Time
}

func newWorkspace(c candidates.Candidate, svc candidates.Service, statuses *pipeline.Cache, notifier optimistic.Notifier, logger *zap.Logger) *Workspace {
	ws := &Workspace{
		CandidateID: c.ID,
		svc:         svc,
		statuses:    statuses,
		logger:      logger,
		candidate:   c,
	}

	ws.Skills = optimistic.NewPanel(c.Skills, optimistic.Options[string]{
		Attribute: candidates.AttributeSkills,
		Persist:   persistAttribute[string](ws, candidates.AttributeSkills),
		Refetch:   ws.Refetch,
		Validate:  candidates.ValidateSkills,
		Notifier:  notifier,
		Logger:    logger,
	})
	ws.Experience = optimistic.NewPanel(c.Experience, optimistic.Options[candidates.Experience]{
		Attribute: candidates.AttributeExperience,
		Persist:   persistAttribute[candidates.Experience](ws, candidates.AttributeExperience),
		Refetch:   ws.Refetch,
		Validate:  candidates.ValidateExperience,
		Notifier:  notifier,
		Logger:    logger,
	})
	ws.Jobs = optimistic.NewPanel(c.Jobs, optimistic.Options[candidates.JobAssignment]{
		Attribute:      candidates.AttributeJobs,
		Persist:        persistAttribute[candidates.JobAssignment](ws, candidates.AttributeJobs),
		Refetch:        ws.Refetch,
		Validate:       candidates.ValidateJobs,
		Notifier:       notifier,
		Logger:         logger,
		SuccessMessage: "選考ステータスを更新しました。",
	})
	ws.Tasks = optimistic.NewPanel(c.Tasks, optimistic.Options[candidates.Task]{
		Attribute: candidates.AttributeTasks,
		Persist:   persistAttribute[candidates.Task](ws, candidates.AttributeTasks),
		Refetch:   ws.Refetch,
		Validate:  candidates.ValidateTasks,
		Notifier:  notifier,
		Logger:    logger,
	})
	return ws
}

func persistAttribute[T any](ws *Workspace, attribute string) optimistic.Persister[T] {
	return func(ctx context.Context, values []T) error {
		return ws.svc.UpdateAttribute(ctx, ws.Token(), ws.CandidateID, attribute, values)
	}
}

// Candidate returns the candidate as last loaded from the backend.
func (ws *Workspace) Candidate() candidates.Candidate {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	return ws.candidate
}

// Registry returns the pipeline stages the workspace was opened with. It may be
// nil when the catalogue could not be loaded.
func (ws *Workspace) Registry() *pipeline.Registry {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	return ws.registry
}

// Token returns the bearer token of the most recent request.
func (ws *Workspace) Token() string {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	return ws.token
}

// Busy reports whether any panel has a commit in flight.
func (ws *Workspace) Busy() bool {
	return ws.Skills.InFlight() || ws.Experience.InFlight() || ws.Jobs.InFlight() || ws.Tasks.InFlight()
}

// Refetch reloads the candidate and resets every panel to the authoritative values.
func (ws *Workspace) Refetch(ctx context.Context) {
	c, err := ws.svc.Get(ctx, ws.Token(), ws.CandidateID)
	if err != nil {
		ws.logger.Warn("candidate refetch failed", zap.Error(err))
		return
	}
	ws.apply(c)
}

func (ws *Workspace) apply(c candidates.Candidate) {
	ws.mu.Lock()
	ws.candidate = c
	ws.mu.Unlock()

	ws.Skills.Reset(c.Skills)
	ws.Experience.Reset(c.Experience)
	ws.Jobs.Reset(c.Jobs)
	ws.Tasks.Reset(c.Tasks)
}

// SetStage moves one job assignment to stage, optimistically.
func (ws *Workspace) SetStage(ctx context.Context, jobID int64, stage string) (*optimistic.Pending, error) {
	return pipeline.SetStage(ctx, ws.Jobs, ws.Registry(), stage, pipeline.StageChange[candidates.JobAssignment]{
		ItemKey: fmt.Sprintf("job:%d", jobID),
		Match:   func(j candidates.JobAssignment) bool { return j.JobID == jobID },
		Apply: func(j candidates.JobAssignment, stage string) candidates.JobAssignment {
			j.Status = stage
			return j
		},
		Persist: func(ctx context.Context, stage string) error {
			return ws.svc.UpdateAssignment(ctx, ws.Token(), candidates.AssignmentUpdate{
				EntityID: ws.CandidateID,
				SubID:    jobID,
				Field:    "status",
				Value:    stage,
			})
		},
	})
}

// touch records a request against the workspace and refreshes its token and registry.
func (ws *Workspace) touch(ctx context.Context, token string, now time.Time) {
	ws.mu.Lock()
	ws.token = token
	ws.lastUsed = now
	ws.mu.Unlock()

	if ws.statuses == nil {
		return
	}
	reg, err := ws.statuses.Registry(ctx, token)
	if err != nil {
		ws.logger.Warn("status catalogue unavailable", zap.Error(err))
		return
	}
	ws.mu.Lock()
	ws.registry = reg
	ws.mu.Unlock()
}

func (ws *Workspace) idleSince() time.Time {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	return ws.lastUsed
}

func (ws *Workspace) dispose() {
	ws.Skills.Dispose()
	ws.Experience.Dispose()
	ws.Jobs.Dispose()
	ws.Tasks.Dispose()
}
