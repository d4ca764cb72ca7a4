package ui

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"finitefield.org/recruit-admin/internal/admin/activity"
	"finitefield.org/recruit-admin/internal/admin/candidates"
	custommw "finitefield.org/recruit-admin/internal/admin/httpserver/middleware"
	"finitefield.org/recruit-admin/internal/admin/observability"
	"finitefield.org/recruit-admin/internal/admin/optimistic"
	"finitefield.org/recruit-admin/internal/admin/pipeline"
	"finitefield.org/recruit-admin/internal/admin/workspace"
)

// Dependencies collects external services required by the UI handlers.
type Dependencies struct {
	Candidates candidates.Service
	Statuses   *pipeline.Cache
	Activity   activity.Service
	Workspaces *workspace.Manager
	Now        func() time.Time
}

// Handlers exposes HTTP handlers for admin UI pages and fragments.
type Handlers struct {
	candidates candidates.Service
	statuses   *pipeline.Cache
	activity   activity.Service
	workspaces *workspace.Manager
	panels     map[string]panelBinding
	now        func() time.Time
}

// NewHandlers wires the UI handler set. Missing services fall back to the in-memory implementations.
func NewHandlers(deps Dependencies) *Handlers {
	svc := deps.Candidates
	if svc == nil {
		svc = candidates.NewStaticService(nil)
	}
	statuses := deps.Statuses
	if statuses == nil {
		statuses = pipeline.NewCache(pipeline.NewStaticService(nil))
	}
	feed := deps.Activity
	if feed == nil {
		feed = activity.NewStaticService(nil)
	}
	workspaces := deps.Workspaces
	if workspaces == nil {
		workspaces = workspace.NewManager(svc, statuses, nil)
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &Handlers{
		candidates: svc,
		statuses:   statuses,
		activity:   feed,
		workspaces: workspaces,
		panels:     newPanelBindings(),
		now:        now,
	}
}

// Home redirects the base path to the candidate list.
func (h *Handlers) Home(w http.ResponseWriter, r *http.Request) {
	target := joinBasePath(custommw.BasePathFromContext(r.Context()), "/candidates")
	http.Redirect(w, r, target, http.StatusFound)
}

func currentUser(w http.ResponseWriter, r *http.Request) (*custommw.User, bool) {
	user, ok := custommw.UserFromContext(r.Context())
	if !ok || user == nil {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return nil, false
	}
	return user, true
}

func candidateIDParam(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "candidateID"), 10, 64)
	return id, err == nil && id > 0
}

// openWorkspace resolves the session's workspace for the candidate in the URL,
// writing an error response when it cannot.
func (h *Handlers) openWorkspace(w http.ResponseWriter, r *http.Request) (*workspace.Workspace, string, bool) {
	user, ok := currentUser(w, r)
	if !ok {
		return nil, "", false
	}
	id, ok := candidateIDParam(r)
	if !ok {
		http.NotFound(w, r)
		return nil, "", false
	}
	sess, ok := custommw.SessionFromContext(r.Context())
	if !ok {
		http.Error(w, "セッションが見つかりません。再度ログインしてください。", http.StatusUnauthorized)
		return nil, "", false
	}

	ws, err := h.workspaces.Open(r.Context(), sess.ID(), user.Token, id)
	switch {
	case err == nil:
		return ws, sess.ID(), true
	case errors.Is(err, candidates.ErrCandidateNotFound):
		http.NotFound(w, r)
	default:
		observability.FromContext(r.Context()).Error("open workspace failed", zap.Int64("candidate_id", id), zap.Error(err))
		http.Error(w, "候補者の取得に失敗しました。時間を置いて再度お試しください。", http.StatusBadGateway)
	}
	return nil, "", false
}

// triggerToast drains the session's queued notices into a single HX-Trigger
// "toasts" event carrying every notice, oldest first. Any success also asks the
// activity feed to refresh.
func (h *Handlers) triggerToast(w http.ResponseWriter, r *http.Request, sessionID string) {
	notices := h.workspaces.Outbox().Drain(sessionID)
	if len(notices) == 0 {
		return
	}
	if err := custommw.TriggerEvents(w, toastEvents(notices)); err != nil {
		observability.FromContext(r.Context()).Warn("toast trigger failed", zap.Error(err))
	}
}

func toastEvents(notices []optimistic.Notice) map[string]any {
	items := make([]map[string]string, 0, len(notices))
	events := map[string]any{}
	for _, n := range notices {
		tone := "success"
		if n.Level == optimistic.LevelError {
			tone = "danger"
		} else {
			events["refresh-activity"] = nil
		}
		items = append(items, map[string]string{"message": n.Message, "tone": tone})
	}
	events["toasts"] = map[string]any{"items": items}
	return events
}

func render(w http.ResponseWriter, r *http.Request, component templ.Component) {
	templ.Handler(component).ServeHTTP(w, r)
}
