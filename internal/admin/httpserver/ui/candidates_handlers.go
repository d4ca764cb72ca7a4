package ui

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"finitefield.org/recruit-admin/internal/admin/activity"
	"finitefield.org/recruit-admin/internal/admin/candidates"
	custommw "finitefield.org/recruit-admin/internal/admin/httpserver/middleware"
	"finitefield.org/recruit-admin/internal/admin/observability"
	"finitefield.org/recruit-admin/internal/admin/rbac"
	candidatestpl "finitefield.org/recruit-admin/internal/admin/templates/candidates"
	"finitefield.org/recruit-admin/internal/admin/templates/helpers"
)

const defaultCandidatesPageSize = 20

// CandidatesPage renders the candidate index page with SSR.
func (h *Handlers) CandidatesPage(w http.ResponseWriter, r *http.Request) {
	data, ok := h.buildListData(w, r)
	if !ok {
		return
	}
	if sess, ok := custommw.SessionFromContext(r.Context()); ok {
		for _, id := range sess.RecentCandidates() {
			data.Recent = append(data.Recent, candidatestpl.RecentLink{
				Label: "#" + strconv.FormatInt(id, 10),
				URL:   candidatePath(data.BasePath, id),
			})
		}
	}
	render(w, r, candidatestpl.Index(data))
}

// CandidatesTable renders the candidate table fragment for htmx requests.
func (h *Handlers) CandidatesTable(w http.ResponseWriter, r *http.Request) {
	data, ok := h.buildListData(w, r)
	if !ok {
		return
	}
	pageURL := joinBasePath(data.BasePath, "/candidates")
	w.Header().Set("HX-Push-Url", helpers.BuildURL(pageURL, r.URL.RawQuery))
	render(w, r, candidatestpl.Table(data))
}

func (h *Handlers) buildListData(w http.ResponseWriter, r *http.Request) (candidatestpl.ListPageData, bool) {
	ctx := r.Context()
	user, ok := currentUser(w, r)
	if !ok {
		return candidatestpl.ListPageData{}, false
	}

	values := r.URL.Query()
	query := candidates.ListQuery{
		Search: candidates.SanitizeText(values.Get("search")),
		Stage:  strings.TrimSpace(values.Get("stage")),
		Page:   parsePositiveIntDefault(values.Get("page"), 1),
		Size:   parsePositiveIntDefault(values.Get("size"), defaultCandidatesPageSize),
	}

	basePath := custommw.BasePathFromContext(ctx)
	data := candidatestpl.ListPageData{
		Title:    "候補者",
		BasePath: basePath,
		TableURL: joinBasePath(basePath, "/candidates/table"),
		Search:   query.Search,
		Stage:    query.Stage,
		Page:     query.Page,
	}

	registry, err := h.statuses.Registry(ctx, user.Token)
	if err != nil {
		observability.FromContext(ctx).Warn("status catalogue unavailable", zap.Error(err))
	}
	for _, stage := range registry.Stages() {
		data.StageNames = append(data.StageNames, candidatestpl.StageOption{
			Name:     stage.Name,
			Style:    helpers.StageDotStyle(stage.Color),
			Selected: stage.Name == query.Stage,
		})
	}

	result, err := h.candidates.List(ctx, user.Token, query)
	if err != nil {
		observability.FromContext(ctx).Error("candidates: list failed", zap.Error(err))
		data.Error = "候補者の取得に失敗しました。時間を置いて再度お試しください。"
		return data, true
	}

	data.Total = result.Total
	now := h.now()
	for _, s := range result.Candidates {
		row := candidatestpl.Row{
			ID:        s.ID,
			Name:      s.Name,
			Email:     s.Email,
			Headline:  s.Headline,
			DetailURL: candidatePath(basePath, s.ID),
			Updated:   helpers.Relative(s.UpdatedAt, now),
		}
		for _, stage := range s.Stages {
			row.Stages = append(row.Stages, candidatestpl.StageBadge{Name: stage, Style: helpers.StageDotStyle(registry.ColorOf(stage))})
		}
		data.Rows = append(data.Rows, row)
	}

	rawQuery := r.URL.RawQuery
	listURL := joinBasePath(basePath, "/candidates")
	if query.Page > 1 {
		data.PrevURL = helpers.BuildURL(listURL, helpers.SetRawQuery(rawQuery, "page", strconv.Itoa(query.Page-1)))
	}
	if query.Page*query.Size < result.Total {
		data.NextURL = helpers.BuildURL(listURL, helpers.SetRawQuery(rawQuery, "page", strconv.Itoa(query.Page+1)))
	}
	return data, true
}

// CandidateDetail renders the candidate page with one panel per editable attribute.
func (h *Handlers) CandidateDetail(w http.ResponseWriter, r *http.Request) {
	ws, _, ok := h.openWorkspace(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	basePath := custommw.BasePathFromContext(ctx)
	c := ws.Candidate()

	if sess, ok := custommw.SessionFromContext(ctx); ok {
		sess.RememberCandidate(c.ID)
	}

	data := candidatestpl.DetailPageData{
		Name:        c.Name,
		Email:       c.Email,
		Headline:    c.Headline,
		Updated:     helpers.Date(c.UpdatedAt, ""),
		BackURL:     joinBasePath(basePath, "/candidates"),
		ActivityURL: candidatePath(basePath, c.ID, "activity"),
	}
	for _, attr := range candidates.Attributes {
		binding := h.panels[attr]
		data.Panels = append(data.Panels, binding.view(ws, h.linksFor(basePath, c.ID, attr), canEditAttribute(r, attr)))
	}
	render(w, r, candidatestpl.Detail(data))
}

// CandidateActivity renders the activity feed fragment grouped by day.
func (h *Handlers) CandidateActivity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := candidateIDParam(r)
	if !ok {
		http.NotFound(w, r)
		return
	}

	items, err := h.activity.Feed(ctx, user.Token, id)
	if err != nil {
		observability.FromContext(ctx).Error("activity: feed failed", zap.Int64("candidate_id", id), zap.Error(err))
		render(w, r, candidatestpl.Activity(candidatestpl.ActivityData{Error: "アクティビティの取得に失敗しました。"}))
		return
	}

	var data candidatestpl.ActivityData
	for _, group := range activity.GroupByDay(items, activity.Timestamp) {
		g := candidatestpl.ActivityGroup{Date: group.Date, Label: helpers.DayLabel(group.Date)}
		for _, item := range group.Items {
			g.Entries = append(g.Entries, candidatestpl.ActivityEntry{
				Kind:    string(item.Kind),
				Actor:   item.Actor,
				Summary: item.Summary,
				Time:    timeOfDay(item.Timestamp),
			})
		}
		data.Groups = append(data.Groups, g)
	}
	render(w, r, candidatestpl.Activity(data))
}

// RefreshStatuses reloads the status catalogue. On failure the previous catalogue stays in use.
func (h *Handlers) RefreshStatuses(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	if _, err := h.statuses.Refresh(r.Context(), user.Token); err != nil {
		observability.FromContext(r.Context()).Warn("status catalogue refresh failed", zap.Error(err))
		_ = custommw.TriggerEvents(w, map[string]any{"toast": map[string]string{"message": "選考ステージの再読み込みに失敗しました。", "tone": "danger"}})
		w.WriteHeader(http.StatusBadGateway)
		return
	}
	_ = custommw.TriggerEvents(w, map[string]any{"toast": map[string]string{"message": "選考ステージを再読み込みしました。", "tone": "success"}})
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) linksFor(basePath string, candidateID int64, attribute string) panelLinks {
	return panelLinks{base: candidatePath(basePath, candidateID, "panels", url.PathEscape(attribute))}
}

func canEditAttribute(r *http.Request, attribute string) bool {
	user, ok := custommw.UserFromContext(r.Context())
	if !ok || user == nil {
		return false
	}
	return rbac.HasCapability(user.Roles, rbac.CapabilityForAttribute(attribute))
}

// timeOfDay extracts HH:MM from an ISO-like timestamp.
func timeOfDay(ts string) string {
	idx := strings.IndexAny(ts, "T ")
	if idx < 0 || len(ts) < idx+6 {
		return ""
	}
	return ts[idx+1 : idx+6]
}
