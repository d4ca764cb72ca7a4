package ui

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"finitefield.org/recruit-admin/internal/admin/candidates"
	"finitefield.org/recruit-admin/internal/admin/optimistic"
	"finitefield.org/recruit-admin/internal/admin/pipeline"
	candidatestpl "finitefield.org/recruit-admin/internal/admin/templates/candidates"
	"finitefield.org/recruit-admin/internal/admin/templates/helpers"
	"finitefield.org/recruit-admin/internal/admin/workspace"
)

// panelBinding adapts one typed optimistic panel of a workspace to form posts and view data.
type panelBinding interface {
	attribute() string
	view(ws *workspace.Workspace, links panelLinks, canEdit bool) candidatestpl.PanelData
	generation(ws *workspace.Workspace) uint64
	begin(ws *workspace.Workspace) error
	cancel(ws *workspace.Workspace)
	sync(ws *workspace.Workspace, form url.Values) error
	appendRow(ws *workspace.Workspace) error
	removeRow(ws *workspace.Workspace, key string) error
	commit(ctx context.Context, ws *workspace.Workspace) (*optimistic.Pending, error)
}

type fieldSpec[T any] struct {
	name  string
	label string
	kind  string
	get   func(T) string
	set   func(*T, string)
}

type binding[T any] struct {
	name   string
	title  string
	empty  string
	panel  func(*workspace.Workspace) *optimistic.Panel[T]
	fields []fieldSpec[T]
	// rowKey names displayed rows. Item commits use the same key for staleness tracking.
	rowKey func(index int, item T) string
	// stageURL is set for lists whose rows can move between pipeline stages.
	stageURL func(links panelLinks, item T) string
}

type panelLinks struct {
	base string
}

func (l panelLinks) action(verb string) string {
	if verb == "" {
		return l.base
	}
	return l.base + "/" + verb
}

func (b *binding[T]) attribute() string { return b.name }

func (b *binding[T]) generation(ws *workspace.Workspace) uint64 { return b.panel(ws).Generation() }

func (b *binding[T]) begin(ws *workspace.Workspace) error { return b.panel(ws).Begin() }

func (b *binding[T]) cancel(ws *workspace.Workspace) { b.panel(ws).Cancel() }

func (b *binding[T]) appendRow(ws *workspace.Workspace) error {
	return b.panel(ws).Edit(func(l *optimistic.List[T]) { l.AppendEmpty() })
}

func (b *binding[T]) removeRow(ws *workspace.Workspace, key string) error {
	return b.panel(ws).Edit(func(l *optimistic.List[T]) { l.Remove(key) })
}

func (b *binding[T]) commit(ctx context.Context, ws *workspace.Workspace) (*optimistic.Pending, error) {
	return b.panel(ws).Commit(ctx)
}

// sync copies posted field values into the draft. Inputs are named
// item.<key>.<field>; rows whose marker item.<key>._row is absent are left alone
// so unchecked checkboxes can be told apart from rows that were not rendered.
func (b *binding[T]) sync(ws *workspace.Workspace, form url.Values) error {
	return b.panel(ws).Edit(func(l *optimistic.List[T]) {
		for _, item := range l.Items() {
			prefix := "item." + item.Key + "."
			if _, ok := form[prefix+"_row"]; !ok {
				continue
			}
			l.Patch(item.Key, func(v *T) {
				for _, f := range b.fields {
					raw := form.Get(prefix + f.name)
					if f.kind == candidatestpl.FieldCheckbox {
						if raw != "" {
							raw = "on"
						}
					} else {
						raw = candidates.SanitizeText(raw)
					}
					f.set(v, raw)
				}
			})
		}
	})
}

func (b *binding[T]) view(ws *workspace.Workspace, links panelLinks, canEdit bool) candidatestpl.PanelData {
	panel := b.panel(ws)
	state := panel.State()
	registry := ws.Registry()

	data := candidatestpl.PanelData{
		Attribute:  b.name,
		Title:      b.title,
		State:      state.String(),
		CanEdit:    canEdit,
		Polling:    panel.InFlight(),
		Generation: panel.Generation(),
		EmptyText:  b.empty,
		URL:        links.action(""),
		EditURL:    links.action("edit"),
		CancelURL:  links.action("cancel"),
		SaveURL:    links.action("save"),
		AppendURL:  links.action("append"),
		RemoveURL:  links.action("remove"),
	}
	for _, f := range b.fields {
		data.Columns = append(data.Columns, candidatestpl.Column{Field: f.name, Label: f.label, Kind: f.kind})
	}

	if state == optimistic.StateEditing {
		for _, item := range panel.Draft() {
			data.Rows = append(data.Rows, b.row(item.Key, item.Value, registry, ""))
		}
		return data
	}
	for i, value := range panel.Displayed() {
		stageURL := ""
		if b.stageURL != nil && canEdit {
			stageURL = b.stageURL(links, value)
		}
		data.Rows = append(data.Rows, b.row(b.rowKey(i, value), value, registry, stageURL))
	}
	return data
}

func (b *binding[T]) row(key string, value T, registry *pipeline.Registry, stageURL string) candidatestpl.PanelRow {
	row := candidatestpl.PanelRow{Key: key, StageURL: stageURL}
	for _, f := range b.fields {
		raw := f.get(value)
		cell := candidatestpl.Cell{Field: f.name, Kind: f.kind, Value: raw}
		switch f.kind {
		case candidatestpl.FieldCheckbox:
			cell.Checked = raw == "on"
		case candidatestpl.FieldStage:
			cell.Style = helpers.StageDotStyle(registry.ColorOf(raw))
			cell.Options = stageOptions(registry, raw)
		}
		row.Cells = append(row.Cells, cell)
	}
	return row
}

// stageOptions lists the selectable stages. A current value missing from the
// catalogue is kept first so the select does not silently change it.
func stageOptions(registry *pipeline.Registry, current string) []candidatestpl.StageOption {
	var opts []candidatestpl.StageOption
	if _, ok := registry.Lookup(current); !ok && current != "" {
		opts = append(opts, candidatestpl.StageOption{Name: current, Style: helpers.StageDotStyle(pipeline.DefaultColor), Selected: true})
	}
	for _, stage := range registry.Stages() {
		opts = append(opts, candidatestpl.StageOption{
			Name:     stage.Name,
			Style:    helpers.StageDotStyle(stage.Color),
			Selected: stage.Name == current,
		})
	}
	return opts
}

func indexKey(index int, _ any) string { return strconv.Itoa(index) }

func boolField(v bool) string {
	if v {
		return "on"
	}
	return ""
}

func newPanelBindings() map[string]panelBinding {
	skills := &binding[string]{
		name:   candidates.AttributeSkills,
		title:  "スキル",
		empty:  "スキルは登録されていません。",
		panel:  func(ws *workspace.Workspace) *optimistic.Panel[string] { return ws.Skills },
		rowKey: func(i int, v string) string { return indexKey(i, v) },
		fields: []fieldSpec[string]{{
			name:  "name",
			label: "スキル",
			kind:  candidatestpl.FieldText,
			get:   func(s string) string { return s },
			set:   func(s *string, v string) { *s = v },
		}},
	}

	experience := &binding[candidates.Experience]{
		name:   candidates.AttributeExperience,
		title:  "職歴",
		empty:  "職歴は登録されていません。",
		panel:  func(ws *workspace.Workspace) *optimistic.Panel[candidates.Experience] { return ws.Experience },
		rowKey: func(i int, v candidates.Experience) string { return indexKey(i, v) },
		fields: []fieldSpec[candidates.Experience]{
			{
				name: "company", label: "会社名", kind: candidatestpl.FieldText,
				get: func(e candidates.Experience) string { return e.Company },
				set: func(e *candidates.Experience, v string) { e.Company = v },
			},
			{
				name: "role", label: "役職", kind: candidatestpl.FieldText,
				get: func(e candidates.Experience) string { return e.Role },
				set: func(e *candidates.Experience, v string) { e.Role = v },
			},
			{
				name: "duration", label: "期間", kind: candidatestpl.FieldText,
				get: func(e candidates.Experience) string { return e.Duration },
				set: func(e *candidates.Experience, v string) { e.Duration = v },
			},
		},
	}

	jobs := &binding[candidates.JobAssignment]{
		name:   candidates.AttributeJobs,
		title:  "応募求人",
		empty:  "応募中の求人はありません。",
		panel:  func(ws *workspace.Workspace) *optimistic.Panel[candidates.JobAssignment] { return ws.Jobs },
		rowKey: func(_ int, j candidates.JobAssignment) string { return fmt.Sprintf("job:%d", j.JobID) },
		stageURL: func(links panelLinks, j candidates.JobAssignment) string {
			return strings.TrimSuffix(links.base, "/panels/"+candidates.AttributeJobs) + fmt.Sprintf("/jobs/%d/stage", j.JobID)
		},
		fields: []fieldSpec[candidates.JobAssignment]{
			{
				name: "job_id", label: "求人ID", kind: candidatestpl.FieldText,
				get: func(j candidates.JobAssignment) string {
					if j.JobID == 0 {
						return ""
					}
					return strconv.FormatInt(j.JobID, 10)
				},
				set: func(j *candidates.JobAssignment, v string) {
					id, _ := strconv.ParseInt(v, 10, 64)
					j.JobID = id
				},
			},
			{
				name: "job_title", label: "求人", kind: candidatestpl.FieldText,
				get: func(j candidates.JobAssignment) string { return j.JobTitle },
				set: func(j *candidates.JobAssignment, v string) { j.JobTitle = v },
			},
			{
				name: "status", label: "選考ステージ", kind: candidatestpl.FieldStage,
				get: func(j candidates.JobAssignment) string { return j.Status },
				set: func(j *candidates.JobAssignment, v string) { j.Status = v },
			},
		},
	}

	tasks := &binding[candidates.Task]{
		name:   candidates.AttributeTasks,
		title:  "タスク",
		empty:  "タスクはありません。",
		panel:  func(ws *workspace.Workspace) *optimistic.Panel[candidates.Task] { return ws.Tasks },
		rowKey: func(i int, v candidates.Task) string { return indexKey(i, v) },
		fields: []fieldSpec[candidates.Task]{
			{
				name: "title", label: "タスク", kind: candidatestpl.FieldText,
				get: func(t candidates.Task) string { return t.Title },
				set: func(t *candidates.Task, v string) { t.Title = v },
			},
			{
				name: "due", label: "期限", kind: candidatestpl.FieldDate,
				get: func(t candidates.Task) string { return t.Due },
				set: func(t *candidates.Task, v string) { t.Due = v },
			},
			{
				name: "done", label: "完了", kind: candidatestpl.FieldCheckbox,
				get: func(t candidates.Task) string { return boolField(t.Done) },
				set: func(t *candidates.Task, v string) { t.Done = v == "on" },
			},
		},
	}

	bindings := make(map[string]panelBinding, len(candidates.Attributes))
	for _, b := range []panelBinding{skills, experience, jobs, tasks} {
		bindings[b.attribute()] = b
	}
	return bindings
}
