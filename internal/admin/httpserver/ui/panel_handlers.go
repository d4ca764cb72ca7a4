package ui

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	custommw "finitefield.org/recruit-admin/internal/admin/httpserver/middleware"
	"finitefield.org/recruit-admin/internal/admin/observability"
	"finitefield.org/recruit-admin/internal/admin/optimistic"
	"finitefield.org/recruit-admin/internal/admin/pipeline"
	candidatestpl "finitefield.org/recruit-admin/internal/admin/templates/candidates"
	"finitefield.org/recruit-admin/internal/admin/workspace"
)

// errStaleDraft rejects edit forms rendered before the panel's latest commit.
var errStaleDraft = errors.New("ui: draft form is older than the panel")

type panelRequest struct {
	ws        *workspace.Workspace
	sessionID string
	binding   panelBinding
	links     panelLinks
	canEdit   bool
}

func (h *Handlers) resolvePanel(w http.ResponseWriter, r *http.Request) (panelRequest, bool) {
	binding, ok := h.panels[chi.URLParam(r, "attribute")]
	if !ok {
		http.NotFound(w, r)
		return panelRequest{}, false
	}
	ws, sessionID, ok := h.openWorkspace(w, r)
	if !ok {
		return panelRequest{}, false
	}
	basePath := custommw.BasePathFromContext(r.Context())
	return panelRequest{
		ws:        ws,
		sessionID: sessionID,
		binding:   binding,
		links:     h.linksFor(basePath, ws.CandidateID, binding.attribute()),
		canEdit:   canEditAttribute(r, binding.attribute()),
	}, true
}

// resolveEditablePanel is resolvePanel for mutations; staff without the
// attribute's capability receive 403.
func (h *Handlers) resolveEditablePanel(w http.ResponseWriter, r *http.Request) (panelRequest, bool) {
	req, ok := h.resolvePanel(w, r)
	if !ok {
		return req, false
	}
	if !req.canEdit {
		custommw.Forbidden(w, r)
		return req, false
	}
	return req, true
}

// syncDraft copies the posted edit form into the draft unless the form carries
// a generation other than the panel's current one.
func (req panelRequest) syncDraft(r *http.Request) error {
	if raw := r.PostFormValue("generation"); raw != "" {
		gen, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || gen != req.binding.generation(req.ws) {
			return errStaleDraft
		}
	}
	return req.binding.sync(req.ws, r.PostForm)
}

func (h *Handlers) renderPanel(w http.ResponseWriter, r *http.Request, req panelRequest, message string) {
	data := req.binding.view(req.ws, req.links, req.canEdit)
	data.Error = message
	h.triggerToast(w, r, req.sessionID)
	render(w, r, candidatestpl.Panel(data))
}

// PanelFragment renders the current state of one panel. While a commit is in
// flight the fragment polls this endpoint until the outcome is visible.
func (h *Handlers) PanelFragment(w http.ResponseWriter, r *http.Request) {
	req, ok := h.resolvePanel(w, r)
	if !ok {
		return
	}
	h.renderPanel(w, r, req, "")
}

// PanelEdit enters edit mode.
func (h *Handlers) PanelEdit(w http.ResponseWriter, r *http.Request) {
	req, ok := h.resolveEditablePanel(w, r)
	if !ok {
		return
	}
	h.renderPanel(w, r, req, panelErrorMessage(r, req.binding.begin(req.ws)))
}

// PanelCancel discards the draft.
func (h *Handlers) PanelCancel(w http.ResponseWriter, r *http.Request) {
	req, ok := h.resolveEditablePanel(w, r)
	if !ok {
		return
	}
	req.binding.cancel(req.ws)
	h.renderPanel(w, r, req, "")
}

// PanelAppend syncs the posted draft and adds an empty row.
func (h *Handlers) PanelAppend(w http.ResponseWriter, r *http.Request) {
	req, ok := h.resolveEditablePanel(w, r)
	if !ok {
		return
	}
	if !parseForm(w, r) {
		return
	}
	err := req.syncDraft(r)
	if err == nil {
		err = req.binding.appendRow(req.ws)
	}
	h.renderPanel(w, r, req, panelErrorMessage(r, err))
}

// PanelRemove syncs the posted draft and removes the row named by key.
func (h *Handlers) PanelRemove(w http.ResponseWriter, r *http.Request) {
	req, ok := h.resolveEditablePanel(w, r)
	if !ok {
		return
	}
	if !parseForm(w, r) {
		return
	}
	err := req.syncDraft(r)
	if err == nil {
		err = req.binding.removeRow(req.ws, r.PostFormValue("key"))
	}
	h.renderPanel(w, r, req, panelErrorMessage(r, err))
}

// PanelSave syncs the posted draft and commits it optimistically. The response
// already shows the new value; the background result arrives via polling.
func (h *Handlers) PanelSave(w http.ResponseWriter, r *http.Request) {
	req, ok := h.resolveEditablePanel(w, r)
	if !ok {
		return
	}
	if !parseForm(w, r) {
		return
	}
	err := req.syncDraft(r)
	if err == nil {
		_, err = req.binding.commit(r.Context(), req.ws)
	}
	h.renderPanel(w, r, req, panelErrorMessage(r, err))
}

// JobStage moves one job assignment to the posted stage without entering edit mode.
func (h *Handlers) JobStage(w http.ResponseWriter, r *http.Request) {
	ws, sessionID, ok := h.openWorkspace(w, r)
	if !ok {
		return
	}
	jobID, err := strconv.ParseInt(chi.URLParam(r, "jobID"), 10, 64)
	if err != nil || jobID <= 0 {
		http.NotFound(w, r)
		return
	}
	if !parseForm(w, r) {
		return
	}

	binding := h.panels["jobs"]
	req := panelRequest{
		ws:        ws,
		sessionID: sessionID,
		binding:   binding,
		links:     h.linksFor(custommw.BasePathFromContext(r.Context()), ws.CandidateID, binding.attribute()),
		canEdit:   true,
	}

	_, err = ws.SetStage(r.Context(), jobID, r.PostFormValue("stage"))
	if errors.Is(err, optimistic.ErrItemNotFound) {
		http.NotFound(w, r)
		return
	}
	h.renderPanel(w, r, req, panelErrorMessage(r, err))
}

func parseForm(w http.ResponseWriter, r *http.Request) bool {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "リクエストの解析に失敗しました。", http.StatusBadRequest)
		return false
	}
	return true
}

// panelErrorMessage maps a panel operation error to the inline message shown in the fragment.
func panelErrorMessage(r *http.Request, err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, optimistic.ErrInvalidDraft):
		return optimistic.FailureMessage(err)
	case errors.Is(err, optimistic.ErrCommitInFlight):
		return "保存処理中です。完了までお待ちください。"
	case errors.Is(err, errStaleDraft):
		return "別の画面で保存されています。最新の内容を確認してから編集してください。"
	case errors.Is(err, optimistic.ErrNotEditing):
		return "編集モードが終了しています。もう一度「編集」から操作してください。"
	case errors.Is(err, optimistic.ErrNotViewing):
		return "編集中はステージを変更できません。"
	case errors.Is(err, pipeline.ErrUnknownStage):
		return "選択したステージは利用できません。"
	case errors.Is(err, optimistic.ErrDisposed):
		return "画面の有効期限が切れました。再読み込みしてください。"
	}
	observability.FromContext(r.Context()).Error("panel operation failed", zap.Error(err))
	return optimistic.DefaultFailureMessage
}
