package candidates

import (
	"context"
	"fmt"
	"strconv"

	"github.com/a-h/templ"

	"finitefield.org/recruit-admin/internal/admin/templates/helpers"
	"finitefield.org/recruit-admin/internal/admin/templates/layouts"
)

// Index renders the candidate list page.
func Index(data ListPageData) templ.Component {
	return layouts.Base(data.Title, helpers.Component(func(ctx context.Context, h *helpers.HTML) {
		h.Element("h1", data.Title, "class", "text-2xl font-semibold")

		h.Open("form", "class", "mt-6 flex flex-wrap gap-3", "method", "get",
			"hx-get", data.TableURL, "hx-target", "#candidate-table", "hx-swap", "outerHTML",
			"hx-trigger", "submit, input changed delay:300ms from:#candidate-search, change from:#candidate-stage")
		h.Open("input", "id", "candidate-search", "type", "search", "name", "search", "value", data.Search,
			"placeholder", "名前・メール・スキルで検索", "class", "input w-72")
		h.Open("select", "id", "candidate-stage", "name", "stage", "class", "input")
		h.Open("option", "value", "", "selected!", helpers.Flag(data.Stage == "")).Text("すべてのステージ").Close("option")
		for _, opt := range data.StageNames {
			h.Open("option", "value", opt.Name, "selected!", helpers.Flag(opt.Selected)).Text(opt.Name).Close("option")
		}
		h.Close("select")
		h.Element("button", "検索", "type", "submit", "class", "btn")
		h.Close("form")

		if len(data.Recent) > 0 {
			h.Open("div", "id", "recent-candidates", "class", "mt-4 flex gap-2 text-sm text-slate-500")
			h.Element("span", "最近表示:")
			for _, link := range data.Recent {
				h.Element("a", link.Label, "href", link.URL, "class", "underline")
			}
			h.Close("div")
		}

		h.Component(ctx, Table(data))
	}))
}

// Table renders the candidate table fragment.
func Table(data ListPageData) templ.Component {
	return helpers.Component(func(ctx context.Context, h *helpers.HTML) {
		h.Open("div", "id", "candidate-table", "class", "mt-6")
		if data.Error != "" {
			h.Element("p", data.Error, "class", "alert alert-error", "role", "alert")
		}
		if len(data.Rows) == 0 && data.Error == "" {
			h.Element("p", "該当する候補者はいません。", "class", "empty")
		}
		if len(data.Rows) > 0 {
			h.Open("table", "class", "table")
			h.Raw("<thead><tr><th>名前</th><th>ヘッドライン</th><th>選考ステージ</th><th>更新</th></tr></thead>")
			h.Open("tbody")
			for _, row := range data.Rows {
				h.Open("tr", "data-candidate-id", strconv.FormatInt(row.ID, 10))
				h.Open("td")
				h.Open("a", "href", row.DetailURL, "class", "font-medium")
				h.Component(ctx, helpers.Highlight(row.Name, data.Search))
				h.Close("a")
				h.Element("div", row.Email, "class", "text-xs text-slate-500")
				h.Close("td")
				h.Open("td").Component(ctx, helpers.Highlight(row.Headline, data.Search)).Close("td")
				h.Open("td")
				for _, badge := range row.Stages {
					stageBadge(h, badge)
				}
				h.Close("td")
				h.Element("td", row.Updated, "class", "text-sm text-slate-500")
				h.Close("tr")
			}
			h.Close("tbody")
			h.Close("table")
		}
		h.Open("nav", "class", "mt-4 flex items-center gap-4 text-sm")
		h.Element("span", fmt.Sprintf("全%d件 / %dページ目", data.Total, data.Page))
		if data.PrevURL != "" {
			h.Element("a", "前へ", "href", data.PrevURL, "hx-get", data.PrevURL, "hx-target", "#candidate-table", "hx-swap", "outerHTML")
		}
		if data.NextURL != "" {
			h.Element("a", "次へ", "href", data.NextURL, "hx-get", data.NextURL, "hx-target", "#candidate-table", "hx-swap", "outerHTML")
		}
		h.Close("nav")
		h.Close("div")
	})
}

// Detail renders the candidate detail page with every editable panel.
func Detail(data DetailPageData) templ.Component {
	return layouts.Base(data.Name, helpers.Component(func(ctx context.Context, h *helpers.HTML) {
		h.Element("a", "← 候補者一覧", "href", data.BackURL, "class", "text-sm text-slate-500")
		h.Open("header", "class", "mt-2")
		h.Element("h1", data.Name, "class", "text-2xl font-semibold")
		h.Element("p", data.Headline, "class", "text-slate-600")
		h.Element("p", data.Email+" ・ 更新 "+data.Updated, "class", "text-sm text-slate-500")
		h.Close("header")

		h.Open("div", "class", "mt-6 grid gap-6 lg:grid-cols-3")
		h.Open("div", "class", "space-y-6 lg:col-span-2")
		for _, panel := range data.Panels {
			h.Component(ctx, Panel(panel))
		}
		h.Close("div")
		h.Open("aside")
		h.Element("h2", "アクティビティ", "class", "text-lg font-semibold")
		h.Open("div", "id", "activity", "hx-get", data.ActivityURL,
			"hx-trigger", "load, refresh-activity from:body", "hx-swap", "innerHTML")
		h.Element("p", "読み込み中…", "class", "text-sm text-slate-400")
		h.Close("div")
		h.Close("aside")
		h.Close("div")
	}))
}

// Panel renders one list attribute in its current state. The root element is
// the swap target of every panel interaction.
func Panel(data PanelData) templ.Component {
	return helpers.Component(func(ctx context.Context, h *helpers.HTML) {
		id := "panel-" + data.Attribute
		target := "#" + id
		attrs := []string{
			"id", id,
			"class", "panel",
			"data-state", data.State,
			"data-generation", strconv.FormatUint(data.Generation, 10),
		}
		if data.Polling {
			attrs = append(attrs, "hx-get", data.URL, "hx-trigger", "every 1s", "hx-swap", "outerHTML")
		}
		h.Open("section", attrs...)

		h.Open("header", "class", "panel-header")
		h.Element("h2", data.Title)
		switch {
		case data.State == PanelViewing && data.CanEdit && !data.Polling:
			h.Element("button", "編集", "type", "button", "class", "btn btn-ghost",
				"hx-post", data.EditURL, "hx-target", target, "hx-swap", "outerHTML")
		case data.State == PanelCommitting, data.Polling:
			h.Element("span", "保存中…", "class", "spinner", "role", "status")
		}
		h.Close("header")

		if data.Error != "" {
			h.Element("p", data.Error, "class", "panel-error", "role", "alert")
		}

		if data.State == PanelEditing {
			editForm(h, data, target)
		} else {
			readTable(h, data, target)
		}
		h.Close("section")
	})
}

func readTable(h *helpers.HTML, data PanelData, target string) {
	if len(data.Rows) == 0 {
		h.Element("p", data.EmptyText, "class", "empty")
		return
	}
	h.Open("table", "class", "table")
	tableHead(h, data.Columns, false)
	h.Open("tbody")
	for _, row := range data.Rows {
		h.Open("tr", "data-key", row.Key)
		for _, cell := range row.Cells {
			h.Open("td", "data-field", cell.Field)
			switch {
			case cell.Kind == FieldStage && row.StageURL != "" && data.State == PanelViewing:
				h.Open("form", "hx-post", row.StageURL, "hx-trigger", "change", "hx-target", target, "hx-swap", "outerHTML")
				stageSelect(h, "stage", cell)
				h.Close("form")
			case cell.Kind == FieldStage:
				stageBadge(h, StageBadge{Name: cell.Value, Style: cell.Style})
			case cell.Kind == FieldCheckbox:
				mark := "未完了"
				if cell.Checked {
					mark = "完了"
				}
				h.Text(mark)
			default:
				h.Text(cell.Value)
			}
			h.Close("td")
		}
		h.Close("tr")
	}
	h.Close("tbody")
	h.Close("table")
}

func editForm(h *helpers.HTML, data PanelData, target string) {
	h.Open("form", "class", "panel-form", "hx-post", data.SaveURL, "hx-target", target, "hx-swap", "outerHTML")
	h.Open("input", "type", "hidden", "name", "generation", "value", strconv.FormatUint(data.Generation, 10))
	h.Open("table", "class", "table")
	tableHead(h, data.Columns, true)
	h.Open("tbody")
	for _, row := range data.Rows {
		prefix := "item." + row.Key + "."
		h.Open("tr", "data-key", row.Key)
		for i, cell := range row.Cells {
			h.Open("td", "data-field", cell.Field)
			if i == 0 {
				h.Open("input", "type", "hidden", "name", prefix+"_row", "value", "1")
			}
			label := ""
			if i < len(data.Columns) {
				label = data.Columns[i].Label
			}
			switch cell.Kind {
			case FieldCheckbox:
				h.Open("input", "type", "checkbox", "name", prefix+cell.Field, "value", "on",
					"aria-label", label, "checked!", helpers.Flag(cell.Checked))
			case FieldStage:
				stageSelect(h, prefix+cell.Field, cell)
			case FieldDate:
				h.Open("input", "type", "date", "name", prefix+cell.Field, "value", cell.Value, "aria-label", label, "class", "input")
			default:
				h.Open("input", "type", "text", "name", prefix+cell.Field, "value", cell.Value, "aria-label", label, "class", "input")
			}
			h.Close("td")
		}
		h.Open("td")
		h.Element("button", "削除", "type", "button", "class", "btn btn-ghost",
			"hx-post", data.RemoveURL, "hx-include", "closest form", "hx-vals", fmt.Sprintf(`{"key": %q}`, row.Key),
			"hx-target", target, "hx-swap", "outerHTML")
		h.Close("td")
		h.Close("tr")
	}
	h.Close("tbody")
	h.Close("table")

	h.Open("div", "class", "panel-actions")
	h.Element("button", "行を追加", "type", "button", "class", "btn btn-ghost",
		"hx-post", data.AppendURL, "hx-include", "closest form", "hx-target", target, "hx-swap", "outerHTML")
	h.Element("button", "キャンセル", "type", "button", "class", "btn btn-ghost",
		"hx-post", data.CancelURL, "hx-target", target, "hx-swap", "outerHTML")
	h.Element("button", "保存", "type", "submit", "class", "btn btn-primary")
	h.Close("div")
	h.Close("form")
}

func tableHead(h *helpers.HTML, columns []Column, editing bool) {
	h.Open("thead").Open("tr")
	for _, col := range columns {
		h.Element("th", col.Label)
	}
	if editing {
		h.Raw("<th></th>")
	}
	h.Close("tr").Close("thead")
}

func stageSelect(h *helpers.HTML, name string, cell Cell) {
	h.Open("select", "name", name, "class", "input", "aria-label", "選考ステージ")
	for _, opt := range cell.Options {
		h.Open("option", "value", opt.Name, "selected!", helpers.Flag(opt.Selected)).Text(opt.Name).Close("option")
	}
	h.Close("select")
}

func stageBadge(h *helpers.HTML, badge StageBadge) {
	h.Open("span", "class", "stage-badge", "data-stage", badge.Name)
	h.Open("span", "class", "stage-dot", "style", badge.Style).Close("span")
	h.Text(badge.Name)
	h.Close("span")
}

// Activity renders the day-grouped activity feed fragment.
func Activity(data ActivityData) templ.Component {
	return helpers.Component(func(_ context.Context, h *helpers.HTML) {
		if data.Error != "" {
			h.Element("p", data.Error, "class", "alert alert-error", "role", "alert")
			return
		}
		if len(data.Groups) == 0 {
			h.Element("p", "アクティビティはまだありません。", "class", "empty")
			return
		}
		for _, group := range data.Groups {
			h.Open("section", "class", "activity-day", "data-date", group.Date)
			h.Element("h3", group.Label, "class", "text-sm font-medium text-slate-500")
			h.Open("ul", "class", "mt-2 space-y-2")
			for _, entry := range group.Entries {
				h.Open("li", "class", "activity-entry", "data-kind", entry.Kind)
				h.Element("span", entry.Time, "class", "text-xs text-slate-400")
				h.Raw(" ")
				h.Element("strong", entry.Actor)
				h.Raw(" ")
				h.Text(entry.Summary)
				h.Close("li")
			}
			h.Close("ul")
			h.Close("section")
		}
	})
}
