package layouts

import (
	"context"

	"github.com/a-h/templ"

	"finitefield.org/recruit-admin/internal/admin/httpserver/middleware"
	"finitefield.org/recruit-admin/internal/admin/templates/helpers"
)

const (
	appName   = "Recruit Admin"
	htmxSrc   = "https://unpkg.com/htmx.org@2.0.4"
	staticDir = "/public/static/"
)

// Base renders the full document chrome around body. title is prefixed to the app name.
func Base(title string, body templ.Component) templ.Component {
	return helpers.Component(func(ctx context.Context, h *helpers.HTML) {
		fullTitle := appName
		if title != "" {
			fullTitle = title + " | " + appName
		}
		h.Raw("<!DOCTYPE html>")
		h.Open("html", "lang", "ja")
		h.Open("head")
		h.Raw(`<meta charset="utf-8">`, `<meta name="viewport" content="width=device-width, initial-scale=1">`)
		h.Open("meta", "name", "csrf-token", "content", middleware.CSRFTokenFromContext(ctx))
		h.Element("title", fullTitle)
		h.Open("link", "rel", "stylesheet", "href", staticDir+"admin.css")
		h.Open("script", "src", htmxSrc, "defer!", "on").Close("script")
		h.Open("script", "src", staticDir+"admin.js", "defer!", "on").Close("script")
		h.Close("head")

		h.Open("body", "class", "min-h-screen bg-slate-50 text-slate-900", "hx-boost", "true")
		topbar(ctx, h)
		h.Open("main", "id", "main", "class", "mx-auto max-w-6xl px-6 py-8")
		h.Component(ctx, body)
		h.Close("main")
		h.Element("div", "", "id", "toasts", "class", "toast-stack", "aria-live", "polite")
		h.Close("body")
		h.Close("html")
	})
}

func topbar(ctx context.Context, h *helpers.HTML) {
	base := helpers.BasePath(ctx)
	h.Open("header", "class", "border-b border-slate-200 bg-white")
	h.Open("div", "class", "mx-auto flex max-w-6xl items-center gap-6 px-6 py-3")
	h.Element("a", appName, "href", base, "class", "font-semibold")

	h.Open("nav", "class", "flex gap-4 text-sm")
	candidatesPath := helpers.JoinPath(base, "candidates")
	h.Element("a", "候補者", "href", candidatesPath, "class", helpers.NavClass(helpers.NavActive(ctx, candidatesPath, true)))
	h.Close("nav")

	envTone := "warning"
	if middleware.IsProduction(ctx) {
		envTone = "danger"
	}
	h.Element("span", middleware.EnvironmentFromContext(ctx), "id", "env-badge", "class", helpers.BadgeClass(envTone))

	if user, ok := middleware.UserFromContext(ctx); ok && user != nil {
		h.Open("div", "class", "ml-auto flex items-center gap-3 text-sm")
		label := user.Email
		if label == "" {
			label = user.UID
		}
		h.Element("span", label, "id", "current-user", "class", "text-slate-600")
		h.Open("form", "method", "post", "action", helpers.JoinPath(base, "logout"))
		h.Open("input", "type", "hidden", "name", "csrf_token", "value", middleware.CSRFTokenFromContext(ctx))
		h.Element("button", "ログアウト", "type", "submit", "class", "text-slate-500 hover:text-slate-900")
		h.Close("form")
		h.Close("div")
	}
	h.Close("div")
	h.Close("header")
}
