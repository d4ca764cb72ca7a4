package auth

import (
	"context"

	"github.com/a-h/templ"

	"finitefield.org/recruit-admin/internal/admin/templates/helpers"
	"finitefield.org/recruit-admin/internal/admin/templates/layouts"
)

// LoginPageData is the state of the sign-in form.
type LoginPageData struct {
	Email     string
	Message   string
	Error     string
	Remember  bool
	Next      string
	LoginPath string
	CSRFToken string
}

// LoginPage renders the sign-in form. The ID token is obtained client-side
// from Firebase Authentication and posted alongside the e-mail address.
func LoginPage(data LoginPageData) templ.Component {
	return layouts.Base("ログイン", helpers.Component(func(ctx context.Context, h *helpers.HTML) {
		h.Open("div", "class", "mx-auto max-w-md rounded-lg bg-white p-8 shadow")
		h.Element("h1", "ログイン", "class", "text-xl font-semibold")
		if data.Message != "" {
			h.Element("p", data.Message, "class", "alert alert-info", "role", "status")
		}
		if data.Error != "" {
			h.Element("p", data.Error, "class", "alert alert-error", "role", "alert")
		}

		h.Open("form", "method", "post", "action", data.LoginPath, "class", "mt-6 space-y-4", "hx-boost", "false")
		h.Open("input", "type", "hidden", "name", "csrf_token", "value", data.CSRFToken)
		h.Open("input", "type", "hidden", "name", "next", "value", data.Next)

		h.Open("label", "class", "block")
		h.Element("span", "メールアドレス", "class", "text-sm")
		h.Open("input", "type", "email", "name", "email", "value", data.Email, "autocomplete", "username", "class", "input w-full")
		h.Close("label")

		h.Open("label", "class", "block")
		h.Element("span", "IDトークン", "class", "text-sm")
		h.Open("input", "type", "password", "name", "id_token", "autocomplete", "off", "class", "input w-full", "required!", "on")
		h.Close("label")

		h.Open("label", "class", "flex items-center gap-2 text-sm")
		h.Open("input", "type", "checkbox", "name", "remember", "value", "on", "checked!", helpers.Flag(data.Remember))
		h.Text("ログイン状態を保持する")
		h.Close("label")

		h.Element("button", "ログイン", "type", "submit", "class", "btn btn-primary w-full")
		h.Close("form")
		h.Close("div")
	}))
}
