package layouts

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"

	"finitefield.org/recruit-admin/internal/admin/httpserver/middleware"
	"finitefield.org/recruit-admin/internal/admin/templates/helpers"
)

func TestBaseRendersTopbarForSignedInUser(t *testing.T) {
	t.Parallel()

	ctx := buildRequestContext(t, "/admin/candidates/1001", "Production")
	ctx = middleware.ContextWithUser(ctx, &middleware.User{
		UID:   "recruiter-1",
		Email: "recruiter@example.com",
		Roles: []string{"recruiter"},
	})

	doc := renderBase(t, ctx, "候補者")

	require.Equal(t, "候補者 | Recruit Admin", doc.Find("title").Text())
	require.Equal(t, "ja", doc.Find("html").AttrOr("lang", ""))

	nav := doc.Find("nav a")
	require.Equal(t, "/admin/candidates", nav.AttrOr("href", ""))
	require.Equal(t, helpers.NavClass(true), nav.AttrOr("class", ""), "candidates link should be active on detail pages")

	badge := doc.Find("#env-badge")
	require.Equal(t, "Production", strings.TrimSpace(badge.Text()))
	require.Equal(t, helpers.BadgeClass("danger"), badge.AttrOr("class", ""))

	require.Equal(t, "recruiter@example.com", doc.Find("#current-user").Text())
	require.Equal(t, "/admin/logout", doc.Find("form[action]").AttrOr("action", ""))
	require.Equal(t, 1, doc.Find(`form input[name="csrf_token"]`).Length(), "logout form should include CSRF field")
	require.Equal(t, 1, doc.Find("#toasts").Length(), "toast stack should render")
	require.Equal(t, "<p>本文</p>", mustHTML(t, doc.Find("#main")))
}

func TestBaseHidesUserMenuWhenSignedOut(t *testing.T) {
	t.Parallel()

	ctx := buildRequestContext(t, "/admin/login", "Development")
	doc := renderBase(t, ctx, "")

	require.Equal(t, "Recruit Admin", doc.Find("title").Text())
	require.Equal(t, 0, doc.Find("#current-user").Length())
	require.Equal(t, helpers.NavClass(false), doc.Find("nav a").AttrOr("class", ""))
	require.Equal(t, helpers.BadgeClass("warning"), doc.Find("#env-badge").AttrOr("class", ""))
}

func buildRequestContext(t *testing.T, requestPath string, environment string) context.Context {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, requestPath, nil)
	rec := httptest.NewRecorder()

	var ctx context.Context
	handler := middleware.RequestInfoMiddleware("/admin")(middleware.Environment(environment)(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		ctx = r.Context()
	})))
	handler.ServeHTTP(rec, req)

	require.NotNil(t, ctx, "middleware stack must provide context")
	return ctx
}

func renderBase(t *testing.T, ctx context.Context, title string) *goquery.Document {
	t.Helper()

	var buf bytes.Buffer
	body := helpers.Component(func(_ context.Context, h *helpers.HTML) {
		h.Element("p", "本文")
	})
	require.NoError(t, Base(title, body).Render(ctx, &buf), "layout must render without error")

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err, "html must parse")
	return doc
}

func mustHTML(t *testing.T, sel *goquery.Selection) string {
	t.Helper()
	html, err := sel.Html()
	require.NoError(t, err)
	return html
}
