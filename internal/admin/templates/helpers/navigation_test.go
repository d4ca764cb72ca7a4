package helpers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"finitefield.org/recruit-admin/internal/admin/httpserver/middleware"
)

func TestJoinPath(t *testing.T) {
	assert.Equal(t, "/admin/candidates/1001", JoinPath("/admin", "candidates", "1001"))
	assert.Equal(t, "/candidates", JoinPath("/", "/candidates/"))
	assert.Equal(t, "/admin", JoinPath("admin/"))
}

func TestNavActive(t *testing.T) {
	var ctxPath string
	check := func(requestPath, route string, prefix bool) bool {
		var active bool
		middleware.RequestInfoMiddleware("/admin")(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			ctxPath = BasePath(r.Context())
			active = NavActive(r.Context(), route, prefix)
		})).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, requestPath, nil))
		return active
	}

	assert.True(t, check("/admin/candidates/1001", "/admin/candidates", true))
	assert.False(t, check("/admin/candidates/1001", "/admin/candidates", false))
	assert.False(t, check("/admin/candidates-archive", "/admin/candidates", true))
	assert.False(t, check("/admin/candidates", "/", true))
	assert.Equal(t, "/admin", ctxPath)
}
