package config

import (
	"encoding/base64"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadWithDefaults(t *testing.T) {
	cfg, err := Load(WithEnvMap(map[string]string{}), WithoutSystemEnv(), WithEnvFile(""))
	require.NoError(t, err)

	require.Equal(t, ":8080", cfg.Server.Address)
	require.Equal(t, "/admin", cfg.Server.BasePath)
	require.Equal(t, "Development", cfg.Server.Environment)
	require.True(t, cfg.UseStaticServices())
	require.Equal(t, 10*time.Second, cfg.API.Timeout)
	require.Equal(t, "recruit_admin_session", cfg.Session.CookieName)
	require.Empty(t, cfg.Session.HashKey)
	require.Equal(t, "X-CSRF-Token", cfg.CSRF.HeaderName)
	require.Equal(t, 5*time.Minute, cfg.Workspace.StatusCacheTTL)
	require.Equal(t, 30*time.Minute, cfg.Workspace.IdleTTL)
	require.Equal(t, "info", cfg.LogLevel)
	require.Empty(t, cfg.Activity.FirestoreProjectID)
	require.Equal(t, "candidates", cfg.Activity.FirestoreCollection)
}

func TestLoadOverrides(t *testing.T) {
	hash := base64.StdEncoding.EncodeToString([]byte("0123456789abcdef0123456789abcdef"))
	cfg, err := Load(WithEnvMap(map[string]string{
		"ADMIN_HTTP_ADDR":                  ":9090",
		"ADMIN_API_BASE_URL":               "https://ats.example.com/api",
		"ADMIN_API_TIMEOUT":                "3s",
		"ADMIN_SESSION_HASH_KEY":           hash,
		"ADMIN_COOKIE_SECURE":              "yes",
		"ADMIN_STATUS_CACHE_TTL":           "1m",
		"ADMIN_WORKSPACE_IDLE_TTL":         "not-a-duration",
		"FIREBASE_PROJECT_ID":              "recruit-dev",
		"ADMIN_ACTIVITY_FIRESTORE_PROJECT": "recruit-mirror",
	}), WithoutSystemEnv(), WithEnvFile(""))
	require.NoError(t, err)

	require.Equal(t, ":9090", cfg.Server.Address)
	require.False(t, cfg.UseStaticServices())
	require.Equal(t, 3*time.Second, cfg.API.Timeout)
	require.Len(t, cfg.Session.HashKey, 32)
	require.True(t, cfg.Session.CookieSecure)
	require.Equal(t, time.Minute, cfg.Workspace.StatusCacheTTL)
	require.Equal(t, 30*time.Minute, cfg.Workspace.IdleTTL)
	require.Equal(t, "recruit-dev", cfg.Firebase.ProjectID)
	require.Equal(t, "recruit-mirror", cfg.Activity.FirestoreProjectID)
}

func TestLoadReadsDotEnvWithLowestPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("ADMIN_BASE_PATH=/recruit\nLOG_LEVEL=debug\n"), 0o600))

	cfg, err := Load(WithEnvFile(path), WithoutSystemEnv(), WithEnvMap(map[string]string{"LOG_LEVEL": "warn"}))
	require.NoError(t, err)
	require.Equal(t, "/recruit", cfg.Server.BasePath)
	require.Equal(t, "warn", cfg.LogLevel)
}

func TestLoadMissingDotEnvIsIgnored(t *testing.T) {
	_, err := Load(WithEnvFile(filepath.Join(t.TempDir(), "missing.env")), WithoutSystemEnv())
	require.NoError(t, err)
}

func TestLoadValidation(t *testing.T) {
	_, err := Load(WithEnvMap(map[string]string{
		"ADMIN_API_BASE_URL":      "not a url",
		"ADMIN_SESSION_HASH_KEY":  "short",
		"ADMIN_SESSION_BLOCK_KEY": base64.StdEncoding.EncodeToString([]byte("seven77")),
	}), WithoutSystemEnv(), WithEnvFile(""))

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	require.ElementsMatch(t, []string{"Session.HashKey", "API.BaseURL", "Session.BlockKey"}, verr.Fields())
}
