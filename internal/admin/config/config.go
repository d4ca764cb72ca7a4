package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultEnvFile        = ".env"
	defaultAddress        = ":8080"
	defaultBasePath       = "/admin"
	defaultEnvironment    = "Development"
	defaultAPITimeout     = 10 * time.Second
	defaultSessionCookie  = "recruit_admin_session"
	defaultCSRFCookie     = "recruit_admin_csrf"
	defaultCSRFHeader     = "X-CSRF-Token"
	defaultStatusCacheTTL = 5 * time.Minute
	defaultWorkspaceTTL   = 30 * time.Minute
	defaultLogLevel       = "info"
)

// Config captures runtime configuration of the admin console.
type Config struct {
	Server    ServerConfig
	API       APIConfig
	Firebase  FirebaseConfig
	Session   SessionConfig
	CSRF      CSRFConfig
	Workspace WorkspaceConfig
	Activity  ActivityConfig
	LogLevel  string
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Address     string
	BasePath    string
	Environment string
}

// APIConfig points at the ATS backend. An empty BaseURL selects the in-memory services.
type APIConfig struct {
	BaseURL string
	Timeout time.Duration
}

// FirebaseConfig enables Firebase ID token verification when ProjectID is set.
type FirebaseConfig struct {
	ProjectID string
}

// SessionConfig controls the signed session cookie.
type SessionConfig struct {
	CookieName   string
	HashKey      []byte
	BlockKey     []byte
	CookieSecure bool
}

// CSRFConfig names the double-submit cookie and header.
type CSRFConfig struct {
	CookieName string
	HeaderName string
}

// WorkspaceConfig tunes the server-side editing state.
type WorkspaceConfig struct {
	StatusCacheTTL time.Duration
	IdleTTL        time.Duration
}

// ActivityConfig selects where candidate timelines are read from. A Firestore
// project ID switches the feed from the ATS API to the Firestore mirror.
type ActivityConfig struct {
	FirestoreProjectID  string
	FirestoreCollection string
}

// ValidationError is returned when configuration fields are missing or invalid.
type ValidationError struct {
	fields []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed: missing or invalid fields [%s]", strings.Join(e.fields, ", "))
}

// Fields returns a copy of the missing/invalid field list.
func (e *ValidationError) Fields() []string {
	return append([]string(nil), e.fields...)
}

// Option customises Load behaviour.
type Option func(*loaderOptions)

type loaderOptions struct {
	envFile      string
	envMap       map[string]string
	useSystemEnv bool
}

// WithEnvFile overrides the .env file path. An empty path disables dotenv loading.
func WithEnvFile(path string) Option {
	return func(o *loaderOptions) {
		o.envFile = path
	}
}

// WithEnvMap injects explicit values that take precedence over the environment.
func WithEnvMap(values map[string]string) Option {
	return func(o *loaderOptions) {
		o.envMap = values
	}
}

// WithoutSystemEnv disables reading the process environment.
func WithoutSystemEnv() Option {
	return func(o *loaderOptions) {
		o.useSystemEnv = false
	}
}

// Load assembles configuration from defaults, the .env file, the process
// environment and explicit overrides, in increasing precedence.
func Load(opts ...Option) (Config, error) {
	options := loaderOptions{envFile: defaultEnvFile, useSystemEnv: true}
	for _, opt := range opts {
		opt(&options)
	}

	dotEnv, err := loadDotEnv(options.envFile)
	if err != nil {
		return Config{}, err
	}

	lookup := func(key string) (string, bool) {
		if value, ok := options.envMap[key]; ok {
			return value, true
		}
		if options.useSystemEnv {
			if value, ok := os.LookupEnv(key); ok {
				return value, true
			}
		}
		value, ok := dotEnv[key]
		return value, ok
	}

	var invalid []string
	hashKey, err := keyWithDefault(lookup, "ADMIN_SESSION_HASH_KEY")
	if err != nil {
		invalid = append(invalid, "Session.HashKey")
	}
	blockKey, err := keyWithDefault(lookup, "ADMIN_SESSION_BLOCK_KEY")
	if err != nil {
		invalid = append(invalid, "Session.BlockKey")
	}

	cfg := Config{
		Server: ServerConfig{
			Address:     stringWithDefault(lookup, "ADMIN_HTTP_ADDR", defaultAddress),
			BasePath:    stringWithDefault(lookup, "ADMIN_BASE_PATH", defaultBasePath),
			Environment: stringWithDefault(lookup, "ADMIN_ENVIRONMENT", defaultEnvironment),
		},
		API: APIConfig{
			BaseURL: strings.TrimSpace(stringWithDefault(lookup, "ADMIN_API_BASE_URL", "")),
			Timeout: durationWithDefault(lookup, "ADMIN_API_TIMEOUT", defaultAPITimeout),
		},
		Firebase: FirebaseConfig{
			ProjectID: stringWithDefault(lookup, "FIREBASE_PROJECT_ID", ""),
		},
		Session: SessionConfig{
			CookieName:   stringWithDefault(lookup, "ADMIN_SESSION_COOKIE", defaultSessionCookie),
			HashKey:      hashKey,
			BlockKey:     blockKey,
			CookieSecure: boolWithDefault(lookup, "ADMIN_COOKIE_SECURE", false),
		},
		CSRF: CSRFConfig{
			CookieName: stringWithDefault(lookup, "ADMIN_CSRF_COOKIE", defaultCSRFCookie),
			HeaderName: stringWithDefault(lookup, "ADMIN_CSRF_HEADER", defaultCSRFHeader),
		},
		Workspace: WorkspaceConfig{
			StatusCacheTTL: durationWithDefault(lookup, "ADMIN_STATUS_CACHE_TTL", defaultStatusCacheTTL),
			IdleTTL:        durationWithDefault(lookup, "ADMIN_WORKSPACE_IDLE_TTL", defaultWorkspaceTTL),
		},
		Activity: ActivityConfig{
			FirestoreProjectID:  stringWithDefault(lookup, "ADMIN_ACTIVITY_FIRESTORE_PROJECT", ""),
			FirestoreCollection: stringWithDefault(lookup, "ADMIN_ACTIVITY_FIRESTORE_COLLECTION", "candidates"),
		},
		LogLevel: stringWithDefault(lookup, "LOG_LEVEL", defaultLogLevel),
	}

	if err := validate(cfg, invalid); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// UseStaticServices reports whether the in-memory backend should be used.
func (c Config) UseStaticServices() bool {
	return c.API.BaseURL == ""
}

func validate(cfg Config, invalid []string) error {
	if strings.TrimSpace(cfg.Server.Address) == "" {
		invalid = append(invalid, "Server.Address")
	}
	if cfg.API.BaseURL != "" {
		if u, err := url.Parse(cfg.API.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
			invalid = append(invalid, "API.BaseURL")
		}
	}
	if cfg.API.Timeout <= 0 {
		invalid = append(invalid, "API.Timeout")
	}
	if n := len(cfg.Session.HashKey); n != 0 && n < 32 {
		invalid = append(invalid, "Session.HashKey")
	}
	if n := len(cfg.Session.BlockKey); n != 0 && n != 16 && n != 24 && n != 32 {
		invalid = append(invalid, "Session.BlockKey")
	}
	if cfg.Workspace.IdleTTL <= 0 {
		invalid = append(invalid, "Workspace.IdleTTL")
	}
	if len(invalid) > 0 {
		return &ValidationError{fields: invalid}
	}
	return nil
}

func loadDotEnv(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}
	values, err := godotenv.Read(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return values, nil
}

func stringWithDefault(lookup func(string) (string, bool), key, fallback string) string {
	if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}

func durationWithDefault(lookup func(string) (string, bool), key string, fallback time.Duration) time.Duration {
	if value, ok := lookup(key); ok && value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func boolWithDefault(lookup func(string) (string, bool), key string, fallback bool) bool {
	if value, ok := lookup(key); ok && value != "" {
		switch strings.ToLower(value) {
		case "true", "1", "yes", "on":
			return true
		case "false", "0", "no", "off":
			return false
		}
	}
	return fallback
}

// keyWithDefault decodes a base64 cookie key. Raw values of at least 32 bytes are used as-is.
func keyWithDefault(lookup func(string) (string, bool), key string) ([]byte, error) {
	value, ok := lookup(key)
	value = strings.TrimSpace(value)
	if !ok || value == "" {
		return nil, nil
	}
	if decoded, err := base64.StdEncoding.DecodeString(value); err == nil {
		return decoded, nil
	}
	if len(value) >= 32 {
		return []byte(value), nil
	}
	return nil, fmt.Errorf("config: %s is neither base64 nor a 32+ byte key", key)
}
