package session

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/securecookie"
)

const (
	defaultCookieName       = "recruit_admin_session"
	defaultCookiePath       = "/"
	defaultLifetime         = 12 * time.Hour
	defaultRememberLifetime = 30 * 24 * time.Hour
	defaultIdleTimeout      = 30 * time.Minute
	sessionIDBytes          = 32
)

var (
	// ErrExpired is returned by Load for a session past its idle or absolute expiry.
	ErrExpired = errors.New("session expired")
	// ErrInvalidConfig is returned by NewManager for unusable options.
	ErrInvalidConfig = errors.New("session: invalid config")
)

// Config controls cookie encoding and lifetimes.
type Config struct {
	CookieName     string
	HashKey        []byte
	BlockKey       []byte
	CookiePath     string
	CookieDomain   string
	CookieSecure   bool
	CookieHTTPOnly *bool
	CookieSameSite http.SameSite

	IdleTimeout      time.Duration
	Lifetime         time.Duration
	RememberLifetime time.Duration
	Now              func() time.Time
}

// Manager keeps sessions in signed, optionally encrypted, cookies.
type Manager struct {
	cookie http.Cookie
	codec  *securecookie.SecureCookie
	policy lifetimePolicy
	now    func() time.Time
}

// NewManager validates cfg and fills in defaults.
func NewManager(cfg Config) (*Manager, error) {
	if len(cfg.HashKey) == 0 {
		return nil, fmt.Errorf("%w: hash key is required", ErrInvalidConfig)
	}

	codec := securecookie.New(cfg.HashKey, cfg.BlockKey)
	codec.SetSerializer(securecookie.JSONEncoder{})

	httpOnly := true
	if cfg.CookieHTTPOnly != nil {
		httpOnly = *cfg.CookieHTTPOnly
	}
	sameSite := cfg.CookieSameSite
	if sameSite == http.SameSiteDefaultMode {
		sameSite = http.SameSiteLaxMode
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Manager{
		cookie: http.Cookie{
			Name:     firstNonEmpty(cfg.CookieName, defaultCookieName),
			Path:     firstNonEmpty(cfg.CookiePath, defaultCookiePath),
			Domain:   cfg.CookieDomain,
			Secure:   cfg.CookieSecure,
			HttpOnly: httpOnly,
			SameSite: sameSite,
		},
		codec: codec,
		policy: lifetimePolicy{
			idle:     positiveOr(cfg.IdleTimeout, defaultIdleTimeout),
			standard: positiveOr(cfg.Lifetime, defaultLifetime),
			remember: positiveOr(cfg.RememberLifetime, defaultRememberLifetime),
		},
		now: func() time.Time { return now().UTC() },
	}, nil
}

// Load decodes the session cookie. A missing or undecodable cookie yields a
// fresh session; an expired one yields ErrExpired.
func (m *Manager) Load(r *http.Request) (*Session, error) {
	cookie, err := r.Cookie(m.cookie.Name)
	if err != nil {
		return m.New(), nil
	}
	var data Data
	if err := m.codec.Decode(m.cookie.Name, cookie.Value, &data); err != nil || data.ID == "" {
		return m.New(), nil
	}
	if m.policy.expired(data, m.now()) {
		return nil, ErrExpired
	}
	return &Session{data: data, policy: m.policy}, nil
}

// New issues an empty session with a fresh ID.
func (m *Manager) New() *Session {
	now := m.now()
	return &Session{
		data: Data{
			ID:        newSessionID(),
			IssuedAt:  now,
			SeenAt:    now,
			ExpiresAt: m.policy.expiry(now, false),
		},
		policy: m.policy,
	}
}

// Save writes sess back as a cookie, or clears the cookie for a destroyed session.
func (m *Manager) Save(w http.ResponseWriter, sess *Session) error {
	if sess == nil {
		return errors.New("session: nil session")
	}
	if sess.destroyed {
		m.Destroy(w)
		return nil
	}

	now := m.now()
	data := sess.snapshot(now)
	encoded, err := m.codec.Encode(m.cookie.Name, data)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	cookie := m.cookie
	cookie.Value = encoded
	if !data.ExpiresAt.IsZero() {
		cookie.Expires = data.ExpiresAt
		cookie.MaxAge = -1
		if remaining := data.ExpiresAt.Sub(now); remaining > 0 {
			cookie.MaxAge = int(remaining.Round(time.Second).Seconds())
		}
	}
	http.SetCookie(w, &cookie)
	return nil
}

// Destroy expires the session cookie immediately.
func (m *Manager) Destroy(w http.ResponseWriter) {
	cookie := m.cookie
	cookie.MaxAge = -1
	cookie.Expires = time.Unix(0, 0)
	http.SetCookie(w, &cookie)
}

func newSessionID() string {
	buf := make([]byte, sessionIDBytes)
	if _, err := rand.Read(buf); err != nil {
		panic(fmt.Errorf("session: generate id: %w", err))
	}
	return base64.RawURLEncoding.EncodeToString(buf)
}

func firstNonEmpty(value, fallback string) string {
	if value != "" {
		return value
	}
	return fallback
}

func positiveOr(d, fallback time.Duration) time.Duration {
	if d > 0 {
		return d
	}
	return fallback
}
