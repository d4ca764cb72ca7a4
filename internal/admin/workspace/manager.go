package workspace

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"finitefield.org/recruit-admin/internal/admin/candidates"
	"finitefield.org/recruit-admin/internal/admin/pipeline"
)

const defaultIdleTTL = 30 * time.Minute

// ErrSessionRequired indicates Open was called without a session identifier.
var ErrSessionRequired = errors.New("workspace: session id is required")

// Manager owns the workspaces of every session.
type Manager struct {
	svc      candidates.Service
	statuses *pipeline.Cache
	outbox   *Outbox
	logger   *zap.Logger
	idleTTL  time.Duration
	now      func() time.Time

	mu         sync.Mutex
	workspaces map[string]*Workspace
}

// Option customises a Manager.
type Option func(*Manager)

// WithLogger sets the logger passed to panels.
func WithLogger(logger *zap.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithIdleTTL sets how long an unused workspace survives a Sweep.
func WithIdleTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.idleTTL = ttl
		}
	}
}

// WithClock overrides the time source (primarily for tests).
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// NewManager constructs a Manager.
func NewManager(svc candidates.Service, statuses *pipeline.Cache, outbox *Outbox, opts ...Option) *Manager {
	if outbox == nil {
		outbox = NewOutbox()
	}
	m := &Manager{
		svc:        svc,
		statuses:   statuses,
		outbox:     outbox,
		logger:     zap.NewNop(),
		idleTTL:    defaultIdleTTL,
		now:        time.Now,
		workspaces: make(map[string]*Workspace),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Outbox returns the notice queue shared by all workspaces.
func (m *Manager) Outbox() *Outbox {
	return m.outbox
}

// Open returns the session's workspace for candidateID, loading the candidate on first use.
func (m *Manager) Open(ctx context.Context, sessionID, token string, candidateID int64) (*Workspace, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, ErrSessionRequired
	}
	key := workspaceKey(sessionID, candidateID)

	m.mu.Lock()
	ws, ok := m.workspaces[key]
	m.mu.Unlock()
	if ok {
		ws.touch(ctx, token, m.now())
		return ws, nil
	}

	c, err := m.svc.Get(ctx, token, candidateID)
	if err != nil {
		return nil, fmt.Errorf("workspace: load candidate %d: %w", candidateID, err)
	}
	logger := m.logger.With(zap.Int64("candidate_id", candidateID))
	fresh := newWorkspace(c, m.svc, m.statuses, m.outbox.For(sessionID), logger)
	fresh.touch(ctx, token, m.now())

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.workspaces[key]; ok {
		fresh.dispose()
		return existing, nil
	}
	m.workspaces[key] = fresh
	return fresh, nil
}

// Lookup returns an open workspace without loading or touching it.
func (m *Manager) Lookup(sessionID string, candidateID int64) (*Workspace, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ws, ok := m.workspaces[workspaceKey(sessionID, candidateID)]
	return ws, ok
}

// Sweep disposes workspaces idle for longer than the TTL. Workspaces with a
// commit in flight are kept until it resolves. Sessions left without any
// workspace lose their queued notices. It returns the number removed.
func (m *Manager) Sweep(now time.Time) int {
	m.mu.Lock()
	var stale []*Workspace
	emptied := make(map[string]bool)
	for key, ws := range m.workspaces {
		if now.Sub(ws.idleSince()) < m.idleTTL || ws.Busy() {
			continue
		}
		stale = append(stale, ws)
		delete(m.workspaces, key)
		emptied[sessionOf(key)] = true
	}
	for key := range m.workspaces {
		delete(emptied, sessionOf(key))
	}
	m.mu.Unlock()

	for _, ws := range stale {
		ws.dispose()
	}
	for sessionID := range emptied {
		m.outbox.Discard(sessionID)
	}
	if len(stale) > 0 {
		m.logger.Debug("swept idle workspaces", zap.Int("count", len(stale)))
	}
	return len(stale)
}

// Run sweeps on every tick until ctx is done.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = m.idleTTL / 2
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep(m.now())
		}
	}
}

// CloseSession disposes every workspace of the session and drops its notices.
func (m *Manager) CloseSession(sessionID string) {
	prefix := sessionID + "/"
	m.mu.Lock()
	var closed []*Workspace
	for key, ws := range m.workspaces {
		if strings.HasPrefix(key, prefix) {
			closed = append(closed, ws)
			delete(m.workspaces, key)
		}
	}
	m.mu.Unlock()

	for _, ws := range closed {
		ws.dispose()
	}
	m.outbox.Discard(sessionID)
}

// Close disposes all workspaces.
func (m *Manager) Close() {
	m.mu.Lock()
	all := m.workspaces
	m.workspaces = make(map[string]*Workspace)
	m.mu.Unlock()

	for _, ws := range all {
		ws.dispose()
	}
}

func workspaceKey(sessionID string, candidateID int64) string {
	return fmt.Sprintf("%s/%d", sessionID, candidateID)
}

func sessionOf(key string) string {
	if i := strings.LastIndexByte(key, '/'); i >= 0 {
		return key[:i]
	}
	return key
}
