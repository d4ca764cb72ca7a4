package session

import (
	"slices"
	"time"
)

const maxRecentCandidates = 5

// User is the staff identity remembered between requests.
type User struct {
	UID   string   `json:"uid"`
	Email string   `json:"email,omitempty"`
	Roles []string `json:"roles,omitempty"`
}

// Data is the cookie payload. ID doubles as the owner key of the server-side
// candidate workspaces, so it must stay stable for the life of the session.
type Data struct {
	ID        string    `json:"id"`
	IssuedAt  time.Time `json:"iat"`
	SeenAt    time.Time `json:"seen"`
	ExpiresAt time.Time `json:"exp,omitempty"`
	Remember  bool      `json:"remember,omitempty"`
	User      *User     `json:"user,omitempty"`
	Recent    []int64   `json:"recent,omitempty"`
}

// Session is the mutable view of Data for one request.
type Session struct {
	data      Data
	policy    lifetimePolicy
	destroyed bool
}

// ID returns the stable session identifier.
func (s *Session) ID() string { return s.data.ID }

// CreatedAt returns when the session was issued.
func (s *Session) CreatedAt() time.Time { return s.data.IssuedAt }

// ExpiresAt returns the absolute expiry.
func (s *Session) ExpiresAt() time.Time { return s.data.ExpiresAt }

// RememberMe reports whether the long lifetime applies.
func (s *Session) RememberMe() bool { return s.data.Remember }

// SetRememberMe switches between the default and the remember-me lifetime.
func (s *Session) SetRememberMe(remember bool) {
	if s.data.Remember == remember {
		return
	}
	s.data.Remember = remember
	s.data.ExpiresAt = s.policy.expiry(s.data.IssuedAt, remember)
}

// User returns the signed-in staff member, if any.
func (s *Session) User() *User { return s.data.User }

// SetUser stores a copy of user. Nil signs the session out.
func (s *Session) SetUser(user *User) {
	if user == nil {
		s.data.User = nil
		return
	}
	copied := *user
	copied.Roles = slices.Clone(user.Roles)
	s.data.User = &copied
}

// RecentCandidates returns recently opened candidate IDs, newest first.
func (s *Session) RecentCandidates() []int64 {
	return slices.Clone(s.data.Recent)
}

// RememberCandidate moves id to the front of the recent list, keeping at most
// five entries.
func (s *Session) RememberCandidate(id int64) {
	if id <= 0 {
		return
	}
	recent := make([]int64, 0, maxRecentCandidates)
	recent = append(recent, id)
	for _, existing := range s.data.Recent {
		if existing != id && len(recent) < maxRecentCandidates {
			recent = append(recent, existing)
		}
	}
	s.data.Recent = recent
}

// Destroy clears the cookie when the response is written.
func (s *Session) Destroy() { s.destroyed = true }

func (s *Session) snapshot(now time.Time) Data {
	data := s.data
	if now.After(data.SeenAt) {
		data.SeenAt = now
	}
	data.Recent = slices.Clone(s.data.Recent)
	return data
}

type lifetimePolicy struct {
	idle     time.Duration
	standard time.Duration
	remember time.Duration
}

func (p lifetimePolicy) expiry(issued time.Time, remember bool) time.Time {
	lifetime := p.standard
	if remember && p.remember > 0 {
		lifetime = p.remember
	}
	if lifetime <= 0 {
		return time.Time{}
	}
	return issued.UTC().Add(lifetime)
}

// expired reports whether data outlived its absolute expiry or sat idle too long.
func (p lifetimePolicy) expired(data Data, now time.Time) bool {
	if !data.ExpiresAt.IsZero() && now.After(data.ExpiresAt) {
		return true
	}
	seen := data.SeenAt
	if seen.IsZero() {
		seen = data.IssuedAt
	}
	return p.idle > 0 && !seen.IsZero() && now.Sub(seen) > p.idle
}
