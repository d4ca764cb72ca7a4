package activity

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"sync"

	"finitefield.org/recruit-admin/internal/admin/backend"
)

// Kind distinguishes activity log entries from conversation messages.
type Kind string

const (
	KindActivity Kind = "activity"
	KindMessage  Kind = "message"
)

// Item is one timestamped entry on a candidate's timeline.
type Item struct {
	ID        string `json:"id"`
	Kind      Kind   `json:"kind"`
	Actor     string `json:"actor"`
	Summary   string `json:"summary"`
	Timestamp string `json:"timestamp"`
}

// Service exposes the candidate timeline.
type Service interface {
	// Feed returns the timeline newest first.
	Feed(ctx context.Context, token string, candidateID int64) ([]Item, error)
}

// Timestamp returns the item's timestamp. It is the key function used with GroupByDay.
func Timestamp(item Item) string { return item.Timestamp }

// HTTPService implements Service backed by the ATS API.
type HTTPService struct {
	client *backend.Client
}

// NewHTTPService constructs an activity service sharing the backend client.
func NewHTTPService(client *backend.Client) (*HTTPService, error) {
	if client == nil {
		return nil, errors.New("activity: backend client is required")
	}
	return &HTTPService{client: client}, nil
}

// Feed retrieves the candidate timeline.
func (s *HTTPService) Feed(ctx context.Context, token string, candidateID int64) ([]Item, error) {
	var items []Item
	endpoint := fmt.Sprintf("/candidate/%d/activity", candidateID)
	if err := s.client.Do(ctx, http.MethodGet, endpoint, token, nil, &items); err != nil {
		return nil, fmt.Errorf("activity: feed: %w", err)
	}
	return items, nil
}

// StaticService keeps timelines in memory.
type StaticService struct {
	mu    sync.RWMutex
	feeds map[int64][]Item
}

// NewStaticService constructs a StaticService. A nil map is replaced by seeded data.
func NewStaticService(feeds map[int64][]Item) *StaticService {
	if feeds == nil {
		feeds = seedFeeds()
	}
	return &StaticService{feeds: feeds}
}

// Feed returns a copy of the stored timeline, newest first.
func (s *StaticService) Feed(_ context.Context, _ string, candidateID int64) ([]Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := append([]Item(nil), s.feeds[candidateID]...)
	sort.SliceStable(items, func(i, j int) bool { return items[i].Timestamp > items[j].Timestamp })
	return items, nil
}

// Record appends an entry to the candidate's timeline.
func (s *StaticService) Record(candidateID int64, item Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if item.ID == "" {
		item.ID = fmt.Sprintf("act-%d-%d", candidateID, len(s.feeds[candidateID])+1)
	}
	s.feeds[candidateID] = append(s.feeds[candidateID], item)
}

func seedFeeds() map[int64][]Item {
	return map[int64][]Item{
		1001: {
			{ID: "act-1001-1", Kind: KindActivity, Actor: "佐藤", Summary: "候補者を登録しました", Timestamp: "2025-06-23T09:15:00+09:00"},
			{ID: "act-1001-2", Kind: KindMessage, Actor: "Aiko Tanaka", Summary: "面接日程の候補をお送りします。", Timestamp: "2025-06-24T08:00:00+09:00"},
			{ID: "act-1001-3", Kind: KindActivity, Actor: "佐藤", Summary: "Backend Engineer を Screening に変更", Timestamp: "2025-06-25T09:00:00+09:00"},
			{ID: "act-1001-4", Kind: KindMessage, Actor: "鈴木", Summary: "一次面接は 7/1 でお願いします。", Timestamp: "2025-06-25T10:00:00+09:00"},
		},
		1002: {
			{ID: "act-1002-1", Kind: KindActivity, Actor: "鈴木", Summary: "候補者を登録しました", Timestamp: "2025-06-20T14:30:00+09:00"},
		},
	}
}
