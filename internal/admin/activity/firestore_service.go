package activity

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	defaultFirestoreCollection = "candidates"
	defaultFirestoreSubcollect = "activity"
	defaultFirestoreLimit      = 200
)

// FirestoreConfig tunes the Firestore-backed timeline.
type FirestoreConfig struct {
	// Collection holds one document per candidate, keyed by the numeric ID.
	Collection string
	// Subcollection holds the timeline entries of each candidate document.
	Subcollection string
	FetchLimit    int
	Logger        *zap.Logger
}

// FirestoreService reads candidate timelines from the Firestore view that the
// ATS mirrors its activity log and messages into.
type FirestoreService struct {
	client        *firestore.Client
	collection    string
	subcollection string
	fetchLimit    int
	logger        *zap.Logger
}

type activityDocument struct {
	Kind      string    `firestore:"kind"`
	Actor     string    `firestore:"actor"`
	Summary   string    `firestore:"summary"`
	CreatedAt time.Time `firestore:"createdAt"`
}

// NewFirestoreService constructs a Firestore-backed activity service.
func NewFirestoreService(client *firestore.Client, cfg FirestoreConfig) *FirestoreService {
	if client == nil {
		panic("activity: firestore client is required")
	}
	if cfg.Collection == "" {
		cfg.Collection = defaultFirestoreCollection
	}
	if cfg.Subcollection == "" {
		cfg.Subcollection = defaultFirestoreSubcollect
	}
	if cfg.FetchLimit <= 0 {
		cfg.FetchLimit = defaultFirestoreLimit
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FirestoreService{
		client:        client,
		collection:    cfg.Collection,
		subcollection: cfg.Subcollection,
		fetchLimit:    cfg.FetchLimit,
		logger:        logger,
	}
}

// Feed returns the newest entries of the candidate timeline. A candidate
// without a timeline document yields an empty feed.
func (s *FirestoreService) Feed(ctx context.Context, _ string, candidateID int64) ([]Item, error) {
	iter := s.client.Collection(s.collection).
		Doc(strconv.FormatInt(candidateID, 10)).
		Collection(s.subcollection).
		OrderBy("createdAt", firestore.Desc).
		Limit(s.fetchLimit).
		Documents(ctx)
	defer iter.Stop()

	var items []Item
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return nil, nil
			}
			return nil, fmt.Errorf("activity: load timeline of %d: %w", candidateID, err)
		}
		var doc activityDocument
		if err := snap.DataTo(&doc); err != nil {
			s.logger.Warn("activity: skip malformed doc", zap.String("path", snap.Ref.Path), zap.Error(err))
			continue
		}
		items = append(items, decodeActivity(snap.Ref.ID, doc))
	}
	return items, nil
}

var tokyo = time.FixedZone("JST", 9*60*60)

// decodeActivity maps a stored document onto a timeline item. Timestamps are
// rendered in JST so day grouping matches what recruiters see.
func decodeActivity(id string, doc activityDocument) Item {
	kind := Kind(strings.ToLower(strings.TrimSpace(doc.Kind)))
	if kind != KindMessage {
		kind = KindActivity
	}
	ts := ""
	if !doc.CreatedAt.IsZero() {
		ts = doc.CreatedAt.In(tokyo).Format(time.RFC3339)
	}
	return Item{
		ID:        id,
		Kind:      kind,
		Actor:     strings.TrimSpace(doc.Actor),
		Summary:   strings.TrimSpace(doc.Summary),
		Timestamp: ts,
	}
}
