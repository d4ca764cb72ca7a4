package activity

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/require"

	"finitefield.org/recruit-admin/internal/admin/backend"
)

func TestGroupByDayPreservesOrder(t *testing.T) {
	t.Parallel()

	items := []Item{
		{ID: "a", Timestamp: "2025-06-25T10:00"},
		{ID: "b", Timestamp: "2025-06-25T09:00"},
		{ID: "c", Timestamp: "2025-06-24T08:00"},
	}

	groups := GroupByDay(items, Timestamp)
	require.Len(t, groups, 2)
	require.Equal(t, "2025-06-25", groups[0].Date)
	require.Equal(t, []Item{items[0], items[1]}, groups[0].Items)
	require.Equal(t, "2025-06-24", groups[1].Date)
	require.Equal(t, []Item{items[2]}, groups[1].Items)

	// Input untouched.
	require.Equal(t, "a", items[0].ID)
}

func TestGroupByDayInterleavedDates(t *testing.T) {
	t.Parallel()

	groups := GroupByDay([]string{"2025-06-25 10:00", "2025-06-24 08:00", "2025-06-25 07:00"}, func(s string) string { return s })
	require.Len(t, groups, 2)
	require.Equal(t, []string{"2025-06-25 10:00", "2025-06-25 07:00"}, groups[0].Items)
	require.Equal(t, []string{"2025-06-24 08:00"}, groups[1].Items)
}

func TestGroupByDayEmpty(t *testing.T) {
	t.Parallel()

	require.Empty(t, GroupByDay[Item](nil, Timestamp))
}

func TestDateKey(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"2025-06-25T10:00:00Z": "2025-06-25",
		"2025-06-25 10:00":     "2025-06-25",
		"2025-06-25":           "2025-06-25",
		"20250625103000":       "2025062510",
		"":                     "",
	}
	for in, want := range cases {
		require.Equal(t, want, DateKey(in), in)
	}
}

// Property: flattening the groups yields a permutation that keeps each date's items in input order
// and every item lands in the group of its own date.
func TestGroupByDayProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	dates := gen.OneConstOf("2025-06-23", "2025-06-24", "2025-06-25")
	properties.Property("grouping is stable", prop.ForAll(
		func(days []string) bool {
			items := make([]Item, len(days))
			for i, d := range days {
				items[i] = Item{ID: string(rune('a' + i%26)), Timestamp: d + "T12:00"}
			}
			groups := GroupByDay(items, Timestamp)
			total := 0
			for _, g := range groups {
				var want []Item
				for _, item := range items {
					if DateKey(item.Timestamp) == g.Date {
						want = append(want, item)
					}
				}
				if len(want) != len(g.Items) {
					return false
				}
				for i := range want {
					if want[i] != g.Items[i] {
						return false
					}
				}
				total += len(g.Items)
			}
			return total == len(items)
		},
		gen.SliceOf(dates),
	))

	properties.TestingRun(t)
}

func TestHTTPServiceFeed(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/candidate/1001/activity", r.URL.Path)
		_, _ = io.WriteString(w, `{"status":true,"result":[{"id":"x","kind":"message","actor":"A","summary":"hi","timestamp":"2025-06-25T10:00"}]}`)
	}))
	defer srv.Close()

	client, err := backend.NewClient(srv.URL, srv.Client())
	require.NoError(t, err)
	svc, err := NewHTTPService(client)
	require.NoError(t, err)

	items, err := svc.Feed(context.Background(), "", 1001)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, KindMessage, items[0].Kind)
}

func TestStaticServiceFeedNewestFirst(t *testing.T) {
	t.Parallel()

	svc := NewStaticService(nil)
	svc.Record(1001, Item{Kind: KindActivity, Summary: "later", Timestamp: "2025-07-01T00:00:00+09:00"})

	items, err := svc.Feed(context.Background(), "", 1001)
	require.NoError(t, err)
	require.Equal(t, "later", items[0].Summary)
	require.Equal(t, "act-1001-5", items[0].ID)
}
