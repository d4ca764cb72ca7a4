package activity

import "strings"

// DayGroup holds the items sharing one calendar date.
type DayGroup[T any] struct {
	Date  string
	Items []T
}

// GroupByDay buckets items by the date portion of their timestamp. Groups appear
// in the order their date is first seen and items keep their original order.
func GroupByDay[T any](items []T, timestamp func(T) string) []DayGroup[T] {
	if len(items) == 0 {
		return nil
	}
	var groups []DayGroup[T]
	index := make(map[string]int)
	for _, item := range items {
		key := DateKey(timestamp(item))
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, DayGroup[T]{Date: key})
		}
		groups[i].Items = append(groups[i].Items, item)
	}
	return groups
}

// DateKey extracts the date prefix of an ISO-like timestamp ("2025-06-25T10:00" or
// "2025-06-25 10:00"). Values without a separator are truncated to ten characters.
func DateKey(ts string) string {
	ts = strings.TrimSpace(ts)
	if i := strings.IndexAny(ts, "T "); i >= 0 {
		return ts[:i]
	}
	if len(ts) > 10 {
		return ts[:10]
	}
	return ts
}
