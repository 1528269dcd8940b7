package session

import (
	"sort"
	"time"
)

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999", // naive ISO-8601, no zone
	"2006-01-02 15:04:05.999999999",
}

func parseTimestamp(s string) (time.Time, bool) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// SortByCreatedDesc orders sessions newest first. When every created_at
// parses as a timestamp the comparison is by instant; otherwise the whole
// set falls back to plain string order. Ties break on id.
func SortByCreatedDesc(sessions []Session) {
	parsed := make([]time.Time, len(sessions))
	allParsed := true
	for i := range sessions {
		t, ok := parseTimestamp(sessions[i].CreatedAt)
		if !ok {
			allParsed = false
			break
		}
		parsed[i] = t
	}

	idx := make([]int, len(sessions))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		i, j := idx[a], idx[b]
		if allParsed {
			if !parsed[i].Equal(parsed[j]) {
				return parsed[i].After(parsed[j])
			}
		} else if sessions[i].CreatedAt != sessions[j].CreatedAt {
			return sessions[i].CreatedAt > sessions[j].CreatedAt
		}
		return sessions[i].ID < sessions[j].ID
	})

	sorted := make([]Session, len(sessions))
	for k, i := range idx {
		sorted[k] = sessions[i]
	}
	copy(sessions, sorted)
}
