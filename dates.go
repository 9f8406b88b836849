package pubindex

import (
	"slices"
	"strings"
	"time"
)

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseDate parses a frontmatter date in any of the accepted layouts.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// sortKey is the instant a summary sorts by. Missing or unparseable dates
// sort as the Unix epoch, i.e. after every dated post.
func sortKey(s Summary) time.Time {
	if s.Date != nil {
		if t, ok := ParseDate(*s.Date); ok {
			return t
		}
	}
	return time.Unix(0, 0).UTC()
}

// SortByDate orders posts newest first in place. Posts with equal dates
// keep their relative input order.
func SortByDate(posts []Summary) {
	type keyed struct {
		at time.Time
		s  Summary
	}
	ks := make([]keyed, len(posts))
	for i, p := range posts {
		ks[i] = keyed{at: sortKey(p), s: p}
	}
	slices.SortStableFunc(ks, func(a, b keyed) int {
		return b.at.Compare(a.at)
	})
	for i := range ks {
		posts[i] = ks[i].s
	}
}
