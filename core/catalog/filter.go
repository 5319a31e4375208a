package catalog

import (
	"sort"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// TagAll matches every track.
const TagAll = "all"

// SortOrder selects how a filtered view is ordered.
type SortOrder string

const (
	SortNewest SortOrder = "new" // date, descending
	SortTitle  SortOrder = "az"  // title, alphabetical
	SortLength SortOrder = "len" // known length, ascending
)

// ParseSortOrder maps a query value to a SortOrder, defaulting to newest first.
func ParseSortOrder(s string) SortOrder {
	switch SortOrder(strings.ToLower(strings.TrimSpace(s))) {
	case SortTitle:
		return SortTitle
	case SortLength:
		return SortLength
	default:
		return SortNewest
	}
}

// Query is the filter state of the playlist: free text, active tag and order.
type Query struct {
	Text string
	Tag  string
	Sort SortOrder
}

// Filter returns the catalog indices matching q in display order. It has no
// side effects and may be called on every keystroke.
func Filter(c *Catalog, q Query) []int {
	if c == nil {
		return []int{}
	}

	fold := cases.Fold()
	needle := fold.String(strings.TrimSpace(q.Text))
	tag := q.Tag
	if tag == "" {
		tag = TagAll
	}

	view := make([]int, 0, len(c.tracks))
	for i := range c.tracks {
		t := &c.tracks[i]
		if tag != TagAll && !t.HasTag(tag) {
			continue
		}
		if needle != "" {
			haystack := fold.String(t.Title + " " + t.Artist + " " + strings.Join(t.Tags, " "))
			if !strings.Contains(haystack, needle) {
				continue
			}
		}
		view = append(view, i)
	}

	sortView(c, view, q.Sort)
	return view
}

func sortView(c *Catalog, view []int, order SortOrder) {
	switch order {
	case SortTitle:
		col := collate.New(language.English, collate.IgnoreCase)
		sort.SliceStable(view, func(a, b int) bool {
			return col.CompareString(c.tracks[view[a]].Title, c.tracks[view[b]].Title) < 0
		})
	case SortLength:
		sort.SliceStable(view, func(a, b int) bool {
			return knownLength(c, view[a]) < knownLength(c, view[b])
		})
	default:
		sort.SliceStable(view, func(a, b int) bool {
			return parseDate(c.tracks[view[a]].Date).After(parseDate(c.tracks[view[b]].Date))
		})
	}
}

func knownLength(c *Catalog, i int) float64 {
	if t := &c.tracks[i]; t.HasKnownLength() {
		return t.Length
	}
	return 0
}

// parseDate accepts full ISO dates and bare years; anything else sorts last.
func parseDate(s string) time.Time {
	for _, layout := range []string{"2006-01-02", time.RFC3339, "2006-01", "2006"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// Tags returns the distinct tags used in the catalog, sorted, without TagAll.
func Tags(c *Catalog) []string {
	if c == nil {
		return []string{}
	}
	set := make(map[string]struct{})
	for i := range c.tracks {
		for _, tag := range c.tracks[i].Tags {
			if tag != "" && tag != TagAll {
				set[tag] = struct{}{}
			}
		}
	}
	out := make([]string, 0, len(set))
	for tag := range set {
		out = append(out, tag)
	}
	sort.Strings(out)
	return out
}
