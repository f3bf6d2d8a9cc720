package catalog

import (
	"strconv"

	"levelhub/internal/store"
)

// sortableColumns is the fixed, ordered list of attributes a listing may be
// sorted by. Request parameters index into this table; the table itself is
// the only source of ORDER BY column names.
var sortableColumns = []store.SortColumn{
	store.SortByID,
	store.SortByOverall,
	store.SortByGameplay,
	store.SortByVisuals,
	store.SortByDifficulty,
	store.SortByReviewCount,
}

// directions: index 0 descending, index 1 ascending.
const directionCount = 2

// filter modes: 0 none, 1 mine-only, 2 unreviewed-only.
const filterCount = 3

// Defaults used when a parameter is absent or non-numeric.
const (
	defaultSortBy  = 5 // review count
	defaultSortDir = 0 // descending
	defaultFilter  = 0 // no restriction
)

// SortDescriptor is a validated sort/filter selection. Every field is a
// valid index into its table; construct one through Resolve.
type SortDescriptor struct {
	SortBy  int `json:"sortBy"`
	SortDir int `json:"sortDir"`
	Filter  int `json:"filter"`
}

// Resolve turns raw, untrusted query parameters into a SortDescriptor that
// is always safe to use. Missing or non-numeric input takes the documented
// default; a present value out of range for its table, negative included,
// falls back to index 0. Malformed input degrades to the default view, it
// never errors.
func Resolve(sortBy, sortDir, filter string) SortDescriptor {
	return SortDescriptor{
		SortBy:  resolveIndex(sortBy, defaultSortBy, len(sortableColumns)),
		SortDir: resolveIndex(sortDir, defaultSortDir, directionCount),
		Filter:  resolveIndex(filter, defaultFilter, filterCount),
	}
}

func resolveIndex(raw string, fallback, size int) int {
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	if v < 0 || v >= size {
		return 0
	}
	return v
}

// ResolvePage parses a page parameter, defaulting to the first page.
func ResolvePage(raw string) int {
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		return 1
	}
	return v
}

// Column is the store column the descriptor sorts by.
func (d SortDescriptor) Column() store.SortColumn {
	return sortableColumns[d.SortBy]
}

// Descending reports whether the sort runs high to low.
func (d SortDescriptor) Descending() bool {
	return d.SortDir == 0
}

// FilterMode maps the filter index to a store filter. The personalized
// modes need a caller; without one they degrade to no restriction rather
// than failing, which keeps stale bookmarked links browsable.
func (d SortDescriptor) FilterMode(caller Caller) store.LevelFilter {
	if caller.Anonymous() {
		return store.FilterAll
	}
	switch d.Filter {
	case 1:
		return store.FilterReviewedBy
	case 2:
		return store.FilterNotReviewedBy
	default:
		return store.FilterAll
	}
}
