package catalog

import (
	"fmt"
	"testing"

	"levelhub/internal/store"
)

func TestResolveDefaults(t *testing.T) {
	d := Resolve("", "", "")

	if d.SortBy != 5 || d.SortDir != 0 || d.Filter != 0 {
		t.Fatalf("unexpected defaults: %+v", d)
	}
	if d.Column() != store.SortByReviewCount {
		t.Fatalf("default column = %q, want reviews_count", d.Column())
	}
	if !d.Descending() {
		t.Fatal("default direction should be descending")
	}
}

func TestResolveClampsOutOfRange(t *testing.T) {
	tests := []struct {
		name                   string
		sortBy, sortDir, filter string
		want                   SortDescriptor
	}{
		{
			name:   "all out of range",
			sortBy: "99", sortDir: "5", filter: "7",
			want: SortDescriptor{SortBy: 0, SortDir: 0, Filter: 0},
		},
		{
			name:   "negative values",
			sortBy: "-1", sortDir: "-3", filter: "-100",
			want: SortDescriptor{SortBy: 0, SortDir: 0, Filter: 0},
		},
		{
			name:   "upper bounds are exclusive",
			sortBy: "6", sortDir: "2", filter: "3",
			want: SortDescriptor{SortBy: 0, SortDir: 0, Filter: 0},
		},
		{
			name:   "valid values pass through",
			sortBy: "2", sortDir: "1", filter: "1",
			want: SortDescriptor{SortBy: 2, SortDir: 1, Filter: 1},
		},
		{
			name:   "non-numeric falls back to defaults",
			sortBy: "abc", sortDir: "x", filter: "1e3",
			want: SortDescriptor{SortBy: 5, SortDir: 0, Filter: 0},
		},
		{
			name:   "highest valid indexes",
			sortBy: "5", sortDir: "1", filter: "2",
			want: SortDescriptor{SortBy: 5, SortDir: 1, Filter: 2},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Resolve(tc.sortBy, tc.sortDir, tc.filter)
			if got != tc.want {
				t.Fatalf("Resolve(%q, %q, %q) = %+v, want %+v",
					tc.sortBy, tc.sortDir, tc.filter, got, tc.want)
			}
		})
	}
}

func TestResolveNeverProducesOutOfRangeIndexes(t *testing.T) {
	// Sweep a wide integer range; every result must index its table.
	for v := -1000; v <= 1000; v++ {
		raw := fmt.Sprintf("%d", v)
		d := Resolve(raw, raw, raw)
		if d.SortBy < 0 || d.SortBy >= len(sortableColumns) {
			t.Fatalf("sortBy %d out of range for input %d", d.SortBy, v)
		}
		if d.SortDir < 0 || d.SortDir >= directionCount {
			t.Fatalf("sortDir %d out of range for input %d", d.SortDir, v)
		}
		if d.Filter < 0 || d.Filter >= filterCount {
			t.Fatalf("filter %d out of range for input %d", d.Filter, v)
		}
	}
}

func TestResolvePage(t *testing.T) {
	tests := []struct {
		raw  string
		want int
	}{
		{"", 1},
		{"0", 1},
		{"-5", 1},
		{"abc", 1},
		{"1", 1},
		{"17", 17},
	}
	for _, tc := range tests {
		if got := ResolvePage(tc.raw); got != tc.want {
			t.Fatalf("ResolvePage(%q) = %d, want %d", tc.raw, got, tc.want)
		}
	}
}

func TestFilterModeDegradesForAnonymous(t *testing.T) {
	anonymous := Caller{}
	alice := Caller{ID: 7, Name: "alice"}

	tests := []struct {
		filter   int
		caller   Caller
		want     store.LevelFilter
	}{
		{0, anonymous, store.FilterAll},
		{1, anonymous, store.FilterAll},
		{2, anonymous, store.FilterAll},
		{0, alice, store.FilterAll},
		{1, alice, store.FilterReviewedBy},
		{2, alice, store.FilterNotReviewedBy},
	}
	for _, tc := range tests {
		d := SortDescriptor{SortBy: 0, SortDir: 0, Filter: tc.filter}
		if got := d.FilterMode(tc.caller); got != tc.want {
			t.Fatalf("FilterMode(filter=%d, caller=%+v) = %d, want %d",
				tc.filter, tc.caller, got, tc.want)
		}
	}
}

func TestSortColumnMapping(t *testing.T) {
	wantColumns := []store.SortColumn{
		store.SortByID,
		store.SortByOverall,
		store.SortByGameplay,
		store.SortByVisuals,
		store.SortByDifficulty,
		store.SortByReviewCount,
	}
	for i, want := range wantColumns {
		d := SortDescriptor{SortBy: i}
		if got := d.Column(); got != want {
			t.Fatalf("index %d maps to %q, want %q", i, got, want)
		}
	}
}
