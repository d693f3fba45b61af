// Package aggregate merges per-source record batches into one deterministic
// list. The pipeline is fixed: concatenate in group order, count per source,
// dedup first-seen-wins, stable sort, cap. Because the sort is the
// determinism mechanism, callers that fetch sources concurrently still get
// identical output regardless of completion order.
package aggregate

import (
	"slices"
	"strings"
)

// Group is one source's batch, labeled for per-source counting. For a
// multi-account connector the source is the account name.
type Group[T any] struct {
	Source  string
	Records []T
}

// Options control how groups merge.
type Options[T any] struct {
	// Key identifies a record for dedup: the first record claiming a key
	// wins and records with an empty key are dropped. Nil disables dedup.
	Key func(T) string

	// SortKey orders the merged list lexicographically. Records with an
	// empty key sort lowest. Nil keeps concatenation order.
	SortKey func(T) string

	// Descending reverses the sort order. Ties keep concatenation order
	// either way.
	Descending bool

	// Limit caps the merged list after sorting; zero or negative means
	// unlimited.
	Limit int
}

// Merge combines the groups per opts. The returned counts are pre-dedup,
// keyed by group source, so a caller can tell "source fetched nothing" from
// "source's records all lost the dedup". The merged slice is never nil.
func Merge[T any](groups []Group[T], opts Options[T]) ([]T, map[string]int) {
	total := 0
	for _, g := range groups {
		total += len(g.Records)
	}
	counts := make(map[string]int, len(groups))
	merged := make([]T, 0, total)
	for _, g := range groups {
		counts[g.Source] += len(g.Records)
		merged = append(merged, g.Records...)
	}

	if opts.Key != nil {
		seen := make(map[string]struct{}, len(merged))
		unique := merged[:0]
		for _, r := range merged {
			k := opts.Key(r)
			if k == "" {
				continue
			}
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			unique = append(unique, r)
		}
		merged = unique
	}

	if opts.SortKey != nil {
		slices.SortStableFunc(merged, func(a, b T) int {
			if opts.Descending {
				return strings.Compare(opts.SortKey(b), opts.SortKey(a))
			}
			return strings.Compare(opts.SortKey(a), opts.SortKey(b))
		})
	}

	if opts.Limit > 0 && len(merged) > opts.Limit {
		merged = merged[:opts.Limit]
	}
	return merged, counts
}
