package flatten

import "sort"

// Columns computes the ordered, deduplicated union of keys across all rows.
// Priority entries come first, in the given order, but only those that
// actually appear in some row; every remaining key follows in ascending
// lexicographic order.
//
// The result depends only on the set of keys, never on row order.
func Columns(rows []Row, priority []string) []string {
	union := make(map[string]bool)
	for _, row := range rows {
		for k := range row {
			union[k] = true
		}
	}

	cols := make([]string, 0, len(union))
	for _, p := range priority {
		if union[p] {
			cols = append(cols, p)
			delete(union, p)
		}
	}

	rest := make([]string, 0, len(union))
	for k := range union {
		rest = append(rest, k)
	}
	sort.Strings(rest)

	return append(cols, rest...)
}
