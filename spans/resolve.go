package spans

import (
	"slices"
)

// DropOverlapping returns the spans sorted by (Start, End) without intersecting spans:
// scanning in that order, a span that intersects the last kept span is dropped.
// Among identical ranges the first one in the input survives.
//
// The input is not modified.
func DropOverlapping(spans []Span) []Span {
	sorted := slices.Clone(spans)
	slices.SortStableFunc(sorted, comparePosition)
	kept := sorted[:0]
	for _, s := range sorted {
		if len(kept) > 0 && kept[len(kept)-1].Intersects(s) {
			continue
		}
		kept = append(kept, s)
	}
	return kept
}
