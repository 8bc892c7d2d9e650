package spans

import (
	"github.com/gomlx/go-seqtag/tagger/api"
)

// Extract returns the spans encoded by a tag sequence, in left to right order.
//
// A start outcome opens a span (closing the one already open, if any), a continue outcome extends the
// open span and an other outcome closes it. A continue outcome with no open span is ignored.
// The type of a closed span is the type of its last outcome.
func Extract(outcomes []api.Outcome) []Span {
	var found []Span
	open := -1
	for ii, o := range outcomes {
		switch o.Role {
		case api.RoleStart:
			if open != -1 {
				found = append(found, New(open, ii, outcomes[ii-1].Type))
			}
			open = ii
		case api.RoleContinue:
			// Extends the open span: it's closed once a later outcome ends it.
		default:
			if open != -1 {
				found = append(found, New(open, ii, outcomes[ii-1].Type))
				open = -1
			}
		}
	}
	if open != -1 {
		found = append(found, New(open, len(outcomes), outcomes[len(outcomes)-1].Type))
	}
	return found
}

// ExtractLabels parses labels with the scheme s and extracts their spans.
func ExtractLabels(s api.Scheme, labels []string) []Span {
	outcomes := make([]api.Outcome, len(labels))
	for ii, label := range labels {
		outcomes[ii] = s.Parse(label)
	}
	return Extract(outcomes)
}

// Encode returns the tag sequence of n tokens for non-overlapping spans: the first token of each span
// gets the start label of its type, the remaining ones the continue label and tokens outside of any
// span the other label.
func Encode(s api.Scheme, spans []Span, n int) []string {
	labels := make([]string, n)
	other := s.Label(api.RoleOther, "")
	for ii := range labels {
		labels[ii] = other
	}
	for _, span := range spans {
		labels[span.Start] = s.Label(api.RoleStart, span.Type)
		for ii := span.Start + 1; ii < span.End; ii++ {
			labels[ii] = s.Label(api.RoleContinue, span.Type)
		}
	}
	return labels
}
