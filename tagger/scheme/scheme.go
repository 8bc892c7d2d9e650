// Package scheme implements the outcome label schemes used by the taggers.
//
//   - Name: "<type>-start", "<type>-continue", "other" (name finder). The legacy "cont" suffix is accepted.
//   - BIO: "B-<type>", "I-<type>", "O" (chunker).
//   - Plain: every label is a tag of its own with RoleOther (POS tagger).
package scheme

import (
	"strings"

	"github.com/gomlx/go-seqtag/tagger/api"
)

// Suffixes used by the Name scheme.
const (
	StartSuffix          = "start"
	ContinueSuffix       = "continue"
	LegacyContinueSuffix = "cont"
	OtherSuffix          = "other"
)

// Name is the name finder scheme: the role is given by the label suffix and the type by the prefix
// before the last "-", following the pattern "(.+)-<role>".
type Name struct{}

var _ api.Scheme = Name{}

// Parse implements api.Scheme.
func (Name) Parse(label string) api.Outcome {
	o := api.Outcome{Label: label, Role: api.RoleOther}
	var suffix string
	switch {
	case strings.HasSuffix(label, StartSuffix):
		o.Role, suffix = api.RoleStart, StartSuffix
	case strings.HasSuffix(label, ContinueSuffix):
		o.Role, suffix = api.RoleContinue, ContinueSuffix
	case strings.HasSuffix(label, LegacyContinueSuffix):
		o.Role, suffix = api.RoleContinue, LegacyContinueSuffix
	default:
		return o
	}
	prefix := strings.TrimSuffix(label, suffix)
	if len(prefix) > 1 && strings.HasSuffix(prefix, "-") {
		o.Type = prefix[:len(prefix)-1]
	}
	return o
}

// Label implements api.Scheme.
func (Name) Label(role api.Role, spanType string) string {
	var suffix string
	switch role {
	case api.RoleStart:
		suffix = StartSuffix
	case api.RoleContinue:
		suffix = ContinueSuffix
	default:
		return OtherSuffix
	}
	if spanType == "" {
		return suffix
	}
	return spanType + "-" + suffix
}

// BIO is the chunk scheme: "B-NP" starts a NP phrase, "I-NP" continues it and "O" is outside of any phrase.
type BIO struct{}

var _ api.Scheme = BIO{}

// Parse implements api.Scheme.
func (BIO) Parse(label string) api.Outcome {
	o := api.Outcome{Label: label, Role: api.RoleOther}
	switch {
	case label == "B" || strings.HasPrefix(label, "B-"):
		o.Role = api.RoleStart
	case label == "I" || strings.HasPrefix(label, "I-"):
		o.Role = api.RoleContinue
	default:
		return o
	}
	if len(label) > 2 {
		o.Type = label[2:]
	}
	return o
}

// Label implements api.Scheme.
func (BIO) Label(role api.Role, spanType string) string {
	var prefix string
	switch role {
	case api.RoleStart:
		prefix = "B"
	case api.RoleContinue:
		prefix = "I"
	default:
		return "O"
	}
	if spanType == "" {
		return prefix
	}
	return prefix + "-" + spanType
}

// Plain treats each label as a bare tag: every outcome has RoleOther and no span type.
// Label returns spanType unchanged for any role.
type Plain struct{}

var _ api.Scheme = Plain{}

// Parse implements api.Scheme.
func (Plain) Parse(label string) api.Outcome {
	return api.Outcome{Label: label, Role: api.RoleOther}
}

// Label implements api.Scheme.
func (Plain) Label(_ api.Role, spanType string) string {
	return spanType
}

// ParseAll parses every label of an alphabet, in order.
func ParseAll(s api.Scheme, labels []string) []api.Outcome {
	outcomes := make([]api.Outcome, len(labels))
	for ii, label := range labels {
		outcomes[ii] = s.Parse(label)
	}
	return outcomes
}
