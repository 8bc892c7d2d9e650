// Package validator implements api.SequenceValidator policies.
package validator

import (
	"github.com/gomlx/go-seqtag/tagger/api"
)

// BIO enforces the span continuation policy used by span based taggers:
// a continue outcome is only valid right after a start or continue outcome that
// carries the same type (or, like it, none). Start and other outcomes are always valid.
type BIO struct{}

var _ api.SequenceValidator = BIO{}

// ValidSequence implements api.SequenceValidator.
func (BIO) ValidSequence(_ int, _ []string, history []api.Outcome, candidate api.Outcome) bool {
	if candidate.Role != api.RoleContinue {
		return true
	}
	if len(history) == 0 {
		return false
	}
	previous := history[len(history)-1]
	if previous.Role == api.RoleOther {
		return false
	}
	return previous.Type == candidate.Type
}

// Any accepts every outcome.
type Any struct{}

var _ api.SequenceValidator = Any{}

// ValidSequence implements api.SequenceValidator.
func (Any) ValidSequence(int, []string, []api.Outcome, api.Outcome) bool { return true }

// TagLookup returns the tags allowed for a word, or nil if the word is unknown.
type TagLookup interface {
	Tags(word string) []string
}

// Dictionary restricts the outcome of a token to the tags its dictionary entry lists.
// Tokens without an entry accept any outcome.
type Dictionary struct {
	Lookup TagLookup
}

var _ api.SequenceValidator = Dictionary{}

// ValidSequence implements api.SequenceValidator.
func (d Dictionary) ValidSequence(index int, tokens []string, _ []api.Outcome, candidate api.Outcome) bool {
	if d.Lookup == nil {
		return true
	}
	tags := d.Lookup.Tags(tokens[index])
	if tags == nil {
		return true
	}
	for _, tag := range tags {
		if tag == candidate.Label {
			return true
		}
	}
	return false
}
