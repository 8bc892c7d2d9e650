// Package api defines the types and interfaces shared by the sequence tagger.
// It's kept free of implementations so that the decoder, the span utilities and the
// task packages (namefind, chunker, postag) can all depend on it without cycles.
package api

// Role is the boundary role of an outcome within a labeled span.
type Role int

const (
	// RoleOther marks a token outside of any span.
	RoleOther Role = iota
	// RoleStart marks the first token of a span.
	RoleStart
	// RoleContinue marks a token that extends the span opened by a previous RoleStart.
	RoleContinue
)

// String returns the lower-case name of the role.
func (r Role) String() string {
	switch r {
	case RoleStart:
		return "start"
	case RoleContinue:
		return "continue"
	default:
		return "other"
	}
}

// Outcome is a parsed classifier label: the label string as emitted by the classifier,
// its boundary Role and its optional span Type ("" when the label carries no type).
//
// Outcomes are parsed once per label by a Scheme and carried through decoding and span extraction,
// so the label string is never pattern-matched again.
type Outcome struct {
	Label string
	Role  Role
	Type  string
}

// Scheme converts between outcome labels and their (Role, Type) interpretation.
type Scheme interface {
	// Parse interprets a label.
	Parse(label string) Outcome

	// Label returns the label for the given role and span type. For RoleOther the type is ignored.
	Label(role Role, spanType string) string
}

// Classifier is a probabilistic model over a fixed outcome alphabet.
//
// Implementations must be safe for concurrent read-only use: Eval must not mutate any state visible
// to the caller.
type Classifier interface {
	// Outcomes returns the outcome alphabet. The i-th probability returned by Eval is the probability
	// of Outcomes()[i].
	Outcomes() []string

	// Eval returns the probability distribution over Outcomes() for the given feature context.
	// The probabilities sum to 1.
	Eval(context []string) []float64
}

// ContextGenerator produces the feature context for the token at position index,
// given the outcomes already chosen for positions < index.
//
// additional holds optional caller-provided per-token features (it may be nil).
type ContextGenerator interface {
	Context(index int, tokens []string, priorOutcomes []string, additional [][]string) []string
}

// AdaptiveContextGenerator is a ContextGenerator that keeps document level state.
//
// It's owned by one decoding session (one Finder, one Tagger) and must not be shared across goroutines.
type AdaptiveContextGenerator interface {
	ContextGenerator

	// UpdateAdaptiveData is called after a sentence is fully tagged.
	UpdateAdaptiveData(tokens, outcomes []string)

	// ClearAdaptiveData resets the document level state. It's called between independent documents.
	ClearAdaptiveData()
}

// SequenceValidator decides whether candidate is a legal outcome for position index, given the
// input tokens and the outcomes chosen for the previous positions.
//
// Implementations must be pure: no hidden state, and no mutation of the slices passed in.
type SequenceValidator interface {
	ValidSequence(index int, tokens []string, history []Outcome, candidate Outcome) bool
}

// SequenceValidatorFunc adapts a function to the SequenceValidator interface.
type SequenceValidatorFunc func(index int, tokens []string, history []Outcome, candidate Outcome) bool

// ValidSequence implements SequenceValidator.
func (fn SequenceValidatorFunc) ValidSequence(index int, tokens []string, history []Outcome, candidate Outcome) bool {
	return fn(index, tokens, history, candidate)
}
