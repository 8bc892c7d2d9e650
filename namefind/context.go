package namefind

import (
	"strconv"

	"github.com/gomlx/go-seqtag/tagger/api"
	"github.com/gomlx/go-seqtag/tagger/features"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DefaultWindow is the number of tokens to each side of the current one used for features.
const DefaultWindow = 2

// ContextGenerator is the default name finder context generator. For each token it generates:
//
//   - lower-cased tokens and token classes in a window around the token;
//   - token and class bigrams with the previous and next tokens;
//   - the previous outcome, alone and combined with the token and its class;
//   - the outcome last assigned to the same token in the current document ("previous map");
//   - additional context entries, and a sentence begin marker.
//
// The previous map is adaptive data: it's updated after each decoded sentence and cleared between
// documents. A ContextGenerator is not safe for concurrent use.
type ContextGenerator struct {
	window      int
	lower       cases.Caser
	previousMap map[string]string
	builder     features.Builder
}

var _ api.AdaptiveContextGenerator = (*ContextGenerator)(nil)

// NewContextGenerator creates a ContextGenerator with DefaultWindow.
func NewContextGenerator() *ContextGenerator {
	return &ContextGenerator{
		window:      DefaultWindow,
		lower:       cases.Lower(language.Und),
		previousMap: make(map[string]string),
	}
}

// WithWindow sets the number of tokens to each side used for features.
// It returns the ContextGenerator itself, to allow cascading configuration calls.
func (cg *ContextGenerator) WithWindow(window int) *ContextGenerator {
	cg.window = max(window, 0)
	return cg
}

func offsetName(offset int) string {
	switch {
	case offset < 0:
		return "p" + strconv.Itoa(-offset)
	case offset > 0:
		return "n" + strconv.Itoa(offset)
	}
	return ""
}

// Context implements api.ContextGenerator.
func (cg *ContextGenerator) Context(index int, tokens, priorOutcomes []string, additional [][]string) []string {
	b := &cg.builder
	b.Reset()
	b.AddRaw("def")
	b.AddSentenceBegin(index)

	token := cg.lower.String(tokens[index])
	class := features.TokenClass(tokens[index])
	for offset := -cg.window; offset <= cg.window; offset++ {
		if offset == 0 {
			continue
		}
		neighbour := features.At(tokens, index+offset)
		b.Add(offsetName(offset)+"w", cg.lower.String(neighbour))
		b.Add(offsetName(offset)+"wc", features.TokenClass(neighbour))
	}
	b.Add("w", token)
	b.Add("wc", class)
	b.Add("w&c", token, class)

	previous := features.At(tokens, index-1)
	next := features.At(tokens, index+1)
	b.Add("pw,w", cg.lower.String(previous), token)
	b.Add("pwc,wc", features.TokenClass(previous), class)
	b.Add("w,nw", token, cg.lower.String(next))
	b.Add("wc,nc", class, features.TokenClass(next))

	po := features.PreviousOutcome(priorOutcomes, index)
	b.Add("po", po)
	b.Add("pow", po, token)
	b.Add("powf", po, class)

	if outcome, found := cg.previousMap[tokens[index]]; found {
		b.Add("pd", outcome)
	}
	if index < len(additional) {
		for _, value := range additional[index] {
			b.Add("ac", value)
		}
	}
	return b.Features()
}

// UpdateAdaptiveData implements api.AdaptiveContextGenerator: it remembers the outcome of each token.
func (cg *ContextGenerator) UpdateAdaptiveData(tokens, outcomes []string) {
	for ii, token := range tokens {
		if ii < len(outcomes) {
			cg.previousMap[token] = outcomes[ii]
		}
	}
}

// ClearAdaptiveData implements api.AdaptiveContextGenerator.
func (cg *ContextGenerator) ClearAdaptiveData() {
	clear(cg.previousMap)
}
