package namefind

import (
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
	"github.com/gomlx/go-seqtag/spans"
	"github.com/pkg/errors"
)

// markup is a sentence in the name sample format: whitespace separated tokens, where names are
// enclosed by "<START:type>" (or "<START>") and "<END>".
type markup struct {
	Items []*markupItem `parser:"@@*"`
}

type markupItem struct {
	Name  *markupName `parser:"  @@"`
	Token string      `parser:"| @Token"`
}

type markupName struct {
	Start  string   `parser:"@Start"`
	Tokens []string `parser:"@Token+"`
	End    string   `parser:"@End"`
}

// markupLexer tokens. Start and End come before Token so the tags are never read as tokens.
var markupLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Start", Pattern: `<START(:[^>\s]+)?>`},
	{Name: "End", Pattern: `<END>`},
	{Name: "Token", Pattern: `\S+`},
	{Name: "Whitespace", Pattern: `\s+`},
})

var markupParser = participle.MustBuild[markup](
	participle.Lexer(markupLexer),
	participle.Elide("Whitespace"),
)

// ParseNameSample parses one line in the name sample format, e.g.
//
//	<START:person> Pierre Vinken <END> , 61 years old , will join the board .
//
// Nested or unbalanced tags and names without tokens are errors.
func ParseNameSample(line string, clearAdaptiveData bool) (*NameSample, error) {
	parsed, err := markupParser.ParseString("", line)
	if err != nil {
		return nil, errors.Wrapf(err, "namefind: parsing sample %q", line)
	}
	var sentence []string
	var names []spans.Span
	for _, item := range parsed.Items {
		if item.Name == nil {
			sentence = append(sentence, item.Token)
			continue
		}
		start := len(sentence)
		sentence = append(sentence, item.Name.Tokens...)
		nameType := strings.TrimSuffix(strings.TrimPrefix(item.Name.Start, "<START"), ">")
		nameType = strings.TrimPrefix(nameType, ":")
		names = append(names, spans.New(start, len(sentence), nameType))
	}
	return NewNameSample(sentence, names, nil, clearAdaptiveData)
}
