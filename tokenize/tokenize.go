// Package tokenize splits raw text into the tokens consumed by the taggers, keeping the byte span
// of each token in the original text so tags can be mapped back to it.
package tokenize

import (
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// Span is the byte span of a token in the original text: text[Start:End].
type Span struct {
	Start int // start byte position (inclusive)
	End   int // end byte position (exclusive)
}

// Tokenizer splits text into tokens.
type Tokenizer interface {
	// TokenizeWithSpans returns the tokens of text and their byte spans in text.
	TokenizeWithSpans(text string) ([]string, []Span)
}

// Tokenize returns only the tokens of text.
func Tokenize(t Tokenizer, text string) []string {
	tokens, _ := t.TokenizeWithSpans(text)
	return tokens
}

type charClass int

const (
	classSpace charClass = iota
	classLetter
	classDigit
	classOther
)

func classOf(r rune) charClass {
	switch {
	case unicode.IsSpace(r):
		return classSpace
	case unicode.IsLetter(r) || unicode.IsMark(r):
		return classLetter
	case unicode.IsDigit(r):
		return classDigit
	}
	return classOther
}

// Simple splits text where the character class changes between letters, digits, whitespace and
// other characters. Other characters form tokens of their own, except for runs of the same
// character (e.g. "..."). Tokens are NFC normalized, spans refer to the original text.
type Simple struct{}

var _ Tokenizer = Simple{}

// TokenizeWithSpans implements Tokenizer.
func (Simple) TokenizeWithSpans(text string) ([]string, []Span) {
	var tokens []string
	var spans []Span
	start := -1
	var startClass charClass
	var previous rune
	flush := func(end int) {
		if start >= 0 {
			tokens = append(tokens, norm.NFC.String(text[start:end]))
			spans = append(spans, Span{Start: start, End: end})
		}
		start = -1
	}
	for pos, r := range text {
		class := classOf(r)
		if start >= 0 && (class != startClass || (class == classOther && r != previous)) {
			flush(pos)
		}
		if class != classSpace && start < 0 {
			start, startClass = pos, class
		}
		previous = r
	}
	flush(len(text))
	return tokens, spans
}

// Whitespace splits text on whitespace only.
type Whitespace struct{}

var _ Tokenizer = Whitespace{}

// TokenizeWithSpans implements Tokenizer.
func (Whitespace) TokenizeWithSpans(text string) ([]string, []Span) {
	var tokens []string
	var spans []Span
	start := -1
	for pos := 0; pos < len(text); {
		r, size := utf8.DecodeRuneInString(text[pos:])
		if unicode.IsSpace(r) {
			if start >= 0 {
				tokens = append(tokens, text[start:pos])
				spans = append(spans, Span{Start: start, End: pos})
				start = -1
			}
		} else if start < 0 {
			start = pos
		}
		pos += size
	}
	if start >= 0 {
		tokens = append(tokens, text[start:])
		spans = append(spans, Span{Start: start, End: len(text)})
	}
	return tokens, spans
}
