// Package features holds helpers shared by the context generators of the taggers.
package features

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Token classes returned by TokenClass.
const (
	ClassLowercase       = "lc"
	ClassTwoDigits       = "2d"
	ClassFourDigits      = "4d"
	ClassNumber          = "num"
	ClassAlphaNumeric    = "an"
	ClassDigitDash       = "dd"
	ClassDigitSlash      = "ds"
	ClassDigitComma      = "dc"
	ClassDigitPeriod     = "dp"
	ClassSingleCapital   = "sc"
	ClassAllCapitals     = "ac"
	ClassInitialCapital  = "ic"
	ClassOther           = "other"
	BeginOfSentence      = "*bos*"
	EndOfSentence        = "*eos*"
	NoPreviousOutcome    = "*none*"
	sentenceBeginFeature = "S=begin"
)

// TokenClass returns a coarse orthographic class of the token, e.g. "ic" for "Pierre" or "4d" for "1999".
func TokenClass(token string) string {
	var letters, lowers, uppers, digits, others int
	var hasDash, hasSlash, hasComma, hasPeriod bool
	for _, r := range token {
		switch {
		case unicode.IsLetter(r):
			letters++
			if unicode.IsUpper(r) {
				uppers++
			} else if unicode.IsLower(r) {
				lowers++
			}
		case unicode.IsDigit(r):
			digits++
		default:
			others++
			switch r {
			case '-':
				hasDash = true
			case '/':
				hasSlash = true
			case ',':
				hasComma = true
			case '.':
				hasPeriod = true
			}
		}
	}
	length := utf8.RuneCountInString(token)
	switch {
	case length == 0:
		return ClassOther
	case lowers == length:
		return ClassLowercase
	case digits == length && length == 2:
		return ClassTwoDigits
	case digits == length && length == 4:
		return ClassFourDigits
	case digits == length:
		return ClassNumber
	case digits > 0 && letters > 0 && others == 0:
		return ClassAlphaNumeric
	case digits > 0 && hasDash:
		return ClassDigitDash
	case digits > 0 && hasSlash:
		return ClassDigitSlash
	case digits > 0 && hasComma:
		return ClassDigitComma
	case digits > 0 && hasPeriod:
		return ClassDigitPeriod
	case uppers == 1 && length == 1:
		return ClassSingleCapital
	case uppers == length:
		return ClassAllCapitals
	case letters > 0 && unicode.IsUpper(firstRune(token)):
		return ClassInitialCapital
	}
	return ClassOther
}

func firstRune(s string) rune {
	r, _ := utf8.DecodeRuneInString(s)
	return r
}

// At returns tokens[index], or the sentence boundary markers when index is out of range.
func At(tokens []string, index int) string {
	switch {
	case index < 0:
		return BeginOfSentence
	case index >= len(tokens):
		return EndOfSentence
	}
	return tokens[index]
}

// PreviousOutcome returns priorOutcomes[index-1], or NoPreviousOutcome at the start of the sentence.
func PreviousOutcome(priorOutcomes []string, index int) string {
	if index <= 0 || index > len(priorOutcomes) {
		return NoPreviousOutcome
	}
	return priorOutcomes[index-1]
}

// Builder accumulates "name=value" features.
type Builder struct {
	features []string
	sb       strings.Builder
}

// Reset empties the builder. Slices returned by Features are not reused.
func (b *Builder) Reset() {
	b.features = nil
}

// Add appends a feature formed by name, "=" and the values joined by ",".
func (b *Builder) Add(name string, values ...string) {
	b.sb.Reset()
	b.sb.WriteString(name)
	b.sb.WriteByte('=')
	for ii, value := range values {
		if ii > 0 {
			b.sb.WriteByte(',')
		}
		b.sb.WriteString(value)
	}
	b.features = append(b.features, b.sb.String())
}

// AddRaw appends a feature as is.
func (b *Builder) AddRaw(feature string) {
	b.features = append(b.features, feature)
}

// AddSentenceBegin appends "S=begin" for the first token of a sentence.
func (b *Builder) AddSentenceBegin(index int) {
	if index == 0 {
		b.features = append(b.features, sentenceBeginFeature)
	}
}

// Features returns the accumulated features.
func (b *Builder) Features() []string {
	return b.features
}
