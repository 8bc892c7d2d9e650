package features

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenClass(t *testing.T) {
	for token, want := range map[string]string{
		"":         ClassOther,
		"vinken":   ClassLowercase,
		"61":       ClassTwoDigits,
		"1999":     ClassFourDigits,
		"123":      ClassNumber,
		"A4":       ClassAlphaNumeric,
		"10-11":    ClassDigitDash,
		"11/29":    ClassDigitSlash,
		"1,000":    ClassDigitComma,
		"3.14":     ClassDigitPeriod,
		"I":        ClassSingleCapital,
		"IBM":      ClassAllCapitals,
		"Pierre":   ClassInitialCapital,
		"Élodie":   ClassInitialCapital,
		",":        ClassOther,
		"mid-1990": ClassDigitDash,
	} {
		assert.Equal(t, want, TokenClass(token), "token %q", token)
	}
}

func TestAt(t *testing.T) {
	tokens := []string{"a", "b"}
	assert.Equal(t, BeginOfSentence, At(tokens, -1))
	assert.Equal(t, "b", At(tokens, 1))
	assert.Equal(t, EndOfSentence, At(tokens, 2))
	assert.Equal(t, NoPreviousOutcome, PreviousOutcome([]string{"x"}, 0))
	assert.Equal(t, "x", PreviousOutcome([]string{"x"}, 1))
}

func TestBuilder(t *testing.T) {
	var b Builder
	b.AddSentenceBegin(0)
	b.Add("w", "pierre")
	b.Add("pw,w", BeginOfSentence, "pierre")
	b.AddRaw("def")
	b.AddSentenceBegin(1)
	first := b.Features()
	assert.Equal(t, []string{"S=begin", "w=pierre", "pw,w=*bos*,pierre", "def"}, first)
	b.Reset()
	b.Add("w", "vinken")
	assert.Equal(t, []string{"w=vinken"}, b.Features())
	assert.Equal(t, "w=pierre", first[1])
}
