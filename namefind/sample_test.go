package namefind

import (
	"slices"
	"testing"

	"github.com/gomlx/go-seqtag/spans"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNameSample(t *testing.T) {
	line := "<START:person> Pierre Vinken <END> , 61 years old , will join <START:organization> IBM <END> ."
	sample, err := ParseNameSample(line, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"Pierre", "Vinken", ",", "61", "years", "old", ",", "will", "join", "IBM", "."},
		sample.Sentence)
	assert.Equal(t, []spans.Span{spans.New(0, 2, "person"), spans.New(9, 10, "organization")}, sample.Names)
	assert.False(t, sample.ClearAdaptiveData)
	assert.Equal(t, line, sample.String())
	assert.Equal(t, []string{"Pierre Vinken", "IBM"}, spans.ToStrings(sample.Names, sample.Sentence))

	sample, err = ParseNameSample("Mr. <START> Vinken <END> is chairman", true)
	require.NoError(t, err)
	assert.Equal(t, []spans.Span{spans.New(1, 2, "")}, sample.Names)
	assert.True(t, sample.ClearAdaptiveData)
	assert.Equal(t, "Mr. <START> Vinken <END> is chairman", sample.String())

	sample, err = ParseNameSample("  no   names\there ", false)
	require.NoError(t, err)
	assert.Equal(t, []string{"no", "names", "here"}, sample.Sentence)
	assert.Empty(t, sample.Names)
}

func TestParseNameSampleErrors(t *testing.T) {
	for _, line := range []string{
		"<START:person> Pierre Vinken",
		"Pierre Vinken <END>",
		"<START:person> <END> Vinken",
		"<START:person> <START:person> Pierre <END> <END>",
	} {
		_, err := ParseNameSample(line, false)
		assert.Error(t, err, "line %q", line)
	}
}

func TestNewNameSample(t *testing.T) {
	sentence := []string{"a", "b", "c"}
	sample, err := NewNameSample(sentence, []spans.Span{spans.New(2, 3, "x"), spans.New(0, 1, "y")}, nil, false)
	require.NoError(t, err)
	assert.Equal(t, []spans.Span{spans.New(0, 1, "y"), spans.New(2, 3, "x")}, sample.Names)
	assert.Equal(t, 3, sample.Len())

	_, err = NewNameSample(sentence, []spans.Span{spans.New(2, 4, "x")}, nil, false)
	assert.Error(t, err)
	_, err = NewNameSample(sentence, nil, [][]string{{"f"}}, false)
	assert.Error(t, err)
	_, err = NewNameSample(sentence, []spans.Span{spans.New(1, 3, "x"), spans.New(0, 2, "y")}, nil, false)
	assert.ErrorContains(t, err, "overlap")
	_, err = NewNameSample(sentence, []spans.Span{spans.New(0, 2, "x"), spans.New(0, 2, "y")}, nil, false)
	assert.Error(t, err)

	other, err := NewNameSample(slices.Clone(sentence), []spans.Span{spans.New(0, 1, "y"), spans.New(2, 3, "x")}, nil, true)
	require.NoError(t, err)
	assert.True(t, sample.Equal(other))
	other.Names = other.Names[:1]
	assert.False(t, sample.Equal(other))
}

func TestSamples(t *testing.T) {
	lines := []string{
		"<START:person> Pierre Vinken <END> , 61 years old .",
		"Mr. <START:person> Vinken <END> is chairman .",
		"",
		"  ",
		"<START:organization> IBM <END> rallied .",
	}
	var clears []bool
	var sizes []int
	for sample, err := range Samples(linesOf(lines...)) {
		require.NoError(t, err)
		clears = append(clears, sample.ClearAdaptiveData)
		sizes = append(sizes, sample.Len())
	}
	assert.Equal(t, []bool{true, false, true}, clears)
	assert.Equal(t, []int{7, 5, 3}, sizes)

	var count int
	for _, err := range Samples(linesOf("fine .", "<END> broken")) {
		count++
		if count == 2 {
			assert.ErrorContains(t, err, "line 2")
		}
	}
	assert.Equal(t, 2, count)
}
