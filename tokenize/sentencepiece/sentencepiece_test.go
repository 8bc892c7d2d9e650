package sentencepiece

import (
	"os"
	"strings"
	"testing"

	"github.com/gomlx/go-seqtag/tokenize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAlignPieces(t *testing.T) {
	text := "Hello  wörld!"
	pieces := []string{"▁Hell", "o", "▁", "▁w", "ör", "ld", "!"}
	spans := alignPieces(text, pieces)
	assert.Equal(t, []tokenize.Span{
		{Start: 0, End: 4}, {Start: 4, End: 5}, {Start: 6, End: 7}, {Start: 7, End: 8}, {Start: 8, End: 11},
		{Start: 11, End: 13}, {Start: 13, End: 14},
	}, spans)
	assert.Equal(t, "ör", text[spans[4].Start:spans[4].End])

	// Unknown pieces advance by their length, without going past the end.
	spans = alignPieces("ab", []string{"▁<unk>"})
	assert.Equal(t, []tokenize.Span{{Start: 0, End: 2}}, spans)
}

func TestFindSubstring(t *testing.T) {
	assert.Equal(t, 4, findSubstring("abcabc", "bc", 2))
	assert.Equal(t, -1, findSubstring("abc", "a", 1))
	assert.Equal(t, -1, findSubstring("abc", "a", 3))
}

// TestTokenizeWithSpans needs a SentencePiece model, given by SEQTAG_SENTENCEPIECE_MODEL.
func TestTokenizeWithSpans(t *testing.T) {
	modelPath := os.Getenv("SEQTAG_SENTENCEPIECE_MODEL")
	if modelPath == "" {
		t.Skip("SEQTAG_SENTENCEPIECE_MODEL not set")
	}
	tok, err := NewFromFile(modelPath)
	require.NoError(t, err)

	for _, input := range []string{"hello world", "The quick brown fox.", "Multiple  spaces   here"} {
		t.Run(input, func(t *testing.T) {
			tokens, spans := tok.TokenizeWithSpans(input)
			assert.NotEmpty(t, tokens)
			require.Len(t, spans, len(tokens))
			for ii, span := range spans {
				require.True(t, 0 <= span.Start && span.Start <= span.End && span.End <= len(input))
				assert.True(t, strings.Contains(input[span.Start:span.End], tokens[ii]) ||
					strings.Contains(tokens[ii], input[span.Start:span.End]), "token %q at %v", tokens[ii], span)
			}
		})
	}
}
