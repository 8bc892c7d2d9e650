// Package sentencepiece implements a tokenize.Tokenizer based on a SentencePiece model, for taggers
// trained on subword units.
package sentencepiece

import (
	"strings"

	esentencepiece "github.com/eliben/go-sentencepiece"
	"github.com/gomlx/go-seqtag/tokenize"
	"github.com/pkg/errors"
)

// metaspace is the SentencePiece replacement of a space, U+2581.
const metaspace = "▁"

// Tokenizer implements tokenize.Tokenizer based on SentencePiece tokenizer by Google.
type Tokenizer struct {
	*esentencepiece.Processor
	Info *esentencepiece.ModelInfo
}

// Compile time assert that sentencepiece.Tokenizer implements tokenize.Tokenizer interface.
var _ tokenize.Tokenizer = &Tokenizer{}

// NewFromFile creates a Tokenizer from a "tokenizer.model" file, a SentencePiece Model proto.
func NewFromFile(filePath string) (*Tokenizer, error) {
	proc, err := esentencepiece.NewProcessorFromPath(filePath)
	if err != nil {
		return nil, errors.Wrapf(err, "can't create sentencepiece tokenizer from %q", filePath)
	}
	return &Tokenizer{
		Processor: proc,
		Info:      proc.ModelInfo(),
	}, nil
}

// TokenizeWithSpans implements tokenize.Tokenizer: tokens are the pieces without the metaspace
// marker, pieces that only mark a space are dropped.
func (p *Tokenizer) TokenizeWithSpans(text string) ([]string, []tokenize.Span) {
	encoded := p.Processor.Encode(text)
	pieces := make([]string, len(encoded))
	for ii, tok := range encoded {
		pieces[ii] = tok.Text
	}
	spans := alignPieces(text, pieces)
	var tokens []string
	var tokenSpans []tokenize.Span
	for ii, piece := range pieces {
		piece = strings.TrimPrefix(piece, metaspace)
		if piece == "" {
			continue
		}
		tokens = append(tokens, piece)
		tokenSpans = append(tokenSpans, spans[ii])
	}
	return tokens, tokenSpans
}

// alignPieces returns the byte span in text of each piece, matching pieces in order.
//
// A leading metaspace makes the match skip whitespace first. A piece that is only a metaspace spans
// the space before the current position, if any. Pieces not found in text (e.g. unknown characters)
// advance the position by their length.
func alignPieces(text string, pieces []string) []tokenize.Span {
	spans := make([]tokenize.Span, len(pieces))
	pos := 0
	for ii, piece := range pieces {
		matchPiece, hasLeadingSpace := strings.CutPrefix(piece, metaspace)
		if hasLeadingSpace {
			for pos < len(text) && isSpace(text[pos]) {
				pos++
			}
		}
		start := pos
		if matchPiece == "" {
			if hasLeadingSpace && start > 0 && isSpace(text[start-1]) {
				start--
			}
			spans[ii] = tokenize.Span{Start: start, End: pos}
			continue
		}
		if foundAt := findSubstring(text, matchPiece, pos); foundAt >= 0 {
			start = foundAt
			pos = foundAt + len(matchPiece)
		} else {
			pos = min(pos+len(matchPiece), len(text))
		}
		spans[ii] = tokenize.Span{Start: start, End: pos}
	}
	return spans
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

// findSubstring finds the first occurrence of substr in s starting from position start.
// Returns the byte position of the match, or -1 if not found.
func findSubstring(s, substr string, start int) int {
	if start >= len(s) {
		return -1
	}
	idx := strings.Index(s[start:], substr)
	if idx < 0 {
		return -1
	}
	return start + idx
}
