package namefind

import (
	"iter"
	"strings"

	"github.com/pkg/errors"
)

// Samples parses lines in the name sample format. Empty lines separate documents: the sample that
// follows them has ClearAdaptiveData set, as does the very first sample.
func Samples(lines iter.Seq2[string, error]) iter.Seq2[*NameSample, error] {
	return func(yield func(*NameSample, error) bool) {
		clearAdaptiveData := true
		lineNum := 0
		for line, err := range lines {
			lineNum++
			if err != nil {
				yield(nil, err)
				return
			}
			if strings.TrimSpace(line) == "" {
				clearAdaptiveData = true
				continue
			}
			sample, err := ParseNameSample(line, clearAdaptiveData)
			if err != nil {
				yield(nil, errors.WithMessagef(err, "line %d", lineNum))
				return
			}
			clearAdaptiveData = false
			if !yield(sample, nil) {
				return
			}
		}
	}
}
