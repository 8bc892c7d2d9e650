// Package fmeasure implements a running precision, recall and F1 statistic over labeled spans.
package fmeasure

import (
	"fmt"

	"github.com/gomlx/go-seqtag/spans"
)

// FMeasure accumulates true positives against the number of predicted (selected) and reference
// (target) spans. The zero value is ready to use.
//
// It's not safe for concurrent use: accumulate one per goroutine and Merge them.
type FMeasure struct {
	truePositives int
	selected      int
	target        int
}

// New returns an empty accumulator.
func New() *FMeasure {
	return &FMeasure{}
}

// Update compares references with predictions: a prediction that exactly matches
// (Start, End, Type) a not yet matched reference counts as a true positive; other predictions are
// false positives and unmatched references false negatives.
func (f *FMeasure) Update(references, predictions []spans.Span) {
	f.truePositives += countTruePositives(references, predictions)
	f.selected += len(predictions)
	f.target += len(references)
}

// countTruePositives matches predictions against references as multisets.
func countTruePositives(references, predictions []spans.Span) int {
	if len(references) == 0 || len(predictions) == 0 {
		return 0
	}
	unmatched := make(map[spans.Span]int, len(references))
	for _, r := range references {
		unmatched[r]++
	}
	var count int
	for _, p := range predictions {
		if unmatched[p] > 0 {
			unmatched[p]--
			count++
		}
	}
	return count
}

// Merge adds the counters of other into f. Merging is associative and commutative.
func (f *FMeasure) Merge(other *FMeasure) {
	f.truePositives += other.truePositives
	f.selected += other.selected
	f.target += other.target
}

// TruePositives returns the number of predictions that matched a reference.
func (f *FMeasure) TruePositives() int { return f.truePositives }

// FalsePositives returns the number of predictions that matched no reference.
func (f *FMeasure) FalsePositives() int { return f.selected - f.truePositives }

// FalseNegatives returns the number of references no prediction matched.
func (f *FMeasure) FalseNegatives() int { return f.target - f.truePositives }

// Selected returns the number of predicted spans seen so far.
func (f *FMeasure) Selected() int { return f.selected }

// Target returns the number of reference spans seen so far.
func (f *FMeasure) Target() int { return f.target }

// Precision returns TP / (TP + FP), or 0 if nothing was predicted.
func (f *FMeasure) Precision() float64 {
	return ratio(f.truePositives, f.selected)
}

// Recall returns TP / (TP + FN), or 0 if there were no references.
func (f *FMeasure) Recall() float64 {
	return ratio(f.truePositives, f.target)
}

// Value returns the F1 score, the harmonic mean of precision and recall, or 0 if both are 0.
func (f *FMeasure) Value() float64 {
	p, r := f.Precision(), f.Recall()
	if p+r == 0 {
		return 0
	}
	return 2 * p * r / (p + r)
}

func ratio(numerator, denominator int) float64 {
	if denominator == 0 {
		return 0
	}
	return float64(numerator) / float64(denominator)
}

// String implements fmt.Stringer.
func (f *FMeasure) String() string {
	return fmt.Sprintf("Precision: %.4f\nRecall: %.4f\nF-Measure: %.4f", f.Precision(), f.Recall(), f.Value())
}
