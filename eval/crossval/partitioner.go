// Package crossval splits an ordered sample stream into K contiguous folds for cross-validation.
//
// Example:
//
//	p, err := crossval.New(samples, 10)
//	if err != nil {
//		return err
//	}
//	for p.HasNext() {
//		fold, err := p.Next()
//		if err != nil {
//			return err
//		}
//		model, err := train(fold.Train())
//		...
//		evaluate(model, fold.Test())
//	}
package crossval

import (
	"iter"

	"github.com/pkg/errors"
)

var (
	// ErrInvalidFoldCount is returned by New for fewer than 2 folds.
	ErrInvalidFoldCount = errors.New("crossval: the number of folds must be at least 2")

	// ErrNoMoreFolds is returned by Partitioner.Next once all folds were returned.
	ErrNoMoreFolds = errors.New("crossval: all folds were already returned")
)

// Partitioner yields, in order, the K folds of an ordered sample source.
// Fold i tests on the i-th contiguous block of the samples and trains on the other blocks,
// keeping their original order.
//
// The source is read only once, on the first call to Next, and buffered: it can be a one-pass
// stream of unknown length. Every fold stream can be traversed any number of times.
type Partitioner[T any] struct {
	source  iter.Seq2[T, error]
	folds   int
	next    int
	samples []T
	loaded  bool
}

// New creates a Partitioner of source into folds blocks.
func New[T any](source iter.Seq2[T, error], folds int) (*Partitioner[T], error) {
	if folds < 2 {
		return nil, errors.Wrapf(ErrInvalidFoldCount, "got %d folds", folds)
	}
	return &Partitioner[T]{source: source, folds: folds}, nil
}

// Samples adapts a slice to a sample source.
func Samples[T any](samples []T) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for _, s := range samples {
			if !yield(s, nil) {
				return
			}
		}
	}
}

// Folds returns the number of folds.
func (p *Partitioner[T]) Folds() int {
	return p.folds
}

// HasNext reports whether Next will return another fold.
func (p *Partitioner[T]) HasNext() bool {
	return p.next < p.folds
}

// Next returns the next fold. It returns ErrNoMoreFolds after the last one, or the first error
// yielded by the source.
func (p *Partitioner[T]) Next() (*Fold[T], error) {
	if !p.HasNext() {
		return nil, ErrNoMoreFolds
	}
	if !p.loaded {
		for sample, err := range p.source {
			if err != nil {
				return nil, errors.WithMessagef(err, "crossval: reading sample #%d", len(p.samples))
			}
			p.samples = append(p.samples, sample)
		}
		p.loaded = true
	}
	n := len(p.samples)
	fold := &Fold[T]{
		Index:   p.next,
		samples: p.samples,
		lo:      p.next * n / p.folds,
		hi:      (p.next + 1) * n / p.folds,
	}
	p.next++
	return fold, nil
}

// Fold is one training/test split.
type Fold[T any] struct {
	// Index of the fold, from 0 to K-1.
	Index int

	samples []T
	lo, hi  int
}

// Train returns the samples outside of the test block, in their original order.
func (f *Fold[T]) Train() iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for _, s := range f.samples[:f.lo] {
			if !yield(s, nil) {
				return
			}
		}
		for _, s := range f.samples[f.hi:] {
			if !yield(s, nil) {
				return
			}
		}
	}
}

// Test returns the samples of the test block.
func (f *Fold[T]) Test() iter.Seq2[T, error] {
	return Samples(f.samples[f.lo:f.hi])
}

// TrainSize returns the number of training samples.
func (f *Fold[T]) TrainSize() int {
	return len(f.samples) - f.TestSize()
}

// TestSize returns the number of test samples.
func (f *Fold[T]) TestSize() int {
	return f.hi - f.lo
}
