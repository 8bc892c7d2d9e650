// Package eval drives taggers against reference samples and accumulates their F-Measure, either
// over one sample stream (Evaluator) or with K-fold cross-validation (CrossValidator).
package eval

import (
	"iter"

	"github.com/gomlx/go-seqtag/eval/fmeasure"
	"github.com/gomlx/go-seqtag/spans"
	"github.com/pkg/errors"
)

// ErrLengthMismatch is returned when a prediction doesn't have as many tokens as its reference.
var ErrLengthMismatch = errors.New("eval: predicted sample length differs from the reference")

// Sample is a labeled sample that can be compared against a prediction.
type Sample[T any] interface {
	// Len returns the number of tokens.
	Len() int

	// Spans returns the labeled spans scored by the F-Measure.
	Spans() []spans.Span

	// Equal reports whether other carries the same labels.
	Equal(other T) bool
}

// Predictor tags the tokens of a reference sample and returns the predicted sample.
type Predictor[T any] interface {
	Predict(reference T) (T, error)
}

// PredictorFunc adapts a function to the Predictor interface.
type PredictorFunc[T any] func(reference T) (T, error)

// Predict implements Predictor.
func (fn PredictorFunc[T]) Predict(reference T) (T, error) { return fn(reference) }

// MisclassifiedListener is notified of every prediction that differs from its reference.
type MisclassifiedListener[T any] interface {
	Misclassified(reference, predicted T)
}

// MisclassifiedFunc adapts a function to the MisclassifiedListener interface.
type MisclassifiedFunc[T any] func(reference, predicted T)

// Misclassified implements MisclassifiedListener.
func (fn MisclassifiedFunc[T]) Misclassified(reference, predicted T) { fn(reference, predicted) }

// Evaluator compares predictions with references and accumulates an F-Measure.
//
// It's not safe for concurrent use.
type Evaluator[T Sample[T]] struct {
	predictor Predictor[T]
	listener  MisclassifiedListener[T]
	fmeasure  *fmeasure.FMeasure
	count     int
}

// New creates an Evaluator for the given predictor.
func New[T Sample[T]](predictor Predictor[T]) *Evaluator[T] {
	return &Evaluator[T]{
		predictor: predictor,
		fmeasure:  fmeasure.New(),
	}
}

// WithListener registers the listener notified of misclassified samples (nil disables it).
// It returns the Evaluator itself, to allow cascading configuration calls.
func (e *Evaluator[T]) WithListener(listener MisclassifiedListener[T]) *Evaluator[T] {
	e.listener = listener
	return e
}

// EvaluateSample predicts reference, updates the F-Measure and notifies the listener if the
// prediction differs from the reference.
//
// A prediction of a different length is an error (wrapping ErrLengthMismatch) and is not counted.
func (e *Evaluator[T]) EvaluateSample(reference T) error {
	predicted, err := e.predictor.Predict(reference)
	if err != nil {
		return errors.WithMessagef(err, "eval: predicting sample #%d", e.count)
	}
	if predicted.Len() != reference.Len() {
		return errors.Wrapf(ErrLengthMismatch, "sample #%d has %d tokens, prediction has %d",
			e.count, reference.Len(), predicted.Len())
	}
	e.fmeasure.Update(reference.Spans(), predicted.Spans())
	e.count++
	if e.listener != nil && !reference.Equal(predicted) {
		e.listener.Misclassified(reference, predicted)
	}
	return nil
}

// Evaluate evaluates every sample of the stream, stopping at the first error.
func (e *Evaluator[T]) Evaluate(samples iter.Seq2[T, error]) error {
	for sample, err := range samples {
		if err != nil {
			return errors.WithMessagef(err, "eval: reading sample #%d", e.count)
		}
		if err := e.EvaluateSample(sample); err != nil {
			return err
		}
	}
	return nil
}

// FMeasure returns the accumulated F-Measure. It's updated by further evaluations.
func (e *Evaluator[T]) FMeasure() *fmeasure.FMeasure {
	return e.fmeasure
}

// Count returns the number of evaluated samples.
func (e *Evaluator[T]) Count() int {
	return e.count
}
