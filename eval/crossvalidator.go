package eval

import (
	"iter"
	"sync"

	"github.com/gomlx/go-seqtag/eval/crossval"
	"github.com/gomlx/go-seqtag/eval/fmeasure"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Trainer creates a Predictor trained on the training stream of one fold.
//
// Each returned Predictor must own its adaptive state: with parallel folds, Predictors of different
// folds are used concurrently.
type Trainer[T any] func(fold int, train iter.Seq2[T, error]) (Predictor[T], error)

// FoldResult holds the evaluation of one cross-validation fold.
type FoldResult struct {
	Index     int
	TrainSize int
	TestSize  int
	FMeasure  *fmeasure.FMeasure
}

// CrossValidationResult holds the per-fold and merged evaluations.
type CrossValidationResult struct {
	Folds    []FoldResult
	FMeasure *fmeasure.FMeasure
}

// CrossValidator trains and evaluates a tagger with K-fold cross-validation.
type CrossValidator[T Sample[T]] struct {
	trainer  Trainer[T]
	folds    int
	workers  int
	listener MisclassifiedListener[T]
}

// NewCrossValidator creates a CrossValidator with the given number of folds, evaluating
// one fold at a time.
func NewCrossValidator[T Sample[T]](trainer Trainer[T], folds int) *CrossValidator[T] {
	return &CrossValidator[T]{trainer: trainer, folds: folds, workers: 1}
}

// WithWorkers sets how many folds are trained and evaluated concurrently.
// It returns the CrossValidator itself, to allow cascading configuration calls.
func (cv *CrossValidator[T]) WithWorkers(workers int) *CrossValidator[T] {
	cv.workers = max(workers, 1)
	return cv
}

// WithListener registers the listener notified of misclassified samples of every fold.
// Calls to the listener are serialized, even with parallel folds.
func (cv *CrossValidator[T]) WithListener(listener MisclassifiedListener[T]) *CrossValidator[T] {
	cv.listener = listener
	return cv
}

// Evaluate partitions samples into folds, trains and evaluates each one, and merges the fold
// F-Measures.
func (cv *CrossValidator[T]) Evaluate(samples iter.Seq2[T, error]) (*CrossValidationResult, error) {
	partitioner, err := crossval.New(samples, cv.folds)
	if err != nil {
		return nil, err
	}
	var folds []*crossval.Fold[T]
	for partitioner.HasNext() {
		fold, err := partitioner.Next()
		if err != nil {
			return nil, err
		}
		folds = append(folds, fold)
	}

	listener := cv.listener
	if listener != nil && cv.workers > 1 {
		listener = &syncListener[T]{listener: listener}
	}

	results := make([]FoldResult, len(folds))
	errs := make([]error, len(folds))
	semaphore := make(chan struct{}, cv.workers)
	var wg sync.WaitGroup
	for ii, fold := range folds {
		wg.Add(1)
		semaphore <- struct{}{}
		go func() {
			defer func() {
				<-semaphore
				wg.Done()
			}()
			results[ii], errs[ii] = cv.evaluateFold(fold, listener)
		}()
	}
	wg.Wait()

	merged := fmeasure.New()
	for ii := range results {
		if errs[ii] != nil {
			return nil, errs[ii]
		}
		merged.Merge(results[ii].FMeasure)
	}
	return &CrossValidationResult{Folds: results, FMeasure: merged}, nil
}

func (cv *CrossValidator[T]) evaluateFold(fold *crossval.Fold[T], listener MisclassifiedListener[T]) (FoldResult, error) {
	predictor, err := cv.trainer(fold.Index, fold.Train())
	if err != nil {
		return FoldResult{}, errors.WithMessagef(err, "eval: training fold %d", fold.Index)
	}
	evaluator := New(predictor).WithListener(listener)
	if err := evaluator.Evaluate(fold.Test()); err != nil {
		return FoldResult{}, errors.WithMessagef(err, "eval: testing fold %d", fold.Index)
	}
	klog.V(1).Infof("eval: fold %d/%d: trained on %d samples, tested on %d: F=%.4f",
		fold.Index+1, cv.folds, fold.TrainSize(), fold.TestSize(), evaluator.FMeasure().Value())
	return FoldResult{
		Index:     fold.Index,
		TrainSize: fold.TrainSize(),
		TestSize:  fold.TestSize(),
		FMeasure:  evaluator.FMeasure(),
	}, nil
}

// syncListener serializes calls to a listener shared by concurrent folds.
type syncListener[T any] struct {
	mu       sync.Mutex
	listener MisclassifiedListener[T]
}

func (l *syncListener[T]) Misclassified(reference, predicted T) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.listener.Misclassified(reference, predicted)
}
