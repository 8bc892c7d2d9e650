package maxent

import (
	"context"
	"iter"
	"math"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Event is one training example: the outcome label observed with its context predicates.
type Event struct {
	Outcome string
	Context []string
}

// Params configures TrainGIS.
type Params struct {
	// Iterations is the maximum number of GIS iterations.
	Iterations int

	// Cutoff is the minimum number of occurrences of a predicate in the training events for it to
	// be kept.
	Cutoff int

	// Threshold stops training early when the log-likelihood improves by less than it.
	Threshold float64
}

// DefaultParams returns 100 iterations, a cutoff of 5 and a log-likelihood threshold of 1e-4.
func DefaultParams() Params {
	return Params{Iterations: 100, Cutoff: 5, Threshold: 1e-4}
}

// ErrNoEvents is returned when there is nothing to train on.
var ErrNoEvents = errors.New("maxent: no training events with predicates above the cutoff")

// indexedEvent is an Event with its outcome and predicates replaced by indices.
type indexedEvent struct {
	outcome    int
	predicates []int
}

// TrainGIS trains a Model with Generalized Iterative Scaling.
//
// Weights are updated by log(observed/expected)/C, where C is the largest number of active
// predicates in an event, which never decreases the training log-likelihood.
// Training stops after params.Iterations, once the log-likelihood converges or when ctx is done.
func TrainGIS(ctx context.Context, events iter.Seq2[Event, error], params Params) (*Model, error) {
	if params.Iterations < 1 {
		return nil, errors.Errorf("maxent: invalid number of iterations %d", params.Iterations)
	}

	// Read events and count predicates.
	var raw []Event
	counts := make(map[string]int)
	for event, err := range events {
		if err != nil {
			return nil, errors.WithMessagef(err, "maxent: reading training event #%d", len(raw))
		}
		raw = append(raw, event)
		for _, predicate := range event.Context {
			counts[predicate]++
		}
	}

	model := &Model{predicates: make(map[string]int)}
	outcomeIndex := make(map[string]int)
	indexed := make([]indexedEvent, 0, len(raw))
	maxActive := 0
	for _, event := range raw {
		oid, found := outcomeIndex[event.Outcome]
		if !found {
			oid = len(model.outcomes)
			outcomeIndex[event.Outcome] = oid
			model.outcomes = append(model.outcomes, event.Outcome)
		}
		ie := indexedEvent{outcome: oid}
		for _, predicate := range event.Context {
			if predicate == "" || counts[predicate] < params.Cutoff {
				continue
			}
			pid, found := model.predicates[predicate]
			if !found {
				pid = len(model.params)
				model.predicates[predicate] = pid
				model.params = append(model.params, parameters{})
			}
			ie.predicates = append(ie.predicates, pid)
		}
		maxActive = max(maxActive, len(ie.predicates))
		indexed = append(indexed, ie)
	}
	if maxActive == 0 {
		return nil, errors.Wrapf(ErrNoEvents, "%d events read, cutoff %d", len(raw), params.Cutoff)
	}

	// Observed counts of the (predicate, outcome) pairs.
	observed := make([][]float64, len(model.params))
	for _, ie := range indexed {
		for _, pid := range ie.predicates {
			p := &model.params[pid]
			slot := -1
			for ii, oid := range p.outcomes {
				if oid == ie.outcome {
					slot = ii
					break
				}
			}
			if slot < 0 {
				p.outcomes = append(p.outcomes, ie.outcome)
				p.weights = append(p.weights, 0)
				observed[pid] = append(observed[pid], 0)
				slot = len(p.outcomes) - 1
			}
			observed[pid][slot]++
		}
	}
	klog.V(1).Infof("maxent: %d events, %d outcomes, %d predicates (cutoff %d)",
		len(indexed), len(model.outcomes), len(model.params), params.Cutoff)

	expected := make([][]float64, len(model.params))
	for pid := range expected {
		expected[pid] = make([]float64, len(model.params[pid].outcomes))
	}
	correction := 1 / float64(maxActive)
	sums := make([]float64, len(model.outcomes))
	prevLogLikelihood := math.Inf(-1)
	for iteration := range params.Iterations {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrapf(err, "maxent: training interrupted at iteration %d", iteration)
		}
		for pid := range expected {
			clear(expected[pid])
		}
		var logLikelihood float64
		for _, ie := range indexed {
			probs := model.evalIndices(ie.predicates, sums)
			logLikelihood += math.Log(probs[ie.outcome])
			for _, pid := range ie.predicates {
				for ii, oid := range model.params[pid].outcomes {
					expected[pid][ii] += probs[oid]
				}
			}
		}
		for pid := range model.params {
			weights := model.params[pid].weights
			for ii := range weights {
				weights[ii] += correction * (math.Log(observed[pid][ii]) - math.Log(expected[pid][ii]))
			}
		}
		klog.V(1).Infof("maxent: iteration %d: log-likelihood=%.6f", iteration+1, logLikelihood)
		if logLikelihood-prevLogLikelihood < params.Threshold {
			break
		}
		prevLogLikelihood = logLikelihood
	}
	return model, nil
}

// EventsOf returns an iterator over a slice of events.
func EventsOf(events []Event) iter.Seq2[Event, error] {
	return func(yield func(Event, error) bool) {
		for _, event := range events {
			if !yield(event, nil) {
				return
			}
		}
	}
}
