package main

import (
	"context"
	"fmt"
	"io"
	"iter"
	"time"

	"github.com/gomlx/go-seqtag/chunker"
	"github.com/gomlx/go-seqtag/eval"
	"github.com/gomlx/go-seqtag/internal/config"
	"github.com/gomlx/go-seqtag/internal/runlog"
	"github.com/gomlx/go-seqtag/internal/samplestream"
	"github.com/gomlx/go-seqtag/namefind"
	"github.com/gomlx/go-seqtag/postag"
	"github.com/gomlx/go-seqtag/tokenize/me"
	"github.com/spf13/cobra"
)

type crossValidateOptions struct {
	task          string
	data          string
	dictionary    string
	misclassified bool
}

var crossValidateOpts crossValidateOptions

var crossValidateCmd = &cobra.Command{
	Use:   "crossvalidate",
	Short: "K-fold cross-validation of a training configuration",
	Long: `Split the samples in K contiguous folds. For each fold, train a model on the other folds and
evaluate it on the fold. The fold results are merged into one F-Measure.

Examples:
  seqtag crossvalidate --task namefind --data en-ner-person.train --folds 10 --workers 4
  seqtag crossvalidate --task postag --data wsj.pos --dictionary en-pos.xml --cutoff 3
  seqtag crossvalidate --task tokenize --data en-token.train --abbreviations en-abb.txt`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		run, err := runCrossValidate(cmd.Context(), cfg, crossValidateOpts, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		return recordRun(cmd.Context(), cfg, run)
	},
}

func init() {
	rootCmd.AddCommand(crossValidateCmd)
	crossValidateCmd.Flags().StringVar(&crossValidateOpts.task, "task", TaskNameFind, "Task: namefind, chunker, postag or tokenize")
	crossValidateCmd.Flags().StringVar(&crossValidateOpts.data, "data", "", "Sample file")
	crossValidateCmd.Flags().StringVar(&crossValidateOpts.dictionary, "dictionary", "", "POS tag dictionary restricting the tags (postag only)")
	crossValidateCmd.Flags().BoolVar(&crossValidateOpts.misclassified, "misclassified", false, "Print the misclassified samples")
	crossValidateCmd.Flags().Int("folds", 0, "Number of folds")
	crossValidateCmd.Flags().Int("workers", 0, "Number of folds trained and evaluated concurrently")
	crossValidateCmd.Flags().Int("iterations", 0, "Maximum number of GIS iterations")
	crossValidateCmd.Flags().Int("cutoff", 0, "Minimum number of occurrences of a feature")
	addTokenizeFlags(crossValidateCmd)
	_ = crossValidateCmd.MarkFlagRequired("data")
}

func crossValidate[T eval.Sample[T]](c *config.Config, samples iter.Seq2[T, error], trainer eval.Trainer[T], listener eval.MisclassifiedListener[T]) (*eval.CrossValidationResult, error) {
	cv := eval.NewCrossValidator(trainer, c.CrossValidation.Folds).WithWorkers(c.CrossValidation.Workers)
	if listener != nil {
		cv.WithListener(listener)
	}
	return cv.Evaluate(samples)
}

// runCrossValidate cross-validates the training of opts.task on opts.data and returns the run to
// record.
func runCrossValidate(ctx context.Context, c *config.Config, opts crossValidateOptions, out io.Writer) (*runlog.Run, error) {
	if err := checkTask(opts.task); err != nil {
		return nil, err
	}
	dict, err := loadDictionary(opts.dictionary)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	params := c.TrainParams()
	lines := samplestream.Lines(opts.data)
	var result *eval.CrossValidationResult
	switch opts.task {
	case TaskNameFind:
		result, err = crossValidate[*namefind.NameSample](c, namefind.Samples(lines),
			func(_ int, train iter.Seq2[*namefind.NameSample, error]) (eval.Predictor[*namefind.NameSample], error) {
				model, err := namefind.Train(ctx, train, params)
				if err != nil {
					return nil, err
				}
				return namefind.NewFinder(model, c.BeamSize), nil
			},
			listenerFor(opts.misclassified, out, (*namefind.NameSample).String))
	case TaskChunker:
		result, err = crossValidate[*chunker.ChunkSample](c, chunker.Samples(lines),
			func(_ int, train iter.Seq2[*chunker.ChunkSample, error]) (eval.Predictor[*chunker.ChunkSample], error) {
				model, err := chunker.Train(ctx, train, params)
				if err != nil {
					return nil, err
				}
				return chunker.New(model, c.BeamSize), nil
			},
			listenerFor(opts.misclassified, out, (*chunker.ChunkSample).NicePrint))
	case TaskPOSTag:
		result, err = crossValidate[*postag.POSSample](c, postag.Samples(lines),
			func(_ int, train iter.Seq2[*postag.POSSample, error]) (eval.Predictor[*postag.POSSample], error) {
				model, err := postag.Train(ctx, train, params)
				if err != nil {
					return nil, err
				}
				return postag.NewTagger(model, dict, c.BeamSize), nil
			},
			listenerFor(opts.misclassified, out, (*postag.POSSample).String))
	case TaskTokenize:
		var tokOpts me.Options
		if tokOpts, err = tokenizerOptions(c); err != nil {
			return nil, err
		}
		result, err = crossValidate[*me.TokenSample](c, me.Samples(lines),
			func(_ int, train iter.Seq2[*me.TokenSample, error]) (eval.Predictor[*me.TokenSample], error) {
				model, err := me.Train(ctx, train, tokOpts, params)
				if err != nil {
					return nil, err
				}
				return me.New(model, tokOpts, c.BeamSize), nil
			},
			listenerFor(opts.misclassified, out, (*me.TokenSample).String))
	}
	if err != nil {
		return nil, err
	}
	elapsed := time.Since(start)

	var numSamples int
	for _, fold := range result.Folds {
		numSamples += fold.TestSize
	}
	title := fmt.Sprintf("%d-fold cross-validation of %s on %s", len(result.Folds), opts.task, opts.data)
	_, _ = fmt.Fprintf(out, "%s\n%s\n", renderFolds(result), renderFMeasure(title, result.FMeasure, numSamples, elapsed))
	return &runlog.Run{
		Kind:      runlog.KindCrossValidate,
		Task:      opts.task,
		StartedAt: start,
		Duration:  elapsed,
		Samples:   numSamples,
		Folds:     len(result.Folds),
		Precision: result.FMeasure.Precision(),
		Recall:    result.FMeasure.Recall(),
		FMeasure:  result.FMeasure.Value(),
	}, nil
}
