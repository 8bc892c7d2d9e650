package main

import (
	"fmt"
	"io"
	"iter"
	"time"

	"github.com/gomlx/go-seqtag/chunker"
	"github.com/gomlx/go-seqtag/eval"
	"github.com/gomlx/go-seqtag/eval/fmeasure"
	"github.com/gomlx/go-seqtag/internal/config"
	"github.com/gomlx/go-seqtag/internal/runlog"
	"github.com/gomlx/go-seqtag/internal/samplestream"
	"github.com/gomlx/go-seqtag/models/maxent"
	"github.com/gomlx/go-seqtag/namefind"
	"github.com/gomlx/go-seqtag/postag"
	"github.com/gomlx/go-seqtag/tokenize/me"
	"github.com/spf13/cobra"
)

type evaluateOptions struct {
	task          string
	data          string
	model         string
	dictionary    string
	misclassified bool
}

var evaluateOpts evaluateOptions

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Evaluate a model against reference samples",
	Long: `Tag the reference samples with the model and report precision, recall and F-Measure of the
predicted spans. For POS tagging every word is a span, so the three values equal the word accuracy.
For tokenization the spans are the tokens.

Examples:
  seqtag evaluate --task namefind --model en-ner-person.parquet --data en-ner-person.test
  seqtag evaluate --task chunker --model en-chunker.parquet --data test.txt.xz --misclassified`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		run, err := runEvaluate(cfg, evaluateOpts, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		return recordRun(cmd.Context(), cfg, run)
	},
}

func init() {
	rootCmd.AddCommand(evaluateCmd)
	evaluateCmd.Flags().StringVar(&evaluateOpts.task, "task", TaskNameFind, "Task: namefind, chunker, postag or tokenize")
	evaluateCmd.Flags().StringVar(&evaluateOpts.data, "data", "", "Reference sample file")
	evaluateCmd.Flags().StringVar(&evaluateOpts.model, "model", "", "Model file")
	evaluateCmd.Flags().StringVar(&evaluateOpts.dictionary, "dictionary", "", "POS tag dictionary restricting the tags (postag only)")
	evaluateCmd.Flags().BoolVar(&evaluateOpts.misclassified, "misclassified", false, "Print the misclassified samples")
	addTokenizeFlags(evaluateCmd)
	_ = evaluateCmd.MarkFlagRequired("data")
	_ = evaluateCmd.MarkFlagRequired("model")
}

// evaluate runs the evaluator on samples and returns the F-Measure and the number of samples.
func evaluate[T eval.Sample[T]](predictor eval.Predictor[T], samples iter.Seq2[T, error], listener eval.MisclassifiedListener[T]) (*fmeasure.FMeasure, int, error) {
	evaluator := eval.New(predictor)
	if listener != nil {
		evaluator.WithListener(listener)
	}
	if err := evaluator.Evaluate(samples); err != nil {
		return nil, 0, err
	}
	return evaluator.FMeasure(), evaluator.Count(), nil
}

// listenerFor returns a misclassifiedPrinter if enabled, nil otherwise.
func listenerFor[T any](enabled bool, w io.Writer, format func(T) string) eval.MisclassifiedListener[T] {
	if !enabled {
		return nil
	}
	return misclassifiedPrinter(w, format)
}

// runEvaluate evaluates the model and returns the run to record.
func runEvaluate(c *config.Config, opts evaluateOptions, out io.Writer) (*runlog.Run, error) {
	if err := checkTask(opts.task); err != nil {
		return nil, err
	}
	model, err := maxent.Load(opts.model)
	if err != nil {
		return nil, err
	}
	dict, err := loadDictionary(opts.dictionary)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	lines := samplestream.Lines(opts.data)
	var fm *fmeasure.FMeasure
	var numSamples int
	switch opts.task {
	case TaskNameFind:
		fm, numSamples, err = evaluate[*namefind.NameSample](
			namefind.NewFinder(model, c.BeamSize), namefind.Samples(lines),
			listenerFor(opts.misclassified, out, (*namefind.NameSample).String))
	case TaskChunker:
		fm, numSamples, err = evaluate[*chunker.ChunkSample](
			chunker.New(model, c.BeamSize), chunker.Samples(lines),
			listenerFor(opts.misclassified, out, (*chunker.ChunkSample).NicePrint))
	case TaskPOSTag:
		fm, numSamples, err = evaluate[*postag.POSSample](
			postag.NewTagger(model, dict, c.BeamSize), postag.Samples(lines),
			listenerFor(opts.misclassified, out, (*postag.POSSample).String))
	case TaskTokenize:
		var tokOpts me.Options
		if tokOpts, err = tokenizerOptions(c); err != nil {
			return nil, err
		}
		fm, numSamples, err = evaluate[*me.TokenSample](
			me.New(model, tokOpts, c.BeamSize), me.Samples(lines),
			listenerFor(opts.misclassified, out, (*me.TokenSample).String))
	}
	if err != nil {
		return nil, err
	}
	elapsed := time.Since(start)

	_, _ = fmt.Fprintln(out, renderFMeasure(fmt.Sprintf("Evaluation of %s model %s", opts.task, opts.model), fm, numSamples, elapsed))
	return &runlog.Run{
		Kind:        runlog.KindEvaluate,
		Task:        opts.task,
		StartedAt:   start,
		Duration:    elapsed,
		Samples:     numSamples,
		Precision:   fm.Precision(),
		Recall:      fm.Recall(),
		FMeasure:    fm.Value(),
		ModelDigest: model.Digest(),
	}, nil
}
