package main

import (
	"context"
	"fmt"
	"io"
	"iter"
	"time"

	"github.com/gomlx/go-seqtag/chunker"
	"github.com/gomlx/go-seqtag/internal/config"
	"github.com/gomlx/go-seqtag/internal/runlog"
	"github.com/gomlx/go-seqtag/internal/samplestream"
	"github.com/gomlx/go-seqtag/models/maxent"
	"github.com/gomlx/go-seqtag/namefind"
	"github.com/gomlx/go-seqtag/postag"
	"github.com/gomlx/go-seqtag/tokenize/me"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"k8s.io/klog/v2"
)

type trainOptions struct {
	task  string
	data  string
	model string

	// dictionary is the POS tag dictionary written after training a postag model, if set.
	dictionary    string
	caseSensitive bool
}

var trainOpts trainOptions

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train a model from a sample file",
	Long: `Train a maximum-entropy model with GIS and save it as a Parquet file.

Examples:
  seqtag train --task namefind --data en-ner-person.train --model en-ner-person.parquet
  seqtag train --task postag --data wsj.pos.xz --model en-pos.parquet --dictionary en-pos.xml --cutoff 3
  seqtag train --task tokenize --data en-token.train --model en-token.parquet --alphanumeric-optimization`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		run, err := runTrain(cmd.Context(), cfg, trainOpts, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		return recordRun(cmd.Context(), cfg, run)
	},
}

func init() {
	rootCmd.AddCommand(trainCmd)
	trainCmd.Flags().StringVar(&trainOpts.task, "task", TaskNameFind, "Task: namefind, chunker, postag or tokenize")
	trainCmd.Flags().StringVar(&trainOpts.data, "data", "", "Training sample file")
	trainCmd.Flags().StringVar(&trainOpts.model, "model", "", "Output model file")
	trainCmd.Flags().StringVar(&trainOpts.dictionary, "dictionary", "", "Output POS tag dictionary built from the training data (postag only)")
	trainCmd.Flags().BoolVar(&trainOpts.caseSensitive, "case-sensitive", false, "Build a case-sensitive POS tag dictionary")
	trainCmd.Flags().Int("iterations", 0, "Maximum number of GIS iterations")
	trainCmd.Flags().Int("cutoff", 0, "Minimum number of occurrences of a feature")
	addTokenizeFlags(trainCmd)
	_ = trainCmd.MarkFlagRequired("data")
	_ = trainCmd.MarkFlagRequired("model")
}

// trainTask trains a model for task with the samples read from lines, counting them in *numSamples.
func trainTask(ctx context.Context, c *config.Config, task string, lines iter.Seq2[string, error], numSamples *int) (*maxent.Model, error) {
	params := c.TrainParams()
	switch task {
	case TaskNameFind:
		return namefind.Train(ctx, counted(namefind.Samples(lines), numSamples), params)
	case TaskChunker:
		return chunker.Train(ctx, counted(chunker.Samples(lines), numSamples), params)
	case TaskPOSTag:
		return postag.Train(ctx, counted(postag.Samples(lines), numSamples), params)
	case TaskTokenize:
		opts, err := tokenizerOptions(c)
		if err != nil {
			return nil, err
		}
		return me.Train(ctx, counted(me.Samples(lines), numSamples), opts, params)
	}
	return nil, checkTask(task)
}

// runTrain trains and saves the model and returns the run to record.
func runTrain(ctx context.Context, c *config.Config, opts trainOptions, out io.Writer) (*runlog.Run, error) {
	if err := checkTask(opts.task); err != nil {
		return nil, err
	}
	if opts.dictionary != "" && opts.task != TaskPOSTag {
		return nil, errors.Errorf("--dictionary is only valid for the %s task", TaskPOSTag)
	}
	start := time.Now()
	var numSamples int
	model, err := trainTask(ctx, c, opts.task, samplestream.Lines(opts.data), &numSamples)
	if err != nil {
		return nil, errors.WithMessagef(err, "training %s model from %q", opts.task, opts.data)
	}
	if err := model.Save(ctx, opts.model); err != nil {
		return nil, err
	}
	klog.V(1).Infof("model saved to %q: %d outcomes, %d predicates", opts.model, len(model.Outcomes()), model.NumPredicates())

	if opts.dictionary != "" {
		if err := writeDictionary(opts.data, opts.dictionary, opts.caseSensitive); err != nil {
			return nil, err
		}
	}

	_, _ = fmt.Fprintf(out, "%s %s model trained on %d samples, %d outcomes, %d predicates\n%s %s\n",
		titleStyle.Render("Trained"), opts.task, numSamples, len(model.Outcomes()), model.NumPredicates(),
		labelStyle.Render("digest"), model.Digest())
	return &runlog.Run{
		Kind:        runlog.KindTrain,
		Task:        opts.task,
		StartedAt:   start,
		Duration:    time.Since(start),
		Samples:     numSamples,
		ModelDigest: model.Digest(),
	}, nil
}

// writeDictionary builds the POS tag dictionary of the samples in dataPath and writes it as XML.
func writeDictionary(dataPath, dictPath string, caseSensitive bool) (err error) {
	dict, err := postag.BuildDictionary(postag.Samples(samplestream.Lines(dataPath)), caseSensitive)
	if err != nil {
		return err
	}
	w, err := samplestream.Create(dictPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := w.Close(); err == nil && closeErr != nil {
			err = errors.Wrapf(closeErr, "failed to close dictionary %q", dictPath)
		}
	}()
	if err := dict.WriteXML(w); err != nil {
		return errors.WithMessagef(err, "writing dictionary %q", dictPath)
	}
	klog.V(1).Infof("dictionary with %d words saved to %q", dict.Len(), dictPath)
	return nil
}
