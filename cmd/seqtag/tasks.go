package main

import (
	"context"
	"fmt"
	"io"
	"iter"
	"slices"
	"strings"

	"github.com/gomlx/go-seqtag/eval"
	"github.com/gomlx/go-seqtag/internal/config"
	"github.com/gomlx/go-seqtag/internal/runlog"
	"github.com/gomlx/go-seqtag/internal/samplestream"
	"github.com/gomlx/go-seqtag/models/maxent"
	"github.com/gomlx/go-seqtag/postag"
	"github.com/gomlx/go-seqtag/tokenize"
	"github.com/gomlx/go-seqtag/tokenize/me"
	"github.com/gomlx/go-seqtag/tokenize/sentencepiece"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"k8s.io/klog/v2"
)

// Tasks.
const (
	TaskNameFind = "namefind"
	TaskChunker  = "chunker"
	TaskPOSTag   = "postag"
	TaskTokenize = "tokenize"
)

var tasks = []string{TaskNameFind, TaskChunker, TaskPOSTag, TaskTokenize}

func checkTask(task string) error {
	if !slices.Contains(tasks, task) {
		return errors.Errorf("unknown task %q, valid tasks are %s", task, strings.Join(tasks, ", "))
	}
	return nil
}

// counted yields the samples of seq, counting in *n the ones read without error.
func counted[T any](seq iter.Seq2[T, error], n *int) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for sample, err := range seq {
			if err == nil {
				*n++
			}
			if !yield(sample, err) {
				return
			}
		}
	}
}

// misclassifiedPrinter prints to w each misclassified sample, formatted with format, next to its
// prediction.
func misclassifiedPrinter[T any](w io.Writer, format func(T) string) eval.MisclassifiedListener[T] {
	return eval.MisclassifiedFunc[T](func(reference, predicted T) {
		_, _ = fmt.Fprintf(w, "%s %s\n%s %s\n\n",
			labelStyle.Render("expected: "), format(reference),
			labelStyle.Render("predicted:"), format(predicted))
	})
}

// newTokenizer returns the raw-text tokenizer selected in the configuration.
func newTokenizer(c *config.Config) (tokenize.Tokenizer, error) {
	switch c.Tokenizer {
	case config.TokenizerSimple:
		return tokenize.Simple{}, nil
	case config.TokenizerWhitespace:
		return tokenize.Whitespace{}, nil
	case config.TokenizerSentencePiece:
		return sentencepiece.NewFromFile(c.SentencePieceModel)
	case config.TokenizerMaxent:
		model, err := maxent.Load(c.TokenizerModel)
		if err != nil {
			return nil, err
		}
		opts, err := tokenizerOptions(c)
		if err != nil {
			return nil, err
		}
		return me.New(model, opts, c.BeamSize), nil
	}
	return nil, errors.Errorf("unknown tokenizer %q", c.Tokenizer)
}

// addTokenizeFlags defines the flags of the maxent tokenizer options on cmd.
func addTokenizeFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("alphanumeric-optimization", false, "Keep chunks of letters and digits as one token (maxent tokenizer)")
	cmd.Flags().String("abbreviations", "", "File with one abbreviation per line (maxent tokenizer)")
}

// tokenizerOptions returns the options of the maxent tokenizer, loading the abbreviations file if
// one is configured.
func tokenizerOptions(c *config.Config) (me.Options, error) {
	opts := me.Options{AlphaNumericOptimization: c.Tokenize.AlphaNumericOptimization}
	if c.Tokenize.Abbreviations == "" {
		return opts, nil
	}
	abbreviations, err := me.LoadAbbreviations(samplestream.Lines(c.Tokenize.Abbreviations))
	if err != nil {
		return opts, errors.WithMessagef(err, "loading abbreviations %q", c.Tokenize.Abbreviations)
	}
	klog.V(1).Infof("%d abbreviations loaded from %q", len(abbreviations), c.Tokenize.Abbreviations)
	opts.Abbreviations = abbreviations
	return opts, nil
}

// loadDictionary loads the POS tag dictionary, if filePath is not empty.
func loadDictionary(filePath string) (*postag.Dictionary, error) {
	if filePath == "" {
		return nil, nil
	}
	return postag.LoadDictionaryFile(filePath)
}

// recordRun stores run in the history database, unless --no-history was given.
func recordRun(ctx context.Context, c *config.Config, run *runlog.Run) error {
	if noHistory {
		return nil
	}
	run.Language = c.Language
	store, err := runlog.Open(ctx, c.HistoryDB)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			klog.Warningf("failed to close history database %q: %v", c.HistoryDB, err)
		}
	}()
	id, err := store.Record(ctx, run)
	if err != nil {
		return err
	}
	klog.V(1).Infof("%s run recorded with id %s in %q", run.Kind, id, c.HistoryDB)
	return nil
}
