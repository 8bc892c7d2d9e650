package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/gomlx/go-seqtag/chunker"
	"github.com/gomlx/go-seqtag/internal/config"
	"github.com/gomlx/go-seqtag/internal/samplestream"
	"github.com/gomlx/go-seqtag/models/maxent"
	"github.com/gomlx/go-seqtag/namefind"
	"github.com/gomlx/go-seqtag/postag"
	"github.com/gomlx/go-seqtag/tokenize"
	"github.com/gomlx/go-seqtag/tokenize/me"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"k8s.io/klog/v2"
)

type tagOptions struct {
	task       string
	models     []string
	dictionary string
	input      string
	probs      bool
}

var tagOpts tagOptions

var tagCmd = &cobra.Command{
	Use:   "tag",
	Short: "Tag raw text",
	Long: `Tag text read one sentence per line.

namefind  raw text is tokenized and the names found by all the given models are printed in
          "<START:type> ... <END>" markup. An empty line starts a new document.
postag    raw text is tokenized and printed as "word_TAG" tokens.
chunker   the input is POS tagged text ("word_TAG" tokens), printed with its phrases in brackets.
tokenize  raw text is split by the tokenizer model, adjacent tokens are separated by "<SPLIT>".

The namefind and postag tasks can use a trained tokenizer with --tokenizer maxent --tokenizer-model.

Examples:
  seqtag tag --model en-ner-person.parquet --model en-ner-organization.parquet < article.txt
  seqtag tag --task postag --model en-pos.parquet --input article.txt |
    seqtag tag --task chunker --model en-chunker.parquet
  seqtag tag --task tokenize --model en-token.parquet --input article.txt`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTag(cfg, tagOpts, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(tagCmd)
	tagCmd.Flags().StringVar(&tagOpts.task, "task", TaskNameFind, "Task: namefind, chunker, postag or tokenize")
	tagCmd.Flags().StringArrayVar(&tagOpts.models, "model", nil, "Model file, can be repeated for namefind")
	tagCmd.Flags().StringVar(&tagOpts.dictionary, "dictionary", "", "POS tag dictionary restricting the tags (postag only)")
	tagCmd.Flags().StringVar(&tagOpts.input, "input", "-", "Input text file, - for stdin")
	tagCmd.Flags().BoolVar(&tagOpts.probs, "probs", false, "Print the probability of each name (namefind) or sentence")
	tagCmd.Flags().String("tokenizer", "", "Tokenizer: simple, whitespace, sentencepiece or maxent")
	tagCmd.Flags().String("sentencepiece-model", "", "SentencePiece tokenizer.model file")
	tagCmd.Flags().String("tokenizer-model", "", "Model file of the maxent tokenizer")
	addTokenizeFlags(tagCmd)
	_ = tagCmd.MarkFlagRequired("model")
}

// runTag tags the lines of opts.input, writing them to out.
func runTag(c *config.Config, opts tagOptions, out io.Writer) error {
	if err := checkTask(opts.task); err != nil {
		return err
	}
	if len(opts.models) == 0 {
		return errors.New("at least one --model is required")
	}
	if len(opts.models) > 1 && opts.task != TaskNameFind {
		return errors.Errorf("only the %s task accepts more than one model", TaskNameFind)
	}
	models := make([]*maxent.Model, len(opts.models))
	for ii, modelPath := range opts.models {
		var err error
		if models[ii], err = maxent.Load(modelPath); err != nil {
			return err
		}
	}

	var tagLine func(line string) (string, error)
	switch opts.task {
	case TaskNameFind:
		tokenizer, err := newTokenizer(c)
		if err != nil {
			return err
		}
		finders := make([]*namefind.Finder, len(models))
		for ii, model := range models {
			finders[ii] = namefind.NewFinder(model, c.BeamSize)
		}
		tagLine = func(line string) (string, error) {
			if strings.TrimSpace(line) == "" {
				for _, f := range finders {
					f.ClearAdaptiveData()
				}
				return "", nil
			}
			return findNames(finders, tokenize.Tokenize(tokenizer, line), opts.probs)
		}

	case TaskPOSTag:
		tokenizer, err := newTokenizer(c)
		if err != nil {
			return err
		}
		dict, err := loadDictionary(opts.dictionary)
		if err != nil {
			return err
		}
		tagger := postag.NewTagger(models[0], dict, c.BeamSize)
		tagLine = func(line string) (string, error) {
			if strings.TrimSpace(line) == "" {
				return "", nil
			}
			tokens := tokenize.Tokenize(tokenizer, line)
			tags := tagger.Tag(tokens)
			if tags == nil {
				klog.Warningf("no valid tag sequence for %q", line)
				return line, nil
			}
			sample, err := postag.NewPOSSample(tokens, tags)
			if err != nil {
				return "", err
			}
			return sample.String() + sequenceProb(opts.probs, tagger.Probs()), nil
		}

	case TaskChunker:
		ch := chunker.New(models[0], c.BeamSize)
		tagLine = func(line string) (string, error) {
			if strings.TrimSpace(line) == "" {
				return "", nil
			}
			tagged, err := postag.ParsePOSSample(line)
			if err != nil {
				return "", err
			}
			sample, err := chunker.NewChunkSample(tagged.Sentence, tagged.Tags, ch.Chunk(tagged.Sentence, tagged.Tags))
			if err != nil {
				return "", err
			}
			return sample.NicePrint() + sequenceProb(opts.probs, ch.Probs()), nil
		}

	case TaskTokenize:
		tokOpts, err := tokenizerOptions(c)
		if err != nil {
			return err
		}
		tokenizer := me.New(models[0], tokOpts, c.BeamSize)
		tagLine = func(line string) (string, error) {
			sample, err := me.NewTokenSample(line, tokenizer.Spans(line))
			if err != nil {
				return "", err
			}
			return sample.String(), nil
		}
	}

	lineNum := 0
	for line, err := range samplestream.Lines(opts.input) {
		lineNum++
		if err != nil {
			return err
		}
		tagged, err := tagLine(line)
		if err != nil {
			return errors.WithMessagef(err, "line %d", lineNum)
		}
		if _, err := fmt.Fprintln(out, tagged); err != nil {
			return errors.Wrap(err, "failed to write output")
		}
	}
	return nil
}

// findNames returns the tokens in name markup.
func findNames(finders []*namefind.Finder, tokens []string, withProbs bool) (string, error) {
	names, probs := namefind.FindAllWithProbs(finders, tokens, nil)
	sample, err := namefind.NewNameSample(tokens, names, nil, false)
	if err != nil {
		return "", err
	}
	if !withProbs || len(names) == 0 {
		return sample.String(), nil
	}
	var sb strings.Builder
	sb.WriteString(sample.String())
	for ii, name := range names {
		_, _ = fmt.Fprintf(&sb, "\t%s=%.4f", strings.Join(tokens[name.Start:name.End], "_"), probs[ii])
	}
	return sb.String(), nil
}

// sequenceProb returns the probability of the decoded sequence as a tab separated suffix, if enabled.
func sequenceProb(enabled bool, probs []float64) string {
	if !enabled || probs == nil {
		return ""
	}
	p := 1.0
	for _, tokenProb := range probs {
		p *= tokenProb
	}
	return fmt.Sprintf("\t%.4f", p)
}
