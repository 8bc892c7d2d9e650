// seqtag trains, applies and evaluates maximum-entropy sequence taggers: name finders, phrase
// chunkers, part-of-speech taggers and tokenizers.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"

	"github.com/gomlx/go-seqtag/internal/config"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"k8s.io/klog/v2"
)

var (
	// Global flags.
	cfgFile   string
	noHistory bool

	// cfg is loaded before any subcommand runs.
	cfg *config.Config
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "seqtag",
	Short: "Statistical sequence tagging: name finding, chunking, POS tagging and tokenization",
	Long: `seqtag trains maximum-entropy sequence taggers and applies them with beam search.

Tasks:
  namefind   names marked up as "<START:person> Pierre Vinken <END> , 61 years old ."
  chunker    CoNLL-2000 files, one "token tag chunk" line per token
  postag     one sentence per line, tokens as "word_TAG"
  tokenize   one sentence per line, tokens split by whitespace or "<SPLIT>"

Commands:
  train          Train a model from a sample file
  tag            Tag raw text (or POS-tagged text for the chunker)
  evaluate       Evaluate a model against reference samples
  crossvalidate  K-fold cross-validation of a training configuration
  history        List recorded evaluation runs

Sample files ending in .xz are decompressed transparently. Use "-" for stdin.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = loadConfig(cmd)
		return err
	},
}

func main() {
	// Interrupting cancels training, and the running command returns an error.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	klog.Flush()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	klogFlags := flag.NewFlagSet("klog", flag.ExitOnError)
	klog.InitFlags(klogFlags)
	rootCmd.PersistentFlags().AddGoFlagSet(klogFlags)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "YAML config file (default: $SEQTAG_CONFIG)")
	rootCmd.PersistentFlags().Int("beam-size", 0, "Beam width used for decoding")
	rootCmd.PersistentFlags().String("language", "", "Language recorded with each run")
	rootCmd.PersistentFlags().String("history-db", "", "SQLite database where runs are recorded")
	rootCmd.PersistentFlags().BoolVar(&noHistory, "no-history", false, "Don't record runs in the history database")
}

// intFlags, stringFlags and boolFlags map flag names to the configuration fields they override.
// Only flags defined by the running command and set by the user are applied.
func intFlags(c *config.Config) map[string]*int {
	return map[string]*int{
		"beam-size":  &c.BeamSize,
		"iterations": &c.Train.Iterations,
		"cutoff":     &c.Train.Cutoff,
		"folds":      &c.CrossValidation.Folds,
		"workers":    &c.CrossValidation.Workers,
	}
}

func stringFlags(c *config.Config) map[string]*string {
	return map[string]*string{
		"language":            &c.Language,
		"history-db":          &c.HistoryDB,
		"tokenizer":           &c.Tokenizer,
		"sentencepiece-model": &c.SentencePieceModel,
		"tokenizer-model":     &c.TokenizerModel,
		"abbreviations":       &c.Tokenize.Abbreviations,
	}
}

func boolFlags(c *config.Config) map[string]*bool {
	return map[string]*bool{
		"alphanumeric-optimization": &c.Tokenize.AlphaNumericOptimization,
	}
}

// loadConfig loads the configuration and applies the command-line flags set by the user.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	c, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	flags := cmd.Flags()
	for name, dst := range intFlags(c) {
		if f := flags.Lookup(name); f != nil && f.Changed {
			if *dst, err = flags.GetInt(name); err != nil {
				return nil, errors.Wrapf(err, "flag --%s", name)
			}
		}
	}
	for name, dst := range stringFlags(c) {
		if f := flags.Lookup(name); f != nil && f.Changed {
			if *dst, err = flags.GetString(name); err != nil {
				return nil, errors.Wrapf(err, "flag --%s", name)
			}
		}
	}
	for name, dst := range boolFlags(c) {
		if f := flags.Lookup(name); f != nil && f.Changed {
			if *dst, err = flags.GetBool(name); err != nil {
				return nil, errors.Wrapf(err, "flag --%s", name)
			}
		}
	}
	if err := c.Validate(); err != nil {
		return nil, errors.WithMessage(err, "invalid configuration")
	}
	klog.V(1).Infof("configuration: %+v", *c)
	return c, nil
}
