package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gomlx/go-seqtag/eval"
	"github.com/gomlx/go-seqtag/eval/fmeasure"
	"github.com/gomlx/go-seqtag/internal/config"
	"github.com/gomlx/go-seqtag/internal/runlog"
	"github.com/gomlx/go-seqtag/postag"
	"github.com/gomlx/go-seqtag/spans"
	"github.com/gomlx/go-seqtag/tokenize"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeLines(t *testing.T, filePath string, lines ...string) string {
	t.Helper()
	require.NoError(t, os.WriteFile(filePath, []byte(strings.Join(lines, "\n")+"\n"), 0644))
	return filePath
}

func repeat(n int, lines ...string) []string {
	var repeated []string
	for range n {
		repeated = append(repeated, lines...)
		repeated = append(repeated, "")
	}
	return repeated
}

func testConfig(t *testing.T) *config.Config {
	c := config.Default()
	c.Train.Cutoff = 1
	c.HistoryDB = filepath.Join(t.TempDir(), "history", "runs.db")
	c.Tokenizer = config.TokenizerWhitespace
	c.CrossValidation.Folds = 2
	return c
}

var namesCorpus = []string{
	"<START:person> Pierre Vinken <END> , 61 years old , will join the board .",
	"Mr. <START:person> Vinken <END> is chairman of <START:organization> Elsevier <END> .",
	"<START:person> Rudolph Agnew <END> , 55 years old , was named a director .",
	"The shares of <START:organization> Elsevier <END> rose .",
	"",
	"<START:organization> Lorillard <END> stopped using the fibers .",
	"A spokeswoman for <START:organization> Lorillard <END> said it .",
}

func TestNameFinderWorkflow(t *testing.T) {
	ctx := context.Background()
	c := testConfig(t)
	dir := t.TempDir()
	trainPath := writeLines(t, filepath.Join(dir, "names.train"), repeat(5, namesCorpus...)...)
	testPath := writeLines(t, filepath.Join(dir, "names.test"), namesCorpus...)
	modelPath := filepath.Join(dir, "names.parquet")

	var out bytes.Buffer
	run, err := runTrain(ctx, c, trainOptions{task: TaskNameFind, data: trainPath, model: modelPath}, &out)
	require.NoError(t, err)
	assert.Equal(t, runlog.KindTrain, run.Kind)
	assert.Equal(t, 30, run.Samples)
	assert.Len(t, run.ModelDigest, 64)
	assert.Contains(t, out.String(), run.ModelDigest)
	require.NoError(t, recordRun(ctx, c, run))

	out.Reset()
	run, err = runEvaluate(c, evaluateOptions{task: TaskNameFind, data: testPath, model: modelPath, misclassified: true}, &out)
	require.NoError(t, err)
	assert.Equal(t, runlog.KindEvaluate, run.Kind)
	assert.Equal(t, 6, run.Samples)
	assert.Equal(t, 1.0, run.FMeasure)
	assert.Contains(t, out.String(), "100.00%")
	assert.NotContains(t, out.String(), "expected:")
	require.NoError(t, recordRun(ctx, c, run))

	out.Reset()
	inputPath := writeLines(t, filepath.Join(dir, "input.txt"), "Pierre Vinken , 61 years old , will join the board .")
	require.NoError(t, runTag(c, tagOptions{task: TaskNameFind, models: []string{modelPath}, input: inputPath}, &out))
	assert.Equal(t, "<START:person> Pierre Vinken <END> , 61 years old , will join the board .\n", out.String())

	out.Reset()
	require.NoError(t, runHistory(ctx, c, 0, &out))
	history := out.String()
	assert.Contains(t, history, runlog.KindTrain)
	assert.Contains(t, history, runlog.KindEvaluate)
	assert.Contains(t, history, TaskNameFind)
	assert.Contains(t, history, run.ID[:8])
}

var posCorpus = []string{
	"The_DT driver_NN ran_VBD fast_RB ._.",
	"The_DT run_NN was_VBD long_JJ ._.",
	"Drivers_NNS run_VBP every_DT day_NN ._.",
	"A_DT long_JJ day_NN ended_VBD ._.",
}

func TestPOSTaggerWorkflow(t *testing.T) {
	c := testConfig(t)
	dir := t.TempDir()
	trainPath := writeLines(t, filepath.Join(dir, "pos.train"), repeat(5, posCorpus...)...)
	modelPath := filepath.Join(dir, "pos.parquet")
	dictPath := filepath.Join(dir, "pos.xml")

	var out bytes.Buffer
	run, err := runTrain(context.Background(), c,
		trainOptions{task: TaskPOSTag, data: trainPath, model: modelPath, dictionary: dictPath}, &out)
	require.NoError(t, err)
	assert.Equal(t, 20, run.Samples)

	dict, err := postag.LoadDictionaryFile(dictPath)
	require.NoError(t, err)
	assert.False(t, dict.CaseSensitive())
	assert.Equal(t, []string{"NN", "VBP"}, dict.Tags("Run"))

	out.Reset()
	inputPath := writeLines(t, filepath.Join(dir, "input.txt"), "The driver ran fast .", "", "A long day ended .")
	require.NoError(t, runTag(c, tagOptions{task: TaskPOSTag, models: []string{modelPath}, dictionary: dictPath, input: inputPath}, &out))
	assert.Equal(t, "The_DT driver_NN ran_VBD fast_RB ._.\n\nA_DT long_JJ day_NN ended_VBD ._.\n", out.String())
}

var chunkCorpus = []string{
	"Forecasts NNS B-NP", "for IN B-PP", "the DT B-NP", "trade NN I-NP", "figures NNS I-NP",
	"range VBP B-VP", "widely RB B-ADVP", ". . O", "",
	"He PRP B-NP", "reckons VBZ B-VP", "the DT B-NP", "current JJ I-NP", "account NN I-NP",
	"deficit NN I-NP", ". . O",
}

func TestChunkerWorkflow(t *testing.T) {
	ctx := context.Background()
	c := testConfig(t)
	c.CrossValidation.Workers = 2
	dir := t.TempDir()
	trainPath := writeLines(t, filepath.Join(dir, "chunks.train"), repeat(5, chunkCorpus...)...)
	modelPath := filepath.Join(dir, "chunks.parquet")

	var out bytes.Buffer
	_, err := runTrain(ctx, c, trainOptions{task: TaskChunker, data: trainPath, model: modelPath}, &out)
	require.NoError(t, err)

	out.Reset()
	inputPath := writeLines(t, filepath.Join(dir, "input.txt"), "Forecasts_NNS for_IN the_DT trade_NN figures_NNS range_VBP widely_RB ._.")
	require.NoError(t, runTag(c, tagOptions{task: TaskChunker, models: []string{modelPath}, input: inputPath}, &out))
	assert.Equal(t, " [NP Forecasts_NNS ] [PP for_IN ] [NP the_DT trade_NN figures_NNS ] [VP range_VBP ] [ADVP widely_RB ] ._.\n",
		out.String())

	out.Reset()
	run, err := runCrossValidate(ctx, c, crossValidateOptions{task: TaskChunker, data: trainPath}, &out)
	require.NoError(t, err)
	assert.Equal(t, runlog.KindCrossValidate, run.Kind)
	assert.Equal(t, 2, run.Folds)
	assert.Equal(t, 10, run.Samples)
	assert.Contains(t, out.String(), "Folds")
	require.NoError(t, recordRun(ctx, c, run))
}

var tokenCorpus = []string{
	"test<SPLIT>, then we are done<SPLIT>.",
	"Mr. Smith<SPLIT>, say hello<SPLIT>!",
	"It costs 5<SPLIT>, really<SPLIT>.",
	"(<SPLIT>fine<SPLIT>) , ok<SPLIT>?",
}

func TestTokenizerWorkflow(t *testing.T) {
	ctx := context.Background()
	c := testConfig(t)
	dir := t.TempDir()
	c.Tokenize.AlphaNumericOptimization = true
	c.Tokenize.Abbreviations = writeLines(t, filepath.Join(dir, "abbreviations.txt"), "Mr.", "Dr.")
	trainPath := writeLines(t, filepath.Join(dir, "tokens.train"), repeat(5, tokenCorpus...)...)
	testPath := writeLines(t, filepath.Join(dir, "tokens.test"), tokenCorpus...)
	modelPath := filepath.Join(dir, "tokens.parquet")

	var out bytes.Buffer
	run, err := runTrain(ctx, c, trainOptions{task: TaskTokenize, data: trainPath, model: modelPath}, &out)
	require.NoError(t, err)
	assert.Equal(t, 20, run.Samples)

	out.Reset()
	run, err = runEvaluate(c, evaluateOptions{task: TaskTokenize, data: testPath, model: modelPath}, &out)
	require.NoError(t, err)
	assert.Equal(t, 4, run.Samples)
	assert.Equal(t, 1.0, run.FMeasure)

	out.Reset()
	inputPath := writeLines(t, filepath.Join(dir, "input.txt"), "Mr. Smith, say hello!", "", "test,")
	require.NoError(t, runTag(c, tagOptions{task: TaskTokenize, models: []string{modelPath}, input: inputPath}, &out))
	assert.Equal(t, "Mr. Smith<SPLIT>, say hello<SPLIT>!\n\ntest<SPLIT>,\n", out.String())

	// The trained model tokenizes raw text for the other tasks.
	c.Tokenizer = config.TokenizerMaxent
	c.TokenizerModel = modelPath
	tokenizer, err := newTokenizer(c)
	require.NoError(t, err)
	assert.Equal(t, []string{"It", "costs", "5", ",", "really", "."}, tokenize.Tokenize(tokenizer, "It costs 5, really."))

	out.Reset()
	run, err = runCrossValidate(ctx, c, crossValidateOptions{task: TaskTokenize, data: trainPath}, &out)
	require.NoError(t, err)
	assert.Equal(t, 2, run.Folds)
	assert.Equal(t, 20, run.Samples)
	assert.Equal(t, 1.0, run.FMeasure)

	c.Tokenize.Abbreviations = filepath.Join(dir, "missing.txt")
	_, err = runTrain(ctx, c, trainOptions{task: TaskTokenize, data: trainPath, model: modelPath}, &out)
	assert.Error(t, err)
}

func TestCommandErrors(t *testing.T) {
	ctx := context.Background()
	c := testConfig(t)
	dir := t.TempDir()
	dataPath := writeLines(t, filepath.Join(dir, "names.train"), namesCorpus...)
	var out bytes.Buffer

	_, err := runTrain(ctx, c, trainOptions{task: "parser", data: dataPath, model: filepath.Join(dir, "m.parquet")}, &out)
	assert.ErrorContains(t, err, "unknown task")
	_, err = runTrain(ctx, c, trainOptions{task: TaskNameFind, data: dataPath, model: filepath.Join(dir, "m.parquet"),
		dictionary: filepath.Join(dir, "d.xml")}, &out)
	assert.Error(t, err)
	_, err = runTrain(ctx, c, trainOptions{task: TaskNameFind, data: filepath.Join(dir, "missing"), model: filepath.Join(dir, "m.parquet")}, &out)
	assert.Error(t, err)
	_, err = runEvaluate(c, evaluateOptions{task: TaskNameFind, data: dataPath, model: filepath.Join(dir, "missing.parquet")}, &out)
	assert.Error(t, err)
	assert.Error(t, runTag(c, tagOptions{task: TaskPOSTag, models: []string{"a", "b"}}, &out))
	assert.Error(t, runTag(c, tagOptions{task: TaskNameFind}, &out))
}

func TestLoadConfigFlags(t *testing.T) {
	for _, name := range []string{"CONFIG", "CUTOFF", "BEAM_SIZE", "FOLDS", "TOKENIZER", "ALPHANUMERIC_OPTIMIZATION"} {
		t.Setenv(config.EnvPrefix+name, "")
	}
	t.Chdir(t.TempDir())

	newCmd := func() *cobra.Command {
		cmd := &cobra.Command{}
		cmd.Flags().Int("beam-size", 0, "")
		cmd.Flags().Int("cutoff", 0, "")
		cmd.Flags().Int("folds", 0, "")
		cmd.Flags().String("tokenizer", "", "")
		addTokenizeFlags(cmd)
		return cmd
	}
	cmd := newCmd()
	require.NoError(t, cmd.Flags().Set("cutoff", "2"))
	require.NoError(t, cmd.Flags().Set("tokenizer", config.TokenizerWhitespace))
	require.NoError(t, cmd.Flags().Set("alphanumeric-optimization", "true"))
	c, err := loadConfig(cmd)
	require.NoError(t, err)
	assert.Equal(t, 2, c.Train.Cutoff)
	assert.Equal(t, 3, c.BeamSize, "unset flags keep the configured value")
	assert.Equal(t, config.TokenizerWhitespace, c.Tokenizer)
	assert.True(t, c.Tokenize.AlphaNumericOptimization)

	cmd = newCmd()
	require.NoError(t, cmd.Flags().Set("folds", "1"))
	_, err = loadConfig(cmd)
	assert.Error(t, err)
}

func TestRenderFMeasure(t *testing.T) {
	fm := fmeasure.New()
	fm.Update([]spans.Span{spans.New(0, 1, "a"), spans.New(2, 3, "b")}, []spans.Span{spans.New(0, 1, "a")})
	report := renderFMeasure("Evaluation", fm, 1, 1500*time.Millisecond)
	for _, want := range []string{"Evaluation", "100.00%", "50.00%", "66.67%", "1.5s"} {
		assert.Contains(t, report, want)
	}

	folds := renderFolds(&eval.CrossValidationResult{
		Folds:    []eval.FoldResult{{Index: 0, TrainSize: 9, TestSize: 1, FMeasure: fm}},
		FMeasure: fm,
	})
	assert.Contains(t, folds, "66.67%")
}
