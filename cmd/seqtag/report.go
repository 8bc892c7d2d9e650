package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/gomlx/go-seqtag/eval"
	"github.com/gomlx/go-seqtag/eval/fmeasure"
	"github.com/gomlx/go-seqtag/internal/runlog"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	labelStyle  = lipgloss.NewStyle().Faint(true)
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	numberStyle = cellStyle.Align(lipgloss.Right)
)

// renderTable renders rows in a bordered table. Columns listed in numeric are right aligned.
func renderTable(headers []string, rows [][]string, numeric ...int) string {
	isNumeric := make(map[int]bool, len(numeric))
	for _, col := range numeric {
		isNumeric[col] = true
	}
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case isNumeric[col]:
				return numberStyle
			}
			return cellStyle
		}).
		Render()
}

func percent(v float64) string {
	return fmt.Sprintf("%.2f%%", 100*v)
}

// renderFMeasure renders the evaluation report of numSamples samples.
func renderFMeasure(title string, fm *fmeasure.FMeasure, numSamples int, elapsed time.Duration) string {
	rows := [][]string{
		{"Samples", strconv.Itoa(numSamples)},
		{"Reference spans", strconv.Itoa(fm.Target())},
		{"Predicted spans", strconv.Itoa(fm.Selected())},
		{"True positives", strconv.Itoa(fm.TruePositives())},
		{"Precision", percent(fm.Precision())},
		{"Recall", percent(fm.Recall())},
		{"F-Measure", percent(fm.Value())},
	}
	if elapsed > 0 {
		rows = append(rows, []string{"Elapsed", elapsed.Round(time.Millisecond).String()})
	}
	return titleStyle.Render(title) + "\n" + renderTable([]string{"Metric", "Value"}, rows, 1)
}

// renderFolds renders one row per cross-validation fold.
func renderFolds(result *eval.CrossValidationResult) string {
	rows := make([][]string, 0, len(result.Folds))
	for _, fold := range result.Folds {
		rows = append(rows, []string{
			strconv.Itoa(fold.Index + 1),
			strconv.Itoa(fold.TrainSize),
			strconv.Itoa(fold.TestSize),
			percent(fold.FMeasure.Precision()),
			percent(fold.FMeasure.Recall()),
			percent(fold.FMeasure.Value()),
		})
	}
	return titleStyle.Render("Folds") + "\n" +
		renderTable([]string{"Fold", "Train", "Test", "Precision", "Recall", "F-Measure"}, rows, 0, 1, 2, 3, 4, 5)
}

func shorten(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// renderRuns renders the run history, most recent first.
func renderRuns(runs []*runlog.Run) string {
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		folds, precision, recall, f := "", "", "", ""
		if run.Folds > 0 {
			folds = strconv.Itoa(run.Folds)
		}
		if run.Kind != runlog.KindTrain {
			precision, recall, f = percent(run.Precision), percent(run.Recall), percent(run.FMeasure)
		}
		rows = append(rows, []string{
			shorten(run.ID, 8),
			run.StartedAt.Local().Format(time.DateTime),
			run.Kind,
			run.Task,
			run.Language,
			strconv.Itoa(run.Samples),
			folds,
			precision,
			recall,
			f,
			shorten(run.ModelDigest, 12),
		})
	}
	return renderTable(
		[]string{"ID", "Started", "Kind", "Task", "Lang", "Samples", "Folds", "Precision", "Recall", "F-Measure", "Model"},
		rows, 5, 6, 7, 8, 9)
}
