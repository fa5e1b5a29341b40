package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/matsen/attacktree/internal/assessment"
	"github.com/matsen/attacktree/internal/config"
	"github.com/matsen/attacktree/internal/score"
	"github.com/matsen/attacktree/internal/storage"
	"github.com/spf13/cobra"
)

var (
	scoreMode   string
	scoreRecord bool
)

func init() {
	scoreCmd.Flags().StringVar(&scoreMode, "mode", "", "Aggregation mode: weighted-sum or complementary (default from config)")
	scoreCmd.Flags().BoolVar(&scoreRecord, "record", false, "Append the result to the workspace assessment history")
	rootCmd.AddCommand(scoreCmd)
}

var scoreCmd = &cobra.Command{
	Use:   "score <file>",
	Short: "Score a model and classify its risk level",
	Long: `Aggregate the recorded leaf values of a model into a threat score.

weighted-sum (default) multiplies each value by the weight of the first
category contained in its label and sums the results. complementary
combines values as independent events: 1 - prod(1 - v).

The total is classified as High above 1, Medium above 0.5, Low otherwise.`,
	Args: cobra.ExactArgs(1),
	RunE: runScore,
}

// ScoreResult is the response for the score command.
type ScoreResult struct {
	Model string `json:"model"`
	score.Result
	Unvalued   []string `json:"unvalued,omitempty"`
	Assessment string   `json:"assessment,omitempty"`
}

func runScore(cmd *cobra.Command, args []string) error {
	root := findWorkspace()
	if scoreRecord && root == "" {
		root = mustFindWorkspace()
	}
	cfg := mustLoadConfig(root)
	lm := mustLoadModel(args[0], cfg)

	res := mustScore(lm, cfg, scoreMode)
	result := ScoreResult{Model: lm.Path, Result: res, Unvalued: lm.Tree.UnvaluedLeaves()}

	if scoreRecord {
		rec := assessment.New(modelKey(lm.Path), res, lm.Tree.Len(), len(lm.Tree.Leaves()))
		rec.Source = string(lm.Format)
		mustRecordAssessment(root, &rec)
		result.Assessment = rec.ID
	}

	if humanOutput {
		printScore(os.Stdout, res)
		if len(result.Unvalued) > 0 {
			fmt.Printf("Unvalued leaves (not scored): %d\n", len(result.Unvalued))
		}
		if result.Assessment != "" {
			fmt.Printf("Recorded assessment %s\n", result.Assessment)
		}
		return nil
	}
	return outputJSON(result)
}

// mustScore aggregates the model's values with the configured weights.
// A non-empty mode overrides the configured one.
func mustScore(lm *loadedModel, cfg *config.Config, mode string) score.Result {
	if mode == "" {
		mode = cfg.Mode
	}
	m, err := score.ParseMode(mode)
	if err != nil {
		exitWithError(ExitDataError, "%v", err)
	}
	for _, label := range lm.Tree.StaleValues() {
		slog.Warn("scoring value of a node that now has children", "label", label)
	}
	return score.Aggregate(lm.Tree.LeafValues(), cfg.Weights, m)
}

// mustRecordAssessment appends rec to the history file and the query cache.
func mustRecordAssessment(root string, rec *assessment.Record) {
	rec.SetCreatedAt(time.Now())
	if err := rec.ValidateForCreate(); err != nil {
		exitWithError(ExitDataError, "invalid assessment: %v", err)
	}
	if err := storage.AppendAssessment(config.AssessmentsPath(root), *rec); err != nil {
		exitWithError(ExitError, "writing assessment: %v", err)
	}

	db := mustOpenDatabase(root)
	defer db.Close()
	if err := db.InsertAssessment(*rec); err != nil {
		slog.Warn("caching assessment; run 'atree rebuild'", "error", err)
	}
}

// printScore writes the contributions and the classified total to w.
func printScore(w io.Writer, res score.Result) {
	for _, c := range res.Contributions {
		category := c.Category
		if category == "" {
			category = "-"
		}
		fmt.Fprintf(w, "  %-40s %8s  x%-4g %-16s %.4f\n", c.Label, formatPercent(c.Value), c.Weight, category, c.Weighted)
	}
	fmt.Fprintf(w, "Total threat assessment rating value : %v\n", res.Total)
	fmt.Fprintf(w, "Overall threat assessment rating: %.1f\n", res.Rating)
	fmt.Fprintf(w, "Risk level: %s, shown %s (%s)\n", formatLevel(res.Level), res.Level.Color(), res.Mode)
}
