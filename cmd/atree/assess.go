package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/matsen/attacktree/internal/assessment"
	"github.com/matsen/attacktree/internal/canon"
	"github.com/matsen/attacktree/internal/edge"
	"github.com/matsen/attacktree/internal/score"
	"github.com/matsen/attacktree/internal/session"
	"github.com/spf13/cobra"
)

var (
	assessOutput   string
	assessMode     string
	assessViz      string
	assessNoRecord bool
)

func init() {
	assessCmd.Flags().StringVarP(&assessOutput, "output", "o", "", "Where to save the updated model (default from config)")
	assessCmd.Flags().StringVar(&assessMode, "mode", "", "Aggregation mode: weighted-sum or complementary (default from config)")
	assessCmd.Flags().StringVar(&assessViz, "viz", "", "Also write an HTML visualization to this path")
	assessCmd.Flags().BoolVar(&assessNoRecord, "no-record", false, "Do not append the result to the assessment history")
	rootCmd.AddCommand(assessCmd)
}

var assessCmd = &cobra.Command{
	Use:   "assess [file]",
	Short: "Run an interactive threat assessment",
	Long: `Walk through a full assessment of an attack tree:

  1. Load the model (asks for default or custom when no file is given)
  2. Add new risks under existing risk types until you type 'exit'
  3. Enter a likelihood for every leaf, e.g. 35%
  4. Save the updated model, score it and classify the risk level

Results are appended to the workspace history when a workspace exists.
Prompts are written to stderr unless --human is set.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAssess,
}

// AssessResult is the response for the assess command.
type AssessResult struct {
	Model  string      `json:"model"`
	Output string      `json:"output"`
	Added  []edge.Edge `json:"added"`
	Valued int         `json:"valued"`
	score.Result
	Assessment    string `json:"assessment,omitempty"`
	Visualization string `json:"visualization,omitempty"`
}

func runAssess(cmd *cobra.Command, args []string) error {
	root := findWorkspace()
	cfg := mustLoadConfig(root)

	var prompts io.Writer = os.Stderr
	if humanOutput {
		prompts = os.Stdout
	}
	if !session.IsTerminal(os.Stdin) {
		slog.Debug("stdin is not a terminal; reading answers from input")
	}
	s := session.New(nil, os.Stdin, prompts)

	model := ""
	if len(args) == 1 {
		model = args[0]
	} else {
		chosen, err := s.ChooseModel(cfg.ModelPath(root))
		if err != nil {
			exitWithError(ExitError, "choosing model: %v", err)
		}
		model = chosen
	}

	lm := mustLoadModel(model, cfg)
	s.Tree = lm.Tree

	fmt.Fprintln(prompts, "Adding risks interactively...")
	added, err := s.AddRisks()
	if err != nil {
		exitWithError(ExitError, "reading risks: %v", err)
	}

	fmt.Fprintln(prompts, "Adding probability values...")
	valued, err := s.ElicitValues()
	if err != nil {
		exitWithError(ExitError, "reading values: %v", err)
	}
	if missing := len(lm.Tree.Leaves()) - valued; missing > 0 {
		slog.Warn("input ended before every leaf was valued; earlier values kept", "remaining", missing)
	}

	output := assessOutput
	var format canon.Format
	if output == "" {
		output = cfg.OutputPath(root)
		f, err := cfg.Format()
		if err != nil {
			exitWithError(ExitUnsupportedFormat, "%v", err)
		}
		format = f
	}
	mustSaveModel(lm.Tree, output, format)
	fmt.Fprintf(prompts, "Tree saved to %s\n", output)
	cacheSnapshot(root, output, lm.Tree)

	res := mustScore(lm, cfg, assessMode)
	result := AssessResult{Model: lm.Path, Output: output, Added: added, Valued: valued, Result: res}
	if result.Added == nil {
		result.Added = []edge.Edge{}
	}

	if root != "" && !assessNoRecord {
		rec := assessment.New(modelKey(lm.Path), res, lm.Tree.Len(), len(lm.Tree.Leaves()))
		rec.Source = string(lm.Format)
		rec.Output = modelKey(output)
		mustRecordAssessment(root, &rec)
		result.Assessment = rec.ID
	}

	if assessViz != "" {
		fmt.Fprintf(prompts, "Visualizing %s attack tree...\n", output)
		mustWriteVisualization(lm.Tree.Snapshot(), &res, assessViz, "", output)
		result.Visualization = assessViz
	}

	if humanOutput {
		printScore(os.Stdout, res)
		if result.Assessment != "" {
			fmt.Printf("Recorded assessment %s\n", result.Assessment)
		}
		return nil
	}
	return outputJSON(result)
}
