package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/matsen/attacktree/internal/score"
	"github.com/matsen/attacktree/internal/tree"
	"github.com/matsen/attacktree/internal/viz"
	"github.com/spf13/cobra"
)

var (
	vizOutput string
	vizLayout string
	vizMode   string
)

func init() {
	vizCmd.Flags().StringVarP(&vizOutput, "output", "o", "", "Output file path (default: stdout)")
	vizCmd.Flags().StringVar(&vizLayout, "layout", "tree", "Layout algorithm: tree, force, circle, or grid")
	vizCmd.Flags().StringVar(&vizMode, "mode", "", "Aggregation mode for the risk banner (default from config)")
	rootCmd.AddCommand(vizCmd)
}

var vizCmd = &cobra.Command{
	Use:   "viz <file>",
	Short: "Generate an interactive attack tree visualization",
	Long: `Generate an interactive HTML visualization of an attack tree.

Roots are dark rectangles, branches blue circles and leaves orange diamonds
sized by likelihood. Labels shared by several branches get a purple border.
A banner shows the threat rating colored by risk level.

Examples:
  # Generate HTML to stdout
  atree viz model.json > tree.html

  # Use a force-directed layout
  atree viz model.json --layout force -o tree.html`,
	Args: cobra.ExactArgs(1),
	RunE: runViz,
}

func runViz(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig(findWorkspace())
	lm := mustLoadModel(args[0], cfg)
	res := mustScore(lm, cfg, vizMode)

	if vizOutput == "" {
		html := mustGenerateVisualization(lm.Tree.Snapshot(), &res, vizLayout, lm.Path)
		fmt.Print(html)
		return nil
	}

	mustWriteVisualization(lm.Tree.Snapshot(), &res, vizOutput, vizLayout, lm.Path)
	if !humanOutput {
		return outputJSON(StatusResponse{Status: "written", Path: vizOutput})
	}
	fmt.Printf("Visualization written to %s\n", vizOutput)
	return nil
}

func mustGenerateVisualization(snap tree.Snapshot, res *score.Result, layout, model string) string {
	opts := viz.DefaultOptions()
	if layout != "" {
		opts.Layout = layout
	}
	opts.Title = fmt.Sprintf("%s: %s", opts.Title, filepath.Base(model))

	html, err := viz.GenerateHTML(viz.BuildGraph(snap, res), opts)
	if err != nil {
		exitWithError(ExitError, "generating HTML: %v", err)
	}
	return html
}

// mustWriteVisualization renders snap to an HTML file at path.
func mustWriteVisualization(snap tree.Snapshot, res *score.Result, path, layout, model string) {
	html := mustGenerateVisualization(snap, res, layout, model)
	if err := os.WriteFile(path, []byte(html), 0644); err != nil {
		exitWithError(ExitError, "writing output file: %v", err)
	}
}
