package main

import (
	"fmt"
	"strings"

	"github.com/matsen/attacktree/internal/canon"
	"github.com/matsen/attacktree/internal/viz"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(loadCmd)
	rootCmd.AddCommand(showCmd)
}

var loadCmd = &cobra.Command{
	Use:   "load <file>",
	Short: "Load a model and summarize its tree",
	Long: `Decode a JSON, YAML or XML model, build its tree and report what was found.

Labels that appear under more than one branch are merged into one node and
listed under merged_labels. Leaves whose value is not a number are recorded
as 0 and listed under non_numeric.`,
	Args: cobra.ExactArgs(1),
	RunE: runLoad,
}

// LoadResult is the response for the load command.
type LoadResult struct {
	Model        string       `json:"model"`
	Format       canon.Format `json:"format"`
	Roots        []string     `json:"roots"`
	Nodes        int          `json:"nodes"`
	Edges        int          `json:"edges"`
	Leaves       int          `json:"leaves"`
	Values       int          `json:"values"`
	MergedLabels []string     `json:"merged_labels,omitempty"`
	Shared       []string     `json:"shared,omitempty"`
	NonNumeric   []string     `json:"non_numeric,omitempty"`
}

func runLoad(cmd *cobra.Command, args []string) error {
	root := findWorkspace()
	cfg := mustLoadConfig(root)
	lm := mustLoadModel(args[0], cfg)
	cacheSnapshot(root, lm.Path, lm.Tree)

	t := lm.Tree
	result := LoadResult{
		Model:        lm.Path,
		Format:       lm.Format,
		Roots:        t.Roots(),
		Nodes:        t.Len(),
		Edges:        len(t.Edges()),
		Leaves:       len(t.Leaves()),
		Values:       len(t.ValueEntries()),
		MergedLabels: lm.Report.MergedLabels,
		Shared:       t.MultiParent(),
		NonNumeric:   lm.Report.NonNumeric,
	}

	if humanOutput {
		fmt.Printf("Loaded %s (%s)\n", result.Model, result.Format)
		fmt.Printf("  Roots:  %s\n", strings.Join(result.Roots, ", "))
		fmt.Printf("  Nodes:  %d\n", result.Nodes)
		fmt.Printf("  Edges:  %d\n", result.Edges)
		fmt.Printf("  Leaves: %d (%d valued)\n", result.Leaves, result.Values)
		if len(result.MergedLabels) > 0 {
			fmt.Printf("  Merged: %s\n", strings.Join(result.MergedLabels, ", "))
		}
		if len(result.Shared) > 0 {
			fmt.Printf("  Shared: %s\n", strings.Join(result.Shared, ", "))
		}
		if len(result.NonNumeric) > 0 {
			fmt.Printf("  Non-numeric (recorded as 0): %s\n", strings.Join(result.NonNumeric, ", "))
		}
		return nil
	}
	return outputJSON(result)
}

var showCmd = &cobra.Command{
	Use:   "show <file>",
	Short: "Show the tree of a model",
	Long: `Print the nodes, edges and leaf values of a model.

With --human the tree is printed as an indented outline; leaves show their
value as a percentage, or "-" when none is recorded.`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

func runShow(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig(findWorkspace())
	lm := mustLoadModel(args[0], cfg)

	snap := lm.Tree.Snapshot()
	if humanOutput {
		fmt.Print(viz.RenderText(snap))
		return nil
	}
	return outputJSON(snap)
}
