package main

import (
	"fmt"
	"log/slog"
	"os"
	"sort"

	"github.com/matsen/attacktree/internal/config"
	"github.com/matsen/attacktree/internal/edge"
	"github.com/matsen/attacktree/internal/storage"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(checkCmd)
}

var checkCmd = &cobra.Command{
	Use:   "check <file>",
	Short: "Report shared labels, stale values and unvalued leaves",
	Long: `Inspect a model for conditions that affect its score.

  shared_label     a label reached from more than one parent (valued once)
  stale_value      a node with children that still holds a value
  unvalued_leaf    a leaf with no recorded value (scored as nothing)
  non_numeric      a leaf whose source value was not a number (recorded as 0)
  cache_drift      an edge in the workspace cache that the model no longer has`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

// CheckResult is the response for the check command.
type CheckResult struct {
	Status string       `json:"status"`
	Model  string       `json:"model"`
	Nodes  int          `json:"nodes"`
	Edges  int          `json:"edges"`
	Issues []CheckIssue `json:"issues"`
}

// CheckIssue represents a single issue found during check.
type CheckIssue struct {
	Type    string   `json:"type"`
	Label   string   `json:"label,omitempty"`
	Parents []string `json:"parents,omitempty"`
	Child   string   `json:"child,omitempty"`
	Reason  string   `json:"reason,omitempty"`
}

func runCheck(cmd *cobra.Command, args []string) error {
	root := findWorkspace()
	cfg := mustLoadConfig(root)
	lm := mustLoadModel(args[0], cfg)
	t := lm.Tree

	issues := []CheckIssue{}

	edges := t.Edges()
	for _, e := range edges {
		if err := e.ValidateForCreate(); err != nil {
			issues = append(issues, CheckIssue{Type: "invalid_edge", Label: e.Parent, Child: e.Child, Reason: err.Error()})
		}
	}

	multi := edge.FindMultiParent(edges)
	shared := make([]string, 0, len(multi))
	for label := range multi {
		shared = append(shared, label)
	}
	sort.Strings(shared)
	for _, label := range shared {
		issues = append(issues, CheckIssue{Type: "shared_label", Label: label, Parents: multi[label]})
	}

	for _, label := range t.StaleValues() {
		issues = append(issues, CheckIssue{Type: "stale_value", Label: label})
	}
	for _, label := range t.UnvaluedLeaves() {
		issues = append(issues, CheckIssue{Type: "unvalued_leaf", Label: label})
	}
	for _, label := range lm.Report.NonNumeric {
		issues = append(issues, CheckIssue{Type: "non_numeric", Label: label})
	}
	if root != "" {
		issues = append(issues, cacheDrift(root, lm)...)
	}

	status := "ok"
	if len(issues) > 0 {
		status = "issues_found"
	}
	result := CheckResult{Status: status, Model: lm.Path, Nodes: t.Len(), Edges: len(edges), Issues: issues}

	if humanOutput {
		fmt.Printf("Checked %s: %d nodes, %d edges\n", result.Model, result.Nodes, result.Edges)
		if len(issues) == 0 {
			fmt.Println("No issues found")
			return nil
		}
		for _, is := range issues {
			switch is.Type {
			case "shared_label":
				fmt.Printf("  %s: %s (parents: %v)\n", is.Type, is.Label, is.Parents)
			case "cache_drift", "invalid_edge":
				fmt.Printf("  %s: %s -> %s (%s)\n", is.Type, is.Label, is.Child, is.Reason)
			default:
				fmt.Printf("  %s: %s\n", is.Type, is.Label)
			}
		}
		return nil
	}
	return outputJSON(result)
}

// cacheDrift compares the cached snapshot of the model with the model as
// loaded now.
func cacheDrift(root string, lm *loadedModel) []CheckIssue {
	if _, err := os.Stat(config.DBPath(root)); err != nil {
		return nil
	}
	db, err := storage.OpenDB(config.DBPath(root))
	if err != nil {
		slog.Warn("opening query cache", "error", err)
		return nil
	}
	defer db.Close()

	cached, err := db.GetEdges(modelKey(lm.Path))
	if err != nil {
		slog.Warn("reading cached edges", "error", err)
		return nil
	}

	labels := make(map[string]bool, lm.Tree.Len())
	for _, label := range lm.Tree.Nodes() {
		labels[label] = true
	}
	orphaned, valid := edge.DetectOrphanedEdges(cached, labels)

	var issues []CheckIssue
	for _, o := range orphaned {
		issues = append(issues, CheckIssue{Type: "cache_drift", Label: o.Parent, Child: o.Child, Reason: o.Reason})
	}
	for _, e := range valid {
		if !lm.Tree.HasEdge(e.Parent, e.Child) {
			issues = append(issues, CheckIssue{Type: "cache_drift", Label: e.Parent, Child: e.Child, Reason: "missing_edge"})
		}
	}
	return issues
}
