package main

import (
	"fmt"
	"strings"

	"github.com/matsen/attacktree/internal/storage"
	"github.com/spf13/cobra"
)

var findLimit int

func init() {
	findCmd.Flags().IntVarP(&findLimit, "limit", "n", 50, "Maximum number of results")
	findCmd.AddCommand(findModelsCmd)
	rootCmd.AddCommand(findCmd)
}

var findCmd = &cobra.Command{
	Use:   "find <query>",
	Short: "Search node labels across cached models",
	Long: `Full-text search over the node labels of every model cached in the
workspace. Models are cached when loaded, edited or assessed, and by
'atree rebuild'.

Each match lists the model, the label and its parents in that model.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runFind,
}

// FindMatch is one result of the find command.
type FindMatch struct {
	storage.NodeMatch
	Parents []string `json:"parents"`
	Value   *float64 `json:"value,omitempty"`
}

func runFind(cmd *cobra.Command, args []string) error {
	root := mustFindWorkspace()
	db := mustOpenDatabase(root)
	defer db.Close()

	query := strings.Join(args, " ")
	matches, err := db.SearchNodes(query, findLimit)
	if err != nil {
		exitWithError(ExitError, "searching: %v", err)
	}

	values := make(map[string]map[string]float64)
	results := make([]FindMatch, 0, len(matches))
	for _, m := range matches {
		edges, err := db.GetParents(m.Model, m.Label)
		if err != nil {
			exitWithError(ExitError, "reading parents: %v", err)
		}
		parents := make([]string, 0, len(edges))
		for _, e := range edges {
			parents = append(parents, e.Parent)
		}

		if _, ok := values[m.Model]; !ok {
			v, err := db.GetLeafValues(m.Model)
			if err != nil {
				exitWithError(ExitError, "reading values: %v", err)
			}
			values[m.Model] = v
		}
		fm := FindMatch{NodeMatch: m, Parents: parents}
		if v, ok := values[m.Model][m.Label]; ok {
			fm.Value = &v
		}
		results = append(results, fm)
	}

	if humanOutput {
		if len(results) == 0 {
			fmt.Printf("No nodes matching %q\n", query)
			return nil
		}
		for _, r := range results {
			line := r.Label
			if r.Value != nil {
				line += " = " + formatPercent(*r.Value)
			}
			if len(r.Parents) > 0 {
				line += " (under " + strings.Join(r.Parents, ", ") + ")"
			}
			fmt.Printf("%s\n  %s\n", line, r.Model)
		}
		return nil
	}
	return outputJSON(results)
}

var findModelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List cached models",
	Args:  cobra.NoArgs,
	RunE:  runFindModels,
}

// ModelSummary describes one cached model.
type ModelSummary struct {
	Model  string `json:"model"`
	Nodes  int    `json:"nodes"`
	Leaves int    `json:"leaves"`
}

func runFindModels(cmd *cobra.Command, args []string) error {
	root := mustFindWorkspace()
	db := mustOpenDatabase(root)
	defer db.Close()

	models, err := db.ListModels()
	if err != nil {
		exitWithError(ExitError, "listing models: %v", err)
	}

	summaries := make([]ModelSummary, 0, len(models))
	for _, model := range models {
		nodes, err := db.GetSnapshotNodes(model)
		if err != nil {
			exitWithError(ExitError, "reading nodes: %v", err)
		}
		s := ModelSummary{Model: model, Nodes: len(nodes)}
		for _, n := range nodes {
			if n.Leaf {
				s.Leaves++
			}
		}
		summaries = append(summaries, s)
	}

	if humanOutput {
		for _, s := range summaries {
			fmt.Printf("%s  (%d nodes, %d leaves)\n", s.Model, s.Nodes, s.Leaves)
		}
		return nil
	}
	return outputJSON(summaries)
}
