package main

import (
	"fmt"
	"log/slog"

	"github.com/matsen/attacktree/internal/canon"
	"github.com/matsen/attacktree/internal/tree"
	"github.com/spf13/cobra"
)

var (
	addParent string
	addChild  string
	addOutput string

	valueLabel  string
	valueValue  string
	valueOutput string
)

func init() {
	addCmd.Flags().StringVar(&addParent, "parent", "", "Existing node to add under (required)")
	addCmd.Flags().StringVar(&addChild, "child", "", "New risk to add (required)")
	addCmd.Flags().StringVarP(&addOutput, "output", "o", "", "Write the model here instead of overwriting it")
	addCmd.MarkFlagRequired("parent")
	addCmd.MarkFlagRequired("child")
	rootCmd.AddCommand(addCmd)

	valueCmd.Flags().StringVar(&valueLabel, "label", "", "Leaf to value (required)")
	valueCmd.Flags().StringVar(&valueValue, "value", "", "Likelihood, e.g. 35% or 0.35 (required)")
	valueCmd.Flags().StringVarP(&valueOutput, "output", "o", "", "Write the model here instead of overwriting it")
	valueCmd.MarkFlagRequired("label")
	valueCmd.MarkFlagRequired("value")
	rootCmd.AddCommand(valueCmd)
}

var addCmd = &cobra.Command{
	Use:   "add <file>",
	Short: "Add a risk under an existing node",
	Long: `Add a child risk under an existing parent and save the model.

The parent must already exist. Adding a risk that is already there changes
nothing. If the child label exists elsewhere in the tree it gains this
parent as well.`,
	Args: cobra.ExactArgs(1),
	RunE: runAdd,
}

// EditResult is the response for the add and value commands.
type EditResult struct {
	Status string       `json:"status"`
	Model  string       `json:"model"`
	Format canon.Format `json:"format"`
	Parent string       `json:"parent,omitempty"`
	Child  string       `json:"child,omitempty"`
	Label  string       `json:"label,omitempty"`
	Value  *float64     `json:"value,omitempty"`
}

func runAdd(cmd *cobra.Command, args []string) error {
	root := findWorkspace()
	cfg := mustLoadConfig(root)
	lm := mustLoadModel(args[0], cfg)

	label := lm.Tree.LabelFor(addParent, addChild)
	status := "added"
	if lm.Tree.HasEdge(addParent, label) {
		status = "unchanged"
	}
	if err := lm.Tree.AddNode(addParent, addChild); err != nil {
		exitWithError(exitCodeFor(err), "adding risk: %v", err)
	}

	out, format := editTarget(lm, addOutput)
	format = mustSaveModel(lm.Tree, out, format)
	cacheSnapshot(root, out, lm.Tree)

	if humanOutput {
		if status == "unchanged" {
			fmt.Printf("Risk %s already under %s\n", addChild, addParent)
		} else {
			fmt.Printf("Added risk: %s under risk type: %s\n", addChild, addParent)
		}
		fmt.Printf("Tree saved to %s\n", out)
		return nil
	}
	return outputJSON(EditResult{Status: status, Model: out, Format: format, Parent: addParent, Child: label})
}

var valueCmd = &cobra.Command{
	Use:   "value <file>",
	Short: "Record the likelihood of a leaf",
	Long: `Record a likelihood for a node and save the model.

Values ending in '%' are percentages ("35%" is 0.35); plain numbers are
taken as given.`,
	Args: cobra.ExactArgs(1),
	RunE: runValue,
}

func runValue(cmd *cobra.Command, args []string) error {
	root := findWorkspace()
	cfg := mustLoadConfig(root)
	lm := mustLoadModel(args[0], cfg)

	v, err := tree.ParseLeafValue(valueValue)
	if err != nil {
		exitWithError(ExitDataError, "%v", err)
	}
	if err := lm.Tree.SetLeafValue(valueLabel, v); err != nil {
		exitWithError(exitCodeFor(err), "setting value: %v", err)
	}
	if !lm.Tree.IsLeaf(valueLabel) {
		slog.Warn("value recorded on a node with children; it is kept but not serialized", "label", valueLabel)
	}

	out, format := editTarget(lm, valueOutput)
	format = mustSaveModel(lm.Tree, out, format)
	cacheSnapshot(root, out, lm.Tree)

	if humanOutput {
		fmt.Printf("Set %s to %s\n", valueLabel, formatPercent(v))
		fmt.Printf("Tree saved to %s\n", out)
		return nil
	}
	return outputJSON(EditResult{Status: "updated", Model: out, Format: format, Label: valueLabel, Value: &v})
}

// editTarget returns where an edited model is saved. Without an explicit
// output the source is overwritten in its own format; otherwise the format
// follows the output extension.
func editTarget(lm *loadedModel, output string) (string, canon.Format) {
	if output == "" {
		return lm.Path, lm.Format
	}
	return output, ""
}
