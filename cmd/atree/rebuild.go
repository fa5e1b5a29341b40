package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/matsen/attacktree/internal/config"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(rebuildCmd)
}

var rebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Rebuild the query layer from source data",
	Long: `Rebuild the SQLite query cache from the assessment history and models.

Assessments are reloaded from .atree/assessments.jsonl. The configured
default model and output model are re-cached for 'atree find' when they
exist. Use this after pulling changes from git or if the cache is corrupted.`,
	Args: cobra.NoArgs,
	RunE: runRebuild,
}

// RebuildResult is the response for the rebuild command.
type RebuildResult struct {
	Status      string   `json:"status"`
	Assessments int      `json:"assessments"`
	Models      []string `json:"models"`
}

func runRebuild(cmd *cobra.Command, args []string) error {
	root := mustFindWorkspace()
	cfg := mustLoadConfig(root)

	db := mustOpenDatabase(root)
	defer db.Close()

	count, err := db.RebuildAssessmentsFromJSONL(config.AssessmentsPath(root))
	if err != nil {
		exitWithError(ExitDataError, "rebuilding assessments: %v", err)
	}

	models := []string{}
	for _, path := range []string{cfg.ModelPath(root), cfg.OutputPath(root)} {
		if _, err := os.Stat(path); err != nil {
			slog.Debug("model not cached", "path", path, "error", err)
			continue
		}
		lm := mustLoadModel(path, cfg)
		if err := db.ReplaceSnapshot(modelKey(path), lm.Tree.Snapshot()); err != nil {
			exitWithError(ExitError, "caching %s: %v", path, err)
		}
		models = append(models, modelKey(path))
	}

	if humanOutput {
		fmt.Printf("Rebuilt query database with %d assessments and %d models\n", count, len(models))
		return nil
	}
	return outputJSON(RebuildResult{Status: "rebuilt", Assessments: count, Models: models})
}
