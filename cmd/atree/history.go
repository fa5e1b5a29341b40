package main

import (
	"fmt"
	"log/slog"

	"github.com/matsen/attacktree/internal/assessment"
	"github.com/matsen/attacktree/internal/config"
	"github.com/matsen/attacktree/internal/storage"
	"github.com/spf13/cobra"
)

var (
	historyLimit int
	historyModel string
)

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", DefaultHistoryLimit, "Maximum number of records (0 for all)")
	historyCmd.Flags().StringVar(&historyModel, "model", "", "Only show assessments of this model file")
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyRmCmd)
	rootCmd.AddCommand(historyCmd)
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded assessments",
	Long: `List recorded assessments, most recent first.

History lives in .atree/assessments.jsonl; queries go through the SQLite
cache, which is rebuilt automatically when empty.`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

// HistoryResult is the response for the history command.
type HistoryResult struct {
	Assessments []assessment.Record `json:"assessments"`
	Total       int                 `json:"total"`
}

func runHistory(cmd *cobra.Command, args []string) error {
	root := mustFindWorkspace()
	db := mustOpenHistory(root)
	defer db.Close()

	var records []assessment.Record
	var err error
	if historyModel != "" {
		records, err = db.ListAssessmentsForModel(modelKey(historyModel))
		if err == nil && historyLimit > 0 && len(records) > historyLimit {
			records = records[:historyLimit]
		}
	} else {
		records, err = db.ListAssessments(historyLimit)
	}
	if err != nil {
		exitWithError(ExitError, "listing assessments: %v", err)
	}
	total, err := db.CountAssessments()
	if err != nil {
		exitWithError(ExitError, "counting assessments: %v", err)
	}
	if records == nil {
		records = []assessment.Record{}
	}

	if humanOutput {
		if len(records) == 0 {
			fmt.Println("No assessments recorded")
			return nil
		}
		for _, r := range records {
			fmt.Printf("%s  %s  %6.2f  %-6s  %s\n", r.CreatedAt, shortID(r.ID), r.Rating, formatLevel(r.Level), r.Model)
		}
		fmt.Printf("\nShowing %d of %d assessments\n", len(records), total)
		return nil
	}
	return outputJSON(HistoryResult{Assessments: records, Total: total})
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one recorded assessment",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	id := args[0]
	if err := assessment.ValidateID(id); err != nil {
		exitWithError(ExitDataError, "%v", err)
	}

	root := mustFindWorkspace()
	db := mustOpenHistory(root)
	defer db.Close()

	r, err := db.GetAssessment(id)
	if err != nil {
		exitWithError(exitCodeFor(err), "%v", err)
	}

	if humanOutput {
		fmt.Printf("Assessment %s\n", r.ID)
		fmt.Printf("  Model:   %s\n", r.Model)
		if r.Output != "" {
			fmt.Printf("  Output:  %s\n", r.Output)
		}
		fmt.Printf("  Created: %s\n", r.CreatedAt)
		fmt.Printf("  Mode:    %s\n", r.Mode)
		fmt.Printf("  Rating:  %.2f (%s)\n", r.Rating, formatLevel(r.Level))
		fmt.Printf("  Nodes:   %d (%d leaves)\n", r.Nodes, r.Leaves)
		return nil
	}
	return outputJSON(r)
}

var historyRmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Delete a recorded assessment",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryRm,
}

func runHistoryRm(cmd *cobra.Command, args []string) error {
	id := args[0]
	if err := assessment.ValidateID(id); err != nil {
		exitWithError(ExitDataError, "%v", err)
	}

	root := mustFindWorkspace()
	path := config.AssessmentsPath(root)
	records, err := storage.ReadAllAssessments(path)
	if err != nil {
		exitWithError(ExitDataError, "reading assessments: %v", err)
	}

	idx, found := storage.FindAssessmentByID(records, id)
	if !found {
		exitWithError(ExitNotFound, "%v: %s", assessment.ErrAssessmentNotFound, id)
	}
	records = append(records[:idx], records[idx+1:]...)

	if err := storage.WriteAllAssessments(path, records); err != nil {
		exitWithError(ExitError, "writing assessments: %v", err)
	}

	db := mustOpenDatabase(root)
	defer db.Close()
	if _, err := db.RebuildAssessmentsFromJSONL(path); err != nil {
		slog.Warn("rebuilding query cache; run 'atree rebuild'", "error", err)
	}

	if humanOutput {
		fmt.Printf("Deleted assessment %s\n", id)
		return nil
	}
	return outputJSON(StatusResponse{Status: "deleted"})
}

// mustOpenHistory opens the query cache, filling it from the history file
// when it is empty.
func mustOpenHistory(root string) *storage.DB {
	db := mustOpenDatabase(root)
	count, err := db.CountAssessments()
	if err != nil {
		exitWithError(ExitError, "counting assessments: %v", err)
	}
	if count == 0 {
		n, err := db.RebuildAssessmentsFromJSONL(config.AssessmentsPath(root))
		if err != nil {
			exitWithError(ExitDataError, "rebuilding query cache: %v", err)
		}
		slog.Debug("query cache filled from history", "assessments", n)
	}
	return db
}

// shortID returns the first block of a UUID.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
