// Package main provides the atree CLI entry point.
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/matsen/attacktree/internal/canon"
	"github.com/matsen/attacktree/internal/config"
	"github.com/matsen/attacktree/internal/storage"
	"github.com/matsen/attacktree/internal/tree"
	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags
var Version = "dev"

var (
	// humanOutput controls whether to use human-readable output
	humanOutput bool
	verbose     bool
	// workspaceFlag overrides workspace discovery
	workspaceFlag string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		// SilenceErrors is set, so cobra errors (bad flags, missing args)
		// are printed here.
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "atree",
	Short: "Attack-tree modeling and threat scoring",
	Long: `atree loads attack trees from JSON, YAML or XML, lets you extend them,
records leaf likelihoods and scores the result into a risk level.

Equal labels anywhere in a model are one node, so a technique shared by
several branches is valued once.

Assessments are appended to .atree/assessments.jsonl, with an ephemeral
SQLite cache for queries. All commands output JSON by default.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug details to stderr")
	rootCmd.PersistentFlags().StringVar(&workspaceFlag, "workspace", "", "Workspace directory (default: discovered)")
	rootCmd.Version = Version
}

// setup configures logging and loads a .env file if one exists.
func setup(cmd *cobra.Command, args []string) error {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("loading .env", "error", err)
	}
	return nil
}

// findWorkspace returns the workspace root, or "" when there is none.
func findWorkspace() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}
	root, err := config.ResolveWorkspace(workspaceFlag, cwd)
	if err != nil {
		if workspaceFlag != "" {
			exitWithError(ExitConfigError, "%v", err)
		}
		slog.Debug("no workspace", "error", err)
		return ""
	}
	return root
}

// mustFindWorkspace finds the workspace, exits on error.
func mustFindWorkspace() string {
	root := findWorkspace()
	if root == "" {
		fmt.Fprintln(os.Stderr, config.HelpfulConfigMessage())
		os.Exit(ExitConfigError)
	}
	return root
}

// mustLoadConfig loads the workspace configuration, or the defaults when
// root is empty. Exits on error.
func mustLoadConfig(root string) *config.Config {
	if root == "" {
		return config.Default()
	}
	cfg, err := config.Load(root)
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}
	return cfg
}

// mustOpenDatabase opens the SQLite cache, exits on error.
// The caller is responsible for calling Close() on the returned DB.
func mustOpenDatabase(root string) *storage.DB {
	if err := os.MkdirAll(config.CachePath(root), 0755); err != nil {
		exitWithError(ExitError, "creating cache directory: %v", err)
	}
	db, err := storage.OpenDB(config.DBPath(root))
	if err != nil {
		exitWithError(ExitError, "opening database: %v", err)
	}
	return db
}

// loadedModel is a model file decoded and built into a tree.
type loadedModel struct {
	Path   string
	Format canon.Format
	Tree   *tree.Tree
	Report tree.BuildReport
}

// mustLoadModel reads path and builds its tree, exits on error.
func mustLoadModel(path string, cfg *config.Config) *loadedModel {
	m, format, err := canon.ReadFile(path)
	if err != nil {
		exitWithError(exitCodeFor(err), "reading model: %v", err)
	}
	t, report := tree.Build(m, cfg.TreeOptions())
	slog.Debug("model loaded", "path", path, "format", format, "nodes", t.Len(),
		"merged", len(report.MergedLabels), "non_numeric", len(report.NonNumeric))
	for _, label := range report.NonNumeric {
		slog.Warn("non-numeric leaf recorded as 0", "label", label)
	}
	return &loadedModel{Path: path, Format: format, Tree: t, Report: report}
}

// mustSaveModel serializes t to path. The format comes from format, or the
// path extension when format is empty.
func mustSaveModel(t *tree.Tree, path string, format canon.Format) canon.Format {
	if format == "" {
		f, err := canon.FormatFromPath(path)
		if err != nil {
			exitWithError(ExitUnsupportedFormat, "%v", err)
		}
		format = f
	}
	if err := canon.WriteFile(path, t.SerializeAll(), format); err != nil {
		exitWithError(exitCodeFor(err), "saving model: %v", err)
	}
	slog.Debug("model saved", "path", path, "format", format)
	return format
}

// cacheSnapshot stores t in the workspace query cache under the model's
// absolute path. Failures are logged, never fatal.
func cacheSnapshot(root, model string, t *tree.Tree) {
	if root == "" {
		return
	}
	if err := os.MkdirAll(config.CachePath(root), 0755); err != nil {
		slog.Warn("creating cache directory", "error", err)
		return
	}
	db, err := storage.OpenDB(config.DBPath(root))
	if err != nil {
		slog.Warn("opening query cache", "error", err)
		return
	}
	defer db.Close()
	if err := db.ReplaceSnapshot(modelKey(model), t.Snapshot()); err != nil {
		slog.Warn("caching snapshot", "model", model, "error", err)
	}
}

// modelKey identifies a model file in history and the query cache.
func modelKey(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}
