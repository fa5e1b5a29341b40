package main

import (
	"fmt"
	"os"

	"github.com/matsen/attacktree/internal/config"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(initCmd)
}

var initCmd = &cobra.Command{
	Use:   "init [dir]",
	Short: "Initialize an atree workspace",
	Long: `Create a .atree directory with a default config.yml.

The workspace holds assessment history and the query cache. Commands that
take a model file work without one, using built-in defaults.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	root := "."
	if len(args) == 1 {
		root = args[0]
	} else if cwd, err := os.Getwd(); err == nil {
		root = cwd
	}

	created, err := config.Init(root)
	if err != nil {
		exitWithError(ExitError, "initializing workspace: %v", err)
	}

	status := "created"
	if !created {
		status = "exists"
	}
	if humanOutput {
		if created {
			fmt.Printf("Initialized atree workspace in %s\n", config.WorkspacePath(root))
		} else {
			fmt.Printf("Workspace already exists in %s\n", config.WorkspacePath(root))
		}
		return nil
	}
	return outputJSON(StatusResponse{Status: status, Path: config.WorkspacePath(root)})
}
