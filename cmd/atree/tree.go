package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/matsen/attacktree/internal/viz"
	"github.com/spf13/cobra"
)

var (
	treeOutput string
	treeOpen   bool
)

func init() {
	rootCmd.AddCommand(treeCmd)

	treeCmd.Flags().StringVarP(&treeOutput, "output", "o", "", "Output file path (default: stdout)")
	treeCmd.Flags().BoolVar(&treeOpen, "open", false, "Open in browser after generating")
}

var treeCmd = &cobra.Command{
	Use:   "tree <file>",
	Short: "Generate a collapsible HTML outline of an attack tree",
	Long: `Generate a collapsible HTML outline of an attack tree.

Leaves show their likelihood and scoring category. Labels shared by several
branches are highlighted; press 'c' to collapse and 'e' to expand all.`,
	Args: cobra.ExactArgs(1),
	Run:  runTree,
}

func runTree(cmd *cobra.Command, args []string) {
	cfg := mustLoadConfig(findWorkspace())
	lm := mustLoadModel(args[0], cfg)
	res := mustScore(lm, cfg, "")

	html := viz.GenerateOutline(lm.Tree.Snapshot(), &res, filepath.Base(lm.Path))

	if treeOutput != "" {
		if err := os.WriteFile(treeOutput, []byte(html), 0644); err != nil {
			exitWithError(ExitError, "writing file: %v", err)
		}
		fmt.Printf("Written to %s\n", treeOutput)

		if treeOpen {
			absPath, _ := filepath.Abs(treeOutput)
			openBrowser("file://" + absPath)
		}
	} else if treeOpen {
		// Write to temp file and open
		tmpFile, err := os.CreateTemp("", "atree-tree-*.html")
		if err != nil {
			exitWithError(ExitError, "creating temp file: %v", err)
		}

		if _, err := tmpFile.WriteString(html); err != nil {
			tmpFile.Close()
			os.Remove(tmpFile.Name())
			exitWithError(ExitError, "writing temp file: %v", err)
		}
		tmpFile.Close()

		fmt.Printf("Opened %s\n", tmpFile.Name())
		openBrowser("file://" + tmpFile.Name())
	} else {
		fmt.Println(html)
	}
}

// openBrowser opens a URL in the default browser.
func openBrowser(url string) {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		slog.Warn("don't know how to open a browser", "os", runtime.GOOS)
		return
	}

	if err := cmd.Start(); err != nil {
		slog.Warn("opening browser", "error", err)
	}
}
