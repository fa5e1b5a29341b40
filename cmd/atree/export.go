package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/matsen/attacktree/internal/canon"
	"github.com/spf13/cobra"
)

var (
	exportFormat string
	exportOutput string
	exportRoot   string
)

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "", "Output format: json, yaml or xml (default: from --output, else json)")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file path (default: stdout)")
	exportCmd.Flags().StringVar(&exportRoot, "root", "", "Export only the subtree under this node")
	rootCmd.AddCommand(exportCmd)
}

var exportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Serialize a model to JSON, YAML or XML",
	Long: `Rebuild the nested mapping of a model and write it in the chosen format.

Each node with children becomes a mapping of its children; each leaf is
written with its recorded value, or 0 when none is recorded.

Examples:
  # Convert a YAML model to JSON on stdout
  atree export model.yaml --format json

  # Export one branch to XML
  atree export model.json --root "Physical Attack" -o physical.xml`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig(findWorkspace())
	lm := mustLoadModel(args[0], cfg)

	format := mustExportFormat()

	m := lm.Tree.SerializeAll()
	if exportRoot != "" {
		sub, err := lm.Tree.Serialize(exportRoot)
		if err != nil {
			exitWithError(exitCodeFor(err), "exporting subtree: %v", err)
		}
		m = sub
	}

	if exportOutput != "" {
		if err := canon.WriteFile(exportOutput, m, format); err != nil {
			exitWithError(exitCodeFor(err), "writing output file: %v", err)
		}
		if humanOutput {
			fmt.Printf("Exported %s to %s\n", lm.Path, exportOutput)
			return nil
		}
		return outputJSON(StatusResponse{Status: "exported", Path: exportOutput})
	}

	var buf bytes.Buffer
	if err := canon.Encode(&buf, m, format); err != nil {
		exitWithError(exitCodeFor(err), "encoding %s: %v", format, err)
	}
	_, err := os.Stdout.Write(buf.Bytes())
	return err
}

// mustExportFormat resolves --format, falling back to the --output extension
// and then JSON.
func mustExportFormat() canon.Format {
	if exportFormat != "" {
		f, err := canon.ParseFormat(exportFormat)
		if err != nil {
			exitWithError(ExitUnsupportedFormat, "%v", err)
		}
		return f
	}
	if exportOutput != "" {
		f, err := canon.FormatFromPath(exportOutput)
		if err != nil {
			exitWithError(ExitUnsupportedFormat, "%v", err)
		}
		return f
	}
	return canon.FormatJSON
}
