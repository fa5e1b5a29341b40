package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/matsen/attacktree/internal/assessment"
	"github.com/matsen/attacktree/internal/canon"
	"github.com/matsen/attacktree/internal/config"
	"github.com/matsen/attacktree/internal/edge"
	"github.com/matsen/attacktree/internal/score"
	"github.com/matsen/attacktree/internal/session"
	"github.com/matsen/attacktree/internal/tree"
)

// DefaultHistoryLimit is the default number of records shown by history.
const DefaultHistoryLimit = 20

// outputJSON writes a value as formatted JSON to stdout.
func outputJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// exitWithError outputs an error in the appropriate format (human or JSON) and exits.
func exitWithError(code int, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if humanOutput {
		fmt.Fprintf(os.Stderr, "error: %s\n", msg)
	} else {
		outputJSON(ErrorResponse{Error: msg})
	}
	os.Exit(code)
}

// exitCodeFor maps a domain error to its exit code.
func exitCodeFor(err error) int {
	switch {
	case errors.Is(err, tree.ErrNotFound), errors.Is(err, assessment.ErrAssessmentNotFound):
		return ExitNotFound
	case errors.Is(err, canon.ErrUnsupportedFormat):
		return ExitUnsupportedFormat
	case errors.Is(err, canon.ErrMalformedSource), errors.Is(err, canon.ErrInvalidXMLName),
		errors.Is(err, tree.ErrEmptyLabel), errors.Is(err, tree.ErrInvalidLeafValue),
		errors.Is(err, edge.ErrSelfEdge), errors.Is(err, score.ErrUnknownMode):
		return ExitDataError
	case errors.Is(err, config.ErrInvalidConfig), errors.Is(err, config.ErrNoWorkspace):
		return ExitConfigError
	default:
		return ExitError
	}
}

// ErrorResponse is the JSON shape of a fatal error.
type ErrorResponse struct {
	Error string `json:"error"`
}

// StatusResponse is a generic response for commands that return status.
type StatusResponse struct {
	Status string `json:"status"`
	Path   string `json:"path,omitempty"`
}

// formatLevel renders a risk level, colored when stdout is a terminal.
func formatLevel(level score.Level) string {
	if !session.IsTerminal(os.Stdout) {
		return string(level)
	}
	return levelStyle(level).Render(string(level))
}

func levelStyle(level score.Level) lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(level.HexColor()))
}

// formatPercent formats a likelihood such as 0.35 as "35%".
func formatPercent(v float64) string {
	return strconv.FormatFloat(math.Round(v*1e6)/1e4, 'f', -1, 64) + "%"
}
