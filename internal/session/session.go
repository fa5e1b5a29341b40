// Package session runs the line-oriented prompts of an interactive
// assessment: choosing a model, adding risks and eliciting likelihoods.
package session

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/matsen/attacktree/internal/edge"
	"github.com/matsen/attacktree/internal/tree"
	"github.com/mattn/go-isatty"
)

// ExitWord ends the add-risk loop (case-insensitive).
const ExitWord = "exit"

// Model choices.
const (
	ChoiceDefault = "default"
	ChoiceCustom  = "custom"
)

// Session reads answers from in and writes prompts to out.
type Session struct {
	Tree *tree.Tree

	in  *bufio.Reader
	out io.Writer
}

// New returns a session over t. t may be nil until a model is chosen.
func New(t *tree.Tree, in io.Reader, out io.Writer) *Session {
	return &Session{Tree: t, in: bufio.NewReader(in), out: out}
}

// IsTerminal reports whether f is an interactive terminal.
func IsTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// ChooseModel asks whether to use defaultModel or a custom file and returns
// the chosen path. Anything other than "custom" selects the default. It does
// not need s.Tree.
func (s *Session) ChooseModel(defaultModel string) (string, error) {
	choice, err := s.readLine(fmt.Sprintf("Use the default '%s' model or provide a custom file? (%s/%s): ",
		defaultModel, ChoiceDefault, ChoiceCustom))
	if errors.Is(err, io.EOF) {
		return defaultModel, nil
	}
	if err != nil {
		return "", err
	}
	if !strings.EqualFold(choice, ChoiceCustom) {
		return defaultModel, nil
	}

	for {
		path, err := s.readLine("Enter the path to your custom file: ")
		if err != nil {
			return "", err
		}
		if path != "" {
			return path, nil
		}
	}
}

// AddRisks prompts for parent/child pairs until the exit word or end of
// input and returns the edges that were added. An unknown parent is reported
// and asked for again.
func (s *Session) AddRisks() ([]edge.Edge, error) {
	var added []edge.Edge
	for {
		parent, err := s.readLine(fmt.Sprintf("Enter the risk type to which you want to add a new risk (or '%s' to quit): ", ExitWord))
		if errors.Is(err, io.EOF) {
			return added, nil
		}
		if err != nil {
			return added, err
		}
		if strings.EqualFold(parent, ExitWord) {
			return added, nil
		}
		if !s.Tree.HasNode(parent) {
			fmt.Fprintf(s.out, "Risk type '%s' does not exist.\n", parent)
			continue
		}

		child, err := s.readLine(fmt.Sprintf("Enter the new risk to add under risk type '%s': ", parent))
		if errors.Is(err, io.EOF) {
			return added, nil
		}
		if err != nil {
			return added, err
		}

		if err := s.Tree.AddNode(parent, child); err != nil {
			fmt.Fprintf(s.out, "Could not add risk: %v\n", err)
			continue
		}
		label := s.Tree.LabelFor(parent, child)
		added = append(added, edge.Edge{Parent: parent, Child: label})
		fmt.Fprintf(s.out, "Added risk: %s under risk type: %s\n", child, parent)
	}
}

// ElicitValues asks for a likelihood for every current leaf, re-prompting
// until the answer is a number with a '%' suffix. It returns the number of
// values recorded; end of input stops early without error.
func (s *Session) ElicitValues() (int, error) {
	fmt.Fprintln(s.out, "Enter values for the leaf nodes probability:")
	recorded := 0
	for _, leaf := range s.Tree.Leaves() {
		fmt.Fprintf(s.out, "Risk found: %s\n", leaf)
		for {
			answer, err := s.readLine(fmt.Sprintf("Value for %s (suffix '%%' for probability): ", leaf))
			if errors.Is(err, io.EOF) {
				return recorded, nil
			}
			if err != nil {
				return recorded, err
			}

			v, err := tree.ParsePercent(answer)
			if err != nil {
				if !strings.HasSuffix(answer, "%") {
					fmt.Fprintln(s.out, "Invalid format. Please suffix with '%' for probability.")
				} else {
					fmt.Fprintln(s.out, "Invalid value. Please enter a valid number.")
				}
				continue
			}

			if err := s.Tree.SetLeafValue(leaf, v); err != nil {
				return recorded, err
			}
			recorded++
			break
		}
	}
	return recorded, nil
}

// readLine writes prompt and returns the next trimmed line. io.EOF is
// returned only once input is exhausted; a final line without a newline is
// still returned as a line.
func (s *Session) readLine(prompt string) (string, error) {
	fmt.Fprint(s.out, prompt)
	line, err := s.in.ReadString('\n')
	if errors.Is(err, io.EOF) && line != "" {
		err = nil
	}
	if errors.Is(err, io.EOF) {
		fmt.Fprintln(s.out)
	}
	return strings.TrimSpace(line), err
}
