// Package storage handles data persistence in JSONL and SQLite formats.
package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"

	"github.com/matsen/attacktree/internal/assessment"
)

// MaxJSONLLineCapacity is the maximum buffer size for reading JSONL lines (1MB per line).
const MaxJSONLLineCapacity = 1024 * 1024

// ReadAllAssessments reads all assessment records from a JSONL file.
func ReadAllAssessments(path string) ([]assessment.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil // Missing file means no history yet
		}
		return nil, fmt.Errorf("opening assessments file: %w", err)
	}
	defer f.Close()

	var records []assessment.Record
	scanner := bufio.NewScanner(f)

	buf := make([]byte, MaxJSONLLineCapacity)
	scanner.Buffer(buf, MaxJSONLLineCapacity)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var r assessment.Record
		if err := json.Unmarshal(line, &r); err != nil {
			return nil, fmt.Errorf("parsing line %d: %w", lineNum, err)
		}
		records = append(records, r)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading assessments file: %w", err)
	}

	return records, nil
}

// AppendAssessment adds a record to the end of a JSONL file.
func AppendAssessment(path string, r assessment.Record) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("opening assessments file for append: %w", err)
	}
	defer f.Close()

	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encoding assessment: %w", err)
	}

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("writing assessment: %w", err)
	}
	if _, err := f.WriteString("\n"); err != nil {
		return fmt.Errorf("writing newline: %w", err)
	}

	return nil
}

// WriteAllAssessments writes all records to a JSONL file, replacing existing content.
func WriteAllAssessments(path string, records []assessment.Record) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating assessments file: %w", err)
	}
	defer f.Close()

	for i, r := range records {
		data, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("encoding assessment %d: %w", i, err)
		}

		if _, err := f.Write(data); err != nil {
			return fmt.Errorf("writing assessment %d: %w", i, err)
		}
		if _, err := f.WriteString("\n"); err != nil {
			return fmt.Errorf("writing newline: %w", err)
		}
	}

	return nil
}

// FindAssessmentByID searches for a record by ID.
func FindAssessmentByID(records []assessment.Record, id string) (int, bool) {
	for i, r := range records {
		if r.ID == id {
			return i, true
		}
	}
	return -1, false
}
