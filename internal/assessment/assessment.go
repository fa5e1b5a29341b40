// Package assessment defines the record kept for every completed scoring run.
package assessment

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/matsen/attacktree/internal/score"
)

// Record is one line of .atree/assessments.jsonl.
type Record struct {
	ID        string      `json:"id"`               // Required, UUID, auto-set by New
	Model     string      `json:"model"`            // Required, path of the model that was scored
	Source    string      `json:"source,omitempty"` // Format the model was read as
	Output    string      `json:"output,omitempty"` // Where the updated model was saved, if anywhere
	Mode      score.Mode  `json:"mode"`
	Total     float64     `json:"total"`
	Rating    float64     `json:"rating"`
	Level     score.Level `json:"level"`
	Nodes     int         `json:"nodes"`
	Leaves    int         `json:"leaves"`
	CreatedAt string      `json:"created_at,omitempty"` // RFC3339, auto-set on create
}

// Validation errors.
var (
	ErrEmptyID            = errors.New("id is required")
	ErrInvalidID          = errors.New("id must be a UUID")
	ErrEmptyModel         = errors.New("model is required")
	ErrInvalidLevel       = errors.New("level must be Low, Medium or High")
	ErrAssessmentNotFound = errors.New("assessment not found")
)

// New builds a record for a scored model with a fresh ID.
func New(model string, res score.Result, nodes, leaves int) Record {
	return Record{
		ID:     uuid.NewString(),
		Model:  model,
		Mode:   res.Mode,
		Total:  res.Total,
		Rating: res.Rating,
		Level:  res.Level,
		Nodes:  nodes,
		Leaves: leaves,
	}
}

// ValidateForCreate validates a record before it is appended.
func (r *Record) ValidateForCreate() error {
	if err := ValidateID(r.ID); err != nil {
		return err
	}
	if r.Model == "" {
		return ErrEmptyModel
	}
	switch r.Level {
	case score.LevelLow, score.LevelMedium, score.LevelHigh:
	default:
		return ErrInvalidLevel
	}
	return nil
}

// SetCreatedAt stamps the record with now in RFC3339 if it has no timestamp.
func (r *Record) SetCreatedAt(now time.Time) {
	if r.CreatedAt == "" {
		r.CreatedAt = now.UTC().Format(time.RFC3339)
	}
}

// ValidateID validates just the ID field (useful for lookup operations).
func ValidateID(id string) error {
	if id == "" {
		return ErrEmptyID
	}
	if _, err := uuid.Parse(id); err != nil {
		return ErrInvalidID
	}
	return nil
}
