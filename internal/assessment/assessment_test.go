package assessment

import (
	"errors"
	"testing"
	"time"

	"github.com/matsen/attacktree/internal/score"
)

const validID = "7c9e6679-7425-40de-944b-e07fc1f90ae7"

func TestRecord_ValidateForCreate(t *testing.T) {
	tests := []struct {
		name    string
		record  Record
		wantErr error
	}{
		{
			name:    "valid record",
			record:  Record{ID: validID, Model: "pre-digitalisation.json", Level: score.LevelLow},
			wantErr: nil,
		},
		{
			name:    "empty id",
			record:  Record{Model: "m.json", Level: score.LevelLow},
			wantErr: ErrEmptyID,
		},
		{
			name:    "id not a uuid",
			record:  Record{ID: "run-1", Model: "m.json", Level: score.LevelLow},
			wantErr: ErrInvalidID,
		},
		{
			name:    "empty model",
			record:  Record{ID: validID, Level: score.LevelHigh},
			wantErr: ErrEmptyModel,
		},
		{
			name:    "unknown level",
			record:  Record{ID: validID, Model: "m.json", Level: "Severe"},
			wantErr: ErrInvalidLevel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.record.ValidateForCreate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateForCreate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestNew(t *testing.T) {
	res := score.Result{Mode: score.ModeWeightedSum, Total: 1.2, Rating: 120, Level: score.LevelHigh}
	r := New("model.yaml", res, 7, 4)

	if err := r.ValidateForCreate(); err != nil {
		t.Fatalf("New() produced invalid record: %v", err)
	}
	if r.Total != 1.2 || r.Rating != 120 || r.Level != score.LevelHigh {
		t.Errorf("New() = %+v, want result fields copied", r)
	}
	if r.Nodes != 7 || r.Leaves != 4 {
		t.Errorf("New() nodes/leaves = %d/%d, want 7/4", r.Nodes, r.Leaves)
	}

	other := New("model.yaml", res, 7, 4)
	if other.ID == r.ID {
		t.Error("New() returned the same ID twice")
	}
}

func TestSetCreatedAt(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 30, 0, 0, time.FixedZone("X", 3600))

	var r Record
	r.SetCreatedAt(now)
	if r.CreatedAt != "2024-03-01T11:30:00Z" {
		t.Errorf("CreatedAt = %q, want 2024-03-01T11:30:00Z", r.CreatedAt)
	}

	r.SetCreatedAt(now.Add(time.Hour))
	if r.CreatedAt != "2024-03-01T11:30:00Z" {
		t.Errorf("SetCreatedAt() overwrote existing timestamp: %q", r.CreatedAt)
	}
}
