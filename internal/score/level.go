package score

// Level is a coarse risk classification of a total score.
type Level string

// Risk levels.
const (
	LevelLow    Level = "Low"
	LevelMedium Level = "Medium"
	LevelHigh   Level = "High"
)

// Classify maps a total to a level: above 1 is High, above 0.5 is Medium,
// anything else Low.
func Classify(total float64) Level {
	switch {
	case total > 1:
		return LevelHigh
	case total > 0.5:
		return LevelMedium
	default:
		return LevelLow
	}
}

// Color returns the display color for the level.
func (l Level) Color() string {
	switch l {
	case LevelHigh:
		return "red"
	case LevelMedium:
		return "blue"
	default:
		return "green"
	}
}

// HexColor returns the level color as a CSS hex value.
func (l Level) HexColor() string {
	switch l {
	case LevelHigh:
		return "#D9534F"
	case LevelMedium:
		return "#337AB7"
	default:
		return "#5CB85C"
	}
}
