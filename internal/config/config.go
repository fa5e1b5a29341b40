// Package config handles workspace and global configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/matsen/attacktree/internal/canon"
	"github.com/matsen/attacktree/internal/score"
	"github.com/matsen/attacktree/internal/tree"
	"gopkg.in/yaml.v3"
)

// Config represents workspace configuration stored in .atree/config.yml.
type Config struct {
	DefaultModel string        `yaml:"default_model" validate:"required"`           // Model loaded by assess when no file is given
	Output       string        `yaml:"output" validate:"required"`                  // Where assess saves the updated model
	OutputFormat string        `yaml:"output_format,omitempty" validate:"omitempty,oneof=json yaml yml xml"`
	Mode         string        `yaml:"mode,omitempty" validate:"omitempty,oneof=weighted-sum complementary"`
	StrictTree   bool          `yaml:"strict_tree,omitempty"`
	Weights      score.Weights `yaml:"weights,omitempty" validate:"omitempty,dive"`
}

const (
	WorkspaceDir    = ".atree"
	ConfigFile      = "config.yml"
	AssessmentsFile = "assessments.jsonl"
	CacheDir        = "cache"
	DBFile          = "atree.db"

	DefaultModel  = "pre-digitalisation.json"
	DefaultOutput = "post-digitalisation.json"
)

// ErrInvalidConfig is returned when a config file fails validation.
var ErrInvalidConfig = errors.New("invalid config")

// ErrNoWorkspace is returned when no .atree directory can be located.
var ErrNoWorkspace = errors.New("not in an atree workspace (no .atree directory found)")

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	return &Config{
		DefaultModel: DefaultModel,
		Output:       DefaultOutput,
		Mode:         string(score.ModeWeightedSum),
		Weights:      score.DefaultWeights(),
	}
}

// WorkspacePath returns the path to the .atree directory from a root path.
func WorkspacePath(root string) string {
	return filepath.Join(root, WorkspaceDir)
}

// ConfigPath returns the path to config.yml from a root path.
func ConfigPath(root string) string {
	return filepath.Join(root, WorkspaceDir, ConfigFile)
}

// AssessmentsPath returns the path to assessments.jsonl from a root path.
func AssessmentsPath(root string) string {
	return filepath.Join(root, WorkspaceDir, AssessmentsFile)
}

// CachePath returns the path to the cache directory from a root path.
func CachePath(root string) string {
	return filepath.Join(root, WorkspaceDir, CacheDir)
}

// DBPath returns the path to atree.db from a root path.
func DBPath(root string) string {
	return filepath.Join(root, WorkspaceDir, CacheDir, DBFile)
}

// IsWorkspace checks if the given path contains an atree workspace.
func IsWorkspace(root string) bool {
	info, err := os.Stat(WorkspacePath(root))
	return err == nil && info.IsDir()
}

// FindWorkspace walks up from the given path to find an atree workspace.
// Returns the workspace root path or ErrNoWorkspace.
func FindWorkspace(start string) (string, error) {
	abs, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	for {
		if IsWorkspace(abs) {
			return abs, nil
		}

		parent := filepath.Dir(abs)
		if parent == abs {
			return "", ErrNoWorkspace
		}
		abs = parent
	}
}

// Load reads configuration from the workspace at the given root.
// A missing config file yields Default().
func Load(root string) (*Config, error) {
	data, err := os.ReadFile(ConfigPath(root))
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := Default()
	cfg.Weights = nil
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %v", ErrInvalidConfig, ConfigPath(root), err)
	}
	if len(cfg.Weights) == 0 {
		cfg.Weights = score.DefaultWeights()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes configuration to the workspace at the given root.
func (c *Config) Save(root string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(ConfigPath(root), data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// Validate checks struct constraints and that format and mode names parse.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return formatValidationError(err)
	}
	if _, err := c.ScoreMode(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if _, err := c.Format(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// ScoreMode returns the configured aggregation mode.
func (c *Config) ScoreMode() (score.Mode, error) {
	return score.ParseMode(c.Mode)
}

// TreeOptions returns the tree builder options.
func (c *Config) TreeOptions() tree.Options {
	return tree.Options{Strict: c.StrictTree}
}

// Format returns the output format, inferred from Output when unset.
func (c *Config) Format() (canon.Format, error) {
	if c.OutputFormat != "" {
		return canon.ParseFormat(c.OutputFormat)
	}
	return canon.FormatFromPath(c.Output)
}

// ModelPath returns DefaultModel resolved against the workspace root.
func (c *Config) ModelPath(root string) string {
	return resolve(root, c.DefaultModel)
}

// OutputPath returns Output resolved against the workspace root.
func (c *Config) OutputPath(root string) string {
	return resolve(root, c.Output)
}

func resolve(root, path string) string {
	path = ExpandTilde(path)
	if filepath.IsAbs(path) || root == "" {
		return path
	}
	return filepath.Join(root, path)
}

func formatValidationError(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	// Report the first failure only.
	for _, e := range validationErrs {
		field := e.Namespace()
		switch e.Tag() {
		case "required":
			return fmt.Errorf("%w: %s is required", ErrInvalidConfig, field)
		case "oneof":
			return fmt.Errorf("%w: %s must be one of [%s]", ErrInvalidConfig, field, e.Param())
		case "gte":
			return fmt.Errorf("%w: %s must be at least %s", ErrInvalidConfig, field, e.Param())
		default:
			return fmt.Errorf("%w: %s failed %s", ErrInvalidConfig, field, e.Tag())
		}
	}
	return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
}
