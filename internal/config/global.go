package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// GlobalConfig represents configuration stored in ~/.config/atree/config.yml.
type GlobalConfig struct {
	WorkspacePath string `yaml:"workspace_path,omitempty"`
}

const (
	// GlobalConfigDir is the directory name under XDG_CONFIG_HOME.
	GlobalConfigDir = "atree"
	// GlobalConfigFile is the config file name.
	GlobalConfigFile = "config.yml"
	// WorkspaceEnv overrides every other way of locating the workspace.
	WorkspaceEnv = "ATREE_WORKSPACE"
)

// globalConfigCache caches the loaded global config.
var globalConfigCache *GlobalConfig

// GlobalConfigPath returns the path to the global config file.
// Respects XDG_CONFIG_HOME, defaults to ~/.config/atree/config.yml.
func GlobalConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, GlobalConfigDir, GlobalConfigFile)
}

// LoadGlobalConfig loads the global configuration file.
// Returns an empty config (not an error) if the file doesn't exist.
func LoadGlobalConfig() (*GlobalConfig, error) {
	if globalConfigCache != nil {
		return globalConfigCache, nil
	}

	path := GlobalConfigPath()
	if path == "" {
		return &GlobalConfig{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &GlobalConfig{}, nil
		}
		return nil, fmt.Errorf("reading global config: %w", err)
	}

	var cfg GlobalConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: parsing global config: %v", ErrInvalidConfig, err)
	}

	if cfg.WorkspacePath != "" {
		cfg.WorkspacePath = ExpandTilde(cfg.WorkspacePath)
	}

	globalConfigCache = &cfg
	return &cfg, nil
}

// ResetGlobalConfigCache clears the cached global config.
// Useful for testing.
func ResetGlobalConfigCache() {
	globalConfigCache = nil
}

// ResolveWorkspace locates the workspace root. In order: the explicit path,
// $ATREE_WORKSPACE, a walk up from start, and workspace_path from the global
// config. The explicit and environment paths must already be workspaces.
func ResolveWorkspace(explicit, start string) (string, error) {
	for _, candidate := range []string{explicit, os.Getenv(WorkspaceEnv)} {
		if candidate == "" {
			continue
		}
		candidate = ExpandTilde(candidate)
		if !IsWorkspace(candidate) {
			return "", fmt.Errorf("%w: %s", ErrNoWorkspace, candidate)
		}
		return filepath.Abs(candidate)
	}

	if root, err := FindWorkspace(start); err == nil {
		return root, nil
	}

	global, err := LoadGlobalConfig()
	if err != nil {
		return "", err
	}
	if global.WorkspacePath != "" && IsWorkspace(global.WorkspacePath) {
		return global.WorkspacePath, nil
	}
	return "", ErrNoWorkspace
}

// HelpfulConfigMessage returns a hint shown when no workspace is found.
func HelpfulConfigMessage() string {
	configPath := GlobalConfigPath()
	return fmt.Sprintf(`No atree workspace found.

Run 'atree init' in your project directory, or point %s at one:
  mkdir -p %s
  echo 'workspace_path: /path/to/project' > %s`,
		configPath,
		filepath.Dir(configPath),
		configPath)
}

// ExpandTilde expands a leading ~ to the user's home directory.
// Returns the original path unchanged if it doesn't start with ~.
func ExpandTilde(path string) string {
	if len(path) == 0 || path[0] != '~' {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}

	return filepath.Join(home, path[1:])
}
