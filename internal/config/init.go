package config

import (
	"fmt"
	"os"
)

// Init creates the .atree directory, its cache directory and a default
// config.yml under root. An existing workspace is left untouched and
// reported as already initialized.
func Init(root string) (created bool, err error) {
	if IsWorkspace(root) {
		return false, nil
	}

	if err := os.MkdirAll(CachePath(root), 0755); err != nil {
		return false, fmt.Errorf("creating workspace: %w", err)
	}
	if err := Default().Save(root); err != nil {
		return false, err
	}
	return true, nil
}
