package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestGlobalConfigPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")
	path := GlobalConfigPath()
	want := "/custom/config/atree/config.yml"
	if path != want {
		t.Errorf("GlobalConfigPath() = %q, want %q", path, want)
	}

	// Empty XDG_CONFIG_HOME falls back to ~/.config
	t.Setenv("XDG_CONFIG_HOME", "")
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("Cannot get home directory")
	}
	path = GlobalConfigPath()
	want = filepath.Join(home, ".config", "atree", "config.yml")
	if path != want {
		t.Errorf("GlobalConfigPath() = %q, want %q", path, want)
	}
}

func TestLoadGlobalConfig_NotFound(t *testing.T) {
	ResetGlobalConfigCache()
	defer ResetGlobalConfigCache()

	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := LoadGlobalConfig()
	if err != nil {
		t.Fatalf("LoadGlobalConfig() error = %v", err)
	}
	if cfg == nil {
		t.Fatal("LoadGlobalConfig() returned nil")
	}
	if cfg.WorkspacePath != "" {
		t.Errorf("WorkspacePath = %q, want empty", cfg.WorkspacePath)
	}
}

func TestLoadGlobalConfig_Valid(t *testing.T) {
	ResetGlobalConfigCache()
	defer ResetGlobalConfigCache()

	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)
	writeGlobalConfig(t, tmpDir, "workspace_path: ~/threat-models\n")

	cfg, err := LoadGlobalConfig()
	if err != nil {
		t.Fatalf("LoadGlobalConfig() error = %v", err)
	}

	home, _ := os.UserHomeDir()
	want := filepath.Join(home, "threat-models")
	if cfg.WorkspacePath != want {
		t.Errorf("WorkspacePath = %q, want %q", cfg.WorkspacePath, want)
	}
}

func TestLoadGlobalConfig_Invalid(t *testing.T) {
	ResetGlobalConfigCache()
	defer ResetGlobalConfigCache()

	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)
	writeGlobalConfig(t, tmpDir, "workspace_path: [oops\n")

	_, err := LoadGlobalConfig()
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("LoadGlobalConfig() error = %v, want ErrInvalidConfig", err)
	}
}

func TestLoadGlobalConfig_Cached(t *testing.T) {
	ResetGlobalConfigCache()
	defer ResetGlobalConfigCache()

	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)
	writeGlobalConfig(t, tmpDir, "workspace_path: /first\n")

	first, err := LoadGlobalConfig()
	if err != nil {
		t.Fatal(err)
	}
	writeGlobalConfig(t, tmpDir, "workspace_path: /second\n")
	second, _ := LoadGlobalConfig()

	if first != second || second.WorkspacePath != "/first" {
		t.Errorf("LoadGlobalConfig() did not return cached config: %q", second.WorkspacePath)
	}
}

func TestResolveWorkspace(t *testing.T) {
	ResetGlobalConfigCache()
	defer ResetGlobalConfigCache()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv(WorkspaceEnv, "")

	ws := t.TempDir()
	if _, err := Init(ws); err != nil {
		t.Fatal(err)
	}
	wsAbs, _ := filepath.Abs(ws)

	t.Run("explicit", func(t *testing.T) {
		got, err := ResolveWorkspace(ws, t.TempDir())
		if err != nil || got != wsAbs {
			t.Errorf("ResolveWorkspace() = %q, %v; want %q", got, err, wsAbs)
		}
	})

	t.Run("explicit not a workspace", func(t *testing.T) {
		_, err := ResolveWorkspace(t.TempDir(), ws)
		if !errors.Is(err, ErrNoWorkspace) {
			t.Errorf("ResolveWorkspace() error = %v, want ErrNoWorkspace", err)
		}
	})

	t.Run("environment", func(t *testing.T) {
		t.Setenv(WorkspaceEnv, ws)
		got, err := ResolveWorkspace("", t.TempDir())
		if err != nil || got != wsAbs {
			t.Errorf("ResolveWorkspace() = %q, %v; want %q", got, err, wsAbs)
		}
	})

	t.Run("walk up", func(t *testing.T) {
		sub := filepath.Join(ws, "nested")
		if err := os.MkdirAll(sub, 0755); err != nil {
			t.Fatal(err)
		}
		got, err := ResolveWorkspace("", sub)
		if err != nil || got != wsAbs {
			t.Errorf("ResolveWorkspace() = %q, %v; want %q", got, err, wsAbs)
		}
	})

	t.Run("global config", func(t *testing.T) {
		ResetGlobalConfigCache()
		defer ResetGlobalConfigCache()
		configHome := t.TempDir()
		t.Setenv("XDG_CONFIG_HOME", configHome)
		writeGlobalConfig(t, configHome, "workspace_path: "+wsAbs+"\n")

		got, err := ResolveWorkspace("", t.TempDir())
		if err != nil || got != wsAbs {
			t.Errorf("ResolveWorkspace() = %q, %v; want %q", got, err, wsAbs)
		}
	})

	t.Run("nothing found", func(t *testing.T) {
		ResetGlobalConfigCache()
		_, err := ResolveWorkspace("", t.TempDir())
		if !errors.Is(err, ErrNoWorkspace) {
			t.Errorf("ResolveWorkspace() error = %v, want ErrNoWorkspace", err)
		}
	})
}

func TestExpandTilde(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("Cannot get home directory")
	}

	tests := []struct {
		in   string
		want string
	}{
		{"~/models", filepath.Join(home, "models")},
		{"/abs/path", "/abs/path"},
		{"relative", "relative"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := ExpandTilde(tt.in); got != tt.want {
			t.Errorf("ExpandTilde(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func writeGlobalConfig(t *testing.T, configHome, content string) {
	t.Helper()
	dir := filepath.Join(configHome, GlobalConfigDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, GlobalConfigFile), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}
