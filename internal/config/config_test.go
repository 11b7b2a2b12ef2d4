package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/multierr"

	"github.com/Faultbox/gridprobe/pkg/gridlookup"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Scene.VerticalScale != 7.0 {
		t.Errorf("expected vertical scale 7, got %v", cfg.Scene.VerticalScale)
	}
	if cfg.Scene.BoundsPolicy != "reject" {
		t.Errorf("expected bounds policy 'reject', got %s", cfg.Scene.BoundsPolicy)
	}
	if cfg.Server.Listen != "127.0.0.1:8080" {
		t.Errorf("expected listen 127.0.0.1:8080, got %s", cfg.Server.Listen)
	}
	if cfg.Server.PongWait != 60*time.Second {
		t.Errorf("expected pong wait 60s, got %v", cfg.Server.PongWait)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
	if p, _ := cfg.Policy(); p != gridlookup.Reject {
		t.Errorf("expected Reject policy, got %v", p)
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
scene:
  path: "terrain.html"
  vertical_scale: 3.5
  bounds_policy: clamp

server:
  listen: ":9000"
  max_message_size: 1024
  write_wait: 5s
  pong_wait: 30s

logging:
  level: "debug"
  log_file: "gridprobe.log"
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Scene.Path != "terrain.html" {
		t.Errorf("expected scene path terrain.html, got %s", cfg.Scene.Path)
	}
	if cfg.Scene.VerticalScale != 3.5 {
		t.Errorf("expected vertical scale 3.5, got %v", cfg.Scene.VerticalScale)
	}
	if p, err := cfg.Policy(); err != nil || p != gridlookup.Clamp {
		t.Errorf("expected Clamp policy, got %v (%v)", p, err)
	}
	if cfg.Server.Listen != ":9000" {
		t.Errorf("expected listen :9000, got %s", cfg.Server.Listen)
	}
	if cfg.Server.MaxMessageSize != 1024 {
		t.Errorf("expected max message size 1024, got %d", cfg.Server.MaxMessageSize)
	}
	if cfg.Server.WriteWait != 5*time.Second {
		t.Errorf("expected write wait 5s, got %v", cfg.Server.WriteWait)
	}
	if cfg.Logging.LogFile != "gridprobe.log" {
		t.Errorf("expected log file 'gridprobe.log', got %s", cfg.Logging.LogFile)
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")

	invalidYAML := `
scene:
  vertical_scale: not a number
  invalid syntax here
`

	if err := os.WriteFile(configPath, []byte(invalidYAML), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err == nil {
		t.Error("expected error loading invalid YAML, got nil")
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := Default()
	if err := loadFromFile(cfg, "/nonexistent/path/config.yaml"); err == nil {
		t.Error("expected error loading missing file, got nil")
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := Default()
	cfg.Scene.VerticalScale = 0
	cfg.Scene.BoundsPolicy = "wrap"
	cfg.Server.PongWait = 0
	cfg.Logging.Level = "verbose"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}

	errs := multierr.Errors(err)
	if len(errs) != 4 {
		t.Fatalf("expected 4 errors, got %d: %v", len(errs), err)
	}
	for _, want := range []string{"vertical_scale", "bounds_policy", "pong_wait", "logging.level"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}
}

func TestConfigDir(t *testing.T) {
	dir := ConfigDir()

	if dir == "" {
		t.Error("ConfigDir returned empty string")
	}
	if !filepath.IsAbs(dir) {
		t.Errorf("ConfigDir should return absolute path, got %s", dir)
	}
}

func TestFindConfigFile(t *testing.T) {
	origDir, _ := os.Getwd()
	defer os.Chdir(origDir)

	tmpDir := t.TempDir()
	os.Chdir(tmpDir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, "xdg"))

	if path := findConfigFile(); path != "" {
		t.Errorf("expected empty path when no config exists, got %s", path)
	}

	configPath := filepath.Join(tmpDir, "gridprobe.yaml")
	if err := os.WriteFile(configPath, []byte("scene:\n  vertical_scale: 2\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}

	if path := findConfigFile(); path == "" {
		t.Error("expected to find gridprobe.yaml in current directory")
	}
}

func TestApplyFlags(t *testing.T) {
	tests := []struct {
		name     string
		setup    func()
		verify   func(*Config)
		teardown func()
	}{
		{
			name:  "debug flag",
			setup: func() { *flagDebug = true },
			verify: func(cfg *Config) {
				if cfg.Logging.Level != "debug" {
					t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
				}
			},
			teardown: func() { *flagDebug = false },
		},
		{
			name:  "listen flag",
			setup: func() { *flagListen = ":7000" },
			verify: func(cfg *Config) {
				if cfg.Server.Listen != ":7000" {
					t.Errorf("expected listen :7000, got %s", cfg.Server.Listen)
				}
			},
			teardown: func() { *flagListen = "" },
		},
		{
			name:  "vertical scale flag",
			setup: func() { *flagScale = 2.5 },
			verify: func(cfg *Config) {
				if cfg.Scene.VerticalScale != 2.5 {
					t.Errorf("expected vertical scale 2.5, got %v", cfg.Scene.VerticalScale)
				}
			},
			teardown: func() { *flagScale = 0 },
		},
		{
			name:  "bounds flag",
			setup: func() { *flagPolicy = "clamp" },
			verify: func(cfg *Config) {
				if cfg.Scene.BoundsPolicy != "clamp" {
					t.Errorf("expected bounds policy clamp, got %s", cfg.Scene.BoundsPolicy)
				}
			},
			teardown: func() { *flagPolicy = "" },
		},
		{
			name:  "log flag",
			setup: func() { *flagLog = "/tmp/gridprobe.log" },
			verify: func(cfg *Config) {
				if cfg.Logging.LogFile != "/tmp/gridprobe.log" {
					t.Errorf("expected log file /tmp/gridprobe.log, got %s", cfg.Logging.LogFile)
				}
			},
			teardown: func() { *flagLog = "" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setup()
			defer tt.teardown()

			cfg := Default()
			applyFlags(cfg)

			tt.verify(cfg)
		})
	}
}

func TestLoadPriority(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
scene:
  vertical_scale: 4
  bounds_policy: clamp
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	*flagConfig = configPath
	*flagScale = 9
	defer func() {
		*flagConfig = ""
		*flagScale = 0
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	// Scale comes from the flag, policy from the file
	if cfg.Scene.VerticalScale != 9 {
		t.Errorf("expected vertical scale 9 from flag, got %v", cfg.Scene.VerticalScale)
	}
	if cfg.Scene.BoundsPolicy != "clamp" {
		t.Errorf("expected bounds policy clamp from file, got %s", cfg.Scene.BoundsPolicy)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("scene:\n  bounds_policy: wrap\n"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	*flagConfig = configPath
	defer func() { *flagConfig = "" }()

	if _, err := Load(); err == nil {
		t.Error("expected validation error for unknown bounds policy")
	}
}

func TestSaveTo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := Default()
	cfg.Scene.Path = "scene.x3d"
	cfg.Server.WriteWait = 3 * time.Second
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo failed: %v", err)
	}

	loaded := Default()
	if err := loadFromFile(loaded, path); err != nil {
		t.Fatalf("failed to reload saved config: %v", err)
	}
	if loaded.Scene.Path != "scene.x3d" {
		t.Errorf("expected scene path scene.x3d, got %s", loaded.Scene.Path)
	}
	if loaded.Server.WriteWait != 3*time.Second {
		t.Errorf("expected write wait 3s, got %v", loaded.Server.WriteWait)
	}
}
