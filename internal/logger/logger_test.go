package logger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestLogRotation(t *testing.T) {
	tempDir := t.TempDir()
	logFile := filepath.Join(tempDir, "test.log")

	// 1MB is the smallest size lumberjack allows
	cfg := FileConfig{
		Path:       logFile,
		MaxSizeMB:  1,
		MaxBackups: 2,
		MaxAgeDays: 1,
		Compress:   false,
	}

	if err := InitWithFileConfig("debug", cfg, false); err != nil {
		t.Fatalf("failed to init logger: %v", err)
	}
	defer Sync()

	longMessage := strings.Repeat("x", 200)
	for i := 0; i < 15000; i++ {
		Sugar.Infof("resolve %d: %s", i, longMessage)
	}
	Sync()

	if _, err := os.Stat(logFile); os.IsNotExist(err) {
		t.Error("main log file does not exist")
	}

	files, err := os.ReadDir(tempDir)
	if err != nil {
		t.Fatalf("failed to read temp dir: %v", err)
	}

	var rotated int
	for _, f := range files {
		name := f.Name()
		if name == "test.log" || !strings.HasPrefix(name, "test") {
			continue
		}
		rotated++
		// Rotated files are named test-YYYY-MM-DDTHH-MM-SS.SSS.log
		if !strings.Contains(name, "-20") {
			t.Errorf("rotated file %s doesn't have expected timestamp format", name)
		}
	}
	if rotated == 0 {
		t.Error("no rotated files found")
	}
}

func TestLogLevels(t *testing.T) {
	tempDir := t.TempDir()

	tests := []struct {
		level    string
		expected []string
		excluded []string
	}{
		{"error", []string{"ERROR"}, []string{"WARN", "INFO", "DEBUG"}},
		{"warn", []string{"ERROR", "WARN"}, []string{"INFO", "DEBUG"}},
		{"info", []string{"ERROR", "WARN", "INFO"}, []string{"DEBUG"}},
		{"debug", []string{"ERROR", "WARN", "INFO", "DEBUG"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			logFile := filepath.Join(tempDir, tt.level+".log")

			cfg := FileConfig{Path: logFile, MaxSizeMB: 10, MaxBackups: 1, MaxAgeDays: 1}
			if err := InitWithFileConfig(tt.level, cfg, false); err != nil {
				t.Fatalf("failed to init logger: %v", err)
			}

			Debug("debug message")
			Info("info message")
			Warn("warn message")
			Error("error message")
			Sync()

			content, err := os.ReadFile(logFile)
			if err != nil {
				t.Fatalf("failed to read log file: %v", err)
			}
			logContent := string(content)

			for _, exp := range tt.expected {
				if !strings.Contains(logContent, exp) {
					t.Errorf("expected %s in log output", exp)
				}
			}
			for _, exc := range tt.excluded {
				if strings.Contains(logContent, exc) {
					t.Errorf("unexpected %s in log output for level %s", exc, tt.level)
				}
			}
		})
	}
}

func TestNamedFileEntry(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "named.log")

	cfg := FileConfig{Path: logFile, MaxSizeMB: 10, MaxBackups: 1, MaxAgeDays: 1}
	if err := InitWithFileConfig("info", cfg, false); err != nil {
		t.Fatalf("failed to init logger: %v", err)
	}

	Named("server").Info("pick resolved", zap.Int("i", 3), zap.Int("j", 4))
	Sync()

	content, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(string(content))), &entry); err != nil {
		t.Fatalf("log entry is not JSON: %v\n%s", err, content)
	}
	if entry["component"] != "server" {
		t.Errorf("expected component 'server', got %v", entry["component"])
	}
	if entry["msg"] != "pick resolved" {
		t.Errorf("expected msg 'pick resolved', got %v", entry["msg"])
	}
	if entry["i"] != float64(3) {
		t.Errorf("expected i=3, got %v", entry["i"])
	}
	if caller, _ := entry["caller"].(string); !strings.Contains(caller, "logger_test.go") {
		t.Errorf("expected caller in logger_test.go, got %q", caller)
	}
}

func TestDefaultFileConfig(t *testing.T) {
	cfg := DefaultFileConfig("/tmp/test.log")

	if cfg.Path != "/tmp/test.log" {
		t.Errorf("expected path /tmp/test.log, got %s", cfg.Path)
	}
	if cfg.MaxSizeMB != 20 {
		t.Errorf("expected MaxSizeMB 20, got %d", cfg.MaxSizeMB)
	}
	if cfg.MaxBackups != 5 {
		t.Errorf("expected MaxBackups 5, got %d", cfg.MaxBackups)
	}
	if cfg.MaxAgeDays != 14 {
		t.Errorf("expected MaxAgeDays 14, got %d", cfg.MaxAgeDays)
	}
	if !cfg.Compress {
		t.Error("expected Compress to be true")
	}
}
