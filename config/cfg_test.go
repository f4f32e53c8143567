package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cssblocks/common"
)

func writeConfig(t *testing.T, text string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(text), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

func TestLoadConfiguration_NoFile(t *testing.T) {
	cfg, err := LoadConfiguration("")
	if err != nil {
		t.Fatalf("LoadConfiguration() with empty path error = %v", err)
	}
	if cfg.Version != 1 {
		t.Errorf("Version = %d, want 1", cfg.Version)
	}
	if cfg.Compiler.OutputMode != common.OutputModeBem {
		t.Errorf("OutputMode = %v, want %v", cfg.Compiler.OutputMode, common.OutputModeBem)
	}
	if cfg.Compiler.Reserved() != nil {
		t.Errorf("Reserved() = %v, want nil", cfg.Compiler.Reserved())
	}
	if cfg.Compiler.OutputNameTemplate != "" {
		t.Errorf("OutputNameTemplate = %q, want empty", cfg.Compiler.OutputNameTemplate)
	}
	if cfg.Cache.Enable {
		t.Error("cache should be disabled by default")
	}
	if !strings.HasSuffix(cfg.Cache.Path, "blocks-cache.db") {
		t.Errorf("Cache.Path = %q", cfg.Cache.Path)
	}
	if cfg.Logging.ConsoleLogger.Level != "none" {
		t.Errorf("console level under test = %q, want none", cfg.Logging.ConsoleLogger.Level)
	}
}

func TestLoadConfiguration_WithFile(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, `version: 1
compiler:
  output_mode: bem-unique
  reserved_class_names: [header, footer]
  output_name_template: '{{ .Dir }}/{{ .Name }}'
cache:
  enable: true
  path: `+filepath.Join(dir, "sub", "cache.db")+`
logging:
  console:
    level: normal
  file:
    level: debug
    destination: `+filepath.Join(dir, "test.log")+`
    mode: append
`)

	cfg, err := LoadConfiguration(path)
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	if cfg.Compiler.OutputMode != common.OutputModeBemUnique {
		t.Errorf("OutputMode = %v, want %v", cfg.Compiler.OutputMode, common.OutputModeBemUnique)
	}
	if cfg.Compiler.OutputNameTemplate != "{{ .Dir }}/{{ .Name }}" {
		t.Errorf("OutputNameTemplate = %q, want it unexpanded", cfg.Compiler.OutputNameTemplate)
	}
	reserved := cfg.Compiler.Reserved()
	if len(reserved) != 2 || !reserved["header"] || !reserved["footer"] {
		t.Errorf("Reserved() = %v", reserved)
	}
	if !cfg.Cache.Enable {
		t.Error("expected cache to be enabled")
	}
	if _, err := os.Stat(filepath.Join(dir, "sub")); err != nil {
		t.Errorf("cache directory was not created: %v", err)
	}
	if cfg.Logging.FileLogger.Mode != "append" {
		t.Errorf("file log mode = %q, want append", cfg.Logging.FileLogger.Mode)
	}
	// not in the file, must come from template
	if cfg.Reporting.Destination == "" {
		t.Error("reporting destination lost when merging with defaults")
	}
}

func TestLoadConfiguration_Errors(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"invalid yaml", "version: 1\ncompiler:\n  output_mode: bem\n  invalid indent\n"},
		{"unknown field", "version: 1\ncompiler:\n  minify: true\n"},
		{"bad version", "version: 2\n"},
		{"bad output mode", "version: 1\ncompiler:\n  output_mode: camel\n"},
		{"empty reserved name", "version: 1\ncompiler:\n  reserved_class_names: [\"\"]\n"},
		{"bad log level", "version: 1\nlogging:\n  console:\n    level: loud\n"},
		{"cache without path", "version: 1\ncache:\n  enable: true\n  path: \"\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadConfiguration(writeConfig(t, tt.text)); err == nil {
				t.Error("expected error")
			}
		})
	}

	if _, err := LoadConfiguration("/nonexistent/config.yaml"); err == nil {
		t.Error("expected error for nonexistent file")
	}
}

func TestPrepare(t *testing.T) {
	data, err := Prepare()
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	if _, err := unmarshalConfig(data, &Config{}, true); err != nil {
		t.Errorf("prepared config is not valid: %v", err)
	}
}

func TestDump(t *testing.T) {
	cfg, err := LoadConfiguration("")
	if err != nil {
		t.Fatal(err)
	}
	cfg.Compiler.OutputMode = common.OutputModeBemUnique
	cfg.Compiler.ReservedClassNames = []string{"x"}

	data, err := Dump(cfg)
	if err != nil {
		t.Fatalf("Dump() error = %v", err)
	}
	if !strings.Contains(string(data), "output_mode: bem-unique") {
		t.Errorf("output mode not dumped as text:\n%s", data)
	}

	got, err := unmarshalConfig(data, &Config{}, false)
	if err != nil {
		t.Fatalf("dumped config cannot be loaded: %v", err)
	}
	if got.Compiler.OutputMode != cfg.Compiler.OutputMode || len(got.Compiler.ReservedClassNames) != 1 {
		t.Errorf("compiler section = %+v, want %+v", got.Compiler, cfg.Compiler)
	}
}

func TestUnmarshalConfig_WrapsValidationError(t *testing.T) {
	_, err := unmarshalConfig([]byte("version: 99\n"), &Config{}, true)
	if err == nil {
		t.Fatal("expected validation error, got nil")
	}
	if !strings.Contains(err.Error(), "validat") {
		t.Errorf("expected error to mention validation, got: %v", err)
	}
	if errors.Unwrap(err) == nil {
		t.Errorf("expected wrapped error, got: %v", err)
	}
}

func TestCleanFileName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"main", "main"},
		{"a" + string(os.PathSeparator) + "b", "ab"},
		{"", "_bad_file_name_"},
	}
	for _, tt := range tests {
		if got := CleanFileName(tt.in); got != tt.want {
			t.Errorf("CleanFileName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
