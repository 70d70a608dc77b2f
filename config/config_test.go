package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kbukum/datakit/logger"
)

// fakeFS is an in-memory FileSystem for loader tests.
type fakeFS struct {
	files map[string]bool
}

func (f *fakeFS) Exists(path string) bool { return f.files[path] }
func (f *fakeFS) LoadEnv(path string) error {
	return nil
}

type sourceSection struct {
	BatchSize int `yaml:"batch_size" mapstructure:"batch_size"`
	Workers   int `yaml:"workers" mapstructure:"workers"`
}

type testPipelineConfig struct {
	BaseConfig `yaml:",inline" mapstructure:",squash"`
	Source     sourceSection `yaml:"source" mapstructure:"source"`
}

func TestLoadConfig_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	content := []byte("name: midi-train\nenvironment: development\nsource:\n  batch_size: 16\n  workers: 4\n")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}

	var cfg testPipelineConfig
	if err := LoadConfig("midi-train", &cfg, WithConfigFile(path)); err != nil {
		t.Fatal(err)
	}
	if cfg.Name != "midi-train" {
		t.Errorf("expected name midi-train, got %q", cfg.Name)
	}
	if cfg.Source.BatchSize != 16 {
		t.Errorf("expected batch_size 16, got %d", cfg.Source.BatchSize)
	}
	if cfg.Source.Workers != 4 {
		t.Errorf("expected workers 4, got %d", cfg.Source.Workers)
	}
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	os.Setenv("SOURCE_BATCH_SIZE", "64")
	defer os.Unsetenv("SOURCE_BATCH_SIZE")

	var cfg testPipelineConfig
	err := LoadConfig("train", &cfg, WithFileSystem(&fakeFS{files: map[string]bool{}}))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Source.BatchSize != 64 {
		t.Errorf("expected env override batch_size 64, got %d", cfg.Source.BatchSize)
	}
}

func TestLoadConfig_MissingFilesIsNotAnError(t *testing.T) {
	var cfg testPipelineConfig
	err := LoadConfig("nonexistent", &cfg, WithFileSystem(&fakeFS{files: map[string]bool{}}))
	if err != nil {
		t.Errorf("missing files should not fail, got %v", err)
	}
}

func TestBaseConfig_ApplyDefaults(t *testing.T) {
	var cfg BaseConfig
	cfg.ApplyDefaults()
	if cfg.Environment != "development" {
		t.Errorf("expected development, got %q", cfg.Environment)
	}
	if !cfg.Debug {
		t.Error("expected debug in development")
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected logging defaults applied, got level %q", cfg.Logging.Level)
	}
}

func TestBaseConfig_Validate(t *testing.T) {
	cfg := BaseConfig{
		Name:        "train",
		Environment: "production",
		Logging:     logger.Config{Level: "info", Format: "json"},
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	cfg.Name = ""
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for missing name")
	}

	cfg.Name = "train"
	cfg.Environment = "qa"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for invalid environment")
	}
}

func TestGenerateEnvKeyVariants(t *testing.T) {
	variants := generateEnvKeyVariants("SOURCE_BATCH_SIZE")
	want := map[string]bool{
		"source_batch_size": false,
		"source.batch.size": false,
		"source.batch_size": false,
	}
	for _, v := range variants {
		if _, ok := want[v]; ok {
			want[v] = true
		}
	}
	for k, seen := range want {
		if !seen {
			t.Errorf("expected variant %q in %v", k, variants)
		}
	}
}
