package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Verbose != false {
		t.Error("expected default verbose to be false")
	}

	if cfg.Format != "text" {
		t.Errorf("expected default format to be 'text', got '%s'", cfg.Format)
	}

	if cfg.DataDir == "" {
		t.Error("expected DataDir to be set")
	}

	if cfg.Remote.Backend != BackendBolt {
		t.Errorf("expected default backend to be 'bolt', got '%s'", cfg.Remote.Backend)
	}

	if cfg.Remote.Timeout != 30*time.Second {
		t.Errorf("expected default remote timeout to be 30s, got %s", cfg.Remote.Timeout)
	}

	if cfg.Remote.Retries != 2 {
		t.Errorf("expected default remote retries to be 2, got %d", cfg.Remote.Retries)
	}

	if cfg.KeySource != KeySourceSettings {
		t.Errorf("expected default key source to be 'settings', got '%s'", cfg.KeySource)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("expected defaults to validate, got: %v", err)
	}
}

func TestLoad_NoConfigFile(t *testing.T) {
	// Load with a non-existent config file path
	cfg, err := Load("/tmp/nonexistent/config.yaml")
	if err != nil {
		t.Fatalf("expected no error when config file doesn't exist, got: %v", err)
	}

	// Should use defaults
	if cfg.Remote.Backend != BackendBolt {
		t.Errorf("expected default backend, got '%s'", cfg.Remote.Backend)
	}

	if cfg.ConfigPath != "/tmp/nonexistent/config.yaml" {
		t.Errorf("expected ConfigPath to be kept, got '%s'", cfg.ConfigPath)
	}
}

func TestLoad_WithConfigFile(t *testing.T) {
	tmpDir := t.TempDir()
	configFile := filepath.Join(tmpDir, "config.yaml")

	configContent := `
data_dir: "/srv/bytepass"
verbose: true
format: "json"
encrypt_remote: true
key_source: "keyring"
remote:
  backend: "s3"
  timeout: "5s"
  s3:
    bucket: "vault-bucket"
    region: "eu-west-1"
    endpoint: "http://localhost:9000"
    prefix: "team"
`

	if err := os.WriteFile(configFile, []byte(configContent), 0600); err != nil {
		t.Fatalf("failed to create test config file: %v", err)
	}

	cfg, err := Load(configFile)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if cfg.DataDir != "/srv/bytepass" {
		t.Errorf("expected data_dir to be '/srv/bytepass', got '%s'", cfg.DataDir)
	}

	if cfg.Verbose != true {
		t.Error("expected verbose to be true")
	}

	if cfg.Format != "json" {
		t.Errorf("expected format to be 'json', got '%s'", cfg.Format)
	}

	if !cfg.EncryptRemote {
		t.Error("expected encrypt_remote to be true")
	}

	if cfg.KeySource != KeySourceKeyring {
		t.Errorf("expected key_source to be 'keyring', got '%s'", cfg.KeySource)
	}

	if cfg.Remote.Backend != BackendS3 {
		t.Errorf("expected backend to be 's3', got '%s'", cfg.Remote.Backend)
	}

	if cfg.Remote.Timeout != 5*time.Second {
		t.Errorf("expected timeout to be 5s, got %s", cfg.Remote.Timeout)
	}

	if cfg.Remote.S3.Bucket != "vault-bucket" || cfg.Remote.S3.Region != "eu-west-1" {
		t.Errorf("unexpected s3 config: %+v", cfg.Remote.S3)
	}

	if cfg.Remote.S3.Endpoint != "http://localhost:9000" || cfg.Remote.S3.Prefix != "team" {
		t.Errorf("unexpected s3 endpoint config: %+v", cfg.Remote.S3)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("expected loaded config to validate, got: %v", err)
	}
}

func TestLoad_WithEnvironmentVariables(t *testing.T) {
	t.Setenv("BYTEPASS_FORMAT", "yaml")
	t.Setenv("BYTEPASS_DATA_DIR", "/env/data")
	t.Setenv("BYTEPASS_REMOTE_BACKEND", "s3")
	t.Setenv("BYTEPASS_REMOTE_S3_BUCKET", "env-bucket")

	// Load with non-existent config file (so env vars take precedence)
	cfg, err := Load("/tmp/nonexistent/config.yaml")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if cfg.Format != "yaml" {
		t.Errorf("expected format to be 'yaml', got '%s'", cfg.Format)
	}

	if cfg.DataDir != "/env/data" {
		t.Errorf("expected data_dir to be '/env/data', got '%s'", cfg.DataDir)
	}

	if cfg.Remote.Backend != BackendS3 {
		t.Errorf("expected backend to be 's3', got '%s'", cfg.Remote.Backend)
	}

	if cfg.Remote.S3.Bucket != "env-bucket" {
		t.Errorf("expected bucket to be 'env-bucket', got '%s'", cfg.Remote.S3.Bucket)
	}
}

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		name        string
		format      string
		expectError bool
	}{
		{"valid text", "text", false},
		{"valid json", "json", false},
		{"valid yaml", "yaml", false},
		{"invalid format", "xml", true},
		{"invalid format", "invalid", true},
		{"empty format", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Format: tt.format}
			err := cfg.ValidateFormat()

			if tt.expectError && err == nil {
				t.Error("expected error but got nil")
			}

			if !tt.expectError && err != nil {
				t.Errorf("expected no error but got: %v", err)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Config)
		expectError bool
	}{
		{"defaults", func(*Config) {}, false},
		{"s3 with bucket", func(c *Config) {
			c.Remote.Backend = BackendS3
			c.Remote.S3.Bucket = "b"
		}, false},
		{"s3 without bucket", func(c *Config) { c.Remote.Backend = BackendS3 }, true},
		{"bolt without path", func(c *Config) { c.Remote.BoltPath = "" }, true},
		{"unknown backend", func(c *Config) { c.Remote.Backend = "drive" }, true},
		{"unknown key source", func(c *Config) { c.KeySource = "vault" }, true},
		{"zero timeout", func(c *Config) { c.Remote.Timeout = 0 }, true},
		{"negative retries", func(c *Config) { c.Remote.Retries = -1 }, true},
		{"no retries", func(c *Config) { c.Remote.Retries = 0 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()

			if tt.expectError && err == nil {
				t.Error("expected error but got nil")
			}

			if !tt.expectError && err != nil {
				t.Errorf("expected no error but got: %v", err)
			}
		})
	}
}

func TestEnsureDirectories(t *testing.T) {
	tmpDir := t.TempDir()

	cfg := DefaultConfig()
	cfg.DataDir = filepath.Join(tmpDir, "subdir")
	cfg.ConfigPath = filepath.Join(tmpDir, "config.yaml")
	cfg.Remote.BoltPath = filepath.Join(tmpDir, "shared", "remote.db")

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("failed to ensure directories: %v", err)
	}

	for _, dir := range []string{cfg.DataDir, filepath.Join(tmpDir, "shared")} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %s to be created: %v", dir, err)
		}

		expectedMode := os.FileMode(0700)
		if info.Mode().Perm() != expectedMode {
			t.Errorf("expected directory permissions to be %v, got %v", expectedMode, info.Mode().Perm())
		}
	}
}

func TestJournalPath(t *testing.T) {
	cfg := &Config{DataDir: "/data"}

	want := filepath.Join("/data", "BytePassData", "journal.db")
	if got := cfg.JournalPath(); got != want {
		t.Errorf("expected journal path %s, got %s", want, got)
	}
}
