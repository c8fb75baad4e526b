package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/ritchy/BytePass/internal/client/remote"
	"github.com/ritchy/BytePass/internal/client/storage"
)

// Remote backends
const (
	BackendBolt = "bolt"
	BackendS3   = "s3"
)

// Key sources
const (
	KeySourceSettings = "settings"
	KeySourceKeyring  = "keyring"
)

// Config holds all configuration for the CLI client
type Config struct {
	// ConfigPath is the path to the configuration file
	ConfigPath string `mapstructure:"-"`

	// DataDir is the application data directory; documents live in its
	// BytePassData subfolder
	DataDir string `mapstructure:"data_dir"`

	// Verbose enables debug logging
	Verbose bool `mapstructure:"verbose"`

	// Format specifies the output format (text, json, yaml)
	Format string `mapstructure:"format"`

	// Remote configures the cloud file store
	Remote RemoteConfig `mapstructure:"remote"`

	// EncryptRemote seals the remote accounts file with the data key
	EncryptRemote bool `mapstructure:"encrypt_remote"`

	// KeySource selects where the data key is kept (settings, keyring)
	KeySource string `mapstructure:"key_source"`

	// LastSyncAt is the timestamp of the last successful sync (RFC3339 format)
	LastSyncAt string `mapstructure:"last_sync_at"`
}

// RemoteConfig selects and configures the remote file store backend
type RemoteConfig struct {
	Backend  string          `mapstructure:"backend"`
	BoltPath string          `mapstructure:"bolt_path"`
	S3       remote.S3Config `mapstructure:"s3"`
	Timeout  time.Duration   `mapstructure:"timeout"`

	// Retries is how often a failed idempotent remote call is repeated
	Retries int `mapstructure:"retries"`
}

// DefaultConfig returns a Config with default values
func DefaultConfig() *Config {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}

	bytepassDir := filepath.Join(homeDir, ".bytepass")

	return &Config{
		DataDir: bytepassDir,
		Verbose: false,
		Format:  "text",
		Remote: RemoteConfig{
			Backend:  BackendBolt,
			BoltPath: filepath.Join(bytepassDir, "remote.db"),
			Timeout:  30 * time.Second,
			Retries:  2,
		},
		EncryptRemote: false,
		KeySource:     KeySourceSettings,
	}
}

// Load loads configuration from file, environment variables, and CLI flags
// Priority (highest to lowest): CLI flags > Environment variables > Config file > Defaults
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			v.SetConfigFile(configPath)
		}
		cfg.ConfigPath = configPath
	} else {
		homeDir, err := os.UserHomeDir()
		if err == nil {
			bytepassDir := filepath.Join(homeDir, ".bytepass")
			v.AddConfigPath(bytepassDir)
			v.SetConfigName("config")
			v.SetConfigType("yaml")
			cfg.ConfigPath = filepath.Join(bytepassDir, "config.yaml")
		}
	}

	v.SetEnvPrefix("BYTEPASS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for _, key := range []string{
		"data_dir",
		"verbose",
		"format",
		"encrypt_remote",
		"key_source",
		"remote.backend",
		"remote.bolt_path",
		"remote.timeout",
		"remote.retries",
		"remote.s3.bucket",
		"remote.s3.region",
		"remote.s3.endpoint",
		"remote.s3.prefix",
		"remote.s3.access_key",
		"remote.s3.secret_key",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		logrus.Debug("No config file found, using defaults")
	} else {
		logrus.Debugf("Using config file: %s", v.ConfigFileUsed())
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// JournalPath returns the location of the sync journal database
func (c *Config) JournalPath() string {
	return filepath.Join(c.DataDir, storage.DataDirName, storage.JournalFileName)
}

// EnsureDirectories ensures that all necessary directories exist
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.DataDir,
		filepath.Dir(c.ConfigPath),
	}
	if c.Remote.Backend == BackendBolt {
		dirs = append(dirs, filepath.Dir(c.Remote.BoltPath))
	}

	for _, dir := range dirs {
		if dir == "" || dir == "." {
			continue
		}
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

// ValidateFormat validates the output format
func (c *Config) ValidateFormat() error {
	switch c.Format {
	case "text", "json", "yaml":
		return nil
	default:
		return fmt.Errorf("invalid format %q, must be one of: text, json, yaml", c.Format)
	}
}

// Validate checks the remote and key settings
func (c *Config) Validate() error {
	if err := c.ValidateFormat(); err != nil {
		return err
	}

	switch c.Remote.Backend {
	case BackendBolt:
		if c.Remote.BoltPath == "" {
			return fmt.Errorf("remote.bolt_path is required for the bolt backend")
		}
	case BackendS3:
		if c.Remote.S3.Bucket == "" {
			return fmt.Errorf("remote.s3.bucket is required for the s3 backend")
		}
	default:
		return fmt.Errorf("invalid remote backend %q, must be one of: bolt, s3", c.Remote.Backend)
	}

	switch c.KeySource {
	case KeySourceSettings, KeySourceKeyring:
	default:
		return fmt.Errorf("invalid key source %q, must be one of: settings, keyring", c.KeySource)
	}

	if c.Remote.Timeout <= 0 {
		return fmt.Errorf("remote.timeout must be positive, got %s", c.Remote.Timeout)
	}

	if c.Remote.Retries < 0 {
		return fmt.Errorf("remote.retries must not be negative, got %d", c.Remote.Retries)
	}

	return nil
}
