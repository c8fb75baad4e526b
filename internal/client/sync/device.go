package sync

import (
	"fmt"
	"os"
	"sync"

	"github.com/spf13/viper"

	"github.com/ritchy/BytePass/internal/client/config"
)

// configMutex serializes read-modify-write cycles on the config file.
var configMutex sync.Mutex

// UpdateLastSyncAt records the last successful sync time in the config file,
// creating the file when it does not exist yet.
func UpdateLastSyncAt(cfg *config.Config, timestamp string) error {
	configMutex.Lock()
	defer configMutex.Unlock()

	// Ensure config directory exists
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	v := viper.New()
	v.SetConfigType("yaml")

	if _, err := os.Stat(cfg.ConfigPath); err == nil {
		v.SetConfigFile(cfg.ConfigPath)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.Set("last_sync_at", timestamp)

	if err := v.WriteConfigAs(cfg.ConfigPath); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	// Ensure config file has secure permissions (0600 - read/write for owner only)
	if err := os.Chmod(cfg.ConfigPath, 0o600); err != nil {
		return fmt.Errorf("failed to set config file permissions: %w", err)
	}

	cfg.LastSyncAt = timestamp

	return nil
}
