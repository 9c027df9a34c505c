package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// AppName is used for the config directory
const AppName = "videos-midjourney"

// Config holds the application settings shared by the launcher and the
// intake server.
type Config struct {
	// DownloadDir is where finished video files are placed.
	DownloadDir string `toml:"download_dir"`
	// VideosFile is the path of the JSON video database.
	VideosFile string `toml:"videos_file"`
	// LogDir holds the daily log files.
	LogDir string `toml:"log_dir"`
	// ListenAddr is the intake server bind address.
	ListenAddr string `toml:"listen_addr"`
	// PaceSeconds is the wait between consecutive downloads.
	PaceSeconds int `toml:"pace_seconds"`
	// MaxRetries is the number of attempts per download engine.
	MaxRetries int `toml:"max_retries"`
	// MinFileSize is the smallest byte count a downloaded file may have
	// before it is considered broken and discarded.
	MinFileSize int64 `toml:"min_file_size"`
	// PreferGrab selects the grab engine before the plain HTTP engine.
	PreferGrab bool `toml:"prefer_grab"`
	// Monitor enables the terminal download monitor when stdout is a TTY.
	Monitor bool `toml:"monitor"`
	// RunInEnvBinDir makes the launcher change into the virtual
	// environment's executable directory before invoking the interpreter,
	// restoring the previous directory afterwards.
	RunInEnvBinDir bool `toml:"run_in_env_bin_dir"`
}

// Pace returns the configured inter-download wait as a duration.
func (c Config) Pace() time.Duration {
	return time.Duration(c.PaceSeconds) * time.Second
}

// DefaultConfig returns a Config struct with default values.
// The relative paths deliberately resolve against the working directory so
// that a bare unpacked install keeps everything next to the binaries.
func DefaultConfig() Config {
	return Config{
		DownloadDir: "download-midjourney",
		VideosFile:  "videos.json",
		LogDir:      "logs",
		ListenAddr:  ":5000",
		PaceSeconds: 15,
		MaxRetries:  2,
		MinFileSize: 8192,
		PreferGrab:  true,
	}
}

// GetConfigPath returns the full path to the config file.
func GetConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("could not get user config directory: %w", err)
	}

	return filepath.Join(configDir, AppName, "config.toml"), nil
}

// LoadConfig loads the configuration from the default path.
// If the file doesn't exist, it returns default settings without error.
func LoadConfig() (Config, error) {
	cfgPath, err := GetConfigPath()
	if err != nil {
		return Config{}, err
	}

	cfg := DefaultConfig()

	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		return cfg, nil
	} else if err != nil {
		return Config{}, fmt.Errorf("could not stat config file %s: %w", cfgPath, err)
	}

	if _, err := toml.DecodeFile(cfgPath, &cfg); err != nil {
		return Config{}, fmt.Errorf("could not decode config file %s: %w", cfgPath, err)
	}

	cfg.DownloadDir, err = expandHome(cfg.DownloadDir)
	if err != nil {
		return cfg, err
	}
	cfg.VideosFile, err = expandHome(cfg.VideosFile)
	if err != nil {
		return cfg, err
	}
	cfg.LogDir, err = expandHome(cfg.LogDir)
	if err != nil {
		return cfg, err
	}

	return cfg, nil
}

// SaveConfig saves the configuration to the default path.
// It creates the config directory if it doesn't exist.
func SaveConfig(cfg Config) error {
	cfgPath, err := GetConfigPath()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(cfgPath), 0750); err != nil {
		return fmt.Errorf("could not create config directory %s: %w", filepath.Dir(cfgPath), err)
	}

	file, err := os.Create(cfgPath)
	if err != nil {
		return fmt.Errorf("could not create config file %s: %w", cfgPath, err)
	}
	defer file.Close()

	encoder := toml.NewEncoder(file)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("could not encode config to file %s: %w", cfgPath, err)
	}

	return nil
}

// expandHome expands a leading ~ in path to the user's home directory.
func expandHome(path string) (string, error) {
	if path == "" || path[0] != '~' {
		return path, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return path, fmt.Errorf("could not get home directory to expand path: %w", err)
	}
	return filepath.Join(homeDir, path[1:]), nil
}
