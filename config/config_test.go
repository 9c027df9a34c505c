package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.VideosFile != "videos.json" {
		t.Errorf("Expected videos file videos.json, got %s", cfg.VideosFile)
	}
	if cfg.DownloadDir != "download-midjourney" {
		t.Errorf("Expected download dir download-midjourney, got %s", cfg.DownloadDir)
	}
	if cfg.ListenAddr != ":5000" {
		t.Errorf("Expected listen addr :5000, got %s", cfg.ListenAddr)
	}
	if cfg.PaceSeconds != 15 {
		t.Errorf("Expected pace of 15 seconds, got %d", cfg.PaceSeconds)
	}
	if cfg.MinFileSize != 8192 {
		t.Errorf("Expected min file size 8192, got %d", cfg.MinFileSize)
	}
	if !cfg.PreferGrab {
		t.Error("Expected grab engine to be preferred by default")
	}
	if cfg.RunInEnvBinDir {
		t.Error("Expected run_in_env_bin_dir to default to false")
	}
}

func TestGetConfigPath(t *testing.T) {
	path, err := GetConfigPath()
	if err != nil {
		t.Fatalf("GetConfigPath returned an error: %v", err)
	}

	if path == "" {
		t.Error("GetConfigPath returned an empty path")
	}
	if !filepath.IsAbs(path) {
		t.Error("GetConfigPath did not return an absolute path")
	}
	expected := filepath.Join(AppName, "config.toml")
	if !strings.HasSuffix(path, expected) {
		t.Errorf("Expected path to end with %s, got %s", expected, path)
	}
}

func TestLoadConfig(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "videos-config-test")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tempDir)

	oldConfigHome := os.Getenv("XDG_CONFIG_HOME")
	defer os.Setenv("XDG_CONFIG_HOME", oldConfigHome)
	os.Setenv("XDG_CONFIG_HOME", tempDir)

	configDir := filepath.Join(tempDir, AppName)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		t.Fatalf("Failed to create config dir: %v", err)
	}

	testCases := []struct {
		name          string
		configContent string
		expectError   bool
		checkConfig   func(*testing.T, Config)
	}{
		{
			name:          "valid config",
			configContent: "download_dir = \"/custom/videos\"\nlisten_addr = \":8080\"\npace_seconds = 5\nmonitor = true\n",
			expectError:   false,
			checkConfig: func(t *testing.T, cfg Config) {
				if cfg.DownloadDir != "/custom/videos" {
					t.Errorf("Expected download dir /custom/videos, got %s", cfg.DownloadDir)
				}
				if cfg.ListenAddr != ":8080" {
					t.Errorf("Expected listen addr :8080, got %s", cfg.ListenAddr)
				}
				if cfg.PaceSeconds != 5 {
					t.Errorf("Expected pace 5, got %d", cfg.PaceSeconds)
				}
				if !cfg.Monitor {
					t.Error("Expected monitor to be enabled")
				}
				// Untouched keys keep their defaults.
				if cfg.VideosFile != "videos.json" {
					t.Errorf("Expected default videos file, got %s", cfg.VideosFile)
				}
			},
		},
		{
			name:          "home expansion",
			configContent: "download_dir = \"~/videos\"\n",
			expectError:   false,
			checkConfig: func(t *testing.T, cfg Config) {
				homeDir, _ := os.UserHomeDir()
				expected := filepath.Join(homeDir, "videos")
				if cfg.DownloadDir != expected {
					t.Errorf("Expected download dir %s, got %s", expected, cfg.DownloadDir)
				}
			},
		},
		{
			name:          "invalid toml",
			configContent: "download_dir = /custom/path\" listen_addr = \":8080\"\n",
			expectError:   true,
		},
		{
			name:          "missing config file",
			configContent: "",
			expectError:   false,
			checkConfig: func(t *testing.T, cfg Config) {
				def := DefaultConfig()
				if cfg != def {
					t.Errorf("Expected defaults when config file is missing, got %+v", cfg)
				}
			},
		},
	}

	configPath := filepath.Join(configDir, "config.toml")
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.configContent == "" {
				os.Remove(configPath)
			} else {
				if err := os.WriteFile(configPath, []byte(tc.configContent), 0644); err != nil {
					t.Fatalf("Failed to write config file: %v", err)
				}
			}

			cfg, err := LoadConfig()
			if tc.expectError {
				if err == nil {
					t.Error("Expected an error, got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("LoadConfig returned an error: %v", err)
			}
			if tc.checkConfig != nil {
				tc.checkConfig(t, cfg)
			}
		})
	}
}

func TestSaveConfigRoundTrip(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "videos-config-save-test")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tempDir)

	oldConfigHome := os.Getenv("XDG_CONFIG_HOME")
	defer os.Setenv("XDG_CONFIG_HOME", oldConfigHome)
	os.Setenv("XDG_CONFIG_HOME", tempDir)

	cfg := DefaultConfig()
	cfg.ListenAddr = ":6000"
	cfg.MaxRetries = 4
	cfg.RunInEnvBinDir = true

	if err := SaveConfig(cfg); err != nil {
		t.Fatalf("SaveConfig returned an error: %v", err)
	}

	loaded, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned an error: %v", err)
	}
	if loaded != cfg {
		t.Errorf("Round trip mismatch: saved %+v, loaded %+v", cfg, loaded)
	}
}
