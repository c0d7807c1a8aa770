package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Database.Path != "./playctl.db" {
			t.Errorf("expected database path ./playctl.db, got %s", config.Database.Path)
		}

		if config.Server.Port != 8080 {
			t.Errorf("expected server port 8080, got %d", config.Server.Port)
		}

		if config.API.TokenURL != "https://accounts.spotify.com/api/token" {
			t.Errorf("expected spotify token url, got %s", config.API.TokenURL)
		}

		if config.Player.PollInterval.Duration != 5*time.Second {
			t.Errorf("expected poll interval 5s, got %v", config.Player.PollInterval)
		}

		if config.Credentials.Spotify.ClientID != "your_spotify_client_id" {
			t.Errorf("expected spotify client_id your_spotify_client_id, got %s", config.Credentials.Spotify.ClientID)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		if config.Database.Path != DefaultConfig().Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[database]
path = "/custom/path.db"

[credentials.spotify]
client_id = "test_client_id"
client_secret = "test_secret"

[player]
device_name = "Kitchen"
ready_timeout = "30s"
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Database.Path != "/custom/path.db" {
			t.Errorf("expected database path /custom/path.db, got %s", config.Database.Path)
		}
		if config.Player.DeviceName != "Kitchen" {
			t.Errorf("expected device name Kitchen, got %s", config.Player.DeviceName)
		}
		if config.Player.ReadyTimeout.Duration != 30*time.Second {
			t.Errorf("expected ready timeout 30s, got %v", config.Player.ReadyTimeout)
		}

		t.Run("keeps defaults for missing keys", func(t *testing.T) {
			if config.Server.Port != 8080 {
				t.Errorf("expected default server port 8080, got %d", config.Server.Port)
			}
			if config.API.BaseURL != "https://api.spotify.com/v1/" {
				t.Errorf("expected default base url, got %s", config.API.BaseURL)
			}
		})
	})

	t.Run("LoadConfig rejects bad durations", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(configPath, []byte("[player]\npoll_interval = \"soon\"\n"), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		if _, err := LoadConfig(configPath); err == nil {
			t.Error("expected error for invalid duration")
		}
	})

	t.Run("LoadConfigOrDefault", func(t *testing.T) {
		config, err := LoadConfigOrDefault(filepath.Join(t.TempDir(), "missing.toml"))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if config.Database.Path != "./playctl.db" {
			t.Errorf("expected default config, got database path %s", config.Database.Path)
		}
	})

	t.Run("SaveConfig round trips", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		config := DefaultConfig()
		config.Credentials.Spotify.ClientID = "saved_id"
		config.Player.PollInterval = Duration{Duration: 2 * time.Second}

		if err := SaveConfig(configPath, config); err != nil {
			t.Fatalf("failed to save config: %v", err)
		}

		loaded, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load saved config: %v", err)
		}
		if loaded.Credentials.Spotify.ClientID != "saved_id" {
			t.Errorf("expected saved_id, got %s", loaded.Credentials.Spotify.ClientID)
		}
		if loaded.Player.PollInterval.Duration != 2*time.Second {
			t.Errorf("expected poll interval 2s, got %v", loaded.Player.PollInterval)
		}
	})

	t.Run("ApplyEnv", func(t *testing.T) {
		envPath := filepath.Join(t.TempDir(), ".env")
		if err := os.WriteFile(envPath, []byte("SPOTIFY_DEVICE_NAME=Living Room\n"), 0644); err != nil {
			t.Fatalf("failed to write env file: %v", err)
		}
		t.Setenv("SPOTIFY_CLIENT_ID", "env_client_id")
		t.Setenv("SPOTIFY_DEVICE_NAME", "")
		os.Unsetenv("SPOTIFY_DEVICE_NAME")

		config := DefaultConfig()
		ApplyEnv(config, envPath)

		if config.Credentials.Spotify.ClientID != "env_client_id" {
			t.Errorf("expected env_client_id, got %s", config.Credentials.Spotify.ClientID)
		}
		if config.Player.DeviceName != "Living Room" {
			t.Errorf("expected device name from .env, got %q", config.Player.DeviceName)
		}
	})

	t.Run("Validate", func(t *testing.T) {
		err := SpotifyConfig{ClientID: "id"}.Validate()
		if !errors.Is(err, ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}

		if err := (SpotifyConfig{ClientID: "id", ClientSecret: "secret"}).Validate(); err != nil {
			t.Errorf("expected valid credentials, got %v", err)
		}
	})
}
