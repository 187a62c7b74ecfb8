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

		if config.API.BaseURL != "https://music-api.gdstudio.xyz/api.php" {
			t.Errorf("expected default aggregator URL, got %s", config.API.BaseURL)
		}
		if config.API.Timeout != 15*time.Second {
			t.Errorf("expected api timeout 15s, got %v", config.API.Timeout)
		}
		if config.Player.Throttle != 500*time.Millisecond {
			t.Errorf("expected throttle 500ms, got %v", config.Player.Throttle)
		}
		if config.Player.Quality != "999" {
			t.Errorf("expected quality 999, got %s", config.Player.Quality)
		}
		if config.Search.Count != 20 || config.Search.Pages != 1 {
			t.Errorf("expected search count 20 pages 1, got %d/%d", config.Search.Count, config.Search.Pages)
		}
		if config.Cache.CoverSize != 300 {
			t.Errorf("expected cover size 300, got %d", config.Cache.CoverSize)
		}
		if config.Server.Addr() != "127.0.0.1:8787" {
			t.Errorf("expected server addr 127.0.0.1:8787, got %s", config.Server.Addr())
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

		if config.API.BaseURL != DefaultConfig().API.BaseURL {
			t.Errorf("created config base URL doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		t.Run("partial file keeps defaults", func(t *testing.T) {
			configPath := filepath.Join(t.TempDir(), "config.toml")
			content := "[api]\nbase_url = \"http://localhost:9999/api\"\n\n[player]\nthrottle = \"1s\"\n"
			if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
				t.Fatalf("failed to write config: %v", err)
			}

			config, err := LoadConfig(configPath)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if config.API.BaseURL != "http://localhost:9999/api" {
				t.Errorf("expected overridden base URL, got %s", config.API.BaseURL)
			}
			if config.Player.Throttle != time.Second {
				t.Errorf("expected throttle 1s, got %v", config.Player.Throttle)
			}
			if config.Search.Count != 20 {
				t.Errorf("expected default search count, got %d", config.Search.Count)
			}
		})

		t.Run("missing file", func(t *testing.T) {
			if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
				t.Error("expected error for missing file")
			}
		})

		t.Run("invalid TOML", func(t *testing.T) {
			configPath := filepath.Join(t.TempDir(), "config.toml")
			os.WriteFile(configPath, []byte("[api\nbase_url ="), 0644)

			_, err := LoadConfig(configPath)
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})

		t.Run("invalid cache driver", func(t *testing.T) {
			configPath := filepath.Join(t.TempDir(), "config.toml")
			os.WriteFile(configPath, []byte("[cache]\ndriver = \"redis\"\n"), 0644)

			_, err := LoadConfig(configPath)
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	})

	t.Run("sqlite cache must stay in memory", func(t *testing.T) {
		tc := []struct {
			name    string
			path    string
			wantErr bool
		}{
			{name: "memory shorthand", path: ":memory:"},
			{name: "shared memory dsn", path: MemoryDSN},
			{name: "named memory dsn", path: "file:covers?mode=memory&cache=shared"},
			{name: "file on disk", path: "covers.db", wantErr: true},
			{name: "file uri", path: "file:covers.db", wantErr: true},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				config := DefaultConfig()
				config.Cache.Driver = "sqlite"
				config.Cache.Path = tt.path

				err := config.Validate()
				if tt.wantErr && !errors.Is(err, ErrInvalidConfig) {
					t.Errorf("expected ErrInvalidConfig, got %v", err)
				}
				if !tt.wantErr && err != nil {
					t.Errorf("expected no error, got %v", err)
				}
			})
		}
	})

	t.Run("ApplyEnv malformed .env", func(t *testing.T) {
		dir := t.TempDir()
		os.WriteFile(filepath.Join(dir, ".env"), []byte("CLMUSIC_API_BASE_URL='unterminated\n"), 0644)
		t.Chdir(dir)

		if err := ApplyEnv(DefaultConfig()); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("ApplyEnv", func(t *testing.T) {
		t.Setenv("CLMUSIC_API_BASE_URL", "http://proxy.local/api")
		t.Setenv("CLMUSIC_PLAYER_THROTTLE", "250ms")
		t.Setenv("CLMUSIC_SEARCH_WORKERS", "3")

		config := DefaultConfig()
		if err := ApplyEnv(config); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if config.API.BaseURL != "http://proxy.local/api" {
			t.Errorf("expected env base URL, got %s", config.API.BaseURL)
		}
		if config.Player.Throttle != 250*time.Millisecond {
			t.Errorf("expected env throttle 250ms, got %v", config.Player.Throttle)
		}
		if config.Search.Workers != 3 {
			t.Errorf("expected env workers 3, got %d", config.Search.Workers)
		}
		if config.Player.Quality != "999" {
			t.Errorf("expected unset values to keep defaults, got quality %s", config.Player.Quality)
		}
	})
}
