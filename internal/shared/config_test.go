package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Database.Path != "./tubelist.db" {
			t.Errorf("expected database path ./tubelist.db, got %s", config.Database.Path)
		}

		if config.Server.Port != 3000 {
			t.Errorf("expected server port 3000, got %d", config.Server.Port)
		}

		if config.Credentials.YouTube.BaseURL != "https://www.googleapis.com/youtube/v3" {
			t.Errorf("unexpected youtube base URL %s", config.Credentials.YouTube.BaseURL)
		}

		if config.Credentials.YouTube.MaxPages != 1000 {
			t.Errorf("expected max_pages 1000, got %d", config.Credentials.YouTube.MaxPages)
		}

		if config.Session.Store != "sqlite" {
			t.Errorf("expected session store sqlite, got %s", config.Session.Store)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")

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
		configPath := filepath.Join(t.TempDir(), "config.toml")

		testConfig := `[database]
path = "/custom/path.db"

[server]
host = "0.0.0.0"
port = 8080

[credentials.google]
client_id = "test_client_id"
client_secret = "test_secret"

[session]
store = "redis"
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
		if config.Server.Addr() != "0.0.0.0:8080" {
			t.Errorf("expected addr 0.0.0.0:8080, got %s", config.Server.Addr())
		}
		if config.Credentials.Google.ClientID != "test_client_id" {
			t.Errorf("expected google client_id test_client_id, got %s", config.Credentials.Google.ClientID)
		}
		if config.Credentials.Google.TokenURL != "https://oauth2.googleapis.com/token" {
			t.Errorf("expected token URL default to survive partial file, got %s", config.Credentials.Google.TokenURL)
		}
		if config.Session.Store != "redis" {
			t.Errorf("expected session store redis, got %s", config.Session.Store)
		}
	})

	t.Run("LoadConfig missing file", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
			t.Error("expected error for missing file")
		}
	})

	t.Run("ApplyEnv", func(t *testing.T) {
		env := map[string]string{
			"GOOGLE_CLIENT_ID":            "env-id",
			"NEXTAUTH_SECRET":             "legacy-secret",
			"NEXT_PUBLIC_YOUTUBE_API_KEY": "legacy-key",
			"YOUTUBE_API_KEY":             "",
			"DATABASE_URL":                "sqlite:///tmp/x.db",
		}
		lookup := func(k string) (string, bool) {
			v, ok := env[k]
			return v, ok
		}

		config := DefaultConfig()
		config.ApplyEnv(lookup)

		if config.Credentials.Google.ClientID != "env-id" {
			t.Errorf("expected client id from env, got %s", config.Credentials.Google.ClientID)
		}
		if config.Session.Secret != "legacy-secret" {
			t.Errorf("expected NEXTAUTH_SECRET fallback, got %s", config.Session.Secret)
		}
		if config.Credentials.YouTube.APIKey != "legacy-key" {
			t.Errorf("expected empty YOUTUBE_API_KEY to fall through, got %s", config.Credentials.YouTube.APIKey)
		}
		if config.Database.Path != "sqlite:///tmp/x.db" {
			t.Errorf("expected DATABASE_URL, got %s", config.Database.Path)
		}
		if config.Credentials.Google.ClientSecret != "your_google_client_secret" {
			t.Errorf("unset env var should keep file value, got %s", config.Credentials.Google.ClientSecret)
		}
	})

	t.Run("Validate", func(t *testing.T) {
		valid := func() *Config {
			c := DefaultConfig()
			c.Session.Secret = "0123456789abcdef0123456789abcdef"
			return c
		}

		if err := valid().Validate(); err != nil {
			t.Fatalf("expected valid config, got %v", err)
		}

		c := valid()
		c.Credentials.Google.ClientSecret = ""
		if err := c.Validate(); !errors.Is(err, ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}

		c = valid()
		c.Session.Secret = "short"
		if err := c.Validate(); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig for short secret, got %v", err)
		}

		c = valid()
		c.Session.Store = "redis"
		if err := c.Validate(); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig for redis without url, got %v", err)
		}

		c = valid()
		c.Session.Store = "memcached"
		if err := c.Validate(); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig for unknown store, got %v", err)
		}
	})
}
