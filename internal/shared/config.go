package shared

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Session     SessionConfig     `toml:"session"`
	Database    DatabaseConfig    `toml:"database"`
	Redis       RedisConfig       `toml:"redis"`
	Server      ServerConfig      `toml:"server"`
	Log         LogConfig         `toml:"log"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Google  GoogleConfig  `toml:"google"`
	YouTube YouTubeConfig `toml:"youtube"`
}

// GoogleConfig contains Google OAuth client credentials.
type GoogleConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RedirectURI  string `toml:"redirect_uri"`
	AuthURL      string `toml:"auth_url"`
	TokenURL     string `toml:"token_url"`
	UserInfoURL  string `toml:"userinfo_url"`
}

// Map returns the credentials in the shape expected by [services.NewTokenManager].
func (g GoogleConfig) Map() map[string]string {
	return map[string]string{
		"client_id":     g.ClientID,
		"client_secret": g.ClientSecret,
		"redirect_uri":  g.RedirectURI,
		"auth_url":      g.AuthURL,
		"token_url":     g.TokenURL,
		"userinfo_url":  g.UserInfoURL,
	}
}

// YouTubeConfig contains YouTube Data API settings.
//
// APIKey is the server-held key used for unauthenticated channel lookups.
// MaxPages bounds pagination; zero or less disables the guard.
type YouTubeConfig struct {
	APIKey   string `toml:"api_key"`
	BaseURL  string `toml:"base_url"`
	MaxPages int    `toml:"max_pages"`
}

// SessionConfig controls the signed session cookie and the optional token mirror.
//
// Store is one of "none", "sqlite" or "redis".
type SessionConfig struct {
	Secret     string `toml:"secret"`
	CookieName string `toml:"cookie_name"`
	MaxAgeDays int    `toml:"max_age_days"`
	Secure     bool   `toml:"secure"`
	Store      string `toml:"store"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// RedisConfig contains Redis connection settings for the token mirror.
type RedisConfig struct {
	URL    string `toml:"url"`
	Prefix string `toml:"prefix"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// Addr returns the host:port listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LogConfig contains logging settings. An empty File logs to stderr.
type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Values are layered over [DefaultConfig] and then overridden from the environment.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	config.ApplyEnv(os.LookupEnv)
	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// ApplyEnv overrides config values from environment variables.
//
// The names follow the deployment environment of the web app; the first variable found wins.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	set := func(dst *string, keys ...string) {
		for _, k := range keys {
			if v, ok := lookup(k); ok && v != "" {
				*dst = v
				return
			}
		}
	}

	set(&c.Credentials.Google.ClientID, "GOOGLE_CLIENT_ID")
	set(&c.Credentials.Google.ClientSecret, "GOOGLE_CLIENT_SECRET")
	set(&c.Credentials.Google.RedirectURI, "GOOGLE_REDIRECT_URI")
	set(&c.Credentials.YouTube.APIKey, "YOUTUBE_API_KEY", "NEXT_PUBLIC_YOUTUBE_API_KEY")
	set(&c.Session.Secret, "SESSION_SECRET", "NEXTAUTH_SECRET")
	set(&c.Database.Path, "DATABASE_URL")
	set(&c.Redis.URL, "REDIS_URL")
}

// Validate checks the settings required to run the web server.
func (c *Config) Validate() error {
	if c.Credentials.Google.ClientID == "" || c.Credentials.Google.ClientSecret == "" {
		return fmt.Errorf("%w: google client_id and client_secret must be set", ErrMissingCredentials)
	}
	if len(c.Session.Secret) < 32 {
		return fmt.Errorf("%w: session secret must be at least 32 bytes", ErrInvalidConfig)
	}
	switch c.Session.Store {
	case "", "none", "sqlite":
	case "redis":
		if c.Redis.URL == "" {
			return fmt.Errorf("%w: redis url required for session store redis", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown session store %q", ErrInvalidConfig, c.Session.Store)
	}
	return nil
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// LoadOrDefault loads the config at path when it exists, otherwise the defaults with environment overrides.
func LoadOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		config := DefaultConfig()
		config.ApplyEnv(os.LookupEnv)
		return config, nil
	}
	return LoadConfig(path)
}
