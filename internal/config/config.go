package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config represents the main configuration for cfbak.
type Config struct {
	LogDir     string           `toml:"log_dir"`
	Cloudflare CloudflareConfig `toml:"cloudflare"`
	Store      StoreConfig      `toml:"store"`
	Database   DatabaseConfig   `toml:"database"`
}

// CloudflareConfig holds the zone-management service credential.
type CloudflareConfig struct {
	// APIToken authenticates against the Cloudflare API. The
	// CLOUDFLARE_API_TOKEN environment variable takes precedence.
	APIToken string `toml:"api_token"`
}

// StoreConfig selects and configures the snapshot store backend.
// This uses a tagged union pattern - the Type field determines which other
// fields are relevant.
type StoreConfig struct {
	Type string `toml:"type"` // "github", "s3" or "memory"

	// GitHub-specific fields (only used when Type == "github")
	Owner string `toml:"owner"`
	Repo  string `toml:"repo"`
	// Token authenticates against the GitHub API. The GITHUB_TOKEN
	// environment variable takes precedence.
	Token string `toml:"token,omitempty"`

	// S3-specific fields (only used when Type == "s3")
	S3Bucket    string `toml:"s3_bucket,omitempty"`
	S3Prefix    string `toml:"s3_prefix,omitempty"`
	S3Region    string `toml:"s3_region,omitempty"`
	S3AccessKey string `toml:"s3_access_key,omitempty"`
	S3SecretKey string `toml:"s3_secret_key,omitempty"`
}

// DatabaseConfig configures the local run-history database.
// This uses a tagged union pattern - the Type field determines which other
// fields are relevant.
type DatabaseConfig struct {
	Type    string `toml:"type"`               // "sqlite" or "memory"
	DataDir string `toml:"data_dir,omitempty"` // only used for type=sqlite
}

// NewConfig creates a Config with sensible defaults rooted at baseDir.
func NewConfig(baseDir string) *Config {
	return &Config{
		LogDir: filepath.Join(baseDir, "log"),
		Store: StoreConfig{
			Type: "github",
		},
		Database: DatabaseConfig{
			Type:    "sqlite",
			DataDir: filepath.Join(baseDir, "db"),
		},
	}
}

// ApplyEnv overlays credentials from the environment. Environment values
// win over file values so tokens can stay out of the config file entirely.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("CLOUDFLARE_API_TOKEN"); v != "" {
		c.Cloudflare.APIToken = v
	}
	if v := os.Getenv("GITHUB_TOKEN"); v != "" {
		c.Store.Token = v
	}
}

// Validate fails fast when a required credential or destination identity is
// missing. Call after ApplyEnv.
func (c *Config) Validate() error {
	if c.Cloudflare.APIToken == "" {
		return fmt.Errorf("cloudflare api_token is required (config or CLOUDFLARE_API_TOKEN)")
	}
	switch c.Store.Type {
	case "github":
		if c.Store.Token == "" {
			return fmt.Errorf("store token is required (config or GITHUB_TOKEN)")
		}
		if c.Store.Owner == "" || c.Store.Repo == "" {
			return fmt.Errorf("store owner and repo are required")
		}
	case "s3":
		if c.Store.S3Bucket == "" {
			return fmt.Errorf("store s3_bucket is required")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown store type: %s", c.Store.Type)
	}
	return nil
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from the provided reader.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Write encodes a Config to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ReadFromFile reads a Config from the specified file path.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

// writeToFile writes a Config to the specified file path.
func writeToFile(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Init initializes a new config file at the specified path with the provided Config.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}
