package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config represents the main configuration for the alsun client.
type Config struct {
	DeviceID string        `toml:"device_id"`
	BaseURL  string        `toml:"base_url"`
	LogDir   string        `toml:"log_dir"`
	HTTP     HTTPConfig    `toml:"http"`
	Cache    CacheConfig   `toml:"cache"`
	Chat     ChatConfig    `toml:"chat"`
	Storage  StorageConfig `toml:"storage"`
	Sealing  SealingConfig `toml:"sealing"`
}

// HTTPConfig holds request timeouts in seconds. Reads and metadata writes
// use Timeout; file uploads use UploadTimeout.
type HTTPConfig struct {
	TimeoutSeconds       int `toml:"timeout_seconds"`
	UploadTimeoutSeconds int `toml:"upload_timeout_seconds"`
}

// CacheConfig bounds the scoped response cache. Zero values fall back to
// the defaults below.
type CacheConfig struct {
	TTLSeconds int `toml:"ttl_seconds"`
	MaxEntries int `toml:"max_entries"`
}

// ChatConfig holds chat screen settings.
type ChatConfig struct {
	PollSeconds int `toml:"poll_seconds"`
}

// StorageConfig represents configuration for the local state store.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type StorageConfig struct {
	Type    string `toml:"type"`               // "sqlite" or "memory"
	DataDir string `toml:"data_dir,omitempty"` // only used for type=sqlite
}

// SealingConfig controls at-rest encryption of the persisted session.
type SealingConfig struct {
	Type          string `toml:"type"` // "none" (default) or "age"
	RecipientPath string `toml:"recipient_path,omitempty"`
	IdentityPath  string `toml:"identity_path,omitempty"`
}

// Defaults applied where the file leaves a value unset.
const (
	DefaultBaseURL       = "https://ki74.alalsunacademy.com/api"
	defaultTimeout       = 10
	defaultUploadTimeout = 30
	defaultCacheTTL      = 300
	defaultCacheEntries  = 64
	defaultPollSeconds   = 10
)

// NewConfig creates a new Config with the provided values and default sub-configs.
func NewConfig(deviceID, baseDir string) *Config {
	return &Config{
		DeviceID: deviceID,
		BaseURL:  DefaultBaseURL,
		LogDir:   filepath.Join(baseDir, "log"),
		HTTP: HTTPConfig{
			TimeoutSeconds:       defaultTimeout,
			UploadTimeoutSeconds: defaultUploadTimeout,
		},
		Cache: CacheConfig{
			TTLSeconds: defaultCacheTTL,
			MaxEntries: defaultCacheEntries,
		},
		Chat: ChatConfig{PollSeconds: defaultPollSeconds},
		Storage: StorageConfig{
			Type:    "sqlite",
			DataDir: filepath.Join(baseDir, "db"),
		},
		Sealing: SealingConfig{
			Type:          "none",
			RecipientPath: filepath.Join(baseDir, "keys", "alsun.pub"),
			IdentityPath:  filepath.Join(baseDir, "keys", "alsun.key"),
		},
	}
}

// Timeout returns the request timeout for reads and metadata writes.
func (c *Config) Timeout() time.Duration {
	return secondsOr(c.HTTP.TimeoutSeconds, defaultTimeout)
}

// UploadTimeout returns the request timeout for file uploads.
func (c *Config) UploadTimeout() time.Duration {
	return secondsOr(c.HTTP.UploadTimeoutSeconds, defaultUploadTimeout)
}

// CacheTTL returns how long a cached scope result stays fresh.
func (c *Config) CacheTTL() time.Duration {
	return secondsOr(c.Cache.TTLSeconds, defaultCacheTTL)
}

// CacheMaxEntries returns the cache entry bound.
func (c *Config) CacheMaxEntries() int {
	if c.Cache.MaxEntries <= 0 {
		return defaultCacheEntries
	}
	return c.Cache.MaxEntries
}

// PollInterval returns the chat auto-refresh interval.
func (c *Config) PollInterval() time.Duration {
	return secondsOr(c.Chat.PollSeconds, defaultPollSeconds)
}

func secondsOr(v, def int) time.Duration {
	if v <= 0 {
		v = def
	}
	return time.Duration(v) * time.Second
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
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
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

// Save writes a Config to the specified path, replacing any existing file.
func Save(path string, cfg *Config) error {
	return writeToFile(path, cfg)
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
