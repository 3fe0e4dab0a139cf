package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	DefaultConcurrency    = 1
	DefaultExtractTimeout = "2m"
	DefaultMaxDepth       = 4
)

// Config represents the main configuration for ua.
type Config struct {
	BaseDir    string           `toml:"base_dir"`
	LogDir     string           `toml:"log_dir"`
	Repository RepositoryConfig `toml:"repository"`
	Store      StoreConfig      `toml:"store"`
	Index      IndexConfig      `toml:"index"`
	Authors    AuthorsConfig    `toml:"authors"`
	Filesystem FilesystemConfig `toml:"filesystem"`
}

// RepositoryConfig represents configuration for the content record store.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type RepositoryConfig struct {
	Type    string `toml:"type"`               // "sqlite" or "memory"
	DataDir string `toml:"data_dir,omitempty"` // only used for type=sqlite
}

// StoreConfig represents configuration for where submitted files are published.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type StoreConfig struct {
	Type string `toml:"type"` // "nop", "memory", "filesystem" or "s3"

	// FileSystem-specific fields (only used when Type == "filesystem")
	FSRoot    string `toml:"fs_root,omitempty"`
	FSBaseURL string `toml:"fs_base_url,omitempty"`

	// S3-specific fields (only used when Type == "s3")
	S3Bucket    string `toml:"s3_bucket,omitempty"`
	S3Prefix    string `toml:"s3_prefix,omitempty"`
	S3Region    string `toml:"s3_region,omitempty"`
	S3Endpoint  string `toml:"s3_endpoint,omitempty"`
	S3PublicURL string `toml:"s3_public_url,omitempty"`

	// Static credentials. When empty the default AWS credential chain is used.
	S3AccessKeyID     string `toml:"s3_access_key_id,omitempty"`
	S3SecretAccessKey string `toml:"s3_secret_access_key,omitempty"`
}

// IndexConfig holds indexing defaults. Command line flags override them.
type IndexConfig struct {
	Concurrency    int      `toml:"concurrency"`
	ExtractTimeout string   `toml:"extract_timeout"` // Go duration, e.g. "2m"
	MaxDepth       int      `toml:"max_depth"`       // nested archive levels below the submission
	StockPackages  []string `toml:"stock_packages,omitempty"` // empty uses the built-in list
}

// Timeout parses ExtractTimeout, falling back to the default when unset.
func (c IndexConfig) Timeout() (time.Duration, error) {
	s := c.ExtractTimeout
	if s == "" {
		s = DefaultExtractTimeout
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid extract_timeout %q: %w", c.ExtractTimeout, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("extract_timeout must be positive, got %s", d)
	}
	return d, nil
}

// AuthorsConfig maps canonical author names to the aliases they have
// published under.
type AuthorsConfig struct {
	Aliases map[string][]string `toml:"aliases,omitempty"`
}

// FilesystemConfig holds filesystem-related settings.
type FilesystemConfig struct {
	Ignore []string `toml:"ignore"`
}

// NewConfig creates a new Config rooted at baseDir with default settings.
func NewConfig(baseDir string) *Config {
	return &Config{
		BaseDir: baseDir,
		LogDir:  filepath.Join(baseDir, "log"),
		Repository: RepositoryConfig{
			Type:    "sqlite",
			DataDir: filepath.Join(baseDir, "db"),
		},
		Store: StoreConfig{Type: "nop"},
		Index: IndexConfig{
			Concurrency:    DefaultConcurrency,
			ExtractTimeout: DefaultExtractTimeout,
			MaxDepth:       DefaultMaxDepth,
		},
		Filesystem: FilesystemConfig{
			Ignore: []string{".git", ".DS_Store", "Thumbs.db"},
		},
	}
}

// Validate checks the settings that cannot be checked by decoding alone.
func (c *Config) Validate() error {
	if c.Index.Concurrency < 0 {
		return fmt.Errorf("index.concurrency must not be negative, got %d", c.Index.Concurrency)
	}
	if c.Index.MaxDepth < 0 {
		return fmt.Errorf("index.max_depth must not be negative, got %d", c.Index.MaxDepth)
	}
	if _, err := c.Index.Timeout(); err != nil {
		return fmt.Errorf("index: %w", err)
	}
	switch c.Repository.Type {
	case "sqlite", "memory":
	default:
		return fmt.Errorf("unknown repository type: %q", c.Repository.Type)
	}
	switch c.Store.Type {
	case "", "nop", "memory", "filesystem", "s3":
	default:
		return fmt.Errorf("unknown store type: %q", c.Store.Type)
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
