// ABOUTME: This file implements configuration management with YAML file and env support
// ABOUTME: Provides validation, defaults, and typed duration parsing for production use
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"mail-digest/domain"
)

// Engine identifies a summarizer variant.
type Engine string

const (
	EngineLocal  Engine = "local"
	EngineRemote Engine = "remote"
)

// Duration wraps time.Duration so YAML values like "30s" parse directly.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config aggregates all service configuration blocks.
type Config struct {
	Server     ServerConfig      `yaml:"server"`
	Fetch      domain.FetchRules `yaml:"fetch"`
	IMAP       IMAPConfig        `yaml:"imap"`
	Summarizer SummarizerConfig  `yaml:"summarizer"`
	Database   DatabaseConfig    `yaml:"database"`
	Cache      CacheConfig       `yaml:"cache"`
	Storage    StorageConfig     `yaml:"storage"`
	Pipeline   PipelineConfig    `yaml:"pipeline"`
}

type ServerConfig struct {
	Port            int      `yaml:"port"`
	ShutdownTimeout Duration `yaml:"shutdown_timeout"`
	ReadTimeout     Duration `yaml:"read_timeout"`
	WriteTimeout    Duration `yaml:"write_timeout"`
}

type IMAPConfig struct {
	Addr     string `yaml:"addr"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Mailbox  string `yaml:"mailbox"`
	TLS      bool   `yaml:"tls"`
}

type SummarizerConfig struct {
	Engine         Engine       `yaml:"engine"`
	MaxInputTokens int          `yaml:"max_input_tokens"`
	RequestTimeout Duration     `yaml:"request_timeout"`
	Remote         RemoteConfig `yaml:"remote"`
	Local          LocalConfig  `yaml:"local"`
}

type RemoteConfig struct {
	// Provider tags stored summaries, e.g. "openai" in "openai/gpt-4o-mini".
	Provider string `yaml:"provider"`
	BaseURL  string `yaml:"base_url"`
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
}

type LocalConfig struct {
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
}

type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

type CacheConfig struct {
	Addr    string   `yaml:"addr"`
	TTL     Duration `yaml:"ttl"`
	Enabled bool     `yaml:"enabled"`
}

type StorageConfig struct {
	// EncryptionKey is the at-rest key as 64 hex characters (32 bytes).
	EncryptionKey string `yaml:"encryption_key"`
}

type PipelineConfig struct {
	// Workers bounds per-item concurrency. 1 means strictly sequential.
	Workers int `yaml:"workers"`
}

// Load reads the YAML config at path, applies environment overrides and
// defaults, and validates the result.
func Load(path string) (*Config, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := defaultConfig()
	if err := yaml.Unmarshal(buf, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ShutdownTimeout: Duration(30 * time.Second),
			ReadTimeout:     Duration(10 * time.Second),
			WriteTimeout:    Duration(300 * time.Second),
		},
		Fetch: domain.FetchRules{
			Mode:        domain.FetchModeUnread,
			MaxMessages: 20,
			DaysBack:    7,
		},
		IMAP: IMAPConfig{
			Mailbox: "INBOX",
			TLS:     true,
		},
		Summarizer: SummarizerConfig{
			Engine:         EngineLocal,
			MaxInputTokens: 512,
			RequestTimeout: Duration(240 * time.Second),
			Remote: RemoteConfig{
				Provider: "openai",
			},
		},
		Cache: CacheConfig{
			TTL: Duration(time.Hour),
		},
		Pipeline: PipelineConfig{
			Workers: 1,
		},
	}
}

// applyEnvOverrides lets deploy-time secrets and endpoints override the file.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("MAILDIGEST_SERVER_PORT"); v != "" {
		if port, err := parsePort(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("MAILDIGEST_IMAP_ADDR"); v != "" {
		cfg.IMAP.Addr = v
	}
	if v := os.Getenv("MAILDIGEST_IMAP_USERNAME"); v != "" {
		cfg.IMAP.Username = v
	}
	if v := os.Getenv("MAILDIGEST_IMAP_PASSWORD"); v != "" {
		cfg.IMAP.Password = v
	}
	if v := os.Getenv("MAILDIGEST_SUMMARIZER_ENGINE"); v != "" {
		cfg.Summarizer.Engine = Engine(v)
	}
	if v := os.Getenv("MAILDIGEST_SUMMARIZER_REMOTE_API_KEY"); v != "" {
		cfg.Summarizer.Remote.APIKey = v
	}
	if v := os.Getenv("MAILDIGEST_SUMMARIZER_REMOTE_BASE_URL"); v != "" {
		cfg.Summarizer.Remote.BaseURL = v
	}
	if v := os.Getenv("MAILDIGEST_SUMMARIZER_LOCAL_BASE_URL"); v != "" {
		cfg.Summarizer.Local.BaseURL = v
	}
	if v := os.Getenv("MAILDIGEST_DATABASE_DSN"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("MAILDIGEST_CACHE_ADDR"); v != "" {
		cfg.Cache.Addr = v
	}
	if v := os.Getenv("MAILDIGEST_STORAGE_ENCRYPTION_KEY"); v != "" {
		cfg.Storage.EncryptionKey = v
	}
}

func parsePort(v string) (int, error) {
	var port int
	if _, err := fmt.Sscanf(v, "%d", &port); err != nil {
		return 0, err
	}
	return port, nil
}
