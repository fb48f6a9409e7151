package config

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// Validate checks the whole configuration and reports every violation at
// once, so a broken deploy surfaces all its problems in one run.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, "server.port must be between 1 and 65535")
	}

	errs = append(errs, c.Fetch.Validate()...)

	if c.IMAP.Addr == "" {
		errs = append(errs, "imap.addr is required")
	}
	if c.IMAP.Username == "" {
		errs = append(errs, "imap.username is required")
	}
	if c.IMAP.Mailbox == "" {
		errs = append(errs, "imap.mailbox is required")
	}

	errs = append(errs, c.Summarizer.validate()...)

	if c.Database.DSN == "" {
		errs = append(errs, "database.dsn is required")
	}

	if c.Cache.Enabled && c.Cache.Addr == "" {
		errs = append(errs, "cache.addr is required when cache is enabled")
	}

	if key, err := hex.DecodeString(c.Storage.EncryptionKey); err != nil || len(key) != 32 {
		errs = append(errs, "storage.encryption_key must be 64 hex characters")
	}

	if c.Pipeline.Workers < 1 {
		errs = append(errs, "pipeline.workers must be at least 1")
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}

	return nil
}

func (s SummarizerConfig) validate() []string {
	var errs []string

	switch s.Engine {
	case EngineLocal:
		if s.Local.BaseURL == "" {
			errs = append(errs, "summarizer.local.base_url is required for local engine")
		}
		if s.Local.Model == "" {
			errs = append(errs, "summarizer.local.model is required for local engine")
		}
	case EngineRemote:
		if s.Remote.Provider == "" {
			errs = append(errs, "summarizer.remote.provider is required for remote engine")
		}
		if s.Remote.BaseURL == "" {
			errs = append(errs, "summarizer.remote.base_url is required for remote engine")
		}
		if s.Remote.APIKey == "" {
			errs = append(errs, "summarizer.remote.api_key is required for remote engine")
		}
		if s.Remote.Model == "" {
			errs = append(errs, "summarizer.remote.model is required for remote engine")
		}
	default:
		errs = append(errs, fmt.Sprintf("summarizer.engine %q must be local or remote", s.Engine))
	}

	if s.MaxInputTokens <= 0 {
		errs = append(errs, "summarizer.max_input_tokens must be positive")
	}

	if s.RequestTimeout <= 0 {
		errs = append(errs, "summarizer.request_timeout must be positive")
	}

	return errs
}
