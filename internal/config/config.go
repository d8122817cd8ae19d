// Package config provides configuration management for the Quasar Documentation MCP Server.
// It supports loading configuration from multiple sources: command-line flags, config files,
// and environment variables, with proper precedence handling.
package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration settings for the Quasar Documentation MCP Server.
type Config struct {
	// Server settings
	LogLevel string // Log level: debug, info, warn, error (default: info)

	// Transport settings
	TransportType string // stdio, sse or streamablehttp (default: stdio)
	Host          string // Bind host for network transports (default: localhost)
	Port          int    // Bind port for network transports (required unless stdio)

	// Documentation source settings
	GitHubOwner  string // Repository owner (default: quasarframework)
	GitHubRepo   string // Repository name (default: quasar)
	GitHubBranch string // Branch to read from (default: dev)
	GitHubToken  string // Optional token, raises the GitHub API rate limit
	DocsRoot     string // Directory inside the repository holding the pages (default: docs/src/pages)
	GitHubAPIURL string // GitHub REST API base (default: https://api.github.com)
	RawBaseURL   string // Raw content host (default: https://raw.githubusercontent.com)
	DocsSiteURL  string // Public documentation site used for page links (default: https://quasar.dev)
	LocalDocsDir string // When set, pages are read from this directory instead of GitHub

	// Fetch settings
	FetchTimeout  int // Timeout for a single request in seconds (default: 30)
	MaxRetries    int // Retry attempts after the first request (default: 3)
	MaxConcurrent int // Maximum concurrent fetches (default: 5)

	// Index and search settings
	IndexTTL              time.Duration // Maximum age of the cached index (default: 1h)
	DefaultSearchLimit    int           // Results returned when the caller gives no limit (default: 10)
	MaxSearchResults      int           // Upper bound for a caller supplied limit (default: 50)
	ContentSearchMaxPages int           // Pages fetched by a content search without index hits (default: 40)
}

// NewConfig creates a new Config with default values for all optional parameters.
func NewConfig() *Config {
	return &Config{
		LogLevel: "info",

		TransportType: "stdio",
		Host:          "localhost",
		Port:          0,

		GitHubOwner:  "quasarframework",
		GitHubRepo:   "quasar",
		GitHubBranch: "dev",
		DocsRoot:     "docs/src/pages",
		GitHubAPIURL: "https://api.github.com",
		RawBaseURL:   "https://raw.githubusercontent.com",
		DocsSiteURL:  "https://quasar.dev",

		FetchTimeout:  30,
		MaxRetries:    3,
		MaxConcurrent: 5,

		IndexTTL:              time.Hour,
		DefaultSearchLimit:    10,
		MaxSearchResults:      50,
		ContentSearchMaxPages: 40,
	}
}

// Load loads configuration from environment variables with defaults.
func Load() (*Config, error) {
	cfg := NewConfig()
	loadFromEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromFile loads configuration from a YAML file, with environment variables
// as fallback, and defaults as final fallback.
// The precedence order is: config file > environment variables > defaults.
func LoadFromFile(configPath string) (*Config, error) {
	return LoadWithFlags(configPath, nil)
}

// LoadWithFlags loads configuration from command-line flags, config file,
// environment variables, and defaults.
// The precedence order is: flags > config file > environment variables > defaults.
func LoadWithFlags(configPath string, flags map[string]interface{}) (*Config, error) {
	cfg := NewConfig()
	loadFromEnv(cfg)

	if configPath != "" {
		v := viper.New()
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		applyFile(cfg, v)
	}

	applyFlags(cfg, flags)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyFile overrides cfg with the keys present in the config file.
func applyFile(cfg *Config, v *viper.Viper) {
	setString := func(key string, dst *string) {
		if v.IsSet(key) {
			*dst = v.GetString(key)
		}
	}
	setInt := func(key string, dst *int) {
		if v.IsSet(key) {
			*dst = v.GetInt(key)
		}
	}

	setString("log_level", &cfg.LogLevel)
	setString("transport_type", &cfg.TransportType)
	setString("host", &cfg.Host)
	setInt("port", &cfg.Port)

	setString("github_owner", &cfg.GitHubOwner)
	setString("github_repo", &cfg.GitHubRepo)
	setString("github_branch", &cfg.GitHubBranch)
	setString("github_token", &cfg.GitHubToken)
	setString("docs_root", &cfg.DocsRoot)
	setString("github_api_url", &cfg.GitHubAPIURL)
	setString("raw_base_url", &cfg.RawBaseURL)
	setString("docs_site_url", &cfg.DocsSiteURL)
	setString("local_docs_dir", &cfg.LocalDocsDir)

	setInt("fetch_timeout", &cfg.FetchTimeout)
	setInt("max_retries", &cfg.MaxRetries)
	setInt("max_concurrent", &cfg.MaxConcurrent)

	if v.IsSet("index_ttl") {
		cfg.IndexTTL = v.GetDuration("index_ttl")
	}
	setInt("default_search_limit", &cfg.DefaultSearchLimit)
	setInt("max_search_results", &cfg.MaxSearchResults)
	setInt("content_search_max_pages", &cfg.ContentSearchMaxPages)
}

// applyFlags overrides cfg with explicitly provided flag values.
func applyFlags(cfg *Config, flags map[string]interface{}) {
	for key, val := range flags {
		if val == nil {
			continue
		}
		switch v := val.(type) {
		case string:
			switch key {
			case "log_level":
				cfg.LogLevel = v
			case "transport_type":
				cfg.TransportType = v
			case "host":
				cfg.Host = v
			case "local_docs_dir":
				cfg.LocalDocsDir = v
			case "github_token":
				cfg.GitHubToken = v
			}
		case int:
			switch key {
			case "port":
				cfg.Port = v
			case "max_concurrent":
				cfg.MaxConcurrent = v
			}
		case time.Duration:
			if key == "index_ttl" {
				cfg.IndexTTL = v
			}
		}
	}
}

// loadFromEnv loads configuration from environment variables into the provided Config
func loadFromEnv(cfg *Config) {
	envString := func(name string, dst *string) {
		if val := os.Getenv(name); val != "" {
			*dst = val
		}
	}
	envInt := func(name string, dst *int) {
		if val := os.Getenv(name); val != "" {
			if intVal, err := strconv.Atoi(val); err == nil {
				*dst = intVal
			}
		}
	}

	envString("LOG_LEVEL", &cfg.LogLevel)
	envString("TRANSPORT_TYPE", &cfg.TransportType)
	envString("HOST", &cfg.Host)
	envInt("PORT", &cfg.Port)

	envString("GITHUB_OWNER", &cfg.GitHubOwner)
	envString("GITHUB_REPO", &cfg.GitHubRepo)
	envString("GITHUB_BRANCH", &cfg.GitHubBranch)
	envString("GITHUB_TOKEN", &cfg.GitHubToken)
	envString("DOCS_ROOT", &cfg.DocsRoot)
	envString("GITHUB_API_URL", &cfg.GitHubAPIURL)
	envString("RAW_BASE_URL", &cfg.RawBaseURL)
	envString("DOCS_SITE_URL", &cfg.DocsSiteURL)
	envString("LOCAL_DOCS_DIR", &cfg.LocalDocsDir)

	envInt("FETCH_TIMEOUT", &cfg.FetchTimeout)
	envInt("MAX_RETRIES", &cfg.MaxRetries)
	envInt("MAX_CONCURRENT", &cfg.MaxConcurrent)

	if val := os.Getenv("INDEX_TTL"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.IndexTTL = d
		}
	}
	envInt("DEFAULT_SEARCH_LIMIT", &cfg.DefaultSearchLimit)
	envInt("MAX_SEARCH_RESULTS", &cfg.MaxSearchResults)
	envInt("CONTENT_SEARCH_MAX_PAGES", &cfg.ContentSearchMaxPages)
}

// Validate validates all configuration values and returns descriptive errors
// for any invalid settings.
func (c *Config) Validate() error {
	var errors []string

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		errors = append(errors, fmt.Sprintf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel))
	}

	if c.FetchTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("fetch_timeout must be positive, got: %d", c.FetchTimeout))
	}
	if c.MaxRetries < 0 {
		errors = append(errors, fmt.Sprintf("max_retries cannot be negative, got: %d", c.MaxRetries))
	}
	if c.MaxConcurrent <= 0 {
		errors = append(errors, fmt.Sprintf("max_concurrent must be positive, got: %d", c.MaxConcurrent))
	}
	if c.IndexTTL <= 0 {
		errors = append(errors, fmt.Sprintf("index_ttl must be positive, got: %s", c.IndexTTL))
	}
	if c.DefaultSearchLimit <= 0 {
		errors = append(errors, fmt.Sprintf("default_search_limit must be positive, got: %d", c.DefaultSearchLimit))
	}
	if c.MaxSearchResults <= 0 {
		errors = append(errors, fmt.Sprintf("max_search_results must be positive, got: %d", c.MaxSearchResults))
	} else if c.DefaultSearchLimit > c.MaxSearchResults {
		errors = append(errors, fmt.Sprintf("default_search_limit (%d) cannot exceed max_search_results (%d)", c.DefaultSearchLimit, c.MaxSearchResults))
	}
	if c.ContentSearchMaxPages <= 0 {
		errors = append(errors, fmt.Sprintf("content_search_max_pages must be positive, got: %d", c.ContentSearchMaxPages))
	}

	if c.LocalDocsDir == "" {
		if c.GitHubOwner == "" || c.GitHubRepo == "" || c.GitHubBranch == "" {
			errors = append(errors, "github_owner, github_repo and github_branch are required unless local_docs_dir is set")
		}
		for name, u := range map[string]string{"github_api_url": c.GitHubAPIURL, "raw_base_url": c.RawBaseURL} {
			if err := validateURL(name, u); err != "" {
				errors = append(errors, err)
			}
		}
	}
	if err := validateURL("docs_site_url", c.DocsSiteURL); err != "" {
		errors = append(errors, err)
	}

	if err := c.ValidateTransport(); err != nil {
		errors = append(errors, err.Error())
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errors, "; "))
	}
	return nil
}

// ValidateTransport checks the transport type and the address it needs.
func (c *Config) ValidateTransport() error {
	switch c.TransportType {
	case "stdio":
		return nil
	case "sse", "streamablehttp":
		if c.Port <= 0 || c.Port > 65535 {
			return fmt.Errorf("port must be between 1 and 65535 for %s transport, got: %d", c.TransportType, c.Port)
		}
		if c.Host == "" {
			return fmt.Errorf("host cannot be empty for %s transport", c.TransportType)
		}
		return nil
	default:
		return fmt.Errorf("unsupported transport type: %s (must be one of: stdio, sse, streamablehttp)", c.TransportType)
	}
}

// GetTransportType returns the configured transport type.
func (c *Config) GetTransportType() string { return c.TransportType }

// GetPort returns the configured port.
func (c *Config) GetPort() int { return c.Port }

// GetTransportAddress returns host:port for network transports and "" for stdio.
func (c *Config) GetTransportAddress() string {
	if c.TransportType == "stdio" {
		return ""
	}
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// FetchTimeoutDuration returns FetchTimeout as a time.Duration.
func (c *Config) FetchTimeoutDuration() time.Duration {
	return time.Duration(c.FetchTimeout) * time.Second
}

func validateURL(name, u string) string {
	if u == "" {
		return fmt.Sprintf("%s cannot be empty", name)
	}
	if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
		return fmt.Sprintf("%s must start with http:// or https://, got: %s", name, u)
	}
	if (strings.HasPrefix(u, "http://") && len(u) <= 7) || (strings.HasPrefix(u, "https://") && len(u) <= 8) {
		return fmt.Sprintf("%s is incomplete: %s", name, u)
	}
	return ""
}
