package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/s0up4200/intervals-mcp/athlete"
)

// DefaultBaseURL is the intervals.icu API root used when none is configured.
const DefaultBaseURL = "https://intervals.icu/api/v1"

// envBindings maps config keys to the environment variables that set them
var envBindings = map[string]string{
	"intervals.api_key":    "API_KEY",
	"intervals.athlete_id": "ATHLETE_ID",
	"intervals.base_url":   "INTERVALS_API_BASE_URL",
	"athlete.placeholders": "ATHLETE_ID_PLACEHOLDERS",
	"server.transport":     "MCP_TRANSPORT",
	"server.addr":          "MCP_ADDR",
	"server.public_url":    "MCP_PUBLIC_URL",
	"logging.level":        "LOG_LEVEL",
	"logging.format":       "LOG_FORMAT",
}

// Load loads the configuration from the environment, an optional .env file
// and an optional config file, then validates it.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error reading .env: %w", err)
	}

	v := viper.New()

	// Set default values
	setDefaults(v)

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".intervals-mcp"))
		}
		v.AddConfigPath("/etc/intervals-mcp/")
	}

	// The environment is the primary surface, so a missing file is only an
	// error when one was asked for explicitly.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if strings.TrimSpace(cfg.Intervals.APIKey) == "" {
		if key, err := StoredAPIKey(); err == nil {
			cfg.Intervals.APIKey = key
		}
	}

	normalize(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("intervals.base_url", DefaultBaseURL)

	v.SetDefault("server.transport", "stdio")
	v.SetDefault("server.addr", ":8000")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.color", true)
}

// normalize trims values and fills defaults that an empty env var would clear
func normalize(cfg *Config) {
	cfg.Intervals.APIKey = strings.TrimSpace(cfg.Intervals.APIKey)
	cfg.Intervals.AthleteID = strings.TrimSpace(cfg.Intervals.AthleteID)
	cfg.Intervals.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.Intervals.BaseURL), "/")
	if cfg.Intervals.BaseURL == "" {
		cfg.Intervals.BaseURL = DefaultBaseURL
	}

	placeholders := cfg.Athlete.Placeholders[:0]
	for _, p := range cfg.Athlete.Placeholders {
		if p = strings.TrimSpace(p); p != "" {
			placeholders = append(placeholders, p)
		}
	}
	cfg.Athlete.Placeholders = placeholders

	cfg.Server.Transport = strings.ToLower(strings.TrimSpace(cfg.Server.Transport))
	cfg.Logging.Level = strings.ToLower(cfg.Logging.Level)
	cfg.Logging.Format = strings.ToLower(cfg.Logging.Format)
}

// validate checks if the configuration is valid and reports every problem
func validate(cfg *Config) error {
	problems := &ConfigError{}

	if cfg.Intervals.APIKey == "" {
		problems.add("API_KEY is required")
	}

	switch {
	case cfg.Intervals.AthleteID == "":
		problems.add("ATHLETE_ID is required")
	case !athlete.Valid(cfg.Intervals.AthleteID):
		problems.add("ATHLETE_ID must be all digits (e.g. 123456) or start with 'i' followed by digits (e.g. i123456)")
	}

	if u, err := url.Parse(cfg.Intervals.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		problems.add(fmt.Sprintf("INTERVALS_API_BASE_URL must be an absolute http(s) URL: %s", cfg.Intervals.BaseURL))
	} else if u.RawQuery != "" || u.Fragment != "" || u.ForceQuery {
		// Request paths are appended to the base URL
		problems.add(fmt.Sprintf("INTERVALS_API_BASE_URL must not contain a query or fragment: %s", cfg.Intervals.BaseURL))
	}

	validTransports := map[string]bool{
		"stdio": true,
		"sse":   true,
	}
	if !validTransports[cfg.Server.Transport] {
		problems.add(fmt.Sprintf("invalid server.transport: %s (must be 'stdio' or 'sse')", cfg.Server.Transport))
	}

	// Validate logging level
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[cfg.Logging.Level] {
		problems.add(fmt.Sprintf("invalid logging level: %s", cfg.Logging.Level))
	}

	// Validate logging format
	validFormats := map[string]bool{
		"console": true,
		"json":    true,
	}
	if !validFormats[cfg.Logging.Format] {
		problems.add(fmt.Sprintf("invalid logging format: %s", cfg.Logging.Format))
	}

	return problems.orNil()
}

// Resolver loads the configuration once and hands out copies of it.
type Resolver struct {
	path string

	once sync.Once
	cfg  Config
	err  error
}

// NewResolver creates a resolver for the given config file path (may be empty)
func NewResolver(configPath string) *Resolver {
	return &Resolver{path: configPath}
}

// Resolve returns the validated configuration. Only the first call reads
// the environment; later calls return the same values.
func (r *Resolver) Resolve() (Config, error) {
	r.once.Do(func() {
		cfg, err := Load(r.path)
		if err != nil {
			r.err = err
			return
		}
		r.cfg = *cfg
	})
	if r.err != nil {
		return Config{}, r.err
	}
	return r.cfg.clone(), nil
}
