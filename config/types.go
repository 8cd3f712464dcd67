package config

// Config represents the complete configuration structure
type Config struct {
	Intervals IntervalsConfig `mapstructure:"intervals"`
	Athlete   AthleteConfig   `mapstructure:"athlete"`
	Server    ServerConfig    `mapstructure:"server"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// IntervalsConfig holds intervals.icu API connection details
type IntervalsConfig struct {
	APIKey    string `mapstructure:"api_key"`
	AthleteID string `mapstructure:"athlete_id"`
	BaseURL   string `mapstructure:"base_url"`
}

// AthleteConfig controls athlete id normalization
type AthleteConfig struct {
	// Placeholders are extra tokens treated as unfilled athlete ids.
	Placeholders []string `mapstructure:"placeholders"`
}

// ServerConfig controls the MCP transport
type ServerConfig struct {
	Transport string `mapstructure:"transport"`
	Addr      string `mapstructure:"addr"`
	PublicURL string `mapstructure:"public_url"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Color  bool   `mapstructure:"color"`
}

// clone returns a deep copy so cached values can be handed out safely.
func (c Config) clone() Config {
	out := c
	if c.Athlete.Placeholders != nil {
		out.Athlete.Placeholders = append([]string(nil), c.Athlete.Placeholders...)
	}
	return out
}
