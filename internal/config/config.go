package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/username/listing-calendar/internal/calendar"
)

// EnvPrefix is prepended to environment overrides, e.g. LISTING_CALENDAR_API_TOKEN
const EnvPrefix = "LISTING_CALENDAR"

// Config represents application configuration
type Config struct {
	API      APIConfig      `mapstructure:"api"`
	Calendar CalendarConfig `mapstructure:"calendar"`
	Watch    WatchConfig    `mapstructure:"watch"`
	Log      LogConfig      `mapstructure:"log"`
}

// APIConfig represents the listing service connection
type APIConfig struct {
	BaseURL       string `mapstructure:"base_url"`
	ListingKind   string `mapstructure:"listing_kind"` // "accommodation" or "tour"
	ListingID     int64  `mapstructure:"listing_id"`
	Token         string `mapstructure:"token"`
	SessionCookie string `mapstructure:"session_cookie"`
	Timeout       string `mapstructure:"timeout"`
}

// CalendarConfig represents calendar display settings
type CalendarConfig struct {
	CurrencySymbol string `mapstructure:"currency_symbol"`
}

// WatchConfig represents watch mode settings
type WatchConfig struct {
	Interval    string `mapstructure:"interval"`
	MetricsAddr string `mapstructure:"metrics_addr"`
}

// LogConfig represents logging settings
type LogConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// Load loads configuration from file and environment.
// The file is optional when no explicit path is given; environment variables alone are enough.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.listing-calendar")
		v.AddConfigPath("/etc/listing-calendar")
	}

	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.ExpandEnvVars()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// Every key gets a default so that AutomaticEnv can override it during Unmarshal
func setDefaults(v *viper.Viper) {
	v.SetDefault("api.base_url", "")
	v.SetDefault("api.listing_kind", calendar.Accommodation.String())
	v.SetDefault("api.listing_id", 0)
	v.SetDefault("api.token", "")
	v.SetDefault("api.session_cookie", "")
	v.SetDefault("api.timeout", "")
	v.SetDefault("calendar.currency_symbol", "")
	v.SetDefault("watch.interval", "")
	v.SetDefault("watch.metrics_addr", "")
	v.SetDefault("log.file", "")
	v.SetDefault("log.level", "info")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("api.base_url is required")
	}
	if !strings.HasPrefix(c.API.BaseURL, "http://") && !strings.HasPrefix(c.API.BaseURL, "https://") {
		return fmt.Errorf("api.base_url must start with http:// or https://, got '%s'", c.API.BaseURL)
	}
	if _, err := calendar.ParseListingKind(c.API.ListingKind); err != nil {
		return fmt.Errorf("api.listing_kind: %w", err)
	}
	if c.API.ListingID <= 0 {
		return fmt.Errorf("api.listing_id must be positive")
	}
	if c.API.Timeout != "" {
		if _, err := time.ParseDuration(c.API.Timeout); err != nil {
			return fmt.Errorf("api.timeout is not a duration: %w", err)
		}
	}
	if c.Watch.Interval != "" {
		d, err := time.ParseDuration(c.Watch.Interval)
		if err != nil {
			return fmt.Errorf("watch.interval is not a duration: %w", err)
		}
		if d <= 0 {
			return fmt.Errorf("watch.interval must be positive")
		}
	}

	return nil
}

// GetListingKind returns the parsed listing kind, Accommodation when unset
func (c *APIConfig) GetListingKind() calendar.ListingKind {
	kind, err := calendar.ParseListingKind(c.ListingKind)
	if err != nil {
		return calendar.Accommodation
	}
	return kind
}

// GetTimeout returns the HTTP timeout
func (c *APIConfig) GetTimeout() time.Duration {
	if c.Timeout == "" {
		return 30 * time.Second
	}
	duration, err := time.ParseDuration(c.Timeout)
	if err != nil || duration <= 0 {
		return 30 * time.Second
	}
	return duration
}

// GetCurrencySymbol returns the symbol prefixed to prices
func (c *CalendarConfig) GetCurrencySymbol() string {
	if c.CurrencySymbol == "" {
		return calendar.DefaultCurrencySymbol
	}
	return c.CurrencySymbol
}

// GetInterval returns how often watch mode reloads the calendar
func (c *WatchConfig) GetInterval() time.Duration {
	if c.Interval == "" {
		return 5 * time.Minute
	}
	duration, err := time.ParseDuration(c.Interval)
	if err != nil || duration <= 0 {
		return 5 * time.Minute
	}
	return duration
}

// GetMetricsAddr returns the listen address of the metrics endpoint
func (c *WatchConfig) GetMetricsAddr() string {
	if c.MetricsAddr == "" {
		return ":9107"
	}
	return c.MetricsAddr
}

// ExpandEnvVars expands environment variables in config strings
func (c *Config) ExpandEnvVars() {
	c.API.BaseURL = os.ExpandEnv(c.API.BaseURL)
	c.API.Token = os.ExpandEnv(c.API.Token)
	c.API.SessionCookie = os.ExpandEnv(c.API.SessionCookie)
}
