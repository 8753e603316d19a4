package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Config struct {
	// Server
	Port int    `mapstructure:"port"`
	Env  string `mapstructure:"env"`

	// CORS
	AllowedOrigins []string `mapstructure:"allowed_origins"`

	// Database URLs
	PostgresURL   string `mapstructure:"postgres_url" validate:"required"`
	ClickHouseURL string `mapstructure:"clickhouse_url" validate:"required"`
	RedisURL      string `mapstructure:"redis_url" validate:"required"`

	// Combat-log service credentials
	WCLClientID     string `mapstructure:"wcl_client_id"`
	WCLClientSecret string `mapstructure:"wcl_client_secret"`
	WCLAPIURL       string `mapstructure:"wcl_api_url"`
	WCLTokenURL     string `mapstructure:"wcl_token_url"`

	// Engine tunables
	BreakWindowStartMin int64  `mapstructure:"break_window_start_min" validate:"gte=0"`
	BreakWindowEndMin   int64  `mapstructure:"break_window_end_min" validate:"gtefield=BreakWindowStartMin"`
	MinBreakMin         int64  `mapstructure:"min_break_min" validate:"gte=0"`
	MaxBreakMin         int64  `mapstructure:"max_break_min" validate:"gtefield=MinBreakMin"`
	GapBridgeMin        int64  `mapstructure:"gap_bridge_min" validate:"gte=0"`
	PostExtensionMin    int64  `mapstructure:"post_extension_min" validate:"gte=0"`
	ResetWeekday        string `mapstructure:"reset_weekday"`

	// Forecast
	ForecastBaselineRate float64 `mapstructure:"forecast_baseline_rate" validate:"gt=0,lte=1"`
	ForecastMinPlayers   int     `mapstructure:"forecast_min_players" validate:"gt=0"`
	ForecastSlots        int     `mapstructure:"forecast_slots" validate:"gt=0"`

	// Scheduler
	IngestInterval  time.Duration `mapstructure:"ingest_interval"`
	ComputeInterval time.Duration `mapstructure:"compute_interval"`

	// Guild timezone, used to bucket reports into nights
	Timezone string `mapstructure:"timezone"`
}

// Load reads configuration from the environment (BENCH_ prefixed) and an
// optional config file. It returns an error if critical configuration is
// missing or the engine tunables are inconsistent.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("BENCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Keys without defaults need explicit binding for AutomaticEnv to see
	// them during Unmarshal.
	for _, key := range []string{"postgres_url", "clickhouse_url", "redis_url", "wcl_client_id", "wcl_client_secret"} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	v.SetDefault("port", 8080)
	v.SetDefault("env", "development")
	v.SetDefault("allowed_origins", []string{"http://localhost:3000"})

	v.SetDefault("wcl_api_url", "https://www.warcraftlogs.com/api/v2/client")
	v.SetDefault("wcl_token_url", "https://www.warcraftlogs.com/oauth/token")

	v.SetDefault("break_window_start_min", 30)
	v.SetDefault("break_window_end_min", 120)
	v.SetDefault("min_break_min", 10)
	v.SetDefault("max_break_min", 30)
	v.SetDefault("gap_bridge_min", 10)
	v.SetDefault("post_extension_min", 5)
	v.SetDefault("reset_weekday", "tuesday")

	v.SetDefault("forecast_baseline_rate", 0.9)
	v.SetDefault("forecast_min_players", 20)
	v.SetDefault("forecast_slots", 12)

	v.SetDefault("ingest_interval", time.Hour)
	v.SetDefault("compute_interval", 15*time.Minute)

	v.SetDefault("timezone", "America/Los_Angeles")

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if _, err := cfg.ResetDay(); err != nil {
		return nil, err
	}
	if _, err := cfg.Location(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Location parses the configured guild timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("unknown timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// ResetDay parses the configured reset weekday name.
func (c *Config) ResetDay() (time.Weekday, error) {
	days := map[string]time.Weekday{
		"sunday":    time.Sunday,
		"monday":    time.Monday,
		"tuesday":   time.Tuesday,
		"wednesday": time.Wednesday,
		"thursday":  time.Thursday,
		"friday":    time.Friday,
		"saturday":  time.Saturday,
	}
	day, ok := days[strings.ToLower(strings.TrimSpace(c.ResetWeekday))]
	if !ok {
		return 0, fmt.Errorf("unknown reset weekday %q", c.ResetWeekday)
	}
	return day, nil
}
