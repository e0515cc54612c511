// Package config loads the bot configuration: the shared core sections plus
// weather, food, storage and ops settings.
package config

import (
	"fmt"
	"strings"
	"time"

	coreconfig "github.com/m3rciful/healthbot/core/config"
	coredatabase "github.com/m3rciful/healthbot/core/database"
	"github.com/m3rciful/healthbot/internal/food"
	"github.com/m3rciful/healthbot/internal/lookup"
	"github.com/m3rciful/healthbot/internal/weather"
)

const defaultTimeoutSeconds = int(lookup.DefaultTimeout / time.Second)

// WeatherConfig configures the OpenWeatherMap client.
type WeatherConfig struct {
	APIKey         string `yaml:"api_key" envconfig:"WEATHER_API_KEY"`
	BaseURL        string `yaml:"base_url" envconfig:"WEATHER_BASE_URL"`
	TimeoutSeconds int    `yaml:"timeout_seconds" envconfig:"WEATHER_TIMEOUT_SECONDS"`
}

// FoodConfig configures the OpenFoodFacts client.
type FoodConfig struct {
	BaseURL        string `yaml:"base_url" envconfig:"FOOD_BASE_URL"`
	UserAgent      string `yaml:"user_agent" envconfig:"FOOD_USER_AGENT"`
	TimeoutSeconds int    `yaml:"timeout_seconds" envconfig:"FOOD_TIMEOUT_SECONDS"`
}

// OpsConfig configures the operator HTTP endpoints. An empty Listen disables them.
type OpsConfig struct {
	Listen         string   `yaml:"listen" envconfig:"OPS_LISTEN"`
	AllowedOrigins []string `yaml:"allowed_origins" envconfig:"OPS_ALLOWED_ORIGINS"`
}

// Config is the full application configuration.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Weather WeatherConfig       `yaml:"weather"`
	Food    FoodConfig          `yaml:"food"`
	Storage coredatabase.Config `yaml:"storage"`
	Ops     OpsConfig           `yaml:"ops"`
}

// CoreConfig exposes the embedded core configuration to the runner.
func (c *Config) CoreConfig() *coreconfig.Config {
	if c == nil {
		return nil
	}
	return &c.Config
}

// WeatherTimeout returns the weather request timeout.
func (c *Config) WeatherTimeout() time.Duration {
	return time.Duration(c.Weather.TimeoutSeconds) * time.Second
}

// FoodTimeout returns the food search timeout.
func (c *Config) FoodTimeout() time.Duration {
	return time.Duration(c.Food.TimeoutSeconds) * time.Second
}

// Load reads path, applies env overrides and validates the result.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := coreconfig.Decode(path, &cfg); err != nil {
		return nil, err
	}
	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize validates every section and fills defaults.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	if err := coreconfig.Normalize(&cfg.Config); err != nil {
		return err
	}

	if strings.TrimSpace(cfg.Weather.APIKey) == "" {
		return fmt.Errorf("weather.api_key is required")
	}
	if cfg.Weather.BaseURL == "" {
		cfg.Weather.BaseURL = weather.DefaultBaseURL
	}
	if cfg.Weather.TimeoutSeconds < 0 {
		return fmt.Errorf("weather.timeout_seconds must be >= 0")
	}
	if cfg.Weather.TimeoutSeconds == 0 {
		cfg.Weather.TimeoutSeconds = defaultTimeoutSeconds
	}

	if cfg.Food.BaseURL == "" {
		cfg.Food.BaseURL = food.DefaultBaseURL
	}
	if cfg.Food.TimeoutSeconds < 0 {
		return fmt.Errorf("food.timeout_seconds must be >= 0")
	}
	if cfg.Food.TimeoutSeconds == 0 {
		cfg.Food.TimeoutSeconds = defaultTimeoutSeconds
	}

	if err := cfg.Storage.Normalize(); err != nil {
		return err
	}
	cfg.Ops.Listen = strings.TrimSpace(cfg.Ops.Listen)
	return nil
}
