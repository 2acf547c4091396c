package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	CoinCap CoinCapConfig `mapstructure:"coincap"`
	Tracker TrackerConfig `mapstructure:"tracker"`
	Ring    RingConfig    `mapstructure:"ring"`
	Charts  []ChartConfig `mapstructure:"charts"`
	Weather WeatherConfig `mapstructure:"weather"`
	News    NewsConfig    `mapstructure:"news"`
	Secrets SecretsConfig `mapstructure:"secrets"`
	Render  RenderConfig  `mapstructure:"render"`
	Log     LogConfig     `mapstructure:"log"`
}

type CoinCapConfig struct {
	REST RESTConfig `mapstructure:"rest"`
	WS   WSConfig   `mapstructure:"ws"`
}

type RESTConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
	APIKey  string        `mapstructure:"api_key"`
}

type WSConfig struct {
	URL            string        `mapstructure:"url"`
	ReconnectDelay time.Duration `mapstructure:"reconnect_delay"`
}

// TrackerConfig selects the tick source and the symbols it follows.
type TrackerConfig struct {
	Symbols      []string      `mapstructure:"symbols"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
	Source       string        `mapstructure:"source"` // "poll" or "stream"
}

type RingConfig struct {
	Capacity int `mapstructure:"capacity"`
}

type ChartConfig struct {
	Symbol      string `mapstructure:"symbol"`
	Granularity string `mapstructure:"granularity"`
}

type WeatherConfig struct {
	BaseURL       string        `mapstructure:"base_url"`
	APIKey        string        `mapstructure:"api_key"`
	Cities        []string      `mapstructure:"cities"`
	AlertInterval time.Duration `mapstructure:"alert_interval"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

type NewsConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	APIKey  string        `mapstructure:"api_key"`
	Query   string        `mapstructure:"query"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type RenderConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

// Options defines the logger configuration options.
type LogConfig struct {
	Level       string `mapstructure:"level"`       // log level: "debug", "info", "warn", "error"
	Format      string `mapstructure:"format"`      // log format: "json" or "console"
	OutputFile  string `mapstructure:"output_file"` // file path to store logs (optional)
	Environment string `mapstructure:"environment"` // environment: "dev" or "prod"
}

// Load loads application configuration using Viper.
// A .env file is applied to the process environment first, then config.yaml
// is read and overridden with environment variables (e.g. WEATHER_API_KEY).
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, relying on environment")
	}

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config") // config.yaml
	v.SetConfigType("yaml")
	if path := os.Getenv("TICKDASH_CONFIG"); path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("../../config")
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnv(v, "coincap.rest.api_key", "weather.api_key", "news.api_key", "log.environment")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		log.Println("no config.yaml found, using defaults")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the values the tracker cannot run without.
func (c *Config) Validate() error {
	if len(c.Tracker.Symbols) == 0 {
		return fmt.Errorf("tracker.symbols cannot be empty")
	}
	if c.Tracker.PollInterval <= 0 {
		return fmt.Errorf("tracker.poll_interval must be positive, got %s", c.Tracker.PollInterval)
	}
	switch c.Tracker.Source {
	case "poll", "stream":
	default:
		return fmt.Errorf("tracker.source must be poll or stream, got %q", c.Tracker.Source)
	}
	if c.Ring.Capacity <= 0 {
		return fmt.Errorf("ring.capacity must be positive, got %d", c.Ring.Capacity)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("coincap.rest.base_url", "https://api.coincap.io/v2")
	v.SetDefault("coincap.rest.timeout", 10*time.Second)
	v.SetDefault("coincap.ws.url", "wss://ws.coincap.io/prices")
	v.SetDefault("coincap.ws.reconnect_delay", 2*time.Second)

	v.SetDefault("tracker.symbols", []string{"bitcoin", "ethereum"})
	v.SetDefault("tracker.poll_interval", 10*time.Second)
	v.SetDefault("tracker.source", "poll")

	v.SetDefault("ring.capacity", 8)

	v.SetDefault("charts", []map[string]string{
		{"symbol": "bitcoin", "granularity": "1d"},
	})

	v.SetDefault("weather.base_url", "https://api.openweathermap.org/data/2.5/weather")
	v.SetDefault("weather.cities", []string{"New York", "London", "Tokyo"})
	v.SetDefault("weather.alert_interval", 10*time.Second)
	v.SetDefault("weather.timeout", 10*time.Second)

	v.SetDefault("news.base_url", "https://newsdata.io/api/1/news")
	v.SetDefault("news.query", "cryptocurrency")
	v.SetDefault("news.timeout", 10*time.Second)

	v.SetDefault("secrets.region", "us-east-1")
	v.SetDefault("secrets.timeout", 5*time.Second)

	v.SetDefault("render.interval", 5*time.Second)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.environment", "dev")
}

// bindEnv is a helper to bind multiple keys at once
func bindEnv(v *viper.Viper, keys ...string) {
	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			log.Printf("could not bind env var for key %s: %v", key, err)
		}
	}
}
