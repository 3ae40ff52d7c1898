package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/creasty/defaults"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment" default:"development"`
	Server      struct {
		Port            int           `yaml:"port" default:"8080"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"15s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"60s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
		BodyLimit       string        `yaml:"body_limit" default:"10M"`
		AllowOrigins    []string      `yaml:"allow_origins" default:"[\"*\"]"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level" default:"info"`
		Format string `yaml:"format" default:"json"`
		Output string `yaml:"output" default:"stdout"`
	} `yaml:"log"`
	Metrics struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
	Analysis struct {
		MaxPoints           int           `yaml:"max_points" default:"100000"`
		CollaboratorTimeout time.Duration `yaml:"collaborator_timeout" default:"30s"`
		// ForecastSeed makes the local forecast jitter reproducible when non-zero.
		ForecastSeed uint64 `yaml:"forecast_seed"`
	} `yaml:"analysis"`
	Insights struct {
		APIKey      string        `yaml:"api_key"`
		BaseURL     string        `yaml:"base_url"`
		Model       string        `yaml:"model" default:"gpt-4o-mini"`
		Temperature float32       `yaml:"temperature" default:"0.3"`
		MaxTokens   int           `yaml:"max_tokens" default:"600"`
		Timeout     time.Duration `yaml:"timeout" default:"20s"`
		CacheTTL    time.Duration `yaml:"cache_ttl" default:"30m"`
	} `yaml:"insights"`
	Forecaster struct {
		APIKey   string        `yaml:"api_key"`
		URL      string        `yaml:"url" default:"https://api.nixtla.io/forecast"`
		Model    string        `yaml:"model" default:"timegpt-1"`
		Freq     string        `yaml:"freq" default:"D"`
		Levels   []int         `yaml:"levels" default:"[80,95]"`
		Timeout  time.Duration `yaml:"timeout" default:"30s"`
		Attempts int           `yaml:"attempts" default:"3"`
		CacheTTL time.Duration `yaml:"cache_ttl" default:"30m"`
	} `yaml:"forecaster"`
	Cache struct {
		Backend    string `yaml:"backend" default:"memory"`
		MemorySize int    `yaml:"memory_size" default:"1000"`
		Redis      struct {
			Addr     string `yaml:"addr" default:"localhost:6379"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix" default:"seriespulse"`
		} `yaml:"redis"`
	} `yaml:"cache"`
	RateLimit struct {
		RPS     float64       `yaml:"rps" default:"1"`
		Burst   int           `yaml:"burst" default:"5"`
		IdleTTL time.Duration `yaml:"idle_ttl" default:"10m"`
	} `yaml:"rate_limit"`
	WebSocket struct {
		ReadLimit    int64         `yaml:"read_limit" default:"10485760"`
		PingInterval time.Duration `yaml:"ping_interval" default:"30s"`
		WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
	} `yaml:"websocket"`
}

// Default returns a configuration holding only default values.
func Default() (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("set defaults: %w", err)
	}
	return &c, nil
}

// Load reads and parses a YAML configuration file over the defaults. An empty path
// yields the defaults.
func Load(path string) (*Config, error) {
	c, err := Default()
	if err != nil {
		return nil, err
	}

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, c); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Validate required fields
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
// A missing file is tolerated so the service can run from env alone.
func LoadWithEnv(path string) (*Config, error) {
	if path != "" {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			path = ""
		}
	}
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if err := c.applyEnv(os.Getenv); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	if v := getenv("OPENAI_API_KEY"); v != "" {
		c.Insights.APIKey = v
	}
	if v := getenv("OPENAI_BASE_URL"); v != "" {
		c.Insights.BaseURL = v
	}
	if v := getenv("NIXTLA_API_KEY"); v != "" {
		c.Forecaster.APIKey = v
	}
	if v := getenv("SERIESPULSE_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SERIESPULSE_PORT: %w", err)
		}
		c.Server.Port = port
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := getenv("CACHE_BACKEND"); v != "" {
		c.Cache.Backend = v
	}
	if v := getenv("REDIS_ADDR"); v != "" {
		c.Cache.Redis.Addr = v
	}
	return nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	switch c.Cache.Backend {
	case "none", "memory", "redis", "layered":
	default:
		return fmt.Errorf("cache.backend must be one of none, memory, redis, layered, got '%s'", c.Cache.Backend)
	}
	if (c.Cache.Backend == "redis" || c.Cache.Backend == "layered") && c.Cache.Redis.Addr == "" {
		return fmt.Errorf("cache.redis.addr is required for backend '%s'", c.Cache.Backend)
	}
	if c.Analysis.MaxPoints <= 0 {
		return fmt.Errorf("analysis.max_points must be positive")
	}
	if c.Analysis.CollaboratorTimeout <= 0 {
		return fmt.Errorf("analysis.collaborator_timeout must be positive")
	}
	if c.Insights.Temperature < 0 || c.Insights.Temperature > 2 {
		return fmt.Errorf("insights.temperature must be within [0, 2]")
	}
	if c.Forecaster.URL == "" {
		return fmt.Errorf("forecaster.url is required")
	}
	for _, l := range c.Forecaster.Levels {
		if l <= 0 || l >= 100 {
			return fmt.Errorf("forecaster.levels must be within (0, 100), got %d", l)
		}
	}
	return nil
}
