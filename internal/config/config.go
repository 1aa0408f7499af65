package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// DefaultPath is read when CONFIG_PATH is unset.
const DefaultPath = "configs/config.yaml"

// Config holds all application configuration.
type Config struct {
	DataSource struct {
		Provider   string        `yaml:"provider"` // yahoo | rest
		BaseURL    string        `yaml:"base_url"`
		APIKey     string        `yaml:"api_key"`
		TargetPath string        `yaml:"target_path"`
		RateLimit  int           `yaml:"rate_limit"`
		Timeout    time.Duration `yaml:"timeout"`
	} `yaml:"data_source"`
	Retry struct {
		MaxAttempts    int           `yaml:"max_attempts"`
		BaseDelay      time.Duration `yaml:"base_delay"`
		Factor         float64       `yaml:"factor"`
		AttemptTimeout time.Duration `yaml:"attempt_timeout"`
	} `yaml:"retry"`
	Cache struct {
		TTL         time.Duration  `yaml:"ttl"`
		NegativeTTL *time.Duration `yaml:"negative_ttl"` // nil selects the default; 0 disables
		SweepCron   string         `yaml:"sweep_cron"`
	} `yaml:"cache"`
	Validation struct {
		LookbackDays int `yaml:"lookback_days"`
	} `yaml:"validation"`
	Target struct {
		Weight string `yaml:"weight"`
	} `yaml:"target"`
	Warm struct {
		Symbols     []string `yaml:"symbols"`
		Cron        string   `yaml:"cron"`
		Concurrency int      `yaml:"concurrency"`
	} `yaml:"warm"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"` // empty disables the lookup log
	} `yaml:"database"`
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
	Proxy string `yaml:"proxy"`
}

// Path returns CONFIG_PATH or DefaultPath.
func Path() string {
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		return v
	}
	return DefaultPath
}

// Load reads config from a YAML file, then applies environment variable overrides.
// A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("FEED_PROVIDER"); v != "" {
		c.DataSource.Provider = v
	}
	if v := os.Getenv("FEED_BASE_URL"); v != "" {
		c.DataSource.BaseURL = v
	}
	if v := os.Getenv("FEED_API_KEY"); v != "" {
		c.DataSource.APIKey = v
	}
	if v := os.Getenv("FEED_TARGET_PATH"); v != "" {
		c.DataSource.TargetPath = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		c.Proxy = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		c.Database.SQLitePath = v
	}
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("WARM_SYMBOLS"); v != "" {
		c.Warm.Symbols = splitList(v)
	}
	if v := os.Getenv("CACHE_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("CACHE_TTL: %w", err)
		}
		c.Cache.TTL = d
	}
	if v := os.Getenv("CACHE_NEGATIVE_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("CACHE_NEGATIVE_TTL: %w", err)
		}
		c.Cache.NegativeTTL = &d
	}
	if v := os.Getenv("TARGET_WEIGHT"); v != "" {
		c.Target.Weight = v
	}
	if v := os.Getenv("FEED_RATE_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("FEED_RATE_LIMIT: %w", err)
		}
		c.DataSource.RateLimit = n
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.DataSource.Provider == "" {
		c.DataSource.Provider = "yahoo"
	}
	c.DataSource.Provider = strings.ToLower(c.DataSource.Provider)
	if c.DataSource.RateLimit == 0 {
		c.DataSource.RateLimit = 5
	}
	if c.DataSource.Timeout == 0 {
		c.DataSource.Timeout = 10 * time.Second
	}
	if c.Retry.MaxAttempts == 0 {
		c.Retry.MaxAttempts = 3
	}
	if c.Retry.BaseDelay == 0 {
		c.Retry.BaseDelay = 250 * time.Millisecond
	}
	if c.Retry.Factor == 0 {
		c.Retry.Factor = 2
	}
	if c.Retry.AttemptTimeout == 0 {
		c.Retry.AttemptTimeout = c.DataSource.Timeout
	}
	if c.Cache.TTL == 0 {
		c.Cache.TTL = 60 * time.Second
	}
	if c.Cache.NegativeTTL == nil {
		d := 10 * time.Second
		c.Cache.NegativeTTL = &d
	}
	if c.Cache.SweepCron == "" {
		c.Cache.SweepCron = "0 */5 * * * *"
	}
	if c.Validation.LookbackDays == 0 {
		c.Validation.LookbackDays = 7
	}
	if c.Target.Weight == "" {
		c.Target.Weight = "1"
	}
	if c.Warm.Cron == "" {
		c.Warm.Cron = "0 */1 * * * *"
	}
	if c.Warm.Concurrency == 0 {
		c.Warm.Concurrency = 4
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// Validate checks that all fields hold usable values.
func (c *Config) Validate() error {
	switch c.DataSource.Provider {
	case "yahoo":
	case "rest":
		if c.DataSource.BaseURL == "" {
			return fmt.Errorf("data_source.base_url is required for the rest provider")
		}
	default:
		return fmt.Errorf("data_source.provider %q is not one of yahoo, rest", c.DataSource.Provider)
	}
	if c.DataSource.TargetPath != "" {
		if _, err := jsonpath.New(c.DataSource.TargetPath); err != nil {
			return fmt.Errorf("data_source.target_path: %w", err)
		}
	}
	if c.DataSource.RateLimit < 0 {
		return fmt.Errorf("data_source.rate_limit must not be negative")
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry.max_attempts must be at least 1")
	}
	if c.Retry.Factor < 1 {
		return fmt.Errorf("retry.factor must be at least 1")
	}
	if c.Cache.TTL < 0 || *c.Cache.NegativeTTL < 0 {
		return fmt.Errorf("cache ttl values must not be negative")
	}
	if c.Validation.LookbackDays < 1 {
		return fmt.Errorf("validation.lookback_days must be at least 1")
	}
	if _, err := c.TargetWeight(); err != nil {
		return err
	}
	parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	if _, err := parser.Parse(c.Cache.SweepCron); err != nil {
		return fmt.Errorf("cache.sweep_cron: %w", err)
	}
	if len(c.Warm.Symbols) > 0 {
		if _, err := parser.Parse(c.Warm.Cron); err != nil {
			return fmt.Errorf("warm.cron: %w", err)
		}
	}
	return nil
}

// TargetWeight parses target.weight; it must lie in [0, 1].
func (c *Config) TargetWeight() (decimal.Decimal, error) {
	w, err := decimal.NewFromString(c.Target.Weight)
	if err != nil {
		return decimal.Zero, fmt.Errorf("target.weight: %w", err)
	}
	if w.IsNegative() || w.GreaterThan(decimal.NewFromInt(1)) {
		return decimal.Zero, fmt.Errorf("target.weight must be between 0 and 1")
	}
	return w, nil
}

// Lookback is the validation window as a duration.
func (c *Config) Lookback() time.Duration {
	return time.Duration(c.Validation.LookbackDays) * 24 * time.Hour
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
