package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	yaml "go.yaml.in/yaml/v3"
)

type Config struct {
	TelegramToken string `yaml:"telegram_token"`

	StoreDriver string `yaml:"store_driver"`
	StorePath   string `yaml:"store_path"`
	DatabaseURI string `yaml:"database_uri"`

	TZOffset        string        `yaml:"tz_offset"`
	TickInterval    time.Duration `yaml:"tick_interval"`
	DeliveryTimeout time.Duration `yaml:"delivery_timeout"`
	DeliveryRate    float64       `yaml:"delivery_rate"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	AIAPIKey  string `yaml:"ai_api_key"`
	AIBaseURL string `yaml:"ai_base_url"`
	AIModel   string `yaml:"ai_model"`
}

const (
	DriverFile     = "file"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

func defaults() *Config {
	return &Config{
		StoreDriver:     DriverFile,
		StorePath:       "reminders.json",
		TZOffset:        "+07:00",
		TickInterval:    time.Minute,
		DeliveryTimeout: 30 * time.Second,
		DeliveryRate:    20,
		LogLevel:        "info",
		LogFormat:       "console",
		AIBaseURL:       "https://openrouter.ai/api/v1",
		AIModel:         "openai/gpt-4o-mini",
	}
}

func Load() (*Config, error) {
	// .env file is optional in production
	_ = godotenv.Load()

	cfg := defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(os.Getenv); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	setString := func(key string, dst *string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	setString("TELEGRAM_TOKEN", &c.TelegramToken)
	setString("STORE_DRIVER", &c.StoreDriver)
	setString("STORE_PATH", &c.StorePath)
	setString("DATABASE_URI", &c.DatabaseURI)
	setString("TZ_OFFSET", &c.TZOffset)
	setString("LOG_LEVEL", &c.LogLevel)
	setString("LOG_FORMAT", &c.LogFormat)
	setString("AI_API_KEY", &c.AIAPIKey)
	setString("AI_BASE_URL", &c.AIBaseURL)
	setString("AI_MODEL", &c.AIModel)

	for key, dst := range map[string]*time.Duration{
		"TICK_INTERVAL":    &c.TickInterval,
		"DELIVERY_TIMEOUT": &c.DeliveryTimeout,
	} {
		v := strings.TrimSpace(getenv(key))
		if v == "" {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", key, v, err)
		}
		*dst = d
	}

	if v := strings.TrimSpace(getenv("DELIVERY_RATE")); v != "" {
		r, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid DELIVERY_RATE %q: %w", v, err)
		}
		c.DeliveryRate = r
	}
	return nil
}

// Validate reports every missing or malformed setting at once.
func (c *Config) Validate() error {
	var errs []error
	if c.TelegramToken == "" {
		errs = append(errs, errors.New("TELEGRAM_TOKEN is required"))
	}
	switch c.StoreDriver {
	case DriverFile, DriverSQLite:
		if c.StorePath == "" {
			errs = append(errs, fmt.Errorf("STORE_PATH is required for the %s driver", c.StoreDriver))
		}
	case DriverPostgres:
		if c.DatabaseURI == "" {
			errs = append(errs, errors.New("DATABASE_URI is required for the postgres driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver))
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}
	if c.TickInterval <= 0 {
		errs = append(errs, errors.New("TICK_INTERVAL must be positive"))
	}
	if c.DeliveryTimeout <= 0 {
		errs = append(errs, errors.New("DELIVERY_TIMEOUT must be positive"))
	}
	if c.DeliveryRate <= 0 {
		errs = append(errs, errors.New("DELIVERY_RATE must be positive"))
	}
	return errors.Join(errs...)
}

// Location turns TZOffset ("+07:00", "-0530", "+7") into a fixed zone.
func (c *Config) Location() (*time.Location, error) {
	return ParseOffset(c.TZOffset)
}

func ParseOffset(s string) (*time.Location, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "Z" || strings.EqualFold(s, "UTC") {
		return time.UTC, nil
	}
	sign := 1
	switch s[0] {
	case '+':
		s = s[1:]
	case '-':
		sign = -1
		s = s[1:]
	default:
		return nil, fmt.Errorf("invalid TZ_OFFSET %q: must start with + or -", s)
	}

	hh, mm := s, "0"
	if i := strings.IndexByte(s, ':'); i >= 0 {
		hh, mm = s[:i], s[i+1:]
	} else if len(s) == 4 {
		hh, mm = s[:2], s[2:]
	}
	// Atoi takes its own sign, so "+-5" and "+07:+30" must be caught here.
	if strings.ContainsAny(hh+mm, "+-") {
		return nil, fmt.Errorf("invalid TZ_OFFSET %q: more than one sign", s)
	}
	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 14 {
		return nil, fmt.Errorf("invalid TZ_OFFSET hours %q", hh)
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m < 0 || m > 59 {
		return nil, fmt.Errorf("invalid TZ_OFFSET minutes %q", mm)
	}

	offset := sign * (h*3600 + m*60)
	name := fmt.Sprintf("UTC%+03d:%02d", sign*h, m)
	if sign < 0 && h == 0 {
		name = fmt.Sprintf("UTC-00:%02d", m)
	}
	return time.FixedZone(name, offset), nil
}
