// Package config loads cli settings: defaults, then an optional yaml file,
// then environment (a .env file in the working dir is honored).
package config

import (
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/veksh/crpt-docs-client/libs/ratelimiter"
)

const (
	EnvAPIURL         = "CRPT_API_URL"
	EnvSignature      = "CRPT_SIGNATURE"
	EnvRequestLimit   = "CRPT_REQUEST_LIMIT"
	EnvWindow         = "CRPT_WINDOW"
	EnvHTTPTimeout    = "CRPT_HTTP_TIMEOUT"
	EnvLogLevel       = "CRPT_LOG_LEVEL"
	EnvStatsRedisAddr = "CRPT_STATS_REDIS_ADDR"

	DefaultAPIURL = "https://ismp.crpt.ru/api/v3/lk/documents/create"
)

var ErrConfiguration = ratelimiter.ErrConfiguration

type Config struct {
	APIURL       string        `yaml:"api-url"`
	Signature    string        `yaml:"signature"`
	RequestLimit int           `yaml:"request-limit"`
	Window       time.Duration `yaml:"window"`
	HTTPTimeout  time.Duration `yaml:"http-timeout"`
	LogLevel     string        `yaml:"log-level"`
	// empty: keep counters in memory only
	StatsRedisAddr string `yaml:"stats-redis-addr"`
}

func Default() Config {
	return Config{
		APIURL:       DefaultAPIURL,
		RequestLimit: 5,
		Window:       time.Second,
		HTTPTimeout:  10 * time.Second,
		LogLevel:     "info",
	}
}

// path may be empty: no config file then
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if p := strings.TrimSpace(path); p != "" {
		data, err := os.ReadFile(p)
		if err != nil {
			return Config{}, errors.Wrap(err, "read config file")
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, errors.Wrap(err, "parse config file")
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() error {
	if v := getEnv(EnvAPIURL); v != "" {
		c.APIURL = v
	}
	if v := getEnv(EnvSignature); v != "" {
		c.Signature = v
	}
	if v := getEnv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	if v := getEnv(EnvStatsRedisAddr); v != "" {
		c.StatsRedisAddr = v
	}
	if v := getEnv(EnvRequestLimit); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrapf(ErrConfiguration, "invalid %s: %v", EnvRequestLimit, err)
		}
		c.RequestLimit = n
	}
	if v := getEnv(EnvWindow); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return errors.Wrapf(ErrConfiguration, "invalid %s: %v", EnvWindow, err)
		}
		c.Window = d
	}
	if v := getEnv(EnvHTTPTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return errors.Wrapf(ErrConfiguration, "invalid %s: %v", EnvHTTPTimeout, err)
		}
		c.HTTPTimeout = d
	}
	return nil
}

func (c Config) Validate() error {
	if c.RequestLimit <= 0 {
		return errors.Wrapf(ErrConfiguration, "request limit must be positive, got %d", c.RequestLimit)
	}
	if c.Window <= 0 {
		return errors.Wrapf(ErrConfiguration, "window must be positive, got %s", c.Window)
	}
	if c.HTTPTimeout <= 0 {
		return errors.Wrapf(ErrConfiguration, "http timeout must be positive, got %s", c.HTTPTimeout)
	}
	u, err := url.Parse(c.APIURL)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return errors.Wrapf(ErrConfiguration, "api url %q must be an absolute url", c.APIURL)
	}
	if hclog.LevelFromString(c.LogLevel) == hclog.NoLevel {
		return errors.Wrapf(ErrConfiguration, "unknown log level %q", c.LogLevel)
	}
	return nil
}

func getEnv(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}
