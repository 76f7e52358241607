// Package config loads npmchart settings from a YAML file and the environment.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/git-pkgs/npmchart/client"
	"github.com/git-pkgs/npmchart/internal/cache"
	"github.com/git-pkgs/npmchart/internal/core"
	"github.com/git-pkgs/npmchart/internal/npm"
	"github.com/git-pkgs/npmchart/internal/view"
)

// Config is the complete configuration of the server and the CLI.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Upstream UpstreamConfig `yaml:"upstream"`
	Fetch    FetchConfig    `yaml:"fetch"`
	Cache    CacheConfig    `yaml:"cache"`
	Chart    ChartConfig    `yaml:"chart"`
	Log      LogConfig      `yaml:"log"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	// Popular packages listed on the home page.
	Popular []string `yaml:"popular"`
}

type UpstreamConfig struct {
	Ecosystem   string `yaml:"ecosystem"`
	RegistryURL string `yaml:"registry_url"`
	StatsURL    string `yaml:"stats_url"`
}

type FetchConfig struct {
	UserAgent     string        `yaml:"user_agent"`
	Timeout       time.Duration `yaml:"timeout"`
	MaxRetries    int           `yaml:"max_retries"`
	BaseDelay     time.Duration `yaml:"base_delay"`
	TripThreshold int64         `yaml:"trip_threshold"`
}

type CacheConfig struct {
	// TTL is the freshness window. Zero disables caching.
	TTL           time.Duration `yaml:"ttl"`
	PurgeInterval time.Duration `yaml:"purge_interval"`
}

type ChartConfig struct {
	MaxPoints    int    `yaml:"max_points"`
	Width        int    `yaml:"width"`
	Height       int    `yaml:"height"`
	DefaultColor string `yaml:"default_color"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text or json
}

// Environment variables that override file settings.
const (
	EnvAddr        = "NPMCHART_ADDR"
	EnvRegistryURL = "NPMCHART_REGISTRY_URL"
	EnvStatsURL    = "NPMCHART_STATS_URL"
	EnvLogLevel    = "NPMCHART_LOG_LEVEL"
	EnvCacheTTL    = "NPMCHART_CACHE_TTL"
)

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			Popular:         []string{"react", "lodash", "express", "typescript", "@babel/core", "vue"},
		},
		Upstream: UpstreamConfig{
			Ecosystem:   core.DefaultEcosystem,
			RegistryURL: npm.DefaultRegistryURL,
			StatsURL:    npm.DefaultStatsURL,
		},
		Fetch: FetchConfig{
			UserAgent:     "npmchart",
			Timeout:       30 * time.Second,
			MaxRetries:    0,
			BaseDelay:     500 * time.Millisecond,
			TripThreshold: 5,
		},
		Cache: CacheConfig{
			TTL:           cache.DefaultTTL,
			PurgeInterval: time.Minute,
		},
		Chart: ChartConfig{
			MaxPoints:    core.DefaultMaxPoints,
			Width:        1024,
			Height:       512,
			DefaultColor: view.DefaultColor,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads the YAML file at path over the defaults, then applies environment
// overrides. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides settings from environment variables looked up with lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvAddr); ok && v != "" {
		c.Server.Addr = v
	}
	if v, ok := lookup(EnvRegistryURL); ok && v != "" {
		c.Upstream.RegistryURL = v
	}
	if v, ok := lookup(EnvStatsURL); ok && v != "" {
		c.Upstream.StatsURL = v
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.Log.Level = v
	}
	if v, ok := lookup(EnvCacheTTL); ok && v != "" {
		d, err := parseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvCacheTTL, err)
		}
		c.Cache.TTL = d
	}
	return nil
}

// parseDuration accepts Go durations and bare seconds.
func parseDuration(s string) (time.Duration, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	return time.ParseDuration(s)
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	if !validURL(c.Upstream.RegistryURL) {
		errs = append(errs, fmt.Errorf("upstream.registry_url %q is not an absolute URL", c.Upstream.RegistryURL))
	}
	if !validURL(c.Upstream.StatsURL) {
		errs = append(errs, fmt.Errorf("upstream.stats_url %q is not an absolute URL", c.Upstream.StatsURL))
	}
	if c.Fetch.Timeout < 0 {
		errs = append(errs, errors.New("fetch.timeout must not be negative"))
	}
	if c.Fetch.MaxRetries < 0 {
		errs = append(errs, errors.New("fetch.max_retries must not be negative"))
	}
	if c.Fetch.TripThreshold < 1 {
		errs = append(errs, errors.New("fetch.trip_threshold must be at least 1"))
	}
	if c.Cache.TTL < 0 {
		errs = append(errs, errors.New("cache.ttl must not be negative"))
	}
	if c.Chart.MaxPoints < 0 {
		errs = append(errs, errors.New("chart.max_points must not be negative"))
	}
	if c.Chart.Width < 0 || c.Chart.Height < 0 {
		errs = append(errs, errors.New("chart.width and chart.height must not be negative"))
	}
	if !view.ValidColor(c.Chart.DefaultColor) {
		errs = append(errs, fmt.Errorf("chart.default_color %q is not a hex color", c.Chart.DefaultColor))
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		errs = append(errs, fmt.Errorf("log.format %q must be text or json", c.Log.Format))
	}

	return errors.Join(errs...)
}

func validURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// Endpoints returns the upstream endpoints for core.New.
func (c *Config) Endpoints() core.Endpoints {
	return core.Endpoints{
		Registry: c.Upstream.RegistryURL,
		Stats:    c.Upstream.StatsURL,
	}
}

// ClientOptions returns the HTTP client options for the fetch settings.
func (c *Config) ClientOptions() []client.Option {
	opts := []client.Option{
		client.WithTimeout(c.Fetch.Timeout),
		client.WithMaxRetries(c.Fetch.MaxRetries),
		client.WithBaseDelay(c.Fetch.BaseDelay),
		client.WithTripThreshold(c.Fetch.TripThreshold),
	}
	if c.Fetch.UserAgent != "" {
		opts = append(opts, client.WithUserAgent(c.Fetch.UserAgent))
	}
	return opts
}

// NewClient builds the HTTP client described by the fetch settings.
func (c *Config) NewClient() *client.Client {
	return client.NewClient(c.ClientOptions()...)
}

// NewSource builds the configured source on cl, wrapped in a cache when
// caching is enabled. A nil cl uses NewClient.
func (c *Config) NewSource(cl *client.Client) (*cache.Source, error) {
	if cl == nil {
		cl = c.NewClient()
	}
	src, err := core.New(c.Upstream.Ecosystem, c.Endpoints(), cl)
	if err != nil {
		return nil, err
	}
	return cache.Wrap(src, cache.New(c.Cache.TTL)), nil
}
