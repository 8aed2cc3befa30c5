// Package config loads settings for the stac binaries from a TOML or YAML
// file. Command-line flags override the loaded values.
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/robert-malhotra/go-stac-catalog/pkg/stac"
	"github.com/robert-malhotra/go-stac-catalog/pkg/stacio"
)

// ErrUnknownFormat is returned by Load for files that are neither TOML nor YAML.
var ErrUnknownFormat = errors.New("config: unknown file format")

// Config is the full set of options read from a config file.
type Config struct {
	CatalogType string `toml:"catalog_type" yaml:"catalog_type"`
	LogLevel    string `toml:"log_level" yaml:"log_level"`

	Layout Layout `toml:"layout" yaml:"layout"`
	HTTP   HTTP   `toml:"http" yaml:"http"`
	Cache  Cache  `toml:"cache" yaml:"cache"`
}

// Layout holds path templates for TemplateLayout. Empty templates fall back
// to the best-practices layout.
type Layout struct {
	Catalog    string `toml:"catalog" yaml:"catalog"`
	Collection string `toml:"collection" yaml:"collection"`
	Item       string `toml:"item" yaml:"item"`
}

type HTTP struct {
	Timeout     Duration          `toml:"timeout" yaml:"timeout"`
	MaxAttempts int               `toml:"max_attempts" yaml:"max_attempts"`
	Headers     map[string]string `toml:"headers" yaml:"headers"`
	Token       string            `toml:"token" yaml:"token"`
	APIKey      string            `toml:"api_key" yaml:"api_key"`
	// APIKeyHeader defaults to "Authorization".
	APIKeyHeader string `toml:"api_key_header" yaml:"api_key_header"`
	Username     string `toml:"username" yaml:"username"`
	Password     string `toml:"password" yaml:"password"`
}

// Cache selects the remote document cache. Redis wins when both Dir and
// RedisAddr are set.
type Cache struct {
	Dir           string   `toml:"dir" yaml:"dir"`
	RedisAddr     string   `toml:"redis_addr" yaml:"redis_addr"`
	RedisPassword string   `toml:"redis_password" yaml:"redis_password"`
	RedisDB       int      `toml:"redis_db" yaml:"redis_db"`
	TTL           Duration `toml:"ttl" yaml:"ttl"`
}

// Duration is a time.Duration written as a string such as "30s".
type Duration time.Duration

func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) String() string { return time.Duration(d).String() }

// UnmarshalText parses a Go duration string. It serves TOML.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return fmt.Errorf("config: invalid duration %q: %w", text, err)
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return fmt.Errorf("config: duration must be a string: %w", err)
	}
	return d.UnmarshalText([]byte(s))
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		CatalogType: string(stac.SelfContained),
		LogLevel:    "info",
		HTTP: HTTP{
			Timeout:     Duration(30 * time.Second),
			MaxAttempts: 3,
		},
		Cache: Cache{TTL: Duration(time.Hour)},
	}
}

// Load reads the file at path, choosing the decoder by extension. Fields the
// file leaves out keep their defaults. An empty path returns Default.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(string(data), &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	default:
		return Config{}, fmt.Errorf("%w: %s", ErrUnknownFormat, path)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values that cannot be checked by decoding alone.
func (c Config) Validate() error {
	if _, err := c.StacCatalogType(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.HTTP.MaxAttempts < 0 {
		return fmt.Errorf("config: max_attempts must not be negative, got %d", c.HTTP.MaxAttempts)
	}
	if c.HTTP.Timeout < 0 {
		return fmt.Errorf("config: timeout must not be negative, got %s", c.HTTP.Timeout)
	}
	return nil
}

// StacCatalogType returns the configured catalog type, SelfContained when unset.
func (c Config) StacCatalogType() (stac.CatalogType, error) {
	if c.CatalogType == "" {
		return stac.SelfContained, nil
	}
	return stac.ParseCatalogType(c.CatalogType)
}

// LayoutStrategy returns a TemplateLayout when any template is set and the
// best-practices layout otherwise.
func (c Config) LayoutStrategy() stac.LayoutStrategy {
	l := c.Layout
	if l.Catalog == "" && l.Collection == "" && l.Item == "" {
		return stac.BestPracticesLayout{}
	}
	return stac.TemplateLayout{
		CatalogTemplate:    l.Catalog,
		CollectionTemplate: l.Collection,
		ItemTemplate:       l.Item,
	}
}

// IOOptions translates the HTTP and cache settings into stacio options. The
// returned close function releases the document cache.
func (c Config) IOOptions(ctx context.Context, logger stacio.Logger) ([]stacio.Option, func() error, error) {
	opts := []stacio.Option{stacio.WithTimeout(c.HTTP.Timeout.Std())}
	if logger != nil {
		opts = append(opts, stacio.WithLogger(logger))
	}
	if c.HTTP.MaxAttempts > 0 {
		opts = append(opts, stacio.WithMaxAttempts(c.HTTP.MaxAttempts))
	}
	for k, v := range c.HTTP.Headers {
		opts = append(opts, stacio.WithHeader(k, v))
	}

	var mw []stacio.Middleware
	if c.HTTP.Token != "" {
		mw = append(mw, stacio.BearerToken(c.HTTP.Token))
	}
	if c.HTTP.APIKey != "" {
		mw = append(mw, stacio.APIKey(c.HTTP.APIKeyHeader, c.HTTP.APIKey))
	}
	if c.HTTP.Username != "" {
		mw = append(mw, stacio.BasicAuth(c.HTTP.Username, c.HTTP.Password))
	}
	if len(mw) > 0 {
		opts = append(opts, stacio.WithMiddleware(mw...))
	}

	cache, err := c.documentCache(ctx)
	if err != nil {
		return nil, nil, err
	}
	opts = append(opts, stacio.WithDocumentCache(cache, c.Cache.TTL.Std()))
	return opts, cache.Close, nil
}

func (c Config) documentCache(ctx context.Context) (stacio.Cache, error) {
	switch {
	case c.Cache.RedisAddr != "":
		client, err := stacio.DialRedis(ctx, c.Cache.RedisAddr, c.Cache.RedisPassword, c.Cache.RedisDB)
		if err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
		return stacio.NewRedisCache(client, "stac:"), nil
	case c.Cache.Dir != "":
		fc, err := stacio.NewFileCache(c.Cache.Dir)
		if err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
		return fc, nil
	default:
		return stacio.NullCache{}, nil
	}
}

// NewIO builds an IO from the configuration followed by any extra options.
func (c Config) NewIO(ctx context.Context, logger stacio.Logger, extra ...stacio.Option) (*stacio.IO, func() error, error) {
	opts, closeCache, err := c.IOOptions(ctx, logger)
	if err != nil {
		return nil, nil, err
	}
	o, err := stacio.New(append(opts, extra...)...)
	if err != nil {
		_ = closeCache()
		return nil, nil, err
	}
	return o, closeCache, nil
}
