// Package config loads flowspace settings from a TOML file.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/flowspace/pkg/errors"
	"github.com/matzehuels/flowspace/pkg/flowchart"
	"github.com/matzehuels/flowspace/pkg/physics"
	"github.com/matzehuels/flowspace/pkg/source"
)

const appName = "flowspace"

// Cache backends.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendMongo = "mongo"
	BackendNone  = "none"
)

// Config holds flowspace configuration.
type Config struct {
	Simulation SimulationConfig `toml:"simulation"`
	Source     SourceConfig     `toml:"source"`
	Cache      CacheConfig      `toml:"cache"`
	Server     ServerConfig     `toml:"server"`
}

// SimulationConfig holds the physics constants and the default run length.
type SimulationConfig struct {
	physics.Params
	// Ticks is how many ticks `simulate` and `render` run before writing.
	Ticks int `toml:"ticks"`
}

// SourceConfig controls how documents become flowcharts.
type SourceConfig struct {
	Lang        string  `toml:"lang"`
	Seed        uint64  `toml:"seed"`
	Concurrency int     `toml:"concurrency"`
	Spread      float64 `toml:"spread"`
	LengthScale float64 `toml:"length_scale"`
}

// BuildOptions returns the flowchart construction options.
func (s SourceConfig) BuildOptions() flowchart.BuildOptions {
	return flowchart.BuildOptions{Seed: s.Seed, Spread: s.Spread, LengthScale: s.LengthScale}
}

// CacheConfig selects where settled frames are stored.
type CacheConfig struct {
	Backend   string        `toml:"backend"` // "file", "redis", "mongo", "none"
	Dir       string        `toml:"dir"`
	RedisAddr string        `toml:"redis_addr"`
	MongoURI  string        `toml:"mongo_uri"`
	Namespace string        `toml:"namespace"` // key prefix, or collection for mongo
	TTL       time.Duration `toml:"ttl"`
}

// ServerConfig controls `flowspace serve`.
type ServerConfig struct {
	Addr string `toml:"addr"`
	FPS  int    `toml:"fps"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Simulation: SimulationConfig{Params: physics.DefaultParams(), Ticks: 2000},
		Source: SourceConfig{
			Lang:        source.DefaultLang,
			Seed:        flowchart.DefaultSeed,
			Concurrency: 4,
			Spread:      flowchart.DefaultSpread,
			LengthScale: flowchart.DefaultLengthScale,
		},
		Cache:  CacheConfig{Backend: BackendFile, Namespace: appName, TTL: 7 * 24 * time.Hour},
		Server: ServerConfig{Addr: "127.0.0.1:8740", FPS: 60},
	}
}

// ConfigDir returns the flowspace config directory path.
func ConfigDir() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, appName)
}

// CacheDir returns the default file cache directory (~/.cache/flowspace/).
func CacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// Path returns the default config file path.
func Path() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// Load reads path on top of the defaults. An empty path means [Path]; a
// missing file yields the defaults. Unknown keys are rejected.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		path = Path()
	}

	md, err := toml.DecodeFile(path, cfg)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read config %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown config key %q in %s", undecoded[0].String(), path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes cfg to path, creating parent directories.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := c.Simulation.Validate(); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "simulation")
	}
	if c.Simulation.Ticks < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "simulation: ticks must not be negative")
	}
	if c.Source.Lang == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "source: lang must not be empty")
	}
	if c.Source.Concurrency < 1 {
		return errors.New(errors.ErrCodeInvalidConfig, "source: concurrency must be at least 1")
	}
	if c.Source.Spread < 0 || c.Source.LengthScale < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "source: spread and length_scale must not be negative")
	}

	switch c.Cache.Backend {
	case BackendFile, BackendNone:
	case BackendRedis:
		if c.Cache.RedisAddr == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "cache: redis backend needs redis_addr")
		}
	case BackendMongo:
		if c.Cache.MongoURI == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "cache: mongo backend needs mongo_uri")
		}
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "cache: unknown backend %q", c.Cache.Backend)
	}
	if err := errors.ValidateNamespace(c.Cache.Namespace); err != nil {
		return err
	}
	if c.Cache.TTL < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "cache: ttl must not be negative")
	}

	if c.Server.Addr == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "server: addr must not be empty")
	}
	if c.Server.FPS < 1 || c.Server.FPS > 240 {
		return errors.New(errors.ErrCodeInvalidConfig, "server: fps must be in [1, 240] (got %d)", c.Server.FPS)
	}
	return nil
}

// String renders the configuration as TOML.
func (c *Config) String() string {
	data, err := toml.Marshal(c)
	if err != nil {
		return err.Error()
	}
	return string(data)
}
