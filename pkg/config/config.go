// Package config loads nodel's TOML configuration.
//
// The file is optional. Every field has a default (see [Default]) and the
// file only overrides what it names:
//
//	[server]
//	addr = ":8080"
//
//	[storage]
//	backend = "sqlite"            # memory | file | sqlite | redis | mongo
//	sqlite_path = "~/.local/share/nodel/nodel.db"
//
//	[cache]
//	backend = "file"              # none | file | redis
//	ttl = "24h"
//
//	[render]
//	default_template = "box"
//
//	[[render.templates]]
//	name = "box"
//	label = "{name}"
//	shape = "box"
//
//	[render.relations.depends]
//	color = "#ad00d9"
//	label = "depends on"
//
// The file is looked up at $NODEL_CONFIG, then at [DefaultPath].
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	nerrors "github.com/matzehuels/nodel/pkg/errors"
)

// EnvPath names the environment variable that overrides the config path.
const EnvPath = "NODEL_CONFIG"

// Storage backends.
const (
	StorageMemory = "memory"
	StorageFile   = "file"
	StorageSQLite = "sqlite"
	StorageRedis  = "redis"
	StorageMongo  = "mongo"
)

// Cache backends.
const (
	CacheNone  = "none"
	CacheFile  = "file"
	CacheRedis = "redis"
)

// Config is the whole configuration file.
type Config struct {
	Server  ServerConfig  `toml:"server"`
	Storage StorageConfig `toml:"storage"`
	Cache   CacheConfig   `toml:"cache"`
	Render  RenderConfig  `toml:"render"`
}

// ServerConfig configures `nodel serve`.
type ServerConfig struct {
	Addr         string   `toml:"addr"`
	ReadTimeout  Duration `toml:"read_timeout"`
	WriteTimeout Duration `toml:"write_timeout"`
}

// StorageConfig selects and configures the snapshot store.
type StorageConfig struct {
	Backend       string `toml:"backend"`
	Dir           string `toml:"dir"`
	SQLitePath    string `toml:"sqlite_path"`
	RedisURL      string `toml:"redis_url"`
	MongoURI      string `toml:"mongo_uri"`
	MongoDatabase string `toml:"mongo_database"`
}

// CacheConfig selects and configures the render cache.
type CacheConfig struct {
	Backend  string   `toml:"backend"`
	Dir      string   `toml:"dir"`
	RedisURL string   `toml:"redis_url"`
	TTL      Duration `toml:"ttl"`
}

// RenderConfig describes the node templates and relation styles the
// renderer knows.
type RenderConfig struct {
	DefaultTemplate string                   `toml:"default_template" json:"default_template"`
	Templates       []Template               `toml:"templates" json:"templates"`
	Relations       map[string]RelationStyle `toml:"relations" json:"relations"`
}

// Template is a node template. Label may contain {key} placeholders that
// are filled from node data.
type Template struct {
	Name  string `toml:"name" json:"name"`
	Label string `toml:"label" json:"label"`
	Shape string `toml:"shape" json:"shape"`
	Color string `toml:"color" json:"color"`
}

// RelationStyle styles the connectors of one relation type.
type RelationStyle struct {
	Color string `toml:"color" json:"color"`
	Label string `toml:"label" json:"label"`
}

// Duration is a time.Duration written as a Go duration string ("90s", "24h").
type Duration struct {
	time.Duration
}

// UnmarshalText parses a duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText formats the duration.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:         ":8080",
			ReadTimeout:  Duration{15 * time.Second},
			WriteTimeout: Duration{30 * time.Second},
		},
		Storage: StorageConfig{
			Backend:       StorageFile,
			Dir:           "~/.local/share/nodel",
			SQLitePath:    "~/.local/share/nodel/nodel.db",
			RedisURL:      "redis://localhost:6379/0",
			MongoURI:      "mongodb://localhost:27017",
			MongoDatabase: "nodel",
		},
		Cache: CacheConfig{
			Backend:  CacheFile,
			Dir:      "~/.cache/nodel",
			RedisURL: "redis://localhost:6379/0",
			TTL:      Duration{24 * time.Hour},
		},
		Render: RenderConfig{
			DefaultTemplate: "box",
			Templates: []Template{
				{Name: "box", Label: "{name}", Shape: "box"},
				{Name: "circle", Label: "{name}", Shape: "ellipse"},
				{Name: "database", Label: "{name}", Shape: "cylinder"},
			},
			Relations: map[string]RelationStyle{
				"default": {Color: "#333333"},
			},
		},
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/nodel/config.toml (or the platform
// equivalent).
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "nodel", "config.toml"), nil
}

// Resolve picks the config path: explicit, then $NODEL_CONFIG, then
// [DefaultPath]. It reports whether the path was chosen explicitly.
func Resolve(explicit string) (path string, required bool) {
	if explicit != "" {
		return explicit, true
	}
	if env := os.Getenv(EnvPath); env != "" {
		return env, true
	}
	p, err := DefaultPath()
	if err != nil {
		return "", false
	}
	return p, false
}

// Load reads the file at path over [Default] and validates the result. A
// missing file is an error only when required is set. Unknown keys are
// rejected so typos do not silently fall back to defaults.
func Load(path string, required bool) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, cfg.Validate()
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) && !required {
		return cfg, cfg.Validate()
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config %q: %w", path, err)
	}

	// Replace, not merge, the template list when the file names one.
	var probe struct {
		Render struct {
			Templates []toml.Primitive `toml:"templates"`
		} `toml:"render"`
	}
	if _, err := toml.Decode(string(data), &probe); err == nil && len(probe.Render.Templates) > 0 {
		cfg.Render.Templates = nil
	}

	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return Config{}, nerrors.Wrap(nerrors.ErrCodeInvalidFormat, err, "parse config %q", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, nerrors.New(nerrors.ErrCodeInvalidInput,
			"config %q: unknown keys %s", path, strings.Join(keys, ", "))
	}
	return cfg, cfg.Validate()
}

// Validate checks backend names and cross-field requirements.
func (c Config) Validate() error {
	switch c.Storage.Backend {
	case StorageMemory:
	case StorageFile:
		if c.Storage.Dir == "" {
			return invalid("storage.dir is required for the file backend")
		}
	case StorageSQLite:
		if c.Storage.SQLitePath == "" {
			return invalid("storage.sqlite_path is required for the sqlite backend")
		}
	case StorageRedis:
		if c.Storage.RedisURL == "" {
			return invalid("storage.redis_url is required for the redis backend")
		}
	case StorageMongo:
		if c.Storage.MongoURI == "" || c.Storage.MongoDatabase == "" {
			return invalid("storage.mongo_uri and storage.mongo_database are required for the mongo backend")
		}
	default:
		return invalid("unknown storage backend %q", c.Storage.Backend)
	}

	switch c.Cache.Backend {
	case CacheNone:
	case CacheFile:
		if c.Cache.Dir == "" {
			return invalid("cache.dir is required for the file backend")
		}
	case CacheRedis:
		if c.Cache.RedisURL == "" {
			return invalid("cache.redis_url is required for the redis backend")
		}
	default:
		return invalid("unknown cache backend %q", c.Cache.Backend)
	}
	if c.Cache.TTL.Duration < 0 {
		return invalid("cache.ttl must not be negative")
	}

	seen := make(map[string]bool, len(c.Render.Templates))
	for i, t := range c.Render.Templates {
		if t.Name == "" {
			return invalid("render.templates[%d] has no name", i)
		}
		if seen[t.Name] {
			return invalid("render template %q defined twice", t.Name)
		}
		seen[t.Name] = true
	}
	if c.Render.DefaultTemplate != "" && !seen[c.Render.DefaultTemplate] {
		return invalid("render.default_template %q is not a defined template", c.Render.DefaultTemplate)
	}
	return nil
}

func invalid(format string, args ...any) error {
	return nerrors.New(nerrors.ErrCodeInvalidInput, "invalid config: "+format, args...)
}

// ExpandHome replaces a leading "~" with the user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
