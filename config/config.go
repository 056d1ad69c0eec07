package config

import (
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Log       Log      `yaml:"log"`
	Database  Database `yaml:"database"`
	Arguments Ranges   `yaml:"arguments"`
	Functions Ranges   `yaml:"functions"`
	Symbols   Symbols  `yaml:"symbols"`
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type Database struct {
	Path     string `yaml:"path"`
	Compress bool   `yaml:"compress"`
}

type Ranges struct {
	AllowOverlap bool `yaml:"allow_overlap"`
}

type Symbols struct {
	CacheSize int `yaml:"cache_size"`
}

func Default() Config {
	return Config{
		Log:      Log{Level: "info", Format: "logfmt"},
		Database: Database{Compress: true},
		Symbols:  Symbols{CacheSize: 128},
	}
}

// Load reads the YAML file at path over the defaults. An empty path returns
// the defaults.
func Load(fs afero.Fs, path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return cfg, errors.Wrapf(err, "read config %s", path)
	}
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "parse config %s", path)
	}
	return cfg, cfg.Validate()
}

func (c *Config) Validate() error {
	var errs error
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = multierror.Append(errs, errors.Errorf("log.level: unknown level %q", c.Log.Level))
	}
	switch c.Log.Format {
	case "logfmt", "json":
	default:
		errs = multierror.Append(errs, errors.Errorf("log.format: unknown format %q", c.Log.Format))
	}
	if c.Symbols.CacheSize <= 0 {
		errs = multierror.Append(errs, errors.Errorf("symbols.cache_size: must be positive, got %d", c.Symbols.CacheSize))
	}
	return errs
}
