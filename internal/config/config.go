// Package config loads registrar settings from defaults, an optional YAML
// file, REGISTRAR_ environment variables and command-line flags, in that
// order of increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

const (
	// DefaultFile is read from the working directory when no file is named.
	DefaultFile = "registrar.yaml"
	// EnvPrefix marks environment overrides. A double underscore separates
	// nested keys: REGISTRAR_STORAGE__DRIVER sets storage.driver.
	EnvPrefix = "REGISTRAR_"
)

// Config holds all runtime settings.
type Config struct {
	Storage      StorageConfig `koanf:"storage"`
	DeletePolicy string        `koanf:"delete_policy" validate:"oneof=cascade restrict orphan"`
	UniqueNames  bool          `koanf:"unique_names"`
	Log          LogConfig     `koanf:"log"`
	Blob         BlobConfig    `koanf:"blob"`
	HTTP         HTTPConfig    `koanf:"http"`
	Seed         SeedConfig    `koanf:"seed"`
	Output       string        `koanf:"output" validate:"oneof=table json csv"`
}

type StorageConfig struct {
	Driver      string `koanf:"driver" validate:"oneof=memory sqlite postgres"`
	SQLitePath  string `koanf:"sqlite_path" validate:"required_if=Driver sqlite"`
	PostgresDSN string `koanf:"postgres_dsn"`
}

type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=debug info warn error"`
	Format string `koanf:"format" validate:"oneof=json console"`
}

type BlobConfig struct {
	Driver string   `koanf:"driver" validate:"oneof=memory fs s3"`
	FSRoot string   `koanf:"fs_root" validate:"required_if=Driver fs"`
	S3     S3Config `koanf:"s3"`
}

type S3Config struct {
	Bucket    string `koanf:"bucket"`
	Region    string `koanf:"region"`
	Endpoint  string `koanf:"endpoint"`
	PathStyle bool   `koanf:"path_style"`
}

type HTTPConfig struct {
	Addr string `koanf:"addr" validate:"required"`
}

// SeedConfig controls fixture loading at startup. An empty File means the
// built-in fixture.
type SeedConfig struct {
	Auto bool   `koanf:"auto"`
	File string `koanf:"file"`
}

// Defaults returns the baseline configuration as a flat koanf map.
func Defaults() map[string]any {
	return map[string]any{
		"storage.driver":      "memory",
		"storage.sqlite_path": "registrar.db",
		"delete_policy":       "cascade",
		"unique_names":        false,
		"log.level":           "info",
		"log.format":          "console",
		"blob.driver":         "memory",
		"blob.fs_root":        "exports",
		"blob.s3.region":      "us-east-1",
		"http.addr":           ":8080",
		"seed.auto":           true,
		"output":              "table",
	}
}

// flagKeys maps persistent CLI flags onto config keys.
var flagKeys = map[string]string{
	"storage":       "storage.driver",
	"sqlite-path":   "storage.sqlite_path",
	"postgres-dsn":  "storage.postgres_dsn",
	"delete-policy": "delete_policy",
	"unique-names":  "unique_names",
	"log-level":     "log.level",
	"log-format":    "log.format",
	"blob":          "blob.driver",
	"blob-root":     "blob.fs_root",
	"s3-bucket":     "blob.s3.bucket",
	"addr":          "http.addr",
	"no-seed":       "seed.auto",
	"seed-file":     "seed.file",
	"output":        "output",
}

// Load builds the configuration. cfgFile may be empty, in which case
// DefaultFile is used if present. flags may be nil; only flags the user set
// take effect.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(Defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	path := cfgFile
	if path == "" {
		if _, err := os.Stat(DefaultFile); err == nil {
			path = DefaultFile
		}
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load env vars: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			if !f.Changed {
				return "", nil
			}
			key, ok := flagKeys[f.Name]
			if !ok {
				return "", nil
			}
			if f.Name == "no-seed" {
				return key, !posflag.FlagVal(flags, f).(bool)
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(key, "__", ".")
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("koanf")
	})
	return v
}

// Validate reports the first invalid setting using its config key.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		if c.Blob.Driver == "s3" && c.Blob.S3.Bucket == "" {
			return errors.New("invalid config: blob.s3.bucket is required for the s3 driver")
		}
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return fmt.Errorf("invalid config: %s %q fails %s %s", configKey(fe.Namespace()), fmt.Sprint(fe.Value()), fe.Tag(), fe.Param())
	}
	return fmt.Errorf("invalid config: %w", err)
}

// configKey drops the root struct name from a validator namespace, leaving
// the koanf key (Config.storage.driver becomes storage.driver).
func configKey(namespace string) string {
	_, rest, _ := strings.Cut(namespace, ".")
	return rest
}
