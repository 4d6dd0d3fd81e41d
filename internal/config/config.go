// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package config loads holologin settings from defaults, a YAML file,
// HOLOLOGIN_* environment variables and command-line flags, in that order.
package config

import (
	"errors"
	"io/fs"
	"net/url"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/holomush/holologin/internal/form"
	"github.com/holomush/holologin/internal/logging"
	"github.com/holomush/holologin/internal/transport"
	"github.com/holomush/holologin/internal/xdg"
)

// CodeInvalid marks a configuration that failed validation.
const CodeInvalid = "CONFIG_INVALID"

// EnvPrefix is the prefix for environment overrides.
const EnvPrefix = "HOLOLOGIN_"

const koanfDelim = "."

// DevConfig configures the local development endpoint.
type DevConfig struct {
	// ListenAddr is where the dev endpoint listens.
	ListenAddr string `koanf:"listen_addr"`
	// AccountsFile is a YAML account list. Empty seeds the default account.
	AccountsFile string `koanf:"accounts_file"`
}

// Config holds the holologin configuration.
type Config struct {
	BaseURL     string    `koanf:"base_url"`
	LoginPath   string    `koanf:"login_path"`
	LogoutPath  string    `koanf:"logout_path"`
	Locale      string    `koanf:"locale"`
	LogFormat   string    `koanf:"log_format"`
	LogLevel    string    `koanf:"log_level"`
	MetricsAddr string    `koanf:"metrics_addr"`
	Dev         DevConfig `koanf:"dev"`

	// ConfigFile is the file that was loaded, if any.
	ConfigFile string `koanf:"-"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		BaseURL:    "http://127.0.0.1:8080",
		LoginPath:  transport.DefaultLoginPath,
		LogoutPath: transport.DefaultLogoutPath,
		Locale:     form.DefaultLocale,
		LogFormat:  "text",
		LogLevel:   "warn",
		Dev: DevConfig{
			ListenAddr: "127.0.0.1:8080",
		},
	}
}

// LoadOptions configures how configuration is loaded.
type LoadOptions struct {
	// ConfigFile is an explicit config path. It must exist when set.
	// When empty the XDG default is read if present.
	ConfigFile string
	// Flags are applied last; only flags the user changed override.
	Flags *pflag.FlagSet
	// FlagKeys maps flag names to config keys. Flags not listed are ignored.
	FlagKeys map[string]string
	// Environ defaults to os.Environ.
	Environ func() []string
}

// envTransform maps HOLOLOGIN_DEV_LISTEN_ADDR to dev.listen_addr.
func envTransform(k, v string) (string, any) {
	key := strings.ToLower(strings.TrimPrefix(k, EnvPrefix))
	if rest, ok := strings.CutPrefix(key, "dev_"); ok {
		return "dev." + rest, v
	}
	return key, v
}

// Load builds the configuration.
// Priority order: flags > environment > config file > defaults.
func Load(opts LoadOptions) (*Config, error) {
	k := koanf.New(koanfDelim)

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, oops.Wrapf(err, "load defaults")
	}

	path, err := configPath(opts.ConfigFile)
	if err != nil {
		return nil, err
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code(CodeInvalid).With("path", path).Wrapf(err, "load config file")
		}
	}

	environ := opts.Environ
	if environ == nil {
		environ = os.Environ
	}
	envProvider := env.Provider(koanfDelim, env.Opt{
		Prefix:        EnvPrefix,
		TransformFunc: envTransform,
		EnvironFunc:   environ,
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, oops.Wrapf(err, "load environment")
	}

	if opts.Flags != nil {
		flagProvider := posflag.ProviderWithFlag(opts.Flags, koanfDelim, k, func(f *pflag.Flag) (string, any) {
			key, ok := opts.FlagKeys[f.Name]
			if !ok {
				return "", nil
			}
			return key, posflag.FlagVal(opts.Flags, f)
		})
		if err := k.Load(flagProvider, nil); err != nil {
			return nil, oops.Wrapf(err, "load flags")
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, oops.Code(CodeInvalid).Wrapf(err, "unmarshal config")
	}
	cfg.ConfigFile = path

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// configPath resolves which file to read. An explicit path must exist; the
// XDG default is skipped when absent.
func configPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", oops.Code(CodeInvalid).With("path", explicit).Wrapf(err, "config file")
		}
		return explicit, nil
	}

	def, err := xdg.DefaultConfigFile()
	if err != nil {
		// No HOME: nothing to read, defaults still apply.
		return "", nil //nolint:nilerr // missing home only disables the default file
	}
	if _, err := os.Stat(def); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", oops.Code(CodeInvalid).With("path", def).Wrapf(err, "config file")
	}
	return def, nil
}

// Validate checks values that would otherwise fail later at first use.
func (c *Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return oops.Code(CodeInvalid).
			With("key", "base_url").
			With("value", c.BaseURL).
			Errorf("base_url must be an absolute http or https URL")
	}
	if _, err := form.MessagesFor(c.Locale); err != nil {
		return oops.Code(CodeInvalid).
			With("key", "locale").
			With("value", c.Locale).
			With("available", form.Locales()).
			Errorf("unknown locale %q", c.Locale)
	}
	if !logging.ValidFormat(c.LogFormat) {
		return oops.Code(CodeInvalid).
			With("key", "log_format").
			With("value", c.LogFormat).
			Errorf("log_format must be json or text")
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return oops.Code(CodeInvalid).
			With("key", "log_level").
			With("value", c.LogLevel).
			Errorf("invalid log_level %q", c.LogLevel)
	}
	return nil
}
