// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Relaybot Contributors

// Package config loads the shared bot configuration handed to every owning
// component.
package config

import (
	"os"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/relaybot/relaybot/internal/xdg"
)

// CodeInvalidConfig is the error code for configuration failures.
const CodeInvalidConfig = "INVALID_CONFIG"

// Config is the shared configuration object.
type Config struct {
	Bot    BotConfig `koanf:"bot"`
	Listen string    `koanf:"listen"`
	// ListenRetries is how often binding Listen is retried while the
	// address is still in use.
	ListenRetries int            `koanf:"listen_retries"`
	MetricsAddr   string         `koanf:"metrics_addr"`
	Log           LogConfig      `koanf:"log"`
	Commands      CommandsConfig `koanf:"commands"`
	Actions       ActionsConfig  `koanf:"actions"`
	Voting        VotingConfig   `koanf:"voting"`
}

// BotConfig identifies the bot and controls dispatch.
type BotConfig struct {
	Name            string        `koanf:"name"`
	Prefix          string        `koanf:"prefix"`
	DispatchTimeout time.Duration `koanf:"dispatch_timeout"`
}

// LogConfig controls log output.
type LogConfig struct {
	Format string `koanf:"format"`
	Level  string `koanf:"level"`
}

// CommandsConfig locates the declarative command mapping.
type CommandsConfig struct {
	// File is the mapping file. Empty selects the built-in mapping.
	File string `koanf:"file"`
	// SkipUnknownGroups skips mapping entries naming an unknown group
	// instead of failing startup.
	SkipUnknownGroups bool `koanf:"skip_unknown_groups"`
}

// ActionsConfig bounds the dice roller.
type ActionsConfig struct {
	MaxDice  int `koanf:"max_dice"`
	MaxSides int `koanf:"max_sides"`
}

// VotingConfig bounds the voting component.
type VotingConfig struct {
	MaxTopics int `koanf:"max_topics"`
	// CacheTTL is how long a rendered tally is served before it is
	// recomputed.
	CacheTTL time.Duration `koanf:"cache_ttl"`
}

// Default values.
const (
	DefaultName            = "relaybot"
	DefaultPrefix          = "?"
	DefaultDispatchTimeout = 30 * time.Second
	DefaultListen          = "127.0.0.1:6667"
	DefaultListenRetries   = 5
	DefaultMetricsAddr     = "127.0.0.1:9100"
	DefaultLogFormat       = "json"
	DefaultLogLevel        = "info"
	DefaultMaxDice         = 20
	DefaultMaxSides        = 1000
	DefaultMaxTopics       = 50
	DefaultTallyCacheTTL   = 30 * time.Second
)

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		Bot: BotConfig{
			Name:            DefaultName,
			Prefix:          DefaultPrefix,
			DispatchTimeout: DefaultDispatchTimeout,
		},
		Listen:        DefaultListen,
		ListenRetries: DefaultListenRetries,
		MetricsAddr:   DefaultMetricsAddr,
		Log: LogConfig{
			Format: DefaultLogFormat,
			Level:  DefaultLogLevel,
		},
		Actions: ActionsConfig{
			MaxDice:  DefaultMaxDice,
			MaxSides: DefaultMaxSides,
		},
		Voting: VotingConfig{
			MaxTopics: DefaultMaxTopics,
			CacheTTL:  DefaultTallyCacheTTL,
		},
	}
}

// flagKeys maps CLI flag names onto config keys.
var flagKeys = map[string]string{
	"listen":       "listen",
	"metrics-addr": "metrics_addr",
	"log-format":   "log.format",
	"log-level":    "log.level",
	"commands":     "commands.file",
	"prefix":       "bot.prefix",
}

// Load builds the configuration from defaults, the YAML file at path and the
// flags explicitly set on flags (which may be nil).
//
// An empty path selects the XDG default file, which may be absent. An
// explicit path must exist.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	explicit := path != ""
	if !explicit {
		path = xdg.ConfigFile()
	}
	if explicit || fileExists(path) {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code(CodeInvalidConfig).
				With("path", path).
				Wrapf(err, "loading config file")
		}
	}

	if flags != nil {
		provider := posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			key, ok := flagKeys[f.Name]
			if !ok || !f.Changed {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return nil, oops.Code(CodeInvalidConfig).Wrapf(err, "loading flags")
		}
	}

	cfg := Default()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, oops.Code(CodeInvalidConfig).Wrapf(err, "decoding config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	invalid := func(key string, value any, format string, args ...any) error {
		return oops.Code(CodeInvalidConfig).
			With("key", key).
			With("value", value).
			Errorf(format, args...)
	}

	if c.Bot.Prefix == "" {
		return invalid("bot.prefix", c.Bot.Prefix, "bot.prefix is required")
	}
	if c.Bot.DispatchTimeout <= 0 {
		return invalid("bot.dispatch_timeout", c.Bot.DispatchTimeout, "bot.dispatch_timeout must be positive")
	}
	if c.ListenRetries < 0 {
		return invalid("listen_retries", c.ListenRetries, "listen_retries must not be negative")
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		return invalid("log.format", c.Log.Format, "log.format must be 'json' or 'text', got %q", c.Log.Format)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return invalid("log.level", c.Log.Level, "log.level must be one of debug, info, warn, error, got %q", c.Log.Level)
	}
	if c.Actions.MaxDice < 1 {
		return invalid("actions.max_dice", c.Actions.MaxDice, "actions.max_dice must be at least 1")
	}
	if c.Actions.MaxSides < 2 {
		return invalid("actions.max_sides", c.Actions.MaxSides, "actions.max_sides must be at least 2")
	}
	if c.Voting.MaxTopics < 1 {
		return invalid("voting.max_topics", c.Voting.MaxTopics, "voting.max_topics must be at least 1")
	}
	if c.Voting.CacheTTL < 0 {
		return invalid("voting.cache_ttl", c.Voting.CacheTTL, "voting.cache_ttl must not be negative")
	}
	return nil
}
