package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// flagKeys maps flag names to config keys where the generic kebab-to-snake
// transform is not enough. The CLI uses short flag names for common options,
// the config file uses nested sections.
var flagKeys = map[string]string{
	"database":     "database.path",
	"db-type":      "database.type",
	"store":        "store.path",
	"addr":         "relay.addr",
	"default-room": "relay.default_room",
	"relay-url":    "collab.url",
	"room":         "collab.room",
	"data-dir":     "data.dir",
	"sample":       "data.sample",
}

// findConfigFile finds the config file to use.
// Priority: explicit path > quarry.yaml > quarry.yml
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if _, err := os.Stat(DefaultConfigFile); err == nil {
		return DefaultConfigFile
	}
	if _, err := os.Stat(DefaultConfigAlt); err == nil {
		return DefaultConfigAlt
	}
	return ""
}

// Load loads configuration from file, environment variables, and flags.
// Precedence (highest to lowest): flags > env vars > config file > defaults
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// 1. Load defaults
	if err := k.Load(confmap.Provider(map[string]interface{}{
		"log_level":          DefaultLogLevel,
		"verbose":            false,
		"database.type":      DefaultDatabaseTyp,
		"database.path":      DefaultDatabase,
		"store.path":         DefaultStorePath,
		"relay.addr":         DefaultRelayAddr,
		"relay.default_room": DefaultRoom,
		"collab.room":        DefaultRoom,
		"collab.debounce_ms": DefaultDebounceMS,
		"data.dir":           DefaultDataDir,
		"data.sample":        true,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Load config file if present
	if path := findConfigFile(cfgFile); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", path, err)
		}
	}

	// 3. Load environment variables (QUARRY_ prefix)
	// Transform: QUARRY_LOG_LEVEL -> log_level, QUARRY_RELAY__ADDR -> relay.addr
	// (double underscore separates sections, single underscore stays in the key)
	if err := k.Load(env.Provider("QUARRY_", ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, "QUARRY_"))
		return strings.ReplaceAll(key, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Load flags (highest priority)
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			// Only load flags that were explicitly set
			if !f.Changed {
				return "", nil
			}
			if key, ok := flagKeys[f.Name]; ok {
				return key, posflag.FlagVal(flags, f)
			}
			return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	// 5. Unmarshal into Config struct
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Expand environment variables in credentials
	cfg.Database.User = expandEnvVars(cfg.Database.User)
	cfg.Database.Password = expandEnvVars(cfg.Database.Password)
	cfg.Database.Host = expandEnvVars(cfg.Database.Host)
	cfg.Database.Database = expandEnvVars(cfg.Database.Database)

	if err := cfg.Database.Validate(); err != nil {
		return nil, fmt.Errorf("invalid database configuration: %w", err)
	}

	return &cfg, nil
}

var envVarRe = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars expands ${VAR} patterns with environment variable values.
// Unset variables are left as-is.
func expandEnvVars(s string) string {
	return envVarRe.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		return match
	})
}
