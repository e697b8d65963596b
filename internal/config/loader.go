package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// Config file names, tried in order.
const (
	ConfigFileName    = "stitchql.yaml"
	ConfigFileNameAlt = "stitchql.yml"
)

// EnvPrefix is the prefix for environment variable overrides, e.g.
// STITCHQL_LINEAGE_PATH or STITCHQL_SQL__CATALOG for nested keys.
const EnvPrefix = "STITCHQL_"

// Load builds the configuration by merging, lowest priority first:
// built-in defaults, the config file (explicit path or discovered),
// environment variables, and CLI flags. A missing discovered config file
// is not an error; a missing explicit one is.
func Load(explicitPath string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// Defaults.
	if err := k.Load(confmap.Provider(map[string]any{
		"state_path":  DefaultStateFile,
		"sql.catalog": DefaultCatalog,
		"sql.schema":  DefaultSchema,
		"output":      DefaultOutput,
		"server.port": DefaultServerPort,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Config file.
	path, err := resolveConfigFile(explicitPath)
	if err != nil {
		return nil, err
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	// Environment. Double underscore separates nested keys so single
	// underscores survive inside key names.
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		return strings.ReplaceAll(key, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	// Flags override everything.
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			if !f.Changed {
				return "", nil
			}
			key := strings.ReplaceAll(f.Name, "-", "_")
			switch f.Name {
			case "lineage":
				key = "lineage_path"
			case "state":
				key = "state_path"
			case "catalog":
				key = "sql.catalog"
			case "schema":
				key = "sql.schema"
			case "strict-joins":
				key = "sql.strict_joins"
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.ApplyDefaults()
	return &cfg, nil
}

// resolveConfigFile returns the config file to load. An explicit path
// must exist; otherwise the well-known names are probed and absence is
// fine.
func resolveConfigFile(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file %s: %w", explicit, err)
		}
		return explicit, nil
	}
	for _, name := range []string{ConfigFileName, ConfigFileNameAlt} {
		if _, err := os.Stat(name); err == nil {
			return name, nil
		}
	}
	return "", nil
}
