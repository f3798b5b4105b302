package sqlpen

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

// Default directory layout
const (
	// DefaultDataDir is where database files are stored
	DefaultDataDir = "data"
	// DefaultDiagramDir is where generated schema diagrams are stored
	DefaultDiagramDir = "er_diagram"
)

// envPrefix is the prefix for configuration environment variables
const envPrefix = "SQLPEN_"

// Config holds the directory layout of a workspace.
type Config struct {
	// DataDir is the directory holding all database files.
	DataDir string `koanf:"data_dir"`
	// DiagramDir is the directory holding generated diagram images.
	DiagramDir string `koanf:"diagram_dir"`
}

// withDefaults fills unset fields with the default layout.
func (c Config) withDefaults() Config {
	if c.DataDir == "" {
		c.DataDir = DefaultDataDir
	}
	if c.DiagramDir == "" {
		c.DiagramDir = DefaultDiagramDir
	}
	return c
}

// findConfigFile finds the config file to use.
// Priority: explicit path > sqlpen.yaml > sqlpen.yml
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range []string{"sqlpen.yaml", "sqlpen.yml"} {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// LoadConfig loads configuration from file, environment variables, and flags.
// Precedence (highest to lowest): flags > env vars > config file > defaults.
func LoadConfig(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(map[string]interface{}{
		"data_dir":    DefaultDataDir,
		"diagram_dir": DefaultDiagramDir,
	}, "."), nil); err != nil {
		return Config{}, fmt.Errorf("sqlpen: failed to load defaults: %w", err)
	}

	if used := findConfigFile(cfgFile); used != "" {
		if err := k.Load(file.Provider(used), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("sqlpen: error reading config file %s: %w", used, err)
		}
	}

	// SQLPEN_DATA_DIR -> data_dir
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	}), nil); err != nil {
		return Config{}, fmt.Errorf("sqlpen: failed to load env vars: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return Config{}, fmt.Errorf("sqlpen: failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("sqlpen: unable to decode config: %w", err)
	}
	return cfg.withDefaults(), nil
}
