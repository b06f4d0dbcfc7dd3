package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// FileName is the config file osprey looks for in a project root
const FileName = "osprey.yaml"

// EnvPrefix prefixes environment overrides (e.g. OSPREY_PROJECT_TYPE)
const EnvPrefix = "OSPREY"

// Load reads the config file at path. A missing file yields defaults;
// environment variables override both. The result is validated.
func Load(path string) (*Config, error) {
	v := newViper()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, &ConfigurationError{
				Message: fmt.Sprintf("reading %s", path),
				Err:     err,
			}
		}
	}

	return decode(v)
}

// LoadFromDir looks for osprey.yaml (or .osprey.yaml) in dir
func LoadFromDir(dir string) (*Config, error) {
	for _, name := range []string{FileName, "." + FileName} {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return Load(p)
		}
	}
	return Load("")
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")

	d := Default()
	v.SetDefault("project_type", d.ProjectType)
	v.SetDefault("coupling_thresholds.fan_out_medium", d.CouplingThresholds.FanOutMedium)
	v.SetDefault("coupling_thresholds.fan_out_high", d.CouplingThresholds.FanOutHigh)
	v.SetDefault("coupling_thresholds.fan_in_god_module", d.CouplingThresholds.FanInGodModule)
	v.SetDefault("coupling_thresholds.deep_chain_depth", d.CouplingThresholds.DeepChainDepth)
	v.SetDefault("custom_layers", []LayerDefinition{})
	v.SetDefault("exclude", []string{})

	// Enable environment variable overrides
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, &ConfigurationError{Message: "decoding configuration", Err: err}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes configuration to a YAML file
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}
