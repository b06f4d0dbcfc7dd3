// Package config holds osprey.yaml settings: coupling thresholds, the project
// type used to pick built-in layer rules, and optional custom layers.
package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/gobwas/glob"
)

// Default coupling thresholds
const (
	DefaultFanOutMedium   = 7
	DefaultFanOutHigh     = 10
	DefaultFanInGodModule = 20
	DefaultDeepChainDepth = 6
)

// ProjectTypeAuto selects built-in layer rules from the detected project
const ProjectTypeAuto = "auto"

var projectTypes = []string{
	ProjectTypeAuto,
	"react", "nextjs", "node", "javascript", "typescript",
	"python", "django", "flask", "fastapi",
	"go",
	"generic",
}

// ProjectTypes lists the accepted project_type values
func ProjectTypes() []string {
	return slices.Clone(projectTypes)
}

// Thresholds controls when coupling violations are raised
type Thresholds struct {
	FanOutMedium   int `mapstructure:"fan_out_medium" yaml:"fan_out_medium"`
	FanOutHigh     int `mapstructure:"fan_out_high" yaml:"fan_out_high"`
	FanInGodModule int `mapstructure:"fan_in_god_module" yaml:"fan_in_god_module"`
	DeepChainDepth int `mapstructure:"deep_chain_depth" yaml:"deep_chain_depth"`
}

// DefaultThresholds returns 7 / 10 / 20 / 6
func DefaultThresholds() Thresholds {
	return Thresholds{
		FanOutMedium:   DefaultFanOutMedium,
		FanOutHigh:     DefaultFanOutHigh,
		FanInGodModule: DefaultFanInGodModule,
		DeepChainDepth: DefaultDeepChainDepth,
	}
}

// NewThresholds builds validated thresholds
func NewThresholds(fanOutMedium, fanOutHigh, fanInGodModule, deepChainDepth int) (Thresholds, error) {
	t := Thresholds{
		FanOutMedium:   fanOutMedium,
		FanOutHigh:     fanOutHigh,
		FanInGodModule: fanInGodModule,
		DeepChainDepth: deepChainDepth,
	}
	if err := t.Validate(); err != nil {
		return Thresholds{}, err
	}
	return t, nil
}

// Validate checks every threshold is positive and medium does not exceed high
func (t Thresholds) Validate() error {
	var errs ValidationErrors

	checks := []struct {
		field string
		value int
	}{
		{"coupling_thresholds.fan_out_medium", t.FanOutMedium},
		{"coupling_thresholds.fan_out_high", t.FanOutHigh},
		{"coupling_thresholds.fan_in_god_module", t.FanInGodModule},
		{"coupling_thresholds.deep_chain_depth", t.DeepChainDepth},
	}
	for _, c := range checks {
		if c.value <= 0 {
			errs = append(errs, ConfigurationError{
				Field:   c.field,
				Message: fmt.Sprintf("must be a positive integer, got %d", c.value),
			})
		}
	}

	if t.FanOutMedium > 0 && t.FanOutHigh > 0 && t.FanOutMedium > t.FanOutHigh {
		errs = append(errs, ConfigurationError{
			Field:      "coupling_thresholds.fan_out_medium",
			Message:    fmt.Sprintf("fan_out_medium (%d) exceeds fan_out_high (%d)", t.FanOutMedium, t.FanOutHigh),
			Suggestion: "set fan_out_medium less than or equal to fan_out_high",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// LayerDefinition is a user-defined architectural layer
type LayerDefinition struct {
	Name                string   `mapstructure:"name" yaml:"name"`
	Patterns            []string `mapstructure:"patterns" yaml:"patterns"`
	AllowedDependencies []string `mapstructure:"allowed_dependencies" yaml:"allowed_dependencies"`
}

// Config represents osprey.yaml
type Config struct {
	ProjectType        string            `mapstructure:"project_type" yaml:"project_type"`
	CouplingThresholds Thresholds        `mapstructure:"coupling_thresholds" yaml:"coupling_thresholds"`
	CustomLayers       []LayerDefinition `mapstructure:"custom_layers" yaml:"custom_layers,omitempty"`

	// Exclude holds glob patterns the scanner skips
	Exclude []string `mapstructure:"exclude" yaml:"exclude,omitempty"`
}

// Default returns a config with built-in thresholds and automatic project detection
func Default() *Config {
	return &Config{
		ProjectType:        ProjectTypeAuto,
		CouplingThresholds: DefaultThresholds(),
	}
}

// Validate reports every problem found in the configuration
func (c *Config) Validate() error {
	var errs ValidationErrors

	pt := strings.ToLower(strings.TrimSpace(c.ProjectType))
	if pt != "" && !slices.Contains(projectTypes, pt) {
		errs = append(errs, ConfigurationError{
			Field:      "project_type",
			Message:    fmt.Sprintf("unknown project type %q", c.ProjectType),
			Suggestion: "use one of " + strings.Join(projectTypes, ", "),
		})
	}

	if err := c.CouplingThresholds.Validate(); err != nil {
		errs = append(errs, err.(ValidationErrors)...)
	}

	errs = append(errs, validateLayers(c.CustomLayers)...)

	for i, p := range c.Exclude {
		if _, err := glob.Compile(p, '/'); err != nil {
			errs = append(errs, ConfigurationError{
				Field:   fmt.Sprintf("exclude[%d]", i),
				Message: fmt.Sprintf("invalid glob %q", p),
				Err:     err,
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func validateLayers(layers []LayerDefinition) ValidationErrors {
	var errs ValidationErrors

	names := make(map[string]bool, len(layers))
	for i, l := range layers {
		field := fmt.Sprintf("custom_layers[%d]", i)
		name := strings.TrimSpace(l.Name)
		switch {
		case name == "":
			errs = append(errs, ConfigurationError{Field: field + ".name", Message: "layer name is required"})
		case names[name]:
			errs = append(errs, ConfigurationError{Field: field + ".name", Message: fmt.Sprintf("duplicate layer %q", name)})
		default:
			names[name] = true
		}

		if len(l.Patterns) == 0 {
			errs = append(errs, ConfigurationError{
				Field:      field + ".patterns",
				Message:    "at least one pattern is required",
				Suggestion: `add a path pattern such as "**/api/**"`,
			})
		}
		for j, p := range l.Patterns {
			if strings.TrimSpace(p) == "" {
				errs = append(errs, ConfigurationError{Field: fmt.Sprintf("%s.patterns[%d]", field, j), Message: "pattern is empty"})
				continue
			}
			if _, err := glob.Compile(p, '/'); err != nil {
				errs = append(errs, ConfigurationError{
					Field:   fmt.Sprintf("%s.patterns[%d]", field, j),
					Message: fmt.Sprintf("invalid glob %q", p),
					Err:     err,
				})
			}
		}
	}

	for i, l := range layers {
		for j, dep := range l.AllowedDependencies {
			if !names[strings.TrimSpace(dep)] {
				errs = append(errs, ConfigurationError{
					Field:      fmt.Sprintf("custom_layers[%d].allowed_dependencies[%d]", i, j),
					Message:    fmt.Sprintf("unknown layer %q", dep),
					Suggestion: "allowed dependencies must name a layer defined in custom_layers",
				})
			}
		}
	}

	return errs
}

// EffectiveProjectType returns the normalized project type, "auto" when empty
func (c *Config) EffectiveProjectType() string {
	pt := strings.ToLower(strings.TrimSpace(c.ProjectType))
	if pt == "" {
		return ProjectTypeAuto
	}
	return pt
}
