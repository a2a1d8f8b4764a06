// Package config loads and validates declarative sweep definition files.
package config

// ParameterConfig is one declared parameter. List position in the sweep
// file is the declaration order.
type ParameterConfig struct {
	// Name is the parameter name as written by the user; it is
	// normalized (upper-case, dashes to underscores) when declared to
	// the sweep engine.
	Name string `yaml:"name" validate:"required"`

	// Value is the raw value expression: comma lists, ranges, and
	// arithmetic referencing other parameters.
	Value string `yaml:"value" validate:"required"`
}

// SweepConfig is the root of a sweep definition file.
type SweepConfig struct {
	// Name is an optional human-readable sweep name.
	Name string `yaml:"name,omitempty"`

	// Parameters are the declared parameters, in declaration order.
	Parameters []ParameterConfig `yaml:"parameters,omitempty" validate:"omitempty,dive"`

	// Metrics are the requested metric terms, in request order.
	Metrics []string `yaml:"metrics,omitempty"`

	// Capture selects which output streams feed metric extraction.
	Capture string `yaml:"capture,omitempty" validate:"omitempty,oneof=stdout stderr both"`

	// PreserveOutput adds raw stdout/stderr columns to the result file.
	PreserveOutput bool `yaml:"preserve_output,omitempty"`

	// Output is the result file path.
	Output string `yaml:"output,omitempty"`

	// Journal is an optional sqlite run-journal path.
	Journal string `yaml:"journal,omitempty"`

	// Command is the explicit argv to run per combination.
	Command []string `yaml:"command,omitempty"`

	// Script is a shell script to run per combination; mutually
	// exclusive with Command.
	Script string `yaml:"script,omitempty"`
}
