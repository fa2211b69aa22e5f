// Package config provides configuration loading and access for the simulation.
//
// Loading starts from the embedded defaults and overlays an optional user
// file on top; any key the schema does not know is rejected rather than
// silently ignored.
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mkollner/cfss/agent"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds the full run configuration: run control, persistence, and the
// agent sections.
type Config struct {
	Run   RunConfig   `yaml:"run"`
	Store StoreConfig `yaml:"store"`

	State       agent.State       `yaml:"internal_state"`
	Environment agent.Environment `yaml:"environment"`
	Regulation  agent.Regulation  `yaml:"regulation"`
	Nutrition   agent.Nutrition   `yaml:"nutrition"`
	Params      agent.Params      `yaml:"params"`
}

// RunConfig holds run control settings.
type RunConfig struct {
	Steps     int     `yaml:"steps"`
	DT        float64 `yaml:"dt"`
	AgentName string  `yaml:"agent_name"`
	DataDir   string  `yaml:"data_dir"`
	LogCSV    bool    `yaml:"log_csv"`
	LogEvery  int     `yaml:"log_every"`
	Agents    int     `yaml:"agents"`
	Schedule  string  `yaml:"schedule"`
}

// StoreConfig holds run archive settings.
type StoreConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Load reads configuration: embedded defaults first, then the user file at
// path layered on top. An empty path uses the defaults alone. Unknown keys
// in either document are an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := decodeStrict(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := decodeStrict(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// decodeStrict unmarshals into cfg, rejecting keys the schema does not
// declare. An empty document is a valid no-op overlay.
func decodeStrict(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// Validate checks the run-level settings and the agent sections.
func (c *Config) Validate() error {
	if c.Run.Steps <= 0 {
		return &agent.ConfigError{Field: "run.steps", Reason: "must be positive"}
	}
	if math.IsNaN(c.Run.DT) || math.IsInf(c.Run.DT, 0) || c.Run.DT <= 0 {
		return &agent.ConfigError{Field: "run.dt", Reason: "must be a positive finite number"}
	}
	if c.Run.Agents < 1 {
		return &agent.ConfigError{Field: "run.agents", Reason: "must be at least 1"}
	}
	if c.Run.LogEvery < 0 {
		return &agent.ConfigError{Field: "run.log_every", Reason: "must be non-negative"}
	}
	if c.Store.Enabled && c.Store.Path == "" {
		return &agent.ConfigError{Field: "store.path", Reason: "required when the store is enabled"}
	}
	return c.AgentSettings().Validate()
}

// AgentSettings assembles the agent sections into settings for agent.New,
// carrying the run's agent name along.
func (c *Config) AgentSettings() agent.Settings {
	return agent.Settings{
		Name:        c.Run.AgentName,
		State:       c.State,
		Environment: c.Environment,
		Regulation:  c.Regulation,
		Nutrition:   c.Nutrition,
		Params:      c.Params,
	}
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
