// Package config loads the supervisor's YAML configuration: how to launch
// each agent CLI and optional error-pattern overrides layered on top of the
// built-in tables.
package config

import (
	"fmt"
	"os"

	"github.com/google/shlex"
	"gopkg.in/yaml.v3"

	"agentcore/agenterr"
)

// AgentConfig describes how to launch one agent family's CLI.
type AgentConfig struct {
	// Command is the full launch command line, split with shell quoting
	// rules ("claude -p --output-format stream-json").
	Command string `yaml:"command"`
	// Env holds extra environment variables for the process.
	Env map[string]string `yaml:"env"`
	// WorkDir overrides the working directory for the process.
	WorkDir string `yaml:"work_dir"`
}

// PatternConfig is one user-supplied error pattern.
type PatternConfig struct {
	Match       string `yaml:"match"`
	Message     string `yaml:"message"`
	Recoverable bool   `yaml:"recoverable"`
}

// Config is the root configuration document.
type Config struct {
	Agents map[string]AgentConfig `yaml:"agents"`
	// Patterns maps agent id -> category name -> patterns. Overrides are
	// evaluated before the built-in patterns of the same category.
	Patterns map[string]map[string][]PatternConfig `yaml:"patterns"`
	// EventBuffer sizes each session's event channel.
	EventBuffer int `yaml:"event_buffer"`
}

// Default returns the configuration used when no file is present: the three
// supported agent CLIs with their stream-JSON output flags.
func Default() *Config {
	return &Config{
		Agents: map[string]AgentConfig{
			agenterr.AgentClaude: {Command: "claude -p --output-format stream-json --verbose"},
			agenterr.AgentCodex:  {Command: "codex exec --experimental-json"},
			agenterr.AgentGemini: {Command: "gemini --output-format stream-json"},
		},
		EventBuffer: 256,
	}
}

// Load reads path, falling back to Default when the file does not exist.
// Absent fields take their default values.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}

	var file Config
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	for id, ac := range file.Agents {
		base := cfg.Agents[id]
		if ac.Command != "" {
			base.Command = ac.Command
		}
		if ac.Env != nil {
			base.Env = ac.Env
		}
		if ac.WorkDir != "" {
			base.WorkDir = ac.WorkDir
		}
		if cfg.Agents == nil {
			cfg.Agents = map[string]AgentConfig{}
		}
		cfg.Agents[id] = base
	}
	cfg.Patterns = file.Patterns
	if file.EventBuffer > 0 {
		cfg.EventBuffer = file.EventBuffer
	}

	return cfg, nil
}

// CommandArgs splits the launch command for agentID into argv form.
func (c *Config) CommandArgs(agentID string) ([]string, error) {
	ac, ok := c.Agents[agentID]
	if !ok || ac.Command == "" {
		return nil, fmt.Errorf("no command configured for agent %q", agentID)
	}
	args, err := shlex.Split(ac.Command)
	if err != nil {
		return nil, fmt.Errorf("agent %q command: %w", agentID, err)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("agent %q command is empty", agentID)
	}
	return args, nil
}

// ApplyPatterns installs the configured pattern overrides into reg. Each
// configured agent gets a table of its built-in patterns with the overrides
// evaluated first within their category, then the table replaces the agent's
// registry entry wholesale.
func (c *Config) ApplyPatterns(reg *agenterr.Registry) error {
	for agentID, byCategory := range c.Patterns {
		table := agenterr.BuiltinTable(agentID)
		for name, patterns := range byCategory {
			cat, err := categoryByName(name)
			if err != nil {
				return fmt.Errorf("agent %q: %w", agentID, err)
			}
			compiled := make([]agenterr.Pattern, 0, len(patterns))
			for _, pc := range patterns {
				p, err := agenterr.CompilePattern(pc.Match, pc.Message, pc.Recoverable)
				if err != nil {
					return fmt.Errorf("agent %q category %q: %w", agentID, name, err)
				}
				compiled = append(compiled, p)
			}
			table[cat] = append(compiled, table[cat]...)
		}
		reg.Set(agentID, table)
	}
	return nil
}

func categoryByName(name string) (agenterr.Category, error) {
	for _, cat := range agenterr.Categories() {
		if string(cat) == name {
			return cat, nil
		}
	}
	return "", fmt.Errorf("unknown error category %q", name)
}
