package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"generation-x/generate"
	"generation-x/music"

	"gopkg.in/yaml.v3"
)

// Default device port names
const (
	DefaultOutputPort        = "Elektron Model:Cycles"
	DefaultControllerInPort  = "Maschine Jam - 1 Input"
	DefaultControllerOutPort = "Maschine Jam - 1 Output"
)

// Tempo and rest bounds accepted from flags and files
const (
	MinTempo = 10
	MaxTempo = 300
	MinRest  = 0
	MaxRest  = 100
)

// PortsConfig names the MIDI ports to open
type PortsConfig struct {
	Output        string `json:"output,omitempty" yaml:"output,omitempty"`
	ControllerIn  string `json:"controllerIn,omitempty" yaml:"controllerIn,omitempty"`
	ControllerOut string `json:"controllerOut,omitempty" yaml:"controllerOut,omitempty"`
}

// Config is one run's setup
type Config struct {
	Ports     PortsConfig `json:"ports" yaml:"ports"`
	Tonic     string      `json:"tonic" yaml:"tonic"`
	Scale     string      `json:"scale" yaml:"scale"`
	Tempo     int         `json:"tempo" yaml:"tempo"`
	Rest      int         `json:"rest" yaml:"rest"`
	Seed      int64       `json:"seed,omitempty" yaml:"seed,omitempty"`
	Palette   string      `json:"palette,omitempty" yaml:"palette,omitempty"`
	Sequences []string    `json:"sequences,omitempty" yaml:"sequences,omitempty"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Ports: PortsConfig{
			Output:        DefaultOutputPort,
			ControllerIn:  DefaultControllerInPort,
			ControllerOut: DefaultControllerOutPort,
		},
		Tonic: "c",
		Scale: string(music.NaturalMinor),
		Tempo: 60,
		Rest:  70,
	}
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "generation-x"), nil
}

// ConfigPath returns the full path to config.json
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the config from disk, or returns defaults if not found
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return DefaultConfig(), nil
	}
	cfg, err := LoadFile(path)
	if os.IsNotExist(err) {
		return DefaultConfig(), nil
	}
	return cfg, err
}

// LoadFile reads a .json, .yaml or .yml file over the defaults
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	if isYAML(path) {
		err = yaml.Unmarshal(data, cfg)
	} else {
		err = json.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.fillPorts()
	return cfg, nil
}

// Save writes the config to disk
func (c *Config) Save() error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return c.SaveFile(path)
}

// SaveFile writes the config, as YAML when the extension asks for it
func (c *Config) SaveFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	var data []byte
	var err error
	if isYAML(path) {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// fillPorts restores default port names a file left blank
func (c *Config) fillPorts() {
	if c.Ports.Output == "" {
		c.Ports.Output = DefaultOutputPort
	}
	if c.Ports.ControllerIn == "" {
		c.Ports.ControllerIn = DefaultControllerInPort
	}
	if c.Ports.ControllerOut == "" {
		c.Ports.ControllerOut = DefaultControllerOutPort
	}
}

// Validate checks the scale and the tempo and rest bounds
func (c *Config) Validate() error {
	if _, err := c.MusicScale(); err != nil {
		return err
	}
	if c.Tempo < MinTempo || c.Tempo > MaxTempo {
		return fmt.Errorf("tempo %d outside %d-%d", c.Tempo, MinTempo, MaxTempo)
	}
	if c.Rest < MinRest || c.Rest > MaxRest {
		return fmt.Errorf("rest %d outside %d-%d", c.Rest, MinRest, MaxRest)
	}
	return nil
}

func (c *Config) MusicScale() (music.Scale, error) {
	return music.NewScale(c.Tonic, c.Scale)
}

// Lines returns the configured sequence lines, or the default set built
// from the base tempo and rest factor when none are configured
func (c *Config) Lines() []string {
	if len(c.Sequences) > 0 {
		return c.Sequences
	}
	return DefaultSequences(c.Tempo, c.Rest)
}

// Params parses Lines into generation records
func (c *Config) Params() ([]generate.Params, error) {
	return ParseLines(c.Lines())
}
