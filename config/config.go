package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"

	"go-monokit/metro"
)

// ControllerType identifies the kind of controller
type ControllerType string

const (
	ControllerLaunchpadX ControllerType = "launchpad-x"
	ControllerKeyboard   ControllerType = "keyboard"
)

// DefaultBaseNote is the key that fires script 1 on a keyboard (C2)
const DefaultBaseNote = 36

// ControllerConfig defines a saved controller configuration
type ControllerConfig struct {
	PortName     string         `json:"portName"`
	Type         ControllerType `json:"type"`
	AutoConnect  bool           `json:"autoConnect"`
	InputChannel int            `json:"inputChannel,omitempty"` // for keyboards
	BaseNote     uint8          `json:"baseNote,omitempty"`     // for keyboards
}

// EngineConfig defines where parameter changes and triggers are sent
type EngineConfig struct {
	PortName string `json:"portName,omitempty"`
	Channel  int    `json:"channel,omitempty"`
}

// MetroConfig holds the metro settings used when no scene is loaded
type MetroConfig struct {
	IntervalMS int  `json:"intervalMs,omitempty"`
	Active     bool `json:"active"`
}

// UIConfig stores UI preferences
type UIConfig struct {
	Palette   string `json:"palette,omitempty"` // path to a .gpl file
	LastScene string `json:"lastScene,omitempty"`
}

// Config is the main configuration structure
type Config struct {
	Engine      EngineConfig       `json:"engine"`
	Metro       MetroConfig        `json:"metro"`
	Controllers []ControllerConfig `json:"controllers,omitempty"`
	UI          UIConfig           `json:"ui,omitempty"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Engine: EngineConfig{Channel: 1},
		Metro:  MetroConfig{IntervalMS: metro.DefaultInterval},
		Controllers: []ControllerConfig{
			{
				PortName:    "Launchpad X LPX MIDI",
				Type:        ControllerLaunchpadX,
				AutoConnect: true,
			},
		},
	}
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fault.Wrap(err, fmsg.With("find home directory"))
	}
	return filepath.Join(home, ".config", "go-monokit"), nil
}

// ConfigPath returns the full path to config.json
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the config from disk, or returns defaults if not found.
// Fields missing from the file keep their defaults.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fault.Wrap(err, fmsg.With("read config"))
	}

	cfg := DefaultConfig()
	cfg.Controllers = nil
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fault.Wrap(err, fmsg.WithDesc("decode config", "CONFIG FILE IS DAMAGED: "+path))
	}
	cfg.normalize()
	return cfg, nil
}

func (c *Config) normalize() {
	if c.Engine.Channel < 1 || c.Engine.Channel > 16 {
		c.Engine.Channel = 1
	}
	c.Metro.IntervalMS = metro.ClampInterval(c.Metro.IntervalMS)
	for i := range c.Controllers {
		if c.Controllers[i].Type == ControllerKeyboard && c.Controllers[i].BaseNote == 0 {
			c.Controllers[i].BaseNote = DefaultBaseNote
		}
	}
}

// Save writes the config to disk
func (c *Config) Save() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fault.Wrap(err, fmsg.With("create config directory"))
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fault.Wrap(err, fmsg.With("encode config"))
	}

	if err := os.WriteFile(filepath.Join(dir, "config.json"), data, 0644); err != nil {
		return fault.Wrap(err, fmsg.With("write config"))
	}
	return nil
}

// FindController finds a controller config by port name
func (c *Config) FindController(portName string) *ControllerConfig {
	for i := range c.Controllers {
		if c.Controllers[i].PortName == portName {
			return &c.Controllers[i]
		}
	}
	return nil
}

// AddController adds or updates a controller config
func (c *Config) AddController(ctrl ControllerConfig) {
	for i := range c.Controllers {
		if c.Controllers[i].PortName == ctrl.PortName {
			c.Controllers[i] = ctrl
			return
		}
	}
	c.Controllers = append(c.Controllers, ctrl)
}

// AutoConnectControllers returns controllers with autoConnect enabled
func (c *Config) AutoConnectControllers() []ControllerConfig {
	var result []ControllerConfig
	for _, ctrl := range c.Controllers {
		if ctrl.AutoConnect {
			result = append(result, ctrl)
		}
	}
	return result
}

// BaseNote returns the script base note for a keyboard port, or the
// default when the port is not configured.
func (c *Config) BaseNote(portName string) uint8 {
	if ctrl := c.FindController(portName); ctrl != nil && ctrl.BaseNote != 0 {
		return ctrl.BaseNote
	}
	return DefaultBaseNote
}
