// Package config loads oe-config settings from a YAML file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dd0wney/cluso-lightpath/pkg/logging"
	"github.com/dd0wney/cluso-lightpath/pkg/tls"
	"github.com/dd0wney/cluso-lightpath/pkg/validation"
)

// Topology sources.
const (
	SourceEmulator   = "emulator"
	SourceController = "controller"
	SourceFile       = "file"
)

// Config holds every setting of the provisioning tool.
type Config struct {
	// Source selects where link snapshots come from: emulator, controller or file
	Source string `yaml:"source"`

	// TopologyFile is the YAML topology read when Source is "file"
	TopologyFile string `yaml:"topology_file"`

	LogLevel string `yaml:"log_level"`

	Emulator   EmulatorConfig   `yaml:"emulator"`
	Controller ControllerConfig `yaml:"controller"`
	Provision  ProvisionConfig  `yaml:"provision"`
	Mesh       MeshConfig       `yaml:"mesh"`
	Ready      ReadyConfig      `yaml:"ready"`
}

type EmulatorConfig struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

type ControllerConfig struct {
	URL      string        `yaml:"url"`
	User     string        `yaml:"user"`
	Password string        `yaml:"password"`
	Timeout  time.Duration `yaml:"timeout"`
	TLS      tls.Config    `yaml:"tls"`
}

// ProvisionConfig tunes how flows are configured on devices.
type ProvisionConfig struct {
	// ClientPort is the terminal eth port used when a path ends on a terminal
	ClientPort string `yaml:"client_port"`

	// MinChannel and MaxChannel bound randomly drawn channels (inclusive)
	MinChannel int `yaml:"min_channel"`
	MaxChannel int `yaml:"max_channel"`

	// Power is the default launch power in dBm
	Power float64 `yaml:"power"`

	// Attempts is how often a failing device call is tried (default: 1)
	Attempts   int           `yaml:"attempts"`
	RetryDelay time.Duration `yaml:"retry_delay"`

	// Seed fixes the channel stream when non-zero
	Seed uint64 `yaml:"seed"`

	// Workers bounds how many devices receive static rules at once
	Workers int `yaml:"workers"`
}

type MeshConfig struct {
	Routers     []string `yaml:"routers"`
	BaseChannel int      `yaml:"base_channel"`
}

// ReadyConfig bounds readiness polling before seeding the controller.
type ReadyConfig struct {
	Interval time.Duration `yaml:"interval"`
	Timeout  time.Duration `yaml:"timeout"`
}

// Default returns the settings for a local emulator and ONOS instance.
func Default() *Config {
	return &Config{
		Source:   SourceEmulator,
		LogLevel: "info",
		Emulator: EmulatorConfig{
			URL:     "http://localhost:8080",
			Timeout: 10 * time.Second,
		},
		Controller: ControllerConfig{
			URL:      "http://localhost:8181/onos/v1/network/configuration",
			User:     "onos",
			Password: "rocks",
			Timeout:  10 * time.Second,
		},
		Provision: ProvisionConfig{
			ClientPort: "1",
			MinChannel: 0,
			MaxChannel: 39,
			Attempts:   1,
			RetryDelay: 200 * time.Millisecond,
			Workers:    4,
		},
		Mesh: MeshConfig{
			Routers:     []string{"s1", "s2", "s3"},
			BaseChannel: 1,
		},
		Ready: ReadyConfig{
			Interval: 500 * time.Millisecond,
			Timeout:  30 * time.Second,
		},
	}
}

// Load reads path over the defaults, applies environment overrides and
// validates the result. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.fillDefaults()
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// fillDefaults restores defaults for settings a file left empty, where an
// empty value has no meaning of its own.
func (c *Config) fillDefaults() {
	d := Default()
	c.Source = validation.DefaultOr(c.Source, d.Source)
	c.LogLevel = validation.DefaultOr(c.LogLevel, d.LogLevel)
	c.Emulator.URL = validation.DefaultOr(c.Emulator.URL, d.Emulator.URL)
	c.Emulator.Timeout = validation.DefaultOr(c.Emulator.Timeout, d.Emulator.Timeout)
	c.Controller.URL = validation.DefaultOr(c.Controller.URL, d.Controller.URL)
	c.Controller.Timeout = validation.DefaultOr(c.Controller.Timeout, d.Controller.Timeout)
	c.Provision.ClientPort = validation.DefaultOr(c.Provision.ClientPort, d.Provision.ClientPort)
	c.Provision.Attempts = validation.DefaultOr(c.Provision.Attempts, d.Provision.Attempts)
	c.Provision.Workers = validation.DefaultOr(c.Provision.Workers, d.Provision.Workers)
	c.Ready.Interval = validation.DefaultOr(c.Ready.Interval, d.Ready.Interval)
	c.Ready.Timeout = validation.DefaultOr(c.Ready.Timeout, d.Ready.Timeout)
}

// ApplyEnv overrides settings from LIGHTPATH_* variables and LOG_LEVEL.
func (c *Config) ApplyEnv() {
	c.Source = getEnvOrDefault("LIGHTPATH_SOURCE", c.Source)
	c.TopologyFile = getEnvOrDefault("LIGHTPATH_TOPOLOGY_FILE", c.TopologyFile)
	c.Emulator.URL = getEnvOrDefault("LIGHTPATH_EMULATOR_URL", c.Emulator.URL)
	c.Controller.URL = getEnvOrDefault("LIGHTPATH_CONTROLLER_URL", c.Controller.URL)
	c.Controller.User = getEnvOrDefault("LIGHTPATH_USER", c.Controller.User)
	c.Controller.Password = getEnvOrDefault("LIGHTPATH_PASSWORD", c.Controller.Password)
	c.LogLevel = getEnvOrDefault("LOG_LEVEL", c.LogLevel)
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	p := c.Provision
	return validation.NewConfigValidator("config").
		OneOf("source", c.Source, []string{SourceEmulator, SourceController, SourceFile}).
		When(c.Source == SourceFile, func(v *validation.ConfigValidator) {
			v.Required("topology_file", c.TopologyFile)
		}).
		URL("emulator.url", c.Emulator.URL).
		URL("controller.url", c.Controller.URL).
		MinDuration("emulator.timeout", c.Emulator.Timeout, time.Millisecond).
		MinDuration("controller.timeout", c.Controller.Timeout, time.Millisecond).
		When(c.Controller.TLS.Enabled(), func(v *validation.ConfigValidator) {
			v.Custom("controller.tls", func() error {
				_, err := tls.ClientConfig(c.Controller.TLS)
				return err
			})
		}).
		Required("provision.client_port", p.ClientPort).
		NonNegative("provision.min_channel", p.MinChannel).
		RangeInt("provision.max_channel", p.MaxChannel, p.MinChannel, 1<<16).
		Positive("provision.attempts", p.Attempts).
		Positive("provision.workers", p.Workers).
		MinDuration("provision.retry_delay", p.RetryDelay, 0).
		Custom("provision.power", func() error {
			if p.Power < -30 || p.Power > 30 {
				return fmt.Errorf("power %g dBm is outside [-30, 30]", p.Power)
			}
			return nil
		}).
		Custom("mesh.routers", func() error {
			if len(c.Mesh.Routers) < 2 {
				return errors.New("at least two routers are needed for a mesh")
			}
			return nil
		}).
		NonNegative("mesh.base_channel", c.Mesh.BaseChannel).
		MinDuration("ready.interval", c.Ready.Interval, time.Millisecond).
		MinDuration("ready.timeout", c.Ready.Timeout, c.Ready.Interval).
		Custom("log_level", func() error {
			if _, ok := logging.ParseLevel(c.LogLevel); !ok {
				return fmt.Errorf("unknown level %q", c.LogLevel)
			}
			return nil
		}).
		Validate()
}

// Level returns the parsed log level, defaulting to info.
func (c *Config) Level() logging.Level {
	level, _ := logging.ParseLevel(c.LogLevel)
	return level
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return defaultValue
}
