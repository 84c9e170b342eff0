// Package config defines the engine's configuration file.
package config

import (
	"fmt"
	"math"
	"time"

	"github.com/pkg/errors"
	goutils "go.viam.com/utils"

	"github.com/frcrobotics/autonomy/field"
	"github.com/frcrobotics/autonomy/logging"
	"github.com/frcrobotics/autonomy/routine"
	"github.com/frcrobotics/autonomy/scheduler"
	"github.com/frcrobotics/autonomy/vision"
)

// DefaultTicksPerInch is a 4096 count encoder on a 6 inch wheel.
var DefaultTicksPerInch = 4096 / (6 * math.Pi)

// DefaultDiagnosticsInterval matches printing once every 100 ticks at 50Hz.
const DefaultDiagnosticsInterval = 2 * time.Second

// Config is the engine configuration.
type Config struct {
	ConfigFilePath string `json:"-"`

	// RobotSide is where the robot is placed before the match.
	RobotSide   field.Side    `json:"robot_side"`
	FrequencyHz float64       `json:"frequency_hz,omitempty"`
	LogLevel    logging.Level `json:"log_level,omitempty"`

	TicksPerInch float64 `json:"ticks_per_inch,omitempty"`
	// TargetPriority orders the targets tried when choosing a routine, e.g. ["scale", "switch"].
	TargetPriority []string `json:"target_priority,omitempty"`

	Vision      VisionConfig      `json:"vision"`
	Diagnostics DiagnosticsConfig `json:"diagnostics"`
	Simulation  SimulationConfig  `json:"simulation"`

	// Routines replace built-in routines of the same name or add new ones.
	Routines []routine.Definition `json:"routines,omitempty"`

	priority []field.Target
}

// VisionConfig configures the vision packet receiver.
type VisionConfig struct {
	Disabled      bool   `json:"disabled,omitempty"`
	ListenAddress string `json:"listen_address,omitempty"`
	Codec         string `json:"codec,omitempty"`
}

// Validate fills defaults and checks the codec name.
func (conf *VisionConfig) Validate(path string) error {
	if conf.ListenAddress == "" {
		conf.ListenAddress = vision.DefaultListenAddress
	}
	if _, err := vision.CodecByName(conf.Codec); err != nil {
		return goutils.NewConfigValidationError(path, err)
	}
	return nil
}

// DiagnosticsConfig configures the periodic status log.
type DiagnosticsConfig struct {
	Disabled    bool    `json:"disabled,omitempty"`
	IntervalSec float64 `json:"interval_sec,omitempty"`
}

// Interval is the time between status logs.
func (conf DiagnosticsConfig) Interval() time.Duration {
	if conf.IntervalSec == 0 {
		return DefaultDiagnosticsInterval
	}
	return time.Duration(conf.IntervalSec * float64(time.Second))
}

// Validate checks the interval.
func (conf *DiagnosticsConfig) Validate(path string) error {
	if conf.IntervalSec < 0 {
		return goutils.NewConfigValidationError(path,
			errors.Errorf(`"interval_sec" must not be negative, got %g`, conf.IntervalSec))
	}
	return nil
}

// SimulationConfig tunes the simulated drivetrain used when no robot is attached.
type SimulationConfig struct {
	MaxSpeedInPerSec float64 `json:"max_speed_in_per_sec,omitempty"`
	MaxTurnDegPerSec float64 `json:"max_turn_deg_per_sec,omitempty"`
	// BoundedHeading makes the simulated gyro report headings in [0, 360).
	BoundedHeading bool `json:"bounded_heading,omitempty"`
}

// Validate checks the rates are not negative.
func (conf *SimulationConfig) Validate(path string) error {
	if conf.MaxSpeedInPerSec < 0 {
		return goutils.NewConfigValidationError(path, errors.New(`"max_speed_in_per_sec" must not be negative`))
	}
	if conf.MaxTurnDegPerSec < 0 {
		return goutils.NewConfigValidationError(path, errors.New(`"max_turn_deg_per_sec" must not be negative`))
	}
	return nil
}

// Ensure fills defaults and validates the whole config, including every routine.
func (c *Config) Ensure() error {
	if c.FrequencyHz == 0 {
		c.FrequencyHz = scheduler.DefaultFrequencyHz
	}
	if err := scheduler.ValidateFrequency(c.FrequencyHz); err != nil {
		return goutils.NewConfigValidationError("frequency_hz", err)
	}
	if c.TicksPerInch == 0 {
		c.TicksPerInch = DefaultTicksPerInch
	}
	if c.TicksPerInch < 0 {
		return goutils.NewConfigValidationError("ticks_per_inch",
			errors.Errorf("must be positive, got %g", c.TicksPerInch))
	}

	c.priority = nil
	seen := map[field.Target]bool{}
	for i, name := range c.TargetPriority {
		target, err := field.ParseTarget(name)
		if err != nil {
			return goutils.NewConfigValidationError(fmt.Sprintf("target_priority.%d", i), err)
		}
		if seen[target] {
			return goutils.NewConfigValidationError(fmt.Sprintf("target_priority.%d", i),
				errors.Errorf("%q is listed twice", name))
		}
		seen[target] = true
		c.priority = append(c.priority, target)
	}

	if err := c.Vision.Validate("vision"); err != nil {
		return err
	}
	if err := c.Diagnostics.Validate("diagnostics"); err != nil {
		return err
	}
	if err := c.Simulation.Validate("simulation"); err != nil {
		return err
	}
	_, err := c.Assembler(nil)
	return err
}

// Priority is the parsed target priority, or field.DefaultPriority when none is configured.
func (c *Config) Priority() []field.Target {
	if len(c.priority) == 0 {
		return field.DefaultPriority
	}
	return c.priority
}

// Assembler builds the routine assembler described by the config.
func (c *Config) Assembler(logger logging.Logger) (*routine.Assembler, error) {
	return routine.NewAssembler(c.Routines, c.Priority(), logger)
}

// Default returns a config with every default filled in.
func Default() *Config {
	c := &Config{}
	if err := c.Ensure(); err != nil {
		// the defaults are always valid
		panic(err)
	}
	return c
}
