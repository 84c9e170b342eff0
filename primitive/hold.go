package primitive

import (
	"context"
	"fmt"

	"github.com/frcrobotics/autonomy/subsystem"
	"github.com/frcrobotics/autonomy/task"
)

// Names of the subsystem hold primitives.
const (
	ElevatorName = "elevator"
	GrabberName  = "grabber"
)

func init() {
	Register(ElevatorName, Registration[*HoldConfig]{
		Constructor: func(conf *HoldConfig, deps Dependencies) (task.Task, error) {
			if deps.Elevator == nil {
				return nil, missingDependency(ElevatorName, "elevator")
			}
			return NewHold(ElevatorName, *conf, deps.Elevator)
		},
	})
	Register(GrabberName, Registration[*HoldConfig]{
		Constructor: func(conf *HoldConfig, deps Dependencies) (task.Task, error) {
			if deps.Grabber == nil {
				return nil, missingDependency(GrabberName, "grabber")
			}
			return NewHold(GrabberName, *conf, deps.Grabber)
		},
	})
}

// HoldConfig is the speed an actuator is held at.
type HoldConfig struct {
	Speed float64 `json:"speed"`
}

// Validate checks the speed is in [-1, 1].
func (conf *HoldConfig) Validate(path string) error {
	return inRange(path, "speed", conf.Speed, -1, 1)
}

// Hold writes a constant speed to a subsystem every tick and never finishes on its own.
type Hold struct {
	name     string
	conf     HoldConfig
	actuator subsystem.Actuator
}

// NewHold returns a primitive holding actuator at conf.Speed.
func NewHold(name string, conf HoldConfig, actuator subsystem.Actuator) (*Hold, error) {
	if err := conf.Validate(name); err != nil {
		return nil, err
	}
	return &Hold{name: name, conf: conf, actuator: actuator}, nil
}

// Name describes the subsystem and speed.
func (h *Hold) Name() string {
	return fmt.Sprintf("%s(%.2f)", h.name, h.conf.Speed)
}

// Init does nothing.
func (h *Hold) Init(ctx context.Context) {}

// Step writes the speed.
func (h *Hold) Step(ctx context.Context) (task.Status, error) {
	return task.Continue, h.actuator.Set(ctx, h.conf.Speed)
}

// End sets the subsystem to neutral.
func (h *Hold) End(ctx context.Context) error {
	return h.actuator.Set(ctx, 0)
}
