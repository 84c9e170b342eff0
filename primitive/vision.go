package primitive

import (
	"context"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/felixge/pidctrl"
	"github.com/pkg/errors"
	goutils "go.viam.com/utils"

	"github.com/frcrobotics/autonomy/sensor"
	"github.com/frcrobotics/autonomy/subsystem"
	"github.com/frcrobotics/autonomy/task"
)

// VisionPursuitName is the registered name of the vision tracking primitive.
const VisionPursuitName = "vision_pursuit"

const (
	defaultPursuitKp           = 0.03
	defaultMaxStalenessSeconds = 0.5
)

func init() {
	Register(VisionPursuitName, Registration[*VisionPursuitConfig]{
		Constructor: func(conf *VisionPursuitConfig, deps Dependencies) (task.Task, error) {
			if deps.Drive == nil {
				return nil, missingDependency(VisionPursuitName, "drive")
			}
			if deps.Bearings == nil {
				return nil, missingDependency(VisionPursuitName, "bearing source")
			}
			return NewVisionPursuit(*conf, deps.Drive, deps.Bearings, deps.clock())
		},
	})
}

// VisionPursuitConfig describes driving toward a vision target.
type VisionPursuitConfig struct {
	Forward float64 `json:"forward"`
	// Object is the vision object class to follow.
	Object          string  `json:"object"`
	MaxStalenessSec float64 `json:"max_staleness_sec,omitempty"`

	// Gains of the bearing controller, in rotate input per degree. All zero selects a
	// proportional default.
	Kp float64 `json:"kp,omitempty"`
	Ki float64 `json:"ki,omitempty"`
	Kd float64 `json:"kd,omitempty"`
}

// Validate requires an object and sane inputs.
func (conf *VisionPursuitConfig) Validate(path string) error {
	if conf.Object == "" {
		return goutils.NewConfigValidationFieldRequiredError(path, "object")
	}
	if err := inRange(path, "forward", conf.Forward, -1, 1); err != nil {
		return err
	}
	if conf.MaxStalenessSec < 0 {
		return goutils.NewConfigValidationError(path,
			errors.Errorf(`"max_staleness_sec" must not be negative, got %g`, conf.MaxStalenessSec))
	}
	return nil
}

// VisionPursuit drives forward while turning toward the latest bearing to a vision target.
// Without a fresh bearing it drives straight. It never finishes on its own.
type VisionPursuit struct {
	conf         VisionPursuitConfig
	maxStaleness time.Duration
	drive        subsystem.Drive
	bearings     sensor.BearingSource
	clk          clock.Clock

	pid        *pidctrl.PIDController
	lastUpdate time.Time
}

// NewVisionPursuit returns a vision pursuit primitive.
func NewVisionPursuit(
	conf VisionPursuitConfig,
	drive subsystem.Drive,
	bearings sensor.BearingSource,
	clk clock.Clock,
) (*VisionPursuit, error) {
	if err := conf.Validate(VisionPursuitName); err != nil {
		return nil, err
	}
	if conf.MaxStalenessSec == 0 {
		conf.MaxStalenessSec = defaultMaxStalenessSeconds
	}
	if conf.Kp == 0 && conf.Ki == 0 && conf.Kd == 0 {
		conf.Kp = defaultPursuitKp
	}
	if clk == nil {
		clk = clock.New()
	}
	v := &VisionPursuit{
		conf:         conf,
		maxStaleness: time.Duration(conf.MaxStalenessSec * float64(time.Second)),
		drive:        drive,
		bearings:     bearings,
		clk:          clk,
	}
	v.resetController()
	return v, nil
}

// Name describes the target.
func (v *VisionPursuit) Name() string {
	return fmt.Sprintf("%s(%s, %.2f)", VisionPursuitName, v.conf.Object, v.conf.Forward)
}

// Init resets the controller.
func (v *VisionPursuit) Init(ctx context.Context) {
	v.resetController()
}

// The controller holds the bearing at zero. A positive bearing yields a negative output, so
// the output is negated to turn clockwise toward the target.
func (v *VisionPursuit) resetController() {
	v.pid = pidctrl.NewPIDController(v.conf.Kp, v.conf.Ki, v.conf.Kd).SetOutputLimits(-1, 1).Set(0)
	v.lastUpdate = time.Time{}
}

// Step drives forward with a correction toward the target when its bearing is fresh.
func (v *VisionPursuit) Step(ctx context.Context) (task.Status, error) {
	bearing, ok := v.bearings.LatestBearing(v.conf.Object, v.maxStaleness)
	if !ok {
		// Integral and derivative state from before the target was lost is discarded.
		if !v.lastUpdate.IsZero() {
			v.resetController()
		}
		return task.Continue, v.drive.ArcadeDrive(ctx, v.conf.Forward, 0)
	}

	now := v.clk.Now()
	var dt time.Duration
	if !v.lastUpdate.IsZero() {
		dt = now.Sub(v.lastUpdate)
	}
	v.lastUpdate = now

	rotate := -v.pid.UpdateDuration(bearing, dt)
	return task.Continue, v.drive.ArcadeDrive(ctx, v.conf.Forward, rotate)
}

// End stops the drive.
func (v *VisionPursuit) End(ctx context.Context) error {
	return v.drive.Stop(ctx)
}
