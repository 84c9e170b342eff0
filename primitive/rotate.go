package primitive

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	goutils "go.viam.com/utils"
	"golang.org/x/time/rate"

	"github.com/frcrobotics/autonomy/logging"
	"github.com/frcrobotics/autonomy/sensor"
	"github.com/frcrobotics/autonomy/subsystem"
	"github.com/frcrobotics/autonomy/task"
	"github.com/frcrobotics/autonomy/utils"
)

// RotateToAngleName is the registered name of the gyro turn primitive.
const RotateToAngleName = "rotate_to_angle"

const (
	slowDownAng      = 10. // degrees from the target at which the turn starts slowing down
	boundCheckTarget = 1.  // degrees from the target at which the turn is complete
)

func init() {
	Register(RotateToAngleName, Registration[*RotateToAngleConfig]{
		Constructor: func(conf *RotateToAngleConfig, deps Dependencies) (task.Task, error) {
			if deps.Drive == nil {
				return nil, missingDependency(RotateToAngleName, "drive")
			}
			if deps.Heading == nil {
				return nil, missingDependency(RotateToAngleName, "heading source")
			}
			return NewRotateToAngle(*conf, deps.Drive, deps.Heading, deps.logger(RotateToAngleName))
		},
		MirroredAttributes: []string{"angle_deg"},
	})
}

// RotateToAngleConfig describes a turn in place relative to the heading at Init.
type RotateToAngleConfig struct {
	// AngleDeg is the signed turn, positive clockwise.
	AngleDeg float64 `json:"angle_deg"`
	// Speed is the rotate input used until the last few degrees, in [0, 1].
	Speed float64 `json:"speed"`
	// Hold keeps the primitive running after the target is reached. It must then be bounded by
	// a timed wrapper.
	Hold bool `json:"hold,omitempty"`
}

// Validate rejects negative or out of range speeds and non-finite angles.
func (conf *RotateToAngleConfig) Validate(path string) error {
	if math.IsNaN(conf.AngleDeg) || math.IsInf(conf.AngleDeg, 0) {
		return goutils.NewConfigValidationError(path, errors.New(`"angle_deg" must be finite`))
	}
	if conf.Speed < 0 {
		return goutils.NewConfigValidationError(path, errors.Errorf(`"speed" must not be negative, got %g`, conf.Speed))
	}
	return inRange(path, "speed", conf.Speed, 0, 1)
}

// RotateToAngle turns in place until the heading has moved by the target angle, slowing down
// linearly over the last slowDownAng degrees.
type RotateToAngle struct {
	conf    RotateToAngleConfig
	drive   subsystem.Drive
	heading sensor.HeadingSource
	logger  logging.Logger

	haveBaseline bool
	prevAngle    float64
	angMoved     float64
	warn         rate.Sometimes
}

// NewRotateToAngle returns a turn primitive. A negative speed is an error.
func NewRotateToAngle(
	conf RotateToAngleConfig,
	drive subsystem.Drive,
	heading sensor.HeadingSource,
	logger logging.Logger,
) (*RotateToAngle, error) {
	if err := conf.Validate(RotateToAngleName); err != nil {
		return nil, err
	}
	return &RotateToAngle{
		conf:    conf,
		drive:   drive,
		heading: heading,
		logger:  logger,
		warn:    rate.Sometimes{Interval: time.Second},
	}, nil
}

// Name describes the turn.
func (r *RotateToAngle) Name() string {
	return fmt.Sprintf("%s(%.1f)", RotateToAngleName, r.conf.AngleDeg)
}

// Init records the starting heading. If the heading cannot be read the first successful read
// in Step becomes the baseline.
func (r *RotateToAngle) Init(ctx context.Context) {
	r.angMoved = 0
	r.haveBaseline = false
	heading, err := r.heading.Heading(ctx)
	if err != nil {
		r.logger.CWarnw(ctx, "could not read starting heading", "error", err)
		return
	}
	r.prevAngle = heading
	r.haveBaseline = true
}

// Step commands one rotate output. A failed heading read stops the drive for this tick.
func (r *RotateToAngle) Step(ctx context.Context) (task.Status, error) {
	heading, err := r.heading.Heading(ctx)
	if err != nil {
		r.warn.Do(func() { r.logger.CWarnw(ctx, "heading unavailable, holding still", "error", err) })
		return task.Continue, r.drive.Stop(ctx)
	}
	if !r.haveBaseline {
		r.prevAngle = heading
		r.haveBaseline = true
	}
	r.angMoved = getMovedAng(r.prevAngle, heading, r.angMoved)
	r.prevAngle = heading

	angErr := r.AngleError()
	if !r.conf.Hold && angErr < boundCheckTarget {
		return task.Done, nil
	}
	return task.Continue, r.drive.ArcadeDrive(ctx, 0, calcRotate(angErr, r.conf.AngleDeg, r.conf.Speed))
}

// AngleError is how many more degrees the turn has to go. It is negative after an overshoot.
func (r *RotateToAngle) AngleError() float64 {
	return math.Abs(r.conf.AngleDeg) - math.Abs(r.angMoved)
}

// End stops the drive.
func (r *RotateToAngle) End(ctx context.Context) error {
	return r.drive.Stop(ctx)
}

// calcRotate ramps the rotate output down within slowDownAng of the goal.
func calcRotate(angErr, target, speed float64) float64 {
	factor := lo.Clamp(angErr/slowDownAng, 0, 1)
	return utils.Sign(target) * speed * factor
}

// getMovedAng tracks how much the angle has moved between each sensor update.
// This allows us to convert a bounded angle(0 to 360 or -180 to 180) into the raw angle traveled.
func getMovedAng(prevAngle, currAngle, angMoved float64) float64 {
	// the angle wrapped from the top of its range to the bottom: spinning in the positive direction
	if currAngle-prevAngle < -300 {
		return angMoved + currAngle - prevAngle + 360
	}
	// the angle wrapped from the bottom of its range to the top
	if currAngle-prevAngle > 300 {
		return angMoved + currAngle - prevAngle - 360
	}
	return angMoved + currAngle - prevAngle
}
