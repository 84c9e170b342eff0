package primitive

import (
	"context"
	"fmt"
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

// DriveToDistanceName is the registered name of the encoder drive primitive.
const DriveToDistanceName = "drive_to_distance"

const (
	defaultSlowdownFraction = 0.9
	defaultSlowdownScale    = 0.7
	maxHeadingCorrection    = 0.3
)

func init() {
	Register(DriveToDistanceName, Registration[*DriveToDistanceConfig]{
		Constructor: func(conf *DriveToDistanceConfig, deps Dependencies) (task.Task, error) {
			if deps.Drive == nil {
				return nil, missingDependency(DriveToDistanceName, "drive")
			}
			if deps.Distance == nil {
				return nil, missingDependency(DriveToDistanceName, "distance source")
			}
			c := *conf
			if c.TicksPerInch == 0 {
				c.TicksPerInch = deps.TicksPerInch
			}
			return NewDriveToDistance(c, deps.Drive, deps.Distance, deps.Heading, deps.logger(DriveToDistanceName))
		},
	})
}

// DriveToDistanceConfig describes a straight drive measured by the wheel encoders.
type DriveToDistanceConfig struct {
	DistanceIn float64 `json:"distance_in"`
	// Throttle is the forward input; negative drives backwards.
	Throttle float64 `json:"throttle"`
	// TicksPerInch overrides the robot's encoder scale when set.
	TicksPerInch float64 `json:"ticks_per_inch,omitempty"`
	// SlowdownFraction of the distance after which the throttle is scaled by SlowdownScale.
	SlowdownFraction float64 `json:"slowdown_fraction,omitempty"`
	SlowdownScale    float64 `json:"slowdown_scale,omitempty"`
	// HeadingGain turns heading drift since Init into a rotate correction. Zero disables it.
	HeadingGain float64 `json:"heading_gain,omitempty"`
}

// Validate checks distances and inputs. TicksPerInch may be left zero in attributes and
// filled in from the robot config.
func (conf *DriveToDistanceConfig) Validate(path string) error {
	if conf.DistanceIn <= 0 {
		return goutils.NewConfigValidationError(path, errors.Errorf(`"distance_in" must be positive, got %g`, conf.DistanceIn))
	}
	if conf.Throttle == 0 {
		return goutils.NewConfigValidationFieldRequiredError(path, "throttle")
	}
	if err := inRange(path, "throttle", conf.Throttle, -1, 1); err != nil {
		return err
	}
	if conf.TicksPerInch < 0 {
		return goutils.NewConfigValidationError(path, errors.Errorf(`"ticks_per_inch" must not be negative, got %g`, conf.TicksPerInch))
	}
	if err := inRange(path, "slowdown_fraction", conf.SlowdownFraction, 0, 1); err != nil {
		return err
	}
	if err := inRange(path, "slowdown_scale", conf.SlowdownScale, 0, 1); err != nil {
		return err
	}
	if conf.HeadingGain < 0 {
		return goutils.NewConfigValidationError(path, errors.Errorf(`"heading_gain" must not be negative, got %g`, conf.HeadingGain))
	}
	return nil
}

// DriveToDistance drives until the encoders have moved the target distance in either
// direction, easing off near the end.
type DriveToDistance struct {
	conf     DriveToDistanceConfig
	drive    subsystem.Drive
	distance sensor.DistanceSource
	heading  sensor.HeadingSource
	logger   logging.Logger

	targetTicks float64
	haveStart   bool
	startTicks  int64

	haveHeading bool
	prevHeading float64
	drift       float64

	warn rate.Sometimes
}

// NewDriveToDistance returns an encoder drive primitive. heading may be nil when no heading
// gain is configured.
func NewDriveToDistance(
	conf DriveToDistanceConfig,
	drive subsystem.Drive,
	distance sensor.DistanceSource,
	heading sensor.HeadingSource,
	logger logging.Logger,
) (*DriveToDistance, error) {
	if err := conf.Validate(DriveToDistanceName); err != nil {
		return nil, err
	}
	if conf.TicksPerInch == 0 {
		return nil, goutils.NewConfigValidationFieldRequiredError(DriveToDistanceName, "ticks_per_inch")
	}
	if conf.HeadingGain > 0 && heading == nil {
		return nil, missingDependency(DriveToDistanceName, "heading source when heading_gain is set")
	}
	if conf.SlowdownFraction == 0 {
		conf.SlowdownFraction = defaultSlowdownFraction
	}
	if conf.SlowdownScale == 0 {
		conf.SlowdownScale = defaultSlowdownScale
	}
	return &DriveToDistance{
		conf:        conf,
		drive:       drive,
		distance:    distance,
		heading:     heading,
		logger:      logger,
		targetTicks: conf.DistanceIn * conf.TicksPerInch,
		warn:        rate.Sometimes{Interval: time.Second},
	}, nil
}

// Name describes the drive.
func (d *DriveToDistance) Name() string {
	return fmt.Sprintf("%s(%.1fin, %.2f)", DriveToDistanceName, d.conf.DistanceIn, d.conf.Throttle)
}

// Init records the starting encoder position and, if heading correction is on, the starting
// heading. Readings that fail here are taken on the first successful Step instead.
func (d *DriveToDistance) Init(ctx context.Context) {
	d.haveStart = false
	d.haveHeading = false
	d.drift = 0

	if ticks, err := d.distance.Ticks(ctx); err != nil {
		d.logger.CWarnw(ctx, "could not read starting encoder position", "error", err)
	} else {
		d.startTicks = ticks
		d.haveStart = true
	}
	if d.conf.HeadingGain > 0 {
		if heading, err := d.heading.Heading(ctx); err != nil {
			d.logger.CWarnw(ctx, "could not read starting heading", "error", err)
		} else {
			d.prevHeading = heading
			d.haveHeading = true
		}
	}
}

// traveled is the distance covered so far, in ticks.
func (d *DriveToDistance) traveled(ticks int64) int64 {
	return utils.AbsInt64(ticks - d.startTicks)
}

// Step finishes once the target is reached. Otherwise it drives, stopping for this tick if
// the encoders cannot be read.
func (d *DriveToDistance) Step(ctx context.Context) (task.Status, error) {
	ticks, err := d.distance.Ticks(ctx)
	if err != nil {
		d.warn.Do(func() { d.logger.CWarnw(ctx, "encoder unavailable, holding still", "error", err) })
		return task.Continue, d.drive.Stop(ctx)
	}
	if !d.haveStart {
		d.startTicks = ticks
		d.haveStart = true
	}

	traveled := float64(d.traveled(ticks))
	if traveled >= d.targetTicks {
		return task.Done, nil
	}

	throttle := d.conf.Throttle
	if traveled > d.conf.SlowdownFraction*d.targetTicks {
		throttle *= d.conf.SlowdownScale
	}
	return task.Continue, d.drive.ArcadeDrive(ctx, throttle, d.headingCorrection(ctx))
}

// headingCorrection steers back toward the starting heading. A failed read applies no
// correction.
func (d *DriveToDistance) headingCorrection(ctx context.Context) float64 {
	if d.conf.HeadingGain == 0 {
		return 0
	}
	heading, err := d.heading.Heading(ctx)
	if err != nil {
		return 0
	}
	if !d.haveHeading {
		d.prevHeading = heading
		d.haveHeading = true
	}
	d.drift = getMovedAng(d.prevHeading, heading, d.drift)
	d.prevHeading = heading
	return lo.Clamp(-d.conf.HeadingGain*d.drift, -maxHeadingCorrection, maxHeadingCorrection)
}

// End stops the drive.
func (d *DriveToDistance) End(ctx context.Context) error {
	return d.drive.Stop(ctx)
}
