package subsystem

import (
	"context"
	"math"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/multierr"

	"github.com/frcrobotics/autonomy/logging"
)

// Drivetrain is a differential drive that mixes arcade commands onto left and right motor
// groups.
type Drivetrain struct {
	left   []Motor
	right  []Motor
	logger logging.Logger
}

var _ Drive = (*Drivetrain)(nil)

// NewDrivetrain returns a drivetrain over the given motor groups. Each side needs at least
// one motor.
func NewDrivetrain(left, right []Motor, logger logging.Logger) (*Drivetrain, error) {
	if len(left) == 0 || len(right) == 0 {
		return nil, errors.Errorf("need at least one motor per side, got %d left and %d right", len(left), len(right))
	}
	return &Drivetrain{left: left, right: right, logger: logger}, nil
}

// ArcadeDrive drives forward while turning. Inputs outside [-1, 1] are clamped.
func (dt *Drivetrain) ArcadeDrive(ctx context.Context, forward, rotate float64) error {
	forward = lo.Clamp(forward, -1, 1)
	rotate = lo.Clamp(rotate, -1, 1)
	dt.logger.CDebugf(ctx, "arcade drive forward: %.2f rotate: %.2f", forward, rotate)

	// differentialDrive turns left for positive input, the opposite of rotate.
	lPower, rPower := differentialDrive(forward, -rotate)

	var err error
	for _, m := range dt.left {
		err = multierr.Combine(err, m.SetPower(ctx, lPower))
	}
	for _, m := range dt.right {
		err = multierr.Combine(err, m.SetPower(ctx, rPower))
	}
	if err != nil {
		return multierr.Combine(err, dt.Stop(ctx))
	}
	return nil
}

// Stop stops every motor.
func (dt *Drivetrain) Stop(ctx context.Context) error {
	var err error
	for _, m := range dt.left {
		err = multierr.Combine(err, m.Stop(ctx))
	}
	for _, m := range dt.right {
		err = multierr.Combine(err, m.Stop(ctx))
	}
	return err
}

// differentialDrive takes forward and left direction inputs and returns the left and right
// motor powers. The reverse arc is not mirrored, so a given left input turns the chassis the
// same way whichever direction it drives.
func differentialDrive(forward, left float64) (float64, float64) {
	// convert to polar coordinates
	r := math.Hypot(forward, left)
	t := math.Atan2(left, forward)

	// rotate by 45 degrees
	t += math.Pi / 4
	if t == 0 {
		// HACK: Fixes a weird ATAN2 corner case. Ensures that when motor that is on the
		// same side as the turn has the same power when going left and right. Without
		// this, the right motor has ZERO power when going forward/backward turning
		// right, when it should have at least some very small value.
		t += 1.224647e-16 / 2
	}

	// convert to cartesian, rescale and clamp
	leftMotor := lo.Clamp(r*math.Cos(t)*math.Sqrt2, -1, 1)
	rightMotor := lo.Clamp(r*math.Sin(t)*math.Sqrt2, -1, 1)
	return leftMotor, rightMotor
}
