package subsystem

import (
	"context"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/multierr"
)

// Elevator lifts the grabber with one motor. Positive speed raises it. Optional limit
// switches stop travel past either end.
type Elevator struct {
	motor  Motor
	top    LimitSwitch
	bottom LimitSwitch
}

var _ Actuator = (*Elevator)(nil)

// NewElevator returns an elevator on motor. top and bottom may be nil.
func NewElevator(motor Motor, top, bottom LimitSwitch) *Elevator {
	return &Elevator{motor: motor, top: top, bottom: bottom}
}

// Set runs the elevator at speed, clamped to [-1, 1]. Driving into a pressed limit switch
// stops the motor instead. A limit switch that cannot be read also stops the motor.
func (e *Elevator) Set(ctx context.Context, speed float64) error {
	speed = lo.Clamp(speed, -1, 1)
	limit := e.bottom
	if speed > 0 {
		limit = e.top
	}
	if speed != 0 && limit != nil {
		pressed, err := limit.Pressed(ctx)
		if err != nil {
			return multierr.Combine(errors.Wrap(err, "reading elevator limit switch"), e.motor.Stop(ctx))
		}
		if pressed {
			speed = 0
		}
	}
	if speed == 0 {
		return e.motor.Stop(ctx)
	}
	return e.motor.SetPower(ctx, speed)
}

// Grabber intakes and ejects cubes with two opposed rollers. Positive speed absorbs, negative
// speed spits.
type Grabber struct {
	left  Motor
	right Motor
}

var _ Actuator = (*Grabber)(nil)

// NewGrabber returns a grabber on the left and right roller motors.
func NewGrabber(left, right Motor) *Grabber {
	return &Grabber{left: left, right: right}
}

// Set runs both rollers at speed, clamped to [-1, 1]. The right roller is mounted mirrored and
// is driven inverted.
func (g *Grabber) Set(ctx context.Context, speed float64) error {
	speed = lo.Clamp(speed, -1, 1)
	if speed == 0 {
		return multierr.Combine(g.left.Stop(ctx), g.right.Stop(ctx))
	}
	return multierr.Combine(g.left.SetPower(ctx, speed), g.right.SetPower(ctx, -speed))
}
