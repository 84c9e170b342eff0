// Package subsystem contains the actuators that autonomous tasks command: the arcade drive
// and the single-speed elevator and grabber mechanisms.
package subsystem

import (
	"context"
)

// Motor is a single power-controlled motor or motor-controller group.
type Motor interface {
	// SetPower sets the duty cycle in [-1, 1].
	SetPower(ctx context.Context, power float64) error
	Stop(ctx context.Context) error
}

// Drive is a drivetrain commanded with arcade inputs. forward and rotate are in [-1, 1];
// positive rotate turns clockwise.
type Drive interface {
	ArcadeDrive(ctx context.Context, forward, rotate float64) error
	Stop(ctx context.Context) error
}

// Actuator is a mechanism run at a signed speed in [-1, 1]. Zero is neutral.
type Actuator interface {
	Set(ctx context.Context, speed float64) error
}

// LimitSwitch reports whether a mechanism has reached the end of its travel.
type LimitSwitch interface {
	Pressed(ctx context.Context) (bool, error)
}
