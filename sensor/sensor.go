// Package sensor defines the readings that autonomous primitives sample every tick.
//
// Headings are in degrees with positive meaning clockwise, the same convention used for
// rotate commands. A heading source may report a continuous angle or one bounded to
// [0, 360); consumers unwrap the latter themselves.
package sensor

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

// ErrUnavailable is returned by sources that cannot currently produce a reading.
var ErrUnavailable = errors.New("sensor reading unavailable")

// HeadingSource reports the robot's heading in degrees, positive clockwise.
type HeadingSource interface {
	Heading(ctx context.Context) (float64, error)
}

// DistanceSource reports a cumulative encoder position in ticks. Ticks only make sense
// relative to an earlier reading.
type DistanceSource interface {
	Ticks(ctx context.Context) (int64, error)
}

// BearingSource reports the latest horizontal bearing in degrees to a named vision target.
// ok is false when no reading for key arrived within maxStaleness.
type BearingSource interface {
	LatestBearing(key string, maxStaleness time.Duration) (bearing float64, ok bool)
}
