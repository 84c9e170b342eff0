// Package fake implements settable sensors for tests and simulation.
package fake

import (
	"context"
	"sync"
	"time"

	"go.uber.org/atomic"

	"github.com/frcrobotics/autonomy/sensor"
	"github.com/frcrobotics/autonomy/utils"
)

// Gyro is a heading source whose value is set by the caller. A Bounded gyro reports its
// heading wrapped into [0, 360) like most physical gyros.
type Gyro struct {
	Bounded bool

	heading atomic.Float64
	err     atomic.Error
	reads   atomic.Int64
}

var _ sensor.HeadingSource = (*Gyro)(nil)

// Heading returns the current heading or the injected error.
func (g *Gyro) Heading(ctx context.Context) (float64, error) {
	g.reads.Inc()
	if err := g.err.Load(); err != nil {
		return 0, err
	}
	heading := g.heading.Load()
	if g.Bounded {
		heading = utils.ModAngDeg(heading)
	}
	return heading, nil
}

// SetHeading sets the unbounded heading.
func (g *Gyro) SetHeading(deg float64) {
	g.heading.Store(deg)
}

// Rotate adds delta degrees to the heading.
func (g *Gyro) Rotate(delta float64) {
	g.heading.Add(delta)
}

// SetError makes every following read fail with err until it is cleared with nil.
func (g *Gyro) SetError(err error) {
	g.err.Store(err)
}

// Reads is the number of Heading calls so far.
func (g *Gyro) Reads() int64 {
	return g.reads.Load()
}

// Encoder is a distance source whose tick count is set by the caller.
type Encoder struct {
	position atomic.Int64
	err      atomic.Error
}

var _ sensor.DistanceSource = (*Encoder)(nil)

// Ticks returns the current position or the injected error.
func (e *Encoder) Ticks(ctx context.Context) (int64, error) {
	if err := e.err.Load(); err != nil {
		return 0, err
	}
	return e.position.Load(), nil
}

// SetTicks sets the position.
func (e *Encoder) SetTicks(ticks int64) {
	e.position.Store(ticks)
}

// Add moves the position by delta ticks.
func (e *Encoder) Add(delta int64) {
	e.position.Add(delta)
}

// SetError makes every following read fail with err until it is cleared with nil.
func (e *Encoder) SetError(err error) {
	e.err.Store(err)
}

type bearing struct {
	angle float64
	age   time.Duration
}

// BearingSource serves fixed bearings with a fixed age, standing in for a vision socket.
type BearingSource struct {
	mu       sync.Mutex
	bearings map[string]bearing
}

var _ sensor.BearingSource = (*BearingSource)(nil)

// NewBearingSource returns a source with no bearings.
func NewBearingSource() *BearingSource {
	return &BearingSource{bearings: map[string]bearing{}}
}

// SetBearing stores a brand new bearing for key.
func (bs *BearingSource) SetBearing(key string, angle float64) {
	bs.SetBearingWithAge(key, angle, 0)
}

// SetBearingWithAge stores a bearing for key that is already age old.
func (bs *BearingSource) SetBearingWithAge(key string, angle float64, age time.Duration) {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	bs.bearings[key] = bearing{angle: angle, age: age}
}

// Clear forgets the bearing for key.
func (bs *BearingSource) Clear(key string) {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	delete(bs.bearings, key)
}

// LatestBearing returns the bearing for key if its age is below maxStaleness.
func (bs *BearingSource) LatestBearing(key string, maxStaleness time.Duration) (float64, bool) {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	b, ok := bs.bearings[key]
	if !ok || b.age >= maxStaleness {
		return 0, false
	}
	return b.angle, true
}
