// Package sim simulates a differential drive robot on the field so that routines can be run
// and tested without hardware. The robot's motors drive the real subsystem implementations
// and its sensors are the settable fakes.
package sim

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/golang/geo/r3"
	"github.com/samber/lo"

	"github.com/frcrobotics/autonomy/logging"
	"github.com/frcrobotics/autonomy/sensor/fake"
	"github.com/frcrobotics/autonomy/subsystem"
	"github.com/frcrobotics/autonomy/utils"
	"github.com/frcrobotics/autonomy/vision"
)

// Defaults used for unset Config fields.
const (
	DefaultMaxSpeedInPerSec = 120.0
	DefaultMaxTurnDegPerSec = 360.0
	// CameraFOVDeg is the half angle within which targets are reported.
	CameraFOVDeg = 35.0
	// ElevatorTravelIn is the elevator height between its limit switches.
	ElevatorTravelIn = 60.0
)

const elevatorSpeedInPerSec = 40.0

// Config describes the simulated robot.
type Config struct {
	MaxSpeedInPerSec float64
	MaxTurnDegPerSec float64
	TicksPerInch     float64
	// BoundedHeading makes the gyro report headings in [0, 360).
	BoundedHeading bool
}

// Motor is a simulated motor that remembers its power.
type Motor struct {
	mu    sync.Mutex
	power float64
}

var _ subsystem.Motor = (*Motor)(nil)

// SetPower sets the power, clamped to [-1, 1].
func (m *Motor) SetPower(ctx context.Context, power float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.power = lo.Clamp(power, -1, 1)
	return nil
}

// Stop sets the power to zero.
func (m *Motor) Stop(ctx context.Context) error {
	return m.SetPower(ctx, 0)
}

// Power returns the current power.
func (m *Motor) Power() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.power
}

type limitSwitch func() bool

func (ls limitSwitch) Pressed(ctx context.Context) (bool, error) {
	return ls(), nil
}

// Pose is the robot's position on the field. The origin is the starting position, +Y points
// downfield and +X to the right; headings are degrees clockwise from +Y.
type Pose struct {
	Position r3.Vector
	Heading  float64
	// Traveled is the signed distance driven, in inches.
	Traveled float64
}

// Robot is the simulated robot.
type Robot struct {
	conf   Config
	logger logging.Logger

	Left, Right   *Motor
	ElevatorMotor *Motor
	GrabberLeft   *Motor
	GrabberRight  *Motor

	Gyro    *fake.Gyro
	Encoder *fake.Encoder

	mu             sync.Mutex
	pose           Pose
	elevatorHeight float64
	targets        map[string]r3.Vector
	sink           func(vision.Packet)
	packetID       int64
}

// NewRobot returns a robot at the origin facing downfield.
func NewRobot(conf Config, logger logging.Logger) *Robot {
	if conf.MaxSpeedInPerSec == 0 {
		conf.MaxSpeedInPerSec = DefaultMaxSpeedInPerSec
	}
	if conf.MaxTurnDegPerSec == 0 {
		conf.MaxTurnDegPerSec = DefaultMaxTurnDegPerSec
	}
	if conf.TicksPerInch == 0 {
		conf.TicksPerInch = 1
	}
	return &Robot{
		conf:          conf,
		logger:        logger,
		Left:          &Motor{},
		Right:         &Motor{},
		ElevatorMotor: &Motor{},
		GrabberLeft:   &Motor{},
		GrabberRight:  &Motor{},
		Gyro:          &fake.Gyro{Bounded: conf.BoundedHeading},
		Encoder:       &fake.Encoder{},
		targets:       map[string]r3.Vector{},
	}
}

// Drivetrain mixes arcade commands onto the simulated drive motors.
func (r *Robot) Drivetrain() (*subsystem.Drivetrain, error) {
	return subsystem.NewDrivetrain([]subsystem.Motor{r.Left}, []subsystem.Motor{r.Right}, r.logger.Sublogger("drivetrain"))
}

// Elevator drives the simulated elevator between its limit switches.
func (r *Robot) Elevator() *subsystem.Elevator {
	top := limitSwitch(func() bool { return r.ElevatorHeight() >= ElevatorTravelIn })
	bottom := limitSwitch(func() bool { return r.ElevatorHeight() <= 0 })
	return subsystem.NewElevator(r.ElevatorMotor, top, bottom)
}

// Grabber drives the simulated grabber wheels.
func (r *Robot) Grabber() *subsystem.Grabber {
	return subsystem.NewGrabber(r.GrabberLeft, r.GrabberRight)
}

// AddTarget places a vision target for object at position.
func (r *Robot) AddTarget(object string, position r3.Vector) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.targets[object] = position
}

// PublishBearings sends a vision packet to sink for every target in view on each Advance.
func (r *Robot) PublishBearings(sink func(vision.Packet)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sink = sink
}

// Pose returns the current pose.
func (r *Robot) Pose() Pose {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pose
}

// ElevatorHeight returns the elevator height in inches above its bottom stop.
func (r *Robot) ElevatorHeight() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.elevatorHeight
}

// Advance moves the simulation forward by dt using the current motor powers, then updates
// the sensors and publishes bearings.
func (r *Robot) Advance(dt time.Duration) {
	left, right := r.Left.Power(), r.Right.Power()
	lift := r.ElevatorMotor.Power()
	secs := dt.Seconds()

	r.mu.Lock()
	distance := (left + right) / 2 * r.conf.MaxSpeedInPerSec * secs
	turn := (left - right) / 2 * r.conf.MaxTurnDegPerSec * secs

	// integrate along the arc midpoint
	mid := (r.pose.Heading + turn/2) * math.Pi / 180
	r.pose.Position = r.pose.Position.Add(r3.Vector{X: math.Sin(mid), Y: math.Cos(mid)}.Mul(distance))
	r.pose.Heading += turn
	r.pose.Traveled += distance
	r.elevatorHeight = lo.Clamp(r.elevatorHeight+lift*elevatorSpeedInPerSec*secs, 0, ElevatorTravelIn)

	pose := r.pose
	sink := r.sink
	var packets []vision.Packet
	if sink != nil {
		packets = r.visibleLocked()
	}
	r.mu.Unlock()

	r.Gyro.SetHeading(pose.Heading)
	r.Encoder.SetTicks(int64(math.Round(pose.Traveled * r.conf.TicksPerInch)))
	for _, p := range packets {
		sink(p)
	}
}

// Bearing returns the bearing from the robot to the target for object, in degrees clockwise
// in (-180, 180], and whether the camera can see it.
func (r *Robot) Bearing(object string) (float64, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.bearingLocked(object)
}

func (r *Robot) bearingLocked(object string) (float64, bool) {
	target, ok := r.targets[object]
	if !ok {
		return 0, false
	}
	delta := target.Sub(r.pose.Position)
	if delta.Norm() == 0 {
		return 0, false
	}
	absolute := math.Atan2(delta.X, delta.Y) * 180 / math.Pi
	bearing := utils.ModAngDeg(absolute - r.pose.Heading)
	if bearing > 180 {
		bearing -= 360
	}
	return bearing, math.Abs(bearing) <= CameraFOVDeg
}

func (r *Robot) visibleLocked() []vision.Packet {
	objects := lo.Keys(r.targets)
	sort.Strings(objects)
	var packets []vision.Packet
	for _, object := range objects {
		bearing, visible := r.bearingLocked(object)
		if !visible {
			continue
		}
		r.packetID++
		packets = append(packets, vision.Packet{Sender: vision.SenderVision, Object: object, Angle: bearing, ID: r.packetID})
	}
	return packets
}
