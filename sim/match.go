package sim

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"golang.org/x/time/rate"

	"github.com/frcrobotics/autonomy/config"
	"github.com/frcrobotics/autonomy/field"
	"github.com/frcrobotics/autonomy/logging"
	"github.com/frcrobotics/autonomy/robot"
	"github.com/frcrobotics/autonomy/routine"
	"github.com/frcrobotics/autonomy/vision"
)

// DefaultMatchDuration is the length of the autonomous period.
const DefaultMatchDuration = 15 * time.Second

// MatchOptions describes one simulated autonomous period.
type MatchOptions struct {
	GameMessage string
	// Duration defaults to DefaultMatchDuration.
	Duration time.Duration
	// Targets are the vision targets on the field. Nil places DefaultTargets for the chosen
	// routine's reference side.
	Targets map[string]r3.Vector
	// RealTime paces ticks with the wall clock and, when vision is enabled in the config,
	// sends bearings to the robot over UDP. Otherwise the match runs as fast as possible on a
	// mock clock with bearings recorded directly.
	RealTime bool
}

// MatchResult is where the robot ended up.
type MatchResult struct {
	Choice         routine.Choice
	Pose           Pose
	ElevatorHeight float64
	Status         robot.Status
	Elapsed        time.Duration
}

// DefaultTargets places the near switch plate's target beside the path of a robot starting
// on the reference side.
func DefaultTargets(reference field.Side) map[string]r3.Vector {
	x := 48.0
	if reference == field.Right {
		x = -x
	}
	return map[string]r3.Vector{routine.VisionTarget: {X: x, Y: 150}}
}

// RunMatch runs an autonomous period on a simulated robot configured by cfg.
func RunMatch(ctx context.Context, cfg *config.Config, opts MatchOptions, logger logging.Logger) (result MatchResult, err error) {
	if opts.Duration == 0 {
		opts.Duration = DefaultMatchDuration
	}
	if opts.Duration < 0 {
		return MatchResult{}, errors.Errorf("match duration must not be negative, got %s", opts.Duration)
	}

	simRobot := NewRobot(Config{
		MaxSpeedInPerSec: cfg.Simulation.MaxSpeedInPerSec,
		MaxTurnDegPerSec: cfg.Simulation.MaxTurnDegPerSec,
		TicksPerInch:     cfg.TicksPerInch,
		BoundedHeading:   cfg.Simulation.BoundedHeading,
	}, logger.Sublogger("sim"))
	drive, err := simRobot.Drivetrain()
	if err != nil {
		return MatchResult{}, err
	}

	var clk clock.Clock
	var mock *clock.Mock
	if opts.RealTime {
		clk = clock.New()
	} else {
		mock = clock.NewMock()
		clk = mock
	}

	r, err := robot.New(cfg, robot.Hardware{
		Drive:    drive,
		Elevator: simRobot.Elevator(),
		Grabber:  simRobot.Grabber(),
		Heading:  simRobot.Gyro,
		Distance: simRobot.Encoder,
	}, clk, logger)
	if err != nil {
		return MatchResult{}, err
	}
	defer func() {
		err = multierr.Combine(err, r.Close(context.Background()))
	}()

	sink, closeSink, err := bearingSink(cfg, r, opts.RealTime, logger)
	if err != nil {
		return MatchResult{}, err
	}
	defer func() {
		err = multierr.Combine(err, closeSink())
	}()

	choice, err := r.AutonomousInit(ctx, opts.GameMessage)
	if err != nil {
		return MatchResult{}, err
	}
	targets := opts.Targets
	if targets == nil {
		targets = DefaultTargets(choice.Reference)
	}
	for object, position := range targets {
		simRobot.AddTarget(object, position)
	}
	simRobot.PublishBearings(sink)

	period := time.Duration(float64(time.Second) / cfg.FrequencyHz)
	ticks := int(opts.Duration / period)
	var ticker *clock.Ticker
	if opts.RealTime {
		ticker = clk.Ticker(period)
		defer ticker.Stop()
	}

	for i := 0; i < ticks; i++ {
		if ticker != nil {
			select {
			case <-ctx.Done():
				return MatchResult{}, ctx.Err()
			case <-ticker.C:
			}
		} else if ctx.Err() != nil {
			return MatchResult{}, ctx.Err()
		}

		if err := r.AutonomousPeriodic(ctx); err != nil {
			return MatchResult{}, errors.Wrapf(err, "tick %d", i)
		}
		simRobot.Advance(period)
		if mock != nil {
			mock.Add(period)
		}
	}

	if err := r.Disable(ctx); err != nil {
		return MatchResult{}, err
	}
	pose := simRobot.Pose()
	logger.CInfow(ctx, "autonomous end",
		"routine", choice.Routine,
		"x", pose.Position.X,
		"y", pose.Position.Y,
		"heading", pose.Heading,
		"elevator", simRobot.ElevatorHeight(),
	)
	return MatchResult{
		Choice:         choice,
		Pose:           pose,
		ElevatorHeight: simRobot.ElevatorHeight(),
		Status:         r.Status(),
		Elapsed:        time.Duration(ticks) * period,
	}, nil
}

// bearingSink returns where simulated camera packets go. Packets only travel over the
// network when running in real time against a listening receiver.
func bearingSink(cfg *config.Config, r *robot.Robot, realTime bool, logger logging.Logger) (func(vision.Packet), func() error, error) {
	address := r.VisionAddr()
	if !realTime || address == "" {
		store := r.Bearings()
		return func(p vision.Packet) { store.Record(p) }, func() error { return nil }, nil
	}

	codec, err := vision.CodecByName(cfg.Vision.Codec)
	if err != nil {
		return nil, nil, err
	}
	sender, err := vision.Dial(address, codec)
	if err != nil {
		return nil, nil, err
	}
	logger.Debugw("sending simulated bearings", "address", address, "codec", codec.Name())
	warn := rate.Sometimes{Interval: time.Second}
	return func(p vision.Packet) {
		if err := sender.Send(p); err != nil {
			warn.Do(func() { logger.Warnw("failed to send simulated bearing", "error", err) })
		}
	}, sender.Close, nil
}
