package sim_test

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"github.com/frcrobotics/autonomy/logging"
	"github.com/frcrobotics/autonomy/primitive"
	"github.com/frcrobotics/autonomy/sim"
	"github.com/frcrobotics/autonomy/task"
	"github.com/frcrobotics/autonomy/vision"
)

const tick = 20 * time.Millisecond

// runUntilDone steps tsk and advances the robot one tick at a time.
func runUntilDone(t *testing.T, robot *sim.Robot, clk *clock.Mock, tsk task.Task, limit time.Duration) time.Duration {
	t.Helper()
	ctx := context.Background()
	tsk.Init(ctx)
	for elapsed := time.Duration(0); elapsed <= limit; elapsed += tick {
		status, err := tsk.Step(ctx)
		test.That(t, err, test.ShouldBeNil)
		if status == task.Done {
			test.That(t, tsk.End(ctx), test.ShouldBeNil)
			return elapsed
		}
		robot.Advance(tick)
		if clk != nil {
			clk.Add(tick)
		}
	}
	t.Fatalf("%s did not finish within %s", tsk.Name(), limit)
	return 0
}

func TestDriveKinematics(t *testing.T) {
	ctx := context.Background()
	robot := sim.NewRobot(sim.Config{TicksPerInch: 10}, logging.NewTestLogger(t))
	drive, err := robot.Drivetrain()
	test.That(t, err, test.ShouldBeNil)

	t.Run("straight", func(t *testing.T) {
		test.That(t, drive.ArcadeDrive(ctx, 1, 0), test.ShouldBeNil)
		robot.Advance(time.Second)
		pose := robot.Pose()
		test.That(t, pose.Position.X, test.ShouldAlmostEqual, 0)
		test.That(t, pose.Position.Y, test.ShouldAlmostEqual, sim.DefaultMaxSpeedInPerSec)
		test.That(t, pose.Traveled, test.ShouldAlmostEqual, sim.DefaultMaxSpeedInPerSec)
		ticks, err := robot.Encoder.Ticks(ctx)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, ticks, test.ShouldEqual, int64(1200))
	})

	t.Run("clockwise in place", func(t *testing.T) {
		test.That(t, drive.ArcadeDrive(ctx, 0, 1), test.ShouldBeNil)
		robot.Advance(250 * time.Millisecond)
		heading, err := robot.Gyro.Heading(ctx)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, heading, test.ShouldAlmostEqual, 90)
		test.That(t, robot.Pose().Traveled, test.ShouldAlmostEqual, sim.DefaultMaxSpeedInPerSec)
	})

	t.Run("forward after turning moves along +X", func(t *testing.T) {
		test.That(t, drive.ArcadeDrive(ctx, 0.5, 0), test.ShouldBeNil)
		robot.Advance(time.Second)
		pose := robot.Pose()
		test.That(t, pose.Position.X, test.ShouldAlmostEqual, sim.DefaultMaxSpeedInPerSec/2)
		test.That(t, pose.Position.Y, test.ShouldAlmostEqual, sim.DefaultMaxSpeedInPerSec)
	})

	t.Run("stop", func(t *testing.T) {
		test.That(t, drive.Stop(ctx), test.ShouldBeNil)
		before := robot.Pose()
		robot.Advance(time.Second)
		test.That(t, robot.Pose(), test.ShouldResemble, before)
	})
}

func TestBoundedGyro(t *testing.T) {
	ctx := context.Background()
	robot := sim.NewRobot(sim.Config{BoundedHeading: true}, logging.NewTestLogger(t))
	drive, err := robot.Drivetrain()
	test.That(t, err, test.ShouldBeNil)

	test.That(t, drive.ArcadeDrive(ctx, 0, -1), test.ShouldBeNil)
	robot.Advance(250 * time.Millisecond)
	heading, err := robot.Gyro.Heading(ctx)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, heading, test.ShouldAlmostEqual, 270)
	test.That(t, robot.Pose().Heading, test.ShouldAlmostEqual, -90)
}

func TestBearings(t *testing.T) {
	robot := sim.NewRobot(sim.Config{}, logging.NewTestLogger(t))
	robot.AddTarget("ahead", r3.Vector{X: 0, Y: 100})
	robot.AddTarget("right", r3.Vector{X: 100, Y: 0})
	robot.AddTarget("slightly_left", r3.Vector{X: -10, Y: 100})

	bearing, visible := robot.Bearing("ahead")
	test.That(t, visible, test.ShouldBeTrue)
	test.That(t, bearing, test.ShouldAlmostEqual, 0)

	bearing, visible = robot.Bearing("right")
	test.That(t, visible, test.ShouldBeFalse)
	test.That(t, bearing, test.ShouldAlmostEqual, 90)

	bearing, visible = robot.Bearing("slightly_left")
	test.That(t, visible, test.ShouldBeTrue)
	test.That(t, bearing, test.ShouldAlmostEqual, -math.Atan2(10, 100)*180/math.Pi)

	_, visible = robot.Bearing("missing")
	test.That(t, visible, test.ShouldBeFalse)

	clk := clock.NewMock()
	store := vision.NewBearingStore(clk)
	robot.PublishBearings(func(p vision.Packet) { store.Record(p) })
	robot.Advance(tick)

	snap := store.Snapshot()
	test.That(t, len(snap.Bearings), test.ShouldEqual, 2)
	test.That(t, snap.Bearings[0].Object, test.ShouldEqual, "ahead")
	test.That(t, snap.Bearings[1].Object, test.ShouldEqual, "slightly_left")
	_, ok := store.LatestBearing("right", time.Second)
	test.That(t, ok, test.ShouldBeFalse)
}

func TestElevatorLimits(t *testing.T) {
	ctx := context.Background()
	robot := sim.NewRobot(sim.Config{}, logging.NewTestLogger(t))
	elevator := robot.Elevator()

	test.That(t, elevator.Set(ctx, 1), test.ShouldBeNil)
	robot.Advance(5 * time.Second)
	test.That(t, robot.ElevatorHeight(), test.ShouldEqual, sim.ElevatorTravelIn)

	// the top limit switch refuses to drive further up
	test.That(t, elevator.Set(ctx, 1), test.ShouldBeNil)
	test.That(t, robot.ElevatorMotor.Power(), test.ShouldEqual, 0.0)

	test.That(t, elevator.Set(ctx, -0.5), test.ShouldBeNil)
	test.That(t, robot.ElevatorMotor.Power(), test.ShouldEqual, -0.5)
	robot.Advance(time.Second)
	test.That(t, robot.ElevatorHeight(), test.ShouldAlmostEqual, sim.ElevatorTravelIn-20)

	grabber := robot.Grabber()
	test.That(t, grabber.Set(ctx, 0.7), test.ShouldBeNil)
	test.That(t, robot.GrabberLeft.Power(), test.ShouldEqual, 0.7)
	test.That(t, robot.GrabberRight.Power(), test.ShouldEqual, -0.7)
}

func TestRotateToAngleClosedLoop(t *testing.T) {
	for _, bounded := range []bool{false, true} {
		robot := sim.NewRobot(sim.Config{BoundedHeading: bounded}, logging.NewTestLogger(t))
		drive, err := robot.Drivetrain()
		test.That(t, err, test.ShouldBeNil)

		for _, target := range []float64{90, -120} {
			start := robot.Pose().Heading
			rotate, err := primitive.NewRotateToAngle(primitive.RotateToAngleConfig{AngleDeg: target, Speed: 0.5},
				drive, robot.Gyro, logging.NewTestLogger(t))
			test.That(t, err, test.ShouldBeNil)

			runUntilDone(t, robot, nil, rotate, 5*time.Second)
			turned := robot.Pose().Heading - start
			test.That(t, math.Abs(turned), test.ShouldBeGreaterThan, math.Abs(target)-1)
			test.That(t, math.Abs(turned), test.ShouldBeLessThanOrEqualTo, math.Abs(target)+1)
			test.That(t, math.Signbit(turned), test.ShouldEqual, math.Signbit(target))
		}
	}
}

func TestDriveToDistanceClosedLoop(t *testing.T) {
	robot := sim.NewRobot(sim.Config{TicksPerInch: 20}, logging.NewTestLogger(t))
	drive, err := robot.Drivetrain()
	test.That(t, err, test.ShouldBeNil)

	dtd, err := primitive.NewDriveToDistance(primitive.DriveToDistanceConfig{
		DistanceIn:   100,
		Throttle:     0.5,
		TicksPerInch: 20,
		HeadingGain:  0.02,
	}, drive, robot.Encoder, robot.Gyro, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)

	took := runUntilDone(t, robot, nil, dtd, 10*time.Second)
	test.That(t, took, test.ShouldBeGreaterThan, time.Second)
	pose := robot.Pose()
	test.That(t, pose.Traveled, test.ShouldBeGreaterThan, 99.9)
	test.That(t, pose.Traveled, test.ShouldBeLessThan, 102)
	test.That(t, robot.Left.Power(), test.ShouldEqual, 0.0)
	test.That(t, robot.Right.Power(), test.ShouldEqual, 0.0)
}

func TestVisionPursuitClosedLoop(t *testing.T) {
	clk := clock.NewMock()
	robot := sim.NewRobot(sim.Config{}, logging.NewTestLogger(t))
	robot.AddTarget("retroreflective", r3.Vector{X: 30, Y: 200})
	store := vision.NewBearingStore(clk)
	robot.PublishBearings(func(p vision.Packet) { store.Record(p) })
	drive, err := robot.Drivetrain()
	test.That(t, err, test.ShouldBeNil)

	initial, visible := robot.Bearing("retroreflective")
	test.That(t, visible, test.ShouldBeTrue)
	test.That(t, initial, test.ShouldBeGreaterThan, 5)

	pursuit, err := primitive.NewVisionPursuit(primitive.VisionPursuitConfig{Forward: 0.5, Object: "retroreflective"},
		drive, store, clk)
	test.That(t, err, test.ShouldBeNil)
	timed, err := task.NewTimed(pursuit, 1500*time.Millisecond, clk)
	test.That(t, err, test.ShouldBeNil)

	runUntilDone(t, robot, clk, timed, 2*time.Second)
	final, visible := robot.Bearing("retroreflective")
	test.That(t, visible, test.ShouldBeTrue)
	test.That(t, math.Abs(final), test.ShouldBeLessThan, 2)
	test.That(t, robot.Pose().Heading, test.ShouldBeGreaterThan, 0)
}
