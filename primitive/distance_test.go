package primitive_test

import (
	"context"
	"testing"

	"go.viam.com/test"

	"github.com/frcrobotics/autonomy/logging"
	"github.com/frcrobotics/autonomy/primitive"
	"github.com/frcrobotics/autonomy/sensor"
	sensorfake "github.com/frcrobotics/autonomy/sensor/fake"
	subsystemfake "github.com/frcrobotics/autonomy/subsystem/fake"
	"github.com/frcrobotics/autonomy/task"
)

const ticksPerInch = 12.5

func TestDriveToDistanceConfig(t *testing.T) {
	logger := logging.NewTestLogger(t)
	for _, tc := range []struct {
		name string
		conf primitive.DriveToDistanceConfig
		err  string
	}{
		{"zero distance", primitive.DriveToDistanceConfig{Throttle: 0.5, TicksPerInch: 1}, "distance_in"},
		{"no throttle", primitive.DriveToDistanceConfig{DistanceIn: 10, TicksPerInch: 1}, "throttle"},
		{"big throttle", primitive.DriveToDistanceConfig{DistanceIn: 10, Throttle: 1.5, TicksPerInch: 1}, "throttle"},
		{"no scale", primitive.DriveToDistanceConfig{DistanceIn: 10, Throttle: 0.5}, "ticks_per_inch"},
		{"gain without heading", primitive.DriveToDistanceConfig{
			DistanceIn: 10, Throttle: 0.5, TicksPerInch: 1, HeadingGain: 0.1,
		}, "heading source"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := primitive.NewDriveToDistance(tc.conf, &subsystemfake.Drive{}, &sensorfake.Encoder{}, nil, logger)
			test.That(t, err, test.ShouldNotBeNil)
			test.That(t, err.Error(), test.ShouldContainSubstring, tc.err)
		})
	}
}

func TestDriveToDistance(t *testing.T) {
	ctx := context.Background()
	drive := &subsystemfake.Drive{}
	encoder := &sensorfake.Encoder{}
	encoder.SetTicks(5000)

	d, err := primitive.NewDriveToDistance(primitive.DriveToDistanceConfig{
		DistanceIn:   100,
		Throttle:     0.8,
		TicksPerInch: ticksPerInch,
	}, drive, encoder, nil, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	d.Init(ctx)

	target := int64(100 * ticksPerInch)
	for _, tc := range []struct {
		traveled int64
		forward  float64
	}{
		{0, 0.8},
		{target / 2, 0.8},
		{target * 9 / 10, 0.8},
		{target*9/10 + 1, 0.56},
		{target - 1, 0.56},
	} {
		encoder.SetTicks(5000 + tc.traveled)
		status, err := d.Step(ctx)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, status, test.ShouldEqual, task.Continue)
		cmd := lastCommand(t, drive)
		test.That(t, cmd.Forward, test.ShouldAlmostEqual, tc.forward)
		test.That(t, cmd.Rotate, test.ShouldEqual, 0.0)
	}

	drive.Reset()
	encoder.SetTicks(5000 + target)
	status, err := d.Step(ctx)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, status, test.ShouldEqual, task.Done)
	// Finishing issues no further drive command; the owner ends the primitive.
	test.That(t, drive.Commands(), test.ShouldBeEmpty)
	test.That(t, d.End(ctx), test.ShouldBeNil)
	test.That(t, lastCommand(t, drive).Stop, test.ShouldBeTrue)
}

func TestDriveToDistanceReverse(t *testing.T) {
	ctx := context.Background()
	drive := &subsystemfake.Drive{}
	encoder := &sensorfake.Encoder{}

	d, err := primitive.NewDriveToDistance(primitive.DriveToDistanceConfig{
		DistanceIn:   10,
		Throttle:     -0.5,
		TicksPerInch: 10,
	}, drive, encoder, nil, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	d.Init(ctx)

	encoder.SetTicks(-50)
	status, err := d.Step(ctx)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, status, test.ShouldEqual, task.Continue)
	test.That(t, lastCommand(t, drive).Forward, test.ShouldEqual, -0.5)

	encoder.SetTicks(-100)
	status, err = d.Step(ctx)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, status, test.ShouldEqual, task.Done)
}

func TestDriveToDistanceEncoderUnavailable(t *testing.T) {
	ctx := context.Background()
	drive := &subsystemfake.Drive{}
	encoder := &sensorfake.Encoder{}
	encoder.SetError(sensor.ErrUnavailable)

	d, err := primitive.NewDriveToDistance(primitive.DriveToDistanceConfig{
		DistanceIn:   10,
		Throttle:     0.5,
		TicksPerInch: 10,
	}, drive, encoder, nil, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	d.Init(ctx)

	status, err := d.Step(ctx)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, status, test.ShouldEqual, task.Continue)
	test.That(t, lastCommand(t, drive).Stop, test.ShouldBeTrue)

	// The first good reading is the start position.
	encoder.SetError(nil)
	encoder.SetTicks(400)
	status, _ = d.Step(ctx)
	test.That(t, status, test.ShouldEqual, task.Continue)
	encoder.SetTicks(499)
	status, _ = d.Step(ctx)
	test.That(t, status, test.ShouldEqual, task.Continue)
	encoder.SetTicks(500)
	status, _ = d.Step(ctx)
	test.That(t, status, test.ShouldEqual, task.Done)
}

func TestDriveToDistanceHeadingHold(t *testing.T) {
	ctx := context.Background()
	drive := &subsystemfake.Drive{}
	encoder := &sensorfake.Encoder{}
	gyro := &sensorfake.Gyro{}
	gyro.SetHeading(12)

	d, err := primitive.NewDriveToDistance(primitive.DriveToDistanceConfig{
		DistanceIn:   100,
		Throttle:     0.6,
		TicksPerInch: 10,
		HeadingGain:  0.02,
	}, drive, encoder, gyro, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	d.Init(ctx)

	// Drifting clockwise steers counterclockwise.
	gyro.SetHeading(17)
	_, err = d.Step(ctx)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, lastCommand(t, drive).Rotate, test.ShouldAlmostEqual, -0.1)

	// The correction is bounded.
	gyro.SetHeading(-40)
	_, err = d.Step(ctx)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, lastCommand(t, drive).Rotate, test.ShouldAlmostEqual, 0.3)
}
