package primitive_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"go.viam.com/test"

	"github.com/frcrobotics/autonomy/primitive"
	subsystemfake "github.com/frcrobotics/autonomy/subsystem/fake"
	"github.com/frcrobotics/autonomy/task"
)

func TestArcadeDrive(t *testing.T) {
	ctx := context.Background()
	drive := &subsystemfake.Drive{}

	_, err := primitive.NewArcadeDrive(primitive.ArcadeDriveConfig{Forward: 1.2}, drive)
	test.That(t, err, test.ShouldNotBeNil)

	arcade, err := primitive.NewArcadeDrive(primitive.ArcadeDriveConfig{Forward: 0.7, Rotate: -0.2}, drive)
	test.That(t, err, test.ShouldBeNil)
	arcade.Init(ctx)
	for i := 0; i < 50; i++ {
		status, err := arcade.Step(ctx)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, status, test.ShouldEqual, task.Continue)
	}
	cmds := drive.Commands()
	test.That(t, len(cmds), test.ShouldEqual, 50)
	for _, cmd := range cmds {
		test.That(t, cmd, test.ShouldResemble, subsystemfake.Command{Forward: 0.7, Rotate: -0.2})
	}

	// A failing drive is reported but does not finish the primitive.
	drive.SetError(errors.New("brownout"))
	status, err := arcade.Step(ctx)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, status, test.ShouldEqual, task.Continue)
}
