package primitive

import (
	"context"
	"fmt"

	"github.com/frcrobotics/autonomy/subsystem"
	"github.com/frcrobotics/autonomy/task"
)

// ArcadeDriveName is the registered name of the open-loop drive primitive.
const ArcadeDriveName = "arcade_drive"

func init() {
	Register(ArcadeDriveName, Registration[*ArcadeDriveConfig]{
		Constructor: func(conf *ArcadeDriveConfig, deps Dependencies) (task.Task, error) {
			if deps.Drive == nil {
				return nil, missingDependency(ArcadeDriveName, "drive")
			}
			return NewArcadeDrive(*conf, deps.Drive)
		},
		MirroredAttributes: []string{"rotate"},
	})
}

// ArcadeDriveConfig holds constant drive inputs.
type ArcadeDriveConfig struct {
	Forward float64 `json:"forward"`
	Rotate  float64 `json:"rotate"`
}

// Validate checks both inputs are in [-1, 1].
func (conf *ArcadeDriveConfig) Validate(path string) error {
	if err := inRange(path, "forward", conf.Forward, -1, 1); err != nil {
		return err
	}
	return inRange(path, "rotate", conf.Rotate, -1, 1)
}

// ArcadeDrive commands the same forward and rotate inputs every tick and never finishes on
// its own.
type ArcadeDrive struct {
	conf  ArcadeDriveConfig
	drive subsystem.Drive
}

// NewArcadeDrive returns an open-loop drive primitive.
func NewArcadeDrive(conf ArcadeDriveConfig, drive subsystem.Drive) (*ArcadeDrive, error) {
	if err := conf.Validate(ArcadeDriveName); err != nil {
		return nil, err
	}
	return &ArcadeDrive{conf: conf, drive: drive}, nil
}

// Name describes the inputs.
func (a *ArcadeDrive) Name() string {
	return fmt.Sprintf("%s(%.2f, %.2f)", ArcadeDriveName, a.conf.Forward, a.conf.Rotate)
}

// Init does nothing.
func (a *ArcadeDrive) Init(ctx context.Context) {}

// Step drives with the configured inputs.
func (a *ArcadeDrive) Step(ctx context.Context) (task.Status, error) {
	return task.Continue, a.drive.ArcadeDrive(ctx, a.conf.Forward, a.conf.Rotate)
}

// End stops the drive.
func (a *ArcadeDrive) End(ctx context.Context) error {
	return a.drive.Stop(ctx)
}
