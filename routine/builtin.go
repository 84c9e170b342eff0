package routine

import (
	"github.com/frcrobotics/autonomy/primitive"
	"github.com/frcrobotics/autonomy/utils"
)

// Names of the built-in routines.
const (
	CenterName        = "center"
	SameSideName      = "same_side"
	ScaleSameSideName = "scale_same_side"
	OppositeSideName  = "opposite_side"
	CrossLineName     = "cross_line"
	VisionReckonName  = "vision_reckon"
)

// FallbackName is run whenever the field or robot position is unknown. It only needs the
// drivetrain.
const FallbackName = CrossLineName

// VisionTarget is the vision object marking the switch and scale plates.
const VisionTarget = "retroreflective"

func prim(name string, attrs utils.AttributeMap, durationSec float64) StepConfig {
	return StepConfig{Primitive: name, Attributes: attrs, DurationSec: durationSec}
}

func drive(forward, rotate, durationSec float64) StepConfig {
	return prim(primitive.ArcadeDriveName, utils.AttributeMap{"forward": forward, "rotate": rotate}, durationSec)
}

func driveDistance(inches, throttle, durationSec float64) StepConfig {
	return prim(primitive.DriveToDistanceName, utils.AttributeMap{
		"distance_in":  inches,
		"throttle":     throttle,
		"heading_gain": 0.02,
	}, durationSec)
}

func rotate(angle, speed, durationSec float64) StepConfig {
	return prim(primitive.RotateToAngleName, utils.AttributeMap{"angle_deg": angle, "speed": speed}, durationSec)
}

func pursue(forward, durationSec float64) StepConfig {
	return prim(primitive.VisionPursuitName, utils.AttributeMap{"forward": forward, "object": VisionTarget}, durationSec)
}

func elevator(speed, durationSec float64) StepConfig {
	return prim(primitive.ElevatorName, utils.AttributeMap{"speed": speed}, durationSec)
}

func grabber(speed, durationSec float64) StepConfig {
	return prim(primitive.GrabberName, utils.AttributeMap{"speed": speed}, durationSec)
}

func parallel(exitAny bool, durationSec float64, steps ...StepConfig) StepConfig {
	return StepConfig{Parallel: steps, ExitAny: exitAny, DurationSec: durationSec}
}

// Builtins returns the built-in routine tables, authored for the left side of the field.
// Positive angles and rotate values turn clockwise.
func Builtins() []Definition {
	return []Definition{
		{
			Name:        CenterName,
			Description: "start centered, angle across to the switch plate and place the cube",
			Steps: []StepConfig{
				driveDistance(24, 0.7, 1.5),
				rotate(-45, 0.6, 1),
				driveDistance(60, 0.7, 3),
				rotate(50, 0.6, 1),
				parallel(false, 2,
					elevator(0.6, 1.2),
					pursue(0.5, 2),
				),
				grabber(-0.8, 1),
				drive(-0.4, 0, 0.75),
			},
		},
		{
			Name:        SameSideName,
			Description: "switch on our side: drive alongside it, turn in and place the cube",
			Steps: []StepConfig{
				parallel(false, 4,
					driveDistance(140, 0.8, 4),
					elevator(0.6, 1.5),
				),
				rotate(90, 0.5, 1.5),
				pursue(0.4, 1),
				grabber(-1, 1),
			},
		},
		{
			Name:        ScaleSameSideName,
			Description: "scale on our side: drive the length of the field raising the elevator and place on the scale",
			Steps: []StepConfig{
				parallel(false, 6,
					driveDistance(300, 0.9, 6),
					elevator(0.8, 3),
				),
				rotate(45, 0.5, 1.5),
				drive(0.3, 0, 0.75),
				grabber(-1, 1),
				drive(-0.3, 0, 1),
			},
		},
		{
			Name:        OppositeSideName,
			Description: "switch on the far side: zig-zag across the field and approach with vision",
			Steps: []StepConfig{
				driveDistance(60, 0.7, 3),
				rotate(90, 0.5, 1.5),
				driveDistance(120, 0.7, 4),
				rotate(-90, 0.5, 1.5),
				parallel(true, 1.5,
					pursue(0.3, 1.5),
					elevator(0.6, 1.2),
				),
				grabber(-1, 1),
			},
		},
		{
			Name:        CrossLineName,
			Description: "drive forward across the auto line and stop",
			Steps: []StepConfig{
				drive(0.5, 0, 2),
			},
		},
		{
			Name:        VisionReckonName,
			Description: "follow the retroreflective target with vision, for testing the vision link",
			Steps: []StepConfig{
				pursue(0.5, 5),
			},
		},
	}
}
