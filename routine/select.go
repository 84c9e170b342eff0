package routine

import (
	"github.com/frcrobotics/autonomy/field"
)

// Select picks a routine from the robot's starting side and the side of its target.
// An unknown side on either input selects the fallback.
func Select(robot, target field.Side) string {
	switch {
	case robot == field.Unknown || !target.Lateral():
		return FallbackName
	case robot == field.Center:
		return CenterName
	case robot == target:
		return SameSideName
	default:
		return OppositeSideName
	}
}

// Choice is a selected routine and the side of the field it is run from.
type Choice struct {
	Routine string
	// Reference is Right when the routine's left-side tables must be mirrored.
	Reference field.Side
	// Target is the target the routine scores on. It is meaningless for the fallback.
	Target field.Target
}

// SelectForField picks a routine from the robot's starting side and the whole field
// configuration. Targets are tried in priority order and the first one on the robot's side
// wins; when none is, the robot crosses over to the near switch. A nil priority uses
// field.DefaultPriority.
func SelectForField(robot field.Side, conf field.Config, priority []field.Target) Choice {
	if len(priority) == 0 {
		priority = field.DefaultPriority
	}
	if robot == field.Unknown || !conf.Known() {
		return Choice{Routine: FallbackName, Reference: field.Left}
	}
	if robot == field.Center {
		return Choice{Routine: CenterName, Reference: conf.NearSwitch, Target: field.Switch}
	}
	for _, target := range priority {
		if conf.Side(target) != robot {
			continue
		}
		if target == field.Scale {
			return Choice{Routine: ScaleSameSideName, Reference: robot, Target: field.Scale}
		}
		return Choice{Routine: SameSideName, Reference: robot, Target: field.Switch}
	}
	return Choice{Routine: OppositeSideName, Reference: robot, Target: field.Switch}
}
