// Package routine assembles autonomous routines. A routine is data: an ordered list of steps,
// each a primitive or a group of steps run in parallel, optionally bounded by a duration.
// Routines are authored for the left side of the field and mirrored for the right.
package routine

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
	goutils "go.viam.com/utils"

	"github.com/frcrobotics/autonomy/primitive"
	"github.com/frcrobotics/autonomy/task"
	"github.com/frcrobotics/autonomy/utils"
)

// StepConfig is one step of a routine. Exactly one of Primitive and Parallel is set.
type StepConfig struct {
	Primitive  string             `json:"primitive,omitempty"`
	Attributes utils.AttributeMap `json:"attributes,omitempty"`

	Parallel []StepConfig `json:"parallel,omitempty"`
	// ExitAny finishes a parallel step as soon as one of its children finishes.
	ExitAny bool `json:"exit_any,omitempty"`

	// DurationSec bounds the step with a Timed wrapper. Zero leaves the step unbounded.
	DurationSec float64 `json:"duration_sec,omitempty"`
}

// Validate checks the step and every nested step, including the primitive attributes.
func (step StepConfig) Validate(path string) error {
	if step.DurationSec < 0 {
		return goutils.NewConfigValidationError(path,
			errors.Errorf(`"duration_sec" must not be negative, got %g`, step.DurationSec))
	}
	switch {
	case step.Primitive != "" && len(step.Parallel) > 0:
		return goutils.NewConfigValidationError(path, errors.New(`only one of "primitive" and "parallel" may be set`))
	case step.Primitive != "":
		if step.ExitAny {
			return goutils.NewConfigValidationError(path, errors.New(`"exit_any" only applies to parallel steps`))
		}
		return primitive.Validate(step.Primitive, step.Attributes, path)
	case len(step.Parallel) > 0:
		if step.Attributes != nil {
			return goutils.NewConfigValidationError(path, errors.New(`parallel steps take no "attributes"`))
		}
		for i, child := range step.Parallel {
			if err := child.Validate(fmt.Sprintf("%s.parallel.%d", path, i)); err != nil {
				return err
			}
		}
		return nil
	default:
		return goutils.NewConfigValidationFieldRequiredError(path, "primitive")
	}
}

func (step StepConfig) duration() time.Duration {
	return time.Duration(step.DurationSec * float64(time.Second))
}

// mirror returns a deep copy of the step with every mirrored attribute negated.
func (step StepConfig) mirror() (StepConfig, error) {
	out := step
	if step.Primitive != "" {
		attrs, err := primitive.Mirror(step.Primitive, step.Attributes)
		if err != nil {
			return StepConfig{}, err
		}
		out.Attributes = attrs
		return out, nil
	}
	out.Parallel = make([]StepConfig, 0, len(step.Parallel))
	for _, child := range step.Parallel {
		mirrored, err := child.mirror()
		if err != nil {
			return StepConfig{}, err
		}
		out.Parallel = append(out.Parallel, mirrored)
	}
	return out, nil
}

// build turns the step into a task, wrapping it in a Timed wrapper when it has a duration.
func (step StepConfig) build(path string, deps primitive.Dependencies) (task.Task, error) {
	var (
		built task.Task
		err   error
	)
	if step.Primitive != "" {
		built, err = primitive.Build(step.Primitive, step.Attributes, path, deps)
	} else {
		children := make([]task.Task, 0, len(step.Parallel))
		for i, child := range step.Parallel {
			childTask, err := child.build(fmt.Sprintf("%s.parallel.%d", path, i), deps)
			if err != nil {
				return nil, err
			}
			children = append(children, childTask)
		}
		built, err = task.NewParallel(step.ExitAny, children...)
	}
	if err != nil {
		return nil, err
	}
	if step.DurationSec == 0 {
		return built, nil
	}
	return task.NewTimed(built, step.duration(), deps.Clock)
}

// Definition is a named routine.
type Definition struct {
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	Steps       []StepConfig `json:"steps"`
}

// Validate checks the definition and all of its steps.
func (def Definition) Validate(path string) error {
	if def.Name == "" {
		return goutils.NewConfigValidationFieldRequiredError(path, "name")
	}
	if len(def.Steps) == 0 {
		return goutils.NewConfigValidationFieldRequiredError(path, "steps")
	}
	for i, step := range def.Steps {
		if err := step.Validate(fmt.Sprintf("%s.steps.%d", path, i)); err != nil {
			return err
		}
	}
	return nil
}

// Mirror returns the definition as run from the opposite side of the field.
func (def Definition) Mirror() (Definition, error) {
	out := def
	out.Steps = make([]StepConfig, 0, len(def.Steps))
	for i, step := range def.Steps {
		mirrored, err := step.mirror()
		if err != nil {
			return Definition{}, errors.Wrapf(err, "mirroring step %d of routine %q", i, def.Name)
		}
		out.Steps = append(out.Steps, mirrored)
	}
	return out, nil
}

// Build turns the definition into a single sequence task. Every step is constructed before
// the sequence is returned, so a bad step fails the whole build.
func (def Definition) Build(deps primitive.Dependencies) (*task.Sequence, error) {
	children := make([]task.Task, 0, len(def.Steps))
	for i, step := range def.Steps {
		built, err := step.build(fmt.Sprintf("%s.steps.%d", def.Name, i), deps)
		if err != nil {
			return nil, errors.Wrapf(err, "building routine %q", def.Name)
		}
		children = append(children, built)
	}
	return task.NewSequence(def.Name, children...), nil
}
