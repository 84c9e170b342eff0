package routine

import (
	"fmt"
	"sort"

	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/frcrobotics/autonomy/field"
	"github.com/frcrobotics/autonomy/logging"
	"github.com/frcrobotics/autonomy/primitive"
	"github.com/frcrobotics/autonomy/task"
)

// Assembler holds the routine tables and turns a field configuration into a runnable task.
type Assembler struct {
	definitions map[string]Definition
	priority    []field.Target
	logger      logging.Logger
}

// NewAssembler returns an assembler over the built-in routines, with overrides replacing or
// adding routines by name. Every routine is validated as authored and as mirrored, so a bad
// table is reported here rather than at match start.
func NewAssembler(overrides []Definition, priority []field.Target, logger logging.Logger) (*Assembler, error) {
	if len(priority) == 0 {
		priority = field.DefaultPriority
	}
	if logger == nil {
		logger = logging.NewBlankLogger("routine")
	}
	a := &Assembler{definitions: map[string]Definition{}, priority: priority, logger: logger}
	for _, def := range Builtins() {
		a.definitions[def.Name] = def
	}
	seen := map[string]bool{}
	for i, def := range overrides {
		path := fmt.Sprintf("routines.%d", i)
		if def.Name != "" && seen[def.Name] {
			return nil, errors.Errorf("%s: routine %q is defined twice", path, def.Name)
		}
		seen[def.Name] = true
		if err := def.Validate(path); err != nil {
			return nil, err
		}
		if _, builtin := a.definitions[def.Name]; builtin {
			logger.Infof("routine %q overridden by config", def.Name)
		}
		a.definitions[def.Name] = def
	}
	for _, name := range a.Names() {
		def := a.definitions[name]
		if err := def.Validate(name); err != nil {
			return nil, err
		}
		mirrored, err := def.Mirror()
		if err != nil {
			return nil, err
		}
		if err := mirrored.Validate(name + "(mirrored)"); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// Names returns every routine name in sorted order.
func (a *Assembler) Names() []string {
	names := lo.Keys(a.definitions)
	sort.Strings(names)
	return names
}

// Priority is the target priority used by Choose.
func (a *Assembler) Priority() []field.Target {
	return a.priority
}

// Definition returns the routine called name as authored.
func (a *Assembler) Definition(name string) (Definition, bool) {
	def, ok := a.definitions[name]
	return def, ok
}

// Resolve returns the routine called name as run from reference. Right mirrors the tables;
// any other side runs them as authored.
func (a *Assembler) Resolve(name string, reference field.Side) (Definition, error) {
	def, ok := a.definitions[name]
	if !ok {
		return Definition{}, errors.Errorf("unknown routine %q", name)
	}
	if reference != field.Right {
		return def, nil
	}
	return def.Mirror()
}

// Build constructs the routine called name as run from reference.
func (a *Assembler) Build(name string, reference field.Side, deps primitive.Dependencies) (*task.Sequence, error) {
	def, err := a.Resolve(name, reference)
	if err != nil {
		return nil, err
	}
	return def.Build(deps)
}

// Choose selects a routine for the match using the assembler's target priority.
func (a *Assembler) Choose(robot field.Side, conf field.Config) Choice {
	return SelectForField(robot, conf, a.priority)
}

// Assemble chooses and builds the routine for the match. If the chosen routine cannot be
// built, for example because a sensor it needs is not available, the fallback is built
// instead; only a failure of the fallback is returned.
func (a *Assembler) Assemble(robot field.Side, conf field.Config, deps primitive.Dependencies) (*task.Sequence, Choice, error) {
	choice := a.Choose(robot, conf)
	seq, err := a.Build(choice.Routine, choice.Reference, deps)
	if err == nil {
		return seq, choice, nil
	}
	if choice.Routine == FallbackName {
		return nil, choice, err
	}
	a.logger.Errorw("cannot build routine, falling back", "routine", choice.Routine, "fallback", FallbackName, "error", err)
	choice = Choice{Routine: FallbackName, Reference: field.Left}
	seq, err = a.Build(choice.Routine, choice.Reference, deps)
	return seq, choice, err
}
