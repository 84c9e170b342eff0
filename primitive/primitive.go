// Package primitive implements the motion and actuation primitives that routines are built
// from, and a registry that constructs them from loosely typed attributes.
package primitive

import (
	"sort"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	goutils "go.viam.com/utils"

	"github.com/frcrobotics/autonomy/logging"
	"github.com/frcrobotics/autonomy/sensor"
	"github.com/frcrobotics/autonomy/subsystem"
	"github.com/frcrobotics/autonomy/task"
	"github.com/frcrobotics/autonomy/utils"
)

// Dependencies are the sensors and actuators a primitive may use. Constructors fail if one
// they need is missing.
type Dependencies struct {
	Drive    subsystem.Drive
	Elevator subsystem.Actuator
	Grabber  subsystem.Actuator

	Heading  sensor.HeadingSource
	Distance sensor.DistanceSource
	Bearings sensor.BearingSource

	// TicksPerInch is the default encoder scale for distance primitives.
	TicksPerInch float64

	Clock  clock.Clock
	Logger logging.Logger
}

func (deps Dependencies) clock() clock.Clock {
	if deps.Clock == nil {
		return clock.New()
	}
	return deps.Clock
}

func (deps Dependencies) logger(name string) logging.Logger {
	if deps.Logger == nil {
		return logging.NewBlankLogger(name)
	}
	return deps.Logger.Sublogger(name)
}

func missingDependency(primitive, dependency string) error {
	return errors.Errorf("%s primitive requires a %s", primitive, dependency)
}

// ConfigValidator is implemented by every primitive config. path locates the config in the
// enclosing document for error messages.
type ConfigValidator interface {
	Validate(path string) error
}

// A Constructor builds a primitive from its validated config.
type Constructor[ConfigT any] func(conf ConfigT, deps Dependencies) (task.Task, error)

// A Registration describes how to build one kind of primitive.
type Registration[ConfigT any] struct {
	Constructor Constructor[ConfigT]

	// MirroredAttributes are numeric attributes that change sign when a routine authored for
	// the left side of the field is run from the right side.
	MirroredAttributes []string
}

type registration struct {
	decode   func(attributes utils.AttributeMap, path string) (interface{}, error)
	build    func(conf interface{}, deps Dependencies) (task.Task, error)
	mirrored []string
}

var (
	registryMu sync.RWMutex
	registry   = map[string]registration{}
)

// Register adds a primitive under name. It panics if name is taken or the constructor is nil.
func Register[ConfigT any, PtrT interface {
	*ConfigT
	ConfigValidator
}](name string, reg Registration[PtrT]) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, old := registry[name]; old {
		panic(errors.Errorf("trying to register two primitives with the same name: %q", name))
	}
	if reg.Constructor == nil {
		panic(errors.Errorf("cannot register a nil constructor for primitive %q", name))
	}

	registry[name] = registration{
		decode: func(attributes utils.AttributeMap, path string) (interface{}, error) {
			conf, err := utils.DecodeAttributes[ConfigT](attributes)
			if err != nil {
				return nil, goutils.NewConfigValidationError(path, err)
			}
			if err := PtrT(conf).Validate(path); err != nil {
				return nil, err
			}
			return PtrT(conf), nil
		},
		build: func(conf interface{}, deps Dependencies) (task.Task, error) {
			typed, err := utils.AssertType[PtrT](conf)
			if err != nil {
				return nil, err
			}
			return reg.Constructor(typed, deps)
		},
		mirrored: reg.MirroredAttributes,
	}
}

func lookup(name string) (registration, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	reg, ok := registry[name]
	if !ok {
		return registration{}, errors.Errorf("unknown primitive %q", name)
	}
	return reg, nil
}

// Validate decodes and validates attributes for the named primitive without building it.
func Validate(name string, attributes utils.AttributeMap, path string) error {
	reg, err := lookup(name)
	if err != nil {
		return goutils.NewConfigValidationError(path, err)
	}
	_, err = reg.decode(attributes, path)
	return err
}

// Build constructs the named primitive from attributes.
func Build(name string, attributes utils.AttributeMap, path string, deps Dependencies) (task.Task, error) {
	reg, err := lookup(name)
	if err != nil {
		return nil, goutils.NewConfigValidationError(path, err)
	}
	conf, err := reg.decode(attributes, path)
	if err != nil {
		return nil, err
	}
	return reg.build(conf, deps)
}

// Mirror returns a copy of attributes with the named primitive's mirrored attributes negated.
func Mirror(name string, attributes utils.AttributeMap) (utils.AttributeMap, error) {
	reg, err := lookup(name)
	if err != nil {
		return nil, err
	}
	mirrored := attributes.Clone()
	for _, key := range reg.mirrored {
		if mirrored.Has(key) {
			mirrored[key] = -mirrored.Float64(key, 0)
		}
	}
	return mirrored, nil
}

// RegisteredNames returns every registered primitive name in sorted order.
func RegisteredNames() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := lo.Keys(registry)
	sort.Strings(names)
	return names
}

// inRange validates that value lies in [lo, hi].
func inRange(path, field string, value, low, high float64) error {
	if value < low || value > high {
		return goutils.NewConfigValidationError(path, errors.Errorf("%q must be in [%g, %g], got %g", field, low, high, value))
	}
	return nil
}
