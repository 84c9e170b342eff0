package cli

import (
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/frcrobotics/autonomy/field"
	"github.com/frcrobotics/autonomy/routine"
	"github.com/frcrobotics/autonomy/sim"
)

// ListRoutinesAction is the corresponding Action for 'routines list'.
func ListRoutinesAction(c *cli.Context) error {
	logger := newLogger(c)
	cfg, err := loadConfig(c, logger)
	if err != nil {
		return err
	}
	assembler, err := cfg.Assembler(logger)
	if err != nil {
		return err
	}
	for _, name := range assembler.Names() {
		def, _ := assembler.Definition(name)
		printf(c.App.Writer, "%-16s %s", name, def.Description)
	}
	return nil
}

// ShowRoutineAction is the corresponding Action for 'routines show'.
func ShowRoutineAction(c *cli.Context) error {
	name := c.Args().First()
	if name == "" {
		return errors.New("a routine name is required")
	}
	logger := newLogger(c)
	cfg, err := loadConfig(c, logger)
	if err != nil {
		return err
	}
	reference, err := field.ParseSide(c.String(matchFlagSide))
	if err != nil {
		return err
	}
	assembler, err := cfg.Assembler(logger)
	if err != nil {
		return err
	}
	def, err := assembler.Resolve(name, reference)
	if err != nil {
		return err
	}
	out, err := json.MarshalIndent(def, "", "  ")
	if err != nil {
		return err
	}
	printf(c.App.Writer, "%s", out)
	return nil
}

// SelectAction is the corresponding Action for 'select'.
func SelectAction(c *cli.Context) error {
	logger := newLogger(c)
	cfg, err := loadConfig(c, logger)
	if err != nil {
		return err
	}
	side, err := robotSide(c, cfg)
	if err != nil {
		return err
	}
	assembler, err := cfg.Assembler(logger)
	if err != nil {
		return err
	}

	conf := field.ParseGameMessage(c.String(matchFlagGameMessage))
	if !conf.Known() {
		warningf(c.App.ErrWriter, "game message %q is not a valid field configuration", c.String(matchFlagGameMessage))
	}
	choice := assembler.Choose(side, conf)
	printf(c.App.Writer, "field:     %s", conf)
	printf(c.App.Writer, "robot:     %s", side)
	printf(c.App.Writer, "routine:   %s", choice.Routine)
	printf(c.App.Writer, "reference: %s", choice.Reference)
	if choice.Routine != routine.FallbackName {
		printf(c.App.Writer, "target:    %s", choice.Target)
	}
	return nil
}

// SimulateAction is the corresponding Action for 'simulate'.
func SimulateAction(c *cli.Context) error {
	logger := newLogger(c)
	cfg, err := loadConfig(c, logger)
	if err != nil {
		return err
	}
	side, err := robotSide(c, cfg)
	if err != nil {
		return err
	}
	cfg.RobotSide = side

	realTime := c.Bool(matchFlagRealTime)
	if !realTime {
		cfg.Vision.Disabled = true
		cfg.Diagnostics.Disabled = true
	}

	result, err := sim.RunMatch(c.Context, cfg, sim.MatchOptions{
		GameMessage: c.String(matchFlagGameMessage),
		Duration:    c.Duration(matchFlagDuration),
		RealTime:    realTime,
	}, logger)
	if err != nil {
		return err
	}

	printf(c.App.Writer, "routine:   %s (reference %s)", result.Choice.Routine, result.Choice.Reference)
	printf(c.App.Writer, "finished:  %t after %d ticks of %s", result.Status.Loop.Exhausted, result.Status.Loop.Ticks, result.Elapsed)
	printf(c.App.Writer, "position:  x=%.1fin y=%.1fin", result.Pose.Position.X, result.Pose.Position.Y)
	printf(c.App.Writer, "heading:   %.1f deg", result.Pose.Heading)
	printf(c.App.Writer, "elevator:  %.1fin", result.ElevatorHeight)
	return nil
}
