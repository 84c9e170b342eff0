// Package main runs autonomous periods on the simulated robot.
package main

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.viam.com/utils"

	"github.com/frcrobotics/autonomy/config"
	"github.com/frcrobotics/autonomy/field"
	"github.com/frcrobotics/autonomy/logging"
	"github.com/frcrobotics/autonomy/sim"
)

var logger = logging.NewDebugLogger("autonomous")

func main() {
	utils.ContextualMain(mainWithArgs, logger)
}

// Arguments for the command.
type Arguments struct {
	ConfigFile  string `flag:"config,usage=engine config file"`
	GameMessage string `flag:"game-message,usage=plate sides from the field such as LRL"`
	Side        string `flag:"side,usage=starting side overriding the config"`
	Duration    string `flag:"duration,usage=length of the autonomous period"`
	RealTime    bool   `flag:"realtime,usage=pace the match with the wall clock"`
	Watch       bool   `flag:"watch,usage=run again whenever the config file changes"`
	Debug       bool   `flag:"debug"`
}

func mainWithArgs(ctx context.Context, args []string, logger logging.Logger) (err error) {
	var argsParsed Arguments
	if err := utils.ParseFlags(args, &argsParsed); err != nil {
		return err
	}

	opts := sim.MatchOptions{GameMessage: argsParsed.GameMessage, RealTime: argsParsed.RealTime}
	if argsParsed.Duration != "" {
		d, err := time.ParseDuration(argsParsed.Duration)
		if err != nil {
			return errors.Wrap(err, "invalid duration")
		}
		opts.Duration = d
	}
	if argsParsed.Watch && argsParsed.ConfigFile == "" {
		return errors.New("-watch needs a -config file")
	}

	if argsParsed.Debug {
		ctx = logging.EnableDebugMode(ctx, "autonomous")
	}
	cfg, err := readConfig(ctx, argsParsed, logger)
	if err != nil {
		return err
	}
	if err := runMatch(ctx, cfg, opts, logger); err != nil || !argsParsed.Watch {
		return err
	}

	watcher, err := config.NewWatcher(argsParsed.ConfigFile, logger.Sublogger("config"))
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, watcher.Close())
	}()
	logger.Infow("waiting for config changes", "path", argsParsed.ConfigFile)
	for {
		select {
		case <-ctx.Done():
			return nil
		case cfg = <-watcher.Config():
		}
		if err := applyArgs(cfg, argsParsed); err != nil {
			logger.Warnw("ignoring config", "error", err)
			continue
		}
		if err := runMatch(ctx, cfg, opts, logger); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			logger.Errorw("match failed", "error", err)
		}
	}
}

func readConfig(ctx context.Context, argsParsed Arguments, logger logging.Logger) (*config.Config, error) {
	cfg := config.Default()
	if argsParsed.ConfigFile != "" {
		readCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		var err error
		cfg, err = config.Read(readCtx, argsParsed.ConfigFile, logger)
		if err != nil {
			return nil, err
		}
	}
	if err := applyArgs(cfg, argsParsed); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyArgs lets flags override the config file.
func applyArgs(cfg *config.Config, argsParsed Arguments) error {
	if argsParsed.Side != "" {
		side, err := field.ParseSide(argsParsed.Side)
		if err != nil {
			return err
		}
		cfg.RobotSide = side
	}
	if argsParsed.Debug {
		cfg.LogLevel = logging.DEBUG
	}
	return nil
}

func runMatch(ctx context.Context, cfg *config.Config, opts sim.MatchOptions, logger logging.Logger) error {
	result, err := sim.RunMatch(ctx, cfg, opts, logger)
	if err != nil {
		return err
	}
	logger.Infow("match complete",
		"routine", result.Choice.Routine,
		"reference", result.Choice.Reference,
		"finished", result.Status.Loop.Exhausted,
		"ticks", result.Status.Loop.Ticks,
		"pose", result.Pose,
	)
	return nil
}
