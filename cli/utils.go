package cli

import (
	"fmt"
	"io"

	"github.com/urfave/cli/v2"

	"github.com/frcrobotics/autonomy/config"
	"github.com/frcrobotics/autonomy/field"
	"github.com/frcrobotics/autonomy/logging"
)

// printf prints a message with no decoration.
func printf(w io.Writer, format string, a ...interface{}) {
	//nolint:errcheck // no need to check the error of a print
	fmt.Fprintf(w, format+"\n", a...)
}

// warningf prints a message prefixed with a bold "Warning: ".
func warningf(w io.Writer, format string, a ...interface{}) {
	//nolint:errcheck
	fmt.Fprintf(w, "\x1b[1mWarning:\x1b[0m "+format+"\n", a...)
}

// newLogger is silent unless --debug is set.
func newLogger(c *cli.Context) logging.Logger {
	if c.Bool(generalFlagDebug) {
		return logging.NewDebugLogger("autonomy")
	}
	return logging.NewBlankLogger("autonomy")
}

// loadConfig reads --config, or returns the defaults when it is not given.
func loadConfig(c *cli.Context, logger logging.Logger) (*config.Config, error) {
	path := c.String(generalFlagConfig)
	if path == "" {
		return config.Default(), nil
	}
	return config.Read(c.Context, path, logger)
}

// robotSide is --side if given, otherwise the side from the config.
func robotSide(c *cli.Context, cfg *config.Config) (field.Side, error) {
	if str := c.String(matchFlagSide); str != "" {
		return field.ParseSide(str)
	}
	return cfg.RobotSide, nil
}
