// Package cli contains the autonomy command line tool for inspecting routines, checking
// routine selection, simulating matches and talking to the vision link.
package cli

import (
	"io"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/frcrobotics/autonomy/sim"
	"github.com/frcrobotics/autonomy/vision"
)

const (
	// Flags.
	generalFlagConfig = "config"
	generalFlagDebug  = "debug"

	matchFlagSide        = "side"
	matchFlagGameMessage = "game-message"
	matchFlagDuration    = "duration"
	matchFlagRealTime    = "realtime"

	visionFlagAddress  = "address"
	visionFlagCodec    = "codec"
	visionFlagInterval = "interval"
	visionFlagFor      = "for"
	visionFlagSender   = "sender"
	visionFlagObject   = "object"
	visionFlagAngle    = "angle"
	visionFlagID       = "id"
)

var sideFlag = &cli.StringFlag{
	Name:  matchFlagSide,
	Usage: "starting side of the robot (left, center or right); defaults to the config",
}

var codecFlag = &cli.StringFlag{
	Name:  visionFlagCodec,
	Usage: "packet encoding (json or msgpack)",
	Value: "json",
}

var app = &cli.App{
	Name:            "autonomy",
	Usage:           "inspect and exercise autonomous routines",
	HideHelpCommand: true,
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:      generalFlagConfig,
			Aliases:   []string{"c"},
			Usage:     "load configuration from `FILE`",
			TakesFile: true,
		},
		&cli.BoolFlag{
			Name:    generalFlagDebug,
			Aliases: []string{"vvv"},
			Usage:   "enable debug logging",
		},
	},
	Commands: []*cli.Command{
		{
			Name:            "routines",
			Usage:           "work with routines",
			HideHelpCommand: true,
			Subcommands: []*cli.Command{
				{
					Name:   "list",
					Usage:  "list built-in and configured routines",
					Action: ListRoutinesAction,
				},
				{
					Name:      "show",
					Usage:     "print a routine as it runs from a starting side",
					ArgsUsage: "<routine>",
					Flags: []cli.Flag{
						&cli.StringFlag{
							Name:  matchFlagSide,
							Usage: "reference side; right mirrors the routine",
							Value: "left",
						},
					},
					Action: ShowRoutineAction,
				},
			},
		},
		{
			Name:  "select",
			Usage: "show which routine would run for a game message",
			Flags: []cli.Flag{
				sideFlag,
				&cli.StringFlag{
					Name:     matchFlagGameMessage,
					Aliases:  []string{"m"},
					Usage:    "plate sides from the field such as LRL",
					Required: true,
				},
			},
			Action: SelectAction,
		},
		{
			Name:  "simulate",
			Usage: "run an autonomous period on the simulated robot",
			Flags: []cli.Flag{
				sideFlag,
				&cli.StringFlag{
					Name:    matchFlagGameMessage,
					Aliases: []string{"m"},
					Usage:   "plate sides from the field such as LRL",
				},
				&cli.DurationFlag{
					Name:  matchFlagDuration,
					Usage: "length of the autonomous period",
					Value: sim.DefaultMatchDuration,
				},
				&cli.BoolFlag{
					Name:  matchFlagRealTime,
					Usage: "pace the match with the wall clock and send bearings over the vision link",
				},
			},
			Action: SimulateAction,
		},
		{
			Name:            "vision",
			Usage:           "work with the vision link",
			HideHelpCommand: true,
			Subcommands: []*cli.Command{
				{
					Name:  "listen",
					Usage: "receive vision packets and print the latest bearings",
					Flags: []cli.Flag{
						&cli.StringFlag{
							Name:  visionFlagAddress,
							Usage: "address to listen on",
							Value: vision.DefaultListenAddress,
						},
						codecFlag,
						&cli.DurationFlag{
							Name:  visionFlagInterval,
							Usage: "time between printed snapshots",
							Value: time.Second,
						},
						&cli.DurationFlag{
							Name:  visionFlagFor,
							Usage: "stop listening after this long; zero listens until interrupted",
						},
					},
					Action: ListenAction,
				},
				{
					Name:  "send",
					Usage: "send one vision packet",
					Flags: []cli.Flag{
						&cli.StringFlag{
							Name:  visionFlagAddress,
							Usage: "address of the receiver",
							Value: vision.DefaultSendAddress,
						},
						codecFlag,
						&cli.StringFlag{
							Name:  visionFlagSender,
							Usage: "sender of the packet",
							Value: vision.SenderVision,
						},
						&cli.StringFlag{
							Name:  visionFlagObject,
							Usage: "object class the bearing is to",
						},
						&cli.Float64Flag{
							Name:  visionFlagAngle,
							Usage: "bearing in degrees, positive clockwise",
						},
						&cli.Int64Flag{
							Name:  visionFlagID,
							Usage: "packet id",
						},
					},
					Action: SendAction,
				},
			},
		},
	},
}

// NewApp returns a new app with the CLI API, Writer set to out, and ErrWriter
// set to errOut.
func NewApp(out, errOut io.Writer) *cli.App {
	app.Writer = out
	app.ErrWriter = errOut
	return app
}
