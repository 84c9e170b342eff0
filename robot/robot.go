// Package robot ties the engine together for a match: it chooses and starts a routine when
// autonomous begins, steps it every period, stops everything when disabled, and logs
// periodic diagnostics.
package robot

import (
	"context"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/go-co-op/gocron/v2"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/frcrobotics/autonomy/config"
	"github.com/frcrobotics/autonomy/field"
	"github.com/frcrobotics/autonomy/logging"
	"github.com/frcrobotics/autonomy/primitive"
	"github.com/frcrobotics/autonomy/routine"
	"github.com/frcrobotics/autonomy/scheduler"
	"github.com/frcrobotics/autonomy/sensor"
	"github.com/frcrobotics/autonomy/subsystem"
	"github.com/frcrobotics/autonomy/vision"
)

// Hardware is what the robot drives and senses with. Elevator, Grabber, Heading and Distance
// may be nil; routines that need them fall back to crossing the line.
type Hardware struct {
	Drive    subsystem.Drive
	Elevator subsystem.Actuator
	Grabber  subsystem.Actuator
	Heading  sensor.HeadingSource
	Distance sensor.DistanceSource
}

// Mode is the match phase the robot is in.
type Mode int

// The supported modes.
const (
	Disabled Mode = iota
	Autonomous
)

func (m Mode) String() string {
	if m == Autonomous {
		return "autonomous"
	}
	return "disabled"
}

// Robot runs autonomous routines on some hardware.
type Robot struct {
	hw     Hardware
	clk    clock.Clock
	logger logging.Logger

	bearings *vision.BearingStore

	mu          sync.Mutex
	cfg         *config.Config
	assembler   *routine.Assembler
	loop        *scheduler.Loop
	receiver    *vision.Receiver
	diagnostics gocron.Scheduler
	mode        Mode
	choice      routine.Choice
}

// New builds a robot from cfg. The vision receiver is started unless disabled in cfg.
func New(cfg *config.Config, hw Hardware, clk clock.Clock, logger logging.Logger) (*Robot, error) {
	if hw.Drive == nil {
		return nil, errors.New("robot needs a drive")
	}
	if clk == nil {
		clk = clock.New()
	}
	r := &Robot{
		hw:       hw,
		clk:      clk,
		logger:   logger,
		bearings: vision.NewBearingStore(clk),
	}
	if err := r.apply(cfg); err != nil {
		return nil, multierr.Combine(err, r.Close(context.Background()))
	}
	return r, nil
}

// Bearings is the store vision packets are recorded in.
func (r *Robot) Bearings() *vision.BearingStore {
	return r.bearings
}

// VisionAddr is the address the vision receiver is bound to, or empty when vision is disabled.
func (r *Robot) VisionAddr() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.receiver == nil {
		return ""
	}
	return r.receiver.Addr().String()
}

// apply swaps in cfg. It is only called while disabled.
func (r *Robot) apply(cfg *config.Config) error {
	// a diagnostics job takes r.mu, so the old scheduler is stopped after it is released
	stale, err := r.swapConfig(cfg)
	if stale != nil {
		if err := stale.Shutdown(); err != nil {
			r.logger.Warnw("error stopping diagnostics", "error", err)
		}
	}
	return err
}

func (r *Robot) swapConfig(cfg *config.Config) (gocron.Scheduler, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// subloggers take the level they are created with
	r.logger.SetLevel(cfg.LogLevel)
	assembler, err := cfg.Assembler(r.logger.Sublogger("routine"))
	if err != nil {
		return nil, err
	}
	loop, err := scheduler.NewLoop(r.hw.Drive, cfg.FrequencyHz, r.clk, r.logger.Sublogger("scheduler"))
	if err != nil {
		return nil, err
	}

	if err := r.restartReceiverLocked(cfg); err != nil {
		return nil, err
	}
	stale, err := r.restartDiagnosticsLocked(cfg)
	if err != nil {
		return stale, err
	}
	r.cfg = cfg
	r.assembler = assembler
	r.loop = loop
	return stale, nil
}

func (r *Robot) restartReceiverLocked(cfg *config.Config) error {
	if r.receiver != nil && r.cfg != nil && !cfg.Vision.Disabled && r.cfg.Vision == cfg.Vision {
		return nil
	}
	if r.receiver != nil {
		if err := r.receiver.Close(); err != nil {
			r.logger.Warnw("error closing vision receiver", "error", err)
		}
		r.receiver = nil
	}
	if cfg.Vision.Disabled {
		return nil
	}
	codec, err := vision.CodecByName(cfg.Vision.Codec)
	if err != nil {
		return err
	}
	receiver, err := vision.NewReceiver(cfg.Vision.ListenAddress, codec, r.bearings, r.logger.Sublogger("vision"))
	if err != nil {
		return err
	}
	r.receiver = receiver
	return nil
}

// restartDiagnosticsLocked starts a diagnostics scheduler for cfg and returns the one it
// replaces, which the caller must shut down without holding r.mu.
func (r *Robot) restartDiagnosticsLocked(cfg *config.Config) (gocron.Scheduler, error) {
	stale := r.diagnostics
	r.diagnostics = nil
	if cfg.Diagnostics.Disabled {
		return stale, nil
	}
	s, err := gocron.NewScheduler()
	if err != nil {
		return stale, err
	}
	_, err = s.NewJob(
		gocron.DurationJob(cfg.Diagnostics.Interval()),
		gocron.NewTask(r.logDiagnostics),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return stale, multierr.Combine(err, s.Shutdown())
	}
	s.Start()
	r.diagnostics = s
	return stale, nil
}

// Status is a snapshot of the robot for diagnostics.
type Status struct {
	Mode      string           `json:"mode"`
	Choice    string           `json:"choice,omitempty"`
	Reference string           `json:"reference,omitempty"`
	Loop      scheduler.Status `json:"loop"`
	Vision    vision.Snapshot  `json:"vision"`
	Packets   *vision.Stats    `json:"packets,omitempty"`
}

// Status returns the current status.
func (r *Robot) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	status := Status{
		Mode:   r.mode.String(),
		Loop:   r.loop.Status(),
		Vision: r.bearings.Snapshot(),
	}
	if r.choice.Routine != "" {
		status.Choice = r.choice.Routine
		status.Reference = r.choice.Reference.String()
	}
	if r.receiver != nil {
		stats := r.receiver.Stats()
		status.Packets = &stats
	}
	return status
}

func (r *Robot) logDiagnostics() {
	status := r.Status()
	r.logger.Infow("status",
		"mode", status.Mode,
		"routine", status.Loop.Routine,
		"ticks", status.Loop.Ticks,
		"exhausted", status.Loop.Exhausted,
		"vision_last_id", status.Vision.LastID,
		"vision_last_packet_age", status.Vision.LastPacketAge,
		"bearings", status.Vision.Bearings,
	)
}

func (r *Robot) deps() primitive.Dependencies {
	return primitive.Dependencies{
		Drive:        r.hw.Drive,
		Elevator:     r.hw.Elevator,
		Grabber:      r.hw.Grabber,
		Heading:      r.hw.Heading,
		Distance:     r.hw.Distance,
		Bearings:     r.bearings,
		TicksPerInch: r.cfg.TicksPerInch,
		Clock:        r.clk,
		Logger:       r.logger.Sublogger("primitive"),
	}
}

// AutonomousInit decodes the game message, chooses a routine for the configured starting
// side and starts it. A malformed message selects the fallback routine.
func (r *Robot) AutonomousInit(ctx context.Context, gameMessage string) (routine.Choice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	conf := field.ParseGameMessage(gameMessage)
	seq, choice, err := r.assembler.Assemble(r.cfg.RobotSide, conf, r.deps())
	if err != nil {
		return routine.Choice{}, err
	}
	r.logger.CInfow(ctx, "autonomous begin",
		"game_message", gameMessage,
		"field", conf.String(),
		"robot_side", r.cfg.RobotSide,
		"routine", choice.Routine,
		"reference", choice.Reference,
	)
	if err := r.loop.Start(ctx, choice.Routine, seq); err != nil {
		r.logger.CWarnw(ctx, "error ending previous routine", "error", err)
	}
	r.mode = Autonomous
	r.choice = choice
	return choice, nil
}

// AutonomousPeriodic advances the routine by one tick. Once the routine is exhausted each
// call stops the drive.
func (r *Robot) AutonomousPeriodic(ctx context.Context) error {
	r.mu.Lock()
	loop := r.loop
	r.mu.Unlock()
	return loop.Tick(ctx)
}

// Run calls AutonomousPeriodic at the configured frequency until ctx is done, then abandons
// the routine.
func (r *Robot) Run(ctx context.Context) error {
	r.mu.Lock()
	loop := r.loop
	r.mu.Unlock()
	return loop.Run(ctx)
}

// Disable ends the active routine, stopping every actuator it touched, and stops the drive.
func (r *Robot) Disable(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mode = Disabled
	return r.loop.Abandon(ctx)
}

// Mode returns the current mode.
func (r *Robot) Mode() Mode {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.mode
}

// Reconfigure replaces the configuration. It is refused during autonomous so that a running
// routine is never swapped out from under the match.
func (r *Robot) Reconfigure(ctx context.Context, cfg *config.Config) error {
	if r.Mode() == Autonomous {
		return errors.New("cannot reconfigure during autonomous")
	}
	if err := r.apply(cfg); err != nil {
		return err
	}
	r.logger.CInfow(ctx, "reconfigured", "robot_side", cfg.RobotSide, "frequency_hz", cfg.FrequencyHz)
	return nil
}

// Close disables the robot and stops vision and diagnostics.
func (r *Robot) Close(ctx context.Context) error {
	r.mu.Lock()
	var err error
	r.mode = Disabled
	if r.loop != nil {
		err = r.loop.Abandon(ctx)
	}
	if r.receiver != nil {
		err = multierr.Combine(err, r.receiver.Close())
		r.receiver = nil
	}
	diagnostics := r.diagnostics
	r.diagnostics = nil
	r.mu.Unlock()

	if diagnostics != nil {
		err = multierr.Combine(err, diagnostics.Shutdown())
	}
	return err
}
