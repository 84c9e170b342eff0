// Package fake implements recording actuators for tests and simulation.
package fake

import (
	"context"
	"sync"

	"go.uber.org/atomic"

	"github.com/frcrobotics/autonomy/subsystem"
)

// Motor records the last power it was given.
type Motor struct {
	mu        sync.Mutex
	power     float64
	stopCount int
	err       error
}

var _ subsystem.Motor = (*Motor)(nil)

// SetPower records power, or fails with the injected error.
func (m *Motor) SetPower(ctx context.Context, power float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.power = power
	return nil
}

// Stop sets the power to zero. It succeeds even when an error is injected.
func (m *Motor) Stop(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.power = 0
	m.stopCount++
	return nil
}

// Power returns the last power set.
func (m *Motor) Power() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.power
}

// StopCount returns the number of Stop calls.
func (m *Motor) StopCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stopCount
}

// SetError makes SetPower fail with err until it is cleared with nil.
func (m *Motor) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Command is one drive command. Stop commands are recorded with Stop set and zero inputs.
type Command struct {
	Forward float64
	Rotate  float64
	Stop    bool
}

// Drive records every arcade and stop command.
type Drive struct {
	mu       sync.Mutex
	commands []Command
	err      error
}

var _ subsystem.Drive = (*Drive)(nil)

// ArcadeDrive records the command, or fails with the injected error.
func (d *Drive) ArcadeDrive(ctx context.Context, forward, rotate float64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.commands = append(d.commands, Command{Forward: forward, Rotate: rotate})
	return nil
}

// Stop records a stop command.
func (d *Drive) Stop(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.commands = append(d.commands, Command{Stop: true})
	return nil
}

// Commands returns a copy of every command so far.
func (d *Drive) Commands() []Command {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Command(nil), d.commands...)
}

// Last returns the most recent command. ok is false if nothing was commanded.
func (d *Drive) Last() (cmd Command, ok bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.commands) == 0 {
		return Command{}, false
	}
	return d.commands[len(d.commands)-1], true
}

// Reset forgets every recorded command.
func (d *Drive) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.commands = nil
}

// SetError makes ArcadeDrive fail with err until it is cleared with nil.
func (d *Drive) SetError(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.err = err
}

// Actuator records the last speed it was set to.
type Actuator struct {
	mu     sync.Mutex
	speeds []float64
	err    error
}

var _ subsystem.Actuator = (*Actuator)(nil)

// Set records speed, or fails with the injected error.
func (a *Actuator) Set(ctx context.Context, speed float64) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return a.err
	}
	a.speeds = append(a.speeds, speed)
	return nil
}

// Speeds returns a copy of every speed set so far.
func (a *Actuator) Speeds() []float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]float64(nil), a.speeds...)
}

// Speed returns the last speed set, or zero.
func (a *Actuator) Speed() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.speeds) == 0 {
		return 0
	}
	return a.speeds[len(a.speeds)-1]
}

// SetError makes Set fail with err until it is cleared with nil.
func (a *Actuator) SetError(err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.err = err
}

// LimitSwitch is a switch pressed by the caller.
type LimitSwitch struct {
	pressed atomic.Bool
	err     atomic.Error
}

var _ subsystem.LimitSwitch = (*LimitSwitch)(nil)

// Pressed returns the switch state or the injected error.
func (ls *LimitSwitch) Pressed(ctx context.Context) (bool, error) {
	if err := ls.err.Load(); err != nil {
		return false, err
	}
	return ls.pressed.Load(), nil
}

// Press sets the switch state.
func (ls *LimitSwitch) Press(pressed bool) {
	ls.pressed.Store(pressed)
}

// SetError makes Pressed fail with err until it is cleared with nil.
func (ls *LimitSwitch) SetError(err error) {
	ls.err.Store(err)
}
