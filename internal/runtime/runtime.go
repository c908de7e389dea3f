// Package runtime holds the single process-wide runtime record: system
// mode, global run mode, dhw mode, kill switch and current tick. Per
// spec.md §9 it is an explicit long-lived handle passed to the plant, never
// ambient/global state, generalized from the teacher's package-level
// internal/env.Cfg/SystemState globals.
package runtime

import (
	"github.com/rwchcd/rwchcd/internal/model"
	"github.com/rwchcd/rwchcd/internal/numeric"
)

// Runtime is safe for concurrent read (remote-control thread) and write
// (control thread) via the atomic cells in internal/model; the core never
// takes a lock on it (spec.md §5).
type Runtime struct {
	systemMode model.AtomicRunMode // reuses RunMode string storage for SystemMode width
	runMode    model.AtomicRunMode
	dhwMode    model.AtomicRunMode
	stopDHW    model.AtomicBool
	tick       model.AtomicInt
}

func New() *Runtime {
	r := &Runtime{}
	r.systemMode.Store(model.RunAuto)
	r.runMode.Store(model.RunAuto)
	r.dhwMode.Store(model.RunAuto)
	return r
}

func (r *Runtime) SystemMode() model.RunMode { return r.systemMode.Load() }
func (r *Runtime) SetSystemMode(m model.RunMode) { r.systemMode.Store(m) }

func (r *Runtime) RunMode() model.RunMode     { return r.runMode.Load() }
func (r *Runtime) SetRunMode(m model.RunMode) { r.runMode.Store(m) }

func (r *Runtime) DHWMode() model.RunMode     { return r.dhwMode.Load() }
func (r *Runtime) SetDHWMode(m model.RunMode) { r.dhwMode.Store(m) }

// StopDHW is the remote killswitch: when set, no DHWT may charge.
func (r *Runtime) StopDHW() bool      { return r.stopDHW.Load() }
func (r *Runtime) SetStopDHW(v bool)  { r.stopDHW.Store(v) }

// Tick returns the timekeep tick stamped by the most recent Advance call.
func (r *Runtime) Tick() numeric.TimeTick { return numeric.TimeTick(r.tick.Load()) }

// Advance stamps the runtime with the current tick. cmd/rwchcd's control
// loop does not call it, and the core does not read Tick.
func (r *Runtime) Advance(now numeric.TimeTick) { r.tick.Store(int(now)) }
