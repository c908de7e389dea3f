// Package valve implements the mixing/isolation valve actuator (spec.md
// §4.3): position tracking against a measured end-to-end travel time, a
// request API with deadband signaling, and three temperature-tracking
// algorithms (bang-bang, successive approximation, PI velocity form).
// Grounded on the teacher's relay break-before-make sequencing pattern in
// internal/controllers/zonecontroller (reversing valve motor relays) and
// generalized to the spec's 3-way/2-way, mix/isol axes.
package valve

import (
	"fmt"

	"github.com/rwchcd/rwchcd/internal/model"
	"github.com/rwchcd/rwchcd/internal/numeric"
	"github.com/rwchcd/rwchcd/internal/relay"
)

// FullRange is the reserved over-range course value meaning "drive until
// the physical limit", per spec.md §4.3.
const FullRange int32 = 2000

// Valve actuates a motorised mixing or isolation valve.
type Valve struct {
	cfg     model.ValveConfig
	runtime model.ValveRuntime
	relays  *relay.Registry

	pi piState
}

func New(cfg model.ValveConfig, relays *relay.Registry) *Valve {
	return &Valve{cfg: cfg, relays: relays}
}

func (v *Valve) Name() string          { return v.cfg.Name }
func (v *Valve) IsOnline() bool        { return v.runtime.Online }
func (v *Valve) Status() model.Status  { return v.runtime.Status }
func (v *Valve) ActualPosition() int32 { return v.runtime.ActualPosition }
func (v *Valve) TruePos() bool         { return v.runtime.TruePos }

// Online grabs the configured motor relay(s) and resets control state.
func (v *Valve) Online() model.Status {
	ids := v.relayIDs()
	for _, id := range ids {
		if st := v.relays.Grab(id, v.cfg.Name); st != model.OK {
			v.runtime.Status = st
			return st
		}
	}
	v.runtime.Online = true
	v.runtime.CtrlReady = false
	v.runtime.Status = model.OK
	return model.OK
}

func (v *Valve) Offline() model.Status {
	v.stopMotor()
	for _, id := range v.relayIDs() {
		v.relays.Thaw(id, v.cfg.Name)
	}
	v.runtime.Online = false
	return model.OK
}

func (v *Valve) relayIDs() []string {
	if v.cfg.Motor == model.Motor3Way {
		return []string{v.cfg.RidOpen, v.cfg.RidClose}
	}
	return []string{v.cfg.RidTrigger}
}

// RequestPth implements request_pth(±x): |x| in (deadband,1000]‰, negative
// closes, positive opens. A request under deadband is a pure DEADBAND
// no-op: target_course is left unchanged.
func (v *Valve) RequestPth(x int32) model.Status {
	abs := x
	if abs < 0 {
		abs = -abs
	}
	if abs != FullRange && abs <= v.cfg.Deadband {
		return model.Deadband
	}
	if abs > FullRange {
		return model.Invalid
	}
	v.runtime.TargetCourse = x
	return model.OK
}

// RequestOpen and RequestClose drive until the physical limit.
func (v *Valve) RequestOpen()  { v.runtime.TargetCourse = FullRange }
func (v *Valve) RequestClose() { v.runtime.TargetCourse = -FullRange }

// IsolTrigger maps a full isolate/de-isolate request to open/close,
// honouring the reverse flag (spec.md §4.3).
func (v *Valve) IsolTrigger(isolate bool) model.Status {
	if v.cfg.Kind != model.ValveIsol {
		return model.Invalid
	}
	closeIt := isolate
	if v.cfg.Reverse {
		closeIt = !closeIt
	}
	if closeIt {
		v.RequestClose()
	} else {
		v.RequestOpen()
	}
	return model.OK
}

// Run advances position tracking by one tick: integrates actual_position
// from the current motor action, updates per-direction run-time counters,
// latches true_pos on full calibration, and applies break-before-make
// motor output changes (spec.md §4.3).
func (v *Valve) Run(now numeric.TimeTick) model.Status {
	if !v.runtime.Online {
		return model.Offline
	}
	if v.cfg.EteTime <= 0 {
		return model.Misconfigured
	}

	if v.runtime.LastTick != 0 {
		dt := now - v.runtime.LastTick
		v.integratePosition(dt)
	}
	v.runtime.LastTick = now

	v.resolveAction()
	if v.runtime.ReqAction != v.runtime.ActAction {
		if err := v.applyAction(v.runtime.ReqAction); err != nil {
			v.runtime.Status = model.Safety
			return model.Safety
		}
		v.runtime.ActAction = v.runtime.ReqAction
	}
	v.runtime.Status = model.OK
	return model.OK
}

// resolveAction picks ReqAction from TargetCourse, applying the stop
// policy: if |target| < course/2 the valve stops (controlled overshoot).
func (v *Valve) resolveAction() {
	perTick := v.coursePerTick()
	half := perTick / 2
	if half < 1 {
		half = 1
	}
	tc := v.runtime.TargetCourse
	abs := tc
	if abs < 0 {
		abs = -abs
	}
	switch {
	case abs < half:
		v.runtime.ReqAction = model.ActionStop
	case tc > 0:
		v.runtime.ReqAction = model.ActionOpen
	default:
		v.runtime.ReqAction = model.ActionClose
	}
}

// coursePerTick returns ‰/tick = 1000*FP/ete_time, scaled back to plain
// ‰ units (we keep a single tick's worth of travel in integer ‰).
func (v *Valve) coursePerTick() int32 {
	if v.cfg.EteTime <= 0 {
		return 0
	}
	return int32(1000 / int64(v.cfg.EteTime))
}

func (v *Valve) integratePosition(dt numeric.TimeTick) {
	if dt <= 0 || v.cfg.EteTime <= 0 {
		return
	}
	delta := int32((1000 * int64(dt)) / int64(v.cfg.EteTime))
	switch v.runtime.ActAction {
	case model.ActionOpen:
		v.runtime.ActualPosition += delta
		v.runtime.RunTimeOpen += dt
		v.runtime.RunTimeClose = 0
		v.checkCalibration(model.ActionOpen)
	case model.ActionClose:
		v.runtime.ActualPosition -= delta
		v.runtime.RunTimeClose += dt
		v.runtime.RunTimeOpen = 0
		v.checkCalibration(model.ActionClose)
	}
	if v.runtime.ActualPosition < 0 {
		v.runtime.ActualPosition = 0
	}
	if v.runtime.ActualPosition > 1000 {
		v.runtime.ActualPosition = 1000
	}
}

// checkCalibration latches true_pos once 3*ete_time of continuous
// one-direction run-time has accumulated, and auto-stops a 3-way motor
// (a 2-way motor must stay energised to hold open).
func (v *Valve) checkCalibration(dir model.ValveAction) {
	var rt numeric.TimeTick
	if dir == model.ActionOpen {
		rt = v.runtime.RunTimeOpen
	} else {
		rt = v.runtime.RunTimeClose
	}
	if rt >= 3*v.cfg.EteTime {
		v.runtime.TruePos = true
		if v.cfg.Motor == model.Motor3Way {
			v.runtime.TargetCourse = 0
			v.runtime.ReqAction = model.ActionStop
		}
		if dir == model.ActionOpen {
			v.runtime.ActualPosition = 1000
		} else {
			v.runtime.ActualPosition = 0
		}
	}
}

func (v *Valve) stopMotor() {
	_ = v.applyAction(model.ActionStop)
	v.runtime.ActAction = model.ActionStop
	v.runtime.ReqAction = model.ActionStop
}

// applyAction writes the motor relay(s), break-before-make on 3-way: the
// opposite relay is always de-energised before the intended one energises.
func (v *Valve) applyAction(action model.ValveAction) error {
	if v.cfg.Motor == model.Motor2Way {
		want := action == model.ActionOpen
		if v.cfg.TriggerOpens {
			if st := v.relays.StateSet(v.cfg.RidTrigger, want); st != model.OK {
				return fmt.Errorf("valve %s: trigger relay write failed: %v", v.cfg.Name, st)
			}
			return nil
		}
		if st := v.relays.StateSet(v.cfg.RidTrigger, !want); st != model.OK {
			return fmt.Errorf("valve %s: trigger relay write failed: %v", v.cfg.Name, st)
		}
		return nil
	}

	// 3-way: de-energise both, then energise the one requested.
	if st := v.relays.StateSet(v.cfg.RidOpen, false); st != model.OK {
		return fmt.Errorf("valve %s: open relay write failed: %v", v.cfg.Name, st)
	}
	if st := v.relays.StateSet(v.cfg.RidClose, false); st != model.OK {
		return fmt.Errorf("valve %s: close relay write failed: %v", v.cfg.Name, st)
	}
	switch action {
	case model.ActionOpen:
		if st := v.relays.StateSet(v.cfg.RidOpen, true); st != model.OK {
			return fmt.Errorf("valve %s: open relay write failed: %v", v.cfg.Name, st)
		}
	case model.ActionClose:
		if st := v.relays.StateSet(v.cfg.RidClose, true); st != model.OK {
			return fmt.Errorf("valve %s: close relay write failed: %v", v.cfg.Name, st)
		}
	}
	return nil
}
