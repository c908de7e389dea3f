// Package dhwt implements the domestic-hot-water-tank controller
// (spec.md §4.5): mode resolution shared with heating circuits, the
// charge trip/untrip state machine across electric and water paths,
// anti-legionella, and the actuator policy tables for the feed/recycle
// pumps and isolation valves. Grounded on the teacher's
// internal/controllers/buffercontroller, which runs a comparable
// charge/discharge state machine for a thermal buffer tank, generalized
// here to the spec's priority-arbitrated, dual-path (electric/water)
// charge logic.
package dhwt

import (
	"time"

	"github.com/rwchcd/rwchcd/internal/alarms"
	"github.com/rwchcd/rwchcd/internal/model"
	"github.com/rwchcd/rwchcd/internal/numeric"
	"github.com/rwchcd/rwchcd/internal/pump"
	"github.com/rwchcd/rwchcd/internal/relay"
	"github.com/rwchcd/rwchcd/internal/runtime"
	"github.com/rwchcd/rwchcd/internal/scheduler"
	"github.com/rwchcd/rwchcd/internal/sensors"
	"github.com/rwchcd/rwchcd/internal/valve"
)

// DHWT is one domestic hot-water tank.
type DHWT struct {
	cfg     model.DHWTConfig
	runtime model.DHWTRuntime

	sensorsR  *sensors.Registry
	relays    *relay.Registry
	scheduler *scheduler.Registry
	rt        *runtime.Runtime
	alarmsR   *alarms.Raiser

	feedPump      *pump.Pump
	recyclePump   *pump.Pump
	feedIsolValve *valve.Valve
	dhwIsolValve  *valve.Valve

	legionellaScheduled func(now time.Time) bool
}

func New(cfg model.DHWTConfig, sensorsR *sensors.Registry, relays *relay.Registry, sched *scheduler.Registry, rt *runtime.Runtime, al *alarms.Raiser) *DHWT {
	d := &DHWT{cfg: cfg, sensorsR: sensorsR, relays: relays, scheduler: sched, rt: rt, alarmsR: al}
	d.runtime.RunModeOverride = model.RunAuto
	d.runtime.ChargeYday = -1
	return d
}

func (d *DHWT) Name() string             { return d.cfg.Name }
func (d *DHWT) IsOnline() bool           { return d.runtime.Online }
func (d *DHWT) Priority() model.DHWChargePriority { return d.cfg.ChargePriority }
func (d *DHWT) IsChargingNonElectric() bool {
	return d.runtime.ChargeOn && !d.runtime.ElectricMode
}
func (d *DHWT) HeatRequest() numeric.Temp { return d.runtime.HeatRequest }
func (d *DHWT) Status() model.Status      { return d.runtime.Status }

// AttachActuators wires resolved handles (any may be nil).
func (d *DHWT) AttachActuators(feedPump, recyclePump *pump.Pump, feedIsol, dhwIsol *valve.Valve) {
	d.feedPump, d.recyclePump = feedPump, recyclePump
	d.feedIsolValve, d.dhwIsolValve = feedIsol, dhwIsol
}

func (d *DHWT) Online() model.Status {
	if d.cfg.SensorTop == "" && d.cfg.SensorBottom == "" {
		d.runtime.Status = model.Misconfigured
		return model.Misconfigured
	}
	if d.feedPump != nil && d.cfg.SensorInlet == "" {
		d.runtime.Status = model.Misconfigured
		return model.Misconfigured
	}
	d.runtime.Online = true
	d.runtime.Status = model.OK
	return model.OK
}

func (d *DHWT) Offline() model.Status {
	d.runtime.ChargeOn = false
	d.runtime.ElectricMode = false
	d.runtime.LegionellaOn = false
	d.runtime.ForceOn = false
	if d.cfg.RelaySelfHeater != "" {
		_ = d.relays.StateSet(d.cfg.RelaySelfHeater, false)
	}
	d.runtime.Online = false
	return model.OK
}

func (d *DHWT) SetRunmodeOverride(m model.RunMode) { d.runtime.RunModeOverride = m }
func (d *DHWT) DisableRunmodeOverride()            { d.runtime.RunModeOverride = model.RunAuto }
func (d *DHWT) SetForceChargeOn(v bool)            { d.runtime.ForceOn = v }
func (d *DHWT) SetLegionellaOn(v bool)             { d.runtime.LegionellaOn = v }

// currentTempFor implements spec.md §4.5's rule (preferBottom selects):
// bottom sensor (full-tank) preferred for untrip, top (fires early)
// preferred for trip, falling back to the other when one is absent.
func (d *DHWT) currentTempFor(preferBottom bool, now numeric.TimeTick) (numeric.Temp, model.Status) {
	primary, fallback := d.cfg.SensorTop, d.cfg.SensorBottom
	if preferBottom {
		primary, fallback = d.cfg.SensorBottom, d.cfg.SensorTop
	}
	if primary != "" {
		if t, st := d.sensorsR.Get(primary, now); st == model.OK || model.Recoverable(st) {
			return t, st
		}
	}
	if fallback != "" {
		return d.sensorsR.Get(fallback, now)
	}
	return 0, model.SensorDisconnected
}

// Run executes one tick of the DHWT's control logic against the shared
// pdata record.
func (d *DHWT) Run(now numeric.TimeTick, pdata *model.PlantData) model.Status {
	if !d.runtime.Online {
		return model.Offline
	}

	bottom, stB := d.currentTempFor(true, now)
	top, stT := d.currentTempFor(false, now)
	if stB != model.OK && !model.Recoverable(stB) {
		if stT != model.OK && !model.Recoverable(stT) {
			return d.failsafe(stT)
		}
		bottom = top
	}
	if stT != model.OK && !model.Recoverable(stT) {
		top = bottom
	}
	d.runtime.ActualTemp = bottom
	d.runtime.ActualTempTrip = top

	mode := d.resolveMode()
	d.runtime.RunMode = mode
	target := d.resolveTarget(mode, now)
	d.runtime.TargetTemp = target

	d.runLegionella(now)
	d.runForceOn(mode, now)

	d.runChargeStateMachine(now, pdata)
	d.computeHeatRequest()
	d.applyActuatorPolicy(pdata, now)

	d.runtime.Status = model.OK
	return model.OK
}

func (d *DHWT) resolveMode() model.RunMode {
	sys := d.rt.SystemMode()
	if sys == model.RunOff || sys == model.RunTest {
		return sys
	}
	if d.runtime.RunModeOverride != model.RunAuto {
		return d.runtime.RunModeOverride
	}
	if sched, ok := d.scheduler.GetSchedparams(d.cfg.Name, time.Now()); ok && sched.DHWMode != model.RunAuto {
		return sched.DHWMode
	}
	if global := d.rt.DHWMode(); global != model.RunAuto {
		return global
	}
	return model.RunComfort
}

func (d *DHWT) resolveTarget(mode model.RunMode, now numeric.TimeTick) numeric.Temp {
	var t numeric.Temp
	switch mode {
	case model.RunComfort:
		t = d.cfg.Params.TComfort
	case model.RunEco:
		t = d.cfg.Params.TEco
	case model.RunFrostFree:
		t = d.cfg.Params.TFrostFree
	default:
		t = d.cfg.Params.TEco
	}
	return numeric.Clamp(t, d.cfg.Params.LimitTMin, d.cfg.Params.LimitTMax)
}

func (d *DHWT) runLegionella(now numeric.TimeTick) {
	if !d.cfg.AntiLegionella || d.legionellaScheduled == nil {
		return
	}
	if d.legionellaScheduled(time.Now()) {
		d.runtime.TargetTemp = d.cfg.Params.TLegionella
		d.runtime.ForceOn = true
		d.runtime.LegionellaOn = true
		d.runtime.RecycleOn = d.cfg.LegionellaRecycle
	}
}

// runForceOn latches force_on on COMFORT entry per force_mode (spec.md §4.5).
func (d *DHWT) runForceOn(mode model.RunMode, now numeric.TimeTick) {
	if mode != model.RunComfort || d.cfg.ForceMode == model.ForceNever {
		return
	}
	today := int(numeric.TkToSec(now) / 86400)
	switch d.cfg.ForceMode {
	case model.ForceAlways:
		d.runtime.ForceOn = true
	case model.ForceFirst:
		if d.runtime.ChargeYday != today {
			d.runtime.ForceOn = true
			d.runtime.ChargeYday = today
		}
	}
}

func (d *DHWT) failsafe(st model.Status) model.Status {
	d.runtime.ChargeOn = false
	d.runtime.ElectricMode = false
	d.runtime.HeatRequest = model.NoRequest
	if d.cfg.RelaySelfHeater != "" && d.cfg.ElectricHasThermostat {
		_ = d.relays.StateSet(d.cfg.RelaySelfHeater, true)
	}
	d.runtime.Status = st
	if d.alarmsR != nil {
		d.alarmsR.Raise(st, d.cfg.Name, "no working tank sensor: %s", st)
	}
	return st
}

// computeHeatRequest implements spec.md §4.5's formula:
// heat_request = target + min(target-current, temp_inoffset), clamped to
// limit_wintmax.
func (d *DHWT) computeHeatRequest() {
	if !d.runtime.ChargeOn || d.runtime.ElectricMode {
		d.runtime.HeatRequest = model.NoRequest
		return
	}
	gap := numeric.Sub(d.runtime.TargetTemp, d.runtime.ActualTemp)
	offset := d.cfg.Params.TempInOffset
	if gap < offset {
		offset = gap
	}
	req := numeric.AddDelta(d.runtime.TargetTemp, offset)
	if req > d.cfg.Params.LimitWinTMax {
		req = d.cfg.Params.LimitWinTMax
	}
	d.runtime.HeatRequest = req
}
