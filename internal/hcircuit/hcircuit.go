// Package hcircuit implements the heating-circuit controller (spec.md
// §4.4): run-mode resolution, the two off predicates, the ambient model,
// the bilinear water-temperature law, the rate-of-rise limiter and the
// interference overlay chain. Grounded on the teacher's
// internal/controllers/zonecontroller, which resolves a comparable
// override/schedule/global chain and tracks boost/cooldown transitions,
// generalized here from a fixed thermostat zone to the spec's ambient
// model + templaw pipeline.
package hcircuit

import (
	"github.com/rwchcd/rwchcd/internal/alarms"
	"github.com/rwchcd/rwchcd/internal/bmodel"
	"github.com/rwchcd/rwchcd/internal/model"
	"github.com/rwchcd/rwchcd/internal/numeric"
	"github.com/rwchcd/rwchcd/internal/pump"
	"github.com/rwchcd/rwchcd/internal/runtime"
	"github.com/rwchcd/rwchcd/internal/scheduler"
	"github.com/rwchcd/rwchcd/internal/sensors"
	"github.com/rwchcd/rwchcd/internal/valve"
)

// HCircuit is one heating circuit: a building zone served by a water loop,
// an optional mixing valve and an optional feed pump.
type HCircuit struct {
	cfg     model.HCircuitConfig
	runtime model.HCircuitRuntime

	bm        *bmodel.Model
	sensorsR  *sensors.Registry
	scheduler *scheduler.Registry
	rt        *runtime.Runtime
	alarmsR   *alarms.Raiser

	valve *valve.Valve // nil if unconfigured
	pump  *pump.Pump   // nil if unconfigured

	lastPdataSDelay numeric.TimeTick
}

// New constructs a circuit; resolved valve/pump references are injected
// through AttachActuators by the caller (cmd/rwchcd's wiring) after the
// actuators are created (resolved once, not re-looked-up every tick).
func New(cfg model.HCircuitConfig, bm *bmodel.Model, sensorsR *sensors.Registry, sched *scheduler.Registry, rt *runtime.Runtime, al *alarms.Raiser) *HCircuit {
	c := &HCircuit{cfg: cfg, bm: bm, sensorsR: sensorsR, scheduler: sched, rt: rt, alarmsR: al}
	c.runtime.RunModeOverride = model.RunAuto
	c.runtime.FloorWtemp = model.NoRequest
	return c
}

func (c *HCircuit) Name() string         { return c.cfg.Name }
func (c *HCircuit) IsOnline() bool       { return c.runtime.Online }
func (c *HCircuit) HeatRequest() numeric.Temp { return c.runtime.HeatRequest }
func (c *HCircuit) Status() model.Status { return c.runtime.Status }

// AttachActuators wires the resolved valve/pump references (may be nil).
func (c *HCircuit) AttachActuators(v *valve.Valve, p *pump.Pump) {
	c.valve, c.pump = v, p
}

// Online validates configuration and brings the circuit up.
func (c *HCircuit) Online() model.Status {
	if c.cfg.SensorOut == "" {
		c.runtime.Status = model.Misconfigured
		return model.Misconfigured
	}
	if c.bm == nil || !c.bm.Online() {
		c.runtime.Status = model.Misconfigured
		return model.Misconfigured
	}
	c.runtime.Online = true
	c.runtime.Status = model.OK
	return model.OK
}

func (c *HCircuit) Offline() model.Status {
	c.runtime.Online = false
	return model.OK
}

// SetRunmodeOverride implements the remote-control bus's per-circuit
// SetRunmodeOverride/DisableRunmodeOverride methods (spec.md §6).
func (c *HCircuit) SetRunmodeOverride(m model.RunMode) { c.runtime.RunModeOverride = m }
func (c *HCircuit) DisableRunmodeOverride()            { c.runtime.RunModeOverride = model.RunAuto }
func (c *HCircuit) SetTempOffsetOverride(d numeric.Delta) {
	c.cfg.Params.TOffset = d
}

// Run executes one tick of the circuit's control logic against the shared
// pdata record, in the order specified by spec.md §4.4.
func (c *HCircuit) Run(now numeric.TimeTick, pdata *model.PlantData) model.Status {
	if !c.runtime.Online {
		return model.Offline
	}
	c.lastPdataSDelay = pdata.ConsumerSDelay

	outTemp, st := c.sensorsR.Get(c.cfg.SensorOut, now)
	if st != model.OK && !model.Recoverable(st) {
		return c.failsafe(st)
	}
	c.runtime.ActualWtemp = outTemp

	effMode := c.resolveEffectiveMode(pdata)
	c.handleTransition(effMode, now)
	c.runtime.RunMode = effMode

	if effMode == model.RunSummaint {
		return c.runSummerMaintenance(now)
	}
	if effMode == model.RunOff {
		c.runtime.HeatRequest = model.NoRequest
		c.applyFloorToValve(now)
		return model.OK
	}

	features := c.bm.Features()
	c.applyOffPredicates(&effMode, features, now)
	if effMode == model.RunOff {
		c.runtime.RunMode = model.RunOff
		c.runtime.HeatRequest = model.NoRequest
		c.applyFloorToValve(now)
		return model.OK
	}

	modeTemp := c.modeTemperature(effMode)
	c.computeTargetAmbient(modeTemp)
	c.updateAmbientModel(features, now)

	targetWater := EvaluateTempLaw(c.cfg.TempLaw, features.TOutMix, c.runtime.TargetAmbient)
	c.runtime.HeatRequest = numeric.AddDelta(targetWater, c.cfg.Params.TempInOffset)

	finalWater := c.applyRorh(targetWater, now, pdata)
	finalWater = c.applyInterferenceOverlays(finalWater, pdata)
	c.runtime.TargetWtemp = finalWater

	if c.valve != nil {
		_ = c.valve.MixTcontrol(finalWater, c.runtime.ActualWtemp, c.hotSensorReading(now), model.NoThreshold, now)
	}
	if c.pump != nil {
		c.pump.SetState(true, false, now)
	}

	c.runtime.Status = model.OK
	return model.OK
}

func (c *HCircuit) modeTemperature(mode model.RunMode) numeric.Temp {
	switch mode {
	case model.RunComfort:
		return c.cfg.Params.TComfort
	case model.RunEco:
		return c.cfg.Params.TEco
	case model.RunFrostFree:
		return c.cfg.Params.TFrostFree
	default:
		return c.cfg.Params.TEco
	}
}

// failsafe implements spec.md §4.4's failure semantics: NOREQUEST, mixing
// valve full-closed, feed pump forced on for frost mitigation.
func (c *HCircuit) failsafe(st model.Status) model.Status {
	c.runtime.HeatRequest = model.NoRequest
	if c.valve != nil {
		c.valve.RequestClose()
	}
	if c.pump != nil {
		c.pump.SetState(true, true, 0)
	}
	c.runtime.Status = st
	if c.alarmsR != nil {
		c.alarmsR.Raise(st, c.cfg.Name, "outgoing sensor failure: %s", st)
	}
	return st
}

func (c *HCircuit) runSummerMaintenance(now numeric.TimeTick) model.Status {
	c.runtime.HeatRequest = model.NoRequest
	if c.valve != nil {
		c.valve.RequestOpen()
	}
	if c.pump != nil {
		c.pump.SetState(true, true, now)
	}
	c.runtime.Status = model.OK
	return model.OK
}

func (c *HCircuit) applyFloorToValve(now numeric.TimeTick) {
	if c.valve == nil || !c.runtime.FloorOutput {
		return
	}
	_ = c.valve.MixTcontrol(c.runtime.FloorWtemp, c.runtime.ActualWtemp, c.hotSensorReading(now), model.NoThreshold, now)
}

// hotSensorReading returns the circuit's dedicated primary-loop feed
// reading (tid_hot) for the mixing valve's PI controller, or
// model.NoThreshold when no such sensor is configured, in which case the
// valve falls back to treating the measured output as hot (spec.md §4.3).
func (c *HCircuit) hotSensorReading(now numeric.TimeTick) numeric.Temp {
	if c.cfg.SensorHot == "" {
		return model.NoThreshold
	}
	hot, st := c.sensorsR.Get(c.cfg.SensorHot, now)
	if st != model.OK && !model.Recoverable(st) {
		return model.NoThreshold
	}
	return hot
}
