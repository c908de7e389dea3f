// Package boiler implements the single-stage boiler heatsource controller
// (spec.md §4.6): antifreeze latch, target selection, idle modes,
// derivative/integral consumer-shift, trip/untrip hysteresis with
// turn-on anticipation, and the hard-overtemp failsafe. Grounded on the
// teacher's internal/controllers/failsafecontroller (hard safety-limit
// latch with a forced-safe actuator state) generalized to the spec's
// continuous hysteresis/anticipation control loop.
package boiler

import (
	"github.com/rwchcd/rwchcd/internal/alarms"
	"github.com/rwchcd/rwchcd/internal/model"
	"github.com/rwchcd/rwchcd/internal/numeric"
	"github.com/rwchcd/rwchcd/internal/pump"
	"github.com/rwchcd/rwchcd/internal/relay"
	"github.com/rwchcd/rwchcd/internal/sensors"
	"github.com/rwchcd/rwchcd/internal/valve"
)

// derivativeWindow is the 120s window spec.md §4.6 updates the body
// derivative over.
const derivativeWindow numeric.TimeTick = 120

// FPScale is the fixed-point scale for the turn-on anticipation math,
// shared with the discrete-derivative primitive it consumes.
const FPScale = numeric.FPScale

// Boiler is the single-stage burner heatsource.
type Boiler struct {
	cfg     model.BoilerConfig
	runtime model.BoilerRuntime

	sensorsR *sensors.Registry
	relays   *relay.Registry
	alarmsR  *alarms.Raiser

	loadPump    *pump.Pump
	returnValve *valve.Valve

	requestValid bool
	request      numeric.Temp
}

func New(cfg model.BoilerConfig, sensorsR *sensors.Registry, relays *relay.Registry, al *alarms.Raiser) *Boiler {
	return &Boiler{cfg: cfg, sensorsR: sensorsR, relays: relays, alarmsR: al}
}

func (b *Boiler) Name() string { return b.cfg.Name }

func (b *Boiler) AttachActuators(loadPump *pump.Pump, returnValve *valve.Valve) {
	b.loadPump, b.returnValve = loadPump, returnValve
}

func (b *Boiler) Online() model.Status {
	if b.cfg.SensorBody == "" || b.cfg.RelayBurner == "" {
		b.runtime.Status = model.Misconfigured
		return model.Misconfigured
	}
	if st := b.relays.Grab(b.cfg.RelayBurner, b.cfg.Name); st != model.OK {
		b.runtime.Status = st
		return st
	}
	b.runtime.Online = true
	b.runtime.Status = model.OK
	return model.OK
}

func (b *Boiler) Offline() model.Status {
	_ = b.relays.StateSet(b.cfg.RelayBurner, false)
	b.relays.Thaw(b.cfg.RelayBurner, b.cfg.Name)
	if b.loadPump != nil {
		b.loadPump.Shutdown(b.runtime.LastSwitch)
	}
	b.runtime.Online = false
	return model.OK
}

func (b *Boiler) LastUpdateTime() numeric.TimeTick { return b.runtime.LastSwitch }
func (b *Boiler) Overtemp() bool                   { return b.runtime.Overtemp }
func (b *Boiler) ConsumerSDelay() numeric.TimeTick { return b.cfg.Params.ConsumerSDelay }
func (b *Boiler) ConsumerShift() (int32, int32) {
	return b.runtime.CShiftCritical, b.runtime.CShiftNonCritical
}

func (b *Boiler) CurrentTemp() (numeric.Temp, model.Status) {
	return b.runtime.ActualTemp, b.runtime.Status
}

func (b *Boiler) Destroy() {}

// Logic implements spec.md §4.6's pre-run logic: antifreeze latch, target
// selection, idle-mode handling, derivative/consumer-shift update, and the
// hard-overtemp safety check.
func (b *Boiler) Logic(now numeric.TimeTick, temperatureRequest numeric.Temp, runMode model.RunMode, couldSleep bool) model.Status {
	if !b.runtime.Online {
		return model.Offline
	}

	body, st := b.sensorsR.Get(b.cfg.SensorBody, now)
	if st != model.OK && !model.Recoverable(st) {
		return b.failsafe(now)
	}
	b.runtime.ActualTemp = body

	if body > b.cfg.Params.LimitTHardMax {
		return b.failsafe(now)
	}
	if b.runtime.Overtemp && body <= numeric.AddDelta(b.cfg.Params.LimitTHardMax, -2*numeric.Delta(numeric.KPrecision)) {
		b.runtime.Overtemp = false
	}

	b.updateAntifreeze(body)

	hasRequest := b.selectTarget(temperatureRequest, runMode, couldSleep)
	if !hasRequest {
		b.runtime.TargetTemp = 0
	}

	b.updateConsumerShift(body, now)

	b.runtime.Status = model.OK
	return model.OK
}

func (b *Boiler) updateAntifreeze(body numeric.Temp) {
	if body <= b.cfg.Params.TFreeze {
		b.runtime.Antifreeze = true
	} else if body > numeric.AddDelta(b.cfg.Params.LimitTMin, b.cfg.Params.Hysteresis/2) {
		b.runtime.Antifreeze = false
	}
}

// selectTarget implements spec.md §4.6's target selection, returning false
// when no heat request is active (caller then applies the idle policy).
func (b *Boiler) selectTarget(request numeric.Temp, runMode model.RunMode, couldSleep bool) bool {
	var target numeric.Temp
	active := true
	switch runMode {
	case model.RunComfort, model.RunEco, model.RunDHWOnly, model.RunFrostFree:
		target = request
	case model.RunTest:
		target = b.cfg.Params.LimitTMax
	case model.RunOff:
		active = false
	default:
		active = false
	}

	if b.runtime.Antifreeze {
		if target < b.cfg.Params.LimitTMin {
			target = b.cfg.Params.LimitTMin
		}
		active = true
	}

	if !active {
		target = b.idleTarget(runMode, couldSleep)
		if target == 0 {
			b.runtime.TargetTemp = 0
			return false
		}
	}

	b.runtime.TargetTemp = numeric.Clamp(target, b.cfg.Params.LimitTMin, b.cfg.Params.LimitTMax)
	return true
}

// idleTarget implements spec.md §4.6's no-request policy.
func (b *Boiler) idleTarget(runMode model.RunMode, couldSleep bool) numeric.Temp {
	switch b.cfg.Params.IdleMode {
	case model.IdleNever:
		return b.cfg.Params.LimitTMin
	case model.IdleFrostOnly:
		if runMode != model.RunFrostFree {
			return b.cfg.Params.LimitTMin
		}
		if !couldSleep {
			return b.cfg.Params.LimitTMin
		}
		return 0
	case model.IdleAlways:
		if !couldSleep {
			return b.cfg.Params.LimitTMin
		}
		return 0
	default:
		return 0
	}
}

func (b *Boiler) failsafe(now numeric.TimeTick) model.Status {
	_ = b.relays.StateSet(b.cfg.RelayBurner, false)
	if b.loadPump != nil {
		b.loadPump.SetState(true, true, now)
	}
	b.runtime.Overtemp = true
	b.runtime.CShiftCritical = model.CShiftMax
	b.runtime.Status = model.Safety
	if b.alarmsR != nil {
		b.alarmsR.Raise(model.Safety, b.cfg.Name, "boiler body overtemp or sensor failure")
	}
	return model.Safety
}
