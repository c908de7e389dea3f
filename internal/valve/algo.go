package valve

import (
	"github.com/rwchcd/rwchcd/internal/model"
	"github.com/rwchcd/rwchcd/internal/numeric"
)

// VPIFP is the fixed-point scale for the PI velocity-form controller,
// 2^21, per spec.md §4.3.
const VPIFP int64 = 1 << 21

// piState carries the PI velocity-form controller's persistent state
// across ticks, separate from model.ValveRuntime's plain fields since the
// widening/jacketing logic needs int64 headroom.
type piState struct {
	sampleDue numeric.TimeTick
}

// MixTcontrol dispatches to the valve's configured algorithm. measured is
// the controlled output reading (e.g. the circuit's outgoing water temp).
// hot and cold are the PI algorithm's tid_hot/tid_cold readings: hot may
// be numeric.Temp(-1) (model.NoThreshold) if no dedicated hot-side sensor
// is configured, in which case hot falls back to measured; cold may
// likewise be unset, in which case the PI algorithm derives it from
// hot - Ksmax. bang-bang and sapprox ignore hot/cold.
func (v *Valve) MixTcontrol(target, measured, hot, cold numeric.Temp, now numeric.TimeTick) model.Status {
	if v.cfg.Kind != model.ValveMix {
		return model.Invalid
	}

	diff := numeric.Sub(target, measured)
	absDiff := diff
	if absDiff < 0 {
		absDiff = -absDiff
	}
	if numeric.Delta(absDiff) < v.cfg.Deadzone/2 {
		v.runtime.TargetCourse = 0
		return model.Deadzone
	}

	switch v.cfg.Algo {
	case model.AlgoBangBang:
		return v.bangBang(target, measured)
	case model.AlgoSApprox:
		return v.sapprox(target, measured, now)
	case model.AlgoPI:
		return v.piVelocity(target, measured, hot, cold, now)
	default:
		return model.NotImplemented
	}
}

func (v *Valve) bangBang(target, measured numeric.Temp) model.Status {
	if target > measured {
		v.RequestOpen()
	} else {
		v.RequestClose()
	}
	return model.OK
}

func (v *Valve) sapprox(target, measured numeric.Temp, now numeric.TimeTick) model.Status {
	if v.pi.sampleDue != 0 && now < v.pi.sampleDue {
		return model.OK
	}
	v.pi.sampleDue = now + v.cfg.SampleInterval

	step := v.cfg.SApproxStep
	if step <= 0 {
		step = 10
	}
	if target > measured {
		return v.RequestPth(step)
	}
	return v.RequestPth(-step)
}

// piVelocity implements the velocity-form PI controller of spec.md §4.3.
func (v *Valve) piVelocity(target, measured, hot, cold numeric.Temp, now numeric.TimeTick) model.Status {
	if hot == model.NoThreshold {
		hot = measured
	}
	if cold == model.NoThreshold {
		cold = numeric.AddDelta(hot, -numeric.KsMax)
	}

	// dynamic saturation jacketing: widen bounds if measured already
	// exceeds them, to avoid oscillation at the limits.
	lowBound, highBound := cold, hot
	if hot < measured {
		highBound = measured
	}
	if cold > measured {
		lowBound = measured
	}
	if target <= lowBound {
		v.runtime.ReqAction = model.ActionClose
		v.RequestClose()
		v.resetPI()
		return model.OK
	}
	if target >= highBound {
		v.RequestOpen()
		v.resetPI()
		return model.OK
	}

	span := numeric.Sub(hot, cold)
	if span <= numeric.Delta(numeric.KPrecision) {
		return model.Deadzone
	}

	if v.pi.sampleDue != 0 && now < v.pi.sampleDue {
		return model.OK
	}
	dt := v.cfg.SampleInterval
	if v.pi.sampleDue != 0 {
		dt = now - (v.pi.sampleDue - v.cfg.SampleInterval)
	}
	v.pi.sampleDue = now + v.cfg.SampleInterval

	// Process gain K = span/1000; Kp = (1/K)*(Tu/(Td+Tc)).
	tc := v.cfg.Tu
	if tc8 := 8 * v.cfg.Td; tc8 > tc {
		tc = tc8
	}
	tuneFactor := v.cfg.TuneFactor
	if tuneFactor <= 0 {
		tuneFactor = 10
	}
	tc = numeric.TimeTick(int64(tc) * int64(tuneFactor) / 10)

	denom := int64(v.cfg.Td) + int64(tc)
	if denom <= 0 {
		denom = 1
	}
	// Kp scaled by VPIFP/span to keep fixed-point precision.
	kpNum := VPIFP * 1000 * int64(v.cfg.Tu)
	kp := kpNum / (int64(span) * denom)
	ti := int64(v.cfg.Tu)
	if ti <= 0 {
		ti = 1
	}
	ki := kp / ti

	errv := int64(numeric.Sub(target, measured))
	integral := ki * errv * int64(dt)
	prop := kp * int64(v.runtime.PrevOut-measuredToMille(measured)) / VPIFP

	output := (integral / VPIFP) + prop + int64(v.runtime.DBAcc)
	cmd := int32(output)

	absCmd := cmd
	if absCmd < 0 {
		absCmd = -absCmd
	}
	if absCmd <= v.cfg.Deadband {
		v.runtime.DBAcc += int32(integral / VPIFP)
		return model.Deadband
	}
	v.runtime.DBAcc = 0
	v.runtime.PrevOut = int32(measured)
	return v.RequestPth(cmd)
}

func (v *Valve) resetPI() {
	v.pi.sampleDue = 0
	v.runtime.DBAcc = 0
	v.runtime.PrevOut = 0
	v.runtime.CtrlReady = false
}

// measuredToMille is a placeholder unit bridge: the velocity-form P term
// compares the controller's own previous ‰ output against the measured
// temperature's fixed-point value, matching spec.md §4.3's "applied to
// output, not to setpoint".
func measuredToMille(measured numeric.Temp) int32 {
	return int32(measured)
}
