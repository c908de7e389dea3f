package hcircuit

import (
	"github.com/rwchcd/rwchcd/internal/model"
	"github.com/rwchcd/rwchcd/internal/numeric"
)

// computeTargetAmbient implements spec.md §4.4's target-ambient formula:
// request_ambient = mode_temp + t_offset; target_ambient = request_ambient +
// ambient_factor*(request-measured)/100 when an ambient sensor is
// available. There is no separate override offset term:
// SetTempOffsetOverride replaces the configured t_offset itself.
func (c *HCircuit) computeTargetAmbient(modeTemp numeric.Temp) {
	request := numeric.AddDelta(modeTemp, c.cfg.Params.TOffset)
	c.runtime.TargetAmbient = request // feedback applied below if sensored

	if c.cfg.SensorAmb == "" {
		return
	}
	measured, st := c.sensorsR.Get(c.cfg.SensorAmb, 0)
	if st != model.OK && !model.Recoverable(st) {
		return
	}
	c.runtime.ActualAmbient = measured
	feedback := numeric.Sub(request, measured) * numeric.Delta(c.cfg.Params.AmbientFactor) / 100
	c.runtime.TargetAmbient = numeric.AddDelta(request, feedback)
}

// applyOffPredicates implements the two independent off predicates of
// spec.md §4.4, each with its own hysteresis; effMode is downgraded to OFF
// in place if either predicate holds and no frost is asserted.
func (c *HCircuit) applyOffPredicates(effMode *model.RunMode, features model.AmbientFeatures, now numeric.TimeTick) {
	outhoff := c.outhoff(*effMode, features)
	inoff := c.inoff()
	c.runtime.OutOffActive = outhoff
	c.runtime.InOffActive = inoff

	if (outhoff || inoff) && !features.Frost {
		*effMode = model.RunOff
	}
}

func (c *HCircuit) outhoff(mode model.RunMode, features model.AmbientFeatures) bool {
	if features.Summer {
		return true
	}
	threshold := c.outoffThreshold(mode)
	if threshold == model.NoThreshold {
		return false
	}
	if c.runtime.TargetAmbient < threshold {
		threshold = c.runtime.TargetAmbient
	}
	hyst := c.cfg.Params.OutOffHysteresis
	if c.runtime.OutOffActive {
		return features.TOut >= numeric.AddDelta(threshold, -hyst) || features.TOutMix >= numeric.AddDelta(threshold, -hyst)
	}
	return features.TOut > threshold || features.TOutMix > threshold
}

func (c *HCircuit) outoffThreshold(mode model.RunMode) numeric.Temp {
	switch mode {
	case model.RunComfort:
		return c.cfg.Params.OutOffComfort
	case model.RunEco:
		return c.cfg.Params.OutOffEco
	case model.RunFrostFree:
		return c.cfg.Params.OutOffFrostFree
	default:
		return model.NoThreshold
	}
}

func (c *HCircuit) inoff() bool {
	if c.cfg.Params.InOffTemp == model.NoThreshold || c.cfg.SensorAmb == "" {
		return false
	}
	measured, st := c.sensorsR.Get(c.cfg.SensorAmb, 0)
	if st != model.OK && !model.Recoverable(st) {
		return false
	}
	if c.runtime.InOffActive {
		return measured > numeric.AddDelta(c.cfg.Params.InOffTemp, -numeric.Delta(numeric.KPrecision))
	}
	return measured > c.cfg.Params.InOffTemp
}

// updateAmbientModel implements spec.md §4.4's ambient model: converges
// toward outdoor-mix when OFF, toward target ambient otherwise, gated by
// mavg_min_dt and suppressed during the early part of TRANS_UP.
func (c *HCircuit) updateAmbientModel(features model.AmbientFeatures, now numeric.TimeTick) {
	if c.cfg.SensorAmb != "" {
		return // real sensor available: no modelling needed
	}
	if c.runtime.AmbientModelTime == 0 {
		c.runtime.ActualAmbient = c.runtime.TargetAmbient
		c.runtime.AmbientModelTime = now
		return
	}
	dt := now - c.runtime.AmbientModelTime

	if c.runtime.RunMode == model.RunOff {
		tau3 := 3 * features.Tau
		if dt <= numeric.MavgMinDt(tau3) {
			return
		}
		c.runtime.ActualAmbient = numeric.EWMA(c.runtime.ActualAmbient, features.TOutMix, tau3, dt)
		c.runtime.AmbientModelTime = now
		return
	}

	if c.runtime.Transition == model.TransUp {
		waterGap := numeric.Sub(c.runtime.TargetWtemp, c.runtime.ActualWtemp)
		if waterGap > 5*numeric.Delta(numeric.KPrecision) {
			return // model assumes no heat has reached the room yet
		}
	}
	if dt <= numeric.MavgMinDt(features.Tau) {
		return
	}
	c.runtime.ActualAmbient = numeric.EWMA(c.runtime.ActualAmbient, c.runtime.TargetAmbient, features.Tau, dt)
	c.runtime.AmbientModelTime = now
}

// handleTransition implements spec.md §4.4's transition state machine: on
// every detected runmode change, start a new UP/DOWN transition; apply the
// boost delta and fast-cooldown policy; clear on convergence.
func (c *HCircuit) handleTransition(newMode model.RunMode, now numeric.TimeTick) {
	if newMode != c.runtime.RunMode {
		if c.runtime.ActualAmbient < c.runtime.TargetAmbient {
			c.runtime.Transition = model.TransUp
		} else if c.runtime.ActualAmbient > c.runtime.TargetAmbient {
			c.runtime.Transition = model.TransDown
		} else {
			c.runtime.Transition = model.TransNone
		}
		c.runtime.TransStartTime = now

		if model.IsRunmodeDownshift(c.runtime.RunMode, newMode) {
			isAbsoluteDHW := false
			c.runtime.FloorOutput = !isAbsoluteDHW
			c.runtime.FloorWtemp = c.runtime.TargetWtemp
		}
	}

	switch c.runtime.Transition {
	case model.TransUp:
		waterGap := numeric.Sub(c.runtime.TargetWtemp, c.runtime.ActualWtemp)
		if waterGap <= 5*numeric.Delta(numeric.KPrecision) {
			if now-c.runtime.TransStartTime < c.cfg.Params.BoostMaxTime {
				c.runtime.TargetAmbient = numeric.AddDelta(c.runtime.TargetAmbient, c.cfg.Params.AmbientBoostDelta)
			}
		} else {
			c.runtime.TransStartTime = now // defer start by one tick
		}
	case model.TransDown:
		if c.cfg.Params.FastCooldown && !c.runtime.FloorOutput {
			c.runtime.RunMode = model.RunOff
		}
	}

	thresh := numeric.Delta(numeric.KPrecision) // 1K, no sensor
	if c.cfg.SensorAmb != "" {
		thresh = numeric.Delta(numeric.KPrecision) / 2 // 0.5K, sensored
	}
	if c.runtime.Transition != model.TransNone {
		gap := numeric.Sub(c.runtime.TargetAmbient, c.runtime.ActualAmbient)
		if gap < 0 {
			gap = -gap
		}
		if gap <= thresh {
			c.runtime.Transition = model.TransNone
		}
	}

	if c.runtime.FloorOutput && c.consumerSettled() {
		c.runtime.FloorOutput = false
	}
}

// consumerSettled reports whether the shared consumer-shift-delay window
// has elapsed, clearing a latched floor_output (spec.md §4.4).
func (c *HCircuit) consumerSettled() bool {
	return c.lastPdataSDelay == 0
}
