package hcircuit

import (
	"github.com/rwchcd/rwchcd/internal/model"
	"github.com/rwchcd/rwchcd/internal/numeric"
)

// rorhDt is HCIRCUIT_RORH_DT, the rate-of-rise limiter's step interval
// (spec.md §4.4: "typ. 10 s").
const rorhDt numeric.TimeTick = 10

// applyRorh implements the rate-of-rise limiter of spec.md §4.4: seeds on
// first sample with a 60s settle delay, lets falling requests through
// immediately, and steps rising requests by a per-RORH_DT EWMA-derived
// increment gated on the shared consumer_shift being non-negative.
func (c *HCircuit) applyRorh(request numeric.Temp, now numeric.TimeTick, pdata *model.PlantData) numeric.Temp {
	if c.cfg.Params.WtempRorh <= 0 {
		return request
	}

	if c.runtime.RorhTime == 0 {
		c.runtime.RorhRef = c.runtime.ActualWtemp
		c.runtime.RorhTime = now + 60
		return request
	}

	if request <= c.runtime.ActualWtemp {
		c.runtime.RorhRef = c.runtime.ActualWtemp
		return request
	}

	if now >= c.runtime.RorhTime {
		steps := int64(now-c.runtime.RorhTime)/int64(rorhDt) + 1
		c.runtime.RorhTime += numeric.TimeTick(steps) * rorhDt
		if pdata.ConsumerShift >= 0 {
			increment := numeric.EWMA(0, numeric.Temp(c.cfg.Params.WtempRorh), 3600, rorhDt)
			for i := int64(0); i < steps; i++ {
				c.runtime.RorhRef = numeric.AddDelta(c.runtime.RorhRef, numeric.Delta(increment))
			}
		}
	}

	if c.runtime.RorhRef < request {
		return c.runtime.RorhRef
	}
	return request
}

// applyInterferenceOverlays implements the ordered overlay chain of
// spec.md §4.4, applied after the rate-of-rise limiter: output flooring,
// global power shift, heatsource overtemp clamp, final high-side clamp.
func (c *HCircuit) applyInterferenceOverlays(wtemp numeric.Temp, pdata *model.PlantData) numeric.Temp {
	if c.runtime.FloorOutput && c.runtime.FloorWtemp > wtemp {
		wtemp = c.runtime.FloorWtemp
	}

	if pdata.ConsumerShift != 0 {
		retTemp := c.returnTemp(wtemp)
		shift := numeric.Delta(pdata.ConsumerShift) * numeric.Sub(wtemp, retTemp) / 100
		wtemp = numeric.AddDelta(wtemp, shift)
	}

	if pdata.HsOvertemp {
		wtemp = numeric.Clamp(wtemp, numeric.TempMin, c.cfg.Params.LimitWtMax)
	}

	if wtemp > c.cfg.Params.LimitWtMax {
		wtemp = c.cfg.Params.LimitWtMax
	}
	return wtemp
}

// returnTemp resolves the return-water temperature used by the power
// shift overlay: return-water sensor if available and not higher than
// outgoing, else absolute 0°C (spec.md §4.4).
func (c *HCircuit) returnTemp(wtemp numeric.Temp) numeric.Temp {
	if c.cfg.SensorRet == "" {
		return numeric.CelsiusToTemp(0)
	}
	ret, st := c.sensorsR.Get(c.cfg.SensorRet, 0)
	if st != model.OK && !model.Recoverable(st) {
		return numeric.CelsiusToTemp(0)
	}
	if ret > wtemp {
		return numeric.CelsiusToTemp(0)
	}
	return ret
}
