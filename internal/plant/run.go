package plant

import (
	"github.com/rs/zerolog/log"

	"github.com/rwchcd/rwchcd/internal/model"
	"github.com/rwchcd/rwchcd/internal/numeric"
)

// Run executes one full plant tick per spec.md §4.7's strict ordering:
//
//  1. run all DHWTs
//  2. run all circuits
//  3. aggregate heat requests, with DHWTs arbitrated by charge priority
//     against circuits
//  4. update plant_could_sleep
//  5. dispatch the aggregated request to the heatsource
//  6. compute summer maintenance
//  7. publish hs_overtemp / consumer_shift / consumer_sdelay back to pdata
//  8. run all valves, then all pumps
func (p *Plant) Run(now numeric.TimeTick) model.Status {
	var worst model.Status = model.OK
	failed := 0
	total := len(p.dhwts) + len(p.circuits)

	for _, d := range p.dhwts {
		if st := d.Run(now, &p.data); st != model.OK {
			failed++
			worst = worstStatus(worst, st)
			p.recordFault("dhwt", d.Name(), st)
		}
	}

	for _, c := range p.circuits {
		if st := c.Run(now, &p.data); st != model.OK {
			failed++
			worst = worstStatus(worst, st)
			p.recordFault("hcircuit", c.Name(), st)
		}
	}

	request, currPrio, hasRequest := p.aggregateRequests()
	p.data.DHWTCurrPrio = currPrio

	p.updateCouldSleep(hasRequest, now)

	runMode := model.RunComfort
	if p.heatsource != nil {
		if st := p.heatsource.Logic(now, request, runMode, p.data.PlantCouldSleep); st != model.OK {
			worst = worstStatus(worst, st)
		}
		if st := p.heatsource.Run(now); st != model.OK {
			worst = worstStatus(worst, st)
		}
		p.data.HsOvertemp = p.heatsource.Overtemp()
		p.data.ConsumerShift, _ = p.heatsource.ConsumerShift()
		p.data.ConsumerSDelay = p.heatsource.ConsumerSDelay()
	} else {
		p.data.HsAllFailed = true
	}

	p.runSummerMaintenance(now)

	for _, v := range p.valves {
		if st := v.Run(now); st != model.OK {
			worst = worstStatus(worst, st)
			p.recordFault("valve", v.Name(), st)
		}
	}
	for _, x := range p.pumps {
		if st := x.Run(now); st != model.OK {
			worst = worstStatus(worst, st)
			p.recordFault("pump", x.Name(), st)
		}
	}

	if total > 0 && failed == total {
		return model.Generic
	}
	return worst
}

// aggregateRequests implements spec.md §4.7 step 3: the circuits' max
// request competes with each DHWT's request, arbitrated by charge
// priority. ABSOLUTE-priority DHWTs always win outright (dhwc_absolute);
// PARALDHW/SLIDDHW report the DHWT request alone; SLIDMAX/PARALMAX are
// folded into the max alongside circuits.
func (p *Plant) aggregateRequests() (request numeric.Temp, currPrio model.DHWChargePriority, hasRequest bool) {
	request = model.NoRequest
	currPrio = p.data.DHWTCurrPrio
	p.data.DHWCAbsolute = false
	p.data.DHWCSliding = false

	maxCircuit := model.NoRequest
	for _, c := range p.circuits {
		if r := c.HeatRequest(); r != model.NoRequest && (maxCircuit == model.NoRequest || r > maxCircuit) {
			maxCircuit = r
		}
	}

	absolute := false
	bestPrio := model.PrioParalMax
	maxDHW := model.NoRequest
	anyCharging := false
	for _, d := range p.dhwts {
		r := d.HeatRequest()
		if r == model.NoRequest {
			continue
		}
		anyCharging = true
		if d.Priority() < bestPrio {
			bestPrio = d.Priority()
		}
		if d.Priority() == model.PrioAbsolute {
			absolute = true
		}
		if maxDHW == model.NoRequest || r > maxDHW {
			maxDHW = r
		}
	}

	if anyCharging {
		currPrio = bestPrio
	} else if currPrio < model.PrioParalMax {
		// dhwt_currprio only ever rises while idle, per spec §4.7, one
		// class per tick, allowing lower-priority tanks to charge over
		// time rather than jumping straight to the most permissive class.
		currPrio++
	}

	switch {
	case absolute:
		p.data.DHWCAbsolute = true
		return maxDHW, currPrio, true
	case anyCharging && (bestPrio == model.PrioParalDHW || bestPrio == model.PrioSlidDHW):
		// the DHWT's own request is reported alone; circuits ride along
		// unconstrained by it.
		return maxDHW, currPrio, true
	default:
		p.data.DHWCSliding = anyCharging && bestPrio == model.PrioSlidMax
		best := maxCircuit
		if maxDHW != model.NoRequest && (best == model.NoRequest || maxDHW > best) {
			best = maxDHW
		}
		if best == model.NoRequest {
			return model.NoRequest, currPrio, false
		}
		return best, currPrio, true
	}
}

// updateCouldSleep implements spec.md §4.7 step 4: plant_could_sleep
// asserts once no heat request has been seen for SleepingDelay.
func (p *Plant) updateCouldSleep(hasRequest bool, now numeric.TimeTick) {
	if hasRequest {
		p.lastRequestTime = now
		p.data.PlantCouldSleep = false
		return
	}
	if now-p.lastRequestTime >= p.params.SleepingDelay {
		p.data.PlantCouldSleep = true
	}
}

// runSummerMaintenance implements spec.md §4.7 step 6: periodically
// assert SummerMaint for SummerRunDuration every SummerRunInterval so
// idle valves/pumps exercise, independent of any heat request.
func (p *Plant) runSummerMaintenance(now numeric.TimeTick) {
	if p.params.SummerRunInterval == 0 {
		p.data.SummerMaint = false
		return
	}
	if p.data.SummerMaint {
		if now-p.summerRefTime >= p.params.SummerRunDuration {
			p.data.SummerMaint = false
			p.summerRefTime = now
		}
		return
	}
	if now-p.summerRefTime >= p.params.SummerRunInterval {
		p.data.SummerMaint = true
		p.summerRefTime = now
		log.Info().Msg("entering summer maintenance run")
	}
}

func worstStatus(a, b model.Status) model.Status {
	if a == model.OK {
		return b
	}
	if b == model.OK {
		return a
	}
	return a
}
