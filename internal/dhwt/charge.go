package dhwt

import (
	"github.com/rwchcd/rwchcd/internal/model"
	"github.com/rwchcd/rwchcd/internal/numeric"
)

// tripTemp implements spec.md §4.5: target - hysteresis, or target - 1K
// when force_on or FROSTFREE.
func (d *DHWT) tripTemp() numeric.Temp {
	if d.runtime.ForceOn || d.runtime.RunMode == model.RunFrostFree {
		return numeric.AddDelta(d.runtime.TargetTemp, -numeric.Delta(numeric.KPrecision))
	}
	return numeric.AddDelta(d.runtime.TargetTemp, -d.cfg.Params.Hysteresis)
}

// runChargeStateMachine implements spec.md §4.5's charge trip/untrip state
// machine across the electric and water paths.
func (d *DHWT) runChargeStateMachine(now numeric.TimeTick, pdata *model.PlantData) {
	trip := d.tripTemp()
	tryElectric := (pdata.PlantCouldSleep || pdata.HsAllFailed) && !pdata.HsOvertemp

	if tryElectric && d.cfg.RelaySelfHeater != "" {
		d.runElectricPath(trip, now)
	}
	if !d.runtime.ElectricMode {
		d.runWaterPath(trip, now, pdata)
	}
}

func (d *DHWT) runElectricPath(trip numeric.Temp, now numeric.TimeTick) {
	if !d.runtime.ChargeOn {
		if d.runtime.ActualTempTrip < trip {
			if st := d.relays.StateSet(d.cfg.RelaySelfHeater, true); st == model.OK {
				d.runtime.ChargeOn = true
				d.runtime.ElectricMode = true
				d.runtime.ModeSince = now
			}
		}
		return
	}
	if !d.runtime.ElectricMode {
		return
	}
	skipUntrip := d.cfg.ElectricHasThermostat
	if !skipUntrip && d.runtime.ActualTemp >= d.runtime.TargetTemp {
		_ = d.relays.StateSet(d.cfg.RelaySelfHeater, false)
		d.runtime.ChargeOn = false
		d.runtime.ElectricMode = false
	}
}

func (d *DHWT) runWaterPath(trip numeric.Temp, now numeric.TimeTick, pdata *model.PlantData) {
	if !d.runtime.ChargeOn {
		if d.runtime.ChargeOvertime {
			limit := d.cfg.Params.LimitChargeTime
			elapsed := now - d.runtime.ModeSince
			if !(limit > 0 && elapsed <= limit) {
				d.runtime.ChargeOvertime = false
			}
			return
		}
		if d.runtime.ActualTempTrip < trip && !pdata.HsAllFailed && pdata.DHWTCurrPrio >= d.cfg.ChargePriority {
			d.runtime.ChargeOn = true
			d.runtime.ModeSince = now
		}
		return
	}

	untrip := d.runtime.ActualTemp >= d.runtime.TargetTemp || pdata.HsAllFailed

	overtime := false
	if d.cfg.Params.LimitChargeTime > 0 && now-d.runtime.ModeSince > d.cfg.Params.LimitChargeTime && !d.runtime.LegionellaOn {
		untrip = true
		overtime = true
	}
	if pdata.DHWTCurrPrio < d.cfg.ChargePriority {
		untrip = true
	}

	if untrip {
		d.runtime.ChargeOn = false
		d.runtime.ForceOn = false
		d.runtime.LegionellaOn = false
		if overtime {
			d.runtime.ChargeOvertime = true
			d.runtime.ModeSince = now
		}
	}
}
