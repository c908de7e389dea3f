package dhwt

import (
	"github.com/rwchcd/rwchcd/internal/model"
	"github.com/rwchcd/rwchcd/internal/numeric"
)

// inletAcceptable implements spec.md §4.5: +1 when inlet >= current+1K and
// <= limit_wintmax, 0 inside hysteresis, -1 otherwise or on sensor failure.
func (d *DHWT) inletAcceptable(now numeric.TimeTick) int {
	if d.cfg.SensorInlet == "" {
		return -1
	}
	inlet, st := d.sensorsR.Get(d.cfg.SensorInlet, now)
	if st != model.OK && !model.Recoverable(st) {
		return -1
	}
	oneK := numeric.Delta(numeric.KPrecision)
	if inlet >= numeric.AddDelta(d.runtime.ActualTemp, oneK) && inlet <= d.cfg.Params.LimitWinTMax {
		return 1
	}
	if inlet > d.runtime.ActualTemp && inlet <= d.cfg.Params.LimitWinTMax {
		return 0
	}
	return -1
}

// applyActuatorPolicy implements spec.md §4.5's isolation-valve/pump
// decision tables.
func (d *DHWT) applyActuatorPolicy(pdata *model.PlantData, now numeric.TimeTick) {
	accept := d.inletAcceptable(now)

	feedIsolClosed := d.applyFeedIsolValve(pdata, accept)
	d.applyFeedPump(pdata, accept, feedIsolClosed, now)
	d.applyDHWIsolValve(now)
	d.applyRecyclePump(pdata, now)
}

func (d *DHWT) applyFeedIsolValve(pdata *model.PlantData, accept int) (closed bool) {
	if d.feedIsolValve == nil {
		return false
	}
	switch {
	case d.runtime.ElectricMode || d.runtime.Overtemp:
		d.feedIsolValve.RequestClose()
		return true
	case pdata.HsOvertemp:
		d.feedIsolValve.RequestOpen()
		return false
	case (d.runtime.ChargeOn || d.runtime.FloorIntake) && accept >= 0:
		d.feedIsolValve.RequestOpen()
		return false
	default:
		d.feedIsolValve.RequestClose()
		return true
	}
}

func (d *DHWT) applyFeedPump(pdata *model.PlantData, accept int, feedIsolClosed bool, now numeric.TimeTick) {
	if d.feedPump == nil {
		return
	}
	switch {
	case d.runtime.ElectricMode || d.runtime.Overtemp:
		force := d.feedIsolValve == nil
		d.feedPump.SetState(false, force, now)
	case pdata.HsOvertemp:
		d.feedPump.SetState(true, false, now)
	case d.runtime.ChargeOn || d.runtime.FloorIntake:
		d.feedPump.SetState(accept >= 0, false, now)
	default:
		d.feedPump.SetState(false, false, now)
	}
	if feedIsolClosed {
		d.feedPump.SetState(false, true, now)
	}
}

func (d *DHWT) applyDHWIsolValve(now numeric.TimeTick) {
	if d.dhwIsolValve == nil {
		return
	}
	if d.cfg.TThreshDHWIsol == model.NoThreshold {
		d.dhwIsolValve.RequestOpen()
		return
	}
	oneK := numeric.Delta(numeric.KPrecision)
	switch {
	case d.runtime.ActualTemp < d.cfg.TThreshDHWIsol:
		d.dhwIsolValve.RequestClose()
	case d.runtime.ActualTemp > numeric.AddDelta(d.cfg.TThreshDHWIsol, oneK):
		d.dhwIsolValve.RequestOpen()
	}
}

func (d *DHWT) applyRecyclePump(pdata *model.PlantData, now numeric.TimeTick) {
	if d.recyclePump == nil {
		return
	}
	if pdata.HsOvertemp {
		d.recyclePump.SetState(true, true, now)
		return
	}
	if d.dhwIsolValve != nil && d.cfg.TThreshDHWIsol != model.NoThreshold {
		oneK := numeric.Delta(numeric.KPrecision)
		if d.runtime.ActualTemp < numeric.AddDelta(d.cfg.TThreshDHWIsol, oneK) {
			d.recyclePump.SetState(false, true, now)
			return
		}
	}
	d.recyclePump.SetState(d.runtime.RecycleOn, false, now)
}
