package boiler

import (
	"github.com/rwchcd/rwchcd/internal/model"
	"github.com/rwchcd/rwchcd/internal/numeric"
)

// Run implements spec.md §4.6's control loop: compute trip/untrip with
// anticipation and hysteresis widening, then gate burner transitions by
// burner_min_time.
func (b *Boiler) Run(now numeric.TimeTick) model.Status {
	if !b.runtime.Online {
		return model.Offline
	}
	if b.runtime.Status == model.Safety {
		return model.Safety
	}
	if b.runtime.TargetTemp == 0 {
		return b.switchBurner(false, now)
	}

	hyst := b.cfg.Params.Hysteresis
	trip := numeric.AddDelta(b.runtime.TargetTemp, -hyst/2)
	if trip < b.cfg.Params.LimitTMin {
		trip = b.cfg.Params.LimitTMin
	}

	if b.runtime.TempDrv.Last < 0 {
		deriv := -b.runtime.TempDrv.Last
		correction := deriv * deriv * numeric.Delta(b.runtime.TurnOnCurrAdj) / numeric.Delta(FPScale)
		cap := hyst / 2
		if correction > cap {
			correction = cap
		}
		trip = numeric.AddDelta(trip, correction)
	}
	if maxTrip := numeric.AddDelta(b.cfg.Params.LimitTMax, -hyst/2); trip > maxTrip {
		trip = maxTrip
	}

	untrip := numeric.AddDelta(b.runtime.TargetTemp, hyst/2)
	currentHyst := numeric.Sub(untrip, trip)
	if currentHyst < hyst {
		untrip = numeric.AddDelta(untrip, hyst-currentHyst)
	}
	if b.runtime.TargetTemp < trip {
		shortfall := numeric.Sub(trip, b.runtime.TargetTemp)
		untrip = numeric.AddDelta(untrip, -shortfall)
	}
	if minUntrip := numeric.AddDelta(trip, hyst/2); untrip < minUntrip {
		untrip = minUntrip
	}
	if untrip > b.cfg.Params.LimitTMax {
		untrip = b.cfg.Params.LimitTMax
	}

	wantOn := b.runtime.BurnerOn
	if !b.runtime.BurnerOn && b.runtime.ActualTemp < trip {
		wantOn = true
	}
	if b.runtime.BurnerOn && b.runtime.ActualTemp >= untrip {
		wantOn = false
	}

	b.trackAnticipation(wantOn, now)
	return b.switchBurner(wantOn, now)
}

// trackAnticipation implements spec.md §4.6's turn-on anticipation: while
// running, remember the most negative derivative seen; when derivative
// turns positive, compute next_adj; on burner-off, promote next to curr.
func (b *Boiler) trackAnticipation(wantOn bool, now numeric.TimeTick) {
	if b.runtime.BurnerOn {
		if b.runtime.TempDrv.Last < b.runtime.TurnOnNegDeriv {
			b.runtime.TurnOnNegDeriv = b.runtime.TempDrv.Last
			b.runtime.NegDerivStartTime = now
		}
		if b.runtime.TempDrv.Last >= 0 && b.runtime.TurnOnNegDeriv < 0 {
			elapsed := now - b.runtime.NegDerivStartTime
			neg := -b.runtime.TurnOnNegDeriv
			if neg > 0 {
				b.runtime.TurnOnNextAdj = numeric.TimeTick(int64(elapsed) * FPScale / int64(neg))
			}
		}
	}
	if b.runtime.BurnerOn && !wantOn {
		b.runtime.TurnOnCurrAdj = b.runtime.TurnOnNextAdj
		b.runtime.TurnOnNegDeriv = 0
	}
}

func (b *Boiler) switchBurner(on bool, now numeric.TimeTick) model.Status {
	if on == b.runtime.BurnerOn {
		return model.OK
	}
	if now-b.runtime.LastSwitch < b.cfg.Params.BurnerMinTime {
		return model.OK
	}
	st := b.relays.StateSet(b.cfg.RelayBurner, on)
	if st != model.OK {
		b.runtime.Status = st
		return st
	}
	b.runtime.BurnerOn = on
	b.runtime.LastSwitch = now

	if on && b.runtime.ActualTemp > b.cfg.Params.LimitTMin && b.loadPump != nil {
		b.loadPump.SetState(true, false, now)
	}
	if !on && b.loadPump != nil {
		b.loadPump.SetState(false, false, now)
	}
	return model.OK
}
