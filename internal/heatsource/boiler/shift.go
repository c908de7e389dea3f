package boiler

import (
	"github.com/rwchcd/rwchcd/internal/model"
	"github.com/rwchcd/rwchcd/internal/numeric"
)

// boilItgRange is the jacketed integral's clamp range for "body below
// limit_tmin", [-100 Ks, 0] per spec.md §4.6.
var boilItgRange = [2]numeric.Delta{-100 * numeric.KPrecision, 0}

// retItgRange is the return-limit jacketed integral's clamp range,
// [-1000 Ks, 0] per spec.md §4.6.
var retItgRange = [2]numeric.Delta{-1000 * numeric.KPrecision, 0}

// updateConsumerShift implements spec.md §4.6's derivative/integral
// consumer-shift computation.
func (b *Boiler) updateConsumerShift(body numeric.Temp, now numeric.TimeTick) {
	numeric.DiscreteDerivative(&b.runtime.TempDrv, body, now, derivativeWindow)

	itgVal := numeric.JacketedThresholdIntegral(&b.runtime.BoilItg, b.cfg.Params.LimitTMin, body, now, boilItgRange[0], boilItgRange[1])
	abs := itgVal
	if abs < 0 {
		abs = -abs
	}
	b.runtime.CShiftCritical = int32(-2 * abs / numeric.Delta(numeric.KPrecision))

	cshiftRet := int32(0)
	if b.cfg.Params.LimitTReturnMin > 0 {
		if b.returnValve == nil && b.cfg.SensorReturn != "" {
			ret, st := b.sensorsR.Get(b.cfg.SensorReturn, now)
			if st == model.OK || model.Recoverable(st) {
				retItg := numeric.JacketedThresholdIntegral(&b.runtime.RetItg, b.cfg.Params.LimitTReturnMin, ret, now, retItgRange[0], retItgRange[1])
				rabs := retItg
				if rabs < 0 {
					rabs = -rabs
				}
				cshiftRet = int32(-2 * rabs / numeric.Delta(numeric.KPrecision))
			}
		} else if b.returnValve != nil {
			ret := body
			if b.cfg.SensorReturn != "" {
				if r, st := b.sensorsR.Get(b.cfg.SensorReturn, now); st == model.OK || model.Recoverable(st) {
					ret = r
				}
			}
			_ = b.returnValve.MixTcontrol(b.cfg.Params.LimitTReturnMin, ret, body, model.NoThreshold, now)
		}
	}

	b.runtime.CShiftNonCritical = min32(b.runtime.CShiftCritical, cshiftRet)
}

func min32(a, b int32) int32 {
	if a < b {
		return a
	}
	return b
}
