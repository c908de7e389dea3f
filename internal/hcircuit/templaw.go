package hcircuit

import (
	"github.com/rs/zerolog/log"

	"github.com/rwchcd/rwchcd/internal/model"
	"github.com/rwchcd/rwchcd/internal/numeric"
)

// nominalAmbient is the 20°C reference ambient the bilinear law is defined
// against (spec.md §4.4).
var nominalAmbient = numeric.CelsiusToTemp(20)

// EvaluateTempLaw implements the bilinear water-temperature law of
// spec.md §4.4: derive the inflexion point from the two calibration points
// and the non-linearity coefficient, validate it (falling back to the
// calibration midpoint on failure), select a segment based on tOutMix, and
// retarget the nominal-20°C result to the circuit's actual target ambient.
func EvaluateTempLaw(p model.TempLawParams, tOutMix, targetAmbient numeric.Temp) numeric.Temp {
	p1, p2 := p.P1, p.P2
	m := ratio(numeric.Sub(p2.TWater, p1.TWater), numeric.Sub(p2.TOut, p1.TOut))
	b := float64(p2.TWater) - m*float64(p2.TOut)

	// to_20C: outdoor temp at which the linear law yields 20°C water.
	to20C := (float64(nominalAmbient) - b) / m
	toutInfl := to20C - 0.3*(to20C-float64(p1.TOut))
	linAtInfl := m*toutInfl + b
	nh := float64(p.NH100) / 100
	twaterInfl := linAtInfl + (linAtInfl-float64(nominalAmbient))*(nh-1)

	if !(float64(p1.TOut) < toutInfl && toutInfl < float64(p2.TOut) &&
		float64(p2.TWater) < twaterInfl && twaterInfl < float64(p1.TWater)) {
		log.Warn().Msg("heating circuit templaw: inflexion point invalid, falling back to calibration midpoint")
		toutInfl = (float64(p1.TOut) + float64(p2.TOut)) / 2
		twaterInfl = (float64(p1.TWater) + float64(p2.TWater)) / 2
	}

	var linear float64
	if float64(tOutMix) < toutInfl {
		segM := ratio(numeric.Delta(twaterInfl)-numeric.Delta(p1.TWater), numeric.Temp(toutInfl)-p1.TOut)
		linear = segM*(float64(tOutMix)-float64(p1.TOut)) + float64(p1.TWater)
	} else {
		segM := ratio(numeric.Delta(p2.TWater)-numeric.Delta(twaterInfl), p2.TOut-numeric.Temp(toutInfl))
		linear = segM*(float64(tOutMix)-toutInfl) + twaterInfl
	}

	shifted := linear + (float64(targetAmbient)-float64(nominalAmbient))*(1-m)
	return numeric.Temp(shifted)
}

func ratio(numD numeric.Delta, denT numeric.Temp) float64 {
	if denT == 0 {
		return 0
	}
	return float64(numD) / float64(denT)
}
