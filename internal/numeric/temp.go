// Package numeric implements the fixed-point temperature arithmetic and the
// small set of control-theory primitives (EWMA, discrete derivative,
// jacketed threshold integral, saturated math) the rest of the plant
// control engine builds on. None of these functions hold state beyond what
// is passed in explicitly, so they are trivially safe to call from the
// single control-loop goroutine without locking.
package numeric

import "time"

// KPrecision is the fixed-point scale: one unit of Temp is 1 K / KPrecision.
// Centikelvin (100) keeps 0 K representable and gives enough headroom for
// the valve PI loop's repeated fixed-point arithmetic to stay within the
// one-unit round-trip tolerance spec.md §8 Property 7 requires.
const KPrecision = 100

// Temp is a fixed-point absolute temperature, in units of 1/KPrecision K.
type Temp int32

// Delta is a fixed-point temperature difference, wide enough that chained
// arithmetic on Temp values cannot overflow it.
type Delta int64

const (
	// TempMin/TempMax bound valid sensor readings; anything outside fails
	// with a sensor error kind per spec.md §3. 1000 K is a generous hard
	// ceiling for a domestic boiler/circuit plant.
	TempMin Temp = 0
	TempMax Temp = 1000 * KPrecision
)

// celsiusZero is 0°C in centikelvin-from-absolute-zero terms (273.15 K).
const celsiusZero = 27315 * KPrecision / 100

// KsMax is the assumed maximum hot-to-cold swing a mixing valve's PI
// controller falls back to when no cold-inlet sensor is configured
// (spec.md §4.3: "derives it as hot − Ksmax"). The source text leaves the
// constant's value unspecified; 30 K is the conventional floor/ceiling
// delta for a domestic hydronic loop's return-to-supply spread.
const KsMax Delta = 30 * KPrecision

// CelsiusToTemp converts a Celsius float to fixed-point Temp.
func CelsiusToTemp(c float64) Temp {
	return Temp(c*float64(KPrecision)) + Temp(celsiusZero)
}

// TempToCelsius converts a fixed-point Temp back to Celsius.
func TempToCelsius(t Temp) float64 {
	return float64(t-Temp(celsiusZero)) / float64(KPrecision)
}

// Valid reports whether t lies within the hard sensor bounds.
func Valid(t Temp) bool {
	return t >= TempMin && t <= TempMax
}

// Sub returns a-b as a Delta, widened to avoid Temp overflow.
func Sub(a, b Temp) Delta {
	return Delta(a) - Delta(b)
}

// AddDelta returns t+d saturated to the Temp range.
func AddDelta(t Temp, d Delta) Temp {
	r := int64(t) + int64(d)
	if r > int64(TempMax) {
		return TempMax
	}
	if r < int64(TempMin) {
		return TempMin
	}
	return Temp(r)
}

// Clamp restricts t to [low, high].
func Clamp(t, low, high Temp) Temp {
	if t < low {
		return low
	}
	if t > high {
		return high
	}
	return t
}

// TimeTick is the monotonic internal tick count (timekeep_t): one unit per
// second. cmd/rwchcd's control loop produces these by counting poll periods
// from zero.
type TimeTick int64

// TkToSec converts ticks to seconds.
func TkToSec(tk TimeTick) int64 { return int64(tk) }

// SecToTk converts seconds to ticks.
func SecToTk(s int64) TimeTick { return TimeTick(s) }

// NowTk captures the current wall clock as a tick. cmd/rwchcd's control
// loop does not call it: it advances its own tick counter by the poll
// period on each iteration and threads that value through.
func NowTk() TimeTick { return TimeTick(time.Now().Unix()) }
