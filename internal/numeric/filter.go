package numeric

// EWMA returns the updated filtered value after one exponentially weighted
// moving average step: filtered - round(dt*(filtered-sample)/(tau+dt)).
// tau+dt must be > 0; the result is pure, carrying no state of its own.
// Rounding is half-away-from-zero, via a sign-biased half-unit addition
// before integer truncation.
func EWMA(filtered, sample Temp, tau, dt TimeTick) Temp {
	denom := int64(tau) + int64(dt)
	if denom <= 0 {
		return filtered
	}
	diff := int64(filtered) - int64(sample)
	num := diff * int64(dt)
	q := divRoundHalfAway(num, denom)
	return Temp(int64(filtered) - q)
}

func divRoundHalfAway(num, denom int64) int64 {
	if denom < 0 {
		num, denom = -num, -denom
	}
	if num >= 0 {
		return (num + denom/2) / denom
	}
	return -((-num + denom/2) / denom)
}

// MavgMinDt returns the smallest dt for which EWMA produces a non-trivial
// (non-zero) update at the given tau, i.e. the point at which dt/(tau+dt)
// rounds to at least one part. Used by the heating-circuit ambient model to
// avoid burning CPU (and accumulating rounding noise) on updates too small
// to move the filtered value by even one fixed-point unit.
func MavgMinDt(tau TimeTick) TimeTick {
	if tau <= 0 {
		return 1
	}
	// dt/(tau+dt) >= 1/(2*diff) in the worst case (diff==1 unit) requires
	// dt >= tau/(2*diff-1); conservatively dt such that dt*2 >= tau+dt, i.e. dt >= tau.
	// We want the smallest dt where round(dt/(tau+dt)) for a unit diff is >=1,
	// i.e. dt >= (tau+dt)/2 => dt >= tau.
	return tau
}

// DerivativeState carries the discrete derivative's rolling sample.
type DerivativeState struct {
	LastSample Temp
	LastTime   TimeTick
	Last       Delta // last computed scaled derivative
}

// FPScale is the fixed-point scale published for discrete_derivative, per
// spec.md §4.1.
const FPScale = 0x8000

// DiscreteDerivative updates state in place and returns the scaled
// derivative (Δsample*FPScale/Δt). If state has never been seeded
// (LastTime == 0), the sample seeds it and 0 is returned; a t_sample of 0
// therefore leaves the state unseeded. If the elapsed time is below tau,
// the previously computed (unchanged) scaled derivative is returned without
// updating the sample. tau must be < math.MaxInt32 and t_sample must be
// monotonically non-decreasing.
func DiscreteDerivative(state *DerivativeState, sample Temp, tSample TimeTick, tau TimeTick) Delta {
	if state.LastTime == 0 {
		state.LastSample = sample
		state.LastTime = tSample
		state.Last = 0
		return state.Last
	}
	dt := tSample - state.LastTime
	if dt < tau {
		return state.Last
	}
	dsample := Sub(sample, state.LastSample)
	state.Last = Delta(int64(dsample) * FPScale / int64(dt))
	state.LastSample = sample
	state.LastTime = tSample
	return state.Last
}

// IntegralState carries the jacketed threshold integral's accumulator.
type IntegralState struct {
	LastSample Temp
	LastTime   TimeTick
	Value      Delta // accumulated integral, clamped to [low,high]
}

// JacketedThresholdIntegral trapezoidally integrates (sample-threshold) over
// time, clamping the running value into [low, high]. The first sample seeds
// the state and yields 0; a repeat call with t_sample == last_time is a
// pure no-op.
func JacketedThresholdIntegral(state *IntegralState, threshold, sample Temp, tSample TimeTick, low, high Delta) Delta {
	if state.LastTime == 0 {
		state.LastSample = sample
		state.LastTime = tSample
		state.Value = 0
		return clampDelta(state.Value, low, high)
	}
	if tSample == state.LastTime {
		return clampDelta(state.Value, low, high)
	}
	dt := int64(tSample - state.LastTime)
	prevErr := int64(Sub(state.LastSample, threshold))
	currErr := int64(Sub(sample, threshold))
	// trapezoidal area: (prevErr+currErr)/2 * dt
	area := (prevErr + currErr) * dt / 2
	state.Value = clampDelta(state.Value+Delta(area), low, high)
	state.LastSample = sample
	state.LastTime = tSample
	return state.Value
}

func clampDelta(v, low, high Delta) Delta {
	if v < low {
		return low
	}
	if v > high {
		return high
	}
	return v
}
