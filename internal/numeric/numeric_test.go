package numeric

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCelsiusRoundTrip(t *testing.T) {
	for _, c := range []float64{-40, -5, 0, 18.5, 20, 21.37, 60, 82.123} {
		temp := CelsiusToTemp(c)
		back := TempToCelsius(temp)
		assert.InDelta(t, c, back, 1.0/float64(KPrecision), "round trip for %v", c)
	}
}

func TestEWMAConverges(t *testing.T) {
	filtered := CelsiusToTemp(10)
	sample := CelsiusToTemp(20)
	tau := TimeTick(3600)
	for i := 0; i < 500; i++ {
		filtered = EWMA(filtered, sample, tau, 600)
	}
	assert.InDelta(t, 20.0, TempToCelsius(filtered), 0.5)
}

func TestEWMANoOpWhenTauPlusDtNonPositive(t *testing.T) {
	filtered := CelsiusToTemp(10)
	sample := CelsiusToTemp(99)
	out := EWMA(filtered, sample, 0, 0)
	assert.Equal(t, filtered, out)
}

func TestDiscreteDerivativeSeedsThenHolds(t *testing.T) {
	var st DerivativeState
	d0 := DiscreteDerivative(&st, CelsiusToTemp(20), 1, 10)
	assert.Equal(t, Delta(0), d0)

	// below tau: unchanged
	d1 := DiscreteDerivative(&st, CelsiusToTemp(25), 6, 10)
	assert.Equal(t, Delta(0), d1)

	// at/above tau: updates
	d2 := DiscreteDerivative(&st, CelsiusToTemp(25), 11, 10)
	assert.NotEqual(t, Delta(0), d2)
	assert.Greater(t, d2, Delta(0))
}

func TestJacketedThresholdIntegralFirstSampleZero(t *testing.T) {
	var st IntegralState
	v := JacketedThresholdIntegral(&st, CelsiusToTemp(50), CelsiusToTemp(40), 0, -100, 0)
	assert.Equal(t, Delta(0), v)
}

func TestJacketedThresholdIntegralNoOpSameTime(t *testing.T) {
	var st IntegralState
	JacketedThresholdIntegral(&st, CelsiusToTemp(50), CelsiusToTemp(40), 0, -100, 0)
	v1 := JacketedThresholdIntegral(&st, CelsiusToTemp(50), CelsiusToTemp(30), 100, -100, 0)
	v2 := JacketedThresholdIntegral(&st, CelsiusToTemp(50), CelsiusToTemp(99), 100, -100, 0)
	assert.Equal(t, v1, v2)
}

func TestJacketedThresholdIntegralClamps(t *testing.T) {
	var st IntegralState
	JacketedThresholdIntegral(&st, CelsiusToTemp(50), CelsiusToTemp(0), 1, -100, 0)
	v := JacketedThresholdIntegral(&st, CelsiusToTemp(50), CelsiusToTemp(0), 100001, -100, 0)
	assert.Equal(t, Delta(-100), v)
}

func TestSaturatedMath(t *testing.T) {
	assert.Equal(t, int32(2147483647), SatAddI32(2147483647, 100))
	assert.Equal(t, int32(-2147483648), SatSubI32(-2147483648, 100))
	assert.Equal(t, int32(2147483647), SatMulI32(1<<30, 4))
	assert.Equal(t, uint32(4294967295), SatAddU32(4294967200, 1000))
	assert.Equal(t, uint32(0), SatSubU32(5, 10))
}

func TestMavgMinDt(t *testing.T) {
	assert.Equal(t, TimeTick(3600), MavgMinDt(3600))
}
