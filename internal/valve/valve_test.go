package valve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rwchcd/rwchcd/internal/model"
	"github.com/rwchcd/rwchcd/internal/numeric"
	"github.com/rwchcd/rwchcd/internal/relay"
)

func newTestValve(t *testing.T, algo model.ValveAlgo) (*Valve, *relay.Registry) {
	t.Helper()
	relays := relay.NewRegistry()
	relays.SetSafeMode(true)
	relays.Register("vo", relay.Pin{Number: 1, ActiveHigh: true})
	relays.Register("vc", relay.Pin{Number: 2, ActiveHigh: true})
	cfg := model.ValveConfig{
		Name:     "v1",
		Kind:     model.ValveMix,
		Motor:    model.Motor3Way,
		Algo:     algo,
		RidOpen:  "vo",
		RidClose: "vc",
		EteTime:  100,
		Deadband: 20,
		Deadzone: 200, // 2K at KPrecision=100

		SampleInterval: 10,
		SApproxStep:    50,
		TuneFactor:     10,
		Tu:             60,
		Td:             10,
	}
	v := New(cfg, relays)
	require.Equal(t, model.OK, v.Online())
	return v, relays
}

func TestValvePositionStaysInBounds(t *testing.T) {
	v, _ := newTestValve(t, model.AlgoBangBang)
	v.RequestOpen()
	var now numeric.TimeTick
	for i := 0; i < 50; i++ {
		now += 10
		require.Equal(t, model.OK, v.Run(now))
		assert.GreaterOrEqual(t, v.ActualPosition(), int32(0))
		assert.LessOrEqual(t, v.ActualPosition(), int32(1000))
	}
	assert.Equal(t, int32(1000), v.ActualPosition())
	assert.True(t, v.TruePos(), "should latch true_pos after 3x ete_time of continuous travel")
}

func TestRequestPthDeadbandSignal(t *testing.T) {
	v, _ := newTestValve(t, model.AlgoBangBang)
	before := v.runtime.TargetCourse
	st := v.RequestPth(5) // below deadband (20)
	assert.Equal(t, model.Deadband, st)
	assert.Equal(t, before, v.runtime.TargetCourse, "deadband request must not change target")
}

func TestBangBangIdempotentUnderDeadzone(t *testing.T) {
	v, _ := newTestValve(t, model.AlgoBangBang)
	target := numeric.CelsiusToTemp(40)
	measured := numeric.CelsiusToTemp(40.5) // within 1K deadzone/2
	st := v.MixTcontrol(target, measured, model.NoThreshold, model.NoThreshold, 0)
	assert.Equal(t, model.Deadzone, st)
	assert.Equal(t, int32(0), v.runtime.TargetCourse)
}

func TestBangBangDrivesFullOpenOrClose(t *testing.T) {
	v, _ := newTestValve(t, model.AlgoBangBang)
	target := numeric.CelsiusToTemp(60)
	measured := numeric.CelsiusToTemp(40)
	st := v.MixTcontrol(target, measured, model.NoThreshold, model.NoThreshold, 0)
	require.Equal(t, model.OK, st)
	assert.Equal(t, FullRange, v.runtime.TargetCourse)
}

func TestPIRefusesWhenInputsTooClose(t *testing.T) {
	v, _ := newTestValve(t, model.AlgoPI)
	hot := numeric.CelsiusToTemp(40)
	cold := numeric.AddDelta(hot, -50) // 0.5K apart
	target := numeric.CelsiusToTemp(40.2)
	st := v.MixTcontrol(target, hot, hot, cold, 0)
	assert.Equal(t, model.Deadzone, st)
}

func TestPIJacketWidensWhenHotDivergesFromMeasured(t *testing.T) {
	v, _ := newTestValve(t, model.AlgoPI)
	hot := numeric.CelsiusToTemp(38)
	measured := numeric.CelsiusToTemp(42)
	cold := numeric.CelsiusToTemp(10)
	target := numeric.CelsiusToTemp(40) // between hot and measured

	_ = v.MixTcontrol(target, measured, hot, cold, 0)
	assert.NotEqual(t, FullRange, v.runtime.TargetCourse,
		"measured exceeding hot should widen the ceiling instead of forcing a full-open end-stop")
}
