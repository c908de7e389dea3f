package boiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rwchcd/rwchcd/internal/alarms"
	"github.com/rwchcd/rwchcd/internal/model"
	"github.com/rwchcd/rwchcd/internal/numeric"
	"github.com/rwchcd/rwchcd/internal/relay"
	"github.com/rwchcd/rwchcd/internal/sensors"
)

type fakeBackend struct{ c float64 }

func (f *fakeBackend) Read(id string) (float64, error) { return f.c, nil }

func newTestBoiler(t *testing.T, bodyC float64) (*Boiler, *sensors.Registry, *relay.Registry) {
	t.Helper()
	sr := sensors.NewRegistry(0)
	sr.Register("body", "body", &fakeBackend{c: bodyC})
	sr.Poll(1)

	relays := relay.NewRegistry()
	relays.SetSafeMode(true)
	relays.Register("burner", relay.Pin{Number: 9, ActiveHigh: true})

	al := alarms.NewRaiser(nil, 0)

	cfg := model.BoilerConfig{
		Name:        "boiler1",
		SensorBody:  "body",
		RelayBurner: "burner",
		Params: model.BoilerParams{
			LimitTMin:     numeric.CelsiusToTemp(20),
			LimitTMax:     numeric.CelsiusToTemp(80),
			LimitTHardMax: numeric.CelsiusToTemp(95),
			Hysteresis:    numeric.Delta(5 * numeric.KPrecision),
			BurnerMinTime: 60,
			TFreeze:       numeric.CelsiusToTemp(3),
			IdleMode:      model.IdleAlways,
		},
	}
	b := New(cfg, sr, relays, al)
	require.Equal(t, model.OK, b.Online())
	return b, sr, relays
}

func TestHardOvertempForcesBurnerOffAndLatchesOvertemp(t *testing.T) {
	b, _, relays := newTestBoiler(t, 96)
	st := b.Logic(1, numeric.CelsiusToTemp(60), model.RunComfort, false)
	assert.Equal(t, model.Safety, st)
	assert.True(t, b.Overtemp())
	on, _ := relays.StateGet("burner")
	assert.False(t, on)
}

func TestAntifreezeLatchEngagesAtFreezeThreshold(t *testing.T) {
	b, _, _ := newTestBoiler(t, 2)
	require.Equal(t, model.OK, b.Logic(1, numeric.CelsiusToTemp(60), model.RunOff, true))
	assert.True(t, b.runtime.Antifreeze)
	assert.GreaterOrEqual(t, b.runtime.TargetTemp, b.cfg.Params.LimitTMin)
}

func TestIdleAlwaysTurnsOffWhenCouldSleep(t *testing.T) {
	b, _, _ := newTestBoiler(t, 40)
	require.Equal(t, model.OK, b.Logic(1, 0, model.RunOff, true))
	assert.Equal(t, numeric.Temp(0), b.runtime.TargetTemp)
}

func TestTripEngagesBurnerBelowTrip(t *testing.T) {
	b, _, relays := newTestBoiler(t, 30)
	// tick 61: BurnerMinTime (60) has elapsed since the initial LastSwitch of 0
	require.Equal(t, model.OK, b.Logic(61, numeric.CelsiusToTemp(60), model.RunComfort, false))
	require.Equal(t, model.OK, b.Run(61))
	on, _ := relays.StateGet("burner")
	assert.True(t, on)
}
