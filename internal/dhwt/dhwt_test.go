package dhwt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rwchcd/rwchcd/internal/alarms"
	"github.com/rwchcd/rwchcd/internal/model"
	"github.com/rwchcd/rwchcd/internal/numeric"
	"github.com/rwchcd/rwchcd/internal/relay"
	"github.com/rwchcd/rwchcd/internal/runtime"
	"github.com/rwchcd/rwchcd/internal/scheduler"
	"github.com/rwchcd/rwchcd/internal/sensors"
)

type fakeBackend struct{ c float64 }

func (f *fakeBackend) Read(id string) (float64, error) { return f.c, nil }

func newTestDHWT(t *testing.T, bottomC float64) (*DHWT, *sensors.Registry) {
	t.Helper()
	sr := sensors.NewRegistry(0)
	sr.Register("bottom", "bottom", &fakeBackend{c: bottomC})
	sr.Poll(1)

	relays := relay.NewRegistry()
	relays.SetSafeMode(true)
	relays.Register("heater", relay.Pin{Number: 5, ActiveHigh: true})

	sched := scheduler.NewRegistry()
	rt := runtime.New()
	al := alarms.NewRaiser(nil, 0)

	cfg := model.DHWTConfig{
		Name:            "dhwt1",
		SensorBottom:    "bottom",
		RelaySelfHeater: "heater",
		Params: model.DHWTParams{
			TComfort:        numeric.CelsiusToTemp(55),
			TEco:            numeric.CelsiusToTemp(45),
			TFrostFree:      numeric.CelsiusToTemp(7),
			TLegionella:     numeric.CelsiusToTemp(65),
			LimitTMin:       numeric.CelsiusToTemp(5),
			LimitTMax:       numeric.CelsiusToTemp(70),
			LimitWinTMax:    numeric.CelsiusToTemp(80),
			Hysteresis:      numeric.Delta(5 * numeric.KPrecision),
			TempInOffset:    numeric.Delta(10 * numeric.KPrecision),
			LimitChargeTime: 3600,
		},
		ChargePriority:  model.PrioParalDHW,
		TThreshDHWIsol:  model.NoThreshold,
	}
	d := New(cfg, sr, relays, sched, rt, al)
	require.Equal(t, model.OK, d.Online())
	return d, sr
}

func TestElectricAndOvertempMutuallyExclusive(t *testing.T) {
	d, _ := newTestDHWT(t, 20)
	pdata := &model.PlantData{PlantCouldSleep: true, HsOvertemp: false, DHWTCurrPrio: model.PrioParalMax}
	require.Equal(t, model.OK, d.Run(1, pdata))
	if d.runtime.ChargeOn && d.runtime.ElectricMode {
		assert.False(t, pdata.HsOvertemp)
	}
}

func TestWaterPathTripsWhenColdAndPriorityAllows(t *testing.T) {
	d, _ := newTestDHWT(t, 20)
	pdata := &model.PlantData{DHWTCurrPrio: model.PrioParalMax}
	require.Equal(t, model.OK, d.Run(1, pdata))
	assert.True(t, d.runtime.ChargeOn)
	assert.False(t, d.runtime.ElectricMode)
}

func TestLegionellaOnlyClearedByUntripOrShutdown(t *testing.T) {
	d, _ := newTestDHWT(t, 70)
	d.runtime.LegionellaOn = true
	d.runtime.ChargeOn = true
	d.runtime.TargetTemp = numeric.CelsiusToTemp(65)
	d.runtime.ActualTemp = numeric.CelsiusToTemp(70)
	pdata := &model.PlantData{DHWTCurrPrio: model.PrioParalMax}
	d.runChargeStateMachine(2, pdata)
	assert.False(t, d.runtime.LegionellaOn, "untrip on current >= target clears legionella_on")
}

func TestHeatRequestClampedToWinTMax(t *testing.T) {
	d, _ := newTestDHWT(t, 20)
	d.runtime.ChargeOn = true
	d.runtime.ElectricMode = false
	d.runtime.TargetTemp = numeric.CelsiusToTemp(55)
	d.runtime.ActualTemp = numeric.CelsiusToTemp(20)
	d.computeHeatRequest()
	assert.LessOrEqual(t, d.HeatRequest(), d.cfg.Params.LimitWinTMax)
}
