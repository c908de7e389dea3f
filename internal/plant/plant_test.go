package plant

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rwchcd/rwchcd/internal/alarms"
	"github.com/rwchcd/rwchcd/internal/bmodel"
	"github.com/rwchcd/rwchcd/internal/dhwt"
	"github.com/rwchcd/rwchcd/internal/hcircuit"
	"github.com/rwchcd/rwchcd/internal/heatsource/boiler"
	"github.com/rwchcd/rwchcd/internal/model"
	"github.com/rwchcd/rwchcd/internal/numeric"
	"github.com/rwchcd/rwchcd/internal/pump"
	"github.com/rwchcd/rwchcd/internal/relay"
	"github.com/rwchcd/rwchcd/internal/runtime"
	"github.com/rwchcd/rwchcd/internal/scheduler"
	"github.com/rwchcd/rwchcd/internal/sensors"
	"github.com/rwchcd/rwchcd/internal/valve"
)

type fakeBackend struct{ c float64 }

func (f *fakeBackend) Read(id string) (float64, error) { return f.c, nil }

// buildTestPlant wires one circuit, one DHWT and a boiler behind a shared
// sensor/relay registry, mirroring the minimal single-circuit-plus-tank
// topology spec.md §8's scenarios exercise.
func buildTestPlant(t *testing.T) *Plant {
	t.Helper()

	sr := sensors.NewRegistry(0)
	sr.Register("circ_out", "circ_out", &fakeBackend{c: 35})
	sr.Register("outdoor", "outdoor", &fakeBackend{c: 5})
	sr.Register("dhwt_bottom", "dhwt_bottom", &fakeBackend{c: 30})
	sr.Register("boiler_body", "boiler_body", &fakeBackend{c: 40})
	sr.Poll(1)

	relays := relay.NewRegistry()
	relays.SetSafeMode(true)
	relays.Register("circ_pump", relay.Pin{Number: 1, ActiveHigh: true})
	relays.Register("circ_open", relay.Pin{Number: 2, ActiveHigh: true})
	relays.Register("circ_close", relay.Pin{Number: 3, ActiveHigh: true})
	relays.Register("dhwt_pump", relay.Pin{Number: 4, ActiveHigh: true})
	relays.Register("burner", relay.Pin{Number: 5, ActiveHigh: true})

	al := alarms.NewRaiser(nil, 0)
	rt := runtime.New()
	sched := scheduler.NewRegistry()

	bm := bmodel.New(bmodel.Params{Tau: 600, SummerThreshold: numeric.CelsiusToTemp(18), FrostThreshold: numeric.CelsiusToTemp(1)})
	bm.SetOnline(true)
	bm.Update(numeric.CelsiusToTemp(5), 1)

	vcfg := model.ValveConfig{
		Name: "circ_valve", Kind: model.ValveMix, Motor: model.Motor3Way, Algo: model.AlgoBangBang,
		RidOpen: "circ_open", RidClose: "circ_close", EteTime: 100, Deadband: 20, Deadzone: numeric.Delta(2 * numeric.KPrecision),
	}
	v := valve.New(vcfg, relays)
	require.Equal(t, model.OK, v.Online())

	pcfg := model.PumpConfig{Name: "circ_pump", RelayID: "circ_pump", Cooldown: 30}
	circPump := pump.New(pcfg, relays)
	require.Equal(t, model.OK, circPump.Online())

	hccfg := model.HCircuitConfig{
		Name: "circuit1", SensorOut: "circ_out",
		TempLaw: model.TempLawParams{
			P1: model.TempLawPoint{TOut: numeric.CelsiusToTemp(-10), TWater: numeric.CelsiusToTemp(50)},
			P2: model.TempLawPoint{TOut: numeric.CelsiusToTemp(15), TWater: numeric.CelsiusToTemp(30)},
			NH100: 100,
		},
		Params: model.HCircuitParams{
			TComfort: numeric.CelsiusToTemp(20), TEco: numeric.CelsiusToTemp(17), TFrostFree: numeric.CelsiusToTemp(7),
			LimitWtMin: numeric.CelsiusToTemp(20), LimitWtMax: numeric.CelsiusToTemp(60),
		},
	}
	hc := hcircuit.New(hccfg, bm, sr, sched, rt, al)
	require.Equal(t, model.OK, hc.Online())
	hc.AttachActuators(v, circPump)

	dpcfg := model.PumpConfig{Name: "dhwt_pump", RelayID: "dhwt_pump", Cooldown: 0}
	dhwtPump := pump.New(dpcfg, relays)
	require.Equal(t, model.OK, dhwtPump.Online())

	dcfg := model.DHWTConfig{
		Name: "dhwt1", SensorBottom: "dhwt_bottom",
		Params: model.DHWTParams{
			TComfort: numeric.CelsiusToTemp(55), TEco: numeric.CelsiusToTemp(45),
			LimitTMin: numeric.CelsiusToTemp(10), LimitTMax: numeric.CelsiusToTemp(65), LimitWinTMax: numeric.CelsiusToTemp(70),
		},
		ChargePriority: model.PrioParalDHW,
	}
	d := dhwt.New(dcfg, sr, relays, sched, rt, al)
	require.Equal(t, model.OK, d.Online())
	d.AttachActuators(dhwtPump, nil, nil, nil)

	bcfg := model.BoilerConfig{
		Name: "boiler1", SensorBody: "boiler_body", RelayBurner: "burner",
		Params: model.BoilerParams{
			LimitTMin: numeric.CelsiusToTemp(20), LimitTMax: numeric.CelsiusToTemp(80), LimitTHardMax: numeric.CelsiusToTemp(95),
			Hysteresis: numeric.Delta(5 * numeric.KPrecision), BurnerMinTime: 0, TFreeze: numeric.CelsiusToTemp(3), IdleMode: model.IdleAlways,
		},
	}
	b := boiler.New(bcfg, sr, relays, al)
	require.Equal(t, model.OK, b.Online())

	p := New(Params{SleepingDelay: 600}, al)
	p.AddValve(v)
	p.AddPump(circPump)
	p.AddPump(dhwtPump)
	p.AddCircuit(hc)
	p.AddDHWT(d)
	p.SetHeatsource(b)
	return p
}

func TestPlantTickRunsFullPipeline(t *testing.T) {
	p := buildTestPlant(t)
	st := p.Run(1)
	assert.NotEqual(t, model.Generic, st)
	assert.False(t, p.Data().PlantCouldSleep)
}

func TestPlantAggregatesRequestAfterDHWTForceCharge(t *testing.T) {
	p := buildTestPlant(t)
	p.dhwts[0].SetForceChargeOn(true)
	_, currPrio, hasRequest := p.aggregateRequests()
	assert.True(t, hasRequest)
	_ = currPrio
}

func TestPlantCouldSleepAssertsAfterDelay(t *testing.T) {
	p := buildTestPlant(t)
	p.updateCouldSleep(true, 1)
	assert.False(t, p.Data().PlantCouldSleep)
	p.updateCouldSleep(false, 700)
	assert.True(t, p.Data().PlantCouldSleep)
}

func TestPlantOnlineOfflineSequencing(t *testing.T) {
	p := buildTestPlant(t)
	p.Online()
	p.Offline()
}
