package hcircuit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rwchcd/rwchcd/internal/alarms"
	"github.com/rwchcd/rwchcd/internal/bmodel"
	"github.com/rwchcd/rwchcd/internal/model"
	"github.com/rwchcd/rwchcd/internal/numeric"
	"github.com/rwchcd/rwchcd/internal/runtime"
	"github.com/rwchcd/rwchcd/internal/scheduler"
	"github.com/rwchcd/rwchcd/internal/sensors"
)

type fakeBackend struct{ c float64 }

func (f *fakeBackend) Read(id string) (float64, error) { return f.c, nil }

func newTestCircuit(t *testing.T) (*HCircuit, *sensors.Registry, *bmodel.Model) {
	t.Helper()
	sr := sensors.NewRegistry(0)
	sr.Register("out", "out", &fakeBackend{c: 40})
	sr.Poll(1)

	bm := bmodel.New(bmodel.Params{
		Tau:             numeric.SecToTk(48 * 3600),
		SummerThreshold: numeric.CelsiusToTemp(22),
		FrostThreshold:  numeric.CelsiusToTemp(-10),
	})
	bm.Update(numeric.CelsiusToTemp(-5), 1)

	sched := scheduler.NewRegistry()
	rt := runtime.New()
	al := alarms.NewRaiser(nil, 0)

	cfg := model.HCircuitConfig{
		Name:      "zone1",
		SensorOut: "out",
		TempLaw: model.TempLawParams{
			P1:    model.TempLawPoint{TOut: numeric.CelsiusToTemp(-15), TWater: numeric.CelsiusToTemp(60)},
			P2:    model.TempLawPoint{TOut: numeric.CelsiusToTemp(15), TWater: numeric.CelsiusToTemp(30)},
			NH100: 130,
		},
		Params: model.HCircuitParams{
			TComfort:           numeric.CelsiusToTemp(20),
			TEco:               numeric.CelsiusToTemp(17),
			TFrostFree:         numeric.CelsiusToTemp(7),
			OutOffComfort:      model.NoThreshold,
			LimitWtMin:         numeric.CelsiusToTemp(20),
			LimitWtMax:         numeric.CelsiusToTemp(80),
			AmbientFactor:      100,
			AmbientBoostDelta:  numeric.Delta(2 * numeric.KPrecision),
			BoostMaxTime:       45 * 60,
		},
	}
	c := New(cfg, bm, sr, sched, rt, al)
	require.Equal(t, model.OK, c.Online())
	return c, sr, bm
}

func TestHeatRequestWithinLimitsWhenActive(t *testing.T) {
	c, _, _ := newTestCircuit(t)
	pdata := &model.PlantData{}
	require.Equal(t, model.OK, c.Run(1, pdata))
	if c.HeatRequest() != model.NoRequest {
		assert.GreaterOrEqual(t, c.HeatRequest(), c.cfg.Params.LimitWtMin)
		assert.LessOrEqual(t, c.HeatRequest(), numeric.AddDelta(c.cfg.Params.LimitWtMax, c.cfg.Params.TempInOffset))
	}
}

func TestOffOnFailedOutgoingSensor(t *testing.T) {
	c, sr, _ := newTestCircuit(t)
	_ = sr
	c.cfg.SensorOut = "missing"
	pdata := &model.PlantData{}
	st := c.Run(1, pdata)
	assert.NotEqual(t, model.OK, st)
	assert.Equal(t, model.NoRequest, c.HeatRequest())
}

func TestDHWAbsoluteForcesCircuitDHWOnly(t *testing.T) {
	c, _, _ := newTestCircuit(t)
	pdata := &model.PlantData{DHWCAbsolute: true}
	require.Equal(t, model.OK, c.Run(1, pdata))
	assert.Equal(t, model.RunDHWOnly, c.runtime.RunMode)
}

func TestSummerMaintenanceBypassesNormalLogic(t *testing.T) {
	c, _, _ := newTestCircuit(t)
	pdata := &model.PlantData{SummerMaint: true}
	require.Equal(t, model.OK, c.Run(1, pdata))
	assert.Equal(t, model.NoRequest, c.HeatRequest())
}
