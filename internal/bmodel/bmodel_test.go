package bmodel

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rwchcd/rwchcd/internal/numeric"
)

func TestUpdateFirstSampleSeedsMixDirectly(t *testing.T) {
	m := New(Params{Tau: 600, SummerThreshold: numeric.CelsiusToTemp(18), FrostThreshold: numeric.CelsiusToTemp(1)})
	m.Update(numeric.CelsiusToTemp(5), 100)
	assert.Equal(t, numeric.CelsiusToTemp(5), m.TOutMix())
}

func TestUpdateFiltersTowardNewSample(t *testing.T) {
	m := New(Params{Tau: 600, SummerThreshold: numeric.CelsiusToTemp(18), FrostThreshold: numeric.CelsiusToTemp(1)})
	m.Update(numeric.CelsiusToTemp(5), 100)
	m.Update(numeric.CelsiusToTemp(25), 200)
	mix := m.TOutMix()
	assert.Greater(t, int32(mix), int32(numeric.CelsiusToTemp(5)))
	assert.Less(t, int32(mix), int32(numeric.CelsiusToTemp(25)))
}

func TestSummerAndFrostFlags(t *testing.T) {
	m := New(Params{Tau: 600, SummerThreshold: numeric.CelsiusToTemp(18), FrostThreshold: numeric.CelsiusToTemp(1)})
	m.Update(numeric.CelsiusToTemp(20), 100)
	assert.True(t, m.Summer())
	assert.False(t, m.Frost())

	m.Update(numeric.CelsiusToTemp(-2), 200)
	assert.False(t, m.Summer())
	assert.True(t, m.Frost())
}

func TestFeaturesSnapshotsCurrentState(t *testing.T) {
	m := New(Params{Tau: 600, SummerThreshold: numeric.CelsiusToTemp(18), FrostThreshold: numeric.CelsiusToTemp(1)})
	m.SetOnline(true)
	m.Update(numeric.CelsiusToTemp(10), 100)

	f := m.Features()
	assert.Equal(t, numeric.CelsiusToTemp(10), f.TOut)
	assert.True(t, f.Online)
	assert.Equal(t, numeric.TimeTick(600), f.Tau)
}
