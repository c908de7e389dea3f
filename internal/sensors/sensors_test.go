package sensors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rwchcd/rwchcd/internal/model"
	"github.com/rwchcd/rwchcd/internal/numeric"
)

type fakeBackend struct {
	c   float64
	err error
}

func (f *fakeBackend) Read(id string) (float64, error) { return f.c, f.err }

func TestPollAndGetHappyPath(t *testing.T) {
	r := NewRegistry(0)
	r.Register("out", "outdoor", &fakeBackend{c: 12.5})
	r.Poll(100)

	temp, st := r.Get("out", 100)
	require.Equal(t, model.OK, st)
	assert.InDelta(t, 12.5, numeric.TempToCelsius(temp), 0.01)
}

func TestGetUnregisteredReturnsNotConfigured(t *testing.T) {
	r := NewRegistry(0)
	_, st := r.Get("nope", 0)
	assert.Equal(t, model.NotConfigured, st)
}

func TestPollFailureMarksSensorDisconnected(t *testing.T) {
	r := NewRegistry(0)
	r.Register("out", "outdoor", &fakeBackend{err: errors.New("bus error")})
	r.Poll(100)

	_, st := r.Get("out", 100)
	assert.Equal(t, model.SensorDisconnected, st)
}

func TestGetReturnsStaleAfterStaleAfterTicks(t *testing.T) {
	r := NewRegistry(10)
	r.Register("out", "outdoor", &fakeBackend{c: 20})
	r.Poll(100)

	_, st := r.Get("out", 111)
	assert.Equal(t, model.SensorStale, st)
}

func TestFindByName(t *testing.T) {
	r := NewRegistry(0)
	r.Register("out", "outdoor", &fakeBackend{c: 20})

	id, ok := r.FindByName("outdoor")
	require.True(t, ok)
	assert.Equal(t, "out", id)

	_, ok = r.FindByName("nope")
	assert.False(t, ok)
}
