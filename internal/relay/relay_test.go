package relay

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rwchcd/rwchcd/internal/model"
)

func newTestRegistry() *Registry {
	r := NewRegistry()
	r.SetSafeMode(true)
	r.Register("pump1", Pin{Number: 17, ActiveHigh: true})
	return r
}

func TestGrabAndThaw(t *testing.T) {
	r := newTestRegistry()
	assert.Equal(t, model.OK, r.Grab("pump1", "circuit1"))
	assert.Equal(t, model.Mismatch, r.Grab("pump1", "circuit2"))

	r.Thaw("pump1", "circuit1")
	assert.Equal(t, model.OK, r.Grab("pump1", "circuit2"))
}

func TestGrabUnknownRelay(t *testing.T) {
	r := newTestRegistry()
	assert.Equal(t, model.NotConfigured, r.Grab("nope", "circuit1"))
}

func TestStateSetAndGetUnderSafeMode(t *testing.T) {
	r := newTestRegistry()
	assert.Equal(t, model.OK, r.StateSet("pump1", true))
	on, st := r.StateGet("pump1")
	assert.Equal(t, model.OK, st)
	assert.True(t, on)
}

func TestStateSetUnknownRelay(t *testing.T) {
	r := newTestRegistry()
	assert.Equal(t, model.NotConfigured, r.StateSet("nope", true))
}

func TestThawIgnoresWrongOwner(t *testing.T) {
	r := newTestRegistry()
	r.Grab("pump1", "circuit1")
	r.Thaw("pump1", "circuit2")
	assert.Equal(t, model.Mismatch, r.Grab("pump1", "circuit2"))
}
