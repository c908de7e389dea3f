package runtime

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rwchcd/rwchcd/internal/model"
)

func TestNewDefaultsToAuto(t *testing.T) {
	r := New()
	assert.Equal(t, model.RunAuto, r.SystemMode())
	assert.Equal(t, model.RunAuto, r.RunMode())
	assert.Equal(t, model.RunAuto, r.DHWMode())
	assert.False(t, r.StopDHW())
}

func TestSettersArePersisted(t *testing.T) {
	r := New()
	r.SetSystemMode(model.RunComfort)
	r.SetRunMode(model.RunEco)
	r.SetDHWMode(model.RunFrostFree)
	r.SetStopDHW(true)

	assert.Equal(t, model.RunComfort, r.SystemMode())
	assert.Equal(t, model.RunEco, r.RunMode())
	assert.Equal(t, model.RunFrostFree, r.DHWMode())
	assert.True(t, r.StopDHW())
}

func TestAdvanceStampsTick(t *testing.T) {
	r := New()
	r.Advance(42)
	assert.Equal(t, 42, int(r.Tick()))
}
