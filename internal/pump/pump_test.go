package pump

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rwchcd/rwchcd/internal/model"
	"github.com/rwchcd/rwchcd/internal/relay"
)

func newTestPump(t *testing.T, cooldown int64) (*Pump, *relay.Registry) {
	t.Helper()
	relays := relay.NewRegistry()
	relays.SetSafeMode(true)
	relays.Register("r1", relay.Pin{Number: 1, ActiveHigh: true})
	p := New(model.PumpConfig{Name: "p1", RelayID: "r1", Cooldown: cooldown}, relays)
	require.Equal(t, model.OK, p.Online())
	return p, relays
}

func TestPumpOnIsImmediate(t *testing.T) {
	p, relays := newTestPump(t, 100)
	p.SetState(true, false, 0)
	require.Equal(t, model.OK, p.Run(0))
	assert.True(t, p.IsActive())
	on, _ := relays.StateGet("r1")
	assert.True(t, on)
}

func TestPumpOffDeferredUntilCooldown(t *testing.T) {
	p, _ := newTestPump(t, 100)
	p.SetState(true, false, 0)
	require.Equal(t, model.OK, p.Run(0))

	p.SetState(false, false, 10)
	require.Equal(t, model.OK, p.Run(10))
	assert.True(t, p.IsActive(), "should stay on until cooldown elapses")

	require.Equal(t, model.OK, p.Run(109))
	assert.True(t, p.IsActive(), "cooldown not yet elapsed")

	require.Equal(t, model.OK, p.Run(110))
	assert.False(t, p.IsActive(), "cooldown elapsed, pump switches off")
}

func TestPumpOffForcedBypassesCooldown(t *testing.T) {
	p, _ := newTestPump(t, 1000)
	p.SetState(true, false, 0)
	require.Equal(t, model.OK, p.Run(0))

	p.SetState(false, true, 5)
	assert.False(t, p.IsActive(), "forced off applies immediately")
}

func TestPumpShutdownForcesOff(t *testing.T) {
	p, _ := newTestPump(t, 1000)
	p.SetState(true, false, 0)
	require.Equal(t, model.OK, p.Run(0))

	p.Shutdown(1)
	assert.False(t, p.IsActive())
}
