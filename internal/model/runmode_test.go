package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsRunmodeDownshift(t *testing.T) {
	cases := []struct {
		prev, new RunMode
		want      bool
	}{
		{RunComfort, RunEco, true},
		{RunComfort, RunFrostFree, true},
		{RunComfort, RunOff, true},
		{RunEco, RunFrostFree, false}, // equivalent per spec
		{RunOff, RunComfort, false},
		{RunEco, RunComfort, false},
		{RunAuto, RunOff, false}, // AUTO has no thermal rank
		{RunTest, RunOff, false},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, IsRunmodeDownshift(c.prev, c.new), "prev=%v new=%v", c.prev, c.new)
	}
}

func TestStatusRecoverable(t *testing.T) {
	assert.True(t, Recoverable(Deadzone))
	assert.True(t, Recoverable(Deadband))
	assert.True(t, Recoverable(SensorStale))
	assert.False(t, Recoverable(Safety))
	assert.False(t, Recoverable(Misconfigured))
}

func TestStatusErrorUnwrap(t *testing.T) {
	cause := assert.AnError
	err := Wrap(SensorDisconnected, "zone-1/outgoing", cause)
	assert.Equal(t, SensorDisconnected, CodeOf(err))
	assert.ErrorIs(t, err, cause)
}
