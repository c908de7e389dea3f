package alarms

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rwchcd/rwchcd/internal/model"
)

type fakeNotifier struct {
	calls []string
}

func (f *fakeNotifier) Notify(title, message string) error {
	f.calls = append(f.calls, title)
	return nil
}

func TestRaiseDeliversOnce(t *testing.T) {
	n := &fakeNotifier{}
	r := NewRaiser(n, time.Minute)
	r.Raise(model.SensorDisconnected, "out", "sensor %s failed", "out")
	require.Len(t, n.calls, 1)
}

func TestRaiseSuppressesWithinQuiescence(t *testing.T) {
	n := &fakeNotifier{}
	r := NewRaiser(n, time.Minute)
	now := time.Now()
	r.now = func() time.Time { return now }

	r.Raise(model.SensorDisconnected, "out", "down")
	r.now = func() time.Time { return now.Add(30 * time.Second) }
	r.Raise(model.SensorDisconnected, "out", "down")

	assert.Len(t, n.calls, 1)
}

func TestRaiseReRaisesAfterQuiescenceElapses(t *testing.T) {
	n := &fakeNotifier{}
	r := NewRaiser(n, time.Minute)
	now := time.Now()
	r.now = func() time.Time { return now }
	r.Raise(model.SensorDisconnected, "out", "down")

	r.now = func() time.Time { return now.Add(2 * time.Minute) }
	r.Raise(model.SensorDisconnected, "out", "down")

	assert.Len(t, n.calls, 2)
}

func TestRaiseDistinguishesBySubject(t *testing.T) {
	n := &fakeNotifier{}
	r := NewRaiser(n, time.Minute)
	r.Raise(model.SensorDisconnected, "out", "down")
	r.Raise(model.SensorDisconnected, "ret", "down")
	assert.Len(t, n.calls, 2)
}

func TestRaiseWithoutNotifierDoesNotPanic(t *testing.T) {
	r := NewRaiser(nil, time.Minute)
	assert.NotPanics(t, func() {
		r.Raise(model.SensorDisconnected, "out", "down")
	})
}
