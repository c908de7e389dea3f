package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rwchcd/rwchcd/internal/model"
)

func TestScheduleLookupMatchesActiveEntry(t *testing.T) {
	s := NewSchedule([]Entry{
		{Weekday: time.Monday, Start: 6 * 60, End: 22 * 60, Params: Params{RunMode: model.RunComfort}},
	})

	monday0700 := time.Date(2026, time.March, 2, 7, 0, 0, 0, time.UTC)
	require.Equal(t, time.Monday, monday0700.Weekday())

	p, ok := s.Lookup(monday0700)
	require.True(t, ok)
	assert.Equal(t, model.RunComfort, p.RunMode)
}

func TestScheduleLookupMissesOutsideWindow(t *testing.T) {
	s := NewSchedule([]Entry{
		{Weekday: time.Monday, Start: 6 * 60, End: 22 * 60, Params: Params{RunMode: model.RunComfort}},
	})

	monday2300 := time.Date(2026, time.March, 2, 23, 0, 0, 0, time.UTC)
	_, ok := s.Lookup(monday2300)
	assert.False(t, ok)
}

func TestScheduleLookupMissesWrongWeekday(t *testing.T) {
	s := NewSchedule([]Entry{
		{Weekday: time.Monday, Start: 0, End: 24 * 60, Params: Params{RunMode: model.RunComfort}},
	})

	tuesdayNoon := time.Date(2026, time.March, 3, 12, 0, 0, 0, time.UTC)
	_, ok := s.Lookup(tuesdayNoon)
	assert.False(t, ok)
}

func TestRegistryGetSchedparamsUnknownID(t *testing.T) {
	r := NewRegistry()
	_, ok := r.GetSchedparams("nope", time.Now())
	assert.False(t, ok)
}

func TestRegistryGetSchedparamsRegistered(t *testing.T) {
	r := NewRegistry()
	r.Register("weekday-comfort", NewSchedule([]Entry{
		{Weekday: time.Wednesday, Start: 6 * 60, End: 22 * 60, Params: Params{RunMode: model.RunEco, Legionella: true}},
	}))

	wed := time.Date(2026, time.March, 4, 8, 0, 0, 0, time.UTC)
	require.Equal(t, time.Wednesday, wed.Weekday())

	p, ok := r.GetSchedparams("weekday-comfort", wed)
	require.True(t, ok)
	assert.Equal(t, model.RunEco, p.RunMode)
	assert.True(t, p.Legionella)
}
