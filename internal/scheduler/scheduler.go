// Package scheduler is the scheduler collaborator (spec.md §6): a
// time-of-day run-mode override lookup. New, with no teacher analogue;
// kept minimal (a weekly table of time-bounded entries) per spec.md's
// explicit scope of "out of scope, consumed only via its interface".
package scheduler

import (
	"sort"
	"time"

	"github.com/rwchcd/rwchcd/internal/model"
)

// Params is the resolved schedule result for one lookup, or nil when no
// entry is active (spec.md §6: "returns none when no schedule active").
type Params struct {
	RunMode    model.RunMode
	DHWMode    model.RunMode
	Legionella bool
	Recycle    bool
}

// Entry is one weekly schedule slot: active on Weekday, from Start
// (inclusive) to End (exclusive), both minutes-since-midnight.
type Entry struct {
	Weekday    time.Weekday
	Start, End int // minutes since midnight
	Params     Params
}

// Schedule is a named weekly program consulted by scheduler_get_schedparams.
type Schedule struct {
	entries []Entry
}

func NewSchedule(entries []Entry) *Schedule {
	sorted := append([]Entry(nil), entries...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })
	return &Schedule{entries: sorted}
}

// Lookup implements scheduler_get_schedparams(schedid); the registry binds
// a schedid to one Schedule, so Lookup is a plain method here.
func (s *Schedule) Lookup(now time.Time) (Params, bool) {
	minuteOfDay := now.Hour()*60 + now.Minute()
	for _, e := range s.entries {
		if e.Weekday != now.Weekday() {
			continue
		}
		if minuteOfDay >= e.Start && minuteOfDay < e.End {
			return e.Params, true
		}
	}
	return Params{}, false
}

// Registry binds schedule ids (hcircuit.ScheduleID, dhwt schedule ids) to
// their Schedule.
type Registry struct {
	schedules map[string]*Schedule
}

func NewRegistry() *Registry {
	return &Registry{schedules: make(map[string]*Schedule)}
}

func (r *Registry) Register(id string, s *Schedule) {
	r.schedules[id] = s
}

// GetSchedparams implements scheduler_get_schedparams(schedid).
func (r *Registry) GetSchedparams(schedID string, now time.Time) (Params, bool) {
	s, ok := r.schedules[schedID]
	if !ok {
		return Params{}, false
	}
	return s.Lookup(now)
}
