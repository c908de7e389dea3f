// Package heatsource defines the Source capability interface (spec.md §9:
// "online, offline, logic, run, current_temp, last_update_time, destroy")
// that the plant orchestrator dispatches against. The boiler variant
// (subpackage boiler) is the only implementation; the shape admits others.
package heatsource

import (
	"github.com/rwchcd/rwchcd/internal/model"
	"github.com/rwchcd/rwchcd/internal/numeric"
)

// Source is the capability set every heatsource implementation provides.
type Source interface {
	Online() model.Status
	Offline() model.Status
	Logic(now numeric.TimeTick, temperatureRequest numeric.Temp, runMode model.RunMode, couldSleep bool) model.Status
	Run(now numeric.TimeTick) model.Status
	CurrentTemp() (numeric.Temp, model.Status)
	LastUpdateTime() numeric.TimeTick
	Name() string
	ConsumerShift() (critical, nonCritical int32)
	ConsumerSDelay() numeric.TimeTick
	Overtemp() bool
	Destroy()
}
