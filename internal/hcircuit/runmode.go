package hcircuit

import (
	"time"

	"github.com/rwchcd/rwchcd/internal/model"
)

// schedulerNow returns the wall-clock time schedule lookups are made
// against; it is a plain function, not a replaceable hook, so the
// scheduler collaborator (out of the core's scope, spec.md §1) is always
// consulted against real time.
func schedulerNow() time.Time { return time.Now() }

// resolveEffectiveMode implements spec.md §4.4's state machine: the first
// non-AUTO value of system mode, local override, schedule, or global run
// mode, with the three special runtime overrides applied afterward.
func (c *HCircuit) resolveEffectiveMode(pdata *model.PlantData) model.RunMode {
	mode := c.resolveChain()

	if pdata.HsOvertemp {
		return model.RunComfort
	}
	if pdata.DHWCAbsolute {
		return model.RunDHWOnly
	}
	if pdata.SummerMaint {
		return model.RunSummaint
	}
	return mode
}

func (c *HCircuit) resolveChain() model.RunMode {
	sys := c.rt.SystemMode()
	if sys == model.RunOff || sys == model.RunTest {
		return sys
	}
	if c.runtime.RunModeOverride != model.RunAuto {
		return c.runtime.RunModeOverride
	}
	if sched, ok := c.scheduler.GetSchedparams(c.cfg.ScheduleID, schedulerNow()); ok && sched.RunMode != model.RunAuto {
		return sched.RunMode
	}
	if global := c.rt.RunMode(); global != model.RunAuto {
		return global
	}
	return model.RunComfort
}
