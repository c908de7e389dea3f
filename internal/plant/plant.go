// Package plant implements the plant orchestrator (spec.md §4.7): the
// owning arrays of every entity kind, online/offline sequencing, the
// per-tick dispatch pipeline, priority arbitration, summer maintenance
// and shared pdata publication. Grounded on the teacher's
// system/startup+system/shutdown walk order (bring devices up leaf-first,
// tear down in reverse) and cmd/hvac-controller/main.go's single polling
// loop, generalized here into the spec's strict 8-step tick.
package plant

import (
	"github.com/rs/zerolog/log"

	"github.com/rwchcd/rwchcd/internal/alarms"
	"github.com/rwchcd/rwchcd/internal/dhwt"
	"github.com/rwchcd/rwchcd/internal/hcircuit"
	"github.com/rwchcd/rwchcd/internal/heatsource"
	"github.com/rwchcd/rwchcd/internal/model"
	"github.com/rwchcd/rwchcd/internal/numeric"
	"github.com/rwchcd/rwchcd/internal/pump"
	"github.com/rwchcd/rwchcd/internal/valve"
)

// SleepingDelay is the duration of continuous no-request operation
// required before plant_could_sleep is asserted (spec.md §4.7 step 4).
type Params struct {
	SleepingDelay      numeric.TimeTick
	DHWMaxPrio         model.DHWChargePriority
	SummerRunInterval  numeric.TimeTick
	SummerRunDuration  numeric.TimeTick
}

// Plant owns every entity and the shared pdata record.
type Plant struct {
	params Params
	alarms *alarms.Raiser

	pumps      []*pump.Pump
	valves     []*valve.Valve
	circuits   []*hcircuit.HCircuit
	dhwts      []*dhwt.DHWT
	heatsource heatsource.Source // single heat source, spec.md Non-goals

	data model.PlantData

	lastRequestTime   numeric.TimeTick
	summerRefTime     numeric.TimeTick
	summerMaintEndsAt numeric.TimeTick
}

func New(params Params, al *alarms.Raiser) *Plant {
	return &Plant{params: params, alarms: al, data: model.PlantData{PlantCouldSleep: true}}
}

func (p *Plant) AddPump(x *pump.Pump)         { p.pumps = append(p.pumps, x) }
func (p *Plant) AddValve(x *valve.Valve)      { p.valves = append(p.valves, x) }
func (p *Plant) AddCircuit(x *hcircuit.HCircuit) { p.circuits = append(p.circuits, x) }
func (p *Plant) AddDHWT(x *dhwt.DHWT)         { p.dhwts = append(p.dhwts, x) }
func (p *Plant) SetHeatsource(x heatsource.Source) { p.heatsource = x }

func (p *Plant) Data() model.PlantData { return p.data }

// Online brings entities up leaf-first: pumps, valves, then circuits and
// DHWTs, then the heatsource; per-entity failures are logged and recorded,
// never aborting the sequence (spec.md §4.7).
func (p *Plant) Online() {
	p.data.PlantCouldSleep = true

	for _, x := range p.pumps {
		if st := x.Online(); st != model.OK {
			p.recordFault("pump", x.Name(), st)
		}
	}
	for _, x := range p.valves {
		if st := x.Online(); st != model.OK {
			p.recordFault("valve", x.Name(), st)
		}
	}
	for _, x := range p.circuits {
		if st := x.Online(); st != model.OK {
			p.recordFault("hcircuit", x.Name(), st)
		}
	}
	for _, x := range p.dhwts {
		if st := x.Online(); st != model.OK {
			p.recordFault("dhwt", x.Name(), st)
		}
	}
	if p.heatsource != nil {
		if st := p.heatsource.Online(); st != model.OK {
			p.recordFault("heatsource", p.heatsource.Name(), st)
		}
	}
}

// Offline walks the reverse order, failing soft.
func (p *Plant) Offline() {
	if p.heatsource != nil {
		p.heatsource.Offline()
	}
	for _, x := range p.dhwts {
		x.Offline()
	}
	for _, x := range p.circuits {
		x.Offline()
	}
	for _, x := range p.valves {
		x.Offline()
	}
	for _, x := range p.pumps {
		x.Offline(0)
	}
}

func (p *Plant) recordFault(kind, name string, st model.Status) {
	log.Error().Str("kind", kind).Str("name", name).Str("status", st.String()).Msg("entity fault")
	if p.alarms != nil {
		p.alarms.Raise(st, kind+"/"+name, "entity fault: %s", st)
	}
}
