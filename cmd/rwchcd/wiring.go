package main

import (
	"github.com/rs/zerolog/log"

	"github.com/rwchcd/rwchcd/internal/alarms"
	"github.com/rwchcd/rwchcd/internal/bmodel"
	"github.com/rwchcd/rwchcd/internal/config"
	"github.com/rwchcd/rwchcd/internal/dhwt"
	"github.com/rwchcd/rwchcd/internal/hcircuit"
	"github.com/rwchcd/rwchcd/internal/model"
	"github.com/rwchcd/rwchcd/internal/numeric"
	"github.com/rwchcd/rwchcd/internal/persistence"
	"github.com/rwchcd/rwchcd/internal/plant"
	"github.com/rwchcd/rwchcd/internal/pump"
	"github.com/rwchcd/rwchcd/internal/relay"
	"github.com/rwchcd/rwchcd/internal/runtime"
	"github.com/rwchcd/rwchcd/internal/scheduler"
	"github.com/rwchcd/rwchcd/internal/sensors"
	"github.com/rwchcd/rwchcd/internal/valve"
)

// wirer builds every entity named in the config file and registers it
// with the orchestrator, resolving cross-entity string ids to the
// pointers AttachActuators expects.
type wirer struct {
	cfg     config.Config
	sensors *sensors.Registry
	relays  *relay.Registry
	sched   *scheduler.Registry
	rt      *runtime.Runtime
	alarms  *alarms.Raiser
	bm      *bmodel.Model
	plant   *plant.Plant
	repo    *persistence.Repo

	pumps    map[string]*pump.Pump
	valves   map[string]*valve.Valve
	circuits map[string]*hcircuit.HCircuit
	dhwts    map[string]*dhwt.DHWT
}

func newWirer(cfg config.Config, sr *sensors.Registry, relays *relay.Registry, sched *scheduler.Registry, rt *runtime.Runtime, al *alarms.Raiser, bm *bmodel.Model, p *plant.Plant, repo *persistence.Repo) *wirer {
	return &wirer{
		cfg: cfg, sensors: sr, relays: relays, sched: sched, rt: rt, alarms: al, bm: bm, plant: p, repo: repo,
		pumps: make(map[string]*pump.Pump), valves: make(map[string]*valve.Valve),
		circuits: make(map[string]*hcircuit.HCircuit), dhwts: make(map[string]*dhwt.DHWT),
	}
}

func (w *wirer) buildPumps() {
	for _, pc := range w.cfg.Pumps {
		p := pump.New(model.PumpConfig{Name: pc.ID, RelayID: pc.RelayID, Cooldown: numeric.TimeTick(pc.Cooldown)}, w.relays)
		if st := p.Online(); st != model.OK {
			log.Error().Str("pump", pc.ID).Str("status", st.String()).Msg("pump failed to come online")
		}
		w.pumps[pc.ID] = p
		w.plant.AddPump(p)
	}
}

func (w *wirer) buildValves() {
	for _, vc := range w.cfg.Valves {
		motor := model.Motor3Way
		if vc.Motor == "2way" {
			motor = model.Motor2Way
		}
		kind := model.ValveMix
		if vc.Kind == "isol" {
			kind = model.ValveIsol
		}
		cfg := model.ValveConfig{
			Name: vc.ID, Kind: kind, Motor: motor, Algo: config.ValveAlgoOf(vc.Algo),
			RidOpen: vc.RidOpen, RidClose: vc.RidClose, RidTrigger: vc.RidTrigger,
			TriggerOpens: vc.TriggerOpens, Reverse: vc.Reverse,
			EteTime:        numeric.TimeTick(vc.EteSeconds),
			Deadband:       vc.DeadbandPerMil,
			Deadzone:       numeric.Delta(vc.DeadzoneK * float64(numeric.KPrecision)),
			SampleInterval: numeric.TimeTick(vc.SampleSeconds),
			SApproxStep:    vc.SApproxStep,
			TuneFactor:     vc.TuneTenths,
			Tu:             numeric.TimeTick(vc.TuSeconds),
			Td:             numeric.TimeTick(vc.TdSeconds),
		}
		v := valve.New(cfg, w.relays)
		if st := v.Online(); st != model.OK {
			log.Error().Str("valve", vc.ID).Str("status", st.String()).Msg("valve failed to come online")
		}
		w.valves[vc.ID] = v
		w.plant.AddValve(v)
	}
}

func (w *wirer) buildCircuits() {
	for _, hce := range w.cfg.HCircuits {
		cfg := model.HCircuitConfig{
			Name: hce.ID, SensorOut: hce.SensorOut, SensorRet: hce.SensorRet, SensorAmb: hce.SensorAmb,
			SensorHot:  hce.SensorHot,
			ScheduleID: hce.ScheduleID,
			TempLaw: model.TempLawParams{
				P1:    model.TempLawPoint{TOut: numeric.CelsiusToTemp(hce.TempLaw.P1OutC), TWater: numeric.CelsiusToTemp(hce.TempLaw.P1WaterC)},
				P2:    model.TempLawPoint{TOut: numeric.CelsiusToTemp(hce.TempLaw.P2OutC), TWater: numeric.CelsiusToTemp(hce.TempLaw.P2WaterC)},
				NH100: hce.TempLaw.NH100,
			},
			Params: model.HCircuitParams{
				TComfort: numeric.CelsiusToTemp(hce.TComfortC), TEco: numeric.CelsiusToTemp(hce.TEcoC), TFrostFree: numeric.CelsiusToTemp(hce.TFrostFreeC),
				LimitWtMin:           numeric.CelsiusToTemp(hce.LimitWtMinC),
				LimitWtMax:           numeric.CelsiusToTemp(hce.LimitWtMaxC),
				WtempRorh:            numeric.Delta(hce.WtempRorhKPerHour * float64(numeric.KPrecision)),
				AmbientFactor:        hce.AmbientFactorPercent,
				FastCooldown:         hce.FastCooldown,
			},
		}
		hc := hcircuit.New(cfg, w.bm, w.sensors, w.sched, w.rt, w.alarms)
		if snap, ok, err := w.repo.Load("hcircuit", hce.ID); err == nil && ok {
			if s, derr := persistence.DecodeHCircuit(snap); derr == nil {
				hc.SetRunmodeOverride(s.RunModeOverride)
				hc.SetTempOffsetOverride(s.TOffset)
			}
		}
		if st := hc.Online(); st != model.OK {
			log.Error().Str("hcircuit", hce.ID).Str("status", st.String()).Msg("circuit failed to come online")
		}
		hc.AttachActuators(w.valves[hce.ValveID], w.pumps[hce.PumpID])
		w.circuits[hce.ID] = hc
		w.plant.AddCircuit(hc)
	}
}

func (w *wirer) buildDHWTs() {
	for _, de := range w.cfg.DHWTs {
		cfg := model.DHWTConfig{
			Name: de.ID, SensorTop: de.SensorTop, SensorBottom: de.SensorBottom, SensorInlet: de.SensorInlet,
			RelaySelfHeater: de.RelaySelfHeater,
			Params: model.DHWTParams{
				TComfort: numeric.CelsiusToTemp(de.TComfortC), TEco: numeric.CelsiusToTemp(de.TEcoC),
				TFrostFree: numeric.CelsiusToTemp(de.TFrostFreeC), TLegionella: numeric.CelsiusToTemp(de.TLegionellaC),
				LimitTMin: numeric.CelsiusToTemp(de.LimitTMinC), LimitTMax: numeric.CelsiusToTemp(de.LimitTMaxC),
				LimitWinTMax: numeric.CelsiusToTemp(de.LimitWinTMaxC),
			},
			ChargePriority:    config.DHWPriorityOf(de.Priority),
			ForceMode:         config.ForceModeOf(de.ForceMode),
			AntiLegionella:    de.AntiLegionella,
			LegionellaRecycle: de.LegionellaRecycle,
			ElectricRecycle:   de.ElectricRecycle,
			TThreshDHWIsol:    model.NoThreshold,
		}
		d := dhwt.New(cfg, w.sensors, w.relays, w.sched, w.rt, w.alarms)
		if snap, ok, err := w.repo.Load("dhwt", de.ID); err == nil && ok {
			if s, derr := persistence.DecodeDHWT(snap); derr == nil {
				d.SetRunmodeOverride(s.RunModeOverride)
				d.SetForceChargeOn(s.ForceOn)
				d.SetLegionellaOn(s.LegionellaOn)
			}
		}
		if st := d.Online(); st != model.OK {
			log.Error().Str("dhwt", de.ID).Str("status", st.String()).Msg("dhwt failed to come online")
		}
		d.AttachActuators(w.pumps[de.FeedPumpID], w.pumps[de.RecyclePumpID], w.valves[de.FeedIsolID], w.valves[de.DHWIsolID])
		w.dhwts[de.ID] = d
		w.plant.AddDHWT(d)
	}
}

func (w *wirer) boilerConfig() model.BoilerConfig {
	b := w.cfg.Boiler
	return model.BoilerConfig{
		Name: b.ID, SensorBody: b.SensorBody, SensorReturn: b.SensorReturn, RelayBurner: b.RelayBurner,
		Params: model.BoilerParams{
			LimitTMin:      numeric.CelsiusToTemp(b.LimitTMinC),
			LimitTMax:      numeric.CelsiusToTemp(b.LimitTMaxC),
			LimitTHardMax:  numeric.CelsiusToTemp(b.LimitTHardMaxC),
			Hysteresis:     numeric.Delta(b.HysteresisK * float64(numeric.KPrecision)),
			BurnerMinTime:  numeric.TimeTick(b.BurnerMinSeconds),
			TFreeze:        numeric.CelsiusToTemp(b.TFreezeC),
			IdleMode:       config.IdleModeOf(b.IdleMode),
			ConsumerSDelay: numeric.TimeTick(b.ConsumerSDelaySec),
		},
	}
}

func (w *wirer) restoreBoiler(b interface{ Online() model.Status }) {
	if st := b.Online(); st != model.OK {
		log.Error().Str("boiler", w.cfg.Boiler.ID).Str("status", st.String()).Msg("boiler failed to come online")
	}
}
