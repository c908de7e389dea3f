// Command rwchcd is the central heating controller daemon: it loads the
// plant configuration, wires every entity and collaborator together, and
// runs the periodic control loop until a shutdown signal arrives.
// Grounded on the teacher's cmd/hvac-controller/main.go (load config, init
// logging, validate GPIO, load persisted state, run the controller under
// a cancellable context, wait on SIGINT/SIGTERM).
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/rwchcd/rwchcd/internal/alarms"
	"github.com/rwchcd/rwchcd/internal/bmodel"
	"github.com/rwchcd/rwchcd/internal/config"
	"github.com/rwchcd/rwchcd/internal/heatsource/boiler"
	"github.com/rwchcd/rwchcd/internal/logging"
	"github.com/rwchcd/rwchcd/internal/metrics"
	"github.com/rwchcd/rwchcd/internal/model"
	"github.com/rwchcd/rwchcd/internal/numeric"
	"github.com/rwchcd/rwchcd/internal/persistence"
	"github.com/rwchcd/rwchcd/internal/plant"
	"github.com/rwchcd/rwchcd/internal/relay"
	"github.com/rwchcd/rwchcd/internal/remote"
	"github.com/rwchcd/rwchcd/internal/runtime"
	"github.com/rwchcd/rwchcd/internal/scheduler"
	"github.com/rwchcd/rwchcd/internal/sensors"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	logging.Init(logging.ParseLevel(cfg.LogLevel), os.Stderr)
	log.Info().Str("config_file", cfg.ConfigFile).Msg("starting rwchcd")

	repo, err := persistence.Open(cfg.StateFile)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open persistent state store")
	}
	defer repo.Close()

	var notifier alarms.Notifier
	if cfg.NtfyTopic != "" {
		notifier = alarms.NewNtfyNotifier(cfg.NtfyTopic)
	}
	alarmsR := alarms.NewRaiser(notifier, 15*time.Minute)

	sensorsR := buildSensors(cfg)
	relays := buildRelays(cfg)

	rt := runtime.New()
	sched := scheduler.NewRegistry()
	bm := bmodel.New(bmodel.Params{Tau: 1800, SummerThreshold: numeric.CelsiusToTemp(18), FrostThreshold: numeric.CelsiusToTemp(1)})
	bm.SetOnline(true)

	orchestrator := plant.New(plant.Params{
		SleepingDelay:     numeric.TimeTick(cfg.SleepingDelaySeconds),
		SummerRunInterval: numeric.TimeTick(cfg.SummerRunIntervalDays * 86400),
		SummerRunDuration: numeric.TimeTick(cfg.SummerRunDurationSeconds),
	}, alarmsR)

	w := newWirer(cfg, sensorsR, relays, sched, rt, alarmsR, bm, orchestrator, repo)
	w.buildPumps()
	w.buildValves()
	w.buildCircuits()
	w.buildDHWTs()

	b := boiler.New(w.boilerConfig(), sensorsR, relays, alarmsR)
	if lp, ok := w.pumps[cfg.Boiler.LoadPumpID]; ok {
		b.AttachActuators(lp, w.valves[cfg.Boiler.ReturnValveID])
	}
	w.restoreBoiler(b)
	orchestrator.SetHeatsource(b)

	orchestrator.Online()
	defer orchestrator.Offline()

	var md *metrics.Datadog
	if cfg.DatadogAddr != "" {
		md = metrics.NewDatadog(cfg.DatadogAddr, "rwchcd", nil)
	}
	prom := metrics.NewPrometheus()

	server := remote.NewServer(rt, orchestrator, w.circuits, w.dhwts)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.HTTPPort != 0 {
		go serveHTTP(cfg.HTTPPort, server, prom)
	}

	go runLoop(ctx, orchestrator, sensorsR, server, md, numeric.TimeTick(cfg.PollIntervalSeconds))

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info().Msg("shutdown signal received, exiting")
}

func serveHTTP(port int, server *remote.Server, prom *metrics.Prometheus) {
	mux := http.NewServeMux()
	mux.Handle("/", server.Handler())
	mux.Handle("/metrics", prom.Handler())
	addr := fmt.Sprintf(":%d", port)
	log.Info().Str("address", addr).Msg("remote control bus listening")
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Error().Err(err).Msg("remote control bus stopped")
	}
}

func runLoop(ctx context.Context, p *plant.Plant, sr *sensors.Registry, server *remote.Server, md *metrics.Datadog, period numeric.TimeTick) {
	if period <= 0 {
		period = 10
	}
	ticker := time.NewTicker(time.Duration(period) * time.Second)
	defer ticker.Stop()

	var tick numeric.TimeTick
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			tick += period
			sr.Poll(tick)
			if st := p.Run(tick); st != model.OK {
				log.Warn().Str("status", st.String()).Msg("plant tick completed with faults")
			}
			data := p.Data()
			server.Broadcast(data)
			if md != nil {
				md.Gauge("plant.consumer_shift", float64(data.ConsumerShift))
			}
		}
	}
}

func buildSensors(cfg config.Config) *sensors.Registry {
	sr := sensors.NewRegistry(5 * 60)
	onewirePaths := map[string]string{}
	modbusRegisters := map[string]sensors.ModbusRegister{}
	for _, sc := range cfg.Sensors {
		if sc.Backend == "modbus" {
			modbusRegisters[sc.ID] = sensors.ModbusRegister{Address: sc.Address, Signed: sc.Signed, Scale: sc.Scale}
			continue
		}
		onewirePaths[sc.ID] = sc.Path
	}
	ow := &sensors.OneWire{Paths: onewirePaths}
	for id := range onewirePaths {
		sr.Register(id, id, ow)
	}
	if cfg.ModbusAddr != "" && len(modbusRegisters) > 0 {
		mb, err := sensors.NewModbus(cfg.ModbusAddr, 1, 2*time.Second, modbusRegisters)
		if err != nil {
			log.Error().Err(err).Msg("modbus sensor backend unavailable")
		} else {
			for id := range modbusRegisters {
				sr.Register(id, id, mb)
			}
		}
	}
	return sr
}

func buildRelays(cfg config.Config) *relay.Registry {
	r := relay.NewRegistry()
	for _, rc := range cfg.Relays {
		r.Register(rc.ID, relay.Pin{Number: rc.Pin, ActiveHigh: rc.ActiveHigh})
	}
	return r
}
