// Package config loads the plant's static configuration: entity
// definitions, sensor/relay wiring, and collaborator settings. Grounded
// on the teacher's internal/config.Load (flag-selected file path, single
// decode into a validated struct), generalized from a flat JSON/GPIO-pin
// schema to yaml.v3 and the spec's nested entity model (spec.md §3).
package config

import (
	"flag"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/rwchcd/rwchcd/internal/model"
	"github.com/rwchcd/rwchcd/internal/numeric"
)

// SensorConfig describes one sensor backend binding.
type SensorConfig struct {
	ID      string  `yaml:"id"`
	Backend string  `yaml:"backend"` // "onewire" or "modbus"
	Path    string  `yaml:"path,omitempty"`
	Address uint16  `yaml:"address,omitempty"`
	Signed  bool    `yaml:"signed,omitempty"`
	Scale   float64 `yaml:"scale,omitempty"`
}

// RelayConfig describes one GPIO relay binding.
type RelayConfig struct {
	ID         string `yaml:"id"`
	Pin        int    `yaml:"pin"`
	ActiveHigh bool   `yaml:"active_high"`
}

// PumpEntry is one configured pump.
type PumpEntry struct {
	ID       string  `yaml:"id"`
	RelayID  string  `yaml:"relay_id"`
	Cooldown float64 `yaml:"cooldown_seconds"`
}

// ValveEntry is one configured valve.
type ValveEntry struct {
	ID             string  `yaml:"id"`
	Kind           string  `yaml:"kind"` // "mix" | "isol"
	Motor          string  `yaml:"motor"` // "3way" | "2way"
	Algo           string  `yaml:"algo"`  // "bangbang" | "sapprox" | "pi"
	RidOpen        string  `yaml:"rid_open,omitempty"`
	RidClose       string  `yaml:"rid_close,omitempty"`
	RidTrigger     string  `yaml:"rid_trigger,omitempty"`
	TriggerOpens   bool    `yaml:"trigger_opens,omitempty"`
	Reverse        bool    `yaml:"reverse,omitempty"`
	EteSeconds     float64 `yaml:"ete_seconds"`
	DeadbandPerMil int32   `yaml:"deadband_permil"`
	DeadzoneK      float64 `yaml:"deadzone_k"`
	SampleSeconds  float64 `yaml:"sample_seconds,omitempty"`
	SApproxStep    int32   `yaml:"sapprox_step_permil,omitempty"`
	TuneTenths     int32   `yaml:"tune_tenths,omitempty"`
	TuSeconds      float64 `yaml:"tu_seconds,omitempty"`
	TdSeconds      float64 `yaml:"td_seconds,omitempty"`
}

// TempLawEntry configures a circuit's bilinear water-temperature law.
type TempLawEntry struct {
	P1OutC   float64 `yaml:"p1_out_c"`
	P1WaterC float64 `yaml:"p1_water_c"`
	P2OutC   float64 `yaml:"p2_out_c"`
	P2WaterC float64 `yaml:"p2_water_c"`
	NH100    int32   `yaml:"nh100"`
}

// HCircuitEntry is one configured heating circuit.
type HCircuitEntry struct {
	ID         string        `yaml:"id"`
	SensorOut  string        `yaml:"sensor_out"`
	SensorRet  string        `yaml:"sensor_ret,omitempty"`
	SensorAmb  string        `yaml:"sensor_amb,omitempty"`
	SensorHot  string        `yaml:"sensor_hot,omitempty"`
	ValveID    string        `yaml:"valve_id,omitempty"`
	PumpID     string        `yaml:"pump_id,omitempty"`
	ScheduleID string        `yaml:"schedule_id,omitempty"`
	TempLaw    TempLawEntry  `yaml:"templaw"`

	TComfortC            float64 `yaml:"tcomfort_c"`
	TEcoC                float64 `yaml:"teco_c"`
	TFrostFreeC          float64 `yaml:"tfrostfree_c"`
	LimitWtMinC          float64 `yaml:"limit_wtmin_c"`
	LimitWtMaxC          float64 `yaml:"limit_wtmax_c"`
	WtempRorhKPerHour    float64 `yaml:"wtemp_rorh_k_per_hour,omitempty"`
	AmbientFactorPercent int32   `yaml:"ambient_factor_percent,omitempty"`
	FastCooldown         bool    `yaml:"fast_cooldown,omitempty"`
}

// DHWTEntry is one configured DHWT.
type DHWTEntry struct {
	ID              string `yaml:"id"`
	SensorTop       string `yaml:"sensor_top,omitempty"`
	SensorBottom    string `yaml:"sensor_bottom,omitempty"`
	SensorInlet     string `yaml:"sensor_inlet,omitempty"`
	RelaySelfHeater string `yaml:"relay_self_heater,omitempty"`
	FeedPumpID      string `yaml:"feed_pump_id,omitempty"`
	RecyclePumpID   string `yaml:"recycle_pump_id,omitempty"`
	FeedIsolID      string `yaml:"feed_isol_id,omitempty"`
	DHWIsolID       string `yaml:"dhw_isol_id,omitempty"`

	TComfortC     float64 `yaml:"tcomfort_c"`
	TEcoC         float64 `yaml:"teco_c"`
	TFrostFreeC   float64 `yaml:"tfrostfree_c"`
	TLegionellaC  float64 `yaml:"tlegionella_c"`
	LimitTMinC    float64 `yaml:"limit_tmin_c"`
	LimitTMaxC    float64 `yaml:"limit_tmax_c"`
	LimitWinTMaxC float64 `yaml:"limit_wintmax_c"`

	Priority          string `yaml:"priority"` // "absolute"|"paraldhw"|"sliddhw"|"slidmax"|"paralmax"
	ForceMode         string `yaml:"force_mode,omitempty"`
	AntiLegionella    bool   `yaml:"anti_legionella,omitempty"`
	LegionellaRecycle bool   `yaml:"legionella_recycle,omitempty"`
	ElectricRecycle   bool   `yaml:"electric_recycle,omitempty"`
}

// BoilerEntry is the single configured boiler heatsource.
type BoilerEntry struct {
	ID           string  `yaml:"id"`
	SensorBody   string  `yaml:"sensor_body"`
	SensorReturn string  `yaml:"sensor_return,omitempty"`
	RelayBurner  string  `yaml:"relay_burner"`
	LoadPumpID   string  `yaml:"load_pump_id,omitempty"`
	ReturnValveID string `yaml:"return_valve_id,omitempty"`

	LimitTMinC        float64 `yaml:"limit_tmin_c"`
	LimitTMaxC        float64 `yaml:"limit_tmax_c"`
	LimitTHardMaxC    float64 `yaml:"limit_thardmax_c"`
	LimitTReturnMinC  float64 `yaml:"limit_treturnmin_c"`
	HysteresisK       float64 `yaml:"hysteresis_k"`
	BurnerMinSeconds  float64 `yaml:"burner_min_seconds"`
	TFreezeC          float64 `yaml:"tfreeze_c"`
	IdleMode          string  `yaml:"idle_mode"` // "never"|"frostonly"|"always"
	ConsumerSDelaySec float64 `yaml:"consumer_sdelay_seconds,omitempty"`
}

// Config is the fully decoded plant configuration.
type Config struct {
	StateFile  string
	ConfigFile string
	LogLevel   string `yaml:"log_level"`

	DBPath       string `yaml:"db_path"`
	HTTPPort     int    `yaml:"http_port"`
	NtfyTopic    string `yaml:"ntfy_topic,omitempty"`
	DatadogAddr  string `yaml:"datadog_addr,omitempty"`
	ModbusAddr   string `yaml:"modbus_addr,omitempty"`

	PollIntervalSeconds float64 `yaml:"poll_interval_seconds"`
	SleepingDelaySeconds float64 `yaml:"sleeping_delay_seconds"`
	SummerRunIntervalDays float64 `yaml:"summer_run_interval_days,omitempty"`
	SummerRunDurationSeconds float64 `yaml:"summer_run_duration_seconds,omitempty"`

	Sensors  []SensorConfig  `yaml:"sensors"`
	Relays   []RelayConfig   `yaml:"relays"`
	Pumps    []PumpEntry     `yaml:"pumps"`
	Valves   []ValveEntry    `yaml:"valves"`
	HCircuits []HCircuitEntry `yaml:"hcircuits"`
	DHWTs    []DHWTEntry     `yaml:"dhwts"`
	Boiler   BoilerEntry     `yaml:"boiler"`
}

// Load parses flags and decodes the yaml config file they name.
func Load() (Config, error) {
	var cfg Config
	var logLevel string

	flag.StringVar(&cfg.StateFile, "state-file", "data/state.db", "path to the persistent snapshot store")
	flag.StringVar(&cfg.ConfigFile, "config-file", "config.yaml", "path to the plant configuration file")
	flag.StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	flag.Parse()

	f, err := os.Open(cfg.ConfigFile)
	if err != nil {
		return cfg, fmt.Errorf("open config file: %w", err)
	}
	defer f.Close()

	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("parse config file: %w", err)
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = logLevel
	}
	if cfg.PollIntervalSeconds == 0 {
		cfg.PollIntervalSeconds = 10
	}
	if cfg.SleepingDelaySeconds == 0 {
		cfg.SleepingDelaySeconds = 600
	}

	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Boiler.ID == "" {
		return fmt.Errorf("config: a boiler heatsource is required")
	}
	seen := make(map[string]bool, len(c.Relays))
	for _, r := range c.Relays {
		if seen[r.ID] {
			return fmt.Errorf("config: duplicate relay id %q", r.ID)
		}
		seen[r.ID] = true
	}
	return nil
}

// CelsiusToTemp is a convenience re-export so config entries (which store
// plain float64 Celsius for human-editable yaml) convert at load time.
func CelsiusToTemp(c float64) numeric.Temp { return numeric.CelsiusToTemp(c) }

// ValveAlgoOf maps the yaml algo string to model.ValveAlgo.
func ValveAlgoOf(s string) model.ValveAlgo {
	switch s {
	case "sapprox":
		return model.AlgoSApprox
	case "pi":
		return model.AlgoPI
	default:
		return model.AlgoBangBang
	}
}

// DHWPriorityOf maps the yaml priority string to model.DHWChargePriority.
func DHWPriorityOf(s string) model.DHWChargePriority {
	switch s {
	case "absolute":
		return model.PrioAbsolute
	case "sliddhw":
		return model.PrioSlidDHW
	case "slidmax":
		return model.PrioSlidMax
	case "paralmax":
		return model.PrioParalMax
	default:
		return model.PrioParalDHW
	}
}

// ForceModeOf maps the yaml force_mode string to model.ForceMode.
func ForceModeOf(s string) model.ForceMode {
	switch s {
	case "first":
		return model.ForceFirst
	case "always":
		return model.ForceAlways
	default:
		return model.ForceNever
	}
}

// IdleModeOf maps the yaml idle_mode string to model.IdleMode.
func IdleModeOf(s string) model.IdleMode {
	switch s {
	case "frostonly":
		return model.IdleFrostOnly
	case "always":
		return model.IdleAlways
	default:
		return model.IdleNever
	}
}
