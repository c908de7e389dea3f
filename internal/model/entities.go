package model

import "github.com/rwchcd/rwchcd/internal/numeric"

// PumpConfig is the fixed, config-loaded description of a pump (spec.md §3).
type PumpConfig struct {
	Name     string
	RelayID  string
	Cooldown numeric.TimeTick
}

// PumpRuntime is the mutable, per-tick state of a pump.
type PumpRuntime struct {
	Online     bool
	ReqState   bool // last requested state, regardless of whether it has been applied
	ActState   bool // last state actually written to the relay
	LastSwitch numeric.TimeTick
	Status     Status
}

// MotorKind distinguishes a 3-way motorised valve from a 2-way reversible
// (on/off) actuator.
type MotorKind int

const (
	Motor3Way MotorKind = iota
	Motor2Way
)

// ValveKind distinguishes a mixing valve (continuous temperature control)
// from an isolation valve (full open/close only).
type ValveKind int

const (
	ValveMix ValveKind = iota
	ValveIsol
)

// ValveAlgo selects the mix_tcontrol strategy (spec.md §4.3).
type ValveAlgo int

const (
	AlgoBangBang ValveAlgo = iota
	AlgoSApprox
	AlgoPI
)

// ValveAction is the motor direction currently requested/applied.
type ValveAction int

const (
	ActionStop ValveAction = iota
	ActionOpen
	ActionClose
)

// ValveConfig is the fixed description of a valve (spec.md §3, §4.3).
type ValveConfig struct {
	Name    string
	Kind    ValveKind
	Motor   MotorKind
	Algo    ValveAlgo
	RidOpen  string // 3-way: energises to open
	RidClose string // 3-way: energises to close
	RidTrigger string // 2-way: single relay
	TriggerOpens bool // 2-way: does energising the trigger relay open the valve?
	Reverse      bool // isolation valve: reverse isolate/de-isolate mapping
	EteTime      numeric.TimeTick // end-to-end travel time, > 0
	Deadband     int32            // ‰, for 3-way position requests
	Deadzone     numeric.Delta    // temperature deadzone for mix algorithms

	SampleInterval numeric.TimeTick // sapprox/PI sampling period
	SApproxStep    int32            // sapprox fixed ‰ step per sample

	TuneFactor int32 // PI Tc tuning factor, tenths
	Tu, Td     numeric.TimeTick
}

// ValveRuntime is the mutable per-tick state of a valve (spec.md §3).
type ValveRuntime struct {
	Online bool

	ActualPosition int32 // ‰, [0,1000]
	TargetCourse   int32 // ‰, [-1000,1000]

	ReqAction ValveAction
	ActAction ValveAction

	RunTimeOpen  numeric.TimeTick
	RunTimeClose numeric.TimeTick

	TruePos   bool
	CtrlReady bool

	LastTick numeric.TimeTick

	// PI velocity-form state
	PrevOut  int32
	DBAcc    int32
	IntegAcc int64

	Status Status
}

// AmbientFeatures describes a heating circuit's building-model time
// constant and outdoor-derived inputs, mirrored locally each tick from the
// bmodel collaborator.
type AmbientFeatures struct {
	TOut    numeric.Temp
	TOutMix numeric.Temp
	Summer  bool
	Frost   bool
	Online  bool
	Tau     numeric.TimeTick
}

// TempLawPoint is one bilinear-law calibration point (spec.md §4.4).
type TempLawPoint struct {
	TOut   numeric.Temp
	TWater numeric.Temp
}

// TempLawParams parametrises the bilinear water-temperature law.
type TempLawParams struct {
	P1, P2 TempLawPoint
	NH100  int32 // non-linearity coefficient, ×100, >= 100
}

// HCircuitParams is the heating circuit's runtime-adjustable parameter
// block, distinct defaults optionally sourced from pdata (spec.md §3).
type HCircuitParams struct {
	TComfort, TEco, TFrostFree numeric.Temp
	TOffset                    numeric.Delta
	OutOffComfort, OutOffEco, OutOffFrostFree numeric.Temp
	OutOffHysteresis                          numeric.Delta
	InOffTemp                                 numeric.Temp
	LimitWtMin, LimitWtMax                    numeric.Temp
	TempInOffset                              numeric.Delta
	WtempRorh                                 numeric.Delta // K/h, 0 disables
	AmbientBoostDelta                         numeric.Delta
	BoostMaxTime                              numeric.TimeTick
	AmbientFactor                             int32 // percent
	FastCooldown                              bool
}

// HCircuitConfig is the fixed description of a heating circuit.
type HCircuitConfig struct {
	Name        string
	SensorOut   string // mandatory
	SensorRet   string // optional
	SensorAmb   string // optional
	SensorHot   string // optional: primary-loop feed sensor for the mixing valve's tid_hot
	Valve       Handle // NoHandle if none
	Pump        Handle // NoHandle if none
	ScheduleID  string
	TempLaw     TempLawParams
	Params      HCircuitParams
}

// HCircuitRuntime is the mutable per-tick state of a heating circuit.
type HCircuitRuntime struct {
	Online bool

	RunMode     RunMode
	RunModeOverride RunMode // RunAuto means "no override"

	TargetAmbient, ActualAmbient numeric.Temp
	TargetWtemp, ActualWtemp     numeric.Temp
	HeatRequest                  numeric.Temp // NoRequest sentinel when idle

	Transition      Transition
	TransStartTime  numeric.TimeTick
	AmbientModelTime numeric.TimeTick
	RorhTime        numeric.TimeTick
	RorhRef         numeric.Temp

	FloorOutput  bool
	FloorWtemp   numeric.Temp

	OutOffActive bool
	InOffActive  bool

	Status Status
}

// NoRequest is the published "no heat demand" sentinel for HeatRequest.
const NoRequest numeric.Temp = -1

// DHWTParams is the DHWT's runtime-adjustable parameter block.
type DHWTParams struct {
	TComfort, TEco, TFrostFree, TLegionella numeric.Temp
	LimitTMin, LimitTMax, LimitWinTMax      numeric.Temp
	LimitChargeTime                         numeric.TimeTick
	Hysteresis                              numeric.Delta
	TempInOffset                            numeric.Delta
}

// DHWTConfig is the fixed description of a DHWT.
type DHWTConfig struct {
	Name string

	SensorTop    string // optional
	SensorBottom string // optional
	SensorInlet  string // required iff FeedPump set

	RelaySelfHeater string // optional

	FeedPump     Handle
	RecyclePump  Handle
	FeedIsolValve Handle
	DHWIsolValve  Handle

	Params DHWTParams

	ChargePriority DHWChargePriority
	ForceMode      ForceMode

	AntiLegionella      bool
	LegionellaRecycle   bool
	ElectricRecycle     bool
	ElectricHasThermostat bool

	TThreshDHWIsol numeric.Temp // optional; NoThreshold sentinel if unset
}

// NoThreshold marks an unset optional temperature threshold.
const NoThreshold numeric.Temp = -1

// DHWTRuntime is the mutable per-tick state of a DHWT.
type DHWTRuntime struct {
	Online bool

	RunMode         RunMode
	RunModeOverride RunMode

	ChargeOn     bool
	ElectricMode bool
	ForceOn      bool
	LegionellaOn bool
	RecycleOn    bool
	Overtemp     bool

	ChargeOvertime bool
	ModeSince      numeric.TimeTick
	ChargeYday     int // last forced calendar day, -1 if never

	TargetTemp, ActualTemp numeric.Temp
	// ActualTempTrip is the top-preferred reading used to decide whether
	// to start a charge; ActualTemp (bottom-preferred) decides untrip.
	ActualTempTrip numeric.Temp
	HeatRequest    numeric.Temp

	FloorIntake bool

	Status Status
}

// BoilerParams is the boiler's config-loaded parameter block.
type BoilerParams struct {
	LimitTMin, LimitTMax, LimitTHardMax, LimitTReturnMin numeric.Temp
	Hysteresis                                           numeric.Delta
	BurnerMinTime                                        numeric.TimeTick
	TFreeze                                              numeric.Temp
	IdleMode                                             IdleMode
	ConsumerSDelay                                        numeric.TimeTick
}

// BoilerConfig is the fixed description of a boiler heatsource.
type BoilerConfig struct {
	Name string

	SensorBody   string // mandatory
	SensorReturn string // optional

	RelayBurner string
	LoadPump    Handle
	ReturnValve Handle

	Params BoilerParams
}

// BoilerRuntime is the mutable per-tick state of a boiler.
type BoilerRuntime struct {
	Online bool

	RunMode RunMode

	TargetTemp, ActualTemp numeric.Temp

	TempDrv numeric.DerivativeState
	BoilItg numeric.IntegralState
	RetItg  numeric.IntegralState

	Antifreeze bool
	Overtemp   bool
	LastSwitch numeric.TimeTick
	BurnerOn   bool

	NegDerivStartTime numeric.TimeTick
	TurnOnNegDeriv    numeric.Delta
	TurnOnNextAdj     numeric.TimeTick
	TurnOnCurrAdj     numeric.TimeTick

	CShiftCritical, CShiftNonCritical int32

	Status Status
}

// CShiftMax is the published "dump everything" consumer-shift sentinel.
const CShiftMax int32 = -100

// PlantData ("pdata") is the shared record written exclusively by the
// orchestrator between steps of a tick and read by every entity
// (spec.md §3, §4.7).
type PlantData struct {
	PlantCouldSleep bool
	HsOvertemp      bool
	HsAllFailed     bool

	DHWCAbsolute bool
	DHWCSliding  bool
	DHWTCurrPrio DHWChargePriority

	ConsumerShift  int32
	ConsumerSDelay numeric.TimeTick

	SummerMaint bool

	DefaultHCircuitParams HCircuitParams
	DefaultDHWTParams     DHWTParams
}
