// Package bmodel is the building thermal model collaborator (spec.md §6):
// an EWMA-filtered outdoor temperature moving average plus summer/frost
// booleans, exposed as atomics for the circuit's run() to read without
// locking. Wholly new: the teacher has no analogue of an outdoor-driven
// thermal model, so this is grounded on the numeric EWMA primitive
// (internal/numeric) it was built to serve (spec.md §4.1/§4.4).
package bmodel

import (
	"github.com/rwchcd/rwchcd/internal/model"
	"github.com/rwchcd/rwchcd/internal/numeric"
)

// Params configures a Model: the building's thermal time constant and the
// thresholds at which summer/frost are asserted.
type Params struct {
	Tau             numeric.TimeTick
	SummerThreshold numeric.Temp
	FrostThreshold  numeric.Temp
}

// Model tracks the filtered outdoor temperature (t_out_mix) and the derived
// summer/frost flags; all fields are exposed via atomics since a heating
// circuit may be read cross-thread by the remote-control bus via pdata
// snapshots (spec.md §5).
type Model struct {
	params Params

	tOut    model.AtomicTemp
	tOutMix model.AtomicTemp
	summer  model.AtomicBool
	frost   model.AtomicBool
	online  model.AtomicBool

	lastSample numeric.TimeTick
}

func New(p Params) *Model {
	m := &Model{params: p}
	m.online.Store(true)
	return m
}

// Update feeds a new raw outdoor sample; it refilters t_out_mix and
// recomputes summer/frost. Must be called on the control thread only.
func (m *Model) Update(tOutRaw numeric.Temp, now numeric.TimeTick) {
	m.tOut.Store(int32(tOutRaw))

	prevMix := m.tOutMix.Load()
	var mix numeric.Temp
	if m.lastSample == 0 {
		mix = tOutRaw
	} else {
		dt := now - m.lastSample
		mix = numeric.EWMA(numeric.Temp(prevMix), tOutRaw, m.params.Tau, dt)
	}
	m.tOutMix.Store(int32(mix))
	m.lastSample = now

	m.summer.Store(mix >= m.params.SummerThreshold)
	m.frost.Store(tOutRaw <= m.params.FrostThreshold)
}

func (m *Model) TOut() numeric.Temp    { return numeric.Temp(m.tOut.Load()) }
func (m *Model) TOutMix() numeric.Temp { return numeric.Temp(m.tOutMix.Load()) }
func (m *Model) Summer() bool          { return m.summer.Load() }
func (m *Model) Frost() bool           { return m.frost.Load() }
func (m *Model) Online() bool          { return m.online.Load() }
func (m *Model) Tau() numeric.TimeTick { return m.params.Tau }

func (m *Model) SetOnline(v bool) { m.online.Store(v) }

// Features snapshots the model into the value type consumed by heating
// circuits, avoiding repeated atomic loads during a single tick.
func (m *Model) Features() model.AmbientFeatures {
	return model.AmbientFeatures{
		TOut:    m.TOut(),
		TOutMix: m.TOutMix(),
		Summer:  m.Summer(),
		Frost:   m.Frost(),
		Online:  m.Online(),
		Tau:     m.Tau(),
	}
}
