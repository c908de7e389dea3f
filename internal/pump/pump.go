// Package pump implements the pump actuator (spec.md §4.2): a binary relay
// with optional off-cooldown. Grounded on the teacher's device on/off
// sequencing in internal/device/device.go (MinOn/MinOff duration guards),
// generalized from a single fixed cooldown pair to the spec's one-sided
// cooldown-on-off semantics.
package pump

import (
	"github.com/rwchcd/rwchcd/internal/model"
	"github.com/rwchcd/rwchcd/internal/numeric"
	"github.com/rwchcd/rwchcd/internal/relay"
)

// Pump actuates one relay with cooldown-gated switch-off.
type Pump struct {
	cfg     model.PumpConfig
	runtime model.PumpRuntime
	relays  *relay.Registry
}

func New(cfg model.PumpConfig, relays *relay.Registry) *Pump {
	return &Pump{cfg: cfg, relays: relays}
}

func (p *Pump) Name() string    { return p.cfg.Name }
func (p *Pump) IsOnline() bool  { return p.runtime.Online }
func (p *Pump) IsActive() bool  { return p.runtime.ActState }
func (p *Pump) Status() model.Status { return p.runtime.Status }

// Online grabs the relay; fails if unavailable (spec.md §4.2).
func (p *Pump) Online() model.Status {
	st := p.relays.Grab(p.cfg.RelayID, p.cfg.Name)
	if st != model.OK {
		p.runtime.Status = st
		return st
	}
	p.runtime.Online = true
	p.runtime.Status = model.OK
	return model.OK
}

// Offline thaws the relay and forces it off.
func (p *Pump) Offline(now numeric.TimeTick) model.Status {
	p.Shutdown(now)
	p.relays.Thaw(p.cfg.RelayID, p.cfg.Name)
	p.runtime.Online = false
	return model.OK
}

// SetState records a request; switching off is deferred (the relay stays
// on) unless cooldown has elapsed or force is asserted (spec.md §4.2).
func (p *Pump) SetState(on, force bool, now numeric.TimeTick) {
	if !p.runtime.Online {
		return
	}
	p.runtime.ReqState = on
	if on {
		return // turning on is never deferred
	}
	if force {
		p.applyOff(now)
	}
}

// Run reconciles the relay against the last request, applying the deferred
// off once cooldown has elapsed.
func (p *Pump) Run(now numeric.TimeTick) model.Status {
	if !p.runtime.Online {
		return model.Offline
	}
	if p.runtime.ReqState {
		if !p.runtime.ActState {
			return p.apply(true, now)
		}
		return model.OK
	}
	// requested off
	if !p.runtime.ActState {
		return model.OK
	}
	if now-p.runtime.LastSwitch < p.cfg.Cooldown {
		return model.OK // cooldown not elapsed: relay stays on
	}
	return p.applyOff(now)
}

func (p *Pump) applyOff(now numeric.TimeTick) model.Status {
	return p.apply(false, now)
}

func (p *Pump) apply(on bool, now numeric.TimeTick) model.Status {
	st := p.relays.StateSet(p.cfg.RelayID, on)
	p.runtime.Status = st
	if st != model.OK {
		return st
	}
	p.runtime.ActState = on
	p.runtime.LastSwitch = now
	return model.OK
}

// Shutdown forces the relay off immediately, bypassing cooldown.
func (p *Pump) Shutdown(now numeric.TimeTick) {
	if !p.runtime.Online {
		return
	}
	p.runtime.ReqState = false
	_ = p.apply(false, now)
}
