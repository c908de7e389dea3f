// Package relay is the outputs subsystem collaborator (spec.md §6):
// grab/thaw ownership brackets plus drive/observe of a named relay,
// generalized from the teacher's internal/gpio + internal/pinctrl, which
// drove pins directly from controllers with no ownership tracking. Here
// every entity must grab a relay id at online() and thaw it at offline(),
// matching the plant's lifecycle discipline (spec.md §3). The pinctrl
// wrapper itself is folded in as gpio.go, reporting model.Status instead
// of a bare error so relay callers don't juggle two error conventions.
package relay

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/rwchcd/rwchcd/internal/model"
)

// Pin is the GPIO descriptor for one relay, config-loaded.
type Pin struct {
	Number     int
	ActiveHigh bool
}

type line struct {
	pin      Pin
	owner    string // empty when unowned
	state    bool
	safeMode bool
}

// Registry is the outputs subsystem: relay ownership tracking plus the
// pinctrl-backed drive/read primitives.
type Registry struct {
	mu    sync.Mutex
	lines map[string]*line

	// SafeMode suppresses all physical writes (used in simulation/tests),
	// mirroring the teacher's package-level safeMode switch in gpio.go.
	safeMode bool
}

func NewRegistry() *Registry {
	return &Registry{lines: make(map[string]*line)}
}

// Register binds a relay id to a physical pin; called once at config load.
func (r *Registry) Register(id string, pin Pin) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines[id] = &line{pin: pin}
}

func (r *Registry) SetSafeMode(enabled bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.safeMode = enabled
}

// Grab marks id as owned by subject; it is an error for two entities to
// hold the same relay concurrently.
func (r *Registry) Grab(id, subject string) model.Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.lines[id]
	if !ok {
		return model.NotConfigured
	}
	if l.owner != "" && l.owner != subject {
		return model.Mismatch
	}
	l.owner = subject
	return model.OK
}

// Thaw releases ownership of id; safe to call on an already-unowned relay.
func (r *Registry) Thaw(id, subject string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if l, ok := r.lines[id]; ok && l.owner == subject {
		l.owner = ""
	}
}

// StateSet drives relay id to the requested logical state.
func (r *Registry) StateSet(id string, on bool) model.Status {
	r.mu.Lock()
	l, ok := r.lines[id]
	r.mu.Unlock()
	if !ok {
		return model.NotConfigured
	}

	r.mu.Lock()
	l.state = on
	safe := r.safeMode
	r.mu.Unlock()
	if safe {
		return model.OK
	}

	var st model.Status
	if on == l.pin.ActiveHigh {
		st = gpioSet(l.pin.Number, "op", "pn", "dh")
	} else {
		st = gpioSet(l.pin.Number, "op", "pn", "dl")
	}
	if st != model.OK {
		log.Error().Str("relay", id).Bool("on", on).Msg("relay write failed")
		return st
	}
	return model.OK
}

// StateGet returns the last state written by StateSet.
func (r *Registry) StateGet(id string) (bool, model.Status) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.lines[id]
	if !ok {
		return false, model.NotConfigured
	}
	return l.state, model.OK
}

// Name returns a stable display name for id, used only in alarm messages.
func (r *Registry) Name(id string) string {
	return fmt.Sprintf("relay[%s]", id)
}

// ValidateInitialStates confirms every registered relay is physically off
// at startup, generalized from the teacher's gpio.ValidateInitialPinStates
// (which enumerated zones/devices from the database; here the registry
// itself is the enumeration).
func (r *Registry) ValidateInitialStates() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, l := range r.lines {
		level, st := gpioLevel(l.pin.Number)
		if st != model.OK {
			return fmt.Errorf("relay %s: read pin %d: status %s", id, l.pin.Number, st)
		}
		active := (l.pin.ActiveHigh && level) || (!l.pin.ActiveHigh && !level)
		if active {
			return fmt.Errorf("relay %s (pin %d) is active at startup, expected off", id, l.pin.Number)
		}
	}
	return nil
}
