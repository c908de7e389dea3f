// Package sensors is the inputs subsystem collaborator (spec.md §6):
// temperature lookups by stable id, backed by cached last-observed values
// so the control loop's run() never blocks on hardware I/O. Two backends
// are wired: a 1-Wire sysfs reader generalized from the teacher's
// internal/gpio.ReadSensorTemp, and an optional Modbus register reader for
// sensors exposed by a remote I/O unit.
package sensors

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/rwchcd/rwchcd/internal/model"
	"github.com/rwchcd/rwchcd/internal/numeric"
)

// Backend polls a single sensor and returns a raw Celsius reading.
type Backend interface {
	Read(id string) (celsius float64, err error)
}

type cached struct {
	temp   numeric.Temp
	tstamp numeric.TimeTick
	status model.Status
}

// Registry is the inputs subsystem: it owns the id→backend binding and the
// last-observed cache consulted by inputs_temperature_get.
type Registry struct {
	mu       sync.RWMutex
	backends map[string]Backend // sensor id -> backend
	names    map[string]string  // sensor id -> display name
	byName   map[string]string  // display name -> sensor id
	cache    map[string]cached
	staleAfter numeric.TimeTick
}

func NewRegistry(staleAfter numeric.TimeTick) *Registry {
	return &Registry{
		backends:   make(map[string]Backend),
		names:      make(map[string]string),
		byName:     make(map[string]string),
		cache:      make(map[string]cached),
		staleAfter: staleAfter,
	}
}

// Register binds a sensor id to a backend and a human-readable name, used
// for config resolution (inputs_temperature_fbn) and alarm messages.
func (r *Registry) Register(id, name string, b Backend) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.backends[id] = b
	r.names[id] = name
	r.byName[name] = id
}

// Poll reads every registered backend once and refreshes the cache; it is
// the only method that may block, and is never called from plant.run().
func (r *Registry) Poll(now numeric.TimeTick) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, b := range r.backends {
		c, err := b.Read(id)
		if err != nil {
			log.Warn().Err(err).Str("sensor", id).Msg("sensor read failed")
			prev := r.cache[id]
			prev.status = model.SensorDisconnected
			r.cache[id] = prev
			continue
		}
		t := numeric.CelsiusToTemp(c)
		status := model.OK
		if !numeric.Valid(t) {
			status = model.SensorInvalid
		}
		r.cache[id] = cached{temp: t, tstamp: now, status: status}
	}
}

// Get implements inputs_temperature_get: a non-blocking lookup against the
// last-observed cache.
func (r *Registry) Get(id string, now numeric.TimeTick) (numeric.Temp, model.Status) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.cache[id]
	if !ok {
		return 0, model.NotConfigured
	}
	if c.status != model.OK {
		return 0, c.status
	}
	if r.staleAfter > 0 && now-c.tstamp > r.staleAfter {
		return c.temp, model.SensorStale
	}
	return c.temp, model.OK
}

// Time implements inputs_temperature_time.
func (r *Registry) Time(id string) (numeric.TimeTick, model.Status) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.cache[id]
	if !ok {
		return 0, model.NotConfigured
	}
	return c.tstamp, model.OK
}

// Name implements inputs_temperature_name.
func (r *Registry) Name(id string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.names[id]
}

// FindByName implements inputs_temperature_fbn, used at config resolution.
func (r *Registry) FindByName(name string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byName[name]
	return id, ok
}
