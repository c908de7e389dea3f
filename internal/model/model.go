// Package model holds the shared entity, status and runmode types consumed
// across the plant control engine: config+runtime structs for pump, valve,
// heating circuit, DHWT and boiler, plus the status taxonomy and atomics
// that let the remote-control thread read them without a lock.
package model

// Handle is a plant-local index into one of the plant's owning entity
// arrays. It is declared on the config structs but left unpopulated:
// cross-entity references (e.g. a circuit's pump) are pointers, injected
// through each entity's AttachActuators by cmd/rwchcd's wiring.
type Handle int

// NoHandle marks an absent/optional reference.
const NoHandle Handle = -1

// Valid reports whether h refers to a populated slot.
func (h Handle) Valid() bool { return h >= 0 }
