// Package model holds the shared enums, status taxonomy, and atomic-cell
// types the plant control engine and its collaborators read and write.
package model

import "sync/atomic"

// AtomicTemp is a temperature cell (centikelvin) safe for the relaxed
// store/load discipline spec.md §5 requires between the control thread
// and the remote-control thread: the core never takes a lock.
type AtomicTemp struct{ v atomic.Int64 }

func (a *AtomicTemp) Store(t int32) { a.v.Store(int64(t)) }
func (a *AtomicTemp) Load() int32   { return int32(a.v.Load()) }

// AtomicRunMode is a RunMode cell stored as its string form via an atomic
// pointer, since RunMode is not a machine word.
type AtomicRunMode struct{ v atomic.Pointer[RunMode] }

func (a *AtomicRunMode) Store(m RunMode) { a.v.Store(&m) }
func (a *AtomicRunMode) Load() RunMode {
	p := a.v.Load()
	if p == nil {
		return RunAuto
	}
	return *p
}

// AtomicBool is a relaxed-store boolean cell.
type AtomicBool struct{ v atomic.Bool }

func (a *AtomicBool) Store(b bool) { a.v.Store(b) }
func (a *AtomicBool) Load() bool   { return a.v.Load() }

// AtomicInt is a relaxed-store signed integer cell (percentages, counters).
type AtomicInt struct{ v atomic.Int64 }

func (a *AtomicInt) Store(i int) { a.v.Store(int64(i)) }
func (a *AtomicInt) Load() int   { return int(a.v.Load()) }
