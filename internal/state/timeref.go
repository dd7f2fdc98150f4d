/*
Copyright (c) Facebook, Inc. and its affiliates.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package state

import (
	"sync"
	"time"
)

// GPSRefMaxAge is GPS_REF_MAX_AGE: a time reference
// older than this, with no fresh GPS sync, reverts to invalid.
const GPSRefMaxAge = 30 * time.Second

// TimeReferenceSnapshot is an immutable copy of a TimeReference at one
// instant: system time of sync, UTC at the PPS, and the concentrator
// counter latched at that PPS.
type TimeReferenceSnapshot struct {
	SysTime time.Time
	UTC     time.Time
	CountAtPPS uint32
	valid   bool
}

// Valid reports whether this snapshot represents a real sync (as opposed to
// the zero value returned before the first GPS sync ever completes).
func (s TimeReferenceSnapshot) Valid() bool { return s.valid }

// TimeReference is the GPS<->concentrator-counter time reference. The
// triple (system time, UTC, counter) is atomically replaced
// on every update so readers always observe a consistent snapshot.
type TimeReference struct {
	mu       sync.RWMutex
	snapshot TimeReferenceSnapshot
}

// Update atomically replaces the reference with a fresh sync result.
func (r *TimeReference) Update(sysTime, utc time.Time, countAtPPS uint32) {
	r.mu.Lock()
	r.snapshot = TimeReferenceSnapshot{SysTime: sysTime, UTC: utc, CountAtPPS: countAtPPS, valid: true}
	r.mu.Unlock()
}

// Snapshot returns the current reference. Valid() is false if the reference
// has never been set, or has aged past GPSRefMaxAge - the time reference's
// "invalid" state is derived from staleness, not stored separately.
func (r *TimeReference) Snapshot() TimeReferenceSnapshot {
	r.mu.RLock()
	s := r.snapshot
	r.mu.RUnlock()
	if !s.valid {
		return s
	}
	if time.Since(s.SysTime) > GPSRefMaxAge {
		return TimeReferenceSnapshot{}
	}
	return s
}

// Cnt2UTC converts a concentrator counter value to UTC time using the
// current reference, assuming a free-running 1MHz counter as is standard
// for LoRa concentrators. Returns an error if the reference is invalid.
func (r *TimeReference) Cnt2UTC(count uint32) (time.Time, error) {
	s := r.Snapshot()
	if !s.Valid() {
		return time.Time{}, errInvalidRef
	}
	deltaUs := int64(int32(count - s.CountAtPPS))
	return s.UTC.Add(time.Duration(deltaUs) * time.Microsecond), nil
}

// Utc2Cnt converts a UTC time to the concentrator counter value it will (or
// did) correspond to, using the current reference.
func (r *TimeReference) Utc2Cnt(utc time.Time) (uint32, error) {
	s := r.Snapshot()
	if !s.Valid() {
		return 0, errInvalidRef
	}
	deltaUs := utc.Sub(s.UTC).Microseconds()
	return uint32(int64(s.CountAtPPS) + deltaUs), nil
}

var errInvalidRef = &invalidRefError{}

type invalidRefError struct{}

func (*invalidRefError) Error() string { return "time reference is invalid or stale" }
