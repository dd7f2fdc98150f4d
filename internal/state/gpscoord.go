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

import "sync"

// GPSCoord holds the gateway's last-known position. Its validity is
// independent of TimeReference's staleness: the status report keeps
// reporting the last fix for as long as the GPS parser reports it, even if
// the time reference itself has since gone stale for lack of a PPS-aligned
// sync.
type GPSCoord struct {
	mu    sync.RWMutex
	lat   float64
	lon   float64
	alt   float64
	valid bool
}

// Update stores a fresh fix and marks it valid.
func (g *GPSCoord) Update(lat, lon, alt float64) {
	g.mu.Lock()
	g.lat, g.lon, g.alt, g.valid = lat, lon, alt, true
	g.mu.Unlock()
}

// Invalidate marks the last fix as no longer usable, e.g. when the GPS
// source reports a fix that is not valid.
func (g *GPSCoord) Invalidate() {
	g.mu.Lock()
	g.valid = false
	g.mu.Unlock()
}

// Get returns the last-known fix and whether it is currently valid.
func (g *GPSCoord) Get() (lat, lon, alt float64, valid bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.lat, g.lon, g.alt, g.valid
}
