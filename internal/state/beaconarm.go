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

import "sync/atomic"

// BeaconArm is the disarmed/armed flag: set by the GPS loop (C5) when the
// next PPS edge lands on a beacon_period boundary, cleared by the
// downstream loop (C4) after it either emits or skips.
type BeaconArm struct {
	armed atomic.Bool
}

// Arm sets the flag.
func (b *BeaconArm) Arm() { b.armed.Store(true) }

// Disarm clears the flag.
func (b *BeaconArm) Disarm() { b.armed.Store(false) }

// Armed reports the current state.
func (b *BeaconArm) Armed() bool { return b.armed.Load() }
