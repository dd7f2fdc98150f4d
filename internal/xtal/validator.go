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

package xtal

import (
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/lorafwd/gateway/internal/state"
)

// CheckInterval is how often Validator age-checks the time reference.
const CheckInterval = time.Second

// Validator is C6: a standalone loop that age-checks the shared time
// reference and resets the oscillator correction the moment it goes stale:
// any time the reference becomes invalid, the correction is reset to 1.0
// and the state returns to invalid. It exists
// because TimeReference.Snapshot only lazily discovers staleness when
// something happens to read it; without a dedicated checker, a gateway
// with an idle downstream loop could keep serving a stale correction
// factor indefinitely.
type Validator struct {
	TimeRef   *state.TimeReference
	Corrector *Corrector

	Exit func() bool
}

// Run ticks once per CheckInterval until Exit reports true.
func (v *Validator) Run() {
	ticker := time.NewTicker(CheckInterval)
	defer ticker.Stop()
	for {
		if v.Exit != nil && v.Exit() {
			return
		}
		<-ticker.C
		v.check()
	}
}

func (v *Validator) check() {
	if v.TimeRef.Snapshot().Valid() {
		return
	}
	if v.Corrector.State() == StateInvalid {
		return
	}
	log.Warning("xtal: time reference went stale, resetting oscillator correction")
	v.Corrector.Invalidate()
}
