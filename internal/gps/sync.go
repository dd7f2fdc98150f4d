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

package gps

import (
	"io"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/lorafwd/gateway/internal/radio"
	"github.com/lorafwd/gateway/internal/state"
	"github.com/lorafwd/gateway/internal/xtal"
)

// Loop is the GPS sync loop (C5). It blocks on Source.Next,
// and on every sentence that carries a fix, latches the concentrator's
// trigger counter, derives an oscillator-error sample, updates the shared
// time reference, records the coordinate, and arms the beacon when the next
// PPS edge lands on a beacon_period boundary.
type Loop struct {
	Source        Source
	Concentrator  *radio.Concentrator
	TimeRef       *state.TimeReference
	Coord         *state.GPSCoord
	Corrector     *xtal.Corrector
	BeaconArm     *state.BeaconArm
	BeaconEnabled bool
	BeaconPeriod  int
	BeaconOffset  int

	// Exit is polled between reads; Source.Next itself is not
	// cancellation-aware, since C5 is a cancellation target rather than a
	// joined thread.
	Exit func() bool
}

// Run blocks until Exit reports true or the source returns an
// unrecoverable error (typically io.EOF on device unplug).
func (l *Loop) Run() error {
	for {
		if l.Exit != nil && l.Exit() {
			return nil
		}
		fix, ok, err := l.Source.Next()
		if err != nil {
			if err == io.EOF {
				log.Error("gps device closed")
				return err
			}
			log.WithError(err).Warning("gps: malformed sentence, skipping")
			continue
		}
		if !ok {
			continue
		}
		if !fix.Valid {
			l.Coord.Invalidate()
			continue
		}
		l.handleFix(fix)
	}
}

func (l *Loop) handleFix(fix Fix) {
	if l.BeaconEnabled && l.BeaconPeriod > 0 {
		phase := (fix.UTC.Unix() + 1) % int64(l.BeaconPeriod)
		if phase == int64(l.BeaconOffset) {
			l.BeaconArm.Arm()
		} else {
			l.BeaconArm.Disarm()
		}
	}

	l.Concentrator.Lock()
	counter, err := l.Concentrator.HAL().TrigCnt()
	l.Concentrator.Unlock()
	if err != nil {
		log.WithError(err).Warning("gps: failed to read trigger counter")
		return
	}

	prev := l.TimeRef.Snapshot()
	sysNow := time.Now()
	if prev.Valid() {
		if oscErr := oscillatorError(prev, counter, fix.UTC); oscErr > 0 {
			l.Corrector.Sample(oscErr)
		}
	}
	l.TimeRef.Update(sysNow, fix.UTC, counter)

	l.Coord.Update(fix.Coord.Latitude, fix.Coord.Longitude, fix.Coord.Altitude)
}

// oscillatorError estimates the crystal error ratio: the concentrator's
// free-running counter should advance by exactly the elapsed wall-clock
// microseconds if the oscillator were perfect. The ratio of actual ticks to
// expected ticks is the raw sample fed to the XTAL corrector.
func oscillatorError(prev state.TimeReferenceSnapshot, counter uint32, utc time.Time) float64 {
	expectedUs := utc.Sub(prev.UTC).Microseconds()
	if expectedUs <= 0 {
		return 0
	}
	actualUs := int64(counter - prev.CountAtPPS)
	if actualUs <= 0 {
		return 0
	}
	return float64(actualUs) / float64(expectedUs)
}
