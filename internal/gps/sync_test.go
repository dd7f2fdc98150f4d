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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lorafwd/gateway/internal/radio"
	"github.com/lorafwd/gateway/internal/radio/fake"
	"github.com/lorafwd/gateway/internal/state"
	"github.com/lorafwd/gateway/internal/xtal"
)

type fixedSource struct {
	fixes []Fix
	i     int
}

func (f *fixedSource) Next() (Fix, bool, error) {
	if f.i >= len(f.fixes) {
		return Fix{}, false, io.EOF
	}
	fx := f.fixes[f.i]
	f.i++
	return fx, true, nil
}

func (f *fixedSource) Close() error { return nil }

func TestLoopArmsBeaconOnPeriodBoundary(t *testing.T) {
	hal := fake.New()
	hal.SetTrigCnt(1000000)

	var timeRef state.TimeReference
	var coord state.GPSCoord
	var arm state.BeaconArm

	// spec scenario 5: beacon_period=128, offset=0, utc.tv_sec = 128k-1
	src := &fixedSource{fixes: []Fix{
		{UTC: time.Unix(128*3-1, 0).UTC(), Coord: Coord{Latitude: 48.858, Longitude: 2.295}, Valid: true},
	}}

	l := &Loop{
		Source:        src,
		Concentrator:  radio.NewConcentrator(hal),
		TimeRef:       &timeRef,
		Coord:         &coord,
		Corrector:     xtal.NewCorrector(xtal.DefaultConfig()),
		BeaconArm:     &arm,
		BeaconEnabled: true,
		BeaconPeriod:  128,
		BeaconOffset:  0,
	}

	err := l.Run()
	assert.ErrorIs(t, err, io.EOF)
	assert.True(t, arm.Armed())

	lat, lon, _, valid := coord.Get()
	require.True(t, valid)
	assert.InDelta(t, 48.858, lat, 1e-9)
	assert.InDelta(t, 2.295, lon, 1e-9)

	snap := timeRef.Snapshot()
	require.True(t, snap.Valid())
	assert.Equal(t, uint32(1000000), snap.CountAtPPS)
}

func TestLoopFeedsOscillatorSampleOnSecondFix(t *testing.T) {
	hal := fake.New()
	var timeRef state.TimeReference
	var coord state.GPSCoord
	var arm state.BeaconArm
	corrector := xtal.NewCorrector(xtal.Config{InitAvgSamples: 1, FiltCoef: 256})

	base := time.Unix(1000, 0).UTC()
	hal.SetTrigCnt(0)
	src := &fixedSource{fixes: []Fix{
		{UTC: base, Coord: Coord{}, Valid: true},
	}}
	l := &Loop{
		Source: src, Concentrator: radio.NewConcentrator(hal), TimeRef: &timeRef,
		Coord: &coord, Corrector: corrector, BeaconArm: &arm,
	}
	require.ErrorIs(t, l.Run(), io.EOF)

	// second fix one second later, counter advanced by exactly 1e6 ticks:
	// a perfect oscillator, so the correction stays at 1.0 after tracking.
	hal.SetTrigCnt(1000000)
	src2 := &fixedSource{fixes: []Fix{
		{UTC: base.Add(time.Second), Coord: Coord{}, Valid: true},
	}}
	l.Source = src2
	require.ErrorIs(t, l.Run(), io.EOF)

	v, valid := corrector.Value()
	require.True(t, valid)
	assert.InDelta(t, 1.0, v, 1e-9)
}

func TestLoopInvalidatesCoordOnVoidFix(t *testing.T) {
	hal := fake.New()
	var timeRef state.TimeReference
	var coord state.GPSCoord
	coord.Update(1, 2, 3)
	var arm state.BeaconArm

	src := &fixedSource{fixes: []Fix{{Valid: false}}}
	l := &Loop{Source: src, Concentrator: radio.NewConcentrator(hal), TimeRef: &timeRef, Coord: &coord, Corrector: xtal.NewCorrector(xtal.DefaultConfig()), BeaconArm: &arm}
	require.ErrorIs(t, l.Run(), io.EOF)

	_, _, _, valid := coord.Get()
	assert.False(t, valid)
}
