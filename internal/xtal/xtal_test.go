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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCorrectorStartsInvalid(t *testing.T) {
	c := NewCorrector(DefaultConfig())
	v, valid := c.Value()
	assert.False(t, valid)
	assert.Equal(t, 1.0, v)
	assert.Equal(t, StateInvalid, c.State())
}

func TestInitialAverageThenTracking(t *testing.T) {
	c := NewCorrector(Config{InitAvgSamples: 4, FiltCoef: 256})
	for i := 0; i < 3; i++ {
		c.Sample(2.0)
		assert.Equal(t, StateInitialising, c.State())
		_, valid := c.Value()
		assert.False(t, valid)
	}
	c.Sample(2.0)
	v, valid := c.Value()
	require.True(t, valid)
	assert.Equal(t, StateTracking, c.State())
	// sum of 4 samples at 2.0 = 8.0; 4/8.0 = 0.5
	assert.InDelta(t, 0.5, v, 1e-9)
}

func TestTrackingAppliesIIRFilter(t *testing.T) {
	c := NewCorrector(Config{InitAvgSamples: 1, FiltCoef: 256})
	c.Sample(1.0) // -> initial average of one sample: 1/1.0 = 1.0, now tracking
	v0, _ := c.Value()
	assert.InDelta(t, 1.0, v0, 1e-9)

	c.Sample(2.0)
	v1, valid := c.Value()
	require.True(t, valid)
	want := v0 - v0/256 + (1.0/2.0)/256
	assert.InDelta(t, want, v1, 1e-12)
}

func TestInvalidateResetsToOneAndRestartsAveraging(t *testing.T) {
	c := NewCorrector(Config{InitAvgSamples: 2, FiltCoef: 256})
	c.Sample(4.0)
	c.Sample(4.0)
	_, valid := c.Value()
	require.True(t, valid)

	c.Invalidate()
	v, valid := c.Value()
	assert.False(t, valid)
	assert.Equal(t, 1.0, v)
	assert.Equal(t, StateInvalid, c.State())

	// averaging must restart from zero, not resume mid-average
	c.Sample(4.0)
	assert.Equal(t, StateInitialising, c.State())
}

func TestZeroSampleIgnored(t *testing.T) {
	c := NewCorrector(Config{InitAvgSamples: 2, FiltCoef: 256})
	c.Sample(0)
	assert.Equal(t, StateInvalid, c.State())
}
