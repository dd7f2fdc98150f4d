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
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/lorafwd/gateway/internal/state"
)

func TestCheckInvalidatesCorrectorWhenReferenceNeverSynced(t *testing.T) {
	var ref state.TimeReference
	c := NewCorrector(DefaultConfig())
	c.Sample(0.5) // enters initialising, value still below tracking threshold... actually moves toward tracking only after InitAvgSamples

	v := &Validator{TimeRef: &ref, Corrector: c}
	v.check()

	value, valid := c.Value()
	assert.False(t, valid)
	assert.Equal(t, 1.0, value)
}

func TestCheckLeavesCorrectorAloneWhileReferenceValid(t *testing.T) {
	var ref state.TimeReference
	ref.Update(time.Now(), time.Now(), 1000)

	c := NewCorrector(DefaultConfig())
	for i := 0; i < XerrInitAvg; i++ {
		c.Sample(1.0)
	}
	_, valid := c.Value()
	assertTrackingState(t, valid)

	v := &Validator{TimeRef: &ref, Corrector: c}
	v.check()

	value, stillValid := c.Value()
	assert.True(t, stillValid)
	assert.InDelta(t, 1.0, value, 1e-9)
}

func assertTrackingState(t *testing.T, valid bool) {
	t.Helper()
	assert.True(t, valid)
}

func TestCheckIsIdempotentOnceAlreadyInvalid(t *testing.T) {
	var ref state.TimeReference
	c := NewCorrector(DefaultConfig())
	c.Invalidate()

	v := &Validator{TimeRef: &ref, Corrector: c}
	v.check()
	v.check()

	value, valid := c.Value()
	assert.False(t, valid)
	assert.Equal(t, 1.0, value)
}
