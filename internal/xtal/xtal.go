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

// Package xtal implements the crystal-oscillator correction factor (C6):
// an initial-average-then-IIR-filter tracker over the raw per-GPS-sync
// error estimate, matching the "Oscillator correction" state machine
// exactly. It keeps a struct-plus-State-enum shape, but tracks a
// fixed-coefficient filter rather than a tunable PI loop.
package xtal

import (
	"sync"

	"github.com/eclesh/welford"
)

// State mirrors the correction state machine.
type State uint8

// All states the corrector can be in.
const (
	StateInvalid State = iota
	StateInitialising
	StateTracking
)

func (s State) String() string {
	switch s {
	case StateInvalid:
		return "INVALID"
	case StateInitialising:
		return "INITIALISING"
	case StateTracking:
		return "TRACKING"
	default:
		return "UNKNOWN"
	}
}

// XerrInitAvg is XERR_INIT_AVG: how many raw error samples the corrector
// averages before it starts tracking.
const XerrInitAvg = 128

// XerrFiltCoef is XERR_FILT_COEF: the IIR filter coefficient applied once
// tracking.
const XerrFiltCoef = 256

// DefaultConfig returns the mandated correction parameters, so callers
// never have to hardcode the two magic constants inline.
func DefaultConfig() Config {
	return Config{InitAvgSamples: XerrInitAvg, FiltCoef: XerrFiltCoef}
}

// Config holds the tunable constants of the correction algorithm.
type Config struct {
	InitAvgSamples int
	FiltCoef       float64
}

// Corrector tracks the crystal-oscillator correction factor. Safe for
// concurrent use: C4's downstream loop reads the value while C5's GPS loop
// feeds it new raw error samples.
type Corrector struct {
	cfg Config

	mu      sync.RWMutex
	state   State
	value   float64
	initSum float64
	initN   int

	// jitter is a side-channel diagnostic: an
	// online-variance estimate of the raw error samples, never consulted by
	// the correction algorithm itself.
	jitter *welford.Stats
}

// NewCorrector returns a Corrector in the invalid state with value 1.0, per
// the invariant "valid=false ⇒ value=1.0".
func NewCorrector(cfg Config) *Corrector {
	return &Corrector{cfg: cfg, value: 1.0, jitter: welford.New()}
}

// Value returns the current correction factor and whether it is valid.
func (c *Corrector) Value() (float64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.value, c.state == StateTracking
}

// State returns the current state of the correction state machine.
func (c *Corrector) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Jitter returns the sample standard deviation of the raw error feed so far.
func (c *Corrector) Jitter() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.jitter.Stddev()
}

// Sample feeds one raw oscillator-error estimate (as returned by the GPS
// sync primitive) into the corrector, advancing its state machine.
func (c *Corrector) Sample(err float64) {
	if err == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.jitter.Add(err)

	switch c.state {
	case StateInvalid, StateInitialising:
		c.initSum += err
		c.initN++
		if c.initN < c.cfg.InitAvgSamples {
			c.state = StateInitialising
			return
		}
		c.value = float64(c.cfg.InitAvgSamples) / c.initSum
		c.state = StateTracking
	case StateTracking:
		c.value = c.value - c.value/c.cfg.FiltCoef + (1/err)/c.cfg.FiltCoef
	}
}

// Invalidate resets the corrector to its invalid state: value 1.0, next
// Sample call restarts the initial-average phase from scratch. Called once
// the time reference the samples depend on has gone stale: any time the
// reference becomes invalid, the correction is reset.
func (c *Corrector) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = StateInvalid
	c.value = 1.0
	c.initSum = 0
	c.initN = 0
}
