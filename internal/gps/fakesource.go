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
	"sync"
	"time"
)

// FakeSource is the Source behind the fake_gps config flag: a bench/CI
// substitute for real hardware that yields a fix at a fixed cadence,
// always at the configured reference coordinates and always reporting the
// system clock as UTC.
type FakeSource struct {
	Coord    Coord
	Interval time.Duration

	once   sync.Once
	closed chan struct{}
}

// NewFakeSource returns a FakeSource emitting one fix per interval at coord.
func NewFakeSource(coord Coord, interval time.Duration) *FakeSource {
	return &FakeSource{Coord: coord, Interval: interval, closed: make(chan struct{})}
}

// Next blocks for Interval, then returns a synthetic valid fix, unless
// Close has been called in the meantime.
func (f *FakeSource) Next() (Fix, bool, error) {
	select {
	case <-f.closed:
		return Fix{}, false, io.EOF
	case <-time.After(f.Interval):
		return Fix{UTC: time.Now().UTC(), Coord: f.Coord, Valid: true}, true, nil
	}
}

// Close unblocks any pending Next call.
func (f *FakeSource) Close() error {
	f.once.Do(func() { close(f.closed) })
	return nil
}
