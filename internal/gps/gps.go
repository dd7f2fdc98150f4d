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

// Package gps implements the NMEA-over-serial collaborator: a line source
// that the sync loop reads RMC sentences from, plus the coordinate and
// UTC extraction those sentences carry.
package gps

import (
	"bufio"
	"fmt"
	"io"
	"time"

	"go.bug.st/serial"
)

// Coord is a geographic fix.
type Coord struct {
	Latitude  float64
	Longitude float64
	Altitude  float64
}

// Fix is what one parsed RMC sentence yields.
type Fix struct {
	UTC    time.Time
	Coord  Coord
	Valid  bool // NMEA status field: A = valid fix, V = void
}

// Source is the GPS collaborator interface, trimmed to the Go shapes
// actually used by the sync loop (C5). enable()/parse_nmea() are folded
// into line-oriented Next(); cnt2utc/utc2cnt live on
// internal/state.TimeReference instead of here, since that's where the
// reference they operate on lives.
type Source interface {
	// Next blocks for the next line from the device and parses it. It
	// returns (Fix{}, false, nil) for sentences that parse but carry no
	// fix (e.g. a non-RMC sentence or a void RMC).
	Next() (Fix, bool, error)
	Close() error
}

// Serial is a Source backed by a real NMEA-emitting serial device.
type Serial struct {
	port   serial.Port
	reader *bufio.Scanner
}

// Open starts reading NMEA sentences from the given TTY at the given baud
// rate.
func Open(device string, baud int) (*Serial, error) {
	mode := &serial.Mode{BaudRate: baud}
	port, err := serial.Open(device, mode)
	if err != nil {
		return nil, fmt.Errorf("opening gps device %s: %w", device, err)
	}
	return &Serial{port: port, reader: bufio.NewScanner(port)}, nil
}

// Next reads one NMEA line and parses it. io.EOF propagates as an error,
// matching the other blocking-read collaborators in this codebase.
func (s *Serial) Next() (Fix, bool, error) {
	if !s.reader.Scan() {
		if err := s.reader.Err(); err != nil {
			return Fix{}, false, err
		}
		return Fix{}, false, io.EOF
	}
	return ParseNMEA(s.reader.Text())
}

// Close releases the underlying serial port.
func (s *Serial) Close() error {
	return s.port.Close()
}
