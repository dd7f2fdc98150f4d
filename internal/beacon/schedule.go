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

package beacon

import (
	"math"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/lorafwd/gateway/internal/radio"
)

// PollInterval is BEACON_POLL_MS: the polling cadence while waiting for
// the radio's TX status to return to free after a beacon submission.
const PollInterval = 50 * time.Millisecond

// PollTimeout is the maximum time to wait for the radio to report TX_FREE
// again after submitting a beacon.
const PollTimeout = 1500 * time.Millisecond

// RadioParams are the mandated fixed beacon radio parameters.
var RadioParams = struct {
	Bandwidth    int
	SpreadFactor int
	CodeRate     string
	Preamble     uint16
	RFPower      int8
	RFChain      uint8
}{
	Bandwidth:    125000,
	SpreadFactor: 9,
	CodeRate:     "4/5",
	Preamble:     6,
	RFPower:      14,
	RFChain:      0,
}

// TxPacket builds the radio.TxPacket for a beacon with the given payload and
// frequency, applying fixed LoRa beacon parameters.
func TxPacket(payload [PayloadSize]byte, freqHz uint32) radio.TxPacket {
	return radio.TxPacket{
		TxMode:      radio.TxOnGPS,
		FreqHz:      freqHz,
		RFChain:     RadioParams.RFChain,
		RFPower:     RadioParams.RFPower,
		Modulation:  radio.ModulationLoRa,
		DatrLoRaSF:  RadioParams.SpreadFactor,
		Bandwidth:   RadioParams.Bandwidth,
		CodeRate:    RadioParams.CodeRate,
		InvertPol:   true,
		Preamble:    RadioParams.Preamble,
		NoCRC:       true,
		NoHeader:    true,
		Size:        PayloadSize,
		Payload:     payload[:],
	}
}

// CorrectedFreq applies the XTAL correction factor to the configured beacon
// frequency.
func CorrectedFreq(beaconFreqHz uint32, xtalCorrect float64) uint32 {
	return uint32(math.Round(xtalCorrect * float64(beaconFreqHz)))
}

// Emit submits a beacon to the radio and polls its TX status until it
// returns to free or PollTimeout elapses, logging success only if the radio
// actually reports free again within the window. The
// caller must already hold the radio lock for the duration of this call,
// since submission and status polling must not interleave with other
// radio operations.
func Emit(hal radio.HAL, pkt radio.TxPacket) error {
	if err := hal.Send(pkt); err != nil {
		return err
	}
	deadline := time.Now().Add(PollTimeout)
	for time.Now().Before(deadline) {
		st, err := hal.Status()
		if err != nil {
			return err
		}
		if st == radio.StatusFree {
			log.Debug("beacon transmitted successfully")
			return nil
		}
		time.Sleep(PollInterval)
	}
	log.Warning("beacon transmit status did not return to free within poll window")
	return nil
}
