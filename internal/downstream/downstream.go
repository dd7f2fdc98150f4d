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

// Package downstream implements one per-server downstream loop (C4):
// PULL_DATA keepalive, PULL_ACK bookkeeping, PULL_RESP
// scheduling onto the radio, and the auto-quit counter.
package downstream

import (
	"math/rand"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/lorafwd/gateway/internal/beacon"
	"github.com/lorafwd/gateway/internal/protocol"
	"github.com/lorafwd/gateway/internal/radio"
	"github.com/lorafwd/gateway/internal/state"
	"github.com/lorafwd/gateway/internal/transport"
	"github.com/lorafwd/gateway/internal/xtal"
)

// Loop is one C4 instance, bound to a single live server.
type Loop struct {
	Server       *transport.ServerEndpoint
	Concentrator *radio.Concentrator

	Counters *state.DownstreamCounters
	TimeRef  *state.TimeReference

	GPSConfigured bool
	Corrector     *xtal.Corrector
	BeaconArm     *state.BeaconArm
	BeaconFreqHz  uint32
	BeaconCoord   beacon.Coord

	KeepaliveInterval time.Duration
	GatewayID         uint64
	Rand              *rand.Rand

	AutoquitThreshold int
	RequestShutdown   func()

	Exit func() bool

	consecutiveUnacked int
}

// Run executes the loop until Exit reports true or RequestShutdown fires.
func (l *Loop) Run() {
	for {
		if l.Exit != nil && l.Exit() {
			return
		}
		if l.AutoquitThreshold > 0 && l.consecutiveUnacked >= l.AutoquitThreshold {
			log.Errorf("%s: %d consecutive PULL_DATA without ack, requesting shutdown", l.Server.Name, l.consecutiveUnacked)
			if l.RequestShutdown != nil {
				l.RequestShutdown()
			}
			return
		}
		l.iterate()
	}
}

func (l *Loop) iterate() {
	token := protocol.NewToken(l.Rand)
	buf := make([]byte, protocol.HeaderSize)
	protocol.PutHeader(buf, token, protocol.PullData, l.GatewayID)
	if err := l.Server.SendDown(buf); err != nil {
		log.WithError(err).Warningf("%s: PULL_DATA send failed", l.Server.Name)
		return
	}
	l.Counters.IncPullSent()
	l.consecutiveUnacked++
	reqAck := false
	sendTime := time.Now()

	recvBuf := make([]byte, 4096)
	for time.Since(sendTime) < l.KeepaliveInterval {
		n, err := l.Server.RecvDown(recvBuf, transport.PullTimeout)
		if err != nil {
			log.WithError(err).Warningf("%s: downstream recv failed", l.Server.Name)
			return
		}
		if n == 0 {
			continue // timeout, keep polling until keepalive elapses
		}
		l.handleDatagram(recvBuf[:n], token, &reqAck)
	}
}

func (l *Loop) handleDatagram(datagram []byte, token protocol.Token, reqAck *bool) {
	l.maybeEmitBeacon()

	hdr, err := protocol.ParseHeader(datagram)
	if err != nil {
		return // too short or wrong version: silently dropped (P10)
	}

	switch hdr.PktType {
	case protocol.PullAck:
		if protocol.Token(hdr.Token) != token {
			return
		}
		if *reqAck {
			log.Debugf("%s: duplicate PULL_ACK", l.Server.Name)
			return
		}
		*reqAck = true
		l.consecutiveUnacked = 0
		l.Counters.IncAckRcv()
	case protocol.PullResp:
		l.handlePullResp(datagram)
	default:
		// any other packet type is ignored
	}
}

func (l *Loop) handlePullResp(datagram []byte) {
	if len(datagram) < 4 {
		return
	}
	body := datagram[4:]

	var timeRef *state.TimeReference
	if l.GPSConfigured {
		timeRef = l.TimeRef
	}
	pkt, err := parsePullResp(body, timeRef)
	if err != nil {
		log.WithError(err).Warningf("%s: dropping malformed PULL_RESP", l.Server.Name)
		return
	}

	l.Counters.IncDgramRcv(uint32(len(datagram)), uint32(len(pkt.Payload)))

	l.Concentrator.Lock()
	sendErr := l.Concentrator.HAL().Send(pkt)
	l.Concentrator.Unlock()
	if sendErr != nil {
		log.WithError(sendErr).Warningf("%s: radio rejected PULL_RESP frame", l.Server.Name)
		l.Counters.IncTxFail()
		return
	}
	l.Counters.IncTxOk()
}

// maybeEmitBeacon is the co-located beacon check: it runs on every
// received downstream datagram so the beacon timing stays tied to the PPS
// edge without a dedicated task. field_time is derived from the time
// reference's UTC, not wall clock, so it marks the same PPS edge C5 armed
// the beacon for even if this loop emits it a few seconds late.
func (l *Loop) maybeEmitBeacon() {
	if l.BeaconArm == nil || !l.BeaconArm.Armed() {
		return
	}
	if !l.GPSConfigured {
		l.BeaconArm.Disarm()
		return
	}
	snap := l.TimeRef.Snapshot()
	if !snap.Valid() {
		l.BeaconArm.Disarm()
		return
	}
	xcorrect, valid := l.Corrector.Value()
	if !valid {
		l.BeaconArm.Disarm()
		return
	}

	fieldTime := uint32(snap.UTC.Unix() + 1)
	payload := beacon.Build(fieldTime, l.BeaconCoord)
	freq := beacon.CorrectedFreq(l.BeaconFreqHz, xcorrect)
	pkt := beacon.TxPacket(payload, freq)

	l.Concentrator.Lock()
	err := beacon.Emit(l.Concentrator.HAL(), pkt)
	l.Concentrator.Unlock()
	if err != nil {
		log.WithError(err).Warning("beacon emit failed")
	}
	l.BeaconArm.Disarm()
}
