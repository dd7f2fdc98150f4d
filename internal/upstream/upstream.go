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

// Package upstream implements the single shared upstream loop (C3):
// batch-fetch radio/ghost packets, filter by CRC policy,
// build one PUSH_DATA datagram per iteration, broadcast it, and collect
// PUSH_ACKs.
package upstream

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"math/rand"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/lorafwd/gateway/internal/protocol"
	"github.com/lorafwd/gateway/internal/radio"
	"github.com/lorafwd/gateway/internal/state"
	"github.com/lorafwd/gateway/internal/transport"
)

// NBPktMax is NB_PKT_MAX: the per-iteration batch cap,
// shared between the radio fetch and the ghost top-up.
const NBPktMax = 8

// FetchSleep is FETCH_SLEEP_MS: how long the loop idles when there is
// nothing to send.
const FetchSleep = 10 * time.Millisecond

const isoLayout = "2006-01-02T15:04:05.000000Z"

// CRCPolicy controls which CRC outcomes get forwarded upstream.
type CRCPolicy struct {
	ForwardValid    bool
	ForwardError    bool
	ForwardDisabled bool
}

// Loop is the C3 upstream loop.
type Loop struct {
	Concentrator *radio.Concentrator
	Ghost        radio.Ghost

	Servers  []*transport.ServerEndpoint
	GatewayID uint64

	Counters     *state.UpstreamCounters
	TimeRef      *state.TimeReference
	StatusReport *state.StatusReport

	GPSConfigured bool
	Policy        CRCPolicy

	PushTimeoutHalf time.Duration

	Rand *rand.Rand
	Exit func() bool
}

// Run executes the loop until Exit reports true.
func (l *Loop) Run() {
	for {
		if l.Exit != nil && l.Exit() {
			return
		}
		l.iterate()
	}
}

func (l *Loop) iterate() {
	batch := l.fetchBatch()
	statusReady := l.StatusReport.IsReady()

	if len(batch) == 0 && !statusReady {
		time.Sleep(FetchSleep)
		return
	}

	var timeRefSnap state.TimeReferenceSnapshot
	if len(batch) > 0 && l.GPSConfigured {
		timeRefSnap = l.TimeRef.Snapshot()
	}
	fetchTimestamp := time.Now().UTC().Format(isoLayout)

	buf, token, forwarded := l.buildDatagram(batch, timeRefSnap, fetchTimestamp)

	if forwarded == 0 && !statusReady {
		// all packets filtered out and no status to report: nothing to send
		return
	}

	for _, srv := range l.Servers {
		if !srv.Live {
			continue
		}
		l.sendAndCollectAck(srv, buf, token)
	}
}

func (l *Loop) fetchBatch() []radio.RxPacket {
	l.Concentrator.Lock()
	batch, err := l.Concentrator.HAL().Receive(NBPktMax)
	l.Concentrator.Unlock()
	if err != nil {
		log.WithError(err).Error("upstream: radio receive failed")
		return nil
	}
	if len(batch) < NBPktMax && l.Ghost != nil {
		ghosted, err := l.Ghost.Get(NBPktMax - len(batch))
		if err != nil {
			log.WithError(err).Warning("upstream: ghost fetch failed")
		} else {
			batch = append(batch, ghosted...)
		}
	}
	return batch
}

// buildDatagram renders the full PUSH_DATA datagram (header + JSON body)
// for one batch, following the mandated field order. It returns the buffer,
// the token used in the header, and the number of packets that survived
// CRC filtering.
func (l *Loop) buildDatagram(batch []radio.RxPacket, timeRefSnap state.TimeReferenceSnapshot, fetchTimestamp string) ([]byte, protocol.Token, int) {
	token := protocol.NewToken(l.Rand)

	buf := make([]byte, protocol.HeaderSize)
	protocol.PutHeader(buf, token, protocol.PushData, l.GatewayID)

	buf = append(buf, []byte(`{"rxpk":[`)...)

	forwarded := 0
	for _, pkt := range batch {
		l.Counters.IncRxRcv()

		ok := pkt.Status == radio.CRCOK
		bad := pkt.Status == radio.CRCBad
		noCRC := pkt.Status == radio.CRCNone
		l.Counters.IncRxStatus(ok, bad, noCRC)

		var forward bool
		switch {
		case ok:
			forward = l.Policy.ForwardValid
		case bad:
			forward = l.Policy.ForwardError
		case noCRC:
			forward = l.Policy.ForwardDisabled
		default:
			log.Warningf("upstream: dropping packet with unknown CRC status %v", pkt.Status)
			forward = false
		}
		if !forward {
			continue
		}

		if forwarded > 0 {
			buf = append(buf, ',')
		}
		buf = appendRxPacket(buf, pkt, timeRefSnap, fetchTimestamp)
		l.Counters.IncForwarded(uint32(pkt.Size))
		forwarded++
	}

	if forwarded == 0 {
		// remove the `"rxpk":[` prefix entirely: no packets survive, so a
		// status fragment, if one is ready, is the whole payload.
		buf = buf[:len(buf)-len(`"rxpk":[`)]
		if !l.StatusReport.IsReady() {
			return buf, token, 0
		}
	} else {
		buf = append(buf, ']')
		if l.StatusReport.IsReady() {
			buf = append(buf, ',')
		}
	}

	if fragment, ok := l.StatusReport.TakeIfReady(); ok {
		buf = append(buf, fragment...)
	}

	buf = append(buf, '}', 0)
	return buf, token, forwarded
}

func appendRxPacket(buf []byte, pkt radio.RxPacket, ref state.TimeReferenceSnapshot, fetchTimestamp string) []byte {
	buf = append(buf, '{')
	buf = append(buf, fmt.Sprintf(`"tmst":%d`, pkt.CountUs)...)

	pktTime := fetchTimestamp
	if ref.Valid() {
		deltaUs := int64(int32(pkt.CountUs - ref.CountAtPPS))
		t := ref.UTC.Add(time.Duration(deltaUs) * time.Microsecond)
		pktTime = t.UTC().Format(isoLayout)
	}
	buf = append(buf, fmt.Sprintf(`,"time":"%s"`, pktTime)...)

	buf = append(buf, fmt.Sprintf(`,"chan":%d,"rfch":%d,"freq":%.6f`, pkt.IFChain, pkt.RFChain, float64(pkt.FreqHz)/1e6)...)

	switch pkt.Status {
	case radio.CRCOK:
		buf = append(buf, `,"stat":1`...)
	case radio.CRCBad:
		buf = append(buf, `,"stat":-1`...)
	default:
		buf = append(buf, `,"stat":0`...)
	}

	buf = append(buf, fmt.Sprintf(`,"modu":"%s"`, pkt.Modulation)...)
	switch pkt.Modulation {
	case radio.ModulationLoRa:
		buf = append(buf, fmt.Sprintf(`,"datr":"SF%dBW%d"`, pkt.DatrLoRaSF, pkt.Bandwidth/1000)...)
		buf = append(buf, fmt.Sprintf(`,"codr":"%s"`, pkt.CodeRate)...)
		buf = append(buf, fmt.Sprintf(`,"lsnr":%.1f`, pkt.SNR)...)
	case radio.ModulationFSK:
		buf = append(buf, fmt.Sprintf(`,"datr":%d`, pkt.FSKDatarate)...)
	}

	buf = append(buf, fmt.Sprintf(`,"rssi":%.0f,"size":%d`, pkt.RSSI, pkt.Size)...)
	buf = append(buf, `,"data":"`...)
	buf = append(buf, base64.StdEncoding.EncodeToString(pkt.Payload)...)
	buf = append(buf, '"', '}')
	return buf
}

// sendAndCollectAck transmits buf to srv and waits for a matching PUSH_ACK:
// up to two receive attempts, stopping on the first valid match, a
// timeout, or any other socket error.
func (l *Loop) sendAndCollectAck(srv *transport.ServerEndpoint, buf []byte, token protocol.Token) {
	if err := srv.SendUp(buf); err != nil {
		log.WithError(err).Warningf("upstream: send to %s failed", srv.Name)
		return
	}
	l.Counters.IncDgramSent(uint32(len(buf)))

	ackBuf := make([]byte, 64)
	for i := 0; i < 2; i++ {
		n, err := srv.RecvUp(ackBuf, l.pushTimeoutHalf())
		if err != nil {
			log.WithError(err).Warningf("upstream: recv from %s failed", srv.Name)
			return
		}
		if n == 0 {
			return // timeout
		}
		if protocol.ValidAck(ackBuf[:n], protocol.PushAck, token) {
			l.Counters.IncAckRcv()
			return
		}
	}
}

func (l *Loop) pushTimeoutHalf() time.Duration {
	if l.PushTimeoutHalf <= 0 {
		return transport.PushTimeoutHalf
	}
	return l.PushTimeoutHalf
}
