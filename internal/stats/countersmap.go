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

package stats

import "fmt"

// CountersMap flattens a Snapshot into the dotted-key map shape the JSON
// "/counters" endpoint and the Prometheus exporter both consume, following
// the flat-namespace convention common to Go JSON stats handlers.
func (s Snapshot) CountersMap() map[string]uint64 {
	m := map[string]uint64{
		"upstream.rx_rcv":          uint64(s.Upstream.RxRcv),
		"upstream.rx_ok":           uint64(s.Upstream.RxOk),
		"upstream.rx_bad":          uint64(s.Upstream.RxBad),
		"upstream.rx_nocrc":        uint64(s.Upstream.RxNoCRC),
		"upstream.pkt_fwd":         uint64(s.Upstream.UpPktFwd),
		"upstream.network_byte":    uint64(s.Upstream.UpNetworkByte),
		"upstream.payload_byte":    uint64(s.Upstream.UpPayloadByte),
		"upstream.dgram_sent":      uint64(s.Upstream.UpDgramSent),
		"upstream.ack_rcv":         uint64(s.Upstream.UpAckRcv),
		"xtal.jitter_ppm":          uint64(s.XtalJitter * 1e6),
	}
	if s.XtalValid {
		m["xtal.correct_ppm"] = uint64(s.XtalCorrect * 1e6)
	}
	for _, srv := range s.Servers {
		prefix := fmt.Sprintf("downstream.%s.", srv.Name)
		m[prefix+"pull_sent"] = uint64(srv.Counters.DwPullSent)
		m[prefix+"ack_rcv"] = uint64(srv.Counters.DwAckRcv)
		m[prefix+"dgram_rcv"] = uint64(srv.Counters.DwDgramRcv)
		m[prefix+"network_byte"] = uint64(srv.Counters.DwNetworkByte)
		m[prefix+"payload_byte"] = uint64(srv.Counters.DwPayloadByte)
		m[prefix+"tx_ok"] = uint64(srv.Counters.NbTxOk)
		m[prefix+"tx_fail"] = uint64(srv.Counters.NbTxFail)
	}
	return m
}
