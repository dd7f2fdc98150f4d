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

// Package stats implements the periodic stats-and-status reporter (C8):
// snapshot-and-reset both counter groups, derive
// ratios, print the human report, render the status fragment, and expose
// the same numbers over JSON and Prometheus.
package stats

import (
	"time"

	"github.com/lorafwd/gateway/internal/state"
)

// ServerSnapshot pairs one server's name with its reset downstream counters.
type ServerSnapshot struct {
	Name     string
	Counters state.DownstreamCounters
}

// Snapshot is one stats-interval's worth of data, fully resolved: raw
// counters plus the ratios derived from them (a ratio with a zero
// denominator is 0.0).
type Snapshot struct {
	Time time.Time

	Upstream state.UpstreamCounters
	Servers  []ServerSnapshot

	RxOkRatio      float64
	ForwardRatio   float64
	UpAckRatio     float64
	DownAckRatio   float64

	XtalCorrect float64
	XtalValid   bool
	XtalJitter  float64

	GPSValid  bool
	Latitude  float64
	Longitude float64
	Altitude  float64
}

func ratio(num, den uint32) float64 {
	if den == 0 {
		return 0.0
	}
	return float64(num) / float64(den)
}

func newSnapshot(up state.UpstreamCounters, servers []ServerSnapshot) Snapshot {
	var dwAckRcv, dwPullSent uint32
	for _, s := range servers {
		dwAckRcv += s.Counters.DwAckRcv
		dwPullSent += s.Counters.DwPullSent
	}
	return Snapshot{
		Upstream:     up,
		Servers:      servers,
		RxOkRatio:    ratio(up.RxOk, up.RxRcv),
		ForwardRatio: ratio(up.UpPktFwd, up.RxRcv),
		UpAckRatio:   ratio(up.UpAckRcv, up.UpDgramSent),
		DownAckRatio: ratio(dwAckRcv, dwPullSent),
	}
}

// downstreamTotal sums NbTxOk/NbTxFail/DwDgramRcv across every server, for
// the status fragment.
func (s Snapshot) downstreamTotal() (txOk, txFail, dgramRcv uint32) {
	for _, srv := range s.Servers {
		txOk += srv.Counters.NbTxOk
		txFail += srv.Counters.NbTxFail
		dgramRcv += srv.Counters.DwDgramRcv
	}
	return
}
