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

import (
	"context"
	"io"
	"os"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/lorafwd/gateway/internal/radio"
	"github.com/lorafwd/gateway/internal/state"
	"github.com/lorafwd/gateway/internal/xtal"
)

// SilentResetSentinel is the concentrator trigger-counter value that
// indicates the chip has reset without the gateway noticing.
const SilentResetSentinel = 0x7E000000

// ServerCounters names one server's counter group for the reporter.
type ServerCounters struct {
	Name     string
	Counters *state.DownstreamCounters
}

// Reporter is the C8 stats-and-status loop.
type Reporter struct {
	Upstream *state.UpstreamCounters
	Servers  []ServerCounters

	StatusReport        *state.StatusReport
	StatusstreamEnabled bool

	TimeRef      *state.TimeReference
	Coord        *state.GPSCoord
	Corrector    *xtal.Corrector
	Concentrator *radio.Concentrator

	Platform     string
	ContactEmail string
	Description  string

	MonitoringPort int

	Interval time.Duration
	Out      io.Writer

	// Fatal is called when the concentrator reports the silent-reset
	// sentinel. Defaults to log.Fatalf, which terminates the process;
	// overridable so tests can observe the call instead of dying.
	Fatal func(format string, args ...interface{})

	Exit func() bool

	prom *PrometheusExporter
	http *httpServer
}

// Start wires up the monitoring HTTP server and Prometheus exporter, if
// configured. Call once before Run.
func (r *Reporter) Start() {
	if r.Out == nil {
		r.Out = os.Stdout
	}
	if r.Fatal == nil {
		r.Fatal = log.Fatalf
	}
	if r.MonitoringPort != 0 {
		r.prom = NewPrometheusExporter()
		r.http = newHTTPServer(r.MonitoringPort, r.prom)
		r.http.start()
	}
}

// Stop shuts down the monitoring HTTP server, if one is running.
func (r *Reporter) Stop(ctx context.Context) {
	if r.http != nil {
		r.http.stop(ctx)
	}
}

// Run ticks every Interval until Exit reports true.
func (r *Reporter) Run() {
	ticker := time.NewTicker(r.Interval)
	defer ticker.Stop()
	for {
		if r.Exit != nil && r.Exit() {
			return
		}
		<-ticker.C
		r.Tick()
	}
}

// Tick executes one full stats cycle: snapshot-and-reset both counter
// groups, check the silent-reset sentinel, print the human report, and
// publish the status fragment and monitoring views.
func (r *Reporter) Tick() {
	up := r.Upstream.SnapshotAndReset()
	servers := make([]ServerSnapshot, 0, len(r.Servers))
	for _, sc := range r.Servers {
		servers = append(servers, ServerSnapshot{Name: sc.Name, Counters: sc.Counters.SnapshotAndReset()})
	}
	snap := newSnapshot(up, servers)

	if r.Corrector != nil {
		snap.XtalCorrect, snap.XtalValid = r.Corrector.Value()
		snap.XtalJitter = r.Corrector.Jitter()
	}
	if r.Coord != nil {
		snap.Latitude, snap.Longitude, snap.Altitude, snap.GPSValid = r.Coord.Get()
	}
	now := time.Now()
	snap.Time = now

	r.checkSilentReset()

	printHumanReport(r.Out, snap)

	if r.StatusstreamEnabled {
		fragment, err := renderStatusFragment(snap, now, r.Platform, r.ContactEmail, r.Description)
		if err != nil {
			log.WithError(err).Error("stats: failed to render status fragment")
		} else if err := r.StatusReport.Publish(fragment); err != nil {
			log.WithError(err).Error("stats: status fragment rejected by buffer")
		}
	}

	counters := snap.CountersMap()
	if r.prom != nil {
		r.prom.Update(counters)
	}
	if r.http != nil {
		proc, err := processStats()
		if err != nil {
			log.WithError(err).Warning("stats: failed to collect process stats")
		}
		r.http.update(counters, proc)
	}
}

// checkSilentReset implements "read the concentrator
// trigger counter; if it equals the sentinel, the chip has silently reset -
// log and exit the whole process."
func (r *Reporter) checkSilentReset() {
	if r.Concentrator == nil {
		return
	}
	r.Concentrator.Lock()
	trigCnt, err := r.Concentrator.HAL().TrigCnt()
	r.Concentrator.Unlock()
	if err != nil {
		log.WithError(err).Warning("stats: failed to read concentrator trigger counter")
		return
	}
	if trigCnt == SilentResetSentinel {
		r.Fatal("concentrator trigger counter %#x matches the silent-reset sentinel, exiting", trigCnt)
	}
}
