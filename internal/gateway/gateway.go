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

// Package gateway is C9: it builds C1-C8 from a resolved configuration and
// runs them to completion, mapping OS signals onto the cooperative
// exit/quit flags.
package gateway

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"sync/atomic"
	"time"

	"github.com/coreos/go-systemd/daemon"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	unix "golang.org/x/sys/unix"

	"github.com/lorafwd/gateway/internal/beacon"
	"github.com/lorafwd/gateway/internal/config"
	"github.com/lorafwd/gateway/internal/downstream"
	"github.com/lorafwd/gateway/internal/gps"
	"github.com/lorafwd/gateway/internal/radio"
	"github.com/lorafwd/gateway/internal/state"
	"github.com/lorafwd/gateway/internal/stats"
	"github.com/lorafwd/gateway/internal/transport"
	"github.com/lorafwd/gateway/internal/upstream"
	"github.com/lorafwd/gateway/internal/xtal"
)

// defaultGPSBaud is the baud rate conventionally used by u-blox and similar
// NMEA-emitting GPS modules; it is the rate passed to gps.Open.
const defaultGPSBaud = 9600

// Gateway owns every C1-C8 collaborator and the exit/quit flags that
// cooperatively shut them down.
type Gateway struct {
	cfg *config.Config

	concentrator *radio.Concentrator

	upCounters *state.UpstreamCounters
	timeRef    *state.TimeReference
	coord      *state.GPSCoord
	beaconArm  *state.BeaconArm
	statusRep  *state.StatusReport
	corrector  *xtal.Corrector

	upstreamLoop *upstream.Loop
	downLoops    []*downstream.Loop
	downCounters []stats.ServerCounters

	gpsSource gps.Source
	gpsLoop   *gps.Loop
	validator *xtal.Validator

	reporter *stats.Reporter

	exit atomic.Bool
	quit atomic.Bool
}

// New wires C1-C8 from cfg. hal backs the single shared concentrator;
// production builds without real SX130x/libloragw bindings available use
// internal/radio/fake.HAL, the deterministic software concentrator.
func New(cfg *config.Config, hal radio.HAL) (*Gateway, error) {
	g := &Gateway{cfg: cfg}

	g.concentrator = radio.NewConcentrator(hal)
	g.upCounters = &state.UpstreamCounters{}
	g.timeRef = &state.TimeReference{}
	g.coord = &state.GPSCoord{}
	g.beaconArm = &state.BeaconArm{}
	g.statusRep = &state.StatusReport{}
	g.corrector = xtal.NewCorrector(xtal.DefaultConfig())

	if cfg.Ghoststream {
		log.Warning("gateway: ghoststream is enabled but no ghost sidecar is wired in this build, ignoring")
	}
	if cfg.Monitor {
		log.Warning("gateway: monitor sidecar is enabled but no implementation is wired in this build, ignoring")
	}

	servers, err := g.dialServers(cfg)
	if err != nil {
		return nil, err
	}

	g.upstreamLoop = &upstream.Loop{
		Concentrator:  g.concentrator,
		Servers:       servers,
		GatewayID:     cfg.GatewayID,
		Counters:      g.upCounters,
		TimeRef:       g.timeRef,
		StatusReport:  g.statusRep,
		GPSConfigured: cfg.GPS,
		Policy: upstream.CRCPolicy{
			ForwardValid:    cfg.ForwardCRCValid,
			ForwardError:    cfg.ForwardCRCError,
			ForwardDisabled: cfg.ForwardCRCDisabled,
		},
		PushTimeoutHalf: transport.PushTimeoutHalf,
		Rand:            rand.New(rand.NewSource(time.Now().UnixNano())),
		Exit:            g.shouldStop,
	}

	if cfg.GPS {
		if err := g.wireGPS(cfg); err != nil {
			return nil, err
		}
	}

	g.reporter = &stats.Reporter{
		Upstream:            g.upCounters,
		Servers:             g.downCounters,
		StatusReport:        g.statusRep,
		StatusstreamEnabled: cfg.Statusstream,
		TimeRef:             g.timeRef,
		Coord:               g.coord,
		Corrector:           g.corrector,
		Concentrator:        g.concentrator,
		Platform:            cfg.Platform,
		ContactEmail:        cfg.ContactEmail,
		Description:         cfg.Description,
		MonitoringPort:      cfg.MonitoringPort,
		Interval:            cfg.StatInterval,
		Exit:                g.shouldStop,
	}

	return g, nil
}

func (g *Gateway) dialServers(cfg *config.Config) ([]*transport.ServerEndpoint, error) {
	var servers []*transport.ServerEndpoint
	for i, sc := range cfg.Servers {
		if !sc.Enabled {
			continue
		}
		ep, err := transport.Dial(sc.Address, sc.Address, sc.PortUp, sc.PortDown, transport.PushTimeoutHalf)
		if err != nil {
			log.WithError(err).Warningf("gateway: server %s did not come up live", sc.Address)
		}
		if !ep.Live {
			continue
		}
		servers = append(servers, ep)

		dc := &state.DownstreamCounters{}
		g.downCounters = append(g.downCounters, stats.ServerCounters{Name: ep.Name, Counters: dc})

		g.downLoops = append(g.downLoops, &downstream.Loop{
			Server:            ep,
			Concentrator:      g.concentrator,
			Counters:          dc,
			TimeRef:           g.timeRef,
			GPSConfigured:     cfg.GPS,
			Corrector:         g.corrector,
			BeaconArm:         g.beaconArm,
			BeaconFreqHz:      cfg.BeaconFreqHz,
			BeaconCoord:       beacon.Coord{Latitude: cfg.RefLatitude, Longitude: cfg.RefLongitude},
			KeepaliveInterval: cfg.KeepaliveInterval,
			GatewayID:         cfg.GatewayID,
			Rand:              rand.New(rand.NewSource(time.Now().UnixNano() + int64(i))),
			AutoquitThreshold: cfg.AutoquitThreshold,
			RequestShutdown:   g.requestExit,
			Exit:              g.shouldStop,
		})
	}
	if len(servers) == 0 {
		return nil, fmt.Errorf("gateway: no configured server came up live")
	}
	return servers, nil
}

func (g *Gateway) wireGPS(cfg *config.Config) error {
	var src gps.Source
	if cfg.FakeGPS {
		src = gps.NewFakeSource(gps.Coord{
			Latitude:  cfg.RefLatitude,
			Longitude: cfg.RefLongitude,
			Altitude:  cfg.RefAltitude,
		}, time.Second)
	} else {
		opened, err := gps.Open(cfg.GPSTTYPath, defaultGPSBaud)
		if err != nil {
			return fmt.Errorf("opening gps device %s: %w", cfg.GPSTTYPath, err)
		}
		src = opened
	}
	g.gpsSource = src

	g.gpsLoop = &gps.Loop{
		Source:        src,
		Concentrator:  g.concentrator,
		TimeRef:       g.timeRef,
		Coord:         g.coord,
		Corrector:     g.corrector,
		BeaconArm:     g.beaconArm,
		BeaconEnabled: cfg.BeaconStream,
		BeaconPeriod:  cfg.BeaconPeriod,
		BeaconOffset:  cfg.BeaconOffset,
		Exit:          g.shouldStop,
	}
	g.validator = &xtal.Validator{TimeRef: g.timeRef, Corrector: g.corrector, Exit: g.shouldStop}
	return nil
}

func (g *Gateway) requestExit()     { g.exit.Store(true) }
func (g *Gateway) shouldStop() bool { return g.exit.Load() || g.quit.Load() }

// Run starts every collaborator and blocks until a signal or the auto-quit
// threshold requests shutdown. It returns nil on a clean shutdown.
func (g *Gateway) Run(ctx context.Context) error {
	if g.cfg.Radiostream {
		if err := g.concentrator.Start(); err != nil {
			return fmt.Errorf("starting concentrator: %w", err)
		}
		// Startup self-test: read the trigger
		// counter once before the main loops begin, purely to fail fast on
		// an unresponsive HAL. Non-fatal; the reporter's own periodic read
		// will surface a persistent problem.
		if _, err := g.concentrator.TrigCnt(); err != nil {
			log.WithError(err).Debug("gateway: startup trigger-counter self-test failed")
		}
	}

	g.reporter.Start()
	notifyReady()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, unix.SIGINT, unix.SIGTERM, unix.SIGQUIT)
	defer signal.Stop(sigCh)
	go g.handleSignals(sigCh)

	eg, _ := errgroup.WithContext(ctx)
	eg.Go(runAsGroupMember(g.upstreamLoop.Run))
	for _, dl := range g.downLoops {
		eg.Go(runAsGroupMember(dl.Run))
	}
	eg.Go(runAsGroupMember(g.reporter.Run))

	// C5 and C6 block on device I/O and a ticker respectively rather than
	// polling a context; they are cancellation targets, not joined threads.
	if g.gpsLoop != nil {
		go func() {
			if err := g.gpsLoop.Run(); err != nil {
				log.WithError(err).Error("gateway: gps sync loop exited")
			}
		}()
		go g.validator.Run()
	}

	watchdogDone := make(chan struct{})
	go g.watchdogLoop(watchdogDone)
	defer close(watchdogDone)

	_ = eg.Wait()

	g.shutdown()
	return nil
}

func runAsGroupMember(run func()) func() error {
	return func() error {
		run()
		return nil
	}
}

func (g *Gateway) shutdown() {
	if g.gpsSource != nil {
		if err := g.gpsSource.Close(); err != nil {
			log.WithError(err).Warning("gateway: gps source close failed")
		}
	}
	for _, dl := range g.downLoops {
		dl.Server.Close()
	}
	if g.cfg.Radiostream && !g.quit.Load() {
		if err := g.concentrator.Stop(); err != nil {
			log.WithError(err).Warning("gateway: concentrator stop failed")
		}
	}
	g.reporter.Stop(context.Background())
}

func (g *Gateway) handleSignals(sigCh <-chan os.Signal) {
	sig, ok := <-sigCh
	if !ok {
		return
	}
	if sig == unix.SIGQUIT {
		log.Warning("gateway: SIGQUIT received, exiting without hardware cleanup")
		g.quit.Store(true)
		return
	}
	log.Warningf("gateway: %s received, shutting down cleanly", sig)
	g.exit.Store(true)
}

// watchdogLoop notifies systemd once per stat interval as long as the
// gateway hasn't been asked to stop, giving a unit with WatchdogSec= an
// independent way to detect a wedged process.
func (g *Gateway) watchdogLoop(done <-chan struct{}) {
	interval := g.cfg.StatInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if g.shouldStop() {
				return
			}
			notifyWatchdog()
		}
	}
}

func notifyReady() {
	supported, err := daemon.SdNotify(false, daemon.SdNotifyReady)
	if err != nil {
		log.WithError(err).Warning("gateway: sd_notify(READY=1) failed")
	} else if !supported {
		log.Debug("gateway: sd_notify not supported (no NOTIFY_SOCKET)")
	}
}

func notifyWatchdog() {
	if _, err := daemon.SdNotify(false, daemon.SdNotifyWatchdog); err != nil {
		log.WithError(err).Warning("gateway: sd_notify(WATCHDOG=1) failed")
	}
}
