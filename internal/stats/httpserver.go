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
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	log "github.com/sirupsen/logrus"
)

// httpServer is the monitoring_port JSON+Prometheus endpoint: a ServeMux
// with "/" (everything, process stats included) and "/counters" (just the
// flattened counters), plus "/metrics" mounted
// from the Prometheus exporter when one is configured.
type httpServer struct {
	addr string
	prom *PrometheusExporter
	srv  *http.Server

	mu       sync.RWMutex
	counters map[string]uint64
	process  map[string]uint64
}

func newHTTPServer(port int, prom *PrometheusExporter) *httpServer {
	if port == 0 {
		return nil
	}
	return &httpServer{addr: fmt.Sprintf(":%d", port), prom: prom}
}

// update refreshes the data served by "/" and "/counters". Called once per
// stats tick, under the same cadence as the snapshot-and-reset.
func (h *httpServer) update(counters, process map[string]uint64) {
	h.mu.Lock()
	h.counters, h.process = counters, process
	h.mu.Unlock()
}

// start launches the listener in the background. It never blocks the
// caller: log.Fatalf on a bind failure would be too aggressive here since
// the monitoring endpoint is a diagnostic convenience, not core
// functionality.
func (h *httpServer) start() {
	mux := http.NewServeMux()
	mux.HandleFunc("/", h.handleAll)
	mux.HandleFunc("/counters", h.handleCounters)
	if h.prom != nil {
		mux.Handle("/metrics", h.prom.Handler())
	}
	h.srv = &http.Server{Addr: h.addr, Handler: mux}
	go func() {
		if err := h.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Errorf("stats: monitoring http server stopped: %v", err)
		}
	}()
}

func (h *httpServer) stop(ctx context.Context) {
	if h.srv != nil {
		_ = h.srv.Shutdown(ctx)
	}
}

func (h *httpServer) handleAll(w http.ResponseWriter, _ *http.Request) {
	h.mu.RLock()
	combined := make(map[string]uint64, len(h.counters)+len(h.process))
	for k, v := range h.counters {
		combined[k] = v
	}
	for k, v := range h.process {
		combined[k] = v
	}
	h.mu.RUnlock()
	writeJSON(w, combined)
}

func (h *httpServer) handleCounters(w http.ResponseWriter, _ *http.Request) {
	h.mu.RLock()
	out := make(map[string]uint64, len(h.counters))
	for k, v := range h.counters {
		out[k] = v
	}
	h.mu.RUnlock()
	writeJSON(w, out)
}

func writeJSON(w http.ResponseWriter, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write(body); err != nil {
		log.Errorf("stats: failed to write response: %v", err)
	}
}
