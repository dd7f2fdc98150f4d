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
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

// PrometheusExporter republishes a Snapshot's flattened counters as gauges,
// one dynamically-registered metric per key, reusing an already-registered
// gauge on AlreadyRegisteredError rather than failing. Update is called
// directly from the in-process snapshot - the
// gateway and its stats reporter share one process, so there's no
// self-scrape over HTTP to do.
type PrometheusExporter struct {
	registry *prometheus.Registry

	mu     sync.Mutex
	gauges map[string]prometheus.Gauge
}

// NewPrometheusExporter returns a ready-to-use exporter with an empty
// registry.
func NewPrometheusExporter() *PrometheusExporter {
	return &PrometheusExporter{
		registry: prometheus.NewRegistry(),
		gauges:   make(map[string]prometheus.Gauge),
	}
}

// Update sets each counter's gauge, registering it on first sight.
func (e *PrometheusExporter) Update(counters map[string]uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for key, val := range counters {
		name := "lorafwd_" + flattenKey(key)
		g, ok := e.gauges[name]
		if !ok {
			g = prometheus.NewGauge(prometheus.GaugeOpts{Name: name, Help: key})
			if err := e.registry.Register(g); err != nil {
				are := &prometheus.AlreadyRegisteredError{}
				if errors.As(err, are) {
					g = are.ExistingCollector.(prometheus.Gauge)
				} else {
					log.Errorf("stats: failed to register metric %s: %v", name, err)
					continue
				}
			}
			e.gauges[name] = g
		}
		g.Set(float64(val))
	}
}

// Handler returns the /metrics HTTP handler for this exporter's registry.
func (e *PrometheusExporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

func flattenKey(key string) string {
	key = strings.ReplaceAll(key, ".", "_")
	key = strings.ReplaceAll(key, "-", "_")
	return key
}
