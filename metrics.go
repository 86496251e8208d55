// Copyright 2025 Patrick J. Scruggs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package slogslack

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	outcomeSent      = "sent"
	outcomeFailed    = "failed"
	outcomeMalformed = "malformed"
)

// metrics holds the optional delivery collectors. A nil *metrics is valid and
// records nothing.
type metrics struct {
	deliveries *prometheus.CounterVec
	latency    prometheus.Histogram
}

// newMetrics registers the delivery collectors with reg. Collectors already
// registered by another forwarder on the same registry are shared.
func newMetrics(reg prometheus.Registerer) *metrics {
	if reg == nil {
		return nil
	}
	m := &metrics{
		deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "slogslack",
			Name:      "deliveries_total",
			Help:      "Webhook deliveries by outcome.",
		}, []string{"outcome"}),
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "slogslack",
			Name:      "delivery_duration_seconds",
			Help:      "Time spent formatting and posting one record.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	m.deliveries = registerOrReuse(reg, m.deliveries)
	m.latency = registerOrReuse(reg, m.latency)
	return m
}

// registerOrReuse registers c, returning the existing collector when an
// identical one is already registered.
func registerOrReuse[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing
			}
		}
	}
	return c
}

// observe records the outcome and duration of one delivery.
func (m *metrics) observe(err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	outcome := outcomeSent
	if err != nil {
		outcome = outcomeFailed
	}
	m.deliveries.WithLabelValues(outcome).Inc()
	m.latency.Observe(elapsed.Seconds())
}

// malformed counts input that could not be decoded into a record.
func (m *metrics) malformed() {
	if m == nil {
		return
	}
	m.deliveries.WithLabelValues(outcomeMalformed).Inc()
}
