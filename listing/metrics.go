// Copyright 2026 Blink Labs Software
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

package listing

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeSubmitted = "submitted"
	outcomeDryRun    = "dry_run"
)

type listingMetrics struct {
	attempts        *prometheus.CounterVec
	stagesReached   *prometheus.CounterVec
	assemblySeconds prometheus.Histogram
}

func initListingMetrics(reg prometheus.Registerer) *listingMetrics {
	factory := promauto.With(reg)
	m := &listingMetrics{}
	m.attempts = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aftermarket_listing_attempts_total",
			Help: "listing attempts by outcome",
		},
		[]string{"outcome"},
	)
	m.stagesReached = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aftermarket_listing_stage_reached_total",
			Help: "listing attempts reaching each state",
		},
		[]string{"state"},
	)
	m.assemblySeconds = factory.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "aftermarket_listing_duration_seconds",
			Help:    "time from request to terminal state",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		},
	)
	return m
}

func (m *listingMetrics) stageReached(state State) {
	if m == nil {
		return
	}
	m.stagesReached.WithLabelValues(state.String()).Inc()
}

func (m *listingMetrics) finished(outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.attempts.WithLabelValues(outcome).Inc()
	m.assemblySeconds.Observe(seconds)
}
