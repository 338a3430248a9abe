// Copyright 2025 walteh LLC
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

package remote

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeSuccess = "success"
	outcomeError   = "error"
	outcomeNetwork = "network"
)

// 📊 Metrics counts and times calls to the remote service
type Metrics struct {
	requests      *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	bytesUploaded prometheus.Counter
	bytesFetched  prometheus.Counter
}

// NewMetrics registers the client collectors on reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		requests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "secenc_remote_requests_total",
				Help: "Total number of requests to the encoder service",
			},
			[]string{"endpoint", "outcome"},
		),
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "secenc_remote_request_duration_seconds",
				Help:    "Encoder service request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"endpoint"},
		),
		bytesUploaded: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "secenc_remote_key_bytes_uploaded_total",
				Help: "Total bytes of key files uploaded",
			},
		),
		bytesFetched: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "secenc_remote_key_bytes_downloaded_total",
				Help: "Total bytes of key files downloaded",
			},
		),
	}
}

func (m *Metrics) observe(endpoint, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(endpoint, outcome).Inc()
	m.duration.WithLabelValues(endpoint).Observe(d.Seconds())
}

func (m *Metrics) uploaded(n int) {
	if m == nil {
		return
	}
	m.bytesUploaded.Add(float64(n))
}

func (m *Metrics) downloaded(n int64) {
	if m == nil {
		return
	}
	m.bytesFetched.Add(float64(n))
}
