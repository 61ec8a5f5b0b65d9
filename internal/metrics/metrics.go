// SPDX-FileCopyrightText: 2026 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "cpuinfo"

const (
	resultSuccess = "success"
	resultFailure = "failure"
)

// Recorder exposes the collector's register and publish counters.
type Recorder struct {
	reads     *prometheus.CounterVec
	retries   *prometheus.CounterVec
	publishes *prometheus.CounterVec
	passes    prometheus.Counter
	duration  prometheus.Gauge
}

// NewRecorder creates a Recorder and registers its collectors with reg.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		reads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "register_reads_total",
			Help:      "Total number of out-of-band register operations by outcome after retries.",
		}, []string{"op", "result"}),
		retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "register_retries_total",
			Help:      "Total number of failed out-of-band attempts that were retried.",
		}, []string{"op"}),
		publishes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_total",
			Help:      "Total number of inventory property writes by outcome.",
		}, []string{"property", "result"}),
		passes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "collection_passes_total",
			Help:      "Total number of completed collection passes.",
		}),
		duration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "collection_duration_seconds",
			Help:      "Duration of the last collection pass.",
		}),
	}
	reg.MustRegister(r.reads, r.retries, r.publishes, r.passes, r.duration)
	return r
}

func result(err error) string {
	if err != nil {
		return resultFailure
	}
	return resultSuccess
}

// ObserveRead counts the final outcome of a register operation.
func (r *Recorder) ObserveRead(op string, err error) {
	r.reads.WithLabelValues(op, result(err)).Inc()
}

// ObserveRetry counts one retried attempt of op.
func (r *Recorder) ObserveRetry(op string) {
	r.retries.WithLabelValues(op).Inc()
}

// ObservePublish counts the outcome of a property write.
func (r *Recorder) ObservePublish(property string, err error) {
	r.publishes.WithLabelValues(property, result(err)).Inc()
}

// ObservePass records a finished collection pass.
func (r *Recorder) ObservePass(d time.Duration) {
	r.passes.Inc()
	r.duration.Set(d.Seconds())
}
