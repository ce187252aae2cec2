/*
Copyright 2025 The My Briefings Authors.

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

package metrics

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	compbasemetrics "k8s.io/component-base/metrics"
	"sigs.k8s.io/controller-runtime/pkg/metrics"
)

const component = "deploykit"

var (
	reconcileSuccessCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Subsystem: component,
			Name:      "reconcile_success_total",
			Help:      helpMsgWithStability("Count of config reconciliations that applied the worker Deployment.", compbasemetrics.ALPHA),
		},
		[]string{},
	)
	reconcileErrorCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Subsystem: component,
			Name:      "reconcile_errors_total",
			Help:      helpMsgWithStability("Count of config reconciliations that failed.", compbasemetrics.ALPHA),
		},
		[]string{},
	)
	deploymentAppliedCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Subsystem: component,
			Name:      "deployments_applied_total",
			Help:      helpMsgWithStability("Count of worker Deployments created or updated.", compbasemetrics.ALPHA),
		},
		[]string{"operation"},
	)
	probeAttemptCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Subsystem: component,
			Name:      "probe_attempts_total",
			Help:      helpMsgWithStability("Count of health probe attempts.", compbasemetrics.ALPHA),
		},
		[]string{},
	)
	probeFailureCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Subsystem: component,
			Name:      "probe_failures_total",
			Help:      helpMsgWithStability("Count of failed health probe attempts.", compbasemetrics.ALPHA),
		},
		[]string{},
	)
	probeHealthyGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Subsystem: component,
			Name:      "probe_healthy",
			Help:      helpMsgWithStability("Whether the probed target is currently healthy (1) or not (0).", compbasemetrics.ALPHA),
		},
		[]string{},
	)
)

var registerMetrics sync.Once

// Register all metrics.
func Register() {
	registerMetrics.Do(func() {
		metrics.Registry.MustRegister(reconcileSuccessCounter)
		metrics.Registry.MustRegister(reconcileErrorCounter)
		metrics.Registry.MustRegister(deploymentAppliedCounter)
		metrics.Registry.MustRegister(probeAttemptCounter)
		metrics.Registry.MustRegister(probeFailureCounter)
		metrics.Registry.MustRegister(probeHealthyGauge)
	})
}

// RecordReconcileSuccess records a reconciliation that applied the worker Deployment.
func RecordReconcileSuccess() {
	reconcileSuccessCounter.WithLabelValues().Inc()
}

// RecordReconcileError records a failed reconciliation.
func RecordReconcileError() {
	reconcileErrorCounter.WithLabelValues().Inc()
}

// RecordDeploymentApplied records a create or update of the worker Deployment.
func RecordDeploymentApplied(operation string) {
	deploymentAppliedCounter.WithLabelValues(operation).Inc()
}

// RecordProbeAttempt records a health probe attempt.
func RecordProbeAttempt() {
	probeAttemptCounter.WithLabelValues().Inc()
}

// RecordProbeFailure records a failed health probe attempt.
func RecordProbeFailure() {
	probeFailureCounter.WithLabelValues().Inc()
}

// SetProbeHealthy sets the current probe verdict gauge.
func SetProbeHealthy(healthy bool) {
	value := 0.0
	if healthy {
		value = 1.0
	}
	probeHealthyGauge.WithLabelValues().Set(value)
}

func helpMsgWithStability(msg string, stability compbasemetrics.StabilityLevel) string {
	return fmt.Sprintf("[%v] %s", stability, msg)
}
