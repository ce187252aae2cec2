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

// Package probe implements the image recipe's health-check contract: a
// periodic HTTP probe with an interval, a per-attempt timeout, a start
// period during which failures are forgiven, and a retry threshold after
// which the target is unhealthy.
package probe

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"
	"sigs.k8s.io/controller-runtime/pkg/log"
	"sigs.k8s.io/controller-runtime/pkg/manager"

	configapi "github.com/anupamw/FootballTransfersFeedService/api/config/v1alpha1"
	"github.com/anupamw/FootballTransfersFeedService/internal/runnable"
	logutil "github.com/anupamw/FootballTransfersFeedService/pkg/common/observability/logging"
	"github.com/anupamw/FootballTransfersFeedService/pkg/deploy/metrics"
)

// Config carries the probe parameters of a single target.
type Config struct {
	// URL of the probed HTTP endpoint.
	URL string
	// Interval between probe attempts.
	Interval time.Duration
	// Timeout of a single attempt.
	Timeout time.Duration
	// StartPeriod is the initialization grace window. Failures within it do
	// not count against Retries.
	StartPeriod time.Duration
	// Retries is the number of consecutive failures after which the target
	// is considered unhealthy.
	Retries int32
}

// ConfigFromSpec builds a probe Config from a defaulted health check spec,
// targeting the given host.
func ConfigFromSpec(hc *configapi.HealthCheckSpec, host string) Config {
	cfg := Config{
		Interval:    hc.Interval.Duration,
		Timeout:     hc.Timeout.Duration,
		StartPeriod: hc.StartPeriod.Duration,
	}
	if hc.Retries != nil {
		cfg.Retries = *hc.Retries
	}
	port := configapi.DefaultPort
	if hc.Port != nil {
		port = *hc.Port
	}
	path := hc.Path
	if path == "" {
		path = configapi.DefaultProbePath
	}
	cfg.URL = fmt.Sprintf("http://%s:%d%s", host, port, path)
	return cfg
}

// Prober probes a single HTTP target.
type Prober struct {
	config  Config
	client  *http.Client
	healthy atomic.Bool
}

// NewProber creates a prober for the given config. The target starts out
// healthy, mirroring the platform's optimistic starting state.
func NewProber(config Config) *Prober {
	p := &Prober{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
	}
	p.healthy.Store(true)
	return p
}

// Healthy reports the current probe verdict.
func (p *Prober) Healthy() bool {
	return p.healthy.Load()
}

// Check performs a single probe attempt. Any response outside the 2xx range
// is a failure, matching the probe command's exit-code convention.
func (p *Prober) Check(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.config.URL, nil)
	if err != nil {
		return fmt.Errorf("failed to build probe request - %w", err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("probe request failed - %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("probe returned status %d", resp.StatusCode)
	}
	return nil
}

// Start runs the probe loop until the context is canceled.
func (p *Prober) Start(ctx context.Context) error {
	if p.config.Interval <= 0 {
		return fmt.Errorf("probe interval must be positive, got %s", p.config.Interval)
	}

	logger := log.FromContext(ctx).WithValues("url", p.config.URL)
	logger.V(logutil.DEFAULT).Info("Prober starting", "interval", p.config.Interval, "retries", p.config.Retries)

	started := time.Now()
	var failures int32

	ticker := time.NewTicker(p.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.V(logutil.DEFAULT).Info("Prober terminated")
			return nil
		case <-ticker.C:
		}

		runID := uuid.NewString()
		attemptLog := logger.WithValues("run-id", runID)

		err := p.Check(ctx)
		metrics.RecordProbeAttempt()
		if err == nil {
			if failures > 0 || !p.healthy.Load() {
				attemptLog.V(logutil.DEFAULT).Info("Probe recovered")
			}
			failures = 0
			p.setHealthy(true)
			attemptLog.V(logutil.TRACE).Info("Probe succeeded")
			continue
		}

		metrics.RecordProbeFailure()
		if time.Since(started) < p.config.StartPeriod {
			// Still inside the start period, the failure is forgiven.
			attemptLog.V(logutil.DEBUG).Info("Probe failed during start period", "error", err.Error())
			continue
		}

		failures++
		attemptLog.V(logutil.DEBUG).Info("Probe failed", "consecutive-failures", failures, "error", err.Error())
		if failures >= p.config.Retries {
			if p.healthy.Load() {
				attemptLog.V(logutil.DEFAULT).Info("Target unhealthy", "consecutive-failures", failures)
			}
			p.setHealthy(false)
		}
	}
}

// AsRunnable wraps the prober in a runnable for the manager, so it is
// started and stopped with the controllers.
func (p *Prober) AsRunnable(logger logr.Logger) manager.Runnable {
	return runnable.NoLeaderElection(manager.RunnableFunc(func(ctx context.Context) error {
		return p.Start(log.IntoContext(ctx, logger))
	}))
}

func (p *Prober) setHealthy(healthy bool) {
	p.healthy.Store(healthy)
	metrics.SetProbeHealthy(healthy)
}
