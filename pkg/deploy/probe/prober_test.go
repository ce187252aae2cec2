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

package probe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/utils/ptr"

	configapi "github.com/anupamw/FootballTransfersFeedService/api/config/v1alpha1"
	logutil "github.com/anupamw/FootballTransfersFeedService/pkg/common/observability/logging"
)

func TestConfigFromSpec(t *testing.T) {
	hc := &configapi.HealthCheckSpec{
		Path:        "/health",
		Port:        ptr.To(int32(8001)),
		Interval:    metav1.Duration{Duration: time.Second},
		Timeout:     metav1.Duration{Duration: 100 * time.Millisecond},
		StartPeriod: metav1.Duration{Duration: 2 * time.Second},
		Retries:     ptr.To(int32(5)),
	}

	cfg := ConfigFromSpec(hc, "feed-service")

	assert.Equal(t, "http://feed-service:8001/health", cfg.URL)
	assert.Equal(t, time.Second, cfg.Interval)
	assert.Equal(t, 100*time.Millisecond, cfg.Timeout)
	assert.Equal(t, 2*time.Second, cfg.StartPeriod)
	assert.Equal(t, int32(5), cfg.Retries)
}

func TestCheck(t *testing.T) {
	var status atomic.Int32
	status.Store(http.StatusOK)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(int(status.Load()))
	}))
	defer server.Close()

	prober := NewProber(Config{URL: server.URL + "/health", Timeout: time.Second})

	require.NoError(t, prober.Check(context.Background()))

	status.Store(http.StatusInternalServerError)
	require.Error(t, prober.Check(context.Background()))

	status.Store(http.StatusNotFound)
	require.Error(t, prober.Check(context.Background()))
}

func TestCheckUnreachableTarget(t *testing.T) {
	// A closed server is the same as a container that never came up.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))
	server.Close()

	prober := NewProber(Config{URL: server.URL, Timeout: 100 * time.Millisecond})
	require.Error(t, prober.Check(context.Background()))
}

func TestStartRejectsNonPositiveInterval(t *testing.T) {
	prober := NewProber(Config{URL: "http://localhost:8000/health", Timeout: time.Second})

	err := prober.Start(logutil.NewTestLoggerIntoContext(context.Background()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "interval")
}

func TestStartMarksUnhealthyAfterRetries(t *testing.T) {
	var status atomic.Int32
	status.Store(http.StatusServiceUnavailable)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(int(status.Load()))
	}))
	defer server.Close()

	prober := NewProber(Config{
		URL:      server.URL,
		Interval: 5 * time.Millisecond,
		Timeout:  time.Second,
		Retries:  3,
	})
	require.True(t, prober.Healthy(), "a fresh prober starts out healthy")

	ctx, cancel := context.WithCancel(logutil.NewTestLoggerIntoContext(context.Background()))
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- prober.Start(ctx) }()

	require.Eventually(t, func() bool { return !prober.Healthy() },
		2*time.Second, 5*time.Millisecond, "prober must turn unhealthy after the retry threshold")

	// Recovery flips the verdict back.
	status.Store(http.StatusOK)
	require.Eventually(t, func() bool { return prober.Healthy() },
		2*time.Second, 5*time.Millisecond, "prober must recover once the target serves again")

	cancel()
	require.NoError(t, <-done)
}

func TestStartForgivesFailuresDuringStartPeriod(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	prober := NewProber(Config{
		URL:         server.URL,
		Interval:    5 * time.Millisecond,
		Timeout:     time.Second,
		StartPeriod: time.Hour,
		Retries:     1,
	})

	ctx, cancel := context.WithCancel(logutil.NewTestLoggerIntoContext(context.Background()))
	done := make(chan error, 1)
	go func() { done <- prober.Start(ctx) }()

	// Every attempt fails, but all of them land inside the start period.
	time.Sleep(100 * time.Millisecond)
	assert.True(t, prober.Healthy(), "failures during the start period must not count")

	cancel()
	require.NoError(t, <-done)
}
