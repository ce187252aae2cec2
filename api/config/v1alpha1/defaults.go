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

package v1alpha1

import (
	"fmt"
	"time"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/utils/ptr"
)

const (
	// DefaultWorkingDir is where the worker process runs.
	DefaultWorkingDir = "/app"
	// DefaultLogLevel of the worker process.
	DefaultLogLevel = "info"
	// DefaultPort the web service listens on.
	DefaultPort = int32(8000)
	// DefaultProbePath is the health endpoint the image probe hits.
	DefaultProbePath = "/health"
	// DefaultUser is the non-root user baked into the image.
	DefaultUser = "appuser"
	// DefaultUID of the non-root user.
	DefaultUID = int64(1000)
	// DefaultRequirementsFile installed before the application source.
	DefaultRequirementsFile = "requirements.txt"

	// DefaultProbeInterval between probe attempts.
	DefaultProbeInterval = 30 * time.Second
	// DefaultProbeTimeout of a single probe attempt.
	DefaultProbeTimeout = 5 * time.Second
	// DefaultProbeStartPeriod is the initialization grace window.
	DefaultProbeStartPeriod = 10 * time.Second
	// DefaultProbeRetries before the container is unhealthy.
	DefaultProbeRetries = int32(3)
)

// SetDefaults_DeploymentConfig sets default values in a DeploymentConfig
// struct.
//
// This naming convension is required by the defaulter-gen code.
func SetDefaults_DeploymentConfig(cfg *DeploymentConfig) {
	setWorkerDefaults(&cfg.Worker)
	if cfg.Image != nil {
		setImageDefaults(cfg.Image)
	}
}

func setWorkerDefaults(worker *WorkerSpec) {
	if worker.Replicas == nil {
		worker.Replicas = ptr.To(int32(1))
	}
	if worker.ImagePullPolicy == "" {
		worker.ImagePullPolicy = corev1.PullIfNotPresent
	}
	if worker.WorkingDir == "" {
		worker.WorkingDir = DefaultWorkingDir
	}
	if worker.LogLevel == "" {
		worker.LogLevel = DefaultLogLevel
	}

	// The platform's worker is a celery app. When no entry point was given,
	// fall back to the standard worker invocation with the configured log
	// level.
	if len(worker.Command) == 0 {
		worker.Command = []string{"celery", "-A", "celery_app", "worker"}
		if len(worker.Args) == 0 {
			worker.Args = []string{"--loglevel=" + worker.LogLevel}
		}
	}
}

func setImageDefaults(image *ImageRecipe) {
	if image.RequirementsFile == "" {
		image.RequirementsFile = DefaultRequirementsFile
	}
	if image.SourcePath == "" {
		image.SourcePath = "."
	}
	if image.User == "" {
		image.User = DefaultUser
	}
	if image.UID == nil {
		image.UID = ptr.To(DefaultUID)
	}
	if image.Port == nil {
		image.Port = ptr.To(DefaultPort)
	}

	if image.HealthCheck == nil {
		image.HealthCheck = &HealthCheckSpec{}
	}
	hc := image.HealthCheck
	if hc.Path == "" {
		hc.Path = DefaultProbePath
	}
	if hc.Port == nil {
		hc.Port = image.Port
	}
	if hc.Interval.Duration == 0 {
		hc.Interval = metav1.Duration{Duration: DefaultProbeInterval}
	}
	if hc.Timeout.Duration == 0 {
		hc.Timeout = metav1.Duration{Duration: DefaultProbeTimeout}
	}
	if hc.StartPeriod.Duration == 0 {
		hc.StartPeriod = metav1.Duration{Duration: DefaultProbeStartPeriod}
	}
	if hc.Retries == nil {
		hc.Retries = ptr.To(DefaultProbeRetries)
	}

	if len(image.Command) == 0 {
		image.Command = []string{
			"uvicorn", "main:app",
			"--host", "0.0.0.0",
			"--port", fmt.Sprintf("%d", *image.Port),
		}
	}
}
