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
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/utils/ptr"
)

func TestSetDefaults_Worker(t *testing.T) {
	cfg := &DeploymentConfig{
		Worker: WorkerSpec{
			Name:  "feed-ingestion-worker",
			Image: "mybriefings/feed-ingestion:latest",
		},
	}

	SetDefaults_DeploymentConfig(cfg)

	want := WorkerSpec{
		Name:            "feed-ingestion-worker",
		Image:           "mybriefings/feed-ingestion:latest",
		Replicas:        ptr.To(int32(1)),
		ImagePullPolicy: corev1.PullIfNotPresent,
		WorkingDir:      "/app",
		LogLevel:        "info",
		Command:         []string{"celery", "-A", "celery_app", "worker"},
		Args:            []string{"--loglevel=info"},
	}
	if diff := cmp.Diff(want, cfg.Worker); diff != "" {
		t.Errorf("Unexpected worker defaults (-want +got): %v", diff)
	}
}

func TestSetDefaults_WorkerCommandKept(t *testing.T) {
	cfg := &DeploymentConfig{
		Worker: WorkerSpec{
			Name:    "feed-ingestion-worker",
			Image:   "mybriefings/feed-ingestion:latest",
			Command: []string{"python", "worker.py"},
		},
	}

	SetDefaults_DeploymentConfig(cfg)

	assert.Equal(t, []string{"python", "worker.py"}, cfg.Worker.Command)
	assert.Nil(t, cfg.Worker.Args, "args must not be defaulted for a custom command")
}

func TestSetDefaults_Image(t *testing.T) {
	cfg := &DeploymentConfig{
		Worker: WorkerSpec{Name: "w", Image: "img"},
		Image:  &ImageRecipe{BaseImage: "python:3.11-slim"},
	}

	SetDefaults_DeploymentConfig(cfg)

	want := &ImageRecipe{
		BaseImage:        "python:3.11-slim",
		RequirementsFile: "requirements.txt",
		SourcePath:       ".",
		User:             "appuser",
		UID:              ptr.To(int64(1000)),
		Port:             ptr.To(int32(8000)),
		HealthCheck: &HealthCheckSpec{
			Path:        "/health",
			Port:        ptr.To(int32(8000)),
			Interval:    metav1.Duration{Duration: DefaultProbeInterval},
			Timeout:     metav1.Duration{Duration: DefaultProbeTimeout},
			StartPeriod: metav1.Duration{Duration: DefaultProbeStartPeriod},
			Retries:     ptr.To(int32(3)),
		},
		Command: []string{"uvicorn", "main:app", "--host", "0.0.0.0", "--port", "8000"},
	}
	if diff := cmp.Diff(want, cfg.Image); diff != "" {
		t.Errorf("Unexpected image defaults (-want +got): %v", diff)
	}
}

func TestSetDefaults_ImageProbePortFollowsServicePort(t *testing.T) {
	cfg := &DeploymentConfig{
		Worker: WorkerSpec{Name: "w", Image: "img"},
		Image: &ImageRecipe{
			BaseImage: "python:3.11-slim",
			Port:      ptr.To(int32(8001)),
		},
	}

	SetDefaults_DeploymentConfig(cfg)

	assert.Equal(t, int32(8001), *cfg.Image.HealthCheck.Port)
	assert.Contains(t, cfg.Image.Command, "8001")
}
