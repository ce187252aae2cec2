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

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// +kubebuilder:object:root=true

// DeploymentConfig is the Schema for the deploymentconfigs API. It describes
// the two deployment artifacts of the My Briefings platform: the queue
// worker Deployment and the web service image recipe.
type DeploymentConfig struct {
	metav1.TypeMeta `json:",inline"`

	// +required
	// +kubebuilder:validation:Required
	// Worker describes the desired state of the feed-ingestion worker
	// Deployment.
	Worker WorkerSpec `json:"worker"`

	// +optional
	// Image, when present, describes the web service image recipe used to
	// render a Dockerfile.
	Image *ImageRecipe `json:"image,omitempty"`
}

func (cfg DeploymentConfig) String() string {
	return fmt.Sprintf("{Worker: %v, Image: %v}", cfg.Worker, cfg.Image)
}

// WorkerSpec declares how the orchestration platform should run the task
// queue worker container.
type WorkerSpec struct {
	// +required
	// +kubebuilder:validation:Required
	// Name is the name of the worker Deployment.
	Name string `json:"name"`

	// +optional
	// Namespace the worker Deployment is created in. Defaults to the
	// namespace deploykit watches.
	Namespace string `json:"namespace,omitempty"`

	// +optional
	// Replicas is the desired replica count. Defaults to 1.
	Replicas *int32 `json:"replicas,omitempty"`

	// +required
	// +kubebuilder:validation:Required
	// Image is the container image reference of the worker.
	Image string `json:"image"`

	// +optional
	// ImagePullPolicy for the worker container. Defaults to IfNotPresent.
	ImagePullPolicy corev1.PullPolicy `json:"imagePullPolicy,omitempty"`

	// +optional
	// WorkingDir the worker process runs in. Defaults to /app.
	WorkingDir string `json:"workingDir,omitempty"`

	// +optional
	// Command is the worker entry point. Defaults to the celery worker
	// invocation.
	Command []string `json:"command,omitempty"`

	// +optional
	// Args are the arguments passed to Command.
	Args []string `json:"args,omitempty"`

	// +optional
	// Env is the worker environment. Each entry carries either a literal
	// value or a secret key reference, never both.
	Env []EnvVar `json:"env,omitempty"`

	// +optional
	// Resources bound the worker container's CPU and memory.
	Resources *ResourceBounds `json:"resources,omitempty"`

	// +optional
	// LogLevel of the worker process. Defaults to info.
	LogLevel string `json:"logLevel,omitempty"`
}

func (w WorkerSpec) String() string {
	return fmt.Sprintf("{Name: %s, Image: %s, Replicas: %v, Env: %v}", w.Name, w.Image, w.Replicas, w.Env)
}

// EnvVar is a single environment variable of the worker container.
type EnvVar struct {
	// +required
	// +kubebuilder:validation:Required
	// Name of the environment variable.
	Name string `json:"name"`

	// +optional
	// Value is the literal value. Mutually exclusive with SecretKeyRef.
	Value string `json:"value,omitempty"`

	// +optional
	// SecretKeyRef selects a key of a Secret as the variable's value.
	SecretKeyRef *SecretKeyRef `json:"secretKeyRef,omitempty"`
}

func (e EnvVar) String() string {
	if e.SecretKeyRef != nil {
		return fmt.Sprintf("{%s: secret %s/%s}", e.Name, e.SecretKeyRef.Name, e.SecretKeyRef.Key)
	}
	return fmt.Sprintf("{%s: %s}", e.Name, e.Value)
}

// SecretKeyRef identifies a key of a Secret in the worker's namespace.
type SecretKeyRef struct {
	// +required
	// +kubebuilder:validation:Required
	// Name of the Secret.
	Name string `json:"name"`

	// +required
	// +kubebuilder:validation:Required
	// Key within the Secret.
	Key string `json:"key"`
}

// ResourceBounds declares the resource requests and limits of the worker
// container as quantity strings.
type ResourceBounds struct {
	// +optional
	CPURequest string `json:"cpuRequest,omitempty"`
	// +optional
	CPULimit string `json:"cpuLimit,omitempty"`
	// +optional
	MemoryRequest string `json:"memoryRequest,omitempty"`
	// +optional
	MemoryLimit string `json:"memoryLimit,omitempty"`
}

// ImageRecipe declares how the web service container image is built.
type ImageRecipe struct {
	// +required
	// +kubebuilder:validation:Required
	// BaseImage is the base image tag, e.g. python:3.11-slim.
	BaseImage string `json:"baseImage"`

	// +optional
	// SystemPackages are installed with the base image's package manager
	// before the application dependencies.
	SystemPackages []string `json:"systemPackages,omitempty"`

	// +optional
	// RequirementsFile is the dependency file copied and installed first to
	// keep the layer cacheable. Defaults to requirements.txt.
	RequirementsFile string `json:"requirementsFile,omitempty"`

	// +optional
	// SourcePath is the application source copied into the image. Defaults
	// to the build context root.
	SourcePath string `json:"sourcePath,omitempty"`

	// +optional
	// User is the non-root user the service runs as. Defaults to appuser.
	User string `json:"user,omitempty"`

	// +optional
	// UID of the non-root user. Defaults to 1000.
	UID *int64 `json:"uid,omitempty"`

	// +optional
	// Port the service listens on. Defaults to 8000.
	Port *int32 `json:"port,omitempty"`

	// +optional
	// HealthCheck configures the image's periodic liveness probe command.
	HealthCheck *HealthCheckSpec `json:"healthCheck,omitempty"`

	// +optional
	// Command is the container's default startup command. Defaults to the
	// uvicorn invocation on Port.
	Command []string `json:"command,omitempty"`
}

func (r *ImageRecipe) String() string {
	if r == nil {
		return "{}"
	}
	return fmt.Sprintf("{BaseImage: %s, Port: %v, HealthCheck: %v}", r.BaseImage, r.Port, r.HealthCheck)
}

// HealthCheckSpec configures the periodic HTTP probe baked into the image.
// A non-zero exit of the probe command marks the container unhealthy.
type HealthCheckSpec struct {
	// +optional
	// Path of the HTTP endpoint probed. Defaults to /health.
	Path string `json:"path,omitempty"`

	// +optional
	// Port probed. Defaults to the recipe's Port.
	Port *int32 `json:"port,omitempty"`

	// +optional
	// Interval between probe attempts. Defaults to 30s.
	Interval metav1.Duration `json:"interval,omitempty"`

	// +optional
	// Timeout of a single probe attempt. Defaults to 5s.
	Timeout metav1.Duration `json:"timeout,omitempty"`

	// +optional
	// StartPeriod is the container initialization grace window. Probe
	// failures within it do not count against Retries. Defaults to 10s.
	StartPeriod metav1.Duration `json:"startPeriod,omitempty"`

	// +optional
	// Retries is the number of consecutive failures after which the
	// container is considered unhealthy. Defaults to 3.
	Retries *int32 `json:"retries,omitempty"`
}

func (h *HealthCheckSpec) String() string {
	if h == nil {
		return "{}"
	}
	return fmt.Sprintf("{Path: %s, Interval: %s, Timeout: %s, StartPeriod: %s, Retries: %v}",
		h.Path, h.Interval.Duration, h.Timeout.Duration, h.StartPeriod.Duration, h.Retries)
}
