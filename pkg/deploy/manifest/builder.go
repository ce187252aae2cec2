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

// Package manifest builds the worker Deployment object consumed by the
// orchestration platform from a validated DeploymentConfig.
package manifest

import (
	"fmt"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"sigs.k8s.io/yaml"

	configapi "github.com/anupamw/FootballTransfersFeedService/api/config/v1alpha1"
)

const (
	// ComponentWorker is the component label value of the worker Deployment.
	ComponentWorker = "worker"
	// PartOf is the platform label value stamped on every managed object.
	PartOf = "my-briefings"
	// ManagedBy is the managed-by label value stamped on every managed object.
	ManagedBy = "deploykit"
)

// Labels returns the full label set of the worker Deployment.
func Labels(name string) map[string]string {
	return map[string]string{
		"app.kubernetes.io/name":       name,
		"app.kubernetes.io/component":  ComponentWorker,
		"app.kubernetes.io/part-of":    PartOf,
		"app.kubernetes.io/managed-by": ManagedBy,
	}
}

// selectorLabels is the immutable subset used for the Deployment selector.
func selectorLabels(name string) map[string]string {
	return map[string]string{
		"app.kubernetes.io/name":      name,
		"app.kubernetes.io/component": ComponentWorker,
	}
}

// BuildWorkerDeployment translates the worker section of the given config
// into an apps/v1 Deployment. The config is expected to be defaulted and
// validated; quantity strings are still parsed defensively since the
// builder is also reachable from deployctl with arbitrary input.
func BuildWorkerDeployment(cfg *configapi.DeploymentConfig) (*appsv1.Deployment, error) {
	worker := cfg.Worker

	env := buildEnv(worker.Env)
	resources, err := buildResources(worker.Resources)
	if err != nil {
		return nil, err
	}

	deployment := &appsv1.Deployment{
		TypeMeta: metav1.TypeMeta{
			APIVersion: "apps/v1",
			Kind:       "Deployment",
		},
		ObjectMeta: metav1.ObjectMeta{
			Name:      worker.Name,
			Namespace: worker.Namespace,
			Labels:    Labels(worker.Name),
		},
		Spec: appsv1.DeploymentSpec{
			Replicas: worker.Replicas,
			Selector: &metav1.LabelSelector{
				MatchLabels: selectorLabels(worker.Name),
			},
			Template: corev1.PodTemplateSpec{
				ObjectMeta: metav1.ObjectMeta{
					Labels: Labels(worker.Name),
				},
				Spec: corev1.PodSpec{
					Containers: []corev1.Container{
						{
							Name:            worker.Name,
							Image:           worker.Image,
							ImagePullPolicy: worker.ImagePullPolicy,
							WorkingDir:      worker.WorkingDir,
							Command:         worker.Command,
							Args:            worker.Args,
							Env:             env,
							Resources:       resources,
						},
					},
				},
			},
		},
	}
	return deployment, nil
}

func buildEnv(env []configapi.EnvVar) []corev1.EnvVar {
	if len(env) == 0 {
		return nil
	}
	out := make([]corev1.EnvVar, 0, len(env))
	for _, e := range env {
		if e.SecretKeyRef != nil {
			out = append(out, corev1.EnvVar{
				Name: e.Name,
				ValueFrom: &corev1.EnvVarSource{
					SecretKeyRef: &corev1.SecretKeySelector{
						LocalObjectReference: corev1.LocalObjectReference{Name: e.SecretKeyRef.Name},
						Key:                  e.SecretKeyRef.Key,
					},
				},
			})
			continue
		}
		out = append(out, corev1.EnvVar{Name: e.Name, Value: e.Value})
	}
	return out
}

func buildResources(bounds *configapi.ResourceBounds) (corev1.ResourceRequirements, error) {
	requirements := corev1.ResourceRequirements{}
	if bounds == nil {
		return requirements, nil
	}

	requests, err := quantities(corev1.ResourceList{}, bounds.CPURequest, bounds.MemoryRequest)
	if err != nil {
		return requirements, fmt.Errorf("failed to parse worker resource requests - %w", err)
	}
	limits, err := quantities(corev1.ResourceList{}, bounds.CPULimit, bounds.MemoryLimit)
	if err != nil {
		return requirements, fmt.Errorf("failed to parse worker resource limits - %w", err)
	}
	if len(requests) > 0 {
		requirements.Requests = requests
	}
	if len(limits) > 0 {
		requirements.Limits = limits
	}
	return requirements, nil
}

func quantities(list corev1.ResourceList, cpu, memory string) (corev1.ResourceList, error) {
	if cpu != "" {
		q, err := resource.ParseQuantity(cpu)
		if err != nil {
			return nil, err
		}
		list[corev1.ResourceCPU] = q
	}
	if memory != "" {
		q, err := resource.ParseQuantity(memory)
		if err != nil {
			return nil, err
		}
		list[corev1.ResourceMemory] = q
	}
	return list, nil
}

// RenderYAML serializes the Deployment the way it would appear in a
// manifest file.
func RenderYAML(deployment *appsv1.Deployment) ([]byte, error) {
	out, err := yaml.Marshal(deployment)
	if err != nil {
		return nil, fmt.Errorf("failed to render deployment manifest - %w", err)
	}
	return out, nil
}
