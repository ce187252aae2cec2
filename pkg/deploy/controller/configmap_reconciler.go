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

package controller

import (
	"context"
	"fmt"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/equality"
	"k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/types"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/log"

	configapi "github.com/anupamw/FootballTransfersFeedService/api/config/v1alpha1"
	logutil "github.com/anupamw/FootballTransfersFeedService/pkg/common/observability/logging"
	"github.com/anupamw/FootballTransfersFeedService/pkg/deploy/datastore"
	"github.com/anupamw/FootballTransfersFeedService/pkg/deploy/manifest"
	"github.com/anupamw/FootballTransfersFeedService/pkg/deploy/metrics"
)

// ConfigMapReconciler turns the managed ConfigMap objects into worker
// Deployments. The parsed desired state lands in the datastore, the built
// Deployment is created or updated through the client.
type ConfigMapReconciler struct {
	client.Client
	Datastore datastore.Datastore
}

func (c *ConfigMapReconciler) Reconcile(ctx context.Context, req ctrl.Request) (ctrl.Result, error) {
	logger := log.FromContext(ctx).V(logutil.DEFAULT)
	ctx = ctrl.LoggerInto(ctx, logger)

	logger.Info("Reconciling ConfigMap")

	configmap := &corev1.ConfigMap{}
	err := c.Get(ctx, req.NamespacedName, configmap)
	if err != nil && !errors.IsNotFound(err) {
		metrics.RecordReconcileError()
		return ctrl.Result{}, fmt.Errorf("unable to get ConfigMap - %w", err)
	}

	if errors.IsNotFound(err) || !configmap.DeletionTimestamp.IsZero() {
		// ConfigMap object got deleted or is marked for deletion. A deleted
		// object is zero-valued, so eviction goes by the request's key. The
		// worker Deployment is garbage collected through its owner reference.
		c.Datastore.ConfigDelete(req.NamespacedName)
		return ctrl.Result{}, nil
	}

	if err := c.Datastore.ConfigUpdateOrAddIfNotExist(configmap); err != nil {
		metrics.RecordReconcileError()
		return ctrl.Result{}, fmt.Errorf("failed to add or update ConfigMap - %w", err)
	}

	cfg, ok := c.Datastore.Config(req.NamespacedName)
	if !ok {
		// Evicted between the update and the read, nothing left to apply.
		return ctrl.Result{}, nil
	}

	if err := c.ensureWorkerDeployment(ctx, configmap, cfg); err != nil {
		metrics.RecordReconcileError()
		return ctrl.Result{}, err
	}

	metrics.RecordReconcileSuccess()
	return ctrl.Result{}, nil
}

// ensureWorkerDeployment creates the worker Deployment or updates it in
// place when the desired spec drifted.
func (c *ConfigMapReconciler) ensureWorkerDeployment(ctx context.Context, configmap *corev1.ConfigMap, cfg *configapi.DeploymentConfig) error {
	logger := log.FromContext(ctx)

	desired, err := manifest.BuildWorkerDeployment(cfg)
	if err != nil {
		return fmt.Errorf("failed to build worker deployment - %w", err)
	}

	// The Deployment can only be owned by a ConfigMap in its own namespace.
	if desired.Namespace == configmap.Namespace {
		if err := ctrl.SetControllerReference(configmap, desired, c.Scheme()); err != nil {
			return fmt.Errorf("failed to set controller reference - %w", err)
		}
	}

	existing := &appsv1.Deployment{}
	key := types.NamespacedName{Namespace: desired.Namespace, Name: desired.Name}
	err = c.Get(ctx, key, existing)
	if errors.IsNotFound(err) {
		if err := c.Create(ctx, desired); err != nil {
			return fmt.Errorf("failed to create worker deployment - %w", err)
		}
		logger.Info("Worker Deployment created", "deployment", key)
		metrics.RecordDeploymentApplied("create")
		return nil
	}
	if err != nil {
		return fmt.Errorf("unable to get worker deployment - %w", err)
	}

	// Only the fields deploykit manages are compared. The API server fills
	// in strategy and template defaults that a full spec comparison would
	// flag as permanent drift.
	if equality.Semantic.DeepEqual(existing.Spec.Replicas, desired.Spec.Replicas) &&
		equality.Semantic.DeepEqual(existing.Spec.Template.Spec.Containers, desired.Spec.Template.Spec.Containers) &&
		equality.Semantic.DeepEqual(existing.Labels, desired.Labels) {
		logger.V(logutil.DEBUG).Info("Worker Deployment up to date", "deployment", key)
		return nil
	}

	updated := existing.DeepCopy()
	updated.Labels = desired.Labels
	updated.OwnerReferences = desired.OwnerReferences
	updated.Spec.Replicas = desired.Spec.Replicas
	updated.Spec.Template.ObjectMeta.Labels = desired.Spec.Template.ObjectMeta.Labels
	updated.Spec.Template.Spec.Containers = desired.Spec.Template.Spec.Containers
	if err := c.Update(ctx, updated); err != nil {
		return fmt.Errorf("failed to update worker deployment - %w", err)
	}
	logger.Info("Worker Deployment updated", "deployment", key)
	metrics.RecordDeploymentApplied("update")
	return nil
}

func (c *ConfigMapReconciler) SetupWithManager(mgr ctrl.Manager) error {
	return ctrl.NewControllerManagedBy(mgr).
		For(&corev1.ConfigMap{}).
		Owns(&appsv1.Deployment{}).
		Complete(c)
}
