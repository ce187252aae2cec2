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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/types"
	clientgoscheme "k8s.io/client-go/kubernetes/scheme"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/client/fake"

	logutil "github.com/anupamw/FootballTransfersFeedService/pkg/common/observability/logging"
	"github.com/anupamw/FootballTransfersFeedService/pkg/deploy/datastore"
)

const workerPayload = `
apiVersion: config.my-briefings.io/v1alpha1
kind: DeploymentConfig
worker:
  name: feed-ingestion-worker
  image: mybriefings/feed-ingestion:latest
  env:
  - name: PERPLEXITY_API_KEY
    secretKeyRef:
      name: briefings-secrets
      key: perplexity-api-key
`

const workerPayloadScaled = `
apiVersion: config.my-briefings.io/v1alpha1
kind: DeploymentConfig
worker:
  name: feed-ingestion-worker
  image: mybriefings/feed-ingestion:latest
  replicas: 2
`

func newScheme(t *testing.T) *runtime.Scheme {
	scheme := runtime.NewScheme()
	require.NoError(t, clientgoscheme.AddToScheme(scheme))
	return scheme
}

func workerConfigMap(payload string) *corev1.ConfigMap {
	return &corev1.ConfigMap{
		ObjectMeta: metav1.ObjectMeta{
			Name:      "worker-config",
			Namespace: "briefings",
			Labels:    map[string]string{datastore.ManagedLabel: "true"},
		},
		Data: map[string]string{datastore.ConfigKey: payload},
	}
}

func reconcilerFor(t *testing.T, objects ...client.Object) (*ConfigMapReconciler, client.Client) {
	fakeClient := fake.NewClientBuilder().WithScheme(newScheme(t)).WithObjects(objects...).Build()
	return &ConfigMapReconciler{
		Client:    fakeClient,
		Datastore: datastore.NewDatastore(),
	}, fakeClient
}

func reconcileRequest() ctrl.Request {
	return ctrl.Request{NamespacedName: types.NamespacedName{Namespace: "briefings", Name: "worker-config"}}
}

func TestReconcileCreatesWorkerDeployment(t *testing.T) {
	ctx := logutil.NewTestLoggerIntoContext(context.Background())
	reconciler, fakeClient := reconcilerFor(t, workerConfigMap(workerPayload))

	_, err := reconciler.Reconcile(ctx, reconcileRequest())
	require.NoError(t, err)
	assert.Equal(t, 1, reconciler.Datastore.Len())

	deployment := &appsv1.Deployment{}
	key := types.NamespacedName{Namespace: "briefings", Name: "feed-ingestion-worker"}
	require.NoError(t, fakeClient.Get(ctx, key, deployment))

	require.Len(t, deployment.Spec.Template.Spec.Containers, 1)
	container := deployment.Spec.Template.Spec.Containers[0]
	assert.Equal(t, "mybriefings/feed-ingestion:latest", container.Image)
	assert.Equal(t, []string{"celery", "-A", "celery_app", "worker"}, container.Command)
	require.Len(t, container.Env, 1)
	assert.Equal(t, "briefings-secrets", container.Env[0].ValueFrom.SecretKeyRef.Name)

	// The Deployment is owned by its ConfigMap so deletion cascades.
	require.Len(t, deployment.OwnerReferences, 1)
	assert.Equal(t, "worker-config", deployment.OwnerReferences[0].Name)

	// Reconciling again is a no-op.
	_, err = reconciler.Reconcile(ctx, reconcileRequest())
	require.NoError(t, err)
}

func TestReconcileUpdatesDriftedDeployment(t *testing.T) {
	ctx := logutil.NewTestLoggerIntoContext(context.Background())
	cm := workerConfigMap(workerPayload)
	reconciler, fakeClient := reconcilerFor(t, cm)

	_, err := reconciler.Reconcile(ctx, reconcileRequest())
	require.NoError(t, err)

	// Scale the worker through its config.
	cm.Data[datastore.ConfigKey] = workerPayloadScaled
	require.NoError(t, fakeClient.Update(ctx, cm))

	_, err = reconciler.Reconcile(ctx, reconcileRequest())
	require.NoError(t, err)

	deployment := &appsv1.Deployment{}
	key := types.NamespacedName{Namespace: "briefings", Name: "feed-ingestion-worker"}
	require.NoError(t, fakeClient.Get(ctx, key, deployment))
	assert.Equal(t, int32(2), *deployment.Spec.Replicas)
}

func TestReconcileRejectsBrokenConfig(t *testing.T) {
	ctx := logutil.NewTestLoggerIntoContext(context.Background())
	cm := workerConfigMap("worker: {}")
	reconciler, _ := reconcilerFor(t, cm)

	_, err := reconciler.Reconcile(ctx, reconcileRequest())
	require.Error(t, err)
	assert.Equal(t, 0, reconciler.Datastore.Len())
}

func TestReconcileDeletedConfigMap(t *testing.T) {
	ctx := logutil.NewTestLoggerIntoContext(context.Background())
	cm := workerConfigMap(workerPayload)
	reconciler, fakeClient := reconcilerFor(t, cm)

	_, err := reconciler.Reconcile(ctx, reconcileRequest())
	require.NoError(t, err)
	require.Equal(t, 1, reconciler.Datastore.Len())

	require.NoError(t, fakeClient.Delete(ctx, cm))

	_, err = reconciler.Reconcile(ctx, reconcileRequest())
	require.NoError(t, err)
	assert.Equal(t, 0, reconciler.Datastore.Len())
}
