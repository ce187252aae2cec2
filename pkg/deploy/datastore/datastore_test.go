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

package datastore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"
)

const configPayload = `
apiVersion: config.my-briefings.io/v1alpha1
kind: DeploymentConfig
worker:
  name: feed-ingestion-worker
  image: mybriefings/feed-ingestion:latest
`

func managedConfigMap(name, namespace, payload string) *corev1.ConfigMap {
	return &corev1.ConfigMap{
		ObjectMeta: metav1.ObjectMeta{
			Name:      name,
			Namespace: namespace,
			Labels:    map[string]string{ManagedLabel: "true"},
		},
		Data: map[string]string{ConfigKey: payload},
	}
}

func TestConfigUpdateOrAddIfNotExist(t *testing.T) {
	ds := NewDatastore()

	err := ds.ConfigUpdateOrAddIfNotExist(managedConfigMap("worker-config", "briefings", configPayload))
	require.NoError(t, err)
	assert.Equal(t, 1, ds.Len())

	stored, ok := ds.Config(types.NamespacedName{Namespace: "briefings", Name: "worker-config"})
	require.True(t, ok)
	assert.Equal(t, "feed-ingestion-worker", stored.Worker.Name)

	// The worker namespace falls back to the configmap's namespace.
	assert.Equal(t, "briefings", stored.Worker.Namespace)

	// Readers get copies, not the stored config.
	stored.Worker.Name = "mutated"
	again, ok := ds.Config(types.NamespacedName{Namespace: "briefings", Name: "worker-config"})
	require.True(t, ok)
	assert.Equal(t, "feed-ingestion-worker", again.Worker.Name)
}

func TestConfigUpdateErrors(t *testing.T) {
	ds := NewDatastore()

	// No payload key.
	cm := managedConfigMap("worker-config", "briefings", configPayload)
	cm.Data = map[string]string{}
	require.Error(t, ds.ConfigUpdateOrAddIfNotExist(cm))

	// Unparseable payload.
	err := ds.ConfigUpdateOrAddIfNotExist(managedConfigMap("worker-config", "briefings", "worker: [not a mapping"))
	require.Error(t, err)
	assert.Equal(t, 0, ds.Len())
}

func TestConfigDelete(t *testing.T) {
	ds := NewDatastore()

	cm := managedConfigMap("worker-config", "briefings", configPayload)
	require.NoError(t, ds.ConfigUpdateOrAddIfNotExist(cm))

	// Deletion goes by the key alone, the ConfigMap object is gone by then.
	ds.ConfigDelete(types.NamespacedName{Namespace: "briefings", Name: "worker-config"})
	assert.Equal(t, 0, ds.Len())
	_, ok := ds.Config(types.NamespacedName{Namespace: "briefings", Name: "worker-config"})
	assert.False(t, ok)

	// Deleting an unknown key is a no-op.
	ds.ConfigDelete(types.NamespacedName{Namespace: "briefings", Name: "other"})
}
