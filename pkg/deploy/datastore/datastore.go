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
	"fmt"
	"sync"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/types"

	configapi "github.com/anupamw/FootballTransfersFeedService/api/config/v1alpha1"
	"github.com/anupamw/FootballTransfersFeedService/pkg/deploy/config/loader"
)

const (
	// ConfigKey is the ConfigMap data key holding the deployment config.
	ConfigKey = "config.yaml"

	// ManagedLabel marks the ConfigMap objects deploykit tracks. Only
	// objects carrying this label are cached and reconciled.
	ManagedLabel = "config.my-briefings.io/managed"
)

// The datastore keeps the desired worker state parsed out of the managed
// ConfigMap objects. The reconciler feeds it and reads the config back
// through Config; readers get deep copies so the stored configs are never
// mutated concurrently. Deletion takes a name rather than an object since
// a deleted ConfigMap is only known by its request key.
type Datastore interface {
	ConfigUpdateOrAddIfNotExist(configmap *corev1.ConfigMap) error
	ConfigDelete(name types.NamespacedName)
	Config(name types.NamespacedName) (*configapi.DeploymentConfig, bool)
	Len() int
}

// NewDatastore creates a new deploykit data store.
func NewDatastore() Datastore {
	return &datastore{
		configs: map[types.NamespacedName]*configapi.DeploymentConfig{},
		lock:    sync.RWMutex{},
	}
}

type datastore struct {
	configs map[types.NamespacedName]*configapi.DeploymentConfig
	lock    sync.RWMutex
}

func (ds *datastore) ConfigUpdateOrAddIfNotExist(configmap *corev1.ConfigMap) error {
	payload, ok := configmap.Data[ConfigKey]
	if !ok {
		return fmt.Errorf("configmap has no %q key", ConfigKey)
	}

	cfg, err := loader.LoadConfig([]byte(payload), "")
	if err != nil {
		return fmt.Errorf("failed to parse configmap - %w", err)
	}

	// The worker namespace defaults to where its config lives.
	if cfg.Worker.Namespace == "" {
		cfg.Worker.Namespace = configmap.GetNamespace()
	}

	name := types.NamespacedName{Namespace: configmap.GetNamespace(), Name: configmap.GetName()}
	ds.lock.Lock()
	defer ds.lock.Unlock()
	ds.configs[name] = cfg

	return nil
}

func (ds *datastore) ConfigDelete(name types.NamespacedName) {
	ds.lock.Lock()
	defer ds.lock.Unlock()
	delete(ds.configs, name)
}

func (ds *datastore) Config(name types.NamespacedName) (*configapi.DeploymentConfig, bool) {
	ds.lock.RLock()
	defer ds.lock.RUnlock()
	cfg, ok := ds.configs[name]
	if !ok {
		return nil, false
	}
	return cfg.DeepCopy(), true
}

func (ds *datastore) Len() int {
	ds.lock.RLock()
	defer ds.lock.RUnlock()
	return len(ds.configs)
}
