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

package loader

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/multierr"
	"k8s.io/apimachinery/pkg/api/resource"

	configapi "github.com/anupamw/FootballTransfersFeedService/api/config/v1alpha1"
)

// Validate checks a defaulted DeploymentConfig for field errors. All errors
// are aggregated so a broken config reports everything wrong with it at
// once.
func Validate(cfg *configapi.DeploymentConfig) error {
	var errs error

	errs = multierr.Append(errs, validateWorker(&cfg.Worker))
	if cfg.Image != nil {
		errs = multierr.Append(errs, validateImage(cfg.Image))
	}
	return errs
}

func validateWorker(worker *configapi.WorkerSpec) error {
	var errs error

	if worker.Name == "" {
		errs = multierr.Append(errs, errors.New("worker definition missing a name"))
	}
	if worker.Image == "" {
		errs = multierr.Append(errs, errors.New("worker definition missing a container image"))
	}
	if worker.Replicas != nil && *worker.Replicas < 1 {
		errs = multierr.Append(errs, fmt.Errorf("worker replicas must be at least 1, got %d", *worker.Replicas))
	}

	names := make(map[string]struct{})
	for _, env := range worker.Env {
		if env.Name == "" {
			errs = multierr.Append(errs, errors.New("worker env entry missing a name"))
			continue
		}
		if _, ok := names[env.Name]; ok {
			errs = multierr.Append(errs, fmt.Errorf("worker env entry %s is defined more than once", env.Name))
		}
		names[env.Name] = struct{}{}

		if env.Value != "" && env.SecretKeyRef != nil {
			errs = multierr.Append(errs, fmt.Errorf("worker env entry %s sets both a value and a secret key reference", env.Name))
		}
		if env.SecretKeyRef != nil {
			if env.SecretKeyRef.Name == "" {
				errs = multierr.Append(errs, fmt.Errorf("worker env entry %s references a secret without a name", env.Name))
			}
			if env.SecretKeyRef.Key == "" {
				errs = multierr.Append(errs, fmt.Errorf("worker env entry %s references a secret without a key", env.Name))
			}
		}
	}

	if worker.Resources != nil {
		errs = multierr.Append(errs, validateResources(worker.Resources))
	}
	return errs
}

func validateResources(bounds *configapi.ResourceBounds) error {
	var errs error

	parse := func(field, value string) *resource.Quantity {
		if value == "" {
			return nil
		}
		q, err := resource.ParseQuantity(value)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("worker resources %s is not a quantity: %s", field, err))
			return nil
		}
		return &q
	}

	cpuReq := parse("cpuRequest", bounds.CPURequest)
	cpuLim := parse("cpuLimit", bounds.CPULimit)
	memReq := parse("memoryRequest", bounds.MemoryRequest)
	memLim := parse("memoryLimit", bounds.MemoryLimit)

	if cpuReq != nil && cpuLim != nil && cpuLim.Cmp(*cpuReq) < 0 {
		errs = multierr.Append(errs, fmt.Errorf("worker cpu limit %s is below the request %s", bounds.CPULimit, bounds.CPURequest))
	}
	if memReq != nil && memLim != nil && memLim.Cmp(*memReq) < 0 {
		errs = multierr.Append(errs, fmt.Errorf("worker memory limit %s is below the request %s", bounds.MemoryLimit, bounds.MemoryRequest))
	}
	return errs
}

func validateImage(image *configapi.ImageRecipe) error {
	var errs error

	if image.BaseImage == "" {
		errs = multierr.Append(errs, errors.New("image recipe missing a base image"))
	}
	if image.Port != nil {
		errs = multierr.Append(errs, validatePort("image port", *image.Port))
	}

	hc := image.HealthCheck
	if hc == nil {
		return errs
	}
	if hc.Path != "" && !strings.HasPrefix(hc.Path, "/") {
		errs = multierr.Append(errs, fmt.Errorf("health check path %q must begin with /", hc.Path))
	}
	if hc.Port != nil {
		errs = multierr.Append(errs, validatePort("health check port", *hc.Port))
	}
	if hc.Interval.Duration < 0 {
		errs = multierr.Append(errs, errors.New("health check interval must not be negative"))
	}
	if hc.Timeout.Duration < 0 {
		errs = multierr.Append(errs, errors.New("health check timeout must not be negative"))
	}
	if hc.StartPeriod.Duration < 0 {
		errs = multierr.Append(errs, errors.New("health check start period must not be negative"))
	}
	if hc.Retries != nil && *hc.Retries < 1 {
		errs = multierr.Append(errs, fmt.Errorf("health check retries must be at least 1, got %d", *hc.Retries))
	}
	return errs
}

func validatePort(field string, port int32) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("%s %d is outside the range 1-65535", field, port)
	}
	return nil
}
