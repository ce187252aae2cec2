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

// healthprobe is the image's health-check command: a single HTTP probe
// attempt whose exit code decides whether the platform considers the
// container healthy. Exit 0 on a 2xx response, exit 1 otherwise.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	configapi "github.com/anupamw/FootballTransfersFeedService/api/config/v1alpha1"
	"github.com/anupamw/FootballTransfersFeedService/pkg/deploy/probe"
)

var (
	url     = flag.String("url", fmt.Sprintf("http://localhost:%d%s", configapi.DefaultPort, configapi.DefaultProbePath), "The URL probed")
	timeout = flag.Duration("timeout", configapi.DefaultProbeTimeout, "The timeout of the probe attempt")
)

func main() {
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	prober := probe.NewProber(probe.Config{URL: *url, Timeout: *timeout})
	if err := prober.Check(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "unhealthy: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("healthy")
}
