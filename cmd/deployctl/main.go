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

// deployctl renders and validates the My Briefings deployment artifacts
// offline: the worker Deployment manifest and the web service Dockerfile.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "deployctl",
		Short:        "Render and validate My Briefings deployment artifacts",
		SilenceUsage: true,
	}

	cmd.AddCommand(newValidateCmd())
	cmd.AddCommand(newRenderCmd())
	return cmd
}
