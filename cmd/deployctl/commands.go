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

package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/anupamw/FootballTransfersFeedService/pkg/deploy/config/loader"
	"github.com/anupamw/FootballTransfersFeedService/pkg/deploy/image"
	"github.com/anupamw/FootballTransfersFeedService/pkg/deploy/manifest"
)

func newValidateCmd() *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a DeploymentConfig file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := loader.LoadConfig(nil, configFile); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "configuration valid")
			return nil
		},
	}
	cmd.Flags().StringVarP(&configFile, "config", "f", "", "Path to the DeploymentConfig file")
	_ = cmd.MarkFlagRequired("config")
	return cmd
}

func newRenderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a deployment artifact from a DeploymentConfig file",
	}
	cmd.AddCommand(newRenderDeploymentCmd())
	cmd.AddCommand(newRenderDockerfileCmd())
	return cmd
}

func newRenderDeploymentCmd() *cobra.Command {
	var configFile, outFile string

	cmd := &cobra.Command{
		Use:   "deployment",
		Short: "Render the worker Deployment manifest",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loader.LoadConfig(nil, configFile)
			if err != nil {
				return err
			}
			deployment, err := manifest.BuildWorkerDeployment(cfg)
			if err != nil {
				return err
			}
			out, err := manifest.RenderYAML(deployment)
			if err != nil {
				return err
			}
			return write(cmd, outFile, out)
		},
	}
	cmd.Flags().StringVarP(&configFile, "config", "f", "", "Path to the DeploymentConfig file")
	cmd.Flags().StringVarP(&outFile, "output", "o", "", "File to write the manifest to (stdout when empty)")
	_ = cmd.MarkFlagRequired("config")
	return cmd
}

func newRenderDockerfileCmd() *cobra.Command {
	var configFile, outFile string

	cmd := &cobra.Command{
		Use:   "dockerfile",
		Short: "Render the web service Dockerfile",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loader.LoadConfig(nil, configFile)
			if err != nil {
				return err
			}
			if cfg.Image == nil {
				return errors.New("the configuration has no image section")
			}
			out, err := image.RenderDockerfile(cfg.Image)
			if err != nil {
				return err
			}
			return write(cmd, outFile, []byte(out))
		},
	}
	cmd.Flags().StringVarP(&configFile, "config", "f", "", "Path to the DeploymentConfig file")
	cmd.Flags().StringVarP(&outFile, "output", "o", "", "File to write the Dockerfile to (stdout when empty)")
	_ = cmd.MarkFlagRequired("config")
	return cmd
}

func write(cmd *cobra.Command, outFile string, content []byte) error {
	if outFile == "" {
		_, err := cmd.OutOrStdout().Write(content)
		return err
	}
	return os.WriteFile(outFile, content, 0o644)
}
