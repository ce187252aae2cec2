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

// Package image renders the web service image recipe into a Dockerfile.
package image

import (
	"errors"
	"fmt"
	"strings"

	configapi "github.com/anupamw/FootballTransfersFeedService/api/config/v1alpha1"
)

// RenderDockerfile produces the Dockerfile text for the given recipe. The
// recipe must have been defaulted by the config loader; missing required
// fields are an error rather than silently rendered.
func RenderDockerfile(recipe *configapi.ImageRecipe) (string, error) {
	if recipe == nil {
		return "", errors.New("image recipe is not set")
	}
	if recipe.BaseImage == "" {
		return "", errors.New("image recipe missing a base image")
	}
	if recipe.Port == nil || recipe.UID == nil || recipe.HealthCheck == nil || recipe.HealthCheck.Retries == nil {
		return "", errors.New("image recipe has not been defaulted")
	}

	var b strings.Builder

	fmt.Fprintf(&b, "FROM %s\n\n", recipe.BaseImage)

	if len(recipe.SystemPackages) > 0 {
		b.WriteString("RUN apt-get update && apt-get install -y --no-install-recommends \\\n")
		for _, pkg := range recipe.SystemPackages {
			fmt.Fprintf(&b, "    %s \\\n", pkg)
		}
		b.WriteString("    && rm -rf /var/lib/apt/lists/*\n\n")
	}

	fmt.Fprintf(&b, "WORKDIR %s\n\n", configapi.DefaultWorkingDir)

	// Dependencies are installed from their own layer so source edits do not
	// invalidate the pip cache.
	fmt.Fprintf(&b, "COPY %s .\n", recipe.RequirementsFile)
	fmt.Fprintf(&b, "RUN pip install --no-cache-dir -r %s\n\n", recipe.RequirementsFile)

	fmt.Fprintf(&b, "COPY %s .\n\n", recipe.SourcePath)

	fmt.Fprintf(&b, "RUN groupadd --gid %d %s \\\n", *recipe.UID, recipe.User)
	fmt.Fprintf(&b, "    && useradd --uid %d --gid %s --create-home %s \\\n", *recipe.UID, recipe.User, recipe.User)
	fmt.Fprintf(&b, "    && chown -R %s:%s %s\n", recipe.User, recipe.User, configapi.DefaultWorkingDir)
	fmt.Fprintf(&b, "USER %s\n\n", recipe.User)

	fmt.Fprintf(&b, "EXPOSE %d\n\n", *recipe.Port)

	hc := recipe.HealthCheck
	fmt.Fprintf(&b, "HEALTHCHECK --interval=%s --timeout=%s --start-period=%s --retries=%d \\\n",
		hc.Interval.Duration, hc.Timeout.Duration, hc.StartPeriod.Duration, *hc.Retries)
	fmt.Fprintf(&b, "    CMD curl -f http://localhost:%d%s || exit 1\n\n", *hc.Port, hc.Path)

	fmt.Fprintf(&b, "CMD %s\n", execForm(recipe.Command))

	return b.String(), nil
}

// execForm renders a command in the Dockerfile JSON array form.
func execForm(command []string) string {
	quoted := make([]string, 0, len(command))
	for _, c := range command {
		quoted = append(quoted, fmt.Sprintf("%q", c))
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}
