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

package image

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/utils/ptr"

	configapi "github.com/anupamw/FootballTransfersFeedService/api/config/v1alpha1"
)

func recipe() *configapi.ImageRecipe {
	return &configapi.ImageRecipe{
		BaseImage:        "python:3.11-slim",
		SystemPackages:   []string{"curl"},
		RequirementsFile: "requirements.txt",
		SourcePath:       ".",
		User:             "appuser",
		UID:              ptr.To(int64(1000)),
		Port:             ptr.To(int32(8000)),
		HealthCheck: &configapi.HealthCheckSpec{
			Path:        "/health",
			Port:        ptr.To(int32(8000)),
			Interval:    metav1.Duration{Duration: 30 * time.Second},
			Timeout:     metav1.Duration{Duration: 5 * time.Second},
			StartPeriod: metav1.Duration{Duration: 10 * time.Second},
			Retries:     ptr.To(int32(3)),
		},
		Command: []string{"uvicorn", "main:app", "--host", "0.0.0.0", "--port", "8000"},
	}
}

const wantDockerfile = `FROM python:3.11-slim

RUN apt-get update && apt-get install -y --no-install-recommends \
    curl \
    && rm -rf /var/lib/apt/lists/*

WORKDIR /app

COPY requirements.txt .
RUN pip install --no-cache-dir -r requirements.txt

COPY . .

RUN groupadd --gid 1000 appuser \
    && useradd --uid 1000 --gid appuser --create-home appuser \
    && chown -R appuser:appuser /app
USER appuser

EXPOSE 8000

HEALTHCHECK --interval=30s --timeout=5s --start-period=10s --retries=3 \
    CMD curl -f http://localhost:8000/health || exit 1

CMD ["uvicorn", "main:app", "--host", "0.0.0.0", "--port", "8000"]
`

func TestRenderDockerfile(t *testing.T) {
	out, err := RenderDockerfile(recipe())
	require.NoError(t, err)

	if diff := cmp.Diff(wantDockerfile, out); diff != "" {
		t.Errorf("Unexpected dockerfile (-want +got): %v", diff)
	}
}

func TestRenderDockerfileNoSystemPackages(t *testing.T) {
	r := recipe()
	r.SystemPackages = nil

	out, err := RenderDockerfile(r)
	require.NoError(t, err)
	require.NotContains(t, out, "apt-get")
}

func TestRenderDockerfileErrors(t *testing.T) {
	tests := []struct {
		name   string
		recipe *configapi.ImageRecipe
	}{
		{
			name:   "nil recipe",
			recipe: nil,
		},
		{
			name:   "missing base image",
			recipe: &configapi.ImageRecipe{},
		},
		{
			name:   "not defaulted",
			recipe: &configapi.ImageRecipe{BaseImage: "python:3.11-slim"},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := RenderDockerfile(test.recipe)
			require.Error(t, err)
		})
	}
}
