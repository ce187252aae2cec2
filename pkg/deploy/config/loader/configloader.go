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
	"fmt"
	"os"

	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/serializer"
	utilruntime "k8s.io/apimachinery/pkg/util/runtime"

	configapi "github.com/anupamw/FootballTransfersFeedService/api/config/v1alpha1"
)

var scheme = runtime.NewScheme()

func init() {
	configapi.SchemeBuilder.Register(configapi.RegisterDefaults)
	utilruntime.Must(configapi.Install(scheme))
}

// LoadConfig loads a DeploymentConfig either from supplied text or from a
// file, applies the scheme defaults and validates the result. Unknown
// fields are rejected.
func LoadConfig(configText []byte, fileName string) (*configapi.DeploymentConfig, error) {
	var err error
	if len(configText) == 0 {
		configText, err = os.ReadFile(fileName)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file. Error: %s", err)
		}
	}

	theConfig := &configapi.DeploymentConfig{}

	codecs := serializer.NewCodecFactory(scheme, serializer.EnableStrict)
	err = runtime.DecodeInto(codecs.UniversalDecoder(), configText, theConfig)
	if err != nil {
		return nil, fmt.Errorf("the configuration is invalid. Error: %s", err)
	}
	scheme.Default(theConfig)

	err = Validate(theConfig)
	if err != nil {
		return nil, fmt.Errorf("the configuration is invalid. error: %s", err)
	}
	return theConfig, nil
}
