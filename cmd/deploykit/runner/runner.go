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

package runner

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"

	uberzap "go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	healthPb "google.golang.org/grpc/health/grpc_health_v1"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/labels"
	"k8s.io/client-go/rest"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/cache"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"
	"sigs.k8s.io/controller-runtime/pkg/manager"
	"sigs.k8s.io/controller-runtime/pkg/metrics/filters"
	metricsserver "sigs.k8s.io/controller-runtime/pkg/metrics/server"

	"github.com/anupamw/FootballTransfersFeedService/internal/runnable"
	tlsutil "github.com/anupamw/FootballTransfersFeedService/internal/tls"
	logutil "github.com/anupamw/FootballTransfersFeedService/pkg/common/observability/logging"
	"github.com/anupamw/FootballTransfersFeedService/pkg/common/observability/profiling"
	"github.com/anupamw/FootballTransfersFeedService/pkg/deploy/config/loader"
	"github.com/anupamw/FootballTransfersFeedService/pkg/deploy/controller"
	"github.com/anupamw/FootballTransfersFeedService/pkg/deploy/datastore"
	"github.com/anupamw/FootballTransfersFeedService/pkg/deploy/metrics"
	"github.com/anupamw/FootballTransfersFeedService/pkg/deploy/probe"
	"github.com/anupamw/FootballTransfersFeedService/version"
)

var (
	// Flags
	grpcHealthPort      = flag.Int("grpc-health-port", 9003, "The port used for gRPC liveness and readiness probes")
	metricsPort         = flag.Int("metrics-port", 9090, "The metrics port")
	metricsEndpointAuth = flag.Bool("metrics-endpoint-auth", true, "Enables authentication and authorization of the metrics endpoint")
	secureServing       = flag.Bool("secure-serving", true, "Enables secure serving of the gRPC health endpoint.")
	logVerbosity        = flag.Int("v", logutil.DEFAULT, "number for the log level verbosity")
	enablePprof         = flag.Bool("enable-pprof", true, "Enables pprof handlers. Defaults to true. Set to false to disable pprof handlers.")
	configFile          = flag.String("config-file", "", "Path to a DeploymentConfig file. Required when -probe-host is set.")
	probeHost           = flag.String("probe-host", "", "Host of the web service to probe continuously. Probing is disabled when empty.")

	// Logging
	setupLog = ctrl.Log.WithName("setup")
)

func NewRunner() *Runner {
	return &Runner{
		executableName: "deploykit",
	}
}

// Runner wires the deploykit manager: the ConfigMap reconciler, the metrics
// endpoint, the gRPC health service and the optional continuous prober.
type Runner struct {
	executableName string

	prober *probe.Prober
}

// WithExecutableName sets the name of the executable containing the runner.
// The name is used in the version log upon startup and is otherwise opaque.
func (r *Runner) WithExecutableName(exeName string) *Runner {
	r.executableName = exeName
	return r
}

func (r *Runner) Run(ctx context.Context) error {
	setupLog.Info(r.executableName+" build", "commit-sha", version.CommitSHA, "build-ref", version.BuildRef)
	opts := zap.Options{Development: true}
	opts.BindFlags(flag.CommandLine)
	flag.Parse()
	initLogging(&opts)

	// Print all flag values
	flags := make(map[string]any)
	flag.VisitAll(func(f *flag.Flag) {
		flags[f.Name] = f.Value
	})
	setupLog.Info("Flags processed", "flags", flags)

	// Init runtime.
	cfg, err := ctrl.GetConfig()
	if err != nil {
		setupLog.Error(err, "Failed to get rest config")
		return err
	}

	ds := datastore.NewDatastore()

	metrics.Register()
	// Register metrics handler. The Metrics options configure the server.
	metricsServerOptions := metricsserver.Options{
		BindAddress: fmt.Sprintf(":%d", *metricsPort),
		FilterProvider: func() func(c *rest.Config, httpClient *http.Client) (metricsserver.Filter, error) {
			if *metricsEndpointAuth {
				return filters.WithAuthenticationAndAuthorization
			}

			return nil
		}(),
	}
	// Only the ConfigMap objects carrying the managed label are tracked, so
	// the cache does server-side filtering instead of listing everything.
	cacheOptions := cache.Options{
		ByObject: map[client.Object]cache.ByObject{
			&corev1.ConfigMap{}: {
				Label: labels.SelectorFromSet(labels.Set{
					datastore.ManagedLabel: "true",
				}),
			},
		},
	}
	// Apply namespace filtering only if env var is set
	namespace := os.Getenv("NAMESPACE")
	if namespace != "" {
		cacheOptions.DefaultNamespaces = map[string]cache.Config{
			namespace: {},
		}
	}

	mgr, err := ctrl.NewManager(cfg, ctrl.Options{Cache: cacheOptions, Metrics: metricsServerOptions})
	if err != nil {
		setupLog.Error(err, "Failed to create manager", "config", cfg)
		return err
	}

	if *enablePprof {
		setupLog.Info("Setting pprof handlers")
		if err = profiling.SetupPprofHandlers(mgr); err != nil {
			setupLog.Error(err, "Failed to setup pprof handlers")
			return err
		}
	}

	reconciler := &controller.ConfigMapReconciler{
		Client:    mgr.GetClient(),
		Datastore: ds,
	}
	if err := reconciler.SetupWithManager(mgr); err != nil {
		setupLog.Error(err, "Failed to setup deploykit controllers")
		return err
	}

	// Register the continuous prober.
	if *probeHost != "" {
		if err := r.registerProber(mgr); err != nil {
			setupLog.Error(err, "Failed to register prober")
			return err
		}
	}

	// Register health server.
	if err := r.registerHealthServer(mgr, *grpcHealthPort); err != nil {
		return err
	}

	// Start the manager. This blocks until a signal is received.
	setupLog.Info("Manager starting")
	if err := mgr.Start(ctx); err != nil {
		setupLog.Error(err, "Error starting manager")
		return err
	}
	setupLog.Info("Manager terminated")
	return nil
}

// registerProber builds the prober from the image recipe's health check
// section and adds it as a Runnable to the given manager.
func (r *Runner) registerProber(mgr manager.Manager) error {
	if *configFile == "" {
		return errors.New("-probe-host requires -config-file")
	}
	cfg, err := loader.LoadConfig(nil, *configFile)
	if err != nil {
		return err
	}
	if cfg.Image == nil || cfg.Image.HealthCheck == nil {
		return errors.New("config file has no image health check section")
	}

	r.prober = probe.NewProber(probe.ConfigFromSpec(cfg.Image.HealthCheck, *probeHost))
	if err := mgr.Add(r.prober.AsRunnable(ctrl.Log.WithName("prober"))); err != nil {
		setupLog.Error(err, "Failed to register prober runnable")
		return err
	}
	return nil
}

// registerHealthServer adds the Health gRPC server as a Runnable to the given manager.
func (r *Runner) registerHealthServer(mgr manager.Manager, port int) error {
	var srv *grpc.Server
	if *secureServing {
		cert, err := tlsutil.CreateSelfSignedTLSCertificate(setupLog)
		if err != nil {
			setupLog.Error(err, "Failed to create self-signed certificate for the health server")
			return err
		}
		srv = grpc.NewServer(grpc.Creds(credentials.NewServerTLSFromCert(&cert)))
	} else {
		srv = grpc.NewServer()
	}

	healthPb.RegisterHealthServer(srv, &healthServer{prober: r.prober})
	if err := mgr.Add(
		runnable.NoLeaderElection(runnable.GRPCServer("health", srv, port))); err != nil {
		setupLog.Error(err, "Failed to register health server")
		return err
	}
	return nil
}

func initLogging(opts *zap.Options) {
	useV := true
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "zap-log-level" {
			useV = false
		}
	})
	if useV {
		// See https://pkg.go.dev/sigs.k8s.io/controller-runtime/pkg/log/zap#Options.Level
		lvl := -1 * (*logVerbosity)
		opts.Level = uberzap.NewAtomicLevelAt(zapcore.Level(int8(lvl)))
	}

	logutil.InitLogging(opts)
}
