// Package handlers implements the business logic for CLI commands.
//
// Handlers are framework-agnostic and can be tested independently of the
// CLI framework. Collaborators are created through package-level factory
// variables so tests can replace them.
package handlers

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/imamik/facetctl/internal/bootstrap"
	"github.com/imamik/facetctl/internal/cluster"
	"github.com/imamik/facetctl/internal/config"
	"github.com/imamik/facetctl/internal/launch"
	"github.com/imamik/facetctl/internal/platform/hcloud"
	"github.com/imamik/facetctl/internal/platform/s3"
	"github.com/imamik/facetctl/internal/provider"
	"github.com/imamik/facetctl/internal/ui/console"
)

// LaunchOptions are the flags of the launch command.
type LaunchOptions struct {
	ConfigPath string
	DryRun     bool
	Force      bool
	Bootstrap  bool
	WaitSSH    bool
	Cloud      bool
	Verbose    bool

	Concurrency     int
	SSHTimeout      time.Duration
	SSHPollInterval time.Duration
	MetricsFile     string
}

// Factory function variables - can be replaced in tests for dependency injection.
var (
	// newInfraClient creates a new infrastructure client.
	newInfraClient = func(token string, t *config.Timeouts) hcloud.InfrastructureManager {
		return hcloud.NewRealClient(token, hcloud.WithTimeouts(t))
	}

	// newS3Client creates the object storage client of the s3 registry.
	newS3Client = s3.NewClient

	// newObserver creates the console that reports progress.
	newObserver = func(verbose bool) launch.Observer {
		return console.Stdout(verbose)
	}

	// newLogger creates the diagnostic logger and its flush function.
	newLogger = newZapLogger

	// newDialer overrides how bootstrap sessions are opened; nil uses SSH.
	newDialer bootstrap.Dialer

	// findConfigFile finds facetctl.yaml (for testing injection).
	findConfigFile = config.FindConfigFile

	// loadConfigFile loads config from file (for testing injection).
	loadConfigFile = config.Load

	// writeMetrics writes the launch metrics to path.
	writeMetrics = func(path string) error {
		return prometheus.WriteToTextfile(path, launch.MetricsRegistry)
	}

	// getenv reads the environment (for testing injection).
	getenv = os.Getenv
)

// Launch brings the servers selected by args up.
//
// The workflow:
//  1. Parses the target expression and loads the cluster definition
//  2. Connects to Hetzner Cloud using HCLOUD_TOKEN, unless the cloud lookup
//     is disabled and this is a dry run
//  3. Resolves the target into servers paired with existing machines
//  4. Runs the launch: gate, registry sync, shared resources, concurrent
//     provisioning with readiness and bootstrap, then aggregation
//  5. Writes launch metrics when --metrics-file is set
//
// The returned error carries the exit code in an ExitError.
func Launch(ctx context.Context, args []string, opts LaunchOptions) error {
	return exitError(runLaunch(ctx, args, opts))
}

func runLaunch(ctx context.Context, args []string, opts LaunchOptions) error {
	target, err := cluster.ParseTarget(args)
	if err != nil {
		return &launch.ConfigurationError{Msg: "invalid target", Err: err}
	}

	cfg, err := loadConfig(opts.ConfigPath)
	if err != nil {
		return &launch.ConfigurationError{Msg: "invalid configuration", Err: err}
	}

	log, flush := newLogger(opts.Verbose)
	defer flush()
	log = log.WithValues("cluster", target.Cluster)

	timeouts := resolveTimeouts(opts)
	obs := newObserver(opts.Verbose)

	infra, err := connectCloud(opts, timeouts, obs)
	if err != nil {
		return err
	}

	deps, err := buildDependencies(cfg, infra, timeouts, opts, log)
	if err != nil {
		return err
	}
	deps.Observer = obs

	var lister cluster.MachineLister
	if opts.Cloud && infra != nil {
		lister = provider.NewHCloud(infra, cfg.SSH.PrivateKeyPath, log)
	}
	resolver := cluster.NewResolver(cluster.NewBuilder(cfg, nil), lister)
	servers, err := resolver.Resolve(ctx, target)
	if err != nil {
		if ctx.Err() != nil {
			return &launch.CancellationError{Err: ctx.Err()}
		}
		return fmt.Errorf("failed to resolve %s: %w", target, err)
	}
	log.V(1).Info("resolved target", "target", target.String(), "servers", len(servers))

	orch := launch.New(deps, launch.Options{
		DryRun:      opts.DryRun,
		Force:       opts.Force,
		Bootstrap:   opts.Bootstrap,
		WaitSSH:     opts.WaitSSH,
		Concurrency: opts.Concurrency,
		SSHTimeout:  timeouts.SSHWait,
		CancelGrace: timeouts.CancelGrace,
	})
	_, runErr := orch.Run(ctx, target.Cluster, servers)

	if opts.MetricsFile != "" {
		if err := writeMetrics(opts.MetricsFile); err != nil {
			log.Error(err, "failed to write metrics", "path", opts.MetricsFile)
		}
	}
	return runErr
}

// loadConfig loads and validates the cluster definition. If configPath is
// empty, it looks for facetctl.yaml from the current directory upwards.
func loadConfig(configPath string) (*config.File, error) {
	if configPath == "" {
		path, err := findConfigFile()
		if err != nil {
			return nil, fmt.Errorf("no config file found: %w", err)
		}
		configPath = path
	}
	return loadConfigFile(configPath)
}

// resolveTimeouts reads the timeout environment and applies flag overrides.
func resolveTimeouts(opts LaunchOptions) *config.Timeouts {
	t := config.LoadTimeouts()
	if opts.SSHTimeout > 0 {
		t.SSHWait = opts.SSHTimeout
	}
	if opts.SSHPollInterval > 0 {
		t.SSHPollInterval = opts.SSHPollInterval
	}
	return t
}

// connectCloud returns the Hetzner client, or nil in a dry run without a
// token. A real launch always needs one.
func connectCloud(opts LaunchOptions, t *config.Timeouts, obs launch.Observer) (hcloud.InfrastructureManager, error) {
	token := getenv("HCLOUD_TOKEN")
	if token == "" {
		if !opts.DryRun {
			return nil, &launch.ConfigurationError{Msg: "HCLOUD_TOKEN environment variable is required"}
		}
		if opts.Cloud {
			obs.Warnf("HCLOUD_TOKEN is not set; existing servers are not looked up")
		}
		return nil, nil
	}
	return newInfraClient(token, t), nil
}

// buildDependencies wires the launch collaborators for a real or dry run.
func buildDependencies(cfg *config.File, infra hcloud.InfrastructureManager, t *config.Timeouts, opts LaunchOptions, log logr.Logger) (launch.Dependencies, error) {
	store, err := newRegistry(cfg.Registry, opts.DryRun, log)
	if err != nil {
		return launch.Dependencies{}, &launch.ConfigurationError{Msg: "invalid registry", Err: err}
	}

	var bootOpts []bootstrap.Option
	if newDialer != nil {
		bootOpts = append(bootOpts, bootstrap.WithDialer(newDialer))
	}
	sshBoot := bootstrap.NewSSH(cfg.Bootstrap, cfg.SSH, t.Bootstrap, log, bootOpts...)

	deps := launch.Dependencies{
		Registry:   store,
		Aggregator: store,
		Prober:     launch.NewProber(t.SSHPollInterval, t.SSHDialTimeout),
		Logger:     log,
	}
	if opts.DryRun {
		dry := provider.NewDryRun(log)
		deps.Provisioner = dry
		deps.Preparer = dry
		deps.Bootstrapper = bootstrap.NewDryRun(sshBoot)
		return deps, nil
	}

	hc := provider.NewHCloud(infra, cfg.SSH.PrivateKeyPath, log)
	deps.Provisioner = hc
	deps.Preparer = hc
	deps.Bootstrapper = sshBoot
	return deps, nil
}
