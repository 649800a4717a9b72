package launch

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/go-logr/logr"

	"github.com/imamik/facetctl/internal/cluster"
)

// Options control one launch run.
type Options struct {
	DryRun    bool
	Force     bool
	Bootstrap bool
	WaitSSH   bool

	// Concurrency bounds parallel launch units; zero means unbounded.
	Concurrency int
	// SSHTimeout bounds the readiness wait of one node.
	SSHTimeout time.Duration
	// CancelGrace is how long in-flight units may take to stop after
	// cancellation.
	CancelGrace time.Duration
}

// Dependencies are the collaborators of an Orchestrator. Preparer,
// Aggregator and Observer may be nil.
type Dependencies struct {
	Provisioner  Provisioner
	Registry     Registry
	Bootstrapper Bootstrapper
	Prober       ReadinessProber
	Preparer     Preparer
	Aggregator   Aggregator
	Observer     Observer
	Logger       logr.Logger
}

// Result describes a finished run.
type Result struct {
	Classification Classification
	Outcomes       map[string]cluster.NodeOutcome
	Verdict        cluster.Verdict
}

// Orchestrator runs launches.
type Orchestrator struct {
	deps Dependencies
	opts Options
	log  logr.Logger
}

// New returns an Orchestrator.
func New(deps Dependencies, opts Options) *Orchestrator {
	if deps.Observer == nil {
		deps.Observer = NopObserver{}
	}
	if deps.Prober == nil {
		deps.Prober = NewProber(0, 0)
	}
	return &Orchestrator{deps: deps, opts: opts, log: deps.Logger.WithName("launch")}
}

// Run launches the launchable servers of one cluster slice. The returned
// Result is non-nil whenever classification happened, even on error.
func (o *Orchestrator) Run(ctx context.Context, clusterName string, servers []*cluster.Server) (*Result, error) {
	obs := o.deps.Observer
	obs.Section(fmt.Sprintf("Cluster %s", clusterName))
	obs.Servers(servers)

	res := &Result{Classification: Classify(servers)}
	cls := res.Classification
	o.log.V(1).Info("classified servers", "cluster", clusterName,
		"launchable", len(cls.Launchable), "running", len(cls.Running), "bogus", len(cls.Bogus))

	if err := cls.Gate(o.opts.Force); err != nil {
		for _, s := range cls.Bogus {
			obs.Warnf("Bogus server %s: %s", s.Name(), s.BogusReason())
		}
		recordRun(clusterName, verdictAborted, nil)
		return res, err
	}
	if len(cls.Bogus) > 0 {
		obs.Warnf("Proceeding because --force was given; %d bogus server(s) will not be touched", len(cls.Bogus))
	}

	if len(cls.Launchable) == 0 {
		obs.Printf("All computers are running -- not launching any.")
		res.Verdict = cluster.Verdict{Kind: cluster.NoOp}
		obs.Verdict(res.Verdict)
		recordRun(clusterName, res.Verdict.Kind.String(), nil)
		return res, nil
	}

	if err := o.preflight(ctx, cls.Launchable); err != nil {
		recordRun(clusterName, verdictAborted, nil)
		return res, err
	}

	obs.Section("Syncing to registry")
	if err := o.deps.Registry.Save(ctx, cls.Launchable); err != nil {
		return res, o.abort(ctx, clusterName, fmt.Errorf("failed to sync servers to registry: %w", err))
	}

	if o.deps.Preparer != nil {
		obs.Section("Preparing shared resources")
		if err := o.deps.Preparer.Prepare(ctx, cls.Launchable); err != nil {
			return res, o.abort(ctx, clusterName, err)
		}
	}

	obs.Section("Launching computers")
	obs.Servers(cls.Launchable)
	res.Outcomes = o.coordinator().Launch(ctx, cls.Launchable)
	res.Verdict = Verdict(res.Outcomes)
	o.record(clusterName, res)

	switch res.Verdict.Kind {
	case cluster.AllHealthy:
		if o.deps.Aggregator != nil {
			obs.Section("Aggregating cluster")
			if err := o.deps.Aggregator.Aggregate(ctx, clusterName, cls.Launchable, Computers(res.Outcomes)); err != nil {
				return res, fmt.Errorf("all servers launched but cluster aggregation failed: %w", err)
			}
		}
		obs.Verdict(res.Verdict)
		return res, nil
	case cluster.Cancelled:
		obs.Verdict(res.Verdict)
		return res, &CancellationError{Err: ctx.Err()}
	default:
		obs.Verdict(res.Verdict)
		return res, &PartialFailureError{Verdict: res.Verdict, Outcomes: res.Outcomes}
	}
}

// preflight checks the bootstrap prerequisites of every launchable server.
// In dry-run mode a failure is only a warning.
func (o *Orchestrator) preflight(ctx context.Context, servers []*cluster.Server) error {
	if !o.opts.Bootstrap || o.deps.Bootstrapper == nil {
		return nil
	}
	err := o.deps.Bootstrapper.Check(ctx, servers)
	if err == nil {
		return nil
	}
	if o.opts.DryRun {
		o.deps.Observer.Warnf("Bootstrap prerequisites are not met, continuing because this is a dry run: %v", err)
		return nil
	}
	return &ConfigurationError{Msg: "bootstrap prerequisites are not met", Err: err}
}

// abort records a run that failed before launching anything and turns the
// failure into a CancellationError when the run was cancelled.
func (o *Orchestrator) abort(ctx context.Context, clusterName string, err error) error {
	recordRun(clusterName, verdictAborted, nil)
	if ctx.Err() != nil {
		return &CancellationError{Err: ctx.Err()}
	}
	return err
}

func (o *Orchestrator) coordinator() *Coordinator {
	co := &Coordinator{
		provisioner: o.deps.Provisioner,
		concurrency: o.opts.Concurrency,
		grace:       o.opts.CancelGrace,
		observer:    o.deps.Observer,
	}
	waitReady := o.opts.WaitSSH && !o.opts.DryRun
	bootstrap := o.opts.Bootstrap && o.deps.Bootstrapper != nil
	if waitReady || bootstrap {
		co.pipeline = &Pipeline{
			prober:       o.deps.Prober,
			bootstrapper: o.deps.Bootstrapper,
			waitReady:    waitReady,
			bootstrap:    bootstrap,
			readyTimeout: o.opts.SSHTimeout,
			observer:     o.deps.Observer,
		}
	}
	return co
}

func (o *Orchestrator) record(clusterName string, res *Result) {
	counts := make(map[string]int)
	names := make([]string, 0, len(res.Outcomes))
	for name, out := range res.Outcomes {
		counts[out.Kind.String()]++
		names = append(names, name)
	}
	recordRun(clusterName, res.Verdict.Kind.String(), counts)

	sort.Strings(names)
	for _, name := range names {
		out := res.Outcomes[name]
		if out.Err != nil {
			o.log.Error(out.Err, "node failed", "server", name, "outcome", out.Kind.String())
		} else {
			o.log.V(1).Info("node launched", "server", name)
		}
	}
}
