package launch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/facetctl/internal/cluster"
)

type harness struct {
	prov  *fakeProvisioner
	reg   *fakeRegistry
	boot  *fakeBootstrapper
	probe *fakeProber
	prep  *fakePreparer
	agg   *fakeAggregator
	obs   *recordingObserver
}

func newHarness() *harness {
	return &harness{
		prov:  &fakeProvisioner{},
		reg:   &fakeRegistry{},
		boot:  &fakeBootstrapper{},
		probe: &fakeProber{},
		prep:  &fakePreparer{},
		agg:   &fakeAggregator{},
		obs:   &recordingObserver{},
	}
}

func (h *harness) orchestrator(opts Options) *Orchestrator {
	return New(Dependencies{
		Provisioner:  h.prov,
		Registry:     h.reg,
		Bootstrapper: h.boot,
		Prober:       h.probe,
		Preparer:     h.prep,
		Aggregator:   h.agg,
		Observer:     h.obs,
		Logger:       logr.Discard(),
	}, opts)
}

var fullOptions = Options{Bootstrap: true, WaitSSH: true, CancelGrace: 100 * time.Millisecond}

func TestRun_PartialFailureScenario(t *testing.T) {
	t.Parallel()
	h := newHarness()
	h.prov.fail = map[string]error{"n3": errors.New("quota exceeded")}

	res, err := h.orchestrator(fullOptions).Run(context.Background(), "gibbon",
		[]*cluster.Server{newServer("n1"), newServer("n2"), newServer("n3")})

	var pfe *PartialFailureError
	require.True(t, errors.As(err, &pfe), "got %v", err)
	assert.Equal(t, cluster.Verdict{Kind: cluster.PartialFailure, Failed: []string{"n3"}}, res.Verdict)
	assert.Equal(t, cluster.Launched, res.Outcomes["n1"].Kind)
	assert.Equal(t, cluster.Launched, res.Outcomes["n2"].Kind)
	assert.Equal(t, cluster.LaunchFailed, res.Outcomes["n3"].Kind)

	assert.ElementsMatch(t, []string{"n1", "n2"}, h.probe.probed())
	assert.ElementsMatch(t, []string{"n1", "n2"}, h.boot.bootstrapped())
	assert.Equal(t, 0, h.agg.calls, "aggregation skipped on partial failure")
}

func TestRun_AllHealthyAggregatesOnce(t *testing.T) {
	t.Parallel()
	h := newHarness()

	res, err := h.orchestrator(fullOptions).Run(context.Background(), "gibbon",
		[]*cluster.Server{newServer("n1"), newServer("n2"), withMachine(newServer("n0"), cluster.StatusRunning)})

	require.NoError(t, err)
	assert.Equal(t, cluster.AllHealthy, res.Verdict.Kind)
	assert.Equal(t, 1, h.agg.calls)
	assert.Equal(t, []string{"n1", "n2"}, h.agg.computers)
	assert.Equal(t, [][]string{{"n1", "n2"}}, h.reg.saved, "only launchable servers are synced")
	assert.Equal(t, 1, h.prep.calls)
	assert.Equal(t, 1, h.boot.checks)
	assert.ElementsMatch(t, []string{"n1", "n2"}, h.prov.called())
}

func TestRun_AggregationFailure(t *testing.T) {
	t.Parallel()
	h := newHarness()
	h.agg.err = errors.New("bucket gone")

	res, err := h.orchestrator(fullOptions).Run(context.Background(), "gibbon", []*cluster.Server{newServer("n1")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cluster aggregation failed")
	assert.Equal(t, cluster.AllHealthy, res.Verdict.Kind)
}

func TestRun_BogusWithoutForceLaunchesNothing(t *testing.T) {
	t.Parallel()
	h := newHarness()
	bogus := withMachine(newServer("n2"), cluster.StatusMigrating)

	res, err := h.orchestrator(fullOptions).Run(context.Background(), "gibbon", []*cluster.Server{newServer("n1"), bogus})

	var bse *BogusStateError
	require.True(t, errors.As(err, &bse))
	assert.Equal(t, "n2", bse.Servers[0].Name)
	assert.Empty(t, h.prov.called(), "no provisioning while bogus servers exist")
	assert.Empty(t, h.reg.saved)
	assert.Equal(t, 0, h.boot.checks)
	assert.Equal(t, []string{"n2"}, names(res.Classification.Bogus))
	assert.Contains(t, h.obs.all(), "warn: Bogus server n2: machine is migrating")
}

func TestRun_BogusWithForceLaunchesTheRest(t *testing.T) {
	t.Parallel()
	h := newHarness()
	bogus := withMachine(newServer("n2"), cluster.StatusMigrating)
	opts := fullOptions
	opts.Force = true

	res, err := h.orchestrator(opts).Run(context.Background(), "gibbon", []*cluster.Server{newServer("n1"), bogus})

	require.NoError(t, err)
	assert.Equal(t, []string{"n1"}, h.prov.called())
	assert.Len(t, res.Outcomes, 1)
	assert.NotContains(t, res.Outcomes, "n2")
}

func TestRun_NothingToLaunch(t *testing.T) {
	t.Parallel()
	h := newHarness()

	res, err := h.orchestrator(fullOptions).Run(context.Background(), "gibbon",
		[]*cluster.Server{withMachine(newServer("n1"), cluster.StatusRunning)})

	require.NoError(t, err)
	assert.Equal(t, cluster.NoOp, res.Verdict.Kind)
	assert.Empty(t, h.prov.called())
	assert.Empty(t, h.reg.saved)
	assert.Equal(t, 0, h.agg.calls)
	assert.Contains(t, h.obs.all(), "print: All computers are running -- not launching any.")
}

func TestRun_PreflightFailureAbortsBeforeProvisioning(t *testing.T) {
	t.Parallel()
	h := newHarness()
	h.boot.checkErr = errors.New("servers must share one environment")

	_, err := h.orchestrator(fullOptions).Run(context.Background(), "gibbon", []*cluster.Server{newServer("n1")})

	var ce *ConfigurationError
	require.True(t, errors.As(err, &ce), "got %v", err)
	assert.Contains(t, err.Error(), "bootstrap prerequisites are not met")
	assert.Empty(t, h.prov.called())
	assert.Empty(t, h.reg.saved)
}

func TestRun_PreflightFailureInDryRunWarns(t *testing.T) {
	t.Parallel()
	h := newHarness()
	h.boot.checkErr = errors.New("servers must share one environment")
	opts := fullOptions
	opts.DryRun = true

	res, err := h.orchestrator(opts).Run(context.Background(), "gibbon", []*cluster.Server{newServer("n1")})

	require.NoError(t, err)
	assert.Equal(t, cluster.AllHealthy, res.Verdict.Kind)
	assert.Empty(t, h.probe.probed(), "no readiness wait in dry-run")
	assert.Equal(t, []string{"n1"}, h.boot.bootstrapped())
	found := false
	for _, e := range h.obs.all() {
		if e == "warn: Bootstrap prerequisites are not met, continuing because this is a dry run: servers must share one environment" {
			found = true
		}
	}
	assert.True(t, found, "dry-run reports the preflight failure as a warning")
}

func TestRun_PreflightSkippedWithoutBootstrap(t *testing.T) {
	t.Parallel()
	h := newHarness()
	h.boot.checkErr = errors.New("broken")

	_, err := h.orchestrator(Options{WaitSSH: true}).Run(context.Background(), "gibbon", []*cluster.Server{newServer("n1")})
	require.NoError(t, err)
	assert.Equal(t, 0, h.boot.checks)
	assert.Empty(t, h.boot.bootstrapped())
	assert.Equal(t, []string{"n1"}, h.probe.probed())
}

func TestRun_RegistryFailureAbortsBeforeProvisioning(t *testing.T) {
	t.Parallel()
	h := newHarness()
	h.reg.err = errors.New("access denied")

	_, err := h.orchestrator(fullOptions).Run(context.Background(), "gibbon", []*cluster.Server{newServer("n1")})
	assert.ErrorContains(t, err, "failed to sync servers to registry: access denied")
	assert.Empty(t, h.prov.called())
	assert.Equal(t, 0, h.prep.calls)
}

func TestRun_PrepareFailureAbortsBeforeProvisioning(t *testing.T) {
	t.Parallel()
	h := newHarness()
	h.prep.err = errors.New("firewall limit reached")

	_, err := h.orchestrator(fullOptions).Run(context.Background(), "gibbon", []*cluster.Server{newServer("n1")})
	assert.ErrorContains(t, err, "firewall limit reached")
	assert.Empty(t, h.prov.called())
}

func TestRun_CancelledMidRun(t *testing.T) {
	t.Parallel()
	h := newHarness()
	block := make(chan struct{})
	t.Cleanup(func() { close(block) })
	h.prov.block = block

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	start := time.Now()
	res, err := h.orchestrator(fullOptions).Run(ctx, "gibbon", []*cluster.Server{newServer("n1"), newServer("n2")})

	assert.Less(t, time.Since(start), time.Second)
	var ce *CancellationError
	require.True(t, errors.As(err, &ce), "got %v", err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, cluster.Cancelled, res.Verdict.Kind)
	assert.Equal(t, []string{"n1", "n2"}, res.Verdict.Failed)
	assert.Equal(t, 0, h.agg.calls)
}

func TestRun_ObserverSequence(t *testing.T) {
	t.Parallel()
	h := newHarness()

	_, err := h.orchestrator(Options{}).Run(context.Background(), "gibbon", []*cluster.Server{newServer("n1")})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"section: Cluster gibbon",
		"servers: [n1]",
		"section: Syncing to registry",
		"section: Preparing shared resources",
		"section: Launching computers",
		"servers: [n1]",
		"progress: n1 provisioning",
		"outcome: n1 launched",
		"section: Aggregating cluster",
		"verdict: all healthy",
	}, h.obs.all())
}

func TestNew_Defaults(t *testing.T) {
	t.Parallel()
	o := New(Dependencies{}, Options{})
	assert.IsType(t, NopObserver{}, o.deps.Observer)
	assert.IsType(t, &Prober{}, o.deps.Prober)
}

func TestRun_AbortedRunsAreCounted(t *testing.T) {
	tests := []struct {
		name    string
		cluster string
		servers func() []*cluster.Server
		setup   func(h *harness)
	}{
		{
			name:    "bogus gate",
			cluster: "abort-gate",
			servers: func() []*cluster.Server {
				return []*cluster.Server{withMachine(newServer("n1"), cluster.StatusMigrating)}
			},
		},
		{
			name:    "preflight",
			cluster: "abort-preflight",
			setup:   func(h *harness) { h.boot.checkErr = errors.New("broken") },
		},
		{
			name:    "registry",
			cluster: "abort-registry",
			setup:   func(h *harness) { h.reg.err = errors.New("access denied") },
		},
		{
			name:    "prepare",
			cluster: "abort-prepare",
			setup:   func(h *harness) { h.prep.err = errors.New("firewall limit reached") },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness()
			if tt.setup != nil {
				tt.setup(h)
			}
			servers := []*cluster.Server{newServer("n1")}
			if tt.servers != nil {
				servers = tt.servers()
			}

			before := testutil.ToFloat64(runsTotal.WithLabelValues(tt.cluster, verdictAborted))
			_, err := h.orchestrator(fullOptions).Run(context.Background(), tt.cluster, servers)
			require.Error(t, err)
			assert.Equal(t, before+1, testutil.ToFloat64(runsTotal.WithLabelValues(tt.cluster, verdictAborted)))
			assert.Empty(t, h.prov.called())
		})
	}
}
