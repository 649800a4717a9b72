package launch

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/imamik/facetctl/internal/cluster"
)

func newServer(name string) *cluster.Server {
	return &cluster.Server{Spec: cluster.ServerSpec{
		Cluster: "gibbon",
		Facet:   "web",
		Name:    name,
		Cloud:   cluster.CloudSpec{SSHUser: "root", SSHPort: 22},
		Launch:  cluster.LaunchConfig{PostLaunchTasks: true},
	}}
}

func withMachine(s *cluster.Server, status cluster.MachineStatus) *cluster.Server {
	s.Machine = &cluster.Machine{ID: 1, Name: s.Name(), Status: status, PublicIP: "203.0.113.1"}
	return s
}

func names(servers []*cluster.Server) []string {
	out := make([]string, 0, len(servers))
	for _, s := range servers {
		out = append(out, s.Name())
	}
	return out
}

// fakeProvisioner returns a computer per server unless fail names it.
type fakeProvisioner struct {
	mu    sync.Mutex
	calls []string
	fail  map[string]error
	delay time.Duration
	// block, when set, makes RequestInstance ignore ctx and wait on it.
	block chan struct{}

	inFlight    atomic.Int32
	maxInFlight atomic.Int32
}

func (p *fakeProvisioner) RequestInstance(ctx context.Context, s *cluster.Server) (*cluster.Computer, error) {
	p.mu.Lock()
	p.calls = append(p.calls, s.Name())
	p.mu.Unlock()

	n := p.inFlight.Add(1)
	defer p.inFlight.Add(-1)
	for {
		m := p.maxInFlight.Load()
		if n <= m || p.maxInFlight.CompareAndSwap(m, n) {
			break
		}
	}

	if p.block != nil {
		<-p.block
	}
	if p.delay > 0 {
		select {
		case <-time.After(p.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err := p.fail[s.Name()]; err != nil {
		return nil, err
	}
	return &cluster.Computer{Server: s, Name: s.Name(), Address: "127.0.0.1"}, nil
}

func (p *fakeProvisioner) called() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.calls...)
}

// fakeBootstrapper records bootstraps.
type fakeBootstrapper struct {
	mu         sync.Mutex
	checkErr   error
	fail       map[string]error
	bootstraps []string
	checks     int
	onBoot     func(name string)
}

func (b *fakeBootstrapper) Check(context.Context, []*cluster.Server) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.checks++
	return b.checkErr
}

func (b *fakeBootstrapper) Bootstrap(_ context.Context, c *cluster.Computer) error {
	b.mu.Lock()
	b.bootstraps = append(b.bootstraps, c.Name)
	hook := b.onBoot
	b.mu.Unlock()
	if hook != nil {
		hook(c.Name)
	}
	return b.fail[c.Name]
}

func (b *fakeBootstrapper) bootstrapped() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.bootstraps...)
}

// fakeProber succeeds unless fail names the computer.
type fakeProber struct {
	mu    sync.Mutex
	calls []string
	fail  map[string]error
}

func (p *fakeProber) WaitReady(_ context.Context, c *cluster.Computer, _ time.Duration) error {
	p.mu.Lock()
	p.calls = append(p.calls, c.Name)
	p.mu.Unlock()
	return p.fail[c.Name]
}

func (p *fakeProber) probed() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.calls...)
}

type fakeRegistry struct {
	mu    sync.Mutex
	saved [][]string
	err   error
}

func (r *fakeRegistry) Save(_ context.Context, servers []*cluster.Server) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saved = append(r.saved, names(servers))
	return r.err
}

type fakeAggregator struct {
	mu        sync.Mutex
	calls     int
	computers []string
	err       error
}

func (a *fakeAggregator) Aggregate(_ context.Context, _ string, _ []*cluster.Server, computers []*cluster.Computer) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls++
	for _, c := range computers {
		a.computers = append(a.computers, c.Name)
	}
	return a.err
}

type fakePreparer struct {
	calls int
	err   error
}

func (p *fakePreparer) Prepare(context.Context, []*cluster.Server) error {
	p.calls++
	return p.err
}

// recordingObserver keeps every event as a string.
type recordingObserver struct {
	mu     sync.Mutex
	events []string
}

func (r *recordingObserver) add(format string, v ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, fmt.Sprintf(format, v...))
}

func (r *recordingObserver) Printf(format string, v ...any) { r.add("print: "+format, v...) }
func (r *recordingObserver) Warnf(format string, v ...any)  { r.add("warn: "+format, v...) }
func (r *recordingObserver) Section(title string)           { r.add("section: %s", title) }
func (r *recordingObserver) Servers(s []*cluster.Server)    { r.add("servers: %v", names(s)) }
func (r *recordingObserver) Progress(node string, stage Stage) {
	r.add("progress: %s %s", node, stage)
}
func (r *recordingObserver) Outcome(o cluster.NodeOutcome) { r.add("outcome: %s %s", o.Name, o.Kind) }
func (r *recordingObserver) Verdict(v cluster.Verdict)     { r.add("verdict: %s", v) }

func (r *recordingObserver) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}
