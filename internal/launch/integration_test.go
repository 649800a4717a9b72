//go:build integration

package launch_test

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-logr/zapr"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/imamik/facetctl/internal/cluster"
	"github.com/imamik/facetctl/internal/launch"
	"github.com/imamik/facetctl/internal/registry"
)

// loopbackProvisioner hands out computers on 127.0.0.1. Servers whose name
// is in unreachable get a port nobody listens on.
type loopbackProvisioner struct {
	mu          sync.Mutex
	requested   []string
	unreachable map[string]bool
	listeners   []net.Listener
}

func (p *loopbackProvisioner) RequestInstance(_ context.Context, s *cluster.Server) (*cluster.Computer, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, err
	}
	port := ln.Addr().(*net.TCPAddr).Port

	p.mu.Lock()
	defer p.mu.Unlock()
	p.requested = append(p.requested, s.Name())
	if p.unreachable[s.Name()] {
		ln.Close()
	} else {
		p.listeners = append(p.listeners, ln)
		go acceptAll(ln)
	}

	s.Spec.Cloud.SSHPort = port
	return &cluster.Computer{Server: s, ID: int64(len(p.requested)), Name: s.Name(), Address: "127.0.0.1"}, nil
}

func (p *loopbackProvisioner) close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, ln := range p.listeners {
		ln.Close()
	}
}

func acceptAll(ln net.Listener) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		conn.Close()
	}
}

func server(name string, index int) *cluster.Server {
	return &cluster.Server{Spec: cluster.ServerSpec{
		Cluster:     "gibbon",
		Facet:       "web",
		Index:       index,
		Name:        name,
		Environment: "staging",
		RunList:     []string{"role[base]"},
		Launch:      cluster.LaunchConfig{PostLaunchTasks: true},
	}}
}

var _ = Describe("Launch run", func() {
	var (
		ctx    context.Context
		cancel context.CancelFunc
		dir    string
		store  *registry.Store
		prov   *loopbackProvisioner
		opts   launch.Options
	)

	BeforeEach(func() {
		ctx, cancel = context.WithCancel(context.Background())
		DeferCleanup(func() { cancel() })

		dir = GinkgoT().TempDir()
		zl := zap.New(zapcore.NewCore(
			zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
			zapcore.AddSync(GinkgoWriter),
			zapcore.DebugLevel,
		))
		store = registry.NewStore(registry.NewFileStore(dir), zapr.NewLogger(zl))
		prov = &loopbackProvisioner{unreachable: map[string]bool{}}
		DeferCleanup(prov.close)

		opts = launch.Options{
			WaitSSH:     true,
			Concurrency: 4,
			SSHTimeout:  time.Second,
			CancelGrace: 500 * time.Millisecond,
		}
	})

	run := func(servers ...*cluster.Server) (*launch.Result, error) {
		o := launch.New(launch.Dependencies{
			Provisioner: prov,
			Registry:    store,
			Aggregator:  store,
			Prober:      launch.NewProber(50*time.Millisecond, 100*time.Millisecond),
			Logger:      zapr.NewLogger(zap.NewNop()),
		}, opts)
		return o.Run(ctx, "gibbon", servers)
	}

	It("launches every server and records the cluster manifest", func() {
		res, err := run(server("gibbon-web-0", 0), server("gibbon-web-1", 1))
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Verdict.Kind).To(Equal(cluster.AllHealthy))

		By("writing one node manifest per server")
		for _, name := range []string{"gibbon-web-0", "gibbon-web-1"} {
			Expect(filepath.Join(dir, "nodes", "gibbon", name+".yaml")).To(BeAnExistingFile())
		}

		By("recording both members in the cluster manifest")
		m, err := store.LoadCluster(ctx, "gibbon")
		Expect(err).NotTo(HaveOccurred())
		Expect(m.Environment).To(Equal("staging"))
		Expect(m.Members).To(HaveLen(2))
		Expect(m.Members[0].Name).To(Equal("gibbon-web-0"))
		Expect(m.Members[0].Address).To(Equal("127.0.0.1"))
		Expect(m.Members[1].State).To(Equal("running"))
	})

	It("reports a readiness timeout without aggregating", func() {
		prov.unreachable["gibbon-web-1"] = true

		start := time.Now()
		res, err := run(server("gibbon-web-0", 0), server("gibbon-web-1", 1))
		Expect(time.Since(start)).To(BeNumerically("<", 5*time.Second))

		var pfe *launch.PartialFailureError
		Expect(errors.As(err, &pfe)).To(BeTrue())
		Expect(res.Verdict.Failed).To(Equal([]string{"gibbon-web-1"}))

		failed := res.Outcomes["gibbon-web-1"]
		Expect(failed.Kind).To(Equal(cluster.PostLaunchFailed))
		var rte *launch.ReadinessTimeoutError
		Expect(errors.As(failed.Err, &rte)).To(BeTrue())
		Expect(rte.Attempts).To(BeNumerically(">=", 2))

		By("leaving the cluster manifest untouched")
		_, err = store.LoadCluster(ctx, "gibbon")
		Expect(err).To(MatchError(registry.ErrNotFound))
	})

	It("keeps members of earlier runs when new servers join", func() {
		_, err := run(server("gibbon-web-0", 0))
		Expect(err).NotTo(HaveOccurred())

		_, err = run(server("gibbon-web-1", 1))
		Expect(err).NotTo(HaveOccurred())

		m, err := store.LoadCluster(ctx, "gibbon")
		Expect(err).NotTo(HaveOccurred())
		names := make([]string, 0, len(m.Members))
		for _, mem := range m.Members {
			names = append(names, mem.Name)
		}
		Expect(names).To(Equal([]string{"gibbon-web-0", "gibbon-web-1"}))
	})

	It("stops waiting when the run is cancelled", func() {
		for i := range 3 {
			prov.unreachable[fmt.Sprintf("gibbon-web-%d", i)] = true
		}
		opts.SSHTimeout = time.Minute
		time.AfterFunc(200*time.Millisecond, cancel)

		start := time.Now()
		res, err := run(server("gibbon-web-0", 0), server("gibbon-web-1", 1), server("gibbon-web-2", 2))
		Expect(time.Since(start)).To(BeNumerically("<", 3*time.Second))

		Expect(err).To(MatchError(context.Canceled))
		Expect(res.Verdict.Kind).To(Equal(cluster.Cancelled))
		Expect(res.Verdict.Failed).To(HaveLen(3))
	})

	It("does nothing when every server is already running", func() {
		s := server("gibbon-web-0", 0)
		s.Machine = &cluster.Machine{ID: 7, Name: s.Name(), Status: cluster.StatusRunning, PublicIP: "127.0.0.1"}

		res, err := run(s)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Verdict.Kind).To(Equal(cluster.NoOp))
		Expect(prov.requested).To(BeEmpty())

		entries, err := os.ReadDir(dir)
		Expect(err).NotTo(HaveOccurred())
		Expect(entries).To(BeEmpty())
	})
})
