package launch

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/imamik/facetctl/internal/cluster"
	"github.com/imamik/facetctl/internal/util/async"
)

// DefaultCancelGrace is how long Launch waits for in-flight units once the
// run is cancelled.
const DefaultCancelGrace = 5 * time.Second

// postLauncher runs the post-launch steps of one node.
type postLauncher interface {
	Run(ctx context.Context, c *cluster.Computer) error
}

// Coordinator launches servers concurrently. Every server yields exactly
// one outcome; a failing server never stops its siblings.
type Coordinator struct {
	provisioner Provisioner
	pipeline    postLauncher
	concurrency int
	grace       time.Duration
	observer    Observer
}

// collector gathers outcomes. The first outcome recorded for a name wins.
type collector struct {
	mu       sync.Mutex
	outcomes map[string]cluster.NodeOutcome
}

func newCollector(n int) *collector {
	return &collector{outcomes: make(map[string]cluster.NodeOutcome, n)}
}

func (c *collector) record(o cluster.NodeOutcome) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.outcomes[o.Name]; ok {
		return false
	}
	c.outcomes[o.Name] = o
	return true
}

func (c *collector) snapshot() map[string]cluster.NodeOutcome {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]cluster.NodeOutcome, len(c.outcomes))
	for k, v := range c.outcomes {
		out[k] = v
	}
	return out
}

// Launch provisions every target and runs its post-launch pipeline when the
// server asks for one. It returns once every unit has finished or, after
// cancellation, once the grace period has passed; units still running then
// are reported as cancelled.
func (co *Coordinator) Launch(ctx context.Context, targets []*cluster.Server) map[string]cluster.NodeOutcome {
	col := newCollector(len(targets))

	tasks := make([]async.Task, 0, len(targets))
	for _, s := range targets {
		tasks = append(tasks, async.Task{
			Name: s.Name(),
			Func: func(ctx context.Context) error {
				o := co.launchOne(ctx, s)
				if col.record(o) {
					co.observer.Outcome(o)
				}
				return nil
			},
		})
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		async.RunAll(ctx, tasks, co.concurrency)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		grace := co.grace
		if grace <= 0 {
			grace = DefaultCancelGrace
		}
		timer := time.NewTimer(grace)
		select {
		case <-done:
		case <-timer.C:
		}
		timer.Stop()
	}

	if err := ctx.Err(); err != nil {
		for _, s := range targets {
			o := cluster.LaunchFailedOutcome(s.Name(), &CancellationError{Node: s.Name(), Err: err})
			if col.record(o) {
				co.observer.Outcome(o)
			}
		}
	}
	return col.snapshot()
}

func (co *Coordinator) launchOne(ctx context.Context, s *cluster.Server) cluster.NodeOutcome {
	name := s.Name()
	if err := ctx.Err(); err != nil {
		return cluster.LaunchFailedOutcome(name, &CancellationError{Node: name, Err: err})
	}

	co.observer.Progress(name, StageProvision)
	start := time.Now()
	c, err := co.provisioner.RequestInstance(ctx, s)
	if err == nil && c == nil {
		err = errors.New("provider returned no computer")
	}
	recordStage(StageProvision, start, err)
	if err != nil {
		if ctx.Err() != nil {
			return cluster.LaunchFailedOutcome(name, &CancellationError{Node: name, Err: ctx.Err()})
		}
		return cluster.LaunchFailedOutcome(name, &ProvisioningError{Node: name, Err: err})
	}
	if c.Server == nil {
		c.Server = s
	}
	if c.Name == "" {
		c.Name = name
	}

	if !s.Spec.Launch.PostLaunchTasks || co.pipeline == nil {
		return cluster.LaunchedOutcome(c)
	}
	if err := co.pipeline.Run(ctx, c); err != nil {
		return cluster.PostLaunchFailedOutcome(c, err)
	}
	return cluster.LaunchedOutcome(c)
}
