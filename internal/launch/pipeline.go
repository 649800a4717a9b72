package launch

import (
	"context"
	"time"

	"github.com/imamik/facetctl/internal/cluster"
)

// Pipeline runs the post-launch steps of one node: wait for SSH, then
// bootstrap. Each step is optional; the first failure ends the pipeline.
type Pipeline struct {
	prober       ReadinessProber
	bootstrapper Bootstrapper
	waitReady    bool
	bootstrap    bool
	readyTimeout time.Duration
	observer     Observer
}

// Run executes the enabled steps for c.
func (p *Pipeline) Run(ctx context.Context, c *cluster.Computer) error {
	if p.waitReady {
		p.observer.Progress(c.Name, StageReadiness)
		start := time.Now()
		err := p.prober.WaitReady(ctx, c, p.readyTimeout)
		recordStage(StageReadiness, start, err)
		if err != nil {
			return err
		}
	}

	if p.bootstrap {
		p.observer.Progress(c.Name, StageBootstrap)
		start := time.Now()
		err := p.bootstrapper.Bootstrap(ctx, c)
		recordStage(StageBootstrap, start, err)
		if err != nil {
			if ctx.Err() != nil {
				return &CancellationError{Node: c.Name, Err: ctx.Err()}
			}
			return &BootstrapError{Node: c.Name, Err: err}
		}
	}
	return nil
}
