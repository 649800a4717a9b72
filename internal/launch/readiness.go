package launch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/imamik/facetctl/internal/cluster"
	"github.com/imamik/facetctl/internal/util/netutil"
)

// DefaultPollInterval is the fixed delay between reachability attempts.
const DefaultPollInterval = 10 * time.Second

// Prober waits for a computer's SSH port to accept TCP connections.
type Prober struct {
	Interval    time.Duration
	DialTimeout time.Duration

	// check builds the reachability check; tests replace it.
	check func(host string, port int, dialTimeout time.Duration) netutil.Check
}

// NewProber returns a TCP prober. Zero values select the defaults.
func NewProber(interval, dialTimeout time.Duration) *Prober {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if dialTimeout <= 0 {
		dialTimeout = netutil.DefaultDialTimeout
	}
	return &Prober{Interval: interval, DialTimeout: dialTimeout, check: netutil.TCPCheck}
}

// WaitReady polls until the computer is reachable, timeout elapses or ctx is
// cancelled. A timeout yields a ReadinessTimeoutError, cancellation a
// CancellationError.
func (p *Prober) WaitReady(ctx context.Context, c *cluster.Computer, timeout time.Duration) error {
	if c.Address == "" {
		return fmt.Errorf("%s has no address to probe", c.Name)
	}
	port := netutil.DefaultSSHPort
	if c.Server != nil && c.Server.Spec.Cloud.SSHPort > 0 {
		port = c.Server.Spec.Cloud.SSHPort
	}

	attempts, err := netutil.Poll(ctx, p.Interval, timeout, p.check(c.Address, port, p.DialTimeout))
	recordReadinessAttempts(attempts)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, netutil.ErrTimeout):
		return &ReadinessTimeoutError{Node: c.Name, Address: c.Address, Timeout: timeout, Attempts: attempts, Err: err}
	case ctx.Err() != nil:
		return &CancellationError{Node: c.Name, Err: ctx.Err()}
	default:
		return err
	}
}
