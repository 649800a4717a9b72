// Package netutil provides network reachability checks and a fixed-interval
// poller used to wait for freshly provisioned servers.
package netutil

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"
)

const (
	// DefaultSSHPort is the management port probed on new servers.
	DefaultSSHPort = 22
	// DefaultDialTimeout bounds a single connection attempt.
	DefaultDialTimeout = 5 * time.Second
)

// ErrTimeout is returned by Poll when the timeout elapses before the check
// succeeds.
var ErrTimeout = errors.New("timed out")

// Check performs one reachability attempt. A nil error means ready.
type Check func(ctx context.Context) error

// TCPCheck returns a Check that opens and closes a TCP connection to
// host:port.
func TCPCheck(host string, port int, dialTimeout time.Duration) Check {
	address := net.JoinHostPort(host, strconv.Itoa(port))
	if dialTimeout <= 0 {
		dialTimeout = DefaultDialTimeout
	}
	return func(ctx context.Context) error {
		d := net.Dialer{Timeout: dialTimeout}
		conn, err := d.DialContext(ctx, "tcp", address)
		if err != nil {
			return err
		}
		_ = conn.Close()
		return nil
	}
}

// Poll runs check immediately and then once per interval until it succeeds,
// timeout elapses, or ctx is cancelled. It returns the number of attempts
// made. There is no backoff: every wait is exactly interval, except the last
// one which is cut to the deadline. A timeout of zero or less means no
// deadline beyond ctx.
func Poll(ctx context.Context, interval, timeout time.Duration, check Check) (int, error) {
	if interval <= 0 {
		return 0, fmt.Errorf("poll interval must be positive, got %v", interval)
	}

	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}

	attempts := 0
	for {
		if err := ctx.Err(); err != nil {
			return attempts, err
		}

		attempts++
		lastErr := check(ctx)
		if lastErr == nil {
			return attempts, nil
		}

		wait := interval
		if !deadline.IsZero() {
			remaining := time.Until(deadline)
			if remaining <= 0 {
				return attempts, fmt.Errorf("%w after %d attempts: %v", ErrTimeout, attempts, lastErr)
			}
			if remaining < wait {
				wait = remaining
			}
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return attempts, ctx.Err()
		case <-timer.C:
		}

		if wait < interval {
			return attempts, fmt.Errorf("%w after %d attempts: %v", ErrTimeout, attempts, lastErr)
		}
	}
}

// WaitForPort waits for a TCP port to be open on the target IP, checking
// every second until the port is accessible or the timeout is reached.
func WaitForPort(ctx context.Context, ip string, port int, timeout time.Duration) error {
	_, err := Poll(ctx, time.Second, timeout, TCPCheck(ip, port, 2*time.Second))
	return err
}
