package launch

import (
	"fmt"
	"strings"
	"time"

	"github.com/imamik/facetctl/internal/cluster"
)

// ConfigurationError aborts a run before anything is provisioned.
type ConfigurationError struct {
	Msg string
	Err error
}

func (e *ConfigurationError) Error() string {
	if e.Err == nil {
		return e.Msg
	}
	return fmt.Sprintf("%s: %v", e.Msg, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// BogusServer is a server the gate refused to touch.
type BogusServer struct {
	Name   string
	Reason string
}

// BogusStateError aborts a run while bogus servers exist and force is off.
type BogusStateError struct {
	Servers []BogusServer
}

func (e *BogusStateError) Error() string {
	parts := make([]string, len(e.Servers))
	for i, s := range e.Servers {
		parts[i] = fmt.Sprintf("%s (%s)", s.Name, s.Reason)
	}
	return fmt.Sprintf("refusing to launch: %d bogus server(s): %s; use --force to launch the rest anyway",
		len(e.Servers), strings.Join(parts, ", "))
}

// ProvisioningError is a failed instance request for one node.
type ProvisioningError struct {
	Node string
	Err  error
}

func (e *ProvisioningError) Error() string {
	return fmt.Sprintf("provisioning %s failed: %v", e.Node, e.Err)
}

func (e *ProvisioningError) Unwrap() error { return e.Err }

// ReadinessTimeoutError means a node never became reachable.
type ReadinessTimeoutError struct {
	Node     string
	Address  string
	Timeout  time.Duration
	Attempts int
	Err      error
}

func (e *ReadinessTimeoutError) Error() string {
	return fmt.Sprintf("%s (%s) not reachable after %v (%d attempts): %v", e.Node, e.Address, e.Timeout, e.Attempts, e.Err)
}

func (e *ReadinessTimeoutError) Unwrap() error { return e.Err }

// BootstrapError is a failed bootstrap of one node.
type BootstrapError struct {
	Node string
	Err  error
}

func (e *BootstrapError) Error() string {
	return fmt.Sprintf("bootstrapping %s failed: %v", e.Node, e.Err)
}

func (e *BootstrapError) Unwrap() error { return e.Err }

// CancellationError reports a run, or one node of it, stopped by
// cancellation. It unwraps to the context error.
type CancellationError struct {
	Node string // empty for the whole run
	Err  error
}

func (e *CancellationError) Error() string {
	if e.Node == "" {
		return fmt.Sprintf("launch cancelled: %v", e.Err)
	}
	return fmt.Sprintf("launch of %s cancelled: %v", e.Node, e.Err)
}

func (e *CancellationError) Unwrap() error { return e.Err }

// PartialFailureError is returned when some nodes did not launch cleanly.
type PartialFailureError struct {
	Verdict  cluster.Verdict
	Outcomes map[string]cluster.NodeOutcome
}

func (e *PartialFailureError) Error() string {
	return fmt.Sprintf("%d of %d server(s) failed: %s",
		len(e.Verdict.Failed), len(e.Outcomes), strings.Join(e.Verdict.Failed, ", "))
}
