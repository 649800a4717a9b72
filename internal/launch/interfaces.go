package launch

import (
	"context"
	"time"

	"github.com/imamik/facetctl/internal/cluster"
)

// Provisioner requests one compute instance. It is called once per server
// per run and must return either a usable computer or an error.
type Provisioner interface {
	RequestInstance(ctx context.Context, s *cluster.Server) (*cluster.Computer, error)
}

// Registry records server definitions before they are launched.
type Registry interface {
	Save(ctx context.Context, servers []*cluster.Server) error
}

// Bootstrapper hands a running computer to configuration management.
type Bootstrapper interface {
	// Check verifies, without contacting any server, that every server can
	// be bootstrapped.
	Check(ctx context.Context, servers []*cluster.Server) error
	Bootstrap(ctx context.Context, c *cluster.Computer) error
}

// Aggregator recomputes cluster-wide state after a fully healthy launch.
type Aggregator interface {
	Aggregate(ctx context.Context, clusterName string, servers []*cluster.Server, computers []*cluster.Computer) error
}

// Preparer ensures resources shared by several servers exist.
type Preparer interface {
	Prepare(ctx context.Context, servers []*cluster.Server) error
}

// ReadinessProber waits until a computer accepts connections.
type ReadinessProber interface {
	WaitReady(ctx context.Context, c *cluster.Computer, timeout time.Duration) error
}
