package provider

import (
	"context"

	"github.com/go-logr/logr"

	"github.com/imamik/facetctl/internal/cluster"
)

// DryRun pretends to provision. It never talks to a cloud API.
type DryRun struct {
	log logr.Logger
}

// NewDryRun returns a dry-run provider.
func NewDryRun(log logr.Logger) *DryRun {
	return &DryRun{log: log.WithName("dry-run")}
}

// Prepare logs the shared resources that would be ensured.
func (d *DryRun) Prepare(_ context.Context, servers []*cluster.Server) error {
	for _, r := range SharedResources(servers) {
		d.log.Info("would ensure", "resource", r)
	}
	return nil
}

// RequestInstance returns a mock computer. A machine that already exists
// keeps its identity and address.
func (d *DryRun) RequestInstance(ctx context.Context, s *cluster.Server) (*cluster.Computer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c := &cluster.Computer{Server: s, Name: s.Name()}
	if s.Machine != nil {
		c.ID = s.Machine.ID
		c.Address = s.Machine.PublicIP
		d.log.Info("would power on server", "server", s.Name())
		return c, nil
	}
	d.log.Info("would create server", "server", s.Name(), "type", s.Spec.Cloud.ServerType, "location", s.Spec.Cloud.Location)
	return c, nil
}
