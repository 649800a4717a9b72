package bootstrap

import (
	"context"

	"github.com/imamik/facetctl/internal/cluster"
)

// DryRun checks like SSH but never connects to a server.
type DryRun struct {
	*SSH
}

// NewDryRun wraps s.
func NewDryRun(s *SSH) *DryRun {
	return &DryRun{SSH: s}
}

// Bootstrap logs the command that would run.
func (d *DryRun) Bootstrap(ctx context.Context, c *cluster.Computer) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.Server == nil {
		d.log.Info("would bootstrap", "server", c.Name)
		return nil
	}
	if err := d.load(); err != nil {
		return err
	}
	command, err := d.render(c.Server.Spec, c.Address)
	if err != nil {
		return err
	}
	d.log.Info("would bootstrap", "server", c.Name, "command", command)
	return nil
}
