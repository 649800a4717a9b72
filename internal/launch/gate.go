package launch

import (
	"github.com/imamik/facetctl/internal/cluster"
)

// Classification partitions servers. Every server lands in exactly one
// slice; order within a slice follows the input.
type Classification struct {
	Launchable []*cluster.Server
	Running    []*cluster.Server
	Bogus      []*cluster.Server
}

// Classify partitions servers into launchable, running and bogus.
func Classify(servers []*cluster.Server) Classification {
	var c Classification
	for _, s := range servers {
		switch {
		case s.BogusReason() != "":
			c.Bogus = append(c.Bogus, s)
		case s.Running():
			c.Running = append(c.Running, s)
		default:
			c.Launchable = append(c.Launchable, s)
		}
	}
	return c
}

// Gate enforces the bogus policy: with bogus servers present and force off
// it returns a BogusStateError. Bogus servers are never launchable, forced
// or not.
func (c Classification) Gate(force bool) error {
	if len(c.Bogus) == 0 || force {
		return nil
	}
	err := &BogusStateError{}
	for _, s := range c.Bogus {
		err.Servers = append(err.Servers, BogusServer{Name: s.Name(), Reason: s.BogusReason()})
	}
	return err
}
