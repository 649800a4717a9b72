package cluster

import (
	"context"
	"fmt"
	"sort"

	"github.com/imamik/facetctl/internal/util/labels"
)

// MachineLister returns every machine the provider holds for a cluster.
type MachineLister interface {
	ListMachines(ctx context.Context, cluster string) ([]Machine, error)
}

// Resolver builds specs and pairs them with observed machines.
type Resolver struct {
	builder *Builder
	lister  MachineLister
}

// NewResolver creates a resolver. A nil lister skips the provider lookup and
// every server is reported without a machine.
func NewResolver(b *Builder, lister MachineLister) *Resolver {
	return &Resolver{builder: b, lister: lister}
}

// Resolve returns the servers selected by t: defined servers first in build
// order, then machines that carry the cluster's labels but match no
// definition, sorted by name.
func (r *Resolver) Resolve(ctx context.Context, t Target) ([]*Server, error) {
	specs, err := r.builder.Build(t)
	if err != nil {
		return nil, err
	}

	var machines []Machine
	if r.lister != nil {
		machines, err = r.lister.ListMachines(ctx, t.Cluster)
		if err != nil {
			return nil, fmt.Errorf("failed to list machines for cluster %s: %w", t.Cluster, err)
		}
	}
	return Pair(t, specs, machines), nil
}

// Pair matches machines to specs by name.
func Pair(t Target, specs []ServerSpec, machines []Machine) []*Server {
	byName := make(map[string][]Machine)
	for _, m := range machines {
		byName[m.Name] = append(byName[m.Name], m)
	}

	defined := make(map[string]bool, len(specs))
	servers := make([]*Server, 0, len(specs))
	for _, spec := range specs {
		defined[spec.Name] = true
		s := &Server{Spec: spec}
		found := byName[spec.Name]
		if len(found) > 0 {
			m := found[0]
			s.Machine = &m
		}
		switch {
		case len(found) > 1:
			s.Bogosity = fmt.Sprintf("%d machines share this name", len(found))
		case len(found) == 1 && !identityMatches(spec, found[0]):
			s.Bogosity = "machine labels disagree with definition"
		}
		servers = append(servers, s)
	}

	var orphans []*Server
	for name, found := range byName {
		if defined[name] {
			continue
		}
		id, err := labels.ParseIdentity(found[0].Labels)
		if err != nil || id.Cluster != t.Cluster || !t.Includes(id.Facet, id.Index) {
			continue
		}
		m := found[0]
		orphans = append(orphans, &Server{
			Spec:     ServerSpec{Cluster: id.Cluster, Facet: id.Facet, Index: id.Index, Name: name},
			Machine:  &m,
			Bogosity: "machine exists but is not defined",
		})
	}
	sort.Slice(orphans, func(i, j int) bool { return orphans[i].Name() < orphans[j].Name() })

	return append(servers, orphans...)
}

func identityMatches(spec ServerSpec, m Machine) bool {
	id, err := labels.ParseIdentity(m.Labels)
	if err != nil {
		return false
	}
	return id.Cluster == spec.Cluster && id.Facet == spec.Facet && id.Index == spec.Index
}
