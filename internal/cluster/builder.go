package cluster

import (
	"fmt"

	"github.com/imamik/facetctl/internal/config"
	"github.com/imamik/facetctl/internal/util/labels"
	"github.com/imamik/facetctl/internal/util/naming"
)

// Builder expands a target into server specs.
type Builder struct {
	file  *config.File
	roles config.RoleImplications
}

// NewBuilder creates a builder over a loaded definition. The role table is
// passed explicitly; f.Roles is used when roles is nil.
func NewBuilder(f *config.File, roles config.RoleImplications) *Builder {
	if roles == nil {
		roles = f.Roles
	}
	return &Builder{file: f, roles: roles}
}

// Build returns the specs selected by t in facet order, then index order.
func (b *Builder) Build(t Target) ([]ServerSpec, error) {
	c, ok := b.file.Cluster(t.Cluster)
	if !ok {
		return nil, fmt.Errorf("cluster %q is not defined", t.Cluster)
	}

	facets := c.Facets
	if t.Facet != "" {
		f, ok := c.Facet(t.Facet)
		if !ok {
			return nil, fmt.Errorf("facet %q is not defined in cluster %q", t.Facet, c.Name)
		}
		facets = []config.Facet{*f}
	}

	var specs []ServerSpec
	for i := range facets {
		f := &facets[i]
		for _, idx := range t.Indexes {
			if idx >= f.Instances {
				return nil, fmt.Errorf("index %d is out of range for facet %s (instances: %d)", idx, f.Name, f.Instances)
			}
		}
		for idx := 0; idx < f.Instances; idx++ {
			if t.Includes(f.Name, idx) {
				specs = append(specs, b.spec(c, f, idx))
			}
		}
	}
	return specs, nil
}

func (b *Builder) spec(c *config.Cluster, f *config.Facet, idx int) ServerSpec {
	o := f.Servers[idx]
	cloud := c.Cloud.Merge(f.Cloud).Merge(o.Cloud)
	roles := dedupe(append(append([]string{}, c.Roles...), f.Roles...))

	var runList []string
	runList = append(runList, c.RunList...)
	runList = append(runList, roleEntries(c.Roles)...)
	runList = append(runList, f.RunList...)
	runList = append(runList, roleEntries(f.Roles)...)
	runList = append(runList, o.RunList...)
	runList = append(runList,
		roleEntry(naming.ClusterRole(c.Name)),
		roleEntry(naming.FacetRole(c.Name, f.Name)),
	)

	var firewalls []Firewall
	for _, role := range b.roles.Implied(roles) {
		firewalls = append(firewalls, Firewall{
			Name:  naming.Firewall(c.Name, role),
			Role:  role,
			Rules: append([]config.FirewallRule(nil), b.roles[role].Firewall...),
		})
	}

	var placementGroup string
	if cloud.PlacementGroup == nil || *cloud.PlacementGroup {
		placementGroup = naming.PlacementGroup(c.Name, f.Name)
	}

	sshKey := cloud.SSHKey
	if sshKey == "" {
		sshKey = naming.SSHKey(c.Name)
	}

	return ServerSpec{
		Cluster:     c.Name,
		Facet:       f.Name,
		Index:       idx,
		Name:        naming.Server(c.Name, f.Name, idx),
		Environment: c.Environment,
		Roles:       roles,
		RunList:     dedupe(runList),
		Attributes:  mergeAttributes(c.Attributes, f.Attributes, o.Attributes),
		Volumes:     mergeVolumes(c.Volumes, f.Volumes),
		Cloud: CloudSpec{
			Provider:       cloud.Provider,
			ServerType:     cloud.ServerType,
			Location:       cloud.Location,
			Image:          cloud.Image,
			SSHKey:         sshKey,
			SSHUser:        b.file.SSH.User,
			SSHPort:        b.file.SSH.Port,
			Firewalls:      firewalls,
			PlacementGroup: placementGroup,
			UserData:       cloud.UserData,
			Labels: labels.NewLabelBuilder(c.Name).
				WithFacet(f.Name).
				WithIndex(idx).
				WithEnvironment(c.Environment).
				Merge(cloud.Labels).
				Build(),
		},
		Launch: LaunchConfig{PostLaunchTasks: firstBool(true, o.PostLaunch, f.PostLaunch, c.PostLaunch)},
	}
}

func roleEntry(role string) string { return "role[" + role + "]" }

func roleEntries(roles []string) []string {
	out := make([]string, len(roles))
	for i, r := range roles {
		out[i] = roleEntry(r)
	}
	return out
}

// dedupe keeps the first occurrence of each entry.
func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

// firstBool returns the first non-nil value, most specific first.
func firstBool(def bool, vals ...*bool) bool {
	for _, v := range vals {
		if v != nil {
			return *v
		}
	}
	return def
}

// mergeAttributes deep-merges attribute maps; later layers win.
func mergeAttributes(layers ...map[string]any) map[string]any {
	out := make(map[string]any)
	for _, layer := range layers {
		deepMerge(out, layer)
	}
	return out
}

func deepMerge(dst, src map[string]any) {
	for k, v := range src {
		srcMap, srcIsMap := v.(map[string]any)
		dstMap, dstIsMap := dst[k].(map[string]any)
		switch {
		case srcIsMap && dstIsMap:
			deepMerge(dstMap, srcMap)
		case srcIsMap:
			cp := make(map[string]any, len(srcMap))
			deepMerge(cp, srcMap)
			dst[k] = cp
		default:
			dst[k] = v
		}
	}
}

// mergeVolumes overlays facet volumes on cluster volumes by name.
func mergeVolumes(cluster, facet []config.Volume) []config.Volume {
	out := append([]config.Volume(nil), cluster...)
	for _, v := range facet {
		replaced := false
		for i := range out {
			if out[i].Name == v.Name {
				out[i] = v
				replaced = true
				break
			}
		}
		if !replaced {
			out = append(out, v)
		}
	}
	return out
}
