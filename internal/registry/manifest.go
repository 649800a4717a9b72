package registry

import (
	"sort"
	"time"

	"github.com/imamik/facetctl/internal/cluster"
	"github.com/imamik/facetctl/internal/config"
)

// NodeManifest is the registry record of one server.
type NodeManifest struct {
	Name        string          `yaml:"name"`
	Cluster     string          `yaml:"cluster"`
	Facet       string          `yaml:"facet"`
	Index       int             `yaml:"index"`
	Environment string          `yaml:"environment,omitempty"`
	RunList     []string        `yaml:"run_list"`
	Attributes  map[string]any  `yaml:"attributes,omitempty"`
	Volumes     []config.Volume `yaml:"volumes,omitempty"`
	Cloud       CloudManifest   `yaml:"cloud"`
}

// CloudManifest is the provider part of a NodeManifest.
type CloudManifest struct {
	Provider       string   `yaml:"provider"`
	ServerType     string   `yaml:"server_type"`
	Location       string   `yaml:"location"`
	Image          string   `yaml:"image"`
	SSHKey         string   `yaml:"ssh_key,omitempty"`
	Firewalls      []string `yaml:"firewalls,omitempty"`
	PlacementGroup string   `yaml:"placement_group,omitempty"`
}

// ClusterManifest is the cluster-wide record recomputed after a healthy
// launch.
type ClusterManifest struct {
	Name        string    `yaml:"name"`
	Environment string    `yaml:"environment,omitempty"`
	UpdatedAt   time.Time `yaml:"updated_at"`
	Members     []Member  `yaml:"members"`
}

// Member is one server of a ClusterManifest.
type Member struct {
	Name    string `yaml:"name"`
	Facet   string `yaml:"facet"`
	Index   int    `yaml:"index"`
	ID      int64  `yaml:"id,omitempty"`
	Address string `yaml:"address,omitempty"`
	State   string `yaml:"state"`
}

// NewNodeManifest builds the manifest of a server spec.
func NewNodeManifest(spec cluster.ServerSpec) NodeManifest {
	m := NodeManifest{
		Name:        spec.Name,
		Cluster:     spec.Cluster,
		Facet:       spec.Facet,
		Index:       spec.Index,
		Environment: spec.Environment,
		RunList:     spec.RunList,
		Attributes:  spec.Attributes,
		Volumes:     spec.Volumes,
		Cloud: CloudManifest{
			Provider:       spec.Cloud.Provider,
			ServerType:     spec.Cloud.ServerType,
			Location:       spec.Cloud.Location,
			Image:          spec.Cloud.Image,
			SSHKey:         spec.Cloud.SSHKey,
			PlacementGroup: spec.Cloud.PlacementGroup,
		},
	}
	for _, fw := range spec.Cloud.Firewalls {
		m.Cloud.Firewalls = append(m.Cloud.Firewalls, fw.Name)
	}
	return m
}

// mergeMembers returns prev updated with the servers and computers of this
// run. Members of prev that this run does not mention are kept. The result
// is sorted by facet, then index.
func mergeMembers(prev []Member, servers []*cluster.Server, computers []*cluster.Computer) []Member {
	byName := make(map[string]Member, len(prev)+len(servers))
	for _, m := range prev {
		byName[m.Name] = m
	}
	for _, s := range servers {
		m := Member{Name: s.Name(), Facet: s.Spec.Facet, Index: s.Spec.Index, State: s.State()}
		if s.Machine != nil {
			m.ID = s.Machine.ID
			m.Address = s.Machine.PublicIP
		}
		byName[m.Name] = m
	}
	for _, c := range computers {
		m := byName[c.Name]
		m.Name = c.Name
		if c.Server != nil {
			m.Facet = c.Server.Spec.Facet
			m.Index = c.Server.Spec.Index
		}
		m.ID = c.ID
		m.Address = c.Address
		m.State = string(cluster.StatusRunning)
		byName[m.Name] = m
	}

	out := make([]Member, 0, len(byName))
	for _, m := range byName {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Facet != out[j].Facet {
			return out[i].Facet < out[j].Facet
		}
		if out[i].Index != out[j].Index {
			return out[i].Index < out[j].Index
		}
		return out[i].Name < out[j].Name
	})
	return out
}
