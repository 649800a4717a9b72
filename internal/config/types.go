package config

// DefaultConfigFilename is the file looked up when no --config is given.
const DefaultConfigFilename = "facetctl.yaml"

// ProviderHCloud is the only supported cloud provider.
const ProviderHCloud = "hcloud"

// File is the root of a cluster definition file.
type File struct {
	Clusters  []Cluster        `yaml:"clusters"`
	Roles     RoleImplications `yaml:"roles,omitempty"`
	SSH       SSHConfig        `yaml:"ssh,omitempty"`
	Bootstrap BootstrapConfig  `yaml:"bootstrap,omitempty"`
	Registry  RegistryConfig   `yaml:"registry,omitempty"`
}

// Cluster returns the cluster definition with the given name.
func (f *File) Cluster(name string) (*Cluster, bool) {
	for i := range f.Clusters {
		if f.Clusters[i].Name == name {
			return &f.Clusters[i], true
		}
	}
	return nil, false
}

// Cluster is a named group of facets managed as a unit.
type Cluster struct {
	Name        string         `yaml:"name"`
	Environment string         `yaml:"environment,omitempty"`
	Cloud       CloudConfig    `yaml:"cloud,omitempty"`
	RunList     []string       `yaml:"run_list,omitempty"`
	Roles       []string       `yaml:"roles,omitempty"`
	Attributes  map[string]any `yaml:"attributes,omitempty"`
	Volumes     []Volume       `yaml:"volumes,omitempty"`
	PostLaunch  *bool          `yaml:"post_launch,omitempty"`
	Facets      []Facet        `yaml:"facets"`
}

// Facet returns the facet definition with the given name.
func (c *Cluster) Facet(name string) (*Facet, bool) {
	for i := range c.Facets {
		if c.Facets[i].Name == name {
			return &c.Facets[i], true
		}
	}
	return nil, false
}

// Facet is a role group of identical servers within a cluster.
type Facet struct {
	Name       string                 `yaml:"name"`
	Instances  int                    `yaml:"instances"`
	Cloud      CloudConfig            `yaml:"cloud,omitempty"`
	RunList    []string               `yaml:"run_list,omitempty"`
	Roles      []string               `yaml:"roles,omitempty"`
	Attributes map[string]any         `yaml:"attributes,omitempty"`
	Volumes    []Volume               `yaml:"volumes,omitempty"`
	PostLaunch *bool                  `yaml:"post_launch,omitempty"`
	Servers    map[int]ServerOverride `yaml:"servers,omitempty"`
}

// ServerOverride adjusts a single index of a facet.
type ServerOverride struct {
	Cloud      CloudConfig    `yaml:"cloud,omitempty"`
	RunList    []string       `yaml:"run_list,omitempty"`
	Attributes map[string]any `yaml:"attributes,omitempty"`
	PostLaunch *bool          `yaml:"post_launch,omitempty"`
}

// CloudConfig describes where and how a server is created. Empty fields
// inherit from the enclosing level.
type CloudConfig struct {
	Provider       string            `yaml:"provider,omitempty"`
	ServerType     string            `yaml:"server_type,omitempty"`
	Location       string            `yaml:"location,omitempty"`
	Image          string            `yaml:"image,omitempty"`
	SSHKey         string            `yaml:"ssh_key,omitempty"`
	UserData       string            `yaml:"user_data,omitempty"`
	PlacementGroup *bool             `yaml:"placement_group,omitempty"`
	Labels         map[string]string `yaml:"labels,omitempty"`
}

// Merge returns c overlaid with the non-empty fields of o.
func (c CloudConfig) Merge(o CloudConfig) CloudConfig {
	out := c
	if o.Provider != "" {
		out.Provider = o.Provider
	}
	if o.ServerType != "" {
		out.ServerType = o.ServerType
	}
	if o.Location != "" {
		out.Location = o.Location
	}
	if o.Image != "" {
		out.Image = o.Image
	}
	if o.SSHKey != "" {
		out.SSHKey = o.SSHKey
	}
	if o.UserData != "" {
		out.UserData = o.UserData
	}
	if o.PlacementGroup != nil {
		out.PlacementGroup = o.PlacementGroup
	}
	if len(o.Labels) > 0 {
		merged := make(map[string]string, len(c.Labels)+len(o.Labels))
		for k, v := range c.Labels {
			merged[k] = v
		}
		for k, v := range o.Labels {
			merged[k] = v
		}
		out.Labels = merged
	}
	return out
}

// Volume is a block device a server expects.
type Volume struct {
	Name       string `yaml:"name"`
	SizeGB     int    `yaml:"size_gb,omitempty"`
	Device     string `yaml:"device,omitempty"`
	MountPoint string `yaml:"mount_point,omitempty"`
	Format     string `yaml:"format,omitempty"`
}

// SSHConfig controls how new servers are reached.
type SSHConfig struct {
	User           string `yaml:"user,omitempty"`
	Port           int    `yaml:"port,omitempty"`
	PrivateKeyPath string `yaml:"private_key,omitempty"`
}

// BootstrapConfig controls the configuration client started on new servers.
type BootstrapConfig struct {
	// Command is rendered as a Go template per server and run over SSH.
	Command string `yaml:"command,omitempty"`
	// ManifestPath is where the node manifest is written on the server.
	ManifestPath string `yaml:"manifest_path,omitempty"`
	Sudo         bool   `yaml:"sudo,omitempty"`
}

// Registry backends.
const (
	RegistryFile = "file"
	RegistryS3   = "s3"
)

// RegistryConfig selects where node and cluster manifests are stored.
type RegistryConfig struct {
	Backend string `yaml:"backend,omitempty"`
	Path    string `yaml:"path,omitempty"`
	Bucket  string `yaml:"bucket,omitempty"`
	Prefix  string `yaml:"prefix,omitempty"`
}
