package config

const (
	defaultSSHUser          = "root"
	defaultSSHPort          = 22
	defaultPrivateKeyPath   = "~/.ssh/id_ed25519"
	defaultManifestPath     = "/etc/facetctl/node.json"
	defaultRegistryPath     = ".facetctl/registry"
	defaultBootstrapCommand = "chef-client --json-attributes {{ .ManifestPath }}{{ if .Environment }} --environment {{ .Environment }}{{ end }}"
)

// ApplyDefaults fills unset settings.
func (f *File) ApplyDefaults() {
	if f.SSH.User == "" {
		f.SSH.User = defaultSSHUser
	}
	if f.SSH.Port == 0 {
		f.SSH.Port = defaultSSHPort
	}
	if f.SSH.PrivateKeyPath == "" {
		f.SSH.PrivateKeyPath = defaultPrivateKeyPath
	}
	if f.Bootstrap.Command == "" {
		f.Bootstrap.Command = defaultBootstrapCommand
	}
	if f.Bootstrap.ManifestPath == "" {
		f.Bootstrap.ManifestPath = defaultManifestPath
	}
	if f.Registry.Backend == "" {
		f.Registry.Backend = RegistryFile
	}
	if f.Registry.Backend == RegistryFile && f.Registry.Path == "" {
		f.Registry.Path = defaultRegistryPath
	}
	f.Roles = DefaultRoleImplications().Merge(f.Roles)

	for i := range f.Clusters {
		if f.Clusters[i].Cloud.Provider == "" {
			f.Clusters[i].Cloud.Provider = ProviderHCloud
		}
	}
}
