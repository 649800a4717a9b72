package hcloud

import (
	"context"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"
)

// ServerCreateOpts holds all parameters for creating an HCloud server.
// Dependencies are referenced by name and resolved before the create call.
type ServerCreateOpts struct {
	Name           string
	Image          string
	ServerType     string
	Location       string
	SSHKeys        []string
	Firewalls      []string
	PlacementGroup string
	Labels         map[string]string
	UserData       string
}

// ServerProvisioner defines the interface for provisioning servers.
type ServerProvisioner interface {
	CreateServer(ctx context.Context, opts ServerCreateOpts) (*hcloud.Server, error)
	// GetServerByName returns the full server object by name, or nil if not found.
	GetServerByName(ctx context.Context, name string) (*hcloud.Server, error)
	GetServersByLabel(ctx context.Context, labels map[string]string) ([]*hcloud.Server, error)
	// GetServerIP waits until the server has a public IPv4 address and returns it.
	GetServerIP(ctx context.Context, name string) (string, error)
	PowerOnServer(ctx context.Context, id int64) error
}

// SSHKeyManager defines the interface for managing SSH keys.
type SSHKeyManager interface {
	EnsureSSHKey(ctx context.Context, name, publicKey string, labels map[string]string) (*hcloud.SSHKey, error)
}

// FirewallManager defines the interface for managing firewalls.
type FirewallManager interface {
	EnsureFirewall(ctx context.Context, name string, rules []hcloud.FirewallRule, labels map[string]string) (*hcloud.Firewall, error)
	GetFirewall(ctx context.Context, name string) (*hcloud.Firewall, error)
}

// PlacementGroupManager defines the interface for managing placement groups.
type PlacementGroupManager interface {
	EnsurePlacementGroup(ctx context.Context, name, pgType string, labels map[string]string) (*hcloud.PlacementGroup, error)
	GetPlacementGroup(ctx context.Context, name string) (*hcloud.PlacementGroup, error)
}

// InfrastructureManager combines all infrastructure interfaces.
type InfrastructureManager interface {
	ServerProvisioner
	SSHKeyManager
	FirewallManager
	PlacementGroupManager
}
