package hcloud

import (
	"context"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"
)

// MockClient is a mock implementation of InfrastructureManager. Unset
// function fields return zero values without error.
type MockClient struct {
	CreateServerFunc      func(ctx context.Context, opts ServerCreateOpts) (*hcloud.Server, error)
	GetServerByNameFunc   func(ctx context.Context, name string) (*hcloud.Server, error)
	GetServersByLabelFunc func(ctx context.Context, labels map[string]string) ([]*hcloud.Server, error)
	GetServerIPFunc       func(ctx context.Context, name string) (string, error)
	PowerOnServerFunc     func(ctx context.Context, id int64) error

	EnsureSSHKeyFunc func(ctx context.Context, name, publicKey string, labels map[string]string) (*hcloud.SSHKey, error)

	// Firewall
	EnsureFirewallFunc func(ctx context.Context, name string, rules []hcloud.FirewallRule, labels map[string]string) (*hcloud.Firewall, error)
	GetFirewallFunc    func(ctx context.Context, name string) (*hcloud.Firewall, error)

	// PlacementGroup
	EnsurePlacementGroupFunc func(ctx context.Context, name, pgType string, labels map[string]string) (*hcloud.PlacementGroup, error)
	GetPlacementGroupFunc    func(ctx context.Context, name string) (*hcloud.PlacementGroup, error)
}

// Ensure interface compliance
var _ InfrastructureManager = (*MockClient)(nil)

// CreateServer mocks server creation.
func (m *MockClient) CreateServer(ctx context.Context, opts ServerCreateOpts) (*hcloud.Server, error) {
	if m.CreateServerFunc != nil {
		return m.CreateServerFunc(ctx, opts)
	}
	return &hcloud.Server{ID: 1, Name: opts.Name, Status: hcloud.ServerStatusRunning}, nil
}

// GetServerByName mocks server lookup.
func (m *MockClient) GetServerByName(ctx context.Context, name string) (*hcloud.Server, error) {
	if m.GetServerByNameFunc != nil {
		return m.GetServerByNameFunc(ctx, name)
	}
	return nil, nil
}

// GetServersByLabel mocks server listing.
func (m *MockClient) GetServersByLabel(ctx context.Context, labels map[string]string) ([]*hcloud.Server, error) {
	if m.GetServersByLabelFunc != nil {
		return m.GetServersByLabelFunc(ctx, labels)
	}
	return nil, nil
}

// GetServerIP mocks IP lookup.
func (m *MockClient) GetServerIP(ctx context.Context, name string) (string, error) {
	if m.GetServerIPFunc != nil {
		return m.GetServerIPFunc(ctx, name)
	}
	return "127.0.0.1", nil
}

// PowerOnServer mocks power on.
func (m *MockClient) PowerOnServer(ctx context.Context, id int64) error {
	if m.PowerOnServerFunc != nil {
		return m.PowerOnServerFunc(ctx, id)
	}
	return nil
}

// EnsureSSHKey mocks SSH key upload.
func (m *MockClient) EnsureSSHKey(ctx context.Context, name, publicKey string, labels map[string]string) (*hcloud.SSHKey, error) {
	if m.EnsureSSHKeyFunc != nil {
		return m.EnsureSSHKeyFunc(ctx, name, publicKey, labels)
	}
	return &hcloud.SSHKey{ID: 1, Name: name, PublicKey: publicKey}, nil
}

// EnsureFirewall mocks firewall ensure.
func (m *MockClient) EnsureFirewall(ctx context.Context, name string, rules []hcloud.FirewallRule, labels map[string]string) (*hcloud.Firewall, error) {
	if m.EnsureFirewallFunc != nil {
		return m.EnsureFirewallFunc(ctx, name, rules, labels)
	}
	return &hcloud.Firewall{ID: 1, Name: name, Rules: rules}, nil
}

// GetFirewall mocks firewall lookup.
func (m *MockClient) GetFirewall(ctx context.Context, name string) (*hcloud.Firewall, error) {
	if m.GetFirewallFunc != nil {
		return m.GetFirewallFunc(ctx, name)
	}
	return nil, nil
}

// EnsurePlacementGroup mocks placement group ensure.
func (m *MockClient) EnsurePlacementGroup(ctx context.Context, name, pgType string, labels map[string]string) (*hcloud.PlacementGroup, error) {
	if m.EnsurePlacementGroupFunc != nil {
		return m.EnsurePlacementGroupFunc(ctx, name, pgType, labels)
	}
	return &hcloud.PlacementGroup{ID: 1, Name: name, Type: hcloud.PlacementGroupType(pgType)}, nil
}

// GetPlacementGroup mocks placement group lookup.
func (m *MockClient) GetPlacementGroup(ctx context.Context, name string) (*hcloud.PlacementGroup, error) {
	if m.GetPlacementGroupFunc != nil {
		return m.GetPlacementGroupFunc(ctx, name)
	}
	return nil, nil
}
