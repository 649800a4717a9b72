package provider

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/go-logr/logr"
	hcloudgo "github.com/hetznercloud/hcloud-go/v2/hcloud"

	"github.com/imamik/facetctl/internal/cluster"
	"github.com/imamik/facetctl/internal/platform/hcloud"
	"github.com/imamik/facetctl/internal/util/async"
	"github.com/imamik/facetctl/internal/util/keygen"
	"github.com/imamik/facetctl/internal/util/labels"
)

// PlacementGroupType is the only placement group type Hetzner offers.
const PlacementGroupType = "spread"

// HCloud provisions servers on Hetzner Cloud.
type HCloud struct {
	client  hcloud.InfrastructureManager
	keyPath string
	log     logr.Logger

	keyOnce sync.Once
	pubKey  string
	keyErr  error
}

// NewHCloud returns a provider backed by client. privateKeyPath points at
// the operator's private key; its public half is uploaded as the cluster's
// SSH key.
func NewHCloud(client hcloud.InfrastructureManager, privateKeyPath string, log logr.Logger) *HCloud {
	return &HCloud{client: client, keyPath: privateKeyPath, log: log.WithName("hcloud")}
}

// ListMachines returns every server labelled as part of clusterName.
func (p *HCloud) ListMachines(ctx context.Context, clusterName string) ([]cluster.Machine, error) {
	servers, err := p.client.GetServersByLabel(ctx, map[string]string{
		labels.KeyCluster:   clusterName,
		labels.KeyManagedBy: labels.ManagedByFacetctl,
	})
	if err != nil {
		return nil, err
	}

	machines := make([]cluster.Machine, 0, len(servers))
	for _, s := range servers {
		machines = append(machines, machineFromServer(s))
	}
	return machines, nil
}

func machineFromServer(s *hcloudgo.Server) cluster.Machine {
	return cluster.Machine{
		ID:       s.ID,
		Name:     s.Name,
		Status:   cluster.MachineStatus(s.Status),
		PublicIP: hcloud.ServerIPv4(s),
		Labels:   s.Labels,
	}
}

// Prepare ensures the SSH keys, firewalls and placement groups the servers
// reference exist. Each distinct resource is ensured once, concurrently.
func (p *HCloud) Prepare(ctx context.Context, servers []*cluster.Server) error {
	var tasks []async.Task
	seen := make(map[string]bool)
	add := func(key string, task async.Task) {
		if seen[key] {
			return
		}
		seen[key] = true
		tasks = append(tasks, task)
	}

	for _, s := range servers {
		spec := s.Spec
		if spec.Cloud.SSHKey != "" {
			name, clusterName := spec.Cloud.SSHKey, spec.Cluster
			add("ssh-key/"+name, async.Task{
				Name: "ssh key " + name,
				Func: func(ctx context.Context) error { return p.ensureSSHKey(ctx, name, clusterName) },
			})
		}
		for _, fw := range spec.Cloud.Firewalls {
			clusterName := spec.Cluster
			add("firewall/"+fw.Name, async.Task{
				Name: "firewall " + fw.Name,
				Func: func(ctx context.Context) error { return p.ensureFirewall(ctx, clusterName, fw) },
			})
		}
		if spec.Cloud.PlacementGroup != "" {
			name := spec.Cloud.PlacementGroup
			pgLabels := labels.NewLabelBuilder(spec.Cluster).WithFacet(spec.Facet).Build()
			add("placement-group/"+name, async.Task{
				Name: "placement group " + name,
				Func: func(ctx context.Context) error {
					_, err := p.client.EnsurePlacementGroup(ctx, name, PlacementGroupType, pgLabels)
					return err
				},
			})
		}
	}

	if len(tasks) == 0 {
		return nil
	}
	p.log.V(1).Info("ensuring shared resources", "count", len(tasks))
	if err := async.RunParallel(ctx, tasks, 0); err != nil {
		return fmt.Errorf("failed to prepare shared resources: %w", err)
	}
	return nil
}

func (p *HCloud) ensureSSHKey(ctx context.Context, name, clusterName string) error {
	pub, err := p.publicKey()
	if err != nil {
		return err
	}
	_, err = p.client.EnsureSSHKey(ctx, name, pub, labels.NewLabelBuilder(clusterName).Build())
	return err
}

func (p *HCloud) publicKey() (string, error) {
	p.keyOnce.Do(func() {
		if p.keyPath == "" {
			p.keyErr = fmt.Errorf("no SSH private key configured (ssh.private_key)")
			return
		}
		kp, err := keygen.LoadKeyPair(p.keyPath)
		if err != nil {
			p.keyErr = err
			return
		}
		p.pubKey = strings.TrimSpace(string(kp.PublicKey))
	})
	return p.pubKey, p.keyErr
}

func (p *HCloud) ensureFirewall(ctx context.Context, clusterName string, fw cluster.Firewall) error {
	rules, err := firewallRules(fw.Rules)
	if err != nil {
		return fmt.Errorf("role %s: %w", fw.Role, err)
	}
	fwLabels := labels.NewLabelBuilder(clusterName).WithRole(fw.Role).Build()
	_, err = p.client.EnsureFirewall(ctx, fw.Name, rules, fwLabels)
	return err
}

// RequestInstance creates the server, or powers it on when it exists but is
// off, and returns it once it has a public address.
func (p *HCloud) RequestInstance(ctx context.Context, s *cluster.Server) (*cluster.Computer, error) {
	if s.Machine != nil {
		return p.powerOn(ctx, s)
	}

	spec := s.Spec
	opts := hcloud.ServerCreateOpts{
		Name:           spec.Name,
		Image:          spec.Cloud.Image,
		ServerType:     spec.Cloud.ServerType,
		Location:       spec.Cloud.Location,
		PlacementGroup: spec.Cloud.PlacementGroup,
		Labels:         spec.Cloud.Labels,
		UserData:       spec.Cloud.UserData,
	}
	if spec.Cloud.SSHKey != "" {
		opts.SSHKeys = []string{spec.Cloud.SSHKey}
	}
	for _, fw := range spec.Cloud.Firewalls {
		opts.Firewalls = append(opts.Firewalls, fw.Name)
	}

	p.log.Info("creating server", "server", spec.Name, "type", spec.Cloud.ServerType, "location", spec.Cloud.Location)
	srv, err := p.client.CreateServer(ctx, opts)
	if err != nil {
		return nil, err
	}

	address := hcloud.ServerIPv4(srv)
	if address == "" {
		address, err = p.client.GetServerIP(ctx, spec.Name)
		if err != nil {
			return nil, fmt.Errorf("server %s created but has no address: %w", spec.Name, err)
		}
	}

	return &cluster.Computer{Server: s, ID: srv.ID, Name: srv.Name, Address: address}, nil
}

func (p *HCloud) powerOn(ctx context.Context, s *cluster.Server) (*cluster.Computer, error) {
	m := s.Machine
	if m.Status != cluster.StatusOff {
		return nil, fmt.Errorf("server %s is %s and cannot be launched", s.Name(), m.Status)
	}

	p.log.Info("powering on server", "server", m.Name, "id", m.ID)
	if err := p.client.PowerOnServer(ctx, m.ID); err != nil {
		return nil, err
	}

	address := m.PublicIP
	if address == "" {
		var err error
		address, err = p.client.GetServerIP(ctx, m.Name)
		if err != nil {
			return nil, fmt.Errorf("server %s powered on but has no address: %w", m.Name, err)
		}
	}
	return &cluster.Computer{Server: s, ID: m.ID, Name: m.Name, Address: address}, nil
}

// SharedResources lists, sorted, the resources Prepare would ensure for
// servers. It is used for dry-run output.
func SharedResources(servers []*cluster.Server) []string {
	seen := make(map[string]bool)
	for _, s := range servers {
		if s.Spec.Cloud.SSHKey != "" {
			seen["ssh key "+s.Spec.Cloud.SSHKey] = true
		}
		for _, fw := range s.Spec.Cloud.Firewalls {
			seen["firewall "+fw.Name] = true
		}
		if s.Spec.Cloud.PlacementGroup != "" {
			seen["placement group "+s.Spec.Cloud.PlacementGroup] = true
		}
	}
	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
