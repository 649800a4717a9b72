package config

import "sort"

// FirewallRule is an inbound rule a role needs on its servers.
type FirewallRule struct {
	Protocol    string   `yaml:"protocol,omitempty"`
	Port        string   `yaml:"port"`
	SourceIPs   []string `yaml:"source_ips,omitempty"`
	Description string   `yaml:"description,omitempty"`
}

// RoleImplication lists what carrying a role implies for a server.
type RoleImplication struct {
	Firewall []FirewallRule `yaml:"firewall,omitempty"`
}

// RoleImplications maps role names to their implications. It is handed to
// the cluster builder explicitly; there is no process-wide registry.
type RoleImplications map[string]RoleImplication

// DefaultRoleImplications returns the built-in table.
func DefaultRoleImplications() RoleImplications {
	anywhere := []string{"0.0.0.0/0", "::/0"}
	return RoleImplications{
		"ssh": {Firewall: []FirewallRule{
			{Protocol: "tcp", Port: "22", SourceIPs: anywhere, Description: "ssh"},
		}},
		"web": {Firewall: []FirewallRule{
			{Protocol: "tcp", Port: "80", SourceIPs: anywhere, Description: "http"},
			{Protocol: "tcp", Port: "443", SourceIPs: anywhere, Description: "https"},
		}},
		"chef_server": {Firewall: []FirewallRule{
			{Protocol: "tcp", Port: "4000", SourceIPs: anywhere, Description: "chef-server-api"},
			{Protocol: "tcp", Port: "4040", SourceIPs: anywhere, Description: "chef-server-webui"},
		}},
	}
}

// Merge returns a new table with o's entries replacing r's.
func (r RoleImplications) Merge(o RoleImplications) RoleImplications {
	out := make(RoleImplications, len(r)+len(o))
	for k, v := range r {
		out[k] = v
	}
	for k, v := range o {
		out[k] = v
	}
	return out
}

// Implied returns, in sorted order, the roles from roles that have a
// firewall implication.
func (r RoleImplications) Implied(roles []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, role := range roles {
		if seen[role] {
			continue
		}
		seen[role] = true
		if impl, ok := r[role]; ok && len(impl.Firewall) > 0 {
			out = append(out, role)
		}
	}
	sort.Strings(out)
	return out
}
