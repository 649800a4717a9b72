package provider

import (
	"fmt"
	"net"

	hcloudgo "github.com/hetznercloud/hcloud-go/v2/hcloud"

	"github.com/imamik/facetctl/internal/config"
)

var anywhere = []string{"0.0.0.0/0", "::/0"}

// firewallRules converts role firewall rules to inbound Hetzner rules. A
// rule without sources is open to the world.
func firewallRules(rules []config.FirewallRule) ([]hcloudgo.FirewallRule, error) {
	out := make([]hcloudgo.FirewallRule, 0, len(rules))
	for _, rule := range rules {
		sources := rule.SourceIPs
		if len(sources) == 0 {
			sources = anywhere
		}
		nets := make([]net.IPNet, 0, len(sources))
		for _, s := range sources {
			_, n, err := net.ParseCIDR(s)
			if err != nil {
				return nil, fmt.Errorf("invalid source %q: %w", s, err)
			}
			nets = append(nets, *n)
		}

		r := hcloudgo.FirewallRule{
			Direction: hcloudgo.FirewallRuleDirectionIn,
			Protocol:  firewallProtocol(rule.Protocol),
			SourceIPs: nets,
		}
		if rule.Description != "" {
			r.Description = hcloudgo.Ptr(rule.Description)
		}
		if rule.Port != "" {
			r.Port = hcloudgo.Ptr(rule.Port)
		}
		out = append(out, r)
	}
	return out, nil
}

func firewallProtocol(p string) hcloudgo.FirewallRuleProtocol {
	switch p {
	case "udp":
		return hcloudgo.FirewallRuleProtocolUDP
	case "icmp":
		return hcloudgo.FirewallRuleProtocolICMP
	case "gre":
		return hcloudgo.FirewallRuleProtocolGRE
	case "esp":
		return hcloudgo.FirewallRuleProtocolESP
	default:
		return hcloudgo.FirewallRuleProtocolTCP
	}
}
