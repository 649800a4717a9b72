// Package provider connects the launch core to a cloud.
//
// HCloud requests instances on Hetzner Cloud, lists the machines that
// already belong to a cluster and ensures the resources servers share (SSH
// key, role firewalls, placement groups). DryRun reports what would happen
// without calling any API.
package provider
