// Package naming provides consistent naming functions for cluster resources.
//
// Servers are named {cluster}-{facet}-{index}. Shared resources follow
// {cluster}-{facet} (placement groups), {cluster}-{role} (firewalls) and
// {cluster} (SSH key). Registry object keys live under nodes/ and clusters/.
package naming
