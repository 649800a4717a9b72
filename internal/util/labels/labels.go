package labels

import (
	"fmt"
	"strconv"
)

// Standard label keys for Hetzner Cloud resources.
const (
	// KeyCluster identifies which cluster a resource belongs to
	KeyCluster = "facetctl.io/cluster"

	// KeyFacet identifies the facet (role group) of a server
	KeyFacet = "facetctl.io/facet"

	// KeyIndex is the server's index within its facet
	KeyIndex = "facetctl.io/index"

	// KeyEnvironment is the configuration environment of a server
	KeyEnvironment = "facetctl.io/environment"

	// KeyRole marks a firewall with the role that implied it
	KeyRole = "facetctl.io/role"

	// KeyManagedBy identifies the management system
	KeyManagedBy = "facetctl.io/managed-by"
)

// ManagedByFacetctl is the KeyManagedBy value for resources created here.
const ManagedByFacetctl = "facetctl"

// LabelBuilder provides a fluent interface for building Hetzner Cloud resource labels.
type LabelBuilder struct {
	labels map[string]string
}

// NewLabelBuilder creates a new label builder with the cluster name pre-set.
func NewLabelBuilder(clusterName string) *LabelBuilder {
	return &LabelBuilder{
		labels: map[string]string{
			KeyCluster:   clusterName,
			KeyManagedBy: ManagedByFacetctl,
		},
	}
}

// WithFacet adds the facet label.
func (lb *LabelBuilder) WithFacet(facet string) *LabelBuilder {
	lb.labels[KeyFacet] = facet
	return lb
}

// WithIndex adds the server index label.
func (lb *LabelBuilder) WithIndex(index int) *LabelBuilder {
	lb.labels[KeyIndex] = strconv.Itoa(index)
	return lb
}

// WithEnvironment adds the environment label if env is non-empty.
func (lb *LabelBuilder) WithEnvironment(env string) *LabelBuilder {
	if env != "" {
		lb.labels[KeyEnvironment] = env
	}
	return lb
}

// WithRole adds a role label.
func (lb *LabelBuilder) WithRole(role string) *LabelBuilder {
	lb.labels[KeyRole] = role
	return lb
}

// Merge adds all labels from the provided map. Standard keys win over
// extra labels with the same name.
func (lb *LabelBuilder) Merge(extra map[string]string) *LabelBuilder {
	for k, v := range extra {
		if _, reserved := lb.labels[k]; reserved {
			continue
		}
		lb.labels[k] = v
	}
	return lb
}

// Build returns a copy of the labels map.
func (lb *LabelBuilder) Build() map[string]string {
	result := make(map[string]string, len(lb.labels))
	for k, v := range lb.labels {
		result[k] = v
	}
	return result
}

// SelectorForCluster returns a label selector string for all resources in a cluster.
func SelectorForCluster(clusterName string) string {
	return KeyCluster + "=" + clusterName
}

// Identity is the cluster/facet/index triple recorded on a server.
type Identity struct {
	Cluster string
	Facet   string
	Index   int
}

// ParseIdentity extracts the server identity from its labels.
func ParseIdentity(l map[string]string) (Identity, error) {
	id := Identity{Cluster: l[KeyCluster], Facet: l[KeyFacet]}
	if id.Cluster == "" || id.Facet == "" {
		return id, fmt.Errorf("missing %s or %s label", KeyCluster, KeyFacet)
	}
	raw, ok := l[KeyIndex]
	if !ok {
		return id, fmt.Errorf("missing %s label", KeyIndex)
	}
	idx, err := strconv.Atoi(raw)
	if err != nil || idx < 0 {
		return id, fmt.Errorf("invalid %s label %q", KeyIndex, raw)
	}
	id.Index = idx
	return id, nil
}
