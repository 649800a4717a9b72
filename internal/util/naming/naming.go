package naming

import "fmt"

func Server(cluster, facet string, index int) string {
	return fmt.Sprintf("%s-%s-%d", cluster, facet, index)
}

func PlacementGroup(cluster, facet string) string {
	return fmt.Sprintf("%s-%s", cluster, facet)
}

func Firewall(cluster, role string) string {
	return fmt.Sprintf("%s-%s", cluster, role)
}

func SSHKey(cluster string) string {
	return cluster
}

// ClusterRole is the role every server of a cluster carries last.
func ClusterRole(cluster string) string {
	return fmt.Sprintf("%s-cluster", cluster)
}

// FacetRole is the role every server of a facet carries after the cluster role.
func FacetRole(cluster, facet string) string {
	return fmt.Sprintf("%s-%s", cluster, facet)
}

func NodeManifest(cluster, server string) string {
	return fmt.Sprintf("nodes/%s/%s.yaml", cluster, server)
}

func ClusterManifest(cluster string) string {
	return fmt.Sprintf("clusters/%s.yaml", cluster)
}
