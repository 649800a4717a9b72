// Package labels provides consistent labeling for Hetzner Cloud resources.
//
// All labels use the facetctl.io domain prefix and follow a builder pattern
// for constructing label sets with cluster, facet, index and manager
// identification. [Identity] parses them back when the resolver matches
// existing servers to their definitions.
package labels
