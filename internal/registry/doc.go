// Package registry records what was launched.
//
// Before launch every server's node manifest (name, run list, attributes,
// volumes, cloud settings) is written so that bootstrap and configuration
// management can find it. Once a whole launch is healthy the cluster
// manifest, which lists members and their addresses, is recomputed.
//
// Manifests are YAML documents keyed by path. They live either in an S3
// bucket (Hetzner Object Storage), in a local directory, or nowhere at all
// in dry-run mode.
package registry
