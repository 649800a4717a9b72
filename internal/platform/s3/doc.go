// Package s3 provides a client for Hetzner Object Storage (S3-compatible).
//
// It backs the remote registry: node and cluster manifests are stored as
// objects in one bucket, which is created on first use.
package s3
