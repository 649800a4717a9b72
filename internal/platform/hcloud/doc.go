// Package hcloud provides a wrapper around the Hetzner Cloud API client with
// retry logic, timeout management and error classification.
//
// # Architecture
//
//   - client.go: interfaces and create options
//   - real_client.go: client initialization and configuration
//   - operations.go: generic get-or-create operation
//   - server.go: server creation, lookup and power on
//   - server_helpers.go: dependency resolution for server creation
//   - firewall.go, placement_group.go, ssh_key.go: shared resources
//   - errors.go: error classification for retry logic
//
// # Generic Operations
//
// EnsureOperation provides get-or-create semantics with optional
// update/validation:
//   - Simple Ensure: Get → return if exists → Create if not
//   - Ensure with Update: Get → Update if exists → Create if not
//   - Ensure with Validation: Get → Validate if exists → Create if not
//
// # Retry and Timeout Configuration
//
// Timeouts and retry parameters are configurable via environment variables:
//
//   - HCLOUD_TIMEOUT_SERVER_CREATE: Server creation timeout (default: 10m)
//   - HCLOUD_TIMEOUT_SERVER_IP: Server IP assignment timeout (default: 60s)
//   - HCLOUD_TIMEOUT_IMAGE_WAIT: Image availability wait timeout (default: 5m)
//   - HCLOUD_RETRY_MAX_ATTEMPTS: Maximum retry attempts (default: 5)
//   - HCLOUD_RETRY_INITIAL_DELAY: Initial retry delay (default: 1s)
//
// Invalid-parameter errors are returned immediately; transient failures of a
// single API call are retried with exponential backoff.
package hcloud
