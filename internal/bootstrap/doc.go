// Package bootstrap hands freshly launched servers to configuration
// management.
//
// For every server a first-boot document (the node's attributes plus its
// run list) is uploaded over SSH and the configured command, a Go template,
// is run. Check validates everything that can be validated locally before
// any server is launched.
package bootstrap
