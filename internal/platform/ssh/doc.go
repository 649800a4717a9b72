// Package ssh provides an SSH client for executing commands on remote servers.
//
// It is used to bootstrap freshly launched servers: the node manifest is
// uploaded and the configuration client is started over one connection.
// The client supports key-based authentication with configurable retry logic.
package ssh
