package cluster

import (
	"fmt"

	"github.com/imamik/facetctl/internal/config"
)

// Firewall is a firewall a server is attached to, with the rules the role
// that implied it requires.
type Firewall struct {
	Name  string
	Role  string
	Rules []config.FirewallRule
}

// CloudSpec is the provider-facing part of a server definition.
type CloudSpec struct {
	Provider       string
	ServerType     string
	Location       string
	Image          string
	SSHKey         string
	SSHUser        string
	SSHPort        int
	Firewalls      []Firewall
	PlacementGroup string // empty when the facet is not spread
	UserData       string
	Labels         map[string]string
}

// LaunchConfig controls what happens after the instance is requested.
type LaunchConfig struct {
	PostLaunchTasks bool
}

// ServerSpec is the resolved definition of one server.
type ServerSpec struct {
	Cluster     string
	Facet       string
	Index       int
	Name        string
	Environment string
	Roles       []string
	RunList     []string
	Attributes  map[string]any
	Volumes     []config.Volume
	Cloud       CloudSpec
	Launch      LaunchConfig
}

// MachineStatus is the provider-reported state of a machine. Values match
// the Hetzner Cloud server status strings.
type MachineStatus string

const (
	StatusRunning      MachineStatus = "running"
	StatusOff          MachineStatus = "off"
	StatusInitializing MachineStatus = "initializing"
	StatusStarting     MachineStatus = "starting"
	StatusStopping     MachineStatus = "stopping"
	StatusDeleting     MachineStatus = "deleting"
	StatusMigrating    MachineStatus = "migrating"
	StatusRebuilding   MachineStatus = "rebuilding"
	StatusUnknown      MachineStatus = "unknown"
)

// Transitional reports whether the machine is between stable states.
func (s MachineStatus) Transitional() bool {
	switch s {
	case StatusRunning, StatusOff:
		return false
	default:
		return true
	}
}

// Machine is what the provider reports for a server.
type Machine struct {
	ID       int64
	Name     string
	Status   MachineStatus
	PublicIP string
	Labels   map[string]string
}

// Server pairs a spec with its observed machine.
type Server struct {
	Spec    ServerSpec
	Machine *Machine // nil when nothing exists yet
	// Bogosity is set by the resolver when the machine cannot be trusted.
	Bogosity string
}

// Name returns the full server name.
func (s *Server) Name() string { return s.Spec.Name }

// BogusReason explains why the server must not be touched, or returns "".
func (s *Server) BogusReason() string {
	if s.Bogosity != "" {
		return s.Bogosity
	}
	if s.Machine != nil && s.Machine.Status.Transitional() {
		return fmt.Sprintf("machine is %s", s.Machine.Status)
	}
	return ""
}

// Running reports whether the machine is up.
func (s *Server) Running() bool {
	return s.BogusReason() == "" && s.Machine != nil && s.Machine.Status == StatusRunning
}

// Launchable reports whether launching would create or start the machine.
func (s *Server) Launchable() bool {
	return s.BogusReason() == "" && (s.Machine == nil || s.Machine.Status == StatusOff)
}

// State is a short human label of the server's condition.
func (s *Server) State() string {
	switch {
	case s.BogusReason() != "":
		return "bogus"
	case s.Machine == nil:
		return "not created"
	default:
		return string(s.Machine.Status)
	}
}

// Computer is a provisioned node.
type Computer struct {
	Server  *Server
	ID      int64
	Name    string
	Address string
}
