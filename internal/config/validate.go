package config

import (
	"fmt"
	"regexp"
	"strconv"
)

// ValidLocations contains all valid Hetzner Cloud datacenter locations.
// https://docs.hetzner.com/cloud/general/locations/
var ValidLocations = map[string]bool{
	"nbg1": true, // Nuremberg, Germany
	"fsn1": true, // Falkenstein, Germany
	"hel1": true, // Helsinki, Finland
	"ash":  true, // Ashburn, USA
	"hil":  true, // Hillsboro, USA
	"sin":  true, // Singapore
}

// Cluster and facet names end up in server names joined by "-", so they
// may not contain one themselves. Server names are hostnames, which rules
// out "_" as well.
var namePattern = regexp.MustCompile(`^[a-z][a-z0-9]*$`)

// Validate checks the definition for errors.
func (f *File) Validate() error {
	if len(f.Clusters) == 0 {
		return fmt.Errorf("at least one cluster is required")
	}

	seen := make(map[string]bool)
	for i := range f.Clusters {
		c := &f.Clusters[i]
		if err := c.validate(); err != nil {
			return fmt.Errorf("cluster %q: %w", c.Name, err)
		}
		if seen[c.Name] {
			return fmt.Errorf("duplicate cluster name %q", c.Name)
		}
		seen[c.Name] = true
	}

	if f.SSH.Port < 1 || f.SSH.Port > 65535 {
		return fmt.Errorf("ssh.port must be between 1 and 65535, got %d", f.SSH.Port)
	}

	for role, impl := range f.Roles {
		for _, rule := range impl.Firewall {
			if err := rule.validate(); err != nil {
				return fmt.Errorf("role %q: %w", role, err)
			}
		}
	}

	return f.Registry.validate()
}

func (c *Cluster) validate() error {
	if !namePattern.MatchString(c.Name) {
		return fmt.Errorf("name must match %s", namePattern)
	}
	if c.Cloud.Provider != ProviderHCloud {
		return fmt.Errorf("unsupported provider %q (only %q is supported)", c.Cloud.Provider, ProviderHCloud)
	}
	if err := c.Cloud.validateLocation(); err != nil {
		return err
	}
	if len(c.Facets) == 0 {
		return fmt.Errorf("at least one facet is required")
	}

	seen := make(map[string]bool)
	for i := range c.Facets {
		facet := &c.Facets[i]
		if err := facet.validate(c.Cloud); err != nil {
			return fmt.Errorf("facet %q: %w", facet.Name, err)
		}
		if seen[facet.Name] {
			return fmt.Errorf("duplicate facet name %q", facet.Name)
		}
		seen[facet.Name] = true
	}
	return nil
}

func (f *Facet) validate(parent CloudConfig) error {
	if !namePattern.MatchString(f.Name) {
		return fmt.Errorf("name must match %s", namePattern)
	}
	if f.Instances < 1 {
		return fmt.Errorf("instances must be at least 1, got %d", f.Instances)
	}

	cloud := parent.Merge(f.Cloud)
	if cloud.Provider != ProviderHCloud {
		return fmt.Errorf("unsupported provider %q", cloud.Provider)
	}
	if err := f.Cloud.validateLocation(); err != nil {
		return err
	}

	for idx, o := range f.Servers {
		if idx < 0 || idx >= f.Instances {
			return fmt.Errorf("server override %d is out of range (instances: %d)", idx, f.Instances)
		}
		if err := o.Cloud.validateLocation(); err != nil {
			return fmt.Errorf("server %d: %w", idx, err)
		}
		merged := cloud.Merge(o.Cloud)
		if merged.ServerType == "" || merged.Image == "" || merged.Location == "" {
			return fmt.Errorf("server %d: server_type, image and location are required", idx)
		}
	}

	if cloud.ServerType == "" {
		return fmt.Errorf("server_type is required")
	}
	if cloud.Image == "" {
		return fmt.Errorf("image is required")
	}
	if cloud.Location == "" {
		return fmt.Errorf("location is required")
	}
	return nil
}

func (c CloudConfig) validateLocation() error {
	if c.Location != "" && !ValidLocations[c.Location] {
		return fmt.Errorf("invalid location %q", c.Location)
	}
	return nil
}

func (r FirewallRule) validate() error {
	switch r.Protocol {
	case "", "tcp", "udp":
	default:
		return fmt.Errorf("unsupported firewall protocol %q", r.Protocol)
	}
	port, err := strconv.Atoi(r.Port)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("invalid firewall port %q", r.Port)
	}
	return nil
}

func (r RegistryConfig) validate() error {
	switch r.Backend {
	case RegistryFile:
		if r.Path == "" {
			return fmt.Errorf("registry.path is required for the file backend")
		}
	case RegistryS3:
		if r.Bucket == "" {
			return fmt.Errorf("registry.bucket is required for the s3 backend")
		}
	default:
		return fmt.Errorf("unsupported registry backend %q", r.Backend)
	}
	return nil
}
