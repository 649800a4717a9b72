package hcloud

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"
)

// resolveImage resolves an image for the server type's architecture and
// waits for it to become available.
func (c *RealClient) resolveImage(ctx context.Context, image string, serverTypeObj *hcloud.ServerType) (*hcloud.Image, error) {
	imageObj, _, err := c.client.Image.GetForArchitecture(ctx, image, serverTypeObj.Architecture)
	if err != nil {
		return nil, fmt.Errorf("failed to get image: %w", err)
	}
	if imageObj == nil {
		return nil, fmt.Errorf("image not found: %s (%s)", image, serverTypeObj.Architecture)
	}

	if imageObj.Status != hcloud.ImageStatusAvailable {
		if err := c.waitForImageAvailability(ctx, imageObj); err != nil {
			return nil, err
		}
	}
	return imageObj, nil
}

// waitForImageAvailability waits for an image to become available.
func (c *RealClient) waitForImageAvailability(ctx context.Context, imageObj *hcloud.Image) error {
	log.Printf("Image %s (%d) is in status %s, waiting for it to become available...", imageObj.Name, imageObj.ID, imageObj.Status)
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	timeout := time.After(c.timeouts.ImageWait)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timeout:
			return fmt.Errorf("timeout waiting for image %d to become available", imageObj.ID)
		case <-ticker.C:
			img, _, err := c.client.Image.GetByID(ctx, imageObj.ID)
			if err != nil {
				return fmt.Errorf("failed to get image status: %w", err)
			}
			if img.Status == hcloud.ImageStatusAvailable {
				return nil
			}
			log.Printf("Still waiting for image %d (status: %s)...", imageObj.ID, img.Status)
		}
	}
}

// resolveSSHKeys resolves SSH key names/IDs to SSH key objects.
func (c *RealClient) resolveSSHKeys(ctx context.Context, sshKeys []string) ([]*hcloud.SSHKey, error) {
	var sshKeyObjs []*hcloud.SSHKey
	for _, key := range sshKeys {
		keyObj, _, err := c.client.SSHKey.Get(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("failed to get ssh key %s: %w", key, err)
		}
		if keyObj == nil {
			return nil, fmt.Errorf("ssh key not found: %s", key)
		}
		sshKeyObjs = append(sshKeyObjs, keyObj)
	}
	return sshKeyObjs, nil
}

// resolveLocation resolves a location name to a location object.
func (c *RealClient) resolveLocation(ctx context.Context, location string) (*hcloud.Location, error) {
	if location == "" {
		return nil, nil
	}

	locObj, _, err := c.client.Location.Get(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("failed to get location %s: %w", location, err)
	}
	if locObj == nil {
		return nil, fmt.Errorf("location not found: %s", location)
	}
	return locObj, nil
}

// resolveFirewalls resolves firewall names to create-time attachments.
func (c *RealClient) resolveFirewalls(ctx context.Context, names []string) ([]*hcloud.ServerCreateFirewall, error) {
	var out []*hcloud.ServerCreateFirewall
	for _, name := range names {
		fw, _, err := c.client.Firewall.Get(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("failed to get firewall %s: %w", name, err)
		}
		if fw == nil {
			return nil, fmt.Errorf("firewall not found: %s", name)
		}
		out = append(out, &hcloud.ServerCreateFirewall{Firewall: hcloud.Firewall{ID: fw.ID}})
	}
	return out, nil
}

// resolvePlacementGroup resolves a placement group name; "" means none.
func (c *RealClient) resolvePlacementGroup(ctx context.Context, name string) (*hcloud.PlacementGroup, error) {
	if name == "" {
		return nil, nil
	}
	pg, _, err := c.client.PlacementGroup.Get(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to get placement group %s: %w", name, err)
	}
	if pg == nil {
		return nil, fmt.Errorf("placement group not found: %s", name)
	}
	return pg, nil
}

// ServerIPv4 extracts the public IPv4 address from a server, or empty string if not set.
func ServerIPv4(s *hcloud.Server) string {
	if s != nil && s.PublicNet.IPv4.IP != nil && !s.PublicNet.IPv4.IP.IsUnspecified() {
		return s.PublicNet.IPv4.IP.String()
	}
	return ""
}

// buildLabelSelector converts a map of labels to a Hetzner Cloud label
// selector string with keys in sorted order.
func buildLabelSelector(labels map[string]string) string {
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + labels[k]
	}
	return strings.Join(parts, ",")
}
