package hcloud

import (
	"context"
	"fmt"

	"github.com/imamik/facetctl/internal/util/retry"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"
)

// CreateServer creates a new server and waits for the create action and the
// follow-up actions (power on) to finish.
func (c *RealClient) CreateServer(ctx context.Context, opts ServerCreateOpts) (*hcloud.Server, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeouts.ServerCreate)
	defer cancel()

	createOpts, err := c.buildServerCreateOpts(ctx, opts)
	if err != nil {
		return nil, err
	}

	var result hcloud.ServerCreateResult
	err = retry.Do(ctx, func(ctx context.Context) error {
		res, _, err := c.client.Server.Create(ctx, createOpts)
		if err != nil {
			if isInvalidParameter(err) {
				return retry.Fatal(err)
			}
			return err
		}
		result = res
		return nil
	}, retry.WithMaxRetries(c.timeouts.RetryMaxAttempts), retry.WithInitialDelay(c.timeouts.RetryInitialDelay))
	if err != nil {
		return nil, fmt.Errorf("failed to create server %s: %w", opts.Name, err)
	}

	var actions []*hcloud.Action
	for _, a := range append([]*hcloud.Action{result.Action}, result.NextActions...) {
		if a != nil {
			actions = append(actions, a)
		}
	}
	if err := waitForActions(ctx, c.client, actions...); err != nil {
		return nil, fmt.Errorf("failed to wait for server creation: %w", err)
	}

	return result.Server, nil
}

// buildServerCreateOpts resolves all dependencies and builds server creation options.
func (c *RealClient) buildServerCreateOpts(ctx context.Context, opts ServerCreateOpts) (hcloud.ServerCreateOpts, error) {
	serverTypeObj, _, err := c.client.ServerType.Get(ctx, opts.ServerType)
	if err != nil {
		return hcloud.ServerCreateOpts{}, fmt.Errorf("failed to get server type: %w", err)
	}
	if serverTypeObj == nil {
		return hcloud.ServerCreateOpts{}, fmt.Errorf("server type not found: %s", opts.ServerType)
	}

	imageObj, err := c.resolveImage(ctx, opts.Image, serverTypeObj)
	if err != nil {
		return hcloud.ServerCreateOpts{}, err
	}

	sshKeyObjs, err := c.resolveSSHKeys(ctx, opts.SSHKeys)
	if err != nil {
		return hcloud.ServerCreateOpts{}, err
	}

	locObj, err := c.resolveLocation(ctx, opts.Location)
	if err != nil {
		return hcloud.ServerCreateOpts{}, err
	}

	firewalls, err := c.resolveFirewalls(ctx, opts.Firewalls)
	if err != nil {
		return hcloud.ServerCreateOpts{}, err
	}

	pg, err := c.resolvePlacementGroup(ctx, opts.PlacementGroup)
	if err != nil {
		return hcloud.ServerCreateOpts{}, err
	}

	return hcloud.ServerCreateOpts{
		Name:             opts.Name,
		ServerType:       serverTypeObj,
		Image:            imageObj,
		SSHKeys:          sshKeyObjs,
		Labels:           opts.Labels,
		UserData:         opts.UserData,
		Location:         locObj,
		Firewalls:        firewalls,
		PlacementGroup:   pg,
		StartAfterCreate: hcloud.Ptr(true),
	}, nil
}

// GetServerByName returns the server with the given name, or nil.
func (c *RealClient) GetServerByName(ctx context.Context, name string) (*hcloud.Server, error) {
	server, _, err := c.client.Server.GetByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to get server: %w", err)
	}
	return server, nil
}

// GetServersByLabel returns all servers matching the given labels.
func (c *RealClient) GetServersByLabel(ctx context.Context, labels map[string]string) ([]*hcloud.Server, error) {
	servers, err := c.client.Server.AllWithOpts(ctx, hcloud.ServerListOpts{
		ListOpts: hcloud.ListOpts{LabelSelector: buildLabelSelector(labels)},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list servers: %w", err)
	}
	return servers, nil
}

// GetServerIP returns the public IPv4 of the server, polling until one is
// assigned or the ServerIP timeout elapses.
func (c *RealClient) GetServerIP(ctx context.Context, name string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeouts.ServerIP)
	defer cancel()

	var ip string
	err := retry.Do(ctx, func(ctx context.Context) error {
		server, _, err := c.client.Server.GetByName(ctx, name)
		if err != nil {
			return err
		}
		if server == nil {
			return retry.Fatal(fmt.Errorf("server not found: %s", name))
		}
		ip = ServerIPv4(server)
		if ip == "" {
			return fmt.Errorf("server %s has no public IPv4 yet", name)
		}
		return nil
	}, retry.WithMaxRetries(c.timeouts.RetryMaxAttempts), retry.WithInitialDelay(c.timeouts.RetryInitialDelay))
	if err != nil {
		return "", fmt.Errorf("failed to get server IP: %w", err)
	}
	return ip, nil
}

// PowerOnServer starts a stopped server. Locked servers are retried.
func (c *RealClient) PowerOnServer(ctx context.Context, id int64) error {
	server := &hcloud.Server{ID: id}

	err := retry.Do(ctx, func(ctx context.Context) error {
		action, _, err := c.client.Server.Poweron(ctx, server)
		if err != nil {
			if isResourceLocked(err) {
				return err
			}
			return retry.Fatal(err)
		}
		return c.client.Action.WaitFor(ctx, action)
	}, retry.WithMaxRetries(c.timeouts.RetryMaxAttempts), retry.WithInitialDelay(c.timeouts.RetryInitialDelay))
	if err != nil {
		return fmt.Errorf("failed to power on server %d: %w", id, err)
	}
	return nil
}
