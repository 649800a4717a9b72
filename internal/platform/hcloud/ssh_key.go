package hcloud

import (
	"context"
	"fmt"
	"strings"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"
)

// EnsureSSHKey ensures that an SSH key with the given name exists and holds
// publicKey. A key with the same name but different material is an error.
func (c *RealClient) EnsureSSHKey(ctx context.Context, name, publicKey string, labels map[string]string) (*hcloud.SSHKey, error) {
	want := strings.TrimSpace(publicKey)
	return (&EnsureOperation[*hcloud.SSHKey, hcloud.SSHKeyCreateOpts, any]{
		Name:         name,
		ResourceType: "ssh key",
		Get:          c.client.SSHKey.Get,
		Create: func(ctx context.Context, opts hcloud.SSHKeyCreateOpts) (*CreateResult[*hcloud.SSHKey], *hcloud.Response, error) {
			key, resp, err := c.client.SSHKey.Create(ctx, opts)
			if err != nil {
				return nil, resp, err
			}
			return &CreateResult[*hcloud.SSHKey]{Resource: key}, resp, nil
		},
		Validate: func(key *hcloud.SSHKey) error {
			if !samePublicKey(key.PublicKey, want) {
				return fmt.Errorf("ssh key %s exists with a different public key", name)
			}
			return nil
		},
		CreateOptsMapper: func() hcloud.SSHKeyCreateOpts {
			return hcloud.SSHKeyCreateOpts{
				Name:      name,
				PublicKey: want,
				Labels:    labels,
			}
		},
	}).Execute(ctx, c)
}

// samePublicKey compares key type and material, ignoring the comment.
func samePublicKey(a, b string) bool {
	fa, fb := strings.Fields(a), strings.Fields(b)
	if len(fa) < 2 || len(fb) < 2 {
		return strings.TrimSpace(a) == strings.TrimSpace(b)
	}
	return fa[0] == fb[0] && fa[1] == fb[1]
}
