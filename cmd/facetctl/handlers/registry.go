package handlers

import (
	"fmt"

	"github.com/go-logr/logr"

	"github.com/imamik/facetctl/internal/config"
	"github.com/imamik/facetctl/internal/platform/s3"
	"github.com/imamik/facetctl/internal/registry"
)

// Environment variables of the s3 registry backend.
const (
	envS3Endpoint  = "FACETCTL_S3_ENDPOINT"
	envS3Region    = "FACETCTL_S3_REGION"
	envS3AccessKey = "FACETCTL_S3_ACCESS_KEY"
	envS3SecretKey = "FACETCTL_S3_SECRET_KEY"
	envS3PathStyle = "FACETCTL_S3_PATH_STYLE"

	defaultS3Region = "fsn1"
)

// newRegistry returns the manifest store selected by the configuration.
// Dry runs never write.
func newRegistry(cfg config.RegistryConfig, dryRun bool, log logr.Logger) (*registry.Store, error) {
	if dryRun {
		return registry.NewStore(registry.NewDryRunStore(log), log), nil
	}

	switch cfg.Backend {
	case config.RegistryS3:
		backend, err := newS3Backend(cfg)
		if err != nil {
			return nil, err
		}
		return registry.NewStore(backend, log), nil
	case config.RegistryFile, "":
		return registry.NewStore(registry.NewFileStore(cfg.Path), log), nil
	default:
		return nil, fmt.Errorf("unsupported registry backend %q", cfg.Backend)
	}
}

func newS3Backend(cfg config.RegistryConfig) (registry.Backend, error) {
	endpoint := getenv(envS3Endpoint)
	accessKey := getenv(envS3AccessKey)
	secretKey := getenv(envS3SecretKey)
	if endpoint == "" || accessKey == "" || secretKey == "" {
		return nil, fmt.Errorf("the s3 registry backend needs %s, %s and %s", envS3Endpoint, envS3AccessKey, envS3SecretKey)
	}
	region := getenv(envS3Region)
	if region == "" {
		region = defaultS3Region
	}

	var opts []s3.ClientOption
	if getenv(envS3PathStyle) == "true" {
		opts = append(opts, s3.WithPathStyle())
	}
	client, err := newS3Client(endpoint, region, accessKey, secretKey, opts...)
	if err != nil {
		return nil, err
	}
	return registry.NewS3Store(client, cfg.Bucket, cfg.Prefix), nil
}
