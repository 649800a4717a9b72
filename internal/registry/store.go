package registry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-logr/logr"
	"gopkg.in/yaml.v3"

	"github.com/imamik/facetctl/internal/cluster"
	"github.com/imamik/facetctl/internal/util/async"
	"github.com/imamik/facetctl/internal/util/naming"
)

// ErrNotFound is returned by a Backend when a key does not exist.
var ErrNotFound = errors.New("manifest not found")

// saveConcurrency bounds parallel manifest writes.
const saveConcurrency = 8

// Backend stores documents by key.
type Backend interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	// Location describes where documents end up, for messages.
	Location() string
}

// Store writes node and cluster manifests to a Backend.
type Store struct {
	backend Backend
	log     logr.Logger
	now     func() time.Time
}

// NewStore returns a Store over backend.
func NewStore(backend Backend, log logr.Logger) *Store {
	return &Store{backend: backend, log: log.WithName("registry"), now: time.Now}
}

// Location describes where the store writes.
func (s *Store) Location() string { return s.backend.Location() }

// Save writes the node manifest of every server. All writes are attempted;
// failures are joined.
func (s *Store) Save(ctx context.Context, servers []*cluster.Server) error {
	tasks := make([]async.Task, 0, len(servers))
	for _, srv := range servers {
		spec := srv.Spec
		tasks = append(tasks, async.Task{
			Name: spec.Name,
			Func: func(ctx context.Context) error {
				data, err := yaml.Marshal(NewNodeManifest(spec))
				if err != nil {
					return fmt.Errorf("failed to encode manifest: %w", err)
				}
				return s.backend.Put(ctx, naming.NodeManifest(spec.Cluster, spec.Name), data)
			},
		})
	}

	if err := async.RunParallel(ctx, tasks, saveConcurrency); err != nil {
		return fmt.Errorf("failed to save node manifests: %w", err)
	}
	s.log.V(1).Info("saved node manifests", "count", len(servers), "location", s.backend.Location())
	return nil
}

// Aggregate recomputes the cluster manifest from the servers of the cluster
// and the computers launched in this run.
func (s *Store) Aggregate(ctx context.Context, clusterName string, servers []*cluster.Server, computers []*cluster.Computer) error {
	key := naming.ClusterManifest(clusterName)

	current, err := s.LoadCluster(ctx, clusterName)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	if current == nil {
		current = &ClusterManifest{Name: clusterName}
	}

	for _, srv := range servers {
		if srv.Spec.Environment != "" {
			current.Environment = srv.Spec.Environment
			break
		}
	}
	current.Members = mergeMembers(current.Members, servers, computers)
	current.UpdatedAt = s.now().UTC()

	data, err := yaml.Marshal(current)
	if err != nil {
		return fmt.Errorf("failed to encode cluster manifest: %w", err)
	}
	if err := s.backend.Put(ctx, key, data); err != nil {
		return fmt.Errorf("failed to save cluster manifest: %w", err)
	}
	s.log.Info("updated cluster manifest", "cluster", clusterName, "members", len(current.Members))
	return nil
}

// LoadCluster reads the cluster manifest. It returns an error wrapping
// ErrNotFound when none has been written yet.
func (s *Store) LoadCluster(ctx context.Context, clusterName string) (*ClusterManifest, error) {
	data, err := s.backend.Get(ctx, naming.ClusterManifest(clusterName))
	if err != nil {
		return nil, err
	}
	var m ClusterManifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse cluster manifest of %s: %w", clusterName, err)
	}
	return &m, nil
}
