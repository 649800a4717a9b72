package handlers

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-logr/logr"
	hcloudgo "github.com/hetznercloud/hcloud-go/v2/hcloud"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/facetctl/internal/cluster"
	"github.com/imamik/facetctl/internal/config"
	"github.com/imamik/facetctl/internal/launch"
	"github.com/imamik/facetctl/internal/platform/hcloud"
	"github.com/imamik/facetctl/internal/util/keygen"
	"github.com/imamik/facetctl/internal/util/labels"
)

const testConfig = `
ssh:
  private_key: %s
registry:
  backend: file
  path: %s
clusters:
  - name: gibbon
    environment: staging
    cloud:
      server_type: cx22
      location: nbg1
      image: ubuntu-24.04
    roles: [ssh]
    facets:
      - name: web
        instances: 2
`

// testEnv is a config file, key and registry directory in a temp dir.
type testEnv struct {
	configPath  string
	registryDir string
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	dir := t.TempDir()

	kp, err := keygen.GenerateRSAKeyPair(2048)
	require.NoError(t, err)
	keyPath := filepath.Join(dir, "id_rsa")
	require.NoError(t, os.WriteFile(keyPath, kp.PrivateKey, 0o600))

	env := testEnv{
		configPath:  filepath.Join(dir, "facetctl.yaml"),
		registryDir: filepath.Join(dir, "registry"),
	}
	data := fmt.Sprintf(testConfig, keyPath, env.registryDir)
	require.NoError(t, os.WriteFile(env.configPath, []byte(data), 0o600))
	return env
}

// recordingObserver keeps every event as a string.
type recordingObserver struct {
	mu     sync.Mutex
	events []string
}

func (r *recordingObserver) add(s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, s)
}

func (r *recordingObserver) Printf(format string, v ...any) { r.add(fmt.Sprintf(format, v...)) }
func (r *recordingObserver) Warnf(format string, v ...any) {
	r.add("warn: " + fmt.Sprintf(format, v...))
}
func (r *recordingObserver) Section(title string)          { r.add("section: " + title) }
func (r *recordingObserver) Servers([]*cluster.Server)     {}
func (r *recordingObserver) Progress(string, launch.Stage) {}
func (r *recordingObserver) Outcome(o cluster.NodeOutcome) {
	r.add("outcome: " + o.Name + " " + o.Kind.String())
}
func (r *recordingObserver) Verdict(v cluster.Verdict) { r.add("verdict: " + v.String()) }

func (r *recordingObserver) text() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return strings.Join(r.events, "\n")
}

func saveAndRestoreFactories(t *testing.T) *recordingObserver {
	t.Helper()
	origNewInfraClient := newInfraClient
	origNewS3Client := newS3Client
	origNewObserver := newObserver
	origNewLogger := newLogger
	origNewDialer := newDialer
	origFindConfigFile := findConfigFile
	origLoadConfigFile := loadConfigFile
	origWriteMetrics := writeMetrics
	origGetenv := getenv

	t.Cleanup(func() {
		newInfraClient = origNewInfraClient
		newS3Client = origNewS3Client
		newObserver = origNewObserver
		newLogger = origNewLogger
		newDialer = origNewDialer
		findConfigFile = origFindConfigFile
		loadConfigFile = origLoadConfigFile
		writeMetrics = origWriteMetrics
		getenv = origGetenv
	})

	obs := &recordingObserver{}
	newObserver = func(bool) launch.Observer { return obs }
	newLogger = func(bool) (logr.Logger, func()) { return logr.Discard(), func() {} }
	getenv = func(string) string { return "" }
	return obs
}

func withToken(mock *hcloud.MockClient) {
	getenv = func(key string) string {
		if key == "HCLOUD_TOKEN" {
			return "test-token"
		}
		return ""
	}
	newInfraClient = func(string, *config.Timeouts) hcloud.InfrastructureManager { return mock }
}

func TestLoadConfig_EmptyPath_NoDefaultFile(t *testing.T) {
	saveAndRestoreFactories(t)

	findConfigFile = func() (string, error) {
		return "", errors.New("config file facetctl.yaml not found")
	}

	_, err := loadConfig("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no config file found")
}

func TestLoadConfig_EmptyPath_UsesFoundFile(t *testing.T) {
	saveAndRestoreFactories(t)

	findConfigFile = func() (string, error) { return "/path/to/facetctl.yaml", nil }
	var loaded string
	loadConfigFile = func(path string) (*config.File, error) {
		loaded = path
		return &config.File{}, nil
	}

	_, err := loadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "/path/to/facetctl.yaml", loaded)
}

func TestResolveTimeouts_FlagsOverrideEnvironment(t *testing.T) {
	t.Setenv("FACETCTL_SSH_TIMEOUT", "3m")
	t.Setenv("FACETCTL_SSH_POLL_INTERVAL", "20s")

	got := resolveTimeouts(LaunchOptions{})
	assert.Equal(t, 3*time.Minute, got.SSHWait)
	assert.Equal(t, 20*time.Second, got.SSHPollInterval)

	got = resolveTimeouts(LaunchOptions{SSHTimeout: time.Minute, SSHPollInterval: time.Second})
	assert.Equal(t, time.Minute, got.SSHWait)
	assert.Equal(t, time.Second, got.SSHPollInterval)
}

func TestConnectCloud(t *testing.T) {
	obs := saveAndRestoreFactories(t)

	t.Run("real launch without token", func(t *testing.T) {
		_, err := connectCloud(LaunchOptions{Cloud: true}, config.LoadTimeouts(), obs)
		var ce *launch.ConfigurationError
		require.True(t, errors.As(err, &ce))
		assert.Contains(t, err.Error(), "HCLOUD_TOKEN")
	})

	t.Run("dry run without token", func(t *testing.T) {
		infra, err := connectCloud(LaunchOptions{Cloud: true, DryRun: true}, config.LoadTimeouts(), obs)
		require.NoError(t, err)
		assert.Nil(t, infra)
		assert.Contains(t, obs.text(), "warn: HCLOUD_TOKEN is not set")
	})

	t.Run("with token", func(t *testing.T) {
		mock := &hcloud.MockClient{}
		withToken(mock)
		infra, err := connectCloud(LaunchOptions{Cloud: true}, config.LoadTimeouts(), obs)
		require.NoError(t, err)
		assert.Same(t, mock, infra)
	})
}

func TestLaunch_InvalidTarget(t *testing.T) {
	saveAndRestoreFactories(t)

	err := Launch(context.Background(), []string{"gibbon-"}, LaunchOptions{})
	require.Error(t, err)
	assert.Equal(t, ExitFailure, ExitCode(err))
	var ce *launch.ConfigurationError
	assert.True(t, errors.As(err, &ce))
}

func TestLaunch_UnknownCluster(t *testing.T) {
	saveAndRestoreFactories(t)
	env := newTestEnv(t)

	err := Launch(context.Background(), []string{"baboon"}, LaunchOptions{ConfigPath: env.configPath, DryRun: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `cluster "baboon" is not defined`)
	assert.Equal(t, ExitFailure, ExitCode(err))
}

func TestLaunch_DryRun(t *testing.T) {
	obs := saveAndRestoreFactories(t)
	env := newTestEnv(t)
	metricsPath := filepath.Join(t.TempDir(), "launch.prom")

	err := Launch(context.Background(), []string{"gibbon-web"}, LaunchOptions{
		ConfigPath:  env.configPath,
		DryRun:      true,
		WaitSSH:     true,
		MetricsFile: metricsPath,
	})
	require.NoError(t, err)

	out := obs.text()
	assert.Contains(t, out, "outcome: gibbon-web-0 launched")
	assert.Contains(t, out, "outcome: gibbon-web-1 launched")
	assert.Contains(t, out, "verdict: all healthy")
	assert.NoDirExists(t, env.registryDir, "dry runs never write to the registry")

	metrics, err := os.ReadFile(metricsPath)
	require.NoError(t, err)
	assert.Contains(t, string(metrics), "facetctl_launch_runs_total")
}

func TestLaunch_AllHealthy(t *testing.T) {
	saveAndRestoreFactories(t)
	env := newTestEnv(t)

	var mu sync.Mutex
	var created []string
	withToken(&hcloud.MockClient{
		CreateServerFunc: func(_ context.Context, opts hcloud.ServerCreateOpts) (*hcloudgo.Server, error) {
			mu.Lock()
			created = append(created, opts.Name)
			mu.Unlock()
			return &hcloudgo.Server{ID: 10, Name: opts.Name, Status: hcloudgo.ServerStatusRunning}, nil
		},
	})

	err := Launch(context.Background(), []string{"gibbon"}, LaunchOptions{ConfigPath: env.configPath, Cloud: true})
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"gibbon-web-0", "gibbon-web-1"}, created)
	assert.FileExists(t, filepath.Join(env.registryDir, "nodes", "gibbon", "gibbon-web-0.yaml"))
	assert.FileExists(t, filepath.Join(env.registryDir, "clusters", "gibbon.yaml"))
}

func TestLaunch_PartialFailure(t *testing.T) {
	obs := saveAndRestoreFactories(t)
	env := newTestEnv(t)

	withToken(&hcloud.MockClient{
		CreateServerFunc: func(_ context.Context, opts hcloud.ServerCreateOpts) (*hcloudgo.Server, error) {
			if opts.Name == "gibbon-web-1" {
				return nil, errors.New("resource_limit_exceeded")
			}
			return &hcloudgo.Server{ID: 10, Name: opts.Name, Status: hcloudgo.ServerStatusRunning}, nil
		},
	})

	err := Launch(context.Background(), []string{"gibbon"}, LaunchOptions{ConfigPath: env.configPath, Cloud: true})
	require.Error(t, err)
	assert.Equal(t, ExitFailure, ExitCode(err))

	var pfe *launch.PartialFailureError
	require.True(t, errors.As(err, &pfe))
	assert.Equal(t, []string{"gibbon-web-1"}, pfe.Verdict.Failed)
	assert.Contains(t, obs.text(), "outcome: gibbon-web-0 launched")
	assert.NoFileExists(t, filepath.Join(env.registryDir, "clusters", "gibbon.yaml"))
}

func TestLaunch_BogusServerAborts(t *testing.T) {
	saveAndRestoreFactories(t)
	env := newTestEnv(t)

	created := false
	withToken(&hcloud.MockClient{
		GetServersByLabelFunc: func(context.Context, map[string]string) ([]*hcloudgo.Server, error) {
			l := labels.NewLabelBuilder("gibbon").WithFacet("web").WithIndex(0).Build()
			return []*hcloudgo.Server{{ID: 3, Name: "gibbon-web-0", Status: hcloudgo.ServerStatusMigrating, Labels: l}}, nil
		},
		CreateServerFunc: func(_ context.Context, opts hcloud.ServerCreateOpts) (*hcloudgo.Server, error) {
			created = true
			return &hcloudgo.Server{ID: 10, Name: opts.Name}, nil
		},
	})

	err := Launch(context.Background(), []string{"gibbon"}, LaunchOptions{ConfigPath: env.configPath, Cloud: true})
	require.Error(t, err)
	assert.Equal(t, ExitBogus, ExitCode(err))
	assert.False(t, created)
	assert.NoDirExists(t, env.registryDir)
}

func TestLaunch_NoCloudSkipsLookup(t *testing.T) {
	saveAndRestoreFactories(t)
	env := newTestEnv(t)

	listed := false
	withToken(&hcloud.MockClient{
		GetServersByLabelFunc: func(context.Context, map[string]string) ([]*hcloudgo.Server, error) {
			listed = true
			return nil, nil
		},
	})

	err := Launch(context.Background(), []string{"gibbon"}, LaunchOptions{ConfigPath: env.configPath, DryRun: true})
	require.NoError(t, err)
	assert.False(t, listed)
}

func TestLaunch_Cancelled(t *testing.T) {
	saveAndRestoreFactories(t)
	env := newTestEnv(t)
	withToken(&hcloud.MockClient{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Launch(ctx, []string{"gibbon"}, LaunchOptions{ConfigPath: env.configPath, Cloud: true})
	require.Error(t, err)
	assert.Equal(t, ExitCancelled, ExitCode(err))
}
