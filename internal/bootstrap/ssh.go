package bootstrap

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"
	"text/template"
	"time"

	"github.com/go-logr/logr"

	"github.com/imamik/facetctl/internal/cluster"
	"github.com/imamik/facetctl/internal/config"
	"github.com/imamik/facetctl/internal/platform/ssh"
	"github.com/imamik/facetctl/internal/util/keygen"
)

// stagingDir receives the first-boot document when it is installed with
// sudo.
const stagingDir = "/tmp/facetctl"

// Session runs commands on one server.
type Session interface {
	Execute(ctx context.Context, command string) (string, error)
	Upload(ctx context.Context, remotePath string, data []byte, mode uint32) error
}

// Dialer opens a Session.
type Dialer func(cfg *ssh.Config) (Session, error)

func dialSSH(cfg *ssh.Config) (Session, error) {
	return ssh.NewClient(cfg)
}

// CommandData is what the bootstrap command template sees.
type CommandData struct {
	Name         string
	Cluster      string
	Facet        string
	Index        int
	Environment  string
	Address      string
	ManifestPath string
	RunList      string
}

// SSH bootstraps servers over SSH.
type SSH struct {
	cfg     config.BootstrapConfig
	keyPath string
	timeout time.Duration
	dial    Dialer
	log     logr.Logger

	loadOnce sync.Once
	tmpl     *template.Template
	key      []byte
	loadErr  error
}

// Option configures SSH.
type Option func(*SSH)

// WithDialer replaces how sessions are opened.
func WithDialer(d Dialer) Option {
	return func(s *SSH) { s.dial = d }
}

// NewSSH returns a bootstrapper. timeout bounds one server's bootstrap;
// zero means no limit beyond the caller's context.
func NewSSH(cfg config.BootstrapConfig, sshCfg config.SSHConfig, timeout time.Duration, log logr.Logger, opts ...Option) *SSH {
	s := &SSH{
		cfg:     cfg,
		keyPath: sshCfg.PrivateKeyPath,
		timeout: timeout,
		dial:    dialSSH,
		log:     log.WithName("bootstrap"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *SSH) load() error {
	s.loadOnce.Do(func() {
		tmpl, err := template.New("bootstrap").Option("missingkey=error").Parse(s.cfg.Command)
		if err != nil {
			s.loadErr = fmt.Errorf("invalid bootstrap command: %w", err)
			return
		}
		kp, err := keygen.LoadKeyPair(s.keyPath)
		if err != nil {
			s.loadErr = fmt.Errorf("unusable SSH key: %w", err)
			return
		}
		s.tmpl, s.key = tmpl, kp.PrivateKey
	})
	return s.loadErr
}

// Check verifies that every server can be bootstrapped: the command renders,
// the key is usable, an SSH user is set and all servers share one
// environment. Nothing is contacted.
func (s *SSH) Check(_ context.Context, servers []*cluster.Server) error {
	if strings.TrimSpace(s.cfg.Command) == "" {
		return errors.New("no bootstrap command configured (bootstrap.command)")
	}
	if err := s.load(); err != nil {
		return err
	}

	var errs []error
	if err := commonEnvironment(servers); err != nil {
		errs = append(errs, err)
	}
	for _, srv := range servers {
		if srv.Spec.Cloud.SSHUser == "" {
			errs = append(errs, fmt.Errorf("%s: no SSH user", srv.Name()))
		}
		if _, err := s.render(srv.Spec, ""); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", srv.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// commonEnvironment fails when servers span several environments.
func commonEnvironment(servers []*cluster.Server) error {
	byEnv := make(map[string][]string)
	for _, srv := range servers {
		byEnv[srv.Spec.Environment] = append(byEnv[srv.Spec.Environment], srv.Name())
	}
	if len(byEnv) <= 1 {
		return nil
	}

	envs := make([]string, 0, len(byEnv))
	for env := range byEnv {
		envs = append(envs, env)
	}
	sort.Strings(envs)
	parts := make([]string, len(envs))
	for i, env := range envs {
		label := env
		if label == "" {
			label = "(none)"
		}
		parts[i] = fmt.Sprintf("%s: %s", label, strings.Join(byEnv[env], ", "))
	}
	return fmt.Errorf("servers must share one environment to be bootstrapped together; found %s", strings.Join(parts, "; "))
}

func (s *SSH) render(spec cluster.ServerSpec, address string) (string, error) {
	data := CommandData{
		Name:         spec.Name,
		Cluster:      spec.Cluster,
		Facet:        spec.Facet,
		Index:        spec.Index,
		Environment:  spec.Environment,
		Address:      address,
		ManifestPath: s.cfg.ManifestPath,
		RunList:      strings.Join(spec.RunList, ","),
	}
	var buf bytes.Buffer
	if err := s.tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render bootstrap command: %w", err)
	}
	return buf.String(), nil
}

// FirstBoot is the document uploaded to a server: its attributes with the
// run list added.
func FirstBoot(spec cluster.ServerSpec) ([]byte, error) {
	doc := make(map[string]any, len(spec.Attributes)+1)
	for k, v := range spec.Attributes {
		doc[k] = v
	}
	runList := spec.RunList
	if runList == nil {
		runList = []string{}
	}
	doc["run_list"] = runList
	return json.MarshalIndent(doc, "", "  ")
}

// Bootstrap uploads the first-boot document to the computer and runs the
// bootstrap command.
func (s *SSH) Bootstrap(ctx context.Context, c *cluster.Computer) error {
	if err := s.load(); err != nil {
		return err
	}
	if c.Server == nil {
		return fmt.Errorf("computer %s has no server definition", c.Name)
	}
	if c.Address == "" {
		return fmt.Errorf("computer %s has no address", c.Name)
	}
	spec := c.Server.Spec

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	session, err := s.dial(&ssh.Config{
		Host:       c.Address,
		Port:       spec.Cloud.SSHPort,
		User:       spec.Cloud.SSHUser,
		PrivateKey: s.key,
	})
	if err != nil {
		return fmt.Errorf("failed to open SSH session: %w", err)
	}

	doc, err := FirstBoot(spec)
	if err != nil {
		return fmt.Errorf("failed to encode first-boot document: %w", err)
	}
	command, err := s.render(spec, c.Address)
	if err != nil {
		return err
	}

	uploadPath := s.cfg.ManifestPath
	if s.cfg.Sudo {
		uploadPath = path.Join(stagingDir, path.Base(s.cfg.ManifestPath))
	}
	if err := session.Upload(ctx, uploadPath, doc, 0o600); err != nil {
		return err
	}
	if s.cfg.Sudo {
		command = sudoCommand(uploadPath, s.cfg.ManifestPath, command)
	}

	s.log.Info("running bootstrap command", "server", c.Name, "address", c.Address)
	out, err := session.Execute(ctx, command)
	if err != nil {
		return fmt.Errorf("bootstrap command failed: %w", err)
	}
	s.log.V(1).Info("bootstrap finished", "server", c.Name, "output", strings.TrimSpace(out))
	return nil
}

// sudoCommand moves the staged document into place and runs command, both
// as root.
func sudoCommand(staged, target, command string) string {
	return fmt.Sprintf("sudo -n install -D -m 600 %s %s && rm -f %s && sudo -n sh -c %s",
		ssh.ShellQuote(staged), ssh.ShellQuote(target), ssh.ShellQuote(staged), ssh.ShellQuote(command))
}
