package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/facetctl/cmd/facetctl/handlers"
)

// runLaunch is replaced in tests.
var runLaunch = handlers.Launch

// Launch returns the command that launches the servers of a cluster.
//
// Environment variables:
//
//	HCLOUD_TOKEN: Hetzner Cloud API token (required unless --dry-run)
//	FACETCTL_S3_ENDPOINT, FACETCTL_S3_REGION, FACETCTL_S3_ACCESS_KEY,
//	FACETCTL_S3_SECRET_KEY: credentials for the s3 registry backend
func Launch() *cobra.Command {
	opts := handlers.LaunchOptions{
		WaitSSH: true,
		Cloud:   true,
	}

	cmd := &cobra.Command{
		Use:   "launch CLUSTER[-FACET[-INDEXES]] | CLUSTER FACET [INDEXES]",
		Short: "Launch the servers of a cluster",
		Long: `Launch every server of the target that is not running yet.

Servers are created (or powered on) concurrently. Each new server is then
waited on until it accepts SSH and, with --bootstrap, handed to the
configured bootstrap command. When every server launched cleanly the
cluster manifest in the registry is updated.

Servers in a transitional or inconsistent state are "bogus"; their presence
aborts the launch unless --force is given.

Examples:
  # Launch every facet of the gibbon cluster
  facetctl launch gibbon

  # Launch indexes 0 to 2 and 5 of the web facet and bootstrap them
  facetctl launch gibbon-web-0-2,5 --bootstrap

  # The same target as separate arguments
  facetctl launch gibbon web 0-2,5

  # Show what would happen without touching the cloud
  facetctl launch gibbon --dry-run`,
		Args: cobra.RangeArgs(1, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			negated := func(name string) bool {
				v, _ := cmd.Flags().GetBool("no-" + name)
				return v
			}
			opts.Bootstrap = opts.Bootstrap && !negated("bootstrap")
			opts.WaitSSH = opts.WaitSSH && !negated("wait-ssh")
			opts.Cloud = opts.Cloud && !negated("cloud")
			return runLaunch(cmd.Context(), args, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.ConfigPath, "config", "c", "", "Path to configuration file (default: facetctl.yaml)")
	f.BoolVar(&opts.DryRun, "dry-run", false, "Show what would be launched without creating anything")
	f.BoolVar(&opts.Force, "force", false, "Launch the remaining servers even if some are bogus")
	f.BoolVarP(&opts.Verbose, "verbose", "v", false, "Show per-server progress and debug logs")
	f.IntVar(&opts.Concurrency, "concurrency", 0, "Maximum number of servers launched at once (0: no limit)")
	f.DurationVar(&opts.SSHTimeout, "ssh-timeout", 0, "How long a server may take to accept SSH (default: FACETCTL_SSH_TIMEOUT or 10m)")
	f.DurationVar(&opts.SSHPollInterval, "ssh-poll-interval", 0, "Delay between SSH reachability checks (default: FACETCTL_SSH_POLL_INTERVAL or 10s)")
	f.StringVar(&opts.MetricsFile, "metrics-file", "", "Write launch metrics in Prometheus text format to this file")

	negatable(cmd, &opts.Bootstrap, "bootstrap", "Run the bootstrap command on new servers")
	negatable(cmd, &opts.WaitSSH, "wait-ssh", "Wait for new servers to accept SSH")
	negatable(cmd, &opts.Cloud, "cloud", "Look up existing servers in the cloud")

	return cmd
}

// negatable registers --name and --no-name for a boolean whose default is
// the current value of *p.
func negatable(cmd *cobra.Command, p *bool, name, usage string) {
	f := cmd.Flags()
	f.BoolVar(p, name, *p, usage)
	f.Bool("no-"+name, false, "Negate --"+name)
	cmd.MarkFlagsMutuallyExclusive(name, "no-"+name)
}
