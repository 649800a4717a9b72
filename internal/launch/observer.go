package launch

import (
	"github.com/imamik/facetctl/internal/cluster"
)

// Stage is a step a node goes through.
type Stage string

const (
	StageProvision Stage = "provisioning"
	StageReadiness Stage = "waiting for ssh"
	StageBootstrap Stage = "bootstrapping"
)

// Observer receives human-facing progress. Implementations must be safe for
// concurrent use: Progress and Outcome are called from launch units.
type Observer interface {
	Printf(format string, v ...any)
	Warnf(format string, v ...any)
	Section(title string)
	Servers(servers []*cluster.Server)
	Progress(node string, stage Stage)
	Outcome(o cluster.NodeOutcome)
	Verdict(v cluster.Verdict)
}

// NopObserver discards everything.
type NopObserver struct{}

func (NopObserver) Printf(string, ...any)       {}
func (NopObserver) Warnf(string, ...any)        {}
func (NopObserver) Section(string)              {}
func (NopObserver) Servers([]*cluster.Server)   {}
func (NopObserver) Progress(string, Stage)      {}
func (NopObserver) Outcome(cluster.NodeOutcome) {}
func (NopObserver) Verdict(cluster.Verdict)     {}
