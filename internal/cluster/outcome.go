package cluster

import (
	"sort"
	"strings"
)

// OutcomeKind tags a NodeOutcome.
type OutcomeKind int

const (
	// Launched means provisioning and every enabled post-launch step succeeded.
	Launched OutcomeKind = iota
	// LaunchFailed means the instance could not be provisioned.
	LaunchFailed
	// PostLaunchFailed means the instance exists but readiness or bootstrap failed.
	PostLaunchFailed
)

func (k OutcomeKind) String() string {
	switch k {
	case Launched:
		return "launched"
	case LaunchFailed:
		return "launch failed"
	case PostLaunchFailed:
		return "post-launch failed"
	default:
		return "unknown"
	}
}

// NodeOutcome is the result of launching one server.
type NodeOutcome struct {
	Kind     OutcomeKind
	Name     string
	Computer *Computer // nil for LaunchFailed
	Err      error     // nil for Launched
}

// LaunchedOutcome records a healthy node.
func LaunchedOutcome(c *Computer) NodeOutcome {
	return NodeOutcome{Kind: Launched, Name: c.Server.Name(), Computer: c}
}

// LaunchFailedOutcome records a provisioning failure.
func LaunchFailedOutcome(name string, err error) NodeOutcome {
	return NodeOutcome{Kind: LaunchFailed, Name: name, Err: err}
}

// PostLaunchFailedOutcome records a node that exists but is not healthy.
func PostLaunchFailedOutcome(c *Computer, err error) NodeOutcome {
	return NodeOutcome{Kind: PostLaunchFailed, Name: c.Server.Name(), Computer: c, Err: err}
}

// VerdictKind tags a Verdict.
type VerdictKind int

const (
	AllHealthy VerdictKind = iota
	PartialFailure
	NoOp
	Cancelled
)

func (k VerdictKind) String() string {
	switch k {
	case AllHealthy:
		return "all healthy"
	case PartialFailure:
		return "partial failure"
	case NoOp:
		return "no-op"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Verdict is the cluster-level result of a launch. It is derived from the
// outcomes and never stored.
type Verdict struct {
	Kind   VerdictKind
	Failed []string // sorted; set for PartialFailure and Cancelled
}

func (v Verdict) String() string {
	if len(v.Failed) == 0 {
		return v.Kind.String()
	}
	return v.Kind.String() + ": " + strings.Join(v.Failed, ", ")
}

// FailedNames returns the sorted names of outcomes that are not Launched.
func FailedNames(outcomes map[string]NodeOutcome) []string {
	var failed []string
	for name, o := range outcomes {
		if o.Kind != Launched {
			failed = append(failed, name)
		}
	}
	sort.Strings(failed)
	return failed
}
