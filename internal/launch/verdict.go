package launch

import (
	"errors"
	"sort"

	"github.com/imamik/facetctl/internal/cluster"
)

// Verdict folds outcomes into the cluster verdict. No outcomes is a no-op;
// every outcome Launched is AllHealthy. Otherwise the verdict is Cancelled
// when any node failed through cancellation and PartialFailure if not.
func Verdict(outcomes map[string]cluster.NodeOutcome) cluster.Verdict {
	if len(outcomes) == 0 {
		return cluster.Verdict{Kind: cluster.NoOp}
	}

	failed := cluster.FailedNames(outcomes)
	if len(failed) == 0 {
		return cluster.Verdict{Kind: cluster.AllHealthy}
	}

	for _, name := range failed {
		var ce *CancellationError
		if errors.As(outcomes[name].Err, &ce) {
			return cluster.Verdict{Kind: cluster.Cancelled, Failed: failed}
		}
	}
	return cluster.Verdict{Kind: cluster.PartialFailure, Failed: failed}
}

// Computers returns the computers of launched outcomes sorted by name.
func Computers(outcomes map[string]cluster.NodeOutcome) []*cluster.Computer {
	var out []*cluster.Computer
	for _, o := range outcomes {
		if o.Kind == cluster.Launched && o.Computer != nil {
			out = append(out, o.Computer)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
