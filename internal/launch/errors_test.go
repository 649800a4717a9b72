package launch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/imamik/facetctl/internal/cluster"
)

func TestErrorMessages(t *testing.T) {
	t.Parallel()
	cause := errors.New("cause")

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"configuration", &ConfigurationError{Msg: "bootstrap prerequisites are not met", Err: cause}, "bootstrap prerequisites are not met: cause"},
		{"configuration without cause", &ConfigurationError{Msg: "no target"}, "no target"},
		{"provisioning", &ProvisioningError{Node: "n1", Err: cause}, "provisioning n1 failed: cause"},
		{"readiness", &ReadinessTimeoutError{Node: "n1", Address: "203.0.113.1", Timeout: 30 * time.Second, Attempts: 3, Err: cause},
			"n1 (203.0.113.1) not reachable after 30s (3 attempts): cause"},
		{"bootstrap", &BootstrapError{Node: "n1", Err: cause}, "bootstrapping n1 failed: cause"},
		{"cancel node", &CancellationError{Node: "n1", Err: context.Canceled}, "launch of n1 cancelled: context canceled"},
		{"cancel run", &CancellationError{Err: context.Canceled}, "launch cancelled: context canceled"},
		{"partial failure", &PartialFailureError{
			Verdict:  cluster.Verdict{Kind: cluster.PartialFailure, Failed: []string{"n3"}},
			Outcomes: map[string]cluster.NodeOutcome{"n1": {}, "n2": {}, "n3": {}},
		}, "1 of 3 server(s) failed: n3"},
		{"bogus", &BogusStateError{Servers: []BogusServer{{Name: "n1", Reason: "machine is starting"}}},
			"refusing to launch: 1 bogus server(s): n1 (machine is starting); use --force to launch the rest anyway"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestErrorsUnwrap(t *testing.T) {
	t.Parallel()
	cause := errors.New("cause")

	assert.ErrorIs(t, &ConfigurationError{Msg: "x", Err: cause}, cause)
	assert.ErrorIs(t, &ProvisioningError{Err: cause}, cause)
	assert.ErrorIs(t, &ReadinessTimeoutError{Err: cause}, cause)
	assert.ErrorIs(t, &BootstrapError{Err: cause}, cause)
	assert.ErrorIs(t, &CancellationError{Err: context.DeadlineExceeded}, context.DeadlineExceeded)
}
