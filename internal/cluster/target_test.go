package cluster

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTarget(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want Target
	}{
		{name: "cluster only", args: []string{"gibbon"}, want: Target{Cluster: "gibbon"}},
		{name: "cluster and facet", args: []string{"gibbon-web"}, want: Target{Cluster: "gibbon", Facet: "web"}},
		{name: "single index", args: []string{"gibbon-web-2"}, want: Target{Cluster: "gibbon", Facet: "web", Indexes: []int{2}}},
		{name: "range and list", args: []string{"gibbon-web-0-2,5"}, want: Target{Cluster: "gibbon", Facet: "web", Indexes: []int{0, 1, 2, 5}}},
		{name: "separate args", args: []string{"gibbon", "web", "1,3"}, want: Target{Cluster: "gibbon", Facet: "web", Indexes: []int{1, 3}}},
		{name: "separate cluster and facet", args: []string{"gibbon", "db"}, want: Target{Cluster: "gibbon", Facet: "db"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTarget(tt.args)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseTarget_Errors(t *testing.T) {
	for _, args := range [][]string{
		nil,
		{""},
		{"gibbon-"},
		{"gibbon-web-x"},
		{"gibbon-web-3-1"},
		{"a", "b", "c", "d"},
	} {
		_, err := ParseTarget(args)
		assert.Error(t, err, "args %q", args)
	}
}

func TestParseIndexes_RejectsHugeRange(t *testing.T) {
	done := make(chan error, 1)
	go func() {
		_, err := ParseTarget([]string{"gibbon-web-0-100000000"})
		done <- err
	}()

	select {
	case err := <-done:
		require.Error(t, err)
		assert.Contains(t, err.Error(), "out of range")
	case <-time.After(time.Second):
		t.Fatal("ParseTarget did not reject the range in time")
	}

	got, err := ParseIndexes(fmt.Sprintf("%d", MaxIndex))
	require.NoError(t, err)
	assert.Equal(t, []int{MaxIndex}, got)
}

func TestParseIndexes_Dedupes(t *testing.T) {
	got, err := ParseIndexes("3,1-2,2, 0")
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2, 3}, got)
}

func TestTarget_String(t *testing.T) {
	assert.Equal(t, "gibbon", Target{Cluster: "gibbon"}.String())
	assert.Equal(t, "gibbon-web", Target{Cluster: "gibbon", Facet: "web"}.String())
	assert.Equal(t, "gibbon-web-0,2", Target{Cluster: "gibbon", Facet: "web", Indexes: []int{0, 2}}.String())
}

func TestTarget_Includes(t *testing.T) {
	all := Target{Cluster: "gibbon"}
	assert.True(t, all.Includes("web", 7))

	some := Target{Cluster: "gibbon", Facet: "web", Indexes: []int{1}}
	assert.True(t, some.Includes("web", 1))
	assert.False(t, some.Includes("web", 0))
	assert.False(t, some.Includes("db", 1))
}
