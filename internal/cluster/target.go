package cluster

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Target selects servers of one cluster. An empty Facet selects every facet;
// nil Indexes selects every index of the selected facets.
type Target struct {
	Cluster string
	Facet   string
	Indexes []int
}

func (t Target) String() string {
	s := t.Cluster
	if t.Facet == "" {
		return s
	}
	s += "-" + t.Facet
	if t.Indexes == nil {
		return s
	}
	parts := make([]string, len(t.Indexes))
	for i, idx := range t.Indexes {
		parts[i] = strconv.Itoa(idx)
	}
	return s + "-" + strings.Join(parts, ",")
}

// Includes reports whether the facet/index pair is selected.
func (t Target) Includes(facet string, index int) bool {
	if t.Facet != "" && t.Facet != facet {
		return false
	}
	if t.Indexes == nil {
		return true
	}
	for _, i := range t.Indexes {
		if i == index {
			return true
		}
	}
	return false
}

// ParseTarget accepts either a single "cluster[-facet[-indexes]]" expression
// or up to three separate arguments.
func ParseTarget(args []string) (Target, error) {
	var parts []string
	switch len(args) {
	case 0:
		return Target{}, fmt.Errorf("a cluster name is required")
	case 1:
		parts = strings.SplitN(args[0], "-", 3)
	case 2, 3:
		parts = args
	default:
		return Target{}, fmt.Errorf("expected CLUSTER [FACET [INDEXES]], got %d arguments", len(args))
	}

	t := Target{Cluster: parts[0]}
	if t.Cluster == "" {
		return Target{}, fmt.Errorf("a cluster name is required")
	}
	if len(parts) > 1 {
		t.Facet = parts[1]
		if t.Facet == "" {
			return Target{}, fmt.Errorf("empty facet name in %q", strings.Join(args, " "))
		}
	}
	if len(parts) > 2 {
		idx, err := ParseIndexes(parts[2])
		if err != nil {
			return Target{}, err
		}
		t.Indexes = idx
	}
	return t, nil
}

// ParseIndexes parses a comma separated list of indexes and inclusive
// ranges such as "0-2,5". The result is sorted and free of duplicates.
func ParseIndexes(expr string) ([]int, error) {
	if strings.TrimSpace(expr) == "" {
		return nil, fmt.Errorf("empty index expression")
	}

	seen := make(map[int]bool)
	for _, item := range strings.Split(expr, ",") {
		item = strings.TrimSpace(item)
		lo, hi, isRange := strings.Cut(item, "-")
		start, err := parseIndex(lo)
		if err != nil {
			return nil, err
		}
		end := start
		if isRange {
			if end, err = parseIndex(hi); err != nil {
				return nil, err
			}
			if end < start {
				return nil, fmt.Errorf("invalid index range %q", item)
			}
		}
		for i := start; i <= end; i++ {
			seen[i] = true
		}
	}

	out := make([]int, 0, len(seen))
	for i := range seen {
		out = append(out, i)
	}
	sort.Ints(out)
	return out, nil
}

// MaxIndex is the highest server index a target may name.
const MaxIndex = 9999

func parseIndex(s string) (int, error) {
	i, err := strconv.Atoi(s)
	if err != nil || i < 0 {
		return 0, fmt.Errorf("invalid index %q", s)
	}
	if i > MaxIndex {
		return 0, fmt.Errorf("index %d out of range (max %d)", i, MaxIndex)
	}
	return i, nil
}
