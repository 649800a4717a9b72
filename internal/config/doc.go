// Package config defines the cluster definition file and runtime settings.
//
// The [File] struct is the canonical representation of what the operator
// wants to exist: clusters, their facets, per-index overrides, the role
// implication table, SSH and bootstrap settings, and where the registry
// lives. It is loaded from facetctl.yaml and is read-only afterwards; the
// cluster package turns it into immutable server specs.
//
// [LoadTimeouts] reads operation timeouts from the environment.
package config
