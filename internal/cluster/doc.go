// Package cluster holds the data model of a launch: immutable server specs
// built from the definition file, the machines the provider reports for them,
// and the outcomes and verdicts a launch produces.
//
// # Flow
//
//  1. [ParseTarget] turns CLUSTER[-FACET[-INDEXES]] into a [Target]
//  2. [Builder] expands the target into [ServerSpec] values
//  3. [Resolver] pairs each spec with the provider's [Machine], marking
//     orphans, duplicates and label mismatches as bogus
//
// Specs are never modified after the builder returns them.
package cluster
