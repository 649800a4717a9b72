// Package launch brings a slice of a cluster from defined to running.
//
// An Orchestrator run goes through these steps:
//
//  1. Gate: classify servers into launchable, running and bogus, and refuse
//     to touch anything while bogus servers exist unless forced.
//  2. Preflight: when bootstrapping, check the bootstrap prerequisites for
//     every launchable server before anything is provisioned.
//  3. Registry sync and shared resource preparation.
//  4. Coordinator: request every instance concurrently and, inside the same
//     unit of work, run the post-launch pipeline (wait for SSH, bootstrap).
//  5. Verdict: fold the per-node outcomes into one cluster verdict and
//     aggregate the cluster only when every node is healthy.
//
// Collaborators (cloud, registry, bootstrap, output) are reached through
// the interfaces in this package.
package launch
