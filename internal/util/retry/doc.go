// Package retry provides exponential backoff retry logic for transient failures.
//
// The [Do] function retries an operation with configurable max attempts,
// initial delay, and maximum delay. It is used for single Hetzner Cloud API
// calls and SSH dials, never for whole launch requests: a failed launch is
// reported to the caller as-is.
package retry
