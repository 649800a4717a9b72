// Package keygen handles the SSH key material used to reach new servers.
//
// [LoadKeyPair] reads the operator's private key and derives the OpenSSH
// public key uploaded to Hetzner Cloud; [GenerateRSAKeyPair] creates fresh
// pairs (PEM private key, authorized_keys public key), mainly for tests.
package keygen
