// Package commands implements the paracord-e2ee CLI: a host harness
// around the encryption core for provisioning an identity, publishing
// prekeys, and encrypting or decrypting direct-message payloads.
package commands
