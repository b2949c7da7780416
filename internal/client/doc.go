// Package client is the typed HTTP client the CLI uses to talk to a running
// companion server, including discovery through the supervisor state file.
package client
