// Package config loads, normalizes, and validates the TOML configuration
// shared by the companion server, the supervisor, and the CLI.
package config
