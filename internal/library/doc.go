// Package library persists the video library and application settings in a
// SQLite database shared by the companion server, the worker, and the CLI.
package library
