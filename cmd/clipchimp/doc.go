// Package main hosts the ClipChimp CLI entrypoint and command graph.
//
// The Cobra-based command tree translates terminal invocations into HTTP
// calls against the companion server, library maintenance operations, event
// tailing, dependency checks, and configuration scaffolding. It centralizes
// configuration resolution and companion discovery so subcommands can focus
// on user experience instead of wiring.
package main
