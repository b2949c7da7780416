// Package ollama is a minimal client for the local Ollama HTTP API used by
// transcript analysis.
package ollama
