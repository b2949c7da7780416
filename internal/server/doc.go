// Package server implements the companion HTTP API: library and settings
// CRUD, download submission, link previews, status, and the websocket event
// stream.
package server
