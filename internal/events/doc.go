// Package events provides the in-process progress hub backing the
// /api/events websocket stream.
package events
