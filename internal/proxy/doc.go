// Package proxy is the loopback HTTP front door: it serves static UI assets
// and forwards API traffic to the companion server.
package proxy
