// Package supervisor manages the companion server process lifecycle: port
// selection, single-instance locking, spawning, health polling, and
// teardown.
package supervisor
