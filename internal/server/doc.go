// Package server runs the agent's local admin HTTP server: startup,
// cancellation and graceful shutdown.
package server
