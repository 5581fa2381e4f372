// Package http implements the local admin surface of the agent.
//
// It exposes the sync engine statistics, a manual flush, discarding of
// pending writes, the build version and the Prometheus metrics. Request
// tracing and access logging are handled here before requests reach the
// service layer.
package http
