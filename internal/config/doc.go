// Package config provides configuration loading, merging, and validation
// facilities for the agent.
//
// Configuration is assembled from multiple sources in the following priority
// order (later sources override earlier non-zero fields):
//  1. Environment variables
//  2. Command-line flags
//  3. JSON config file
//
// Missing values are then filled from the defaults in defaults.go and the
// result is validated. The entry point is [GetConfig].
package config
