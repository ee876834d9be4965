// Package internal contains shared utilities for docker-go.
//
// It provides the cleanup orchestration used by the attach helpers and
// the streamview command.
package internal
