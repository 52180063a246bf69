package main

import "github.com/google/uuid"

// newRunID mints a correlation id for one invocation's log lines, so
// multiple concurrent fslice runs writing to the same aggregated log
// stream can be told apart.
func newRunID() string {
	return uuid.NewString()
}
