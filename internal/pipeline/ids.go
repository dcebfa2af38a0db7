package pipeline

import "github.com/google/uuid"

// NewJobID returns a unique job identifier.
func NewJobID() string {
	return uuid.NewString()
}
