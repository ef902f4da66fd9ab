package util

import "github.com/google/uuid"

// GenerateUUID returns a random v4 UUID string. Entropy exhaustion is the
// only failure mode and uuid.NewString treats it as unrecoverable.
func GenerateUUID() string {
	return uuid.NewString()
}
