package repository

import "time"

// Attempt is one verification of a filled code. The code itself is never
// stored, only its keyed digest.
type Attempt struct {
	ID         string
	CodeDigest string
	Source     string
	OK         bool
	Distance   *int
	Generation int64
	CreatedAt  time.Time
}

// AttemptStats summarises the attempts table.
type AttemptStats struct {
	Total    int
	Accepted int
	Rejected int
}
