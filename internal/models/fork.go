package models

import "time"

// ForkRecord is one fork of the protected repository
type ForkRecord struct {
	Owner     string
	FullName  string
	HTMLURL   string
	HasIssues bool
	CreatedAt time.Time
	PushedAt  time.Time

	// Suspicious is true for every fork not owned by the protected owner
	Suspicious bool
	// Denylisted is an extra signal; it never changes Suspicious
	Denylisted bool
}

// SyncedAfterCreation reports whether the fork received pushes after it was
// created, which is what an automated mirror looks like.
func (f ForkRecord) SyncedAfterCreation() bool {
	if f.CreatedAt.IsZero() || f.PushedAt.IsZero() {
		return false
	}
	return f.PushedAt.After(f.CreatedAt)
}
